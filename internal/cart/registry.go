package cart

import (
	"context"
	"sync"
	"time"

	"storefront-service/internal/notify"
)

// Registry hands out one open Store per shopper session, creating it on
// first use. Stores stay open until released or shutdown; the registry
// does no automatic eviction, callers that track idle sessions use
// Release.
type Registry struct {
	persister     Persister
	toastDuration time.Duration

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(persister Persister, toastDuration time.Duration) *Registry {
	return &Registry{
		persister:     persister,
		toastDuration: toastDuration,
		stores:        make(map[string]*Store),
	}
}

// Get returns the session's store, opening and rehydrating it if needed.
func (r *Registry) Get(ctx context.Context, sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.stores[sessionID]; ok {
		return store
	}

	store := Open(ctx, sessionID, r.persister, notify.NewCenter(r.toastDuration))
	r.stores[sessionID] = store
	return store
}

// Peek returns the session's store only if it is already open.
func (r *Registry) Peek(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores[sessionID]
	return store, ok
}

// Release closes and forgets one session's store. Unknown sessions are a
// no-op.
func (r *Registry) Release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.stores[sessionID]; ok {
		store.Close()
		delete(r.stores, sessionID)
	}
}

// Close closes every open store.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, store := range r.stores {
		store.Close()
		delete(r.stores, id)
	}
}
