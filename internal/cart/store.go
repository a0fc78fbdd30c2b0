package cart

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/notify"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Update is a foreign write observed on the shared persistence key.
type Update struct {
	WriterID string
	Data     []byte
}

// Persister is the durable key-value store behind a cart session, plus
// the pub/sub channel that broadcasts writes to other holders of the same
// session.
type Persister interface {
	// Load returns the stored blob, or nil when nothing is stored.
	Load(ctx context.Context, sessionID string) ([]byte, error)
	// Save stores the blob and announces the write under writerID.
	Save(ctx context.Context, sessionID string, data []byte, writerID string) error
	// Watch streams foreign writes for the session until stop is called.
	Watch(ctx context.Context, sessionID string) (<-chan Update, func(), error)
}

// Store is the single source of truth for one shopper session: cart line
// items plus favorites. Transitions are applied strictly in dispatch
// order, persisted best-effort after every mutation, and mirrored to
// subscribers. A watcher applies writes from other holders of the same
// session last-write-wins.
type Store struct {
	sessionID string
	writerID  string
	persister Persister
	notifier  *notify.Center
	logger    *zap.Logger

	mu      sync.Mutex
	state   models.CartState
	subs    map[int]func(models.CartState)
	nextSub int

	persistMu   sync.Mutex
	pendingSave []byte
	saving      bool

	stopWatch func()
	closeOnce sync.Once
}

// Open creates the store for a session, rehydrates it once from durable
// storage, and starts the sync watcher. Rehydration is best-effort:
// missing or corrupt storage silently yields the empty state.
func Open(ctx context.Context, sessionID string, persister Persister, notifier *notify.Center) *Store {
	s := &Store{
		sessionID: sessionID,
		writerID:  uuid.New().String(),
		persister: persister,
		notifier:  notifier,
		logger:    util.GetLogger(),
		state:     models.EmptyCartState(),
		subs:      make(map[int]func(models.CartState)),
	}

	s.rehydrate(ctx)
	s.startWatch(ctx)

	return s
}

func (s *Store) rehydrate(ctx context.Context) {
	raw, err := s.persister.Load(ctx, s.sessionID)
	if err != nil {
		s.logger.Warn("Cart rehydration failed, starting empty",
			zap.String("session_id", s.sessionID),
			zap.Error(err))
		util.CartRehydrationsTotal.WithLabelValues("error").Inc()
		return
	}

	state, outcome := DecodeState(raw)
	util.CartRehydrationsTotal.WithLabelValues(string(outcome)).Inc()

	if outcome == DecodeCorrupt || outcome == DecodeCoerced {
		s.logger.Warn("Persisted cart state malformed",
			zap.String("session_id", s.sessionID),
			zap.String("outcome", string(outcome)))
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Store) startWatch(ctx context.Context) {
	updates, stop, err := s.persister.Watch(ctx, s.sessionID)
	if err != nil {
		s.logger.Warn("Cart sync watch unavailable",
			zap.String("session_id", s.sessionID),
			zap.Error(err))
		return
	}
	s.stopWatch = stop

	go func() {
		for update := range updates {
			if update.WriterID == s.writerID {
				continue
			}

			state, outcome := DecodeState(update.Data)
			if outcome == DecodeCorrupt {
				continue
			}

			s.mu.Lock()
			s.state = state
			snapshot := s.snapshotLocked()
			subs := s.subscribersLocked()
			s.mu.Unlock()

			util.CartSyncEventsTotal.Inc()
			for _, fn := range subs {
				fn(snapshot)
			}
		}
	}()
}

// Dispatch applies one intent. The reducer runs under the store lock so
// transitions are strictly ordered; the committed snapshot is queued for
// persistence before the lock drops, so saves follow commit order.
// Notification and fan-out happen after.
func (s *Store) Dispatch(ctx context.Context, intent Intent) {
	s.mu.Lock()
	next, effect, changed := Reduce(s.state, intent)
	if changed {
		s.state = next
	}
	snapshot := s.snapshotLocked()
	subs := s.subscribersLocked()
	if changed {
		s.queueSaveLocked(snapshot)
	}
	s.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues(intent.Name()).Inc()

	if effect.Notify != nil && s.notifier != nil {
		s.notifier.Publish(*effect.Notify)
	}

	if !changed {
		return
	}

	for _, fn := range subs {
		fn(snapshot)
	}
}

// queueSaveLocked hands the committed snapshot to the persistence writer.
// Called with the store mutex held, so queued snapshots follow commit
// order. One writer goroutine drains the queue, which holds only the
// latest snapshot: intermediate states are coalesced and an older state
// can never land in storage after a newer one.
func (s *Store) queueSaveLocked(state models.CartState) {
	data, err := EncodeState(state)
	if err != nil {
		s.logger.Error("Failed to encode cart state", zap.Error(err))
		util.CartPersistFailuresTotal.Inc()
		return
	}

	s.persistMu.Lock()
	s.pendingSave = data
	start := !s.saving
	s.saving = true
	s.persistMu.Unlock()

	if start {
		go s.flushSaves()
	}
}

// flushSaves writes pending snapshots until none remain. Failures are
// logged, never surfaced.
func (s *Store) flushSaves() {
	for {
		s.persistMu.Lock()
		data := s.pendingSave
		s.pendingSave = nil
		if data == nil {
			s.saving = false
			s.persistMu.Unlock()
			return
		}
		s.persistMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := s.persister.Save(ctx, s.sessionID, data, s.writerID)
		cancel()
		if err != nil {
			s.logger.Error("Failed to persist cart state",
				zap.String("session_id", s.sessionID),
				zap.Error(err))
			util.CartPersistFailuresTotal.Inc()
		}
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() models.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers an observer called after every applied mutation and
// every foreign sync. Returns the unsubscribe function.
func (s *Store) Subscribe(fn func(models.CartState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Notifier exposes the session's notification center.
func (s *Store) Notifier() *notify.Center {
	return s.notifier
}

// Close stops the sync watcher and the notifier timers.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.stopWatch != nil {
			s.stopWatch()
		}
		if s.notifier != nil {
			s.notifier.Close()
		}
	})
}

func (s *Store) snapshotLocked() models.CartState {
	items := make([]models.CartLineItem, len(s.state.Items))
	copy(items, s.state.Items)
	favorites := make([]models.FavoriteItem, len(s.state.Favorites))
	copy(favorites, s.state.Favorites)
	return models.CartState{Items: items, Favorites: favorites}
}

// subscribersLocked returns subscribers in registration order.
func (s *Store) subscribersLocked() []func(models.CartState) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	subs := make([]func(models.CartState), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	return subs
}
