// Package notify implements the transient notification side channel: an
// arrival-ordered queue of auto-dismissing messages, one per cart or
// checkout mutation.
package notify

import (
	"sync"
	"time"

	"storefront-service/internal/util"

	"github.com/google/uuid"
)

type Variant string

const (
	VariantDefault Variant = "default"
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
)

// DefaultDuration is how long a message stays up unless the publisher
// overrides it.
const DefaultDuration = 3500 * time.Millisecond

// NoAutoDismiss keeps a message up until it is dismissed manually.
const NoAutoDismiss time.Duration = -1

// Notification is one queued message.
type Notification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Variant     Variant   `json:"variant"`
	CreatedAt   time.Time `json:"created_at"`
}

// Message is the publish request. Variant defaults to VariantDefault and
// a zero Duration to DefaultDuration; use NoAutoDismiss for sticky
// messages.
type Message struct {
	Title       string
	Description string
	Variant     Variant
	Duration    time.Duration
}

// Center queues notifications and runs their dismiss timers. Safe for
// concurrent use.
type Center struct {
	mu              sync.Mutex
	queue           []Notification
	timers          map[string]*time.Timer
	defaultDuration time.Duration
	closed          bool
}

func NewCenter(defaultDuration time.Duration) *Center {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	return &Center{
		timers:          make(map[string]*time.Timer),
		defaultDuration: defaultDuration,
	}
}

// Publish appends a message to the queue and schedules its auto-dismiss
// timer. Returns the message id.
func (c *Center) Publish(msg Message) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ""
	}

	variant := msg.Variant
	if variant == "" {
		variant = VariantDefault
	}

	id := uuid.New().String()
	c.queue = append(c.queue, Notification{
		ID:          id,
		Title:       msg.Title,
		Description: msg.Description,
		Variant:     variant,
		CreatedAt:   time.Now(),
	})

	util.NotificationsPublishedTotal.WithLabelValues(string(variant)).Inc()

	duration := msg.Duration
	if duration == 0 {
		duration = c.defaultDuration
	}
	if duration > 0 {
		c.timers[id] = time.AfterFunc(duration, func() {
			c.Dismiss(id)
		})
	}

	return id
}

// Dismiss removes exactly one message and cancels its timer. Dismissing
// an unknown id is a no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}

	for i, n := range c.queue {
		if n.ID == id {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return
		}
	}
}

// Active returns a snapshot of the queue in arrival order.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.queue))
	copy(out, c.queue)
	return out
}

// Close cancels all pending timers and drops the queue. Further publishes
// are ignored.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.queue = nil
	c.closed = true
}
