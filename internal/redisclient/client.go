package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-service/internal/cart"

	"github.com/go-redis/redis/v8"
)

// Client persists cart state under one key per shopper session and
// broadcasts every write on a per-session channel, so other holders of
// the same session converge last-write-wins.
type Client struct {
	rdb *redis.Client
}

// envelope is the published write announcement.
type envelope struct {
	Writer string          `json:"writer"`
	Data   json.RawMessage `json:"data"`
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func cartChannel(sessionID string) string {
	return fmt.Sprintf("cart-updates:%s", sessionID)
}

// Load returns the stored cart blob, or nil when the session has no
// persisted state yet.
func (c *Client) Load(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, cartKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart state: %w", err)
	}
	return data, nil
}

// Save stores the full cart blob and announces the write. The key has no
// TTL: carts survive until explicitly cleared or the store is flushed.
func (c *Client) Save(ctx context.Context, sessionID string, data []byte, writerID string) error {
	env, err := json.Marshal(envelope{Writer: writerID, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal update envelope: %w", err)
	}

	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, cartKey(sessionID), data, 0)
	pipe.Publish(ctx, cartChannel(sessionID), env)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist cart state: %w", err)
	}
	return nil
}

// Watch subscribes to the session's update channel and streams write
// announcements until the stop function is called.
func (c *Client) Watch(ctx context.Context, sessionID string) (<-chan cart.Update, func(), error) {
	pubsub := c.rdb.Subscribe(ctx, cartChannel(sessionID))

	// Force the subscription before anyone relies on it.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to cart updates: %w", err)
	}

	out := make(chan cart.Update)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			out <- cart.Update{WriterID: env.Writer, Data: env.Data}
		}
	}()

	stop := func() {
		_ = pubsub.Close()
	}
	return out, stop, nil
}
