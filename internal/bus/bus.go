// Package bus publishes outbound engine events (path alerts, live spread
// readings) over Redis Pub/Sub so presentation layers can subscribe
// without touching the core.
package bus

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/arbhub/arbhub/internal/domain"
)

// Config holds connection parameters for the event bus.
type Config struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	TLSEnabled bool
}

// Bus is a thin publisher over a go-redis client.
type Bus struct {
	rdb    *redis.Client
	closed atomic.Bool
}

// New connects to Redis and verifies connectivity with a ping.
func New(ctx context.Context, cfg Config) (*Bus, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("bus: ping: %w", err)
	}
	return &Bus{rdb: rdb}, nil
}

// Publish sends a raw payload to a Pub/Sub channel.
func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	if b.closed.Load() {
		return fmt.Errorf("bus: publish %s: %w", channel, domain.ErrClosed)
	}
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("bus: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe returns a channel of raw payloads from one Pub/Sub channel,
// closed when ctx is cancelled. Used by out-of-process consumers' test
// harnesses and the streaming mode's local taps.
func (b *Bus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	if b.closed.Load() {
		return nil, fmt.Errorf("bus: subscribe %s: %w", channel, domain.ErrClosed)
	}
	pubsub := b.rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("bus: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close releases the underlying connection pool. Publish and Subscribe
// report ErrClosed afterwards.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return domain.ErrClosed
	}
	return b.rdb.Close()
}
