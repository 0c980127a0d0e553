package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"parkadmin/internal/pkg/logger"
	"parkadmin/pkg/domain"
)

type changeMessage struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// Notifier decorates a storage medium: after every successful write it
// publishes the key on a Redis channel, and as a domain.Watcher it reports
// keys published by every other notifier on that channel.
type Notifier struct {
	inner   domain.Storage
	rdb     *goredis.Client
	channel string
	origin  string
	log     *logger.Logger
}

// NewNotifier wraps inner. Each notifier gets its own origin id.
func NewNotifier(inner domain.Storage, rdb *goredis.Client, channel string, log *logger.Logger) *Notifier {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logger.NewNop()
	}
	origin := uuid.NewString()
	return &Notifier{
		inner:   inner,
		rdb:     rdb,
		channel: channel,
		origin:  origin,
		log:     log.With("component", "redis_notifier", "origin", origin),
	}
}

// Origin returns the id stamped on this notifier's messages.
func (n *Notifier) Origin() string { return n.origin }

// Get reads through to the wrapped medium.
func (n *Notifier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.inner.Get(ctx, key)
}

// Set writes through and announces the change.
func (n *Notifier) Set(ctx context.Context, key string, value []byte) error {
	if err := n.inner.Set(ctx, key, value); err != nil {
		return err
	}
	n.announce(ctx, key)
	return nil
}

// Delete removes through and announces the change.
func (n *Notifier) Delete(ctx context.Context, key string) error {
	if err := n.inner.Delete(ctx, key); err != nil {
		return err
	}
	n.announce(ctx, key)
	return nil
}

// announce is best effort; the write already succeeded.
func (n *Notifier) announce(ctx context.Context, key string) {
	raw, err := encodeMessage(key, n.origin)
	if err != nil {
		n.log.Warn("encode change message", "key", key, "error", err)
		return
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		n.log.Warn("publish change", "key", key, "error", err)
	}
}

// Watch subscribes to the channel and calls fn for every key changed by
// another origin, until stop is called or ctx ends.
func (n *Notifier) Watch(ctx context.Context, fn func(key string)) (func(), error) {
	if fn == nil {
		return nil, fmt.Errorf("watch callback required")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	sub := n.rdb.Subscribe(watchCtx, n.channel)
	// ensures subscription actually started
	if _, err := sub.Receive(watchCtx); err != nil {
		cancel()
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-watchCtx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				key, foreign, err := decodeMessage(m.Payload, n.origin)
				if err != nil {
					n.log.Warn("bad change payload", "error", err)
					continue
				}
				if foreign {
					fn(key)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func encodeMessage(key, origin string) ([]byte, error) {
	return json.Marshal(changeMessage{Key: key, Origin: origin})
}

// decodeMessage returns the key of a change and whether it came from an
// origin other than self.
func decodeMessage(payload, self string) (string, bool, error) {
	var msg changeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return "", false, err
	}
	if msg.Key == "" {
		return "", false, fmt.Errorf("change message without key")
	}
	return msg.Key, msg.Origin != self, nil
}
