// Package binding attaches observers to the content and session stores. A
// binding loads its value on attach, reloads it on every change signal of its
// topic from either origin, and releases its subscription on Close.
package binding

import (
	"context"
	"sync"
	"sync/atomic"

	"parkadmin/internal/bus"
	"parkadmin/internal/pkg/logger"
)

// Snapshot is what an observer receives after each load. Err is set when the
// reload failed; Value then holds the last good value.
type Snapshot[V any] struct {
	Value  V
	Origin bus.Origin
	Err    error
}

// Observer receives every snapshot published by a binding.
type Observer[V any] func(Snapshot[V])

type state[V any] struct {
	name     string
	fetch    func(context.Context) (V, error)
	observer Observer[V]
	log      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	sub    *bus.Subscription

	// issued numbers reloads as they start; only a reload newer than the
	// applied one may replace value, so a slow stale fetch never wins.
	issued atomic.Uint64

	mu      sync.RWMutex
	value   V
	applied uint64
}

func attach[V any](ctx context.Context, name string, b *bus.Bus, topic bus.Topic, fetch func(context.Context) (V, error), observer Observer[V], log *logger.Logger) (*state[V], error) {
	if log == nil {
		log = logger.NewNop()
	}
	s := &state[V]{
		name:     name,
		fetch:    fetch,
		observer: observer,
		log:      log.With("binding", name),
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	if err := s.reload(ctx, bus.OriginSameContext); err != nil {
		s.cancel()
		return nil, err
	}
	s.sub = b.Subscribe(topic, func(ev bus.Event) {
		_ = s.reload(s.ctx, ev.Origin)
	})
	return s, nil
}

func (s *state[V]) reload(ctx context.Context, origin bus.Origin) error {
	ticket := s.issued.Add(1)
	v, err := s.fetch(ctx)
	if err != nil {
		s.log.Warn("reload failed", "origin", origin.String(), "error", err)
		s.publish(Snapshot[V]{Value: s.Value(), Origin: origin, Err: err})
		return err
	}
	s.mu.Lock()
	if ticket > s.applied {
		s.value, s.applied = v, ticket
	} else {
		v = s.value
	}
	s.mu.Unlock()
	s.publish(Snapshot[V]{Value: v, Origin: origin})
	return nil
}

func (s *state[V]) publish(snap Snapshot[V]) {
	if s.observer != nil {
		s.observer(snap)
	}
}

// Value returns the last successfully loaded value.
func (s *state[V]) Value() V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Refresh forces a reload without raising a signal.
func (s *state[V]) Refresh(ctx context.Context) error {
	return s.reload(ctx, bus.OriginSameContext)
}

// Close releases the subscription. No signal is processed afterwards.
func (s *state[V]) Close() {
	if s.sub != nil {
		s.sub.Close()
	}
	s.cancel()
}
