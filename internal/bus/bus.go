// Package bus propagates "re-read your data" signals to every observer of a
// context, whether the change happened in this context or in another one that
// shares the storage medium.
package bus

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"parkadmin/internal/pkg/logger"
)

// Topic names a kind of change signal.
type Topic string

const (
	// TopicContentChanged fires after the content aggregate was written.
	TopicContentChanged Topic = "aggregate-changed"
	// TopicSessionChanged fires after the admin session record was written or removed.
	TopicSessionChanged Topic = "session-changed"
)

// Origin tells a subscriber where the change came from.
type Origin int

const (
	// OriginSameContext marks a change made by this context.
	OriginSameContext Origin = iota
	// OriginCrossContext marks a change observed on the shared medium.
	OriginCrossContext
)

func (o Origin) String() string {
	switch o {
	case OriginSameContext:
		return "same-context"
	case OriginCrossContext:
		return "cross-context"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Event is a payload-free change signal.
type Event struct {
	Topic  Topic
	Origin Origin
	Key    string
	At     time.Time
}

// Handler reacts to an event. Handlers run in the publisher's goroutine.
type Handler func(Event)

// Bus is a fan-out publish/subscribe hub. The zero value is not usable; call New.
type Bus struct {
	log  *logger.Logger
	now  func() time.Time
	mu   sync.RWMutex
	next uint64
	subs map[Topic]map[uint64]*Subscription
}

// New constructs an empty bus.
func New(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.NewNop()
	}
	return &Bus{
		log:  log.With("component", "bus"),
		now:  func() time.Time { return time.Now().UTC() },
		subs: make(map[Topic]map[uint64]*Subscription),
	}
}

// Subscription is a registered handler. Close releases it.
type Subscription struct {
	bus     *Bus
	topic   Topic
	id      uint64
	handler Handler
	closed  atomic.Bool
}

// Subscribe registers h for topic.
func (b *Bus) Subscribe(topic Topic, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	sub := &Subscription{bus: b, topic: topic, id: b.next, handler: h}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]*Subscription)
	}
	b.subs[topic][sub.id] = sub
	return sub
}

// Close deregisters the subscription. Once Close returns no new delivery to
// the handler starts, including for an event already being fanned out. It is
// safe to call from inside the handler.
func (s *Subscription) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.bus.mu.Lock()
	delete(s.bus.subs[s.topic], s.id)
	if len(s.bus.subs[s.topic]) == 0 {
		delete(s.bus.subs, s.topic)
	}
	s.bus.mu.Unlock()
}

func (s *Subscription) deliver(ev Event) {
	if s.closed.Load() {
		return
	}
	s.handler(ev)
}

// Publish delivers ev to every live subscriber of ev.Topic. There is no
// acknowledgement; a panicking handler is logged and skipped.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = b.now()
	}
	b.mu.RLock()
	targets := make([]*Subscription, 0, len(b.subs[ev.Topic]))
	for _, sub := range b.subs[ev.Topic] {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		b.safeDeliver(sub, ev)
	}
}

func (b *Bus) safeDeliver(sub *Subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("subscriber panicked", "topic", ev.Topic, "origin", ev.Origin.String(), "panic", r)
		}
	}()
	sub.deliver(ev)
}

// Subscribers returns the number of live subscriptions on topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
