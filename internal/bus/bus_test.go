package bus

import (
	"context"
	"sync"
	"testing"

	"parkadmin/pkg/domain"
)

func TestPublishFansOutToTopicSubscribers(t *testing.T) {
	b := New(nil)
	var content, session int
	b.Subscribe(TopicContentChanged, func(Event) { content++ })
	b.Subscribe(TopicContentChanged, func(Event) { content++ })
	b.Subscribe(TopicSessionChanged, func(Event) { session++ })

	b.Publish(Event{Topic: TopicContentChanged, Origin: OriginSameContext})
	if content != 2 || session != 0 {
		t.Fatalf("expected 2 content and 0 session deliveries, got %d %d", content, session)
	}
}

func TestPublishDoesNotBatch(t *testing.T) {
	b := New(nil)
	var got []Origin
	b.Subscribe(TopicContentChanged, func(ev Event) { got = append(got, ev.Origin) })
	b.Publish(Event{Topic: TopicContentChanged, Origin: OriginSameContext})
	b.Publish(Event{Topic: TopicContentChanged, Origin: OriginCrossContext})
	b.Publish(Event{Topic: TopicContentChanged, Origin: OriginSameContext})
	if len(got) != 3 {
		t.Fatalf("expected one delivery per publish, got %d", len(got))
	}
	if got[1] != OriginCrossContext {
		t.Fatalf("origin not carried: %v", got)
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	b := New(nil)
	var calls int
	sub := b.Subscribe(TopicContentChanged, func(Event) { calls++ })
	b.Publish(Event{Topic: TopicContentChanged})
	sub.Close()
	sub.Close()
	b.Publish(Event{Topic: TopicContentChanged})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if n := b.Subscribers(TopicContentChanged); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}

func TestCloseFromInsideHandler(t *testing.T) {
	b := New(nil)
	var calls int
	var sub *Subscription
	sub = b.Subscribe(TopicContentChanged, func(Event) {
		calls++
		sub.Close()
	})
	b.Publish(Event{Topic: TopicContentChanged})
	b.Publish(Event{Topic: TopicContentChanged})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestPanickingHandlerDoesNotStopFanOut(t *testing.T) {
	b := New(nil)
	var delivered bool
	b.Subscribe(TopicContentChanged, func(Event) { panic("boom") })
	b.Subscribe(TopicContentChanged, func(Event) { delivered = true })
	b.Publish(Event{Topic: TopicContentChanged})
	if !delivered {
		t.Fatalf("second subscriber starved by panicking one")
	}
}

func TestPublishStampsTime(t *testing.T) {
	b := New(nil)
	var ev Event
	b.Subscribe(TopicSessionChanged, func(e Event) { ev = e })
	b.Publish(Event{Topic: TopicSessionChanged})
	if ev.At.IsZero() {
		t.Fatalf("expected timestamp")
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	b := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := b.Subscribe(TopicContentChanged, func(Event) {})
			sub.Close()
		}()
		go func() {
			defer wg.Done()
			b.Publish(Event{Topic: TopicContentChanged})
		}()
	}
	wg.Wait()
}

type fakeWatcher struct {
	fn      func(string)
	stopped bool
}

func (f *fakeWatcher) Watch(_ context.Context, fn func(string)) (func(), error) {
	f.fn = fn
	return func() { f.stopped = true }, nil
}

func TestBridgeMapsKeysToTopics(t *testing.T) {
	b := New(nil)
	w := &fakeWatcher{}
	stop, err := Bridge(context.Background(), w, b, nil)
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	var events []Event
	b.Subscribe(TopicContentChanged, func(ev Event) { events = append(events, ev) })
	b.Subscribe(TopicSessionChanged, func(ev Event) { events = append(events, ev) })

	w.fn(domain.KeyContent)
	w.fn(domain.KeySession)
	w.fn("unrelated")

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Topic != TopicContentChanged || events[0].Origin != OriginCrossContext || events[0].Key != domain.KeyContent {
		t.Fatalf("unexpected content event %+v", events[0])
	}
	if events[1].Topic != TopicSessionChanged {
		t.Fatalf("unexpected session event %+v", events[1])
	}
	stop()
	if !w.stopped {
		t.Fatalf("stop not forwarded")
	}
}

func TestBridgeWithoutWatcher(t *testing.T) {
	stop, err := Bridge(context.Background(), nil, New(nil), nil)
	if err != nil || stop == nil {
		t.Fatalf("expected no-op bridge, got %v", err)
	}
	stop()
}
