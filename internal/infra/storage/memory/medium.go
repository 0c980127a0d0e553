// Package memory provides an in-process storage medium shared by any number of
// contexts. It behaves like browser local storage: a write through one handle is
// visible to all handles and notifies the watchers of every other handle.
//
// Notifications are queued per handle and delivered on that handle's own
// goroutine, never in the writer's, so a writer may hold its locks across Set.
package memory

import (
	"context"
	"sync"

	"parkadmin/pkg/domain"
)

// Compile-time contract assertions.
var (
	_ domain.Storage = (*Handle)(nil)
	_ domain.Watcher = (*Handle)(nil)
)

// Medium is the shared key/value space.
type Medium struct {
	mu      sync.RWMutex
	data    map[string][]byte
	handles map[*Handle]struct{}

	pendingMu sync.Mutex
	pending   int
	idle      *sync.Cond
}

// NewMedium returns an empty medium.
func NewMedium() *Medium {
	m := &Medium{data: make(map[string][]byte), handles: make(map[*Handle]struct{})}
	m.idle = sync.NewCond(&m.pendingMu)
	return m
}

// Wait blocks until every queued notification, including those raised by
// watchers while it waits, has been delivered. It must not be called from a
// watcher.
func (m *Medium) Wait() {
	m.pendingMu.Lock()
	for m.pending > 0 {
		m.idle.Wait()
	}
	m.pendingMu.Unlock()
}

func (m *Medium) addPending(n int) {
	m.pendingMu.Lock()
	m.pending += n
	if m.pending <= 0 {
		m.pending = 0
		m.idle.Broadcast()
	}
	m.pendingMu.Unlock()
}

// New returns a handle on a fresh private medium. Intended for tests and the
// ephemeral "memory" driver.
func New() *Handle { return NewMedium().Open() }

// Open returns a new context handle on the medium.
func (m *Medium) Open() *Handle {
	h := &Handle{
		medium:   m,
		watchers: make(map[uint64]func(string)),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	m.mu.Lock()
	m.handles[h] = struct{}{}
	m.mu.Unlock()
	go h.run()
	return h
}

// Snapshot returns a copy of every stored key.
func (m *Medium) Snapshot() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// Clear wipes the medium without notifying anyone, like clearing site data
// from outside the application.
func (m *Medium) Clear() {
	m.mu.Lock()
	m.data = make(map[string][]byte)
	m.mu.Unlock()
}

func (m *Medium) broadcast(from *Handle, key string) {
	m.mu.RLock()
	targets := make([]*Handle, 0, len(m.handles))
	for h := range m.handles {
		if h != from {
			targets = append(targets, h)
		}
	}
	m.mu.RUnlock()
	for _, h := range targets {
		h.enqueue(key)
	}
}

// Handle is one context's view of the medium.
type Handle struct {
	medium *Medium

	mu       sync.Mutex
	next     uint64
	watchers map[uint64]func(string)
	queue    []string
	closed   bool

	wake chan struct{}
	done chan struct{}
}

// Medium returns the shared medium behind the handle.
func (h *Handle) Medium() *Medium { return h.medium }

// Get implements domain.Storage.
func (h *Handle) Get(_ context.Context, key string) ([]byte, bool, error) {
	h.medium.mu.RLock()
	v, ok := h.medium.data[key]
	h.medium.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements domain.Storage.
func (h *Handle) Set(_ context.Context, key string, value []byte) error {
	h.medium.mu.Lock()
	h.medium.data[key] = append([]byte(nil), value...)
	h.medium.mu.Unlock()
	h.medium.broadcast(h, key)
	return nil
}

// Delete implements domain.Storage.
func (h *Handle) Delete(_ context.Context, key string) error {
	h.medium.mu.Lock()
	_, existed := h.medium.data[key]
	delete(h.medium.data, key)
	h.medium.mu.Unlock()
	if existed {
		h.medium.broadcast(h, key)
	}
	return nil
}

// Watch implements domain.Watcher. fn runs on the handle's delivery goroutine,
// one key at a time in write order.
func (h *Handle) Watch(_ context.Context, fn func(key string)) (func(), error) {
	h.mu.Lock()
	h.next++
	id := h.next
	h.watchers[id] = fn
	h.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.watchers, id)
			h.mu.Unlock()
		})
	}, nil
}

// Close detaches the handle from the medium and drops undelivered
// notifications. It does not wait for a delivery already in progress.
func (h *Handle) Close() error {
	h.medium.mu.Lock()
	delete(h.medium.handles, h)
	h.medium.mu.Unlock()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	dropped := len(h.queue)
	h.queue = nil
	h.mu.Unlock()
	close(h.done)
	h.medium.addPending(-dropped)
	return nil
}

func (h *Handle) enqueue(key string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.queue = append(h.queue, key)
	h.medium.addPending(1)
	h.mu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Handle) run() {
	for {
		select {
		case <-h.done:
			return
		case <-h.wake:
		}
		for h.deliverNext() {
		}
	}
}

// deliverNext hands the oldest queued key to every watcher. It reports
// whether a key was taken.
func (h *Handle) deliverNext() bool {
	h.mu.Lock()
	if h.closed || len(h.queue) == 0 {
		h.mu.Unlock()
		return false
	}
	key := h.queue[0]
	h.queue = h.queue[1:]
	fns := make([]func(string), 0, len(h.watchers))
	for _, fn := range h.watchers {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	defer h.medium.addPending(-1)
	for _, fn := range fns {
		fn(key)
	}
	return true
}
