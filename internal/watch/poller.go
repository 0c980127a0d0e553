// Package watch adds change notifications to storage media that have no push
// channel by polling the watched keys.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"parkadmin/internal/pkg/logger"
	"parkadmin/pkg/domain"
)

// DefaultInterval is the poll period used when none is configured.
const DefaultInterval = 2 * time.Second

type digest struct {
	sum     uint64
	present bool
}

func digestOf(value []byte, ok bool) digest {
	if !ok {
		return digest{}
	}
	return digest{sum: xxhash.Sum64(value), present: true}
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the poll period.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithKeys replaces the watched keys.
func WithKeys(keys ...string) Option {
	return func(p *Poller) {
		if len(keys) > 0 {
			p.keys = append([]string(nil), keys...)
		}
	}
}

// WithLogger sets the poller logger.
func WithLogger(log *logger.Logger) Option {
	return func(p *Poller) {
		if log != nil {
			p.log = log
		}
	}
}

// Poller decorates a storage medium. Writes made through it are remembered by
// digest so that polling reports only changes made elsewhere.
type Poller struct {
	inner    domain.Storage
	keys     []string
	interval time.Duration
	log      *logger.Logger

	mu       sync.Mutex
	known    map[string]digest
	gen      map[string]uint64
	baseline bool
	watchers map[uint64]func(string)
	next     uint64
	cancel   context.CancelFunc
	done     chan struct{}
}

// New wraps inner. Polling starts with the first Watch call.
func New(inner domain.Storage, opts ...Option) *Poller {
	p := &Poller{
		inner:    inner,
		keys:     []string{domain.KeyContent, domain.KeySession},
		interval: DefaultInterval,
		log:      logger.NewNop(),
		known:    make(map[string]digest),
		gen:      make(map[string]uint64),
		watchers: make(map[uint64]func(string)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("component", "poller")
	return p
}

// Interval returns the poll period.
func (p *Poller) Interval() time.Duration { return p.interval }

// Get reads through to the wrapped medium.
func (p *Poller) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.inner.Get(ctx, key)
}

// Set writes through and remembers the value as this context's own.
func (p *Poller) Set(ctx context.Context, key string, value []byte) error {
	if err := p.inner.Set(ctx, key, value); err != nil {
		return err
	}
	p.remember(key, digestOf(value, true))
	return nil
}

// Delete removes through and remembers the absence as this context's own.
func (p *Poller) Delete(ctx context.Context, key string) error {
	if err := p.inner.Delete(ctx, key); err != nil {
		return err
	}
	p.remember(key, digest{})
	return nil
}

func (p *Poller) remember(key string, d digest) {
	p.mu.Lock()
	p.known[key] = d
	p.gen[key]++
	p.mu.Unlock()
}

// Watch registers fn and starts the poll loop if it is not running. The loop
// stops when ctx of the first Watch call ends or Close is called.
func (p *Poller) Watch(ctx context.Context, fn func(key string)) (func(), error) {
	p.mu.Lock()
	needBaseline := !p.baseline
	p.mu.Unlock()
	if needBaseline {
		if err := p.snapshot(ctx); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	p.next++
	id := p.next
	p.watchers[id] = fn
	if p.cancel == nil {
		loopCtx, cancel := context.WithCancel(ctx)
		p.cancel = cancel
		p.done = make(chan struct{})
		go p.loop(loopCtx, p.done)
	}
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers, id)
			p.mu.Unlock()
		})
	}, nil
}

// snapshot records the current digests without notifying anyone.
func (p *Poller) snapshot(ctx context.Context) error {
	for _, key := range p.keys {
		p.mu.Lock()
		gen := p.gen[key]
		p.mu.Unlock()
		value, ok, err := p.inner.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("baseline %s: %w", key, err)
		}
		p.mu.Lock()
		if p.gen[key] == gen {
			p.known[key] = digestOf(value, ok)
		}
		p.mu.Unlock()
	}
	p.mu.Lock()
	p.baseline = true
	p.mu.Unlock()
	return nil
}

// Poll compares every watched key against its last known digest once and
// notifies the watchers of each key that changed. It returns the changed keys.
func (p *Poller) Poll(ctx context.Context) ([]string, error) {
	var changed []string
	for _, key := range p.keys {
		p.mu.Lock()
		gen := p.gen[key]
		p.mu.Unlock()

		value, ok, err := p.inner.Get(ctx, key)
		if err != nil {
			return changed, fmt.Errorf("poll %s: %w", key, err)
		}
		current := digestOf(value, ok)

		p.mu.Lock()
		// an own write landed while reading; the next tick will settle it
		if p.gen[key] != gen || p.known[key] == current {
			p.mu.Unlock()
			continue
		}
		p.known[key] = current
		fns := make([]func(string), 0, len(p.watchers))
		for _, fn := range p.watchers {
			fns = append(fns, fn)
		}
		p.mu.Unlock()

		changed = append(changed, key)
		for _, fn := range fns {
			fn(key)
		}
	}
	return changed, nil
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Poll(ctx); err != nil && ctx.Err() == nil {
				p.log.Warn("poll failed", "error", err)
			}
		}
	}
}

// Close stops the poll loop and waits for it to exit.
func (p *Poller) Close() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}
