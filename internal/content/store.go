// Package content owns the persisted content aggregate: seeding, reading and
// writing it as a whole, and the per-collection repositories built on top.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"parkadmin/internal/pkg/logger"
	"parkadmin/pkg/domain"
)

// ErrCorrupt is returned when the stored aggregate cannot be decoded. The store
// never falls back to seed data once the key exists.
var ErrCorrupt = errors.New("content: corrupt aggregate")

// MetricsRecorder observes store operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSeed overrides the aggregate written on first use.
func WithSeed(seed func() domain.Aggregate) Option {
	return func(s *Store) {
		if seed != nil {
			s.seed = seed
		}
	}
}

// Store reads and writes the aggregate under domain.KeyContent. Writers in this
// process are serialized; writers in other contexts are not, and the last write
// wins.
type Store struct {
	storage domain.Storage
	log     *logger.Logger
	metrics MetricsRecorder
	seed    func() domain.Aggregate
	mu      sync.Mutex
}

// NewStore constructs a store over the given storage port.
func NewStore(storage domain.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		log:     logger.NewNop(),
		metrics: noopMetrics{},
		seed:    domain.Seed,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "content_store")
	return s
}

// Init writes the seed aggregate when nothing is stored yet. It is a no-op when
// an aggregate, even a corrupt one, already exists.
func (s *Store) Init(ctx context.Context) (err error) {
	defer s.observe(ctx, "init", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init(ctx)
}

// Read returns the stored aggregate, seeding storage first if needed.
func (s *Store) Read(ctx context.Context) (agg domain.Aggregate, err error) {
	defer s.observe(ctx, "read", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Write replaces the stored aggregate.
func (s *Store) Write(ctx context.Context, agg domain.Aggregate) (err error) {
	defer s.observe(ctx, "write", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, agg)
}

// Mutate runs a read-modify-write cycle. fn works on a private copy; the copy is
// written only when fn returns write=true and no error, so a failed mutation
// never leaves a partial aggregate behind.
func (s *Store) Mutate(ctx context.Context, op string, fn func(*domain.Aggregate) (write bool, err error)) (err error) {
	defer s.observe(ctx, op, time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	agg, err := s.read(ctx)
	if err != nil {
		return err
	}
	write, err := fn(&agg)
	if err != nil {
		return err
	}
	if !write {
		return nil
	}
	return s.write(ctx, agg)
}

func (s *Store) init(ctx context.Context) error {
	_, ok, err := s.storage.Get(ctx, domain.KeyContent)
	if err != nil {
		return fmt.Errorf("load aggregate: %w", err)
	}
	if ok {
		return nil
	}
	s.log.Info("seeding content", "key", domain.KeyContent)
	return s.write(ctx, s.seed())
}

func (s *Store) read(ctx context.Context) (domain.Aggregate, error) {
	if err := s.init(ctx); err != nil {
		return domain.Aggregate{}, err
	}
	raw, ok, err := s.storage.Get(ctx, domain.KeyContent)
	if err != nil {
		return domain.Aggregate{}, fmt.Errorf("load aggregate: %w", err)
	}
	if !ok {
		// removed by another context between init and get
		return s.seed(), nil
	}
	var agg domain.Aggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		return domain.Aggregate{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	agg.Normalize()
	return agg, nil
}

func (s *Store) write(ctx context.Context, agg domain.Aggregate) error {
	agg.Normalize()
	raw, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("encode aggregate: %w", err)
	}
	if err := s.storage.Set(ctx, domain.KeyContent, raw); err != nil {
		return fmt.Errorf("store aggregate: %w", err)
	}
	return nil
}

func (s *Store) observe(ctx context.Context, op string, started time.Time, errp *error) {
	elapsed := time.Since(started)
	err := *errp
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	if err != nil {
		s.log.Debug("content operation failed", "operation", op, "error", err)
		return
	}
	s.log.Debug("content operation", "operation", op, "duration", elapsed)
}
