// Package session implements the single-admin login flag shared by every
// context on the same medium.
package session

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"parkadmin/internal/bus"
	"parkadmin/internal/pkg/logger"
	"parkadmin/pkg/domain"
)

// Defaults for the admin credential pair and session lifetime.
const (
	DefaultIdentifier = "admin@parque.com"
	DefaultSecret     = "admin123"
	DefaultTTL        = 24 * time.Hour
)

// Option configures a Manager.
type Option func(*config)

type config struct {
	identifier string
	secret     string
	hash       []byte
	cost       int
	ttl        time.Duration
	now        func() time.Time
	log        *logger.Logger
}

// WithCredentials replaces the accepted identifier and secret.
func WithCredentials(identifier, secret string) Option {
	return func(c *config) {
		c.identifier = identifier
		c.secret = secret
		c.hash = nil
	}
}

// WithSecretHash accepts a precomputed bcrypt hash instead of a plain secret.
func WithSecretHash(identifier string, hash []byte) Option {
	return func(c *config) {
		c.identifier = identifier
		c.hash = append([]byte(nil), hash...)
	}
}

// WithHashCost sets the bcrypt cost used when hashing a plain secret.
func WithHashCost(cost int) Option {
	return func(c *config) { c.cost = cost }
}

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the manager logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// ErrNoStorage is returned by New when no storage port is given.
var ErrNoStorage = errors.New("session: storage is required")

// Manager reads and writes the session record under domain.KeySession.
type Manager struct {
	storage    domain.Storage
	bus        *bus.Bus
	identifier string
	hash       []byte
	ttl        time.Duration
	now        func() time.Time
	log        *logger.Logger
	mu         sync.Mutex
}

// New constructs a manager. The secret is hashed once here.
func New(storage domain.Storage, b *bus.Bus, opts ...Option) (*Manager, error) {
	if storage == nil {
		return nil, ErrNoStorage
	}
	cfg := config{
		identifier: DefaultIdentifier,
		secret:     DefaultSecret,
		cost:       bcrypt.DefaultCost,
		ttl:        DefaultTTL,
		now:        time.Now,
		log:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	hash := cfg.hash
	if hash == nil {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.secret), cfg.cost)
		if err != nil {
			return nil, fmt.Errorf("hash admin secret: %w", err)
		}
	}
	return &Manager{
		storage:    storage,
		bus:        b,
		identifier: cfg.identifier,
		hash:       hash,
		ttl:        cfg.ttl,
		now:        cfg.now,
		log:        cfg.log.With("component", "session"),
	}, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Login records an authenticated session when the pair matches. A mismatch
// returns false and leaves the stored record untouched.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (bool, error) {
	idOK := subtle.ConstantTimeCompare([]byte(identifier), []byte(m.identifier)) == 1
	secretOK := bcrypt.CompareHashAndPassword(m.hash, []byte(secret)) == nil
	if !idOK || !secretOK {
		m.log.Info("login rejected")
		return false, nil
	}
	m.mu.Lock()
	err := m.put(ctx, domain.Session{IsAuthenticated: true, Timestamp: m.now().UnixMilli()})
	m.mu.Unlock()
	if err != nil {
		return false, err
	}
	m.log.Info("login accepted")
	m.notify()
	return true, nil
}

// IsAuthenticated reports whether a live session exists. An expired record is
// overwritten with a logged-out one stamped now.
func (m *Manager) IsAuthenticated(ctx context.Context) (bool, error) {
	m.mu.Lock()
	sess, ok, err := m.get(ctx)
	if err != nil || !ok {
		m.mu.Unlock()
		return false, err
	}
	now := m.now()
	if !sess.Expired(now, m.ttl) {
		m.mu.Unlock()
		return sess.IsAuthenticated, nil
	}
	err = m.put(ctx, domain.Session{IsAuthenticated: false, Timestamp: now.UnixMilli()})
	m.mu.Unlock()
	if err != nil {
		return false, err
	}
	m.log.Info("session expired", "issued_at", sess.IssuedAt())
	m.notify()
	return false, nil
}

// Logout removes the session record.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	err := m.storage.Delete(ctx, domain.KeySession)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.log.Info("logout")
	m.notify()
	return nil
}

// Current returns the stored record without applying expiry.
func (m *Manager) Current(ctx context.Context) (domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(ctx)
}

func (m *Manager) get(ctx context.Context) (domain.Session, bool, error) {
	raw, ok, err := m.storage.Get(ctx, domain.KeySession)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return domain.Session{}, false, nil
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// unreadable records count as logged out
		m.log.Warn("discarding unreadable session", "error", err)
		return domain.Session{}, false, nil
	}
	return sess, true, nil
}

func (m *Manager) put(ctx context.Context, sess domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.storage.Set(ctx, domain.KeySession, raw); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (m *Manager) notify() {
	if m.bus == nil {
		return
	}
	m.bus.Publish(bus.Event{Topic: bus.TopicSessionChanged, Origin: bus.OriginSameContext, Key: domain.KeySession})
}
