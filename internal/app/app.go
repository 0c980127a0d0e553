// Package app assembles one context: storage medium, change bridge, bus,
// content store, repositories and session manager.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"parkadmin/internal/bus"
	"parkadmin/internal/config"
	"parkadmin/internal/content"
	"parkadmin/internal/observability"
	"parkadmin/internal/pkg/logger"
	"parkadmin/internal/session"
	"parkadmin/internal/storage"
)

// App is one context over a shared medium.
type App struct {
	ID      string
	Log     *logger.Logger
	Backend *storage.Backend
	Bus     *bus.Bus
	Store   *content.Store
	Repos   *content.Repositories
	Session *session.Manager
	Metrics *observability.PromRecorder

	cancel     context.CancelFunc
	stopBridge func()
}

// Option adjusts New.
type Option func(*options)

type options struct {
	storage     []storage.Option
	sessionOpts []session.Option
	metrics     *observability.PromRecorder
}

// WithStorageOptions forwards options to storage.Open.
func WithStorageOptions(opts ...storage.Option) Option {
	return func(o *options) { o.storage = append(o.storage, opts...) }
}

// WithSessionOptions appends session manager options after the configured ones.
func WithSessionOptions(opts ...session.Option) Option {
	return func(o *options) { o.sessionOpts = append(o.sessionOpts, opts...) }
}

// WithMetrics records store operations on rec.
func WithMetrics(rec *observability.PromRecorder) Option {
	return func(o *options) { o.metrics = rec }
}

// New opens the medium described by cfg and wires a context over it.
func New(ctx context.Context, cfg config.Config, log *logger.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = logger.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	id := uuid.NewString()
	log = log.With("context_id", id)

	backend, err := storage.Open(ctx, cfg, log, o.storage...)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a := &App{ID: id, Log: log, Backend: backend, Bus: bus.New(log), Metrics: o.metrics}
	appCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel

	storeOpts := []content.Option{content.WithLogger(log)}
	if o.metrics != nil {
		storeOpts = append(storeOpts, content.WithMetrics(o.metrics))
	}
	a.Store = content.NewStore(backend.Storage, storeOpts...)
	a.Repos = content.NewRepositories(a.Store, a.Bus)

	sessOpts := []session.Option{
		session.WithLogger(log),
		session.WithTTL(cfg.Session.TTL),
	}
	if cfg.Session.SecretHash != "" {
		sessOpts = append(sessOpts, session.WithSecretHash(cfg.Session.Identifier, []byte(cfg.Session.SecretHash)))
	} else {
		sessOpts = append(sessOpts, session.WithCredentials(cfg.Session.Identifier, cfg.Session.Secret))
	}
	sessOpts = append(sessOpts, o.sessionOpts...)
	if a.Session, err = session.New(backend.Storage, a.Bus, sessOpts...); err != nil {
		_ = a.Close()
		return nil, err
	}

	if a.stopBridge, err = bus.Bridge(appCtx, backend.Watcher, a.Bus, log); err != nil {
		_ = a.Close()
		return nil, err
	}
	log.Info("context ready", "driver", backend.Driver, "notify", backend.Notify)
	return a, nil
}

// Init seeds the content aggregate if the medium is empty.
func (a *App) Init(ctx context.Context) error {
	return a.Store.Init(ctx)
}

// Close detaches the bridge and releases the medium.
func (a *App) Close() error {
	if a.stopBridge != nil {
		a.stopBridge()
		a.stopBridge = nil
	}
	if a.cancel != nil {
		a.cancel()
	}
	var errs []error
	if a.Backend != nil {
		errs = append(errs, a.Backend.Close())
	}
	a.Log.Sync()
	return errors.Join(errs...)
}
