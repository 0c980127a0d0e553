// Package storage selects the persistence medium and the change watcher for
// one context from configuration.
package storage

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"parkadmin/internal/config"
	"parkadmin/internal/infra/storage/fs"
	"parkadmin/internal/infra/storage/memory"
	"parkadmin/internal/infra/storage/postgres"
	"parkadmin/internal/infra/storage/redis"
	"parkadmin/internal/infra/storage/s3"
	"parkadmin/internal/infra/storage/sqlite"
	"parkadmin/internal/pkg/logger"
	"parkadmin/internal/watch"
	"parkadmin/pkg/domain"
)

// ErrUnknownDriver is returned for a driver or notification mode Open does
// not know.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// Backend is an opened medium. Watcher is nil when change notifications are
// disabled.
type Backend struct {
	Storage domain.Storage
	Watcher domain.Watcher
	Driver  string
	Notify  string

	closers []func() error
}

// Close releases every resource opened for the backend, last opened first.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

func (b *Backend) onClose(fn func() error) { b.closers = append(b.closers, fn) }

// Option adjusts Open.
type Option func(*options)

type options struct {
	medium *memory.Medium
	base   domain.Storage
}

// WithMemoryMedium makes the memory driver open a handle on m, so several
// contexts in one process share data.
func WithMemoryMedium(m *memory.Medium) Option {
	return func(o *options) { o.medium = m }
}

// WithBaseStorage bypasses the driver and uses s as the medium; the
// notification mode still applies.
func WithBaseStorage(s domain.Storage) Option {
	return func(o *options) { o.base = s }
}

// Open builds the backend described by cfg.
func Open(ctx context.Context, cfg config.Config, log *logger.Logger, opts ...Option) (*Backend, error) {
	if log == nil {
		log = logger.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	b := &Backend{Driver: cfg.Driver, Notify: cfg.Notify}
	var rdb *goredis.Client
	redisClient := func() (*goredis.Client, error) {
		if rdb != nil {
			return rdb, nil
		}
		c, err := redis.Connect(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		rdb = c
		b.onClose(c.Close)
		return c, nil
	}

	base, native, err := openBase(ctx, cfg, b, o, redisClient)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	mode := cfg.Notify
	if mode == "" || mode == config.NotifyAuto {
		switch {
		case native != nil:
			mode = "native"
		case cfg.Driver == config.DriverRedis:
			mode = config.NotifyRedis
		default:
			mode = config.NotifyPoll
		}
	}
	b.Notify = mode

	switch mode {
	case "native":
		b.Storage, b.Watcher = base, native
	case config.NotifyNone:
		b.Storage = base
	case config.NotifyPoll:
		p := watch.New(base, watch.WithInterval(cfg.PollEvery), watch.WithLogger(log))
		b.onClose(p.Close)
		b.Storage, b.Watcher = p, p
	case config.NotifyRedis:
		c, err := redisClient()
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		n := redis.NewNotifier(base, c, cfg.Redis.Channel, log)
		b.Storage, b.Watcher = n, n
	default:
		_ = b.Close()
		return nil, fmt.Errorf("%w: notification mode %q", ErrUnknownDriver, cfg.Notify)
	}
	log.Info("storage opened", "driver", b.Driver, "notify", b.Notify)
	return b, nil
}

// openBase opens the raw medium. native is set when the medium reports
// cross-context changes by itself.
func openBase(ctx context.Context, cfg config.Config, b *Backend, o options, redisClient func() (*goredis.Client, error)) (domain.Storage, domain.Watcher, error) {
	if o.base != nil {
		b.Driver = "custom"
		w, _ := o.base.(domain.Watcher)
		return o.base, w, nil
	}
	switch cfg.Driver {
	case config.DriverMemory:
		m := o.medium
		if m == nil {
			m = memory.NewMedium()
		}
		h := m.Open()
		b.onClose(h.Close)
		return h, h, nil
	case config.DriverFS:
		s, err := fs.New(cfg.FSRoot)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.DriverSQLite:
		s, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		b.onClose(s.Close)
		return s, nil, nil
	case config.DriverPostgres:
		s, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		b.onClose(s.Close)
		return s, nil, nil
	case config.DriverS3:
		s, err := s3.New(ctx, s3.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.DriverRedis:
		c, err := redisClient()
		if err != nil {
			return nil, nil, err
		}
		return redis.NewStore(c, cfg.Redis.Prefix), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
