package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"parkadmin/internal/binding"
	"parkadmin/internal/bus"
	"parkadmin/pkg/domain"
)

const shutdownTimeout = 5 * time.Second

// watchLine is one refresh printed by the watch command.
type watchLine struct {
	Binding string `json:"binding"`
	Origin  string `json:"origin"`
	Count   *int   `json:"count,omitempty"`
	Value   any    `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
}

// lineWriter serializes lines coming from concurrent bindings.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (w *lineWriter) write(line watchLine) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.enc.Encode(line)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func runWatch(ctx context.Context, env *cmdEnv, args []string) error {
	if err := parseFlags(newFlags(env, "watch"), args); err != nil {
		return err
	}
	if err := env.app.Init(ctx); err != nil {
		return err
	}
	out := &lineWriter{enc: json.NewEncoder(env.stdout)}
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	kinds := kindTable(env.app.Repos)
	for _, name := range kindOrder {
		stop, err := kinds[name].attach(ctx, env.app.Bus, func(kind string, origin bus.Origin, count int, err error) {
			out.write(watchLine{Binding: kind, Origin: origin.String(), Count: &count, Error: errString(err)})
		}, env.log)
		if err != nil {
			return fmt.Errorf("attach %s: %w", name, err)
		}
		closers = append(closers, stop)
	}

	mp, err := binding.AttachMap(ctx, env.app.Repos.Map, env.app.Bus, func(s binding.Snapshot[domain.MapConfig]) {
		out.write(watchLine{Binding: "map", Origin: s.Origin.String(), Value: s.Value, Error: errString(s.Err)})
	}, env.log)
	if err != nil {
		return fmt.Errorf("attach map: %w", err)
	}
	closers = append(closers, mp.Close)

	sess, err := binding.AttachSession(ctx, env.app.Session, env.app.Bus, func(s binding.Snapshot[bool]) {
		out.write(watchLine{Binding: "session", Origin: s.Origin.String(), Value: s.Value, Error: errString(s.Err)})
	}, env.log)
	if err != nil {
		return fmt.Errorf("attach session: %w", err)
	}
	closers = append(closers, sess.Close)

	env.log.Info("watching", "driver", env.app.Backend.Driver, "notify", env.app.Backend.Notify)

	g, gctx := errgroup.WithContext(ctx)
	if env.metrics != nil && env.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", env.metrics.Handler())
		srv := &http.Server{Addr: env.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			env.log.Info("metrics listening", "addr", env.cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve metrics: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}
