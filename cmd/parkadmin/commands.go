package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"parkadmin/internal/binding"
	"parkadmin/internal/bus"
	"parkadmin/internal/content"
	"parkadmin/internal/pkg/logger"
	"parkadmin/pkg/domain"
)

// kindOps erases the entity type of one collection for the command table.
type kindOps struct {
	list   func(context.Context) (any, error)
	get    func(context.Context, int64) (any, bool, error)
	add    func(context.Context, []byte) (any, error)
	update func(context.Context, int64, []byte) (bool, error)
	remove func(context.Context, int64) (bool, error)
	attach func(context.Context, *bus.Bus, func(name string, origin bus.Origin, count int, err error), *logger.Logger) (func(), error)
}

func opsFor[T domain.Entity[T], P domain.Patch[T]](c *content.Collection[T, P]) kindOps {
	return kindOps{
		list: func(ctx context.Context) (any, error) { return c.List(ctx) },
		get: func(ctx context.Context, id int64) (any, bool, error) {
			return c.Get(ctx, id)
		},
		add: func(ctx context.Context, raw []byte) (any, error) {
			var entity T
			if err := decodeStrict(raw, &entity); err != nil {
				return nil, err
			}
			return c.Add(ctx, entity)
		},
		update: func(ctx context.Context, id int64, raw []byte) (bool, error) {
			var patch P
			if err := decodeStrict(raw, &patch); err != nil {
				return false, err
			}
			return c.Update(ctx, id, patch)
		},
		remove: c.Remove,
		attach: func(ctx context.Context, b *bus.Bus, report func(string, bus.Origin, int, error), log *logger.Logger) (func(), error) {
			bd, err := binding.AttachCollection(ctx, c, b, func(s binding.Snapshot[[]T]) {
				report(c.Name(), s.Origin, len(s.Value), s.Err)
			}, log)
			if err != nil {
				return nil, err
			}
			return bd.Close, nil
		},
	}
}

func kindTable(r *content.Repositories) map[string]kindOps {
	return map[string]kindOps{
		content.KindSlides:  opsFor(r.Slides),
		content.KindWonders: opsFor(r.Wonders),
		content.KindAnimals: opsFor(r.Animals),
		content.KindPrices:  opsFor(r.PriceOptions),
		content.KindGroups:  opsFor(r.GroupImages),
	}
}

var kindOrder = []string{content.KindSlides, content.KindWonders, content.KindAnimals, content.KindPrices, content.KindGroups}

func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// kindArgs splits "<kind> [flags]" and resolves the kind.
func kindArgs(env *cmdEnv, args []string) (kindOps, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return kindOps{}, nil, fmt.Errorf("%w: missing kind", errUsage)
	}
	ops, ok := kindTable(env.app.Repos)[args[0]]
	if !ok {
		return kindOps{}, nil, fmt.Errorf("%w: unknown kind %q", errUsage, args[0])
	}
	return ops, args[1:], nil
}

func newFlags(env *cmdEnv, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("parkadmin "+name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	return nil
}

func runList(ctx context.Context, env *cmdEnv, args []string) error {
	ops, rest, err := kindArgs(env, args)
	if err != nil {
		return err
	}
	if err := parseFlags(newFlags(env, "list"), rest); err != nil {
		return err
	}
	items, err := ops.list(ctx)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, items)
}

func runGet(ctx context.Context, env *cmdEnv, args []string) error {
	ops, rest, err := kindArgs(env, args)
	if err != nil {
		return err
	}
	fs := newFlags(env, "get")
	id := fs.Int64("id", 0, "entity id")
	if err := parseFlags(fs, rest); err != nil {
		return err
	}
	item, ok, err := ops.get(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no entity with id %d", *id)
	}
	return printJSON(env.stdout, item)
}

func runAdd(ctx context.Context, env *cmdEnv, args []string) error {
	ops, rest, err := kindArgs(env, args)
	if err != nil {
		return err
	}
	fs := newFlags(env, "add")
	raw := fs.String("json", "", "entity fields as JSON")
	if err := parseFlags(fs, rest); err != nil {
		return err
	}
	if *raw == "" {
		return fmt.Errorf("%w: -json is required", errUsage)
	}
	added, err := ops.add(ctx, []byte(*raw))
	if err != nil {
		return err
	}
	return printJSON(env.stdout, added)
}

func runUpdate(ctx context.Context, env *cmdEnv, args []string) error {
	ops, rest, err := kindArgs(env, args)
	if err != nil {
		return err
	}
	fs := newFlags(env, "update")
	id := fs.Int64("id", 0, "entity id")
	raw := fs.String("json", "", "fields to merge as JSON")
	if err := parseFlags(fs, rest); err != nil {
		return err
	}
	if *raw == "" {
		return fmt.Errorf("%w: -json is required", errUsage)
	}
	found, err := ops.update(ctx, *id, []byte(*raw))
	if err != nil {
		return err
	}
	return printJSON(env.stdout, map[string]any{"id": *id, "updated": found})
}

func runRemove(ctx context.Context, env *cmdEnv, args []string) error {
	ops, rest, err := kindArgs(env, args)
	if err != nil {
		return err
	}
	fs := newFlags(env, "remove")
	id := fs.Int64("id", 0, "entity id")
	if err := parseFlags(fs, rest); err != nil {
		return err
	}
	removed, err := ops.remove(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, map[string]any{"id": *id, "removed": removed})
}

func runMap(ctx context.Context, env *cmdEnv, args []string) error {
	if err := parseFlags(newFlags(env, "map"), args); err != nil {
		return err
	}
	m, err := env.app.Repos.Map.Get(ctx)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, m)
}

func runMapUpdate(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlags(env, "map-update")
	raw := fs.String("json", "", "fields to merge as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *raw == "" {
		return fmt.Errorf("%w: -json is required", errUsage)
	}
	var patch domain.MapConfigPatch
	if err := decodeStrict([]byte(*raw), &patch); err != nil {
		return err
	}
	m, err := env.app.Repos.Map.Update(ctx, patch)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, m)
}

func runMapToggle(ctx context.Context, env *cmdEnv, args []string) error {
	if err := parseFlags(newFlags(env, "map-toggle"), args); err != nil {
		return err
	}
	m, err := env.app.Repos.Map.ToggleActive(ctx)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, m)
}

func runDump(ctx context.Context, env *cmdEnv, args []string) error {
	if err := parseFlags(newFlags(env, "dump"), args); err != nil {
		return err
	}
	agg, err := env.app.Store.Read(ctx)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, agg)
}

func runSeed(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlags(env, "seed")
	force := fs.Bool("force", false, "overwrite existing content with the seed")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *force {
		if err := env.app.Store.Write(ctx, domain.Seed()); err != nil {
			return err
		}
		env.app.Bus.Publish(bus.Event{Topic: bus.TopicContentChanged, Origin: bus.OriginSameContext, Key: domain.KeyContent})
	} else if err := env.app.Init(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintln(env.stdout, "seeded")
	return err
}

func runLogin(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlags(env, "login")
	user := fs.String("user", "", "admin identifier")
	secret := fs.String("secret", "", "admin secret")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	ok, err := env.app.Session.Login(ctx, *user, *secret)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("invalid credentials")
	}
	_, err = fmt.Fprintln(env.stdout, "logged in")
	return err
}

func runLogout(ctx context.Context, env *cmdEnv, args []string) error {
	if err := parseFlags(newFlags(env, "logout"), args); err != nil {
		return err
	}
	if err := env.app.Session.Logout(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintln(env.stdout, "logged out")
	return err
}

func runStatus(ctx context.Context, env *cmdEnv, args []string) error {
	if err := parseFlags(newFlags(env, "status"), args); err != nil {
		return err
	}
	ok, err := env.app.Session.IsAuthenticated(ctx)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, map[string]any{
		"authenticated": ok,
		"ttl":           env.app.Session.TTL().String(),
	})
}
