package binding

import (
	"context"

	"parkadmin/internal/bus"
	"parkadmin/internal/content"
	"parkadmin/internal/pkg/logger"
	"parkadmin/pkg/domain"
)

// Collection keeps an observer in sync with one collection repository and
// exposes the repository's mutations.
type Collection[T domain.Entity[T], P domain.Patch[T]] struct {
	*state[[]T]
	repo *content.Collection[T, P]
}

// AttachCollection loads repo, subscribes to content changes and returns the
// binding. The observer receives the initial load as well.
func AttachCollection[T domain.Entity[T], P domain.Patch[T]](ctx context.Context, repo *content.Collection[T, P], b *bus.Bus, observer Observer[[]T], log *logger.Logger) (*Collection[T, P], error) {
	st, err := attach(ctx, repo.Name(), b, bus.TopicContentChanged, repo.List, observer, log)
	if err != nil {
		return nil, err
	}
	return &Collection[T, P]{state: st, repo: repo}, nil
}

// Items returns the last loaded collection.
func (c *Collection[T, P]) Items() []T { return c.Value() }

// Add appends entity; the binding refreshes through the same-context signal.
func (c *Collection[T, P]) Add(ctx context.Context, entity T) (T, error) {
	return c.repo.Add(ctx, entity)
}

// Update merges patch over the entity with id.
func (c *Collection[T, P]) Update(ctx context.Context, id int64, patch P) (bool, error) {
	return c.repo.Update(ctx, id, patch)
}

// Remove drops the entity with id.
func (c *Collection[T, P]) Remove(ctx context.Context, id int64) (bool, error) {
	return c.repo.Remove(ctx, id)
}

// Map keeps an observer in sync with the map singleton.
type Map struct {
	*state[domain.MapConfig]
	repo *content.MapRepository
}

// AttachMap loads the map configuration and subscribes to content changes.
func AttachMap(ctx context.Context, repo *content.MapRepository, b *bus.Bus, observer Observer[domain.MapConfig], log *logger.Logger) (*Map, error) {
	st, err := attach(ctx, "map", b, bus.TopicContentChanged, repo.Get, observer, log)
	if err != nil {
		return nil, err
	}
	return &Map{state: st, repo: repo}, nil
}

// Config returns the last loaded map configuration.
func (m *Map) Config() domain.MapConfig { return m.Value() }

// Update merges patch over the map configuration.
func (m *Map) Update(ctx context.Context, patch domain.MapConfigPatch) (domain.MapConfig, error) {
	return m.repo.Update(ctx, patch)
}

// ToggleActive flips the active flag of the last observed configuration, so a
// toggle issued from a stale view sets the opposite of what that view shows.
func (m *Map) ToggleActive(ctx context.Context) (domain.MapConfig, error) {
	return m.repo.Update(ctx, domain.MapConfigPatch{Active: domain.Ptr(!m.Config().Active)})
}

// Content keeps an observer in sync with the whole aggregate.
type Content struct {
	*state[domain.Aggregate]
}

// AttachContent loads the aggregate and subscribes to content changes.
func AttachContent(ctx context.Context, store *content.Store, b *bus.Bus, observer Observer[domain.Aggregate], log *logger.Logger) (*Content, error) {
	st, err := attach(ctx, "content", b, bus.TopicContentChanged, store.Read, observer, log)
	if err != nil {
		return nil, err
	}
	return &Content{state: st}, nil
}

// Aggregate returns a copy of the last loaded aggregate; callers may modify it.
func (c *Content) Aggregate() domain.Aggregate { return c.Value().Clone() }
