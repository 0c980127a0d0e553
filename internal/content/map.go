package content

import (
	"context"

	"parkadmin/internal/bus"
	"parkadmin/pkg/domain"
)

// MapRepository is the update-only surface of the map singleton.
type MapRepository struct {
	store *Store
	bus   *bus.Bus
}

// NewMapRepository constructs the singleton repository.
func NewMapRepository(store *Store, b *bus.Bus) *MapRepository {
	return &MapRepository{store: store, bus: b}
}

// Get returns the current map configuration.
func (r *MapRepository) Get(ctx context.Context) (domain.MapConfig, error) {
	agg, err := r.store.Read(ctx)
	if err != nil {
		return domain.MapConfig{}, err
	}
	return agg.Map, nil
}

// Update merges patch over the map configuration.
func (r *MapRepository) Update(ctx context.Context, patch domain.MapConfigPatch) (domain.MapConfig, error) {
	var updated domain.MapConfig
	err := r.store.Mutate(ctx, "map.update", func(agg *domain.Aggregate) (bool, error) {
		agg.Map = patch.Apply(agg.Map)
		updated = agg.Map
		return true, nil
	})
	if err != nil {
		return domain.MapConfig{}, err
	}
	r.notify()
	return updated, nil
}

// ToggleActive flips the stored active flag.
func (r *MapRepository) ToggleActive(ctx context.Context) (domain.MapConfig, error) {
	var updated domain.MapConfig
	err := r.store.Mutate(ctx, "map.toggle", func(agg *domain.Aggregate) (bool, error) {
		agg.Map.Active = !agg.Map.Active
		updated = agg.Map
		return true, nil
	})
	if err != nil {
		return domain.MapConfig{}, err
	}
	r.notify()
	return updated, nil
}

func (r *MapRepository) notify() {
	if r.bus == nil {
		return
	}
	r.bus.Publish(bus.Event{Topic: bus.TopicContentChanged, Origin: bus.OriginSameContext, Key: domain.KeyContent})
}
