package content

import (
	"context"

	"parkadmin/internal/bus"
	"parkadmin/pkg/domain"
)

// Collection is the CRUD surface for one ordered collection of the aggregate.
// Every mutation call that completes without error raises one same-context
// content signal, including calls that matched nothing.
type Collection[T domain.Entity[T], P domain.Patch[T]] struct {
	name  string
	store *Store
	bus   *bus.Bus
	items func(*domain.Aggregate) *[]T
}

// NewCollection binds a collection accessor to a store. b may be nil, in which
// case no signals are raised.
func NewCollection[T domain.Entity[T], P domain.Patch[T]](name string, store *Store, b *bus.Bus, items func(*domain.Aggregate) *[]T) *Collection[T, P] {
	return &Collection[T, P]{name: name, store: store, bus: b, items: items}
}

// Name returns the collection name used in logs and metrics.
func (c *Collection[T, P]) Name() string { return c.name }

// List returns the collection in display order from a fresh read.
func (c *Collection[T, P]) List(ctx context.Context) ([]T, error) {
	agg, err := c.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	return append([]T{}, *c.items(&agg)...), nil
}

// Get returns the entity with id.
func (c *Collection[T, P]) Get(ctx context.Context, id int64) (T, bool, error) {
	var zero T
	items, err := c.List(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, item := range items {
		if item.EntityID() == id {
			return item, true, nil
		}
	}
	return zero, false, nil
}

// Add appends entity under a freshly assigned id and returns the stored value.
// Any id already set on entity is replaced.
func (c *Collection[T, P]) Add(ctx context.Context, entity T) (T, error) {
	var added T
	err := c.store.Mutate(ctx, c.name+".add", func(agg *domain.Aggregate) (bool, error) {
		added = entity.WithID(agg.NextID())
		items := c.items(agg)
		*items = append(*items, added)
		return true, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	c.notify()
	return added, nil
}

// Update merges patch over the entity with id. A missing id writes nothing and
// returns false.
func (c *Collection[T, P]) Update(ctx context.Context, id int64, patch P) (bool, error) {
	var found bool
	err := c.store.Mutate(ctx, c.name+".update", func(agg *domain.Aggregate) (bool, error) {
		items := *c.items(agg)
		for i := range items {
			if items[i].EntityID() == id {
				items[i] = patch.Apply(items[i]).WithID(id)
				found = true
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	c.notify()
	return found, nil
}

// Remove drops the entity with id. The aggregate is rewritten even when no
// entity matched; the result reports whether one did.
func (c *Collection[T, P]) Remove(ctx context.Context, id int64) (bool, error) {
	var removed bool
	err := c.store.Mutate(ctx, c.name+".remove", func(agg *domain.Aggregate) (bool, error) {
		items := c.items(agg)
		kept := make([]T, 0, len(*items))
		for _, item := range *items {
			if item.EntityID() == id {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		*items = kept
		return true, nil
	})
	if err != nil {
		return false, err
	}
	c.notify()
	return removed, nil
}

func (c *Collection[T, P]) notify() {
	if c.bus == nil {
		return
	}
	c.bus.Publish(bus.Event{Topic: bus.TopicContentChanged, Origin: bus.OriginSameContext, Key: domain.KeyContent})
}
