package domain

import "context"

// Storage keys shared by every context that uses the same medium.
const (
	KeyContent = "park_admin_data"
	KeySession = "park_admin_auth"
)

// Storage is the port to a persistence medium. Values are opaque bytes; Get
// reports absence with ok=false rather than an error.
type Storage interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Watcher delivers the medium's native mutation notifications. A watcher never
// reports writes made through itself, only writes made by other contexts.
// The returned stop function is idempotent.
type Watcher interface {
	Watch(ctx context.Context, fn func(key string)) (stop func(), err error)
}
