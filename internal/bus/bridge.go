package bus

import (
	"context"
	"fmt"

	"parkadmin/internal/pkg/logger"
	"parkadmin/pkg/domain"
)

// TopicForKey maps a storage key to the topic observers of that key listen on.
func TopicForKey(key string) (Topic, bool) {
	switch key {
	case domain.KeyContent:
		return TopicContentChanged, true
	case domain.KeySession:
		return TopicSessionChanged, true
	default:
		return "", false
	}
}

// Bridge republishes the medium's native notifications as cross-context events.
// Keys with no topic are ignored. The returned stop function detaches the bridge.
func Bridge(ctx context.Context, w domain.Watcher, b *Bus, log *logger.Logger) (func(), error) {
	if w == nil {
		return func() {}, nil
	}
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With("component", "bridge")
	stop, err := w.Watch(ctx, func(key string) {
		topic, ok := TopicForKey(key)
		if !ok {
			log.Debug("ignoring change on unknown key", "key", key)
			return
		}
		b.Publish(Event{Topic: topic, Origin: OriginCrossContext, Key: key})
	})
	if err != nil {
		return nil, fmt.Errorf("watch storage: %w", err)
	}
	return stop, nil
}
