package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"parkadmin/internal/infra/storage/memory"
	"parkadmin/pkg/domain"
)

func TestMessageRoundTripFiltersOwnOrigin(t *testing.T) {
	raw, err := encodeMessage(domain.KeyContent, "self")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	key, foreign, err := decodeMessage(string(raw), "self")
	if err != nil || key != domain.KeyContent || foreign {
		t.Fatalf("own message: %q %v %v", key, foreign, err)
	}
	key, foreign, err = decodeMessage(string(raw), "other")
	if err != nil || key != domain.KeyContent || !foreign {
		t.Fatalf("foreign message: %q %v %v", key, foreign, err)
	}
	if _, _, err := decodeMessage("not json", "self"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, _, err := decodeMessage(`{"origin":"x"}`, "self"); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestNotifierWriteSucceedsWhenPublishFails(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer func() { _ = rdb.Close() }()
	inner := memory.New()
	n := NewNotifier(inner, rdb, "", nil)
	ctx := context.Background()
	if err := n.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set must not fail on publish error: %v", err)
	}
	if v, ok, _ := n.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Fatalf("write did not reach inner medium")
	}
	if err := n.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n.Origin() == "" || n.Origin() == NewNotifier(inner, rdb, "", nil).Origin() {
		t.Fatalf("origins must be unique")
	}
}

func TestConnectRequiresAddr(t *testing.T) {
	if _, err := Connect(context.Background(), Options{}); err == nil {
		t.Fatalf("expected missing addr error")
	}
}

func liveClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("PARKADMIN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PARKADMIN_TEST_REDIS_ADDR not set")
	}
	rdb, err := Connect(context.Background(), Options{Addr: addr})
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestStoreAgainstRedis(t *testing.T) {
	rdb := liveClient(t)
	store := NewStore(rdb, "parkadmin-test:"+time.Now().Format("150405.000000")+":")
	ctx := context.Background()
	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected missing: %v %v", ok, err)
	}
	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, err := store.Get(ctx, "k"); err != nil || !ok || string(v) != "v" {
		t.Fatalf("get: %q %v %v", v, ok, err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("expected deleted")
	}
}

func TestNotifierAgainstRedis(t *testing.T) {
	rdb := liveClient(t)
	channel := "parkadmin-test:" + time.Now().Format("150405.000000")
	medium := memory.NewMedium()
	a := NewNotifier(medium.Open(), rdb, channel, nil)
	b := NewNotifier(medium.Open(), rdb, channel, nil)
	ctx := context.Background()

	seenA := make(chan string, 4)
	stopA, err := a.Watch(ctx, func(k string) { seenA <- k })
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer stopA()

	if err := a.Set(ctx, domain.KeyContent, []byte("own")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := b.Set(ctx, domain.KeySession, []byte("foreign")); err != nil {
		t.Fatalf("set: %v", err)
	}
	select {
	case k := <-seenA:
		if k != domain.KeySession {
			t.Fatalf("watcher saw %q, expected only the foreign key", k)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no notification received")
	}
}
