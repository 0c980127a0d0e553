package memory

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"
)

func TestHandle_GetSetDelete(t *testing.T) {
	h := New()
	ctx := context.Background()
	if _, ok, err := h.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := h.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := h.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v1" {
		t.Fatalf("get: %q %v %v", got, ok, err)
	}
	got[0] = 'X'
	again, _, _ := h.Get(ctx, "k")
	if !bytes.Equal(again, []byte("v1")) {
		t.Fatalf("get must return a copy")
	}
	if err := h.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := h.Get(ctx, "k"); ok {
		t.Fatalf("expected deleted key")
	}
}

// keyLog collects notifications delivered on a handle's goroutine.
type keyLog struct {
	mu   sync.Mutex
	keys []string
}

func (l *keyLog) add(k string) {
	l.mu.Lock()
	l.keys = append(l.keys, k)
	l.mu.Unlock()
}

func (l *keyLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.keys...)
}

func TestMedium_NotifiesOtherHandlesOnly(t *testing.T) {
	m := NewMedium()
	writer, reader := m.Open(), m.Open()
	ctx := context.Background()

	var writerSaw, readerSaw keyLog
	stopW, _ := writer.Watch(ctx, writerSaw.add)
	defer stopW()
	stopR, _ := reader.Watch(ctx, readerSaw.add)

	if err := writer.Set(ctx, "park_admin_data", []byte("{}")); err != nil {
		t.Fatalf("set: %v", err)
	}
	m.Wait()
	if got := writerSaw.get(); len(got) != 0 {
		t.Fatalf("writer must not see its own write, saw %v", got)
	}
	if got := readerSaw.get(); len(got) != 1 || got[0] != "park_admin_data" {
		t.Fatalf("reader notifications: %v", got)
	}
	if v, ok, _ := reader.Get(ctx, "park_admin_data"); !ok || string(v) != "{}" {
		t.Fatalf("reader must observe shared data")
	}

	stopR()
	stopR()
	_ = writer.Set(ctx, "park_admin_data", []byte("[]"))
	m.Wait()
	if got := readerSaw.get(); len(got) != 1 {
		t.Fatalf("stopped watcher still notified: %v", got)
	}
}

func TestMedium_DeliversInWriteOrder(t *testing.T) {
	m := NewMedium()
	a, b := m.Open(), m.Open()
	var saw keyLog
	_, _ = b.Watch(context.Background(), saw.add)
	for _, k := range []string{"k1", "k2", "k3"} {
		_ = a.Set(context.Background(), k, []byte("v"))
	}
	m.Wait()
	if got := saw.get(); len(got) != 3 || got[0] != "k1" || got[1] != "k2" || got[2] != "k3" {
		t.Fatalf("unexpected delivery order %v", got)
	}
}

// A watcher may block on a lock the writer holds across Set.
func TestMedium_WriterKeepsLocksAcrossSet(t *testing.T) {
	m := NewMedium()
	a, b := m.Open(), m.Open()
	var writerLock sync.Mutex
	var saw keyLog
	_, _ = b.Watch(context.Background(), func(k string) {
		writerLock.Lock()
		defer writerLock.Unlock()
		saw.add(k)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		writerLock.Lock()
		defer writerLock.Unlock()
		_ = a.Set(context.Background(), "k", []byte("v"))
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Set blocked on a watcher")
	}
	m.Wait()
	if got := saw.get(); len(got) != 1 {
		t.Fatalf("expected one notification, got %v", got)
	}
}

func TestMedium_DeleteOfMissingKeyIsSilent(t *testing.T) {
	m := NewMedium()
	a, b := m.Open(), m.Open()
	var saw keyLog
	_, _ = b.Watch(context.Background(), saw.add)
	_ = a.Delete(context.Background(), "nothing")
	m.Wait()
	if got := saw.get(); len(got) != 0 {
		t.Fatalf("expected no notification, got %v", got)
	}
}

func TestMedium_ClosedHandleStopsReceiving(t *testing.T) {
	m := NewMedium()
	a, b := m.Open(), m.Open()
	var saw keyLog
	_, _ = b.Watch(context.Background(), saw.add)
	_ = b.Close()
	_ = b.Close()
	_ = a.Set(context.Background(), "k", []byte("v"))
	m.Wait()
	if got := saw.get(); len(got) != 0 {
		t.Fatalf("closed handle notified: %v", got)
	}
}

func TestMedium_SnapshotAndClear(t *testing.T) {
	m := NewMedium()
	h := m.Open()
	_ = h.Set(context.Background(), "a", []byte("1"))
	snap := m.Snapshot()
	if string(snap["a"]) != "1" {
		t.Fatalf("snapshot: %v", snap)
	}
	m.Clear()
	if _, ok, _ := h.Get(context.Background(), "a"); ok {
		t.Fatalf("expected cleared medium")
	}
}
