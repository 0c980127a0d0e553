package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "PRODUCTION", "none", ""} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("mode %q: %v", mode, err)
		}
		l.Debug("debug", "mode", mode)
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("context", "abc")
	l.Warn("storage change dropped", "key", "park_admin_data")
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["context"] != "abc" || fields["key"] != "park_admin_data" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestNopDiscards(t *testing.T) {
	l := NewNop()
	l.Info("nothing")
	l.Error("nothing")
	l.Sync()
}
