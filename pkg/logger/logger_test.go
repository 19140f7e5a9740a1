package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"console", Config{Level: "info", Format: "console"}, false},
		{"json", Config{Level: "debug", Format: "json"}, false},
		{"default format", Config{Level: "warn"}, false},
		{"bad level", Config{Level: "loud", Format: "console"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
			}
			if err == nil && l == nil {
				t.Fatal("New returned a nil logger")
			}
		})
	}
}

func TestFieldsAndNames(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{zl: zap.New(core)}

	child := l.Named("dashboard").With(String("session_id", "abc"))
	child.Info("Fetch resolved", Uint64("seq", 3), Error(errors.New("boom")))
	child.Debug("Debug entry")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	first := entries[0]
	if first.LoggerName != "dashboard" || first.Message != "Fetch resolved" {
		t.Errorf("unexpected entry %+v", first.Entry)
	}
	fields := first.ContextMap()
	if fields["session_id"] != "abc" || fields["seq"] != uint64(3) || fields["error"] != "boom" {
		t.Errorf("unexpected fields %v", fields)
	}
	if entries[1].Level != zapcore.DebugLevel {
		t.Errorf("level = %v, want debug", entries[1].Level)
	}
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Named("x").With(Int("n", 1)).Error("discarded")
	if err := l.Sync(); err != nil {
		t.Errorf("Sync: %v", err)
	}
}
