package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, Output: &buf})

	l.Info("Servings changed", FieldItem, "TOAST")
	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "item=TOAST") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentDaily).Warn("Rolled over")
	if !strings.Contains(buf.String(), "component=daily") {
		t.Fatalf("expected daily component, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"", slog.LevelInfo, true},
		{"DEBUG", slog.LevelDebug, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithOperation(OpSave).WithKey("@waterGlasses").WithError(errors.New("boom"))
	if len(f.ToSlice()) != 6 {
		t.Fatalf("expected 3 pairs, got %v", f.ToSlice())
	}
	if f[FieldError] != "boom" {
		t.Fatalf("unexpected error field %v", f[FieldError])
	}
	if len(NewFields().WithError(nil)) != 0 {
		t.Fatal("nil error must not add a field")
	}
}
