package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"info", zapcore.InfoLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNew(t *testing.T) {
	l, err := New("debug")
	if err != nil {
		t.Fatal(err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level enabled")
	}

	if _, err := New("bogus"); err == nil {
		t.Error("expected error for bogus level")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected non-nil logger")
	}
}
