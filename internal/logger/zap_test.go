package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{" WARN ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := toZapLevel(tc.in); got != tc.want {
				t.Fatalf("toZapLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestComponent_NilSafe(t *testing.T) {
	var l *Logger
	if l.Component("engine") != nil {
		t.Fatalf("expected nil child for nil logger")
	}
	if NewNop().Component("engine") == nil {
		t.Fatalf("expected non-nil child")
	}
}
