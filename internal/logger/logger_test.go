package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{" warn ", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"chatty", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(EnvLevel, tt.value)
			if got := levelFromEnv(); got != tt.want {
				t.Errorf("levelFromEnv(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", mode, err)
		}
		l.With("component", "test").Debug("hello", "n", 1)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("discarded", "key", "value")
	l.With("a", 1).Warn("also discarded")
	l.Sync()
}

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	run := l.With("run", 3)
	run.Debug("planned", "images", 10)
	run.Info("written")
	run.Warn("misclassified", "path", "img_00001.png")
	run.Error("failed")

	entries := logs.AllUntimed()
	wantLevels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	if len(entries) != len(wantLevels) {
		t.Fatalf("got %d entries, want %d", len(entries), len(wantLevels))
	}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Errorf("entry %d level: got %v, want %v", i, e.Level, wantLevels[i])
		}
		if e.ContextMap()["run"] != int64(3) {
			t.Errorf("entry %d missing run field: %v", i, e.ContextMap())
		}
	}
	if got := entries[0].ContextMap()["images"]; got != int64(10) {
		t.Errorf("debug fields: got %v", got)
	}
}
