package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected zapcore.Level
		wantErr  bool
	}{
		{name: "debug", level: "debug", expected: zapcore.DebugLevel},
		{name: "info", level: "info", expected: zapcore.InfoLevel},
		{name: "empty defaults to info", level: "", expected: zapcore.InfoLevel},
		{name: "warn", level: "warn", expected: zapcore.WarnLevel},
		{name: "error", level: "error", expected: zapcore.ErrorLevel},
		{name: "unknown", level: "verbose", expected: zapcore.InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := parseLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	require.Error(t, Init("loud"))
}

func TestLoggingBeforeInitIsSafe(t *testing.T) {
	saved := log
	log = nil
	t.Cleanup(func() { log = saved })

	Info("dropped")
	With()
	assert.NoError(t, Sync())
}
