package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_ValidLevelsAndFormats(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"debug json", "debug", "json"},
		{"info json", "info", "json"},
		{"warn json", "warn", "json"},
		{"error json", "error", "json"},
		{"debug console", "debug", "console"},
		{"info console", "info", "console"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level, tt.format)

			require.NoError(t, err)
			require.NotNil(t, logger)

			// Verify logger can be used
			logger.Info("test log message")
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"invalid level", "invalid"},
		{"uppercase", "INFO"},
		{"trace level", "trace"},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level, "json")

			assert.Error(t, err)
			assert.Nil(t, logger)
			assert.Contains(t, err.Error(), "invalid log level")
		})
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	logger, err := New("info", "xml")

	assert.Error(t, err)
	assert.Nil(t, logger)
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestNew_LevelFiltering(t *testing.T) {
	logger, err := New("info", "json")
	require.NoError(t, err)

	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewDevelopment(t *testing.T) {
	logger, err := NewDevelopment()

	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewProduction(t *testing.T) {
	logger, err := NewProduction()

	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger.Info("info message", zap.String("key", "value"))
}
