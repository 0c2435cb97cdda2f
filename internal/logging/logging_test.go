package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerConfigLevel(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, NewLoggerConfig(false).Level.Level())
	assert.Equal(t, zapcore.DebugLevel, NewLoggerConfig(true).Level.Level())
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test", true)

	assert.NotNil(t, logger)
	assert.True(t, logger.Desugar().Core().Enabled(zapcore.DebugLevel))
}
