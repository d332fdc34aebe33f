package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNew_Level(t *testing.T) {
	log := New(Config{Level: "debug", Encoding: "console"})
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log = New(Config{Level: "nonsense"})
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestNewGormLogger(t *testing.T) {
	assert.NotNil(t, NewGormLogger(New(Config{Level: "debug"})))
	assert.NotNil(t, NewGormLogger(New(Config{Level: "error"})))
}
