package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, toZapLevel(DebugLevel))
	assert.Equal(t, zapcore.InfoLevel, toZapLevel(InfoLevel))
	assert.Equal(t, zapcore.WarnLevel, toZapLevel(WarnLevel))
	assert.Equal(t, zapcore.ErrorLevel, toZapLevel(ErrorLevel))
	assert.Equal(t, zapcore.InfoLevel, toZapLevel("verbose"))
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("warn"))
	assert.False(t, ValidLevel("WARN"))
	assert.False(t, ValidLevel(""))
}

func TestNewWithWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, WarnLevel)

	log.Infow("dropped", "k", 1)
	log.Warnw("kept", "sensor", "evaporator")
	log.Sync()

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
	assert.Contains(t, out, "WARN")
	assert.True(t, strings.Contains(out, `"sensor": "evaporator"`), out)
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, DebugLevel).Named("relay")

	log.Debug("hello")
	log.Sync()
	assert.Contains(t, buf.String(), "relay")
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Errorw("nothing happens", "err", "x")
}
