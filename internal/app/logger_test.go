package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("error", "text", &buf)

	logger.Info("quiet")
	assert.Empty(t, buf.String())

	logger.Error("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger("debug", "json", &buf).Debug("hello", "k", "v")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestNewLoggerUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("shouty", "text", &buf)

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}
