package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel_RecognizesAllNames(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel("debug"))
	assert.Equal(t, Warn, ParseLevel("WARN"))
	assert.Equal(t, Warn, ParseLevel("warning"))
	assert.Equal(t, Error, ParseLevel("Error"))
	assert.Equal(t, Info, ParseLevel("unrecognized"))
	assert.Equal(t, Info, ParseLevel(""))
}

func TestWriter_FiltersBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Warn, FormatText)

	logger.Info("should not appear", nil)
	assert.Empty(t, buf.String())

	logger.Error("should appear", nil)
	assert.Contains(t, buf.String(), "should appear")
}

func TestWriter_TextFormatIncludesFieldsAndEmoji(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Debug, FormatText)

	logger.Warn("disk low", map[string]interface{}{"free_mb": 12})
	out := buf.String()
	assert.Contains(t, out, "⚠️")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "disk low")
	assert.Contains(t, out, "free_mb=12")
}

func TestWriter_JSONFormatProducesValidRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Debug, FormatJSON)

	logger.Info("ready", map[string]interface{}{"port": 3000})

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "ready", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, float64(3000), rec["port"])
}

func TestWith_MergesFieldsAcrossCallsWithoutMutatingParent(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, Debug, FormatText)
	child := base.With(map[string]interface{}{"component": "orchestrator"})

	child.Info("hello", map[string]interface{}{"request_id": "abc"})
	out := buf.String()
	assert.Contains(t, out, "component=orchestrator")
	assert.Contains(t, out, "request_id=abc")

	buf.Reset()
	base.Info("from base", nil)
	assert.NotContains(t, buf.String(), "component=orchestrator")
}

func TestWith_IsAdditiveAcrossGenerations(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, Debug, FormatText)
	child := base.With(map[string]interface{}{"a": 1})
	grandchild := child.With(map[string]interface{}{"b": 2})

	grandchild.Info("leaf", nil)
	out := buf.String()
	assert.True(t, strings.Contains(out, "a=1") && strings.Contains(out, "b=2"))
}

func TestNewDefault_WritesToProvidedLevelWithoutPanicking(t *testing.T) {
	logger := NewDefault(Error)
	require.NotNil(t, logger)
	logger.Debug("suppressed", nil)
}
