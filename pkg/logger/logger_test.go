package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "warn", "json")
	require.NoError(t, err)

	l.Info().Msg("dropped")
	l.Warn().Str("chat_id", "7").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "7", line["chat_id"])
	assert.Equal(t, "warn", line["level"])
}

func TestNewWithWriterRejectsUnknownFormat(t *testing.T) {
	_, err := NewWithWriter(&bytes.Buffer{}, "info", "xml")
	require.Error(t, err)
}

func TestNewWithWriterRejectsUnknownLevel(t *testing.T) {
	_, err := NewWithWriter(&bytes.Buffer{}, "loud", "json")
	require.Error(t, err)
}
