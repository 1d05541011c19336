package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sancg/pkg/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug json", &config.LoggingConfig{Level: "debug", Format: "json"}, false},
		{"invalid level", &config.LoggingConfig{Level: "loud"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "sancg.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, zerolog.DebugLevel)

	l.WithField("version", "311").
		WithError(errors.New("boom")).
		InfoWithFields("Batch finished", map[string]interface{}{
			"written":  3,
			"duration": 2 * time.Second,
		})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "Batch finished", lines[0]["message"])
	assert.Equal(t, "311", lines[0]["version"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, float64(3), lines[0]["written"])
	assert.Equal(t, "sancg", lines[0]["app"])
}

func TestWithFieldDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := newWithWriter(&buf, zerolog.InfoLevel)

	_ = base.WithField("version", "39")
	base.Info("plain")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["version"]
	assert.False(t, ok)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, zerolog.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogDownload(tl, "311", "A.jpg", DownloadSkipped, nil)
	LogDownload(tl, "311", "B.jpg", DownloadWritten, nil)
	LogDownload(tl, "311", "C.jpg", DownloadFailed, errors.New("refused"))
	LogRequest(tl, "GET", "http://example.com", 404, time.Millisecond)

	assert.True(t, tl.HasMessage("File already exists"))
	assert.True(t, tl.HasMessage("Writing file"))
	assert.True(t, tl.HasError())
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)

	failed := tl.GetMessagesByLevel("ERROR")[0]
	assert.Equal(t, "C.jpg", failed.Fields["filename"])
	assert.EqualError(t, failed.Error, "refused")
}

func TestTestLoggerSharesCapture(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "crawler")
	child.Info("from child")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "crawler", msgs[0].Fields["component"])

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	tl := NewTestLogger()
	SetLogger(tl)
	defer SetLogger(nil)

	WithField("k", "v").Info("global")
	assert.True(t, tl.HasMessage("global"))
}
