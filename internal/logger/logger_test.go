package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Log(t *testing.T) {
	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "batch started",
			fields:  Fields{"urls": 3},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "debug message",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "fetch failed",
			err:     errors.New("connection refused"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(LevelInfo, &buf)

			l.log(tt.level, tt.message, tt.fields, tt.err)

			assert.Equal(t, tt.want, buf.Len() > 0)
		})
	}
}

func TestLogger_JSONShape(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf)

	l.Error("fetch failed", Fields{"url": "https://example.com/a", "attempts": 3}, errors.New("timeout"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))

	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "fetch failed", entry["message"])
	assert.Equal(t, "https://example.com/a", entry["url"])
	assert.Equal(t, float64(3), entry["attempts"])
	assert.Equal(t, "timeout", entry["error"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("articles.success")
	m.IncrCounter("articles.success")
	m.IncrCounter("articles.success")

	snapshot := m.GetSnapshot()
	counters := snapshot["counters"].(map[string]int64)

	assert.Equal(t, int64(3), counters["articles.success"])
	assert.Equal(t, int64(3), m.Counter("articles.success"))
}

func TestMetrics_Gauge(t *testing.T) {
	m := NewMetrics()

	m.SetGauge("inflight", 4)
	m.SetGauge("inflight", 2)

	gauges := m.GetSnapshot()["gauges"].(map[string]float64)
	assert.Equal(t, 2.0, gauges["inflight"])
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("article.fetch", 100*time.Millisecond)
	m.RecordTiming("article.fetch", 200*time.Millisecond)
	m.RecordTiming("article.fetch", 150*time.Millisecond)

	timings := m.GetSnapshot()["timings"].(map[string]map[string]interface{})

	fetch := timings["article.fetch"]
	assert.Equal(t, 3, fetch["count"])
	assert.Equal(t, "100ms", fetch["min"])
	assert.Equal(t, "200ms", fetch["max"])
	assert.Equal(t, "150ms", fetch["average"])
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(prev)

	Debug("debug", nil)
	Info("info", Fields{"key": "value"})
	Warn("warning", nil)
	Error("error", Fields{"component": "test"}, errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)

	IncrCounter("test")
	SetGauge("test", 42.0)
	RecordTiming("test", time.Second)
	assert.NotNil(t, GetMetricsSnapshot())
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, LevelDebug, true},
		{"info logs at debug", LevelDebug, LevelInfo, true},
		{"debug doesn't log at info", LevelInfo, LevelDebug, false},
		{"warn doesn't log at error", LevelError, LevelWarn, false},
		{"error always logs", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(tt.minLevel, &buf)

			l.log(tt.logLevel, "test", nil, nil)

			assert.Equal(t, tt.shouldLog, buf.Len() > 0)
		})
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("ignored", nil, errors.New("x"))
	assert.NoError(t, l.Sync())
}
