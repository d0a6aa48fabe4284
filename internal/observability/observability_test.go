package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("unknown city", "city", "Lhasa")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "unknown city", entry["msg"])
	assert.Equal(t, "Lhasa", entry["city"])
}

func TestNewLoggerTo_Text(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, "info", "text").Info("run complete", "records", 3)
	assert.Contains(t, buf.String(), "msg=\"run complete\"")
	assert.Contains(t, buf.String(), "records=3")
}

func TestMetrics_ObserveModel(t *testing.T) {
	m := NewMetricsForTesting()
	m.ObserveModel("aqi_model", 0.91, 4.2)

	assert.InDelta(t, 0.91, testutil.ToFloat64(m.ModelR2.WithLabelValues("aqi_model")), 1e-12)
	assert.InDelta(t, 4.2, testutil.ToFloat64(m.ModelRMSE.WithLabelValues("aqi_model")), 1e-12)
}

func TestNewMetricsForTesting_Repeatable(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetricsForTesting()
		NewMetricsForTesting()
	})
}
