package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-etl/internal/inference"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

// writeRawCSV writes two readings per city-day for four cities over 15 days.
func writeRawCSV(t *testing.T, path string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("city,date,temp_max,temp_min,humidity_max,humidity_min,wind_speed,precipitation,pm25,pm10,no2,so2,o3,co\n")
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for c, city := range []string{"Dhaka", "Kabul", "Colombo", "Thimphu"} {
		for d := range 15 {
			day := start.AddDate(0, 0, d).Format("2006-01-02")
			for r := range 2 {
				pm25 := float64(20 + 30*c + 5*d + r)
				fmt.Fprintf(&b, "%s,%s %02d:00:00,%d,%d,%d,%d,%d,0,%g,%g,%g,%g,%g,%g\n",
					city, day, 6+12*r, 20+c+d%5, 10+c, 50+d, 40+d, 3+r, pm25, pm25*1.5, pm25/3, pm25/10, 30.0, 300+pm25)
			}
		}
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(observability.NewMetricsForTesting())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestAirq_CleanTrainPredictSummary(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw.csv")
	clean := filepath.Join(dir, "clean.csv")
	models := filepath.Join(dir, "models")
	writeRawCSV(t, raw)

	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("FOREST_TREES", "10")

	out, err := execute(t, "clean", "--in", raw, "--out", clean)
	require.NoError(t, err, out)
	assert.Contains(t, out, "read 120 rows")
	assert.Contains(t, out, "wrote 60 records for 4 cities")

	out, err = execute(t, "train", "--in", clean, "--model-dir", models)
	require.NoError(t, err, out)
	assert.Contains(t, out, "48 train / 12 test")
	assert.FileExists(t, filepath.Join(models, "aqi_model.json"))
	assert.FileExists(t, filepath.Join(models, "health_model.json"))

	out, err = execute(t, "predict", "--model-dir", models, "--city", "Thimphu",
		"--temp-max", "22", "--humidity-max", "55", "--wind-speed", "3",
		"--pm25", "60", "--pm10", "90", "--no2", "20", "--so2", "6", "--o3", "30", "--co", "360")
	require.NoError(t, err, out)
	var pred inference.Prediction
	require.NoError(t, json.Unmarshal([]byte(out), &pred))
	assert.Equal(t, "Thimphu", pred.City)
	assert.Greater(t, pred.AQI, 0.0)
	assert.NotEmpty(t, pred.Category)

	out, err = execute(t, "summary", "--in", clean)
	require.NoError(t, err, out)
	for _, city := range []string{"CITY", "Colombo", "Dhaka", "Kabul", "Thimphu"} {
		assert.Contains(t, out, city)
	}

	out, err = execute(t, "summary", "--in", clean, "--city", "dhaka", "--json")
	require.NoError(t, err, out)
	var history []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	assert.Len(t, history, 15)
	assert.Equal(t, "2025-01-01", history[0]["date"])
}

func TestAirq_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOG_LEVEL", "error")

	_, err := execute(t, "clean", "--in", filepath.Join(dir, "missing.csv"), "--out", filepath.Join(dir, "out.csv"))
	require.Error(t, err)

	_, err = execute(t, "predict", "--model-dir", dir, "--temp-max", "1")
	require.Error(t, err, "required flags missing")

	_, err = execute(t, "predict", "--model-dir", dir,
		"--temp-max", "22", "--humidity-max", "55", "--wind-speed", "3",
		"--pm25", "60", "--pm10", "90", "--no2", "20", "--so2", "6", "--o3", "30", "--co", "360")
	require.Error(t, err, "no artifacts in model dir")

	t.Setenv("AQI_SCALE", "bogus")
	_, err = execute(t, "summary")
	require.Error(t, err)
}
