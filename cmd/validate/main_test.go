package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

const rawCSV = `city,date,temp_max,humidity_max,pm25,pm10
Dhaka,2025-01-01 06:00:00,30,70,100,150
Dhaka,2025-01-01 18:00:00,32,72,120,170
Dhaka,2025-01-02,31,71,90,140
Thimphu,2025-01-01,15,60,20,30
Thimphu,2025-01-02,16,,22,31
`

func writeFixtures(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "raw.csv", []byte(rawCSV), 0o644))

	raw, err := csvfile.NewReader(fs, slog.New(slog.NewTextHandler(io.Discard, nil))).ReadRaw(t.Context(), "raw.csv")
	require.NoError(t, err)
	clean, _, err := domain.Normalize(raw, domain.NormalizeOptions{Scale: domain.DefaultScaleFactors()})
	require.NoError(t, err)
	require.NoError(t, csvfile.NewWriter(fs, "clean.csv").Load(t.Context(), clean))
	return fs
}

func TestRun_Passes(t *testing.T) {
	fs := writeFixtures(t)
	var out bytes.Buffer

	code := run(fs, &out, "clean.csv", "raw.csv", "", "proxy")
	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
	assert.Contains(t, out.String(), "Phase 5")
}

func TestRun_DetectsViolations(t *testing.T) {
	fs := afero.NewMemMapFs()
	clean := strings.Join([]string{
		"city,date,temp_max,humidity_max,pm25,AQI",
		"Dhaka,2025-01-02,30,70,600,600",
		"Dhaka,2025-01-01,30,70,100,90",
		"Dhaka,2025-01-01,30,,100,100",
		"Kabul,not-a-date,30,70,10,10",
	}, "\n") + "\n"
	require.NoError(t, afero.WriteFile(fs, "clean.csv", []byte(clean), 0o644))

	var out bytes.Buffer
	code := run(fs, &out, "clean.csv", "", "", "proxy")
	assert.Equal(t, 1, code)

	report := out.String()
	assert.Contains(t, report, "sorts before")
	assert.Contains(t, report, "duplicate of row 3")
	assert.Contains(t, report, "pm25=600 outside [0, 500]")
	assert.Contains(t, report, "humidity_max is empty")
	assert.Contains(t, report, "AQI=90, want 100")
	assert.Contains(t, report, "1 rows are malformed or carry an unparsable date")
}

func TestRun_WrongScale(t *testing.T) {
	fs := writeFixtures(t)
	var out bytes.Buffer
	assert.Equal(t, 1, run(fs, &out, "clean.csv", "", "", "epa"))
	assert.Equal(t, 1, run(fs, &out, "clean.csv", "", "", "bogus"))
}
