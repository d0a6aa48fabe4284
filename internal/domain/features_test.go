package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureNames_WireOrder(t *testing.T) {
	assert.Equal(t, []string{
		"temp_max", "temp_min", "humidity_max", "humidity_min", "precipitation", "wind_speed",
		"pm25", "pm10", "no2", "so2", "o3", "co",
	}, FeatureNames())
}

func TestCheckFeatureOrder(t *testing.T) {
	require.NoError(t, CheckFeatureOrder(FeatureNames()))

	swapped := FeatureNames()
	swapped[4], swapped[5] = swapped[5], swapped[4]
	require.ErrorIs(t, CheckFeatureOrder(swapped), ErrFeatureOrder)
	require.ErrorIs(t, CheckFeatureOrder(FeatureNames()[:11]), ErrFeatureOrder)
}

func TestFeatureVector(t *testing.T) {
	v := Values{}
	for i := range v {
		v[i] = float64(i)
	}

	got, ok := FeatureVector(v)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 2, 3, 5, 4, 6, 7, 8, 9, 10, 11}, got)

	v[SO2] = math.NaN()
	_, ok = FeatureVector(v)
	assert.False(t, ok)
}

func TestFeatureInput_Defaults(t *testing.T) {
	in := FeatureInput{TempMax: 31, HumidityMax: 64, WindSpeed: 3, PM25: 80, PM10: 120, NO2: 20, SO2: 5, O3: 60, CO: 400}

	assert.Equal(t, []float64{31, 31, 64, 64, 0, 3, 80, 120, 20, 5, 60, 400}, in.Vector())

	tmin, hmin, precip := 22.0, 40.0, 1.5
	in.TempMin, in.HumidityMin, in.Precipitation = &tmin, &hmin, &precip
	assert.Equal(t, []float64{31, 22, 64, 40, 1.5, 3, 80, 120, 20, 5, 60, 400}, in.Vector())
}

func TestCleanRecord_MarshalJSON(t *testing.T) {
	v := MissingValues()
	v[PM25] = 42.5
	v[TempMax] = 30
	rec := CleanRecord{City: "Dhaka", Date: day("2024-02-01"), Values: v, AQI: 42.5}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Dhaka","date":"2024-02-01","temp_max":30,"pm25":42.5,"AQI":42.5}`, string(data))
}

func TestNewModelArtifact(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	a := NewModelArtifact(AQIModelName, "random_forest", json.RawMessage(`{}`))
	b := NewModelArtifact(AQIModelName, "random_forest", json.RawMessage(`{}`))

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, fixed, a.TrainedAt)
	assert.Equal(t, FeatureNames(), a.FeatureOrder)
	require.NoError(t, a.Validate())

	a.FeatureOrder = a.FeatureOrder[1:]
	require.ErrorIs(t, a.Validate(), ErrFeatureOrder)
}

func TestDampening(t *testing.T) {
	d := DefaultDampening()

	aqi, health := d.Apply("colombo", 100, 200)
	assert.InDelta(t, 65.0, aqi, 1e-9)
	assert.InDelta(t, 140.0, health, 1e-9)

	aqi, health = d.Apply("New Delhi", 100, 200)
	assert.Equal(t, 100.0, aqi)
	assert.Equal(t, 200.0, health)

	_, err := NewDampening(map[string]Damping{"A": {AQI: 1.2, Health: 0.5}})
	require.Error(t, err)
}
