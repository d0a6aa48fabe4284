package domain

import (
	"fmt"
	"math"
)

// FeatureOrder is the wire order of the regressor input vector. Persisted
// models expect exactly this order.
var FeatureOrder = [...]Field{
	TempMax, TempMin, HumidityMax, HumidityMin, Precipitation, WindSpeed,
	PM25, PM10, NO2, SO2, O3, CO,
}

// NumFeatures is the length of a feature vector.
const NumFeatures = len(FeatureOrder)

// FeatureNames returns the column names of FeatureOrder.
func FeatureNames() []string {
	names := make([]string, NumFeatures)
	for i, f := range FeatureOrder {
		names[i] = f.String()
	}
	return names
}

// CheckFeatureOrder verifies that names matches FeatureOrder exactly.
func CheckFeatureOrder(names []string) error {
	if len(names) != NumFeatures {
		return fmt.Errorf("%w: got %d features, want %d", ErrFeatureOrder, len(names), NumFeatures)
	}
	for i, f := range FeatureOrder {
		if names[i] != f.String() {
			return fmt.Errorf("%w: position %d is %q, want %q", ErrFeatureOrder, i, names[i], f.String())
		}
	}
	return nil
}

// FeatureVector assembles the ordered feature vector of v. It reports false
// when any feature is missing.
func FeatureVector(v Values) ([]float64, bool) {
	out := make([]float64, NumFeatures)
	for i, f := range FeatureOrder {
		if math.IsNaN(v[f]) {
			return nil, false
		}
		out[i] = v[f]
	}
	return out, true
}

// FeatureInput is a live observation. Nil optional fields take the default
// noted beside them.
type FeatureInput struct {
	TempMax       float64
	TempMin       *float64 // defaults to TempMax
	HumidityMax   float64
	HumidityMin   *float64 // defaults to HumidityMax
	WindSpeed     float64
	Precipitation *float64 // defaults to 0
	PM25          float64
	PM10          float64
	NO2           float64
	SO2           float64
	O3            float64
	CO            float64
}

// Values fills in live-input defaults and returns the full field set.
func (in FeatureInput) Values() Values {
	v := Values{
		TempMax:     in.TempMax,
		TempMin:     in.TempMax,
		HumidityMax: in.HumidityMax,
		HumidityMin: in.HumidityMax,
		WindSpeed:   in.WindSpeed,
		PM25:        in.PM25,
		PM10:        in.PM10,
		NO2:         in.NO2,
		SO2:         in.SO2,
		O3:          in.O3,
		CO:          in.CO,
	}
	if in.TempMin != nil {
		v[TempMin] = *in.TempMin
	}
	if in.HumidityMin != nil {
		v[HumidityMin] = *in.HumidityMin
	}
	if in.Precipitation != nil {
		v[Precipitation] = *in.Precipitation
	}
	return v
}

// Vector returns the ordered feature vector with defaults applied.
func (in FeatureInput) Vector() []float64 {
	v := in.Values()
	out := make([]float64, NumFeatures)
	for i, f := range FeatureOrder {
		out[i] = v[f]
	}
	return out
}
