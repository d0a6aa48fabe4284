package domain

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	// PollutantMin and PollutantMax bound every pollutant concentration.
	PollutantMin = 0.0
	PollutantMax = 500.0

	// MaxScaleFactor is the largest accepted city scale factor.
	MaxScaleFactor = 2.0
)

// Clamp bounds v to [PollutantMin, PollutantMax]. NaN passes through.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Min(math.Max(v, PollutantMin), PollutantMax)
}

// CityKey folds a city name for case-insensitive matching. Names are
// NFC-normalized first so "Malé" matches regardless of how the accent is
// encoded.
func CityKey(city string) string {
	return cases.Fold().String(norm.NFC.String(city))
}

// ScaleFactors is an immutable city → pollutant multiplier mapping.
type ScaleFactors struct {
	factors map[string]float64
	names   map[string]string
}

// NewScaleFactors validates and copies m. Every factor must lie in
// (0, MaxScaleFactor] and no two names may fold to the same key.
func NewScaleFactors(m map[string]float64) (ScaleFactors, error) {
	s := ScaleFactors{
		factors: make(map[string]float64, len(m)),
		names:   make(map[string]string, len(m)),
	}
	for city, factor := range m {
		if math.IsNaN(factor) || factor <= 0 || factor > MaxScaleFactor {
			return ScaleFactors{}, fmt.Errorf("scale factor for %q: %v outside (0, %v]", city, factor, MaxScaleFactor)
		}
		key := CityKey(city)
		if prev, ok := s.names[key]; ok {
			return ScaleFactors{}, fmt.Errorf("scale factor for %q duplicates %q", city, prev)
		}
		s.factors[key] = factor
		s.names[key] = city
	}
	return s, nil
}

// DefaultScaleFactors returns the curated per-network calibration factors
// for the eight South Asian capitals.
func DefaultScaleFactors() ScaleFactors {
	s, err := NewScaleFactors(map[string]float64{
		"New Delhi": 1.3,
		"Dhaka":     1.2,
		"Kathmandu": 1.1,
		"Islamabad": 1.0,
		"Colombo":   0.8,
		"Malé":      0.6,
		"Thimphu":   0.5,
		"Kabul":     0.9,
	})
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the factor configured for city.
func (s ScaleFactors) Lookup(city string) (float64, bool) {
	f, ok := s.factors[CityKey(city)]
	return f, ok
}

// Len returns the number of configured cities.
func (s ScaleFactors) Len() int {
	return len(s.factors)
}

// Cities returns the configured city names, sorted.
func (s ScaleFactors) Cities() []string {
	out := make([]string, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
