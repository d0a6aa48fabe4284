package domain

import (
	"fmt"
	"math"
	"strings"
)

// Anchor is one (pm25, AQI) interpolation point.
type Anchor struct {
	PM25 float64
	AQI  float64
}

// AQIScale is a piecewise-linear pm25 → AQI mapping. Anchors must be sorted
// by ascending PM25.
type AQIScale []Anchor

// ProxyScale maps pm25 onto itself across [0, 500]. AQI derived with it is
// numerically identical to pm25.
var ProxyScale = AQIScale{
	{0, 0}, {50, 50}, {100, 100}, {150, 150}, {200, 200}, {300, 300}, {500, 500},
}

// EPAScale follows the EPA PM2.5 (24-hour, µg/m³) breakpoints. Concentrations
// above the last breakpoint map to 500.
var EPAScale = AQIScale{
	{0, 0}, {9.0, 50}, {35.4, 100}, {55.4, 150}, {125.4, 200}, {225.4, 300}, {325.4, 500},
}

// AQIScaleByName resolves a configured scale name ("proxy" or "epa").
func AQIScaleByName(name string) (AQIScale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "proxy":
		return ProxyScale, nil
	case "epa":
		return EPAScale, nil
	default:
		return nil, fmt.Errorf("unknown AQI scale %q", name)
	}
}

// Interpolate maps pm25 through the anchors. Values below the first or
// above the last anchor take the end AQI; NaN passes through.
func (s AQIScale) Interpolate(pm25 float64) float64 {
	if math.IsNaN(pm25) || len(s) == 0 {
		return math.NaN()
	}
	if pm25 <= s[0].PM25 {
		return s[0].AQI
	}
	last := s[len(s)-1]
	if pm25 >= last.PM25 {
		return last.AQI
	}
	for i := 1; i < len(s); i++ {
		hi := s[i]
		if pm25 > hi.PM25 {
			continue
		}
		lo := s[i-1]
		if hi.PM25 == lo.PM25 {
			return hi.AQI
		}
		return lo.AQI + (pm25-lo.PM25)*(hi.AQI-lo.AQI)/(hi.PM25-lo.PM25)
	}
	return last.AQI
}
