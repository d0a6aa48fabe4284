package domain

import (
	"fmt"
	"math"
)

// Damping scales the AQI and health predictions for one city.
type Damping struct {
	AQI    float64 `yaml:"aqi"`
	Health float64 `yaml:"health"`
}

// Dampening is an immutable city → prediction multiplier mapping used on the
// live inference path for cities whose sensors read high relative to
// observed air quality.
type Dampening struct {
	byCity map[string]Damping
}

// NewDampening validates and copies m. Multipliers must lie in (0, 1].
func NewDampening(m map[string]Damping) (Dampening, error) {
	d := Dampening{byCity: make(map[string]Damping, len(m))}
	for city, damp := range m {
		for _, v := range []float64{damp.AQI, damp.Health} {
			if math.IsNaN(v) || v <= 0 || v > 1 {
				return Dampening{}, fmt.Errorf("dampening for %q: %v outside (0, 1]", city, v)
			}
		}
		d.byCity[CityKey(city)] = damp
	}
	return d, nil
}

// DefaultDampening returns the hand-tuned multipliers for the clean
// coastal and highland capitals.
func DefaultDampening() Dampening {
	d, err := NewDampening(map[string]Damping{
		"Thimphu": {AQI: 0.65, Health: 0.7},
		"Malé":    {AQI: 0.65, Health: 0.7},
		"Colombo": {AQI: 0.65, Health: 0.7},
	})
	if err != nil {
		panic(err)
	}
	return d
}

// Apply returns the dampened predictions for city. Unknown cities are
// returned unchanged.
func (d Dampening) Apply(city string, aqi, health float64) (float64, float64) {
	damp, ok := d.byCity[CityKey(city)]
	if !ok {
		return aqi, health
	}
	return aqi * damp.AQI, health * damp.Health
}
