package domain

import (
	"github.com/shopspring/decimal"
)

// HealthWeight is one pollutant's contribution to the health index.
type HealthWeight struct {
	Field  Field
	Weight decimal.Decimal
}

// healthWeights are declared as exact decimals; their sum must be exactly 1.
var healthWeights = []HealthWeight{
	{PM25, decimal.RequireFromString("0.5")},
	{PM10, decimal.RequireFromString("0.2")},
	{NO2, decimal.RequireFromString("0.1")},
	{SO2, decimal.RequireFromString("0.1")},
	{O3, decimal.RequireFromString("0.05")},
	{CO, decimal.RequireFromString("0.05")},
}

// HealthWeights returns a copy of the health index weights.
func HealthWeights() []HealthWeight {
	out := make([]HealthWeight, len(healthWeights))
	copy(out, healthWeights)
	return out
}

// HealthWeightSum returns the exact sum of the health index weights.
func HealthWeightSum() decimal.Decimal {
	sum := decimal.Zero
	for _, w := range healthWeights {
		sum = sum.Add(w.Weight)
	}
	return sum
}

// HealthIndex computes the composite health-impact index of v. A missing
// pollutant makes the result NaN.
func HealthIndex(v Values) float64 {
	var total float64
	for _, w := range healthWeights {
		total += w.Weight.InexactFloat64() * v[w.Field]
	}
	return total
}

// HealthCategory labels a health index value.
func HealthCategory(index float64) string {
	switch {
	case index <= 50:
		return "Good"
	case index <= 100:
		return "Moderate"
	case index <= 150:
		return "Unhealthy for Sensitive Groups"
	case index <= 200:
		return "Unhealthy"
	default:
		return "Very Unhealthy"
	}
}
