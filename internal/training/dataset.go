package training

import (
	"fmt"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// Samples is the assembled training matrix with both targets.
type Samples struct {
	X        [][]float64
	AQI      []float64
	Health   []float64
	Excluded int
}

// Assemble builds the ordered feature matrix and the AQI and health targets
// from t. Rows missing any feature are excluded, never imputed.
func Assemble(t domain.Table) (Samples, error) {
	for _, f := range domain.FeatureOrder {
		if !t.HasField(f) {
			return Samples{}, fmt.Errorf("%w: %s", domain.ErrMissingColumn, f)
		}
	}

	s := Samples{
		X:      make([][]float64, 0, len(t.Rows)),
		AQI:    make([]float64, 0, len(t.Rows)),
		Health: make([]float64, 0, len(t.Rows)),
	}
	for _, v := range t.Rows {
		x, ok := domain.FeatureVector(v)
		if !ok {
			s.Excluded++
			continue
		}
		s.X = append(s.X, x)
		s.AQI = append(s.AQI, AQITarget(v))
		s.Health = append(s.Health, domain.HealthIndex(v))
	}
	if len(s.X) == 0 {
		return s, fmt.Errorf("%w: no rows with a complete feature vector (%d excluded)", domain.ErrDatasetEmpty, s.Excluded)
	}
	return s, nil
}

// AQITarget is the AQI regression target: pm25 used directly as a proxy.
func AQITarget(v domain.Values) float64 {
	return v[domain.PM25]
}

// subset gathers the rows of X and y listed in idx.
func subset(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}
