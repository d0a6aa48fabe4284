// Package model provides the supervised regressors fitted by the trainer and
// their persisted encoding.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFitted is returned by Predict before a successful Fit.
	ErrNotFitted = errors.New("regressor not fitted")

	// ErrShape is returned when X and y disagree or rows have the wrong width.
	ErrShape = errors.New("input shape mismatch")
)

// Regressor fits a mapping from feature rows to a numeric target.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// Persistable is a Regressor that can be written to an artifact.
type Persistable interface {
	Regressor
	Kind() string
}

// Encode serializes r for an artifact payload.
func Encode(r Persistable) (string, json.RawMessage, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", r.Kind(), err)
	}
	return r.Kind(), data, nil
}

// Decode restores a regressor from an artifact payload.
func Decode(kind string, data json.RawMessage) (Regressor, error) {
	switch kind {
	case KindRandomForest:
		var f RandomForest
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		if len(f.Trees) == 0 {
			return nil, fmt.Errorf("decode %s: %w", kind, ErrNotFitted)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("unknown regressor kind %q", kind)
	}
}

func checkShape(X [][]float64, width int) error {
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(row), width)
		}
	}
	return nil
}
