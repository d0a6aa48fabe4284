package model

import (
	"fmt"
	"math"
)

// R2 returns the coefficient of determination. For a constant target it is
// 1 when every prediction is exact and 0 otherwise.
func R2(yTrue, yPred []float64) (float64, error) {
	if err := sameLength(yTrue, yPred); err != nil {
		return 0, err
	}
	mean := 0.0
	for _, v := range yTrue {
		mean += v
	}
	mean /= float64(len(yTrue))

	var ssRes, ssTot float64
	for i, v := range yTrue {
		d := v - yPred[i]
		ssRes += d * d
		m := v - mean
		ssTot += m * m
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}

// RMSE returns the root mean squared error.
func RMSE(yTrue, yPred []float64) (float64, error) {
	if err := sameLength(yTrue, yPred); err != nil {
		return 0, err
	}
	var sum float64
	for i, v := range yTrue {
		d := v - yPred[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(yTrue))), nil
}

func sameLength(a, b []float64) error {
	if len(a) == 0 {
		return fmt.Errorf("%w: no samples", ErrShape)
	}
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d targets, %d predictions", ErrShape, len(a), len(b))
	}
	return nil
}
