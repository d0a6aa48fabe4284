package model

import (
	"fmt"
	"math/rand/v2"
)

// KindRandomForest identifies RandomForest artifacts.
const KindRandomForest = "random_forest"

// ForestConfig configures a RandomForest.
type ForestConfig struct {
	Trees     int        `json:"trees"`
	Seed      uint64     `json:"seed"`
	Bootstrap bool       `json:"bootstrap"`
	Tree      TreeConfig `json:"tree"`
}

// DefaultForestConfig mirrors a conventional 100-tree bootstrap forest.
func DefaultForestConfig(seed uint64) ForestConfig {
	return ForestConfig{
		Trees:     100,
		Seed:      seed,
		Bootstrap: true,
		Tree:      TreeConfig{MinLeaf: 1},
	}
}

// RandomForest averages bootstrap-trained CART trees. Fitting is fully
// determined by the config seed.
type RandomForest struct {
	Config ForestConfig `json:"config"`
	Width  int          `json:"width"`
	Trees  []Tree       `json:"trees"`
}

// NewRandomForest creates an unfitted forest.
func NewRandomForest(cfg ForestConfig) *RandomForest {
	if cfg.Trees < 1 {
		cfg.Trees = 1
	}
	return &RandomForest{Config: cfg}
}

func (f *RandomForest) Kind() string { return KindRandomForest }

// Fit grows Config.Trees trees on X, y.
func (f *RandomForest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: no rows", ErrShape)
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShape, len(X), len(y))
	}
	width := len(X[0])
	if width == 0 {
		return fmt.Errorf("%w: no features", ErrShape)
	}
	if err := checkShape(X, width); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(f.Config.Seed, f.Config.Seed^0x9e3779b97f4a7c15))
	n := len(X)
	trees := make([]Tree, f.Config.Trees)
	idx := make([]int, n)
	for t := range trees {
		for i := range idx {
			if f.Config.Bootstrap {
				idx[i] = rng.IntN(n)
			} else {
				idx[i] = i
			}
		}
		trees[t] = growTree(X, y, idx, f.Config.Tree, rng)
	}

	f.Width = width
	f.Trees = trees
	return nil
}

// Predict returns the mean tree prediction for each row of X.
func (f *RandomForest) Predict(X [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkShape(X, f.Width); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, x := range X {
		sum := 0.0
		for _, t := range f.Trees {
			sum += t.predict(x)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out, nil
}
