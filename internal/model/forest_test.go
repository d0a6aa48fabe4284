package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearData returns n rows of two features with y = 3·x0 + x1.
func linearData(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		x0 := float64(i % 17)
		x1 := float64((i * 7) % 11)
		X[i] = []float64{x0, x1}
		y[i] = 3*x0 + x1
	}
	return X, y
}

func TestRandomForest_FitsStepFunction(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {10}, {11}, {12}}
	y := []float64{5, 5, 5, 50, 50, 50}

	f := NewRandomForest(ForestConfig{Trees: 1, Tree: TreeConfig{MinLeaf: 1}})
	require.NoError(t, f.Fit(X, y))

	got, err := f.Predict([][]float64{{0}, {2.5}, {6}, {7}, {100}})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5, 5, 50, 50}, got)
}

func TestRandomForest_Deterministic(t *testing.T) {
	X, y := linearData(200)

	a := NewRandomForest(DefaultForestConfig(42))
	b := NewRandomForest(DefaultForestConfig(42))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, ja, jb)

	c := NewRandomForest(DefaultForestConfig(7))
	require.NoError(t, c.Fit(X, y))
	jc, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotEqual(t, ja, jc)
}

func TestRandomForest_LearnsLinearSignal(t *testing.T) {
	X, y := linearData(300)
	f := NewRandomForest(DefaultForestConfig(1))
	require.NoError(t, f.Fit(X, y))

	pred, err := f.Predict(X)
	require.NoError(t, err)
	r2, err := R2(y, pred)
	require.NoError(t, err)
	assert.Greater(t, r2, 0.95)
}

func TestRandomForest_MaxDepthAndFeatures(t *testing.T) {
	X, y := linearData(100)
	f := NewRandomForest(ForestConfig{
		Trees: 5, Seed: 3, Bootstrap: true,
		Tree: TreeConfig{MaxDepth: 1, MinLeaf: 2, MaxFeatures: 1},
	})
	require.NoError(t, f.Fit(X, y))

	for _, tree := range f.Trees {
		assert.LessOrEqual(t, len(tree.Nodes), 3, "depth-1 tree has at most one split")
	}
}

func TestRandomForest_ShapeErrors(t *testing.T) {
	f := NewRandomForest(DefaultForestConfig(1))

	_, err := f.Predict([][]float64{{1}})
	require.ErrorIs(t, err, ErrNotFitted)

	require.ErrorIs(t, f.Fit(nil, nil), ErrShape)
	require.ErrorIs(t, f.Fit([][]float64{{1}, {2}}, []float64{1}), ErrShape)
	require.ErrorIs(t, f.Fit([][]float64{{1, 2}, {2}}, []float64{1, 2}), ErrShape)

	require.NoError(t, f.Fit([][]float64{{1, 2}, {2, 3}}, []float64{1, 2}))
	_, err = f.Predict([][]float64{{1}})
	require.ErrorIs(t, err, ErrShape)
}

func TestEncodeDecode_RoundTripPredictions(t *testing.T) {
	X, y := linearData(60)
	f := NewRandomForest(ForestConfig{Trees: 10, Seed: 9, Bootstrap: true})
	require.NoError(t, f.Fit(X, y))

	kind, payload, err := Encode(f)
	require.NoError(t, err)
	assert.Equal(t, KindRandomForest, kind)

	restored, err := Decode(kind, payload)
	require.NoError(t, err)

	want, err := f.Predict(X)
	require.NoError(t, err)
	got, err := restored.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode("svm", json.RawMessage(`{}`))
	require.Error(t, err)

	_, err = Decode(KindRandomForest, json.RawMessage(`{"trees":[]}`))
	require.ErrorIs(t, err, ErrNotFitted)

	_, err = Decode(KindRandomForest, json.RawMessage(`{`))
	require.Error(t, err)
}

func TestR2AndRMSE(t *testing.T) {
	r2, err := R2([]float64{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r2)

	r2, err = R2([]float64{1, 2, 3}, []float64{2, 2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r2, 1e-12)

	r2, err = R2([]float64{4, 4}, []float64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r2)

	r2, err = R2([]float64{4, 4}, []float64{4, 5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r2)

	rmse, err := RMSE([]float64{0, 0}, []float64{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(12.5), rmse, 1e-12)

	_, err = RMSE(nil, nil)
	require.ErrorIs(t, err, ErrShape)
}
