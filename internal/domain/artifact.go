package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Model artifact names.
const (
	AQIModelName    = "aqi_model"
	HealthModelName = "health_model"
)

// Evaluation holds held-out metrics for a fitted regressor.
type Evaluation struct {
	R2   float64 `json:"r2"`
	RMSE float64 `json:"rmse"`
}

// ModelArtifact is the persisted form of a fitted regressor. Artifacts are
// written once and never modified; retraining produces a new ID.
type ModelArtifact struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Kind         string          `json:"kind"`
	FeatureOrder []string        `json:"feature_order"`
	TrainedAt    time.Time       `json:"trained_at"`
	Seed         uint64          `json:"seed"`
	TrainRows    int             `json:"train_rows"`
	TestRows     int             `json:"test_rows"`
	Evaluation   Evaluation      `json:"evaluation"`
	Model        json.RawMessage `json:"model"`
}

// NewModelArtifact stamps a fresh ID, the current feature order and the
// training time.
func NewModelArtifact(name, kind string, model json.RawMessage) ModelArtifact {
	return ModelArtifact{
		ID:           uuid.NewString(),
		Name:         name,
		Kind:         kind,
		FeatureOrder: FeatureNames(),
		TrainedAt:    clock.Now().UTC(),
		Model:        model,
	}
}

// Validate checks the artifact can be served.
func (a ModelArtifact) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: artifact has no name", ErrMalformedInput)
	}
	if len(a.Model) == 0 {
		return fmt.Errorf("%w: artifact %s has no model payload", ErrMalformedInput, a.Name)
	}
	if math.IsNaN(a.Evaluation.R2) || math.IsNaN(a.Evaluation.RMSE) {
		return fmt.Errorf("%w: artifact %s has undefined metrics", ErrMalformedInput, a.Name)
	}
	return CheckFeatureOrder(a.FeatureOrder)
}
