// Package inference serves predictions from persisted model artifacts.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/model"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

// ArtifactLoader reads a persisted model artifact by name.
type ArtifactLoader interface {
	Load(ctx context.Context, name string) (domain.ModelArtifact, error)
}

// Input is one live observation to score.
type Input struct {
	City     string
	Features domain.FeatureInput
}

// Prediction is the scored result for one feature vector.
type Prediction struct {
	City     string  `json:"city,omitempty"`
	AQI      float64 `json:"aqi"`
	Health   float64 `json:"health_index"`
	Category string  `json:"health_category"`
}

// ModelInfo describes a loaded artifact.
type ModelInfo struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	TrainedAt  string            `json:"trained_at"`
	Evaluation domain.Evaluation `json:"evaluation"`
}

// Predictor scores feature vectors with the AQI and health models. It is
// read-only after construction and safe for concurrent use.
type Predictor struct {
	aqi       model.Regressor
	health    model.Regressor
	models    []ModelInfo
	dampening domain.Dampening
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Load reads and verifies both artifacts and returns a ready Predictor.
func Load(ctx context.Context, loader ArtifactLoader, dampening domain.Dampening, logger *slog.Logger, metrics *observability.Metrics) (*Predictor, error) {
	p := &Predictor{dampening: dampening, logger: logger, metrics: metrics}

	var err error
	if p.aqi, err = p.load(ctx, loader, domain.AQIModelName); err != nil {
		return nil, err
	}
	if p.health, err = p.load(ctx, loader, domain.HealthModelName); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Predictor) load(ctx context.Context, loader ArtifactLoader, name string) (model.Regressor, error) {
	a, err := loader.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	reg, err := model.Decode(a.Kind, a.Model)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", name, domain.ErrMalformedInput, err)
	}

	p.models = append(p.models, ModelInfo{
		ID:         a.ID,
		Name:       a.Name,
		Kind:       a.Kind,
		TrainedAt:  a.TrainedAt.Format(time.RFC3339),
		Evaluation: a.Evaluation,
	})
	if p.metrics != nil {
		p.metrics.ObserveModel(name, a.Evaluation.R2, a.Evaluation.RMSE)
	}
	p.logger.Info("model loaded", "model", name, "id", a.ID, "kind", a.Kind, "r2", a.Evaluation.R2)
	return reg, nil
}

// Models lists the loaded artifacts.
func (p *Predictor) Models() []ModelInfo {
	out := make([]ModelInfo, len(p.models))
	copy(out, p.models)
	return out
}

// CheckReadiness returns nil once both models are loaded.
func (p *Predictor) CheckReadiness(_ context.Context) error {
	if p == nil || p.aqi == nil || p.health == nil {
		return errors.New("models not loaded")
	}
	return nil
}

// PredictVectors scores a batch of ordered feature vectors without
// dampening.
func (p *Predictor) PredictVectors(X [][]float64) ([]Prediction, error) {
	if len(X) == 0 {
		return nil, nil
	}
	for i, x := range X {
		if len(x) != domain.NumFeatures {
			p.countError()
			return nil, fmt.Errorf("%w: vector %d has %d features, want %d", domain.ErrFeatureOrder, i, len(x), domain.NumFeatures)
		}
	}

	aqi, err := p.aqi.Predict(X)
	if err != nil {
		p.countError()
		return nil, fmt.Errorf("predict %s: %w", domain.AQIModelName, err)
	}
	health, err := p.health.Predict(X)
	if err != nil {
		p.countError()
		return nil, fmt.Errorf("predict %s: %w", domain.HealthModelName, err)
	}

	out := make([]Prediction, len(X))
	for i := range out {
		out[i] = Prediction{AQI: aqi[i], Health: health[i], Category: domain.HealthCategory(health[i])}
	}
	if p.metrics != nil {
		p.metrics.Predictions.Add(float64(len(out)))
	}
	return out, nil
}

// Predict scores live observations, applying input defaults and per-city
// dampening.
func (p *Predictor) Predict(inputs []Input) ([]Prediction, error) {
	X := make([][]float64, len(inputs))
	for i, in := range inputs {
		X[i] = in.Features.Vector()
	}
	out, err := p.PredictVectors(X)
	if err != nil {
		return nil, err
	}
	for i, in := range inputs {
		aqi, health := p.dampening.Apply(in.City, out[i].AQI, out[i].Health)
		out[i] = Prediction{City: in.City, AQI: aqi, Health: health, Category: domain.HealthCategory(health)}
	}
	return out, nil
}

func (p *Predictor) countError() {
	if p.metrics != nil {
		p.metrics.PredictionErrors.Inc()
	}
}
