// Package training fits the AQI and health-impact regressors on clean
// records, evaluates them on a held-out partition and persists them.
package training

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/model"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

// DefaultSeed and DefaultTestFraction reproduce the conventional 80/20 split.
const (
	DefaultSeed         = 42
	DefaultTestFraction = 0.2
)

// ArtifactSaver persists the fitted artifacts of one run as a unit: either
// all of them are stored or none are.
type ArtifactSaver interface {
	Save(ctx context.Context, artifacts ...domain.ModelArtifact) error
}

// RegressorFactory creates an unfitted regressor for one target.
type RegressorFactory func(seed uint64) model.Persistable

// Options configures a training run.
type Options struct {
	Seed         uint64
	TestFraction float64
	NewRegressor RegressorFactory
}

// ForestFactory returns a RegressorFactory building random forests from
// cfg, with the seed of each run substituted.
func ForestFactory(cfg model.ForestConfig) RegressorFactory {
	return func(seed uint64) model.Persistable {
		c := cfg
		c.Seed = seed
		return model.NewRandomForest(c)
	}
}

// DefaultOptions returns the default seed, split and forest.
func DefaultOptions() Options {
	return Options{
		Seed:         DefaultSeed,
		TestFraction: DefaultTestFraction,
		NewRegressor: ForestFactory(model.DefaultForestConfig(DefaultSeed)),
	}
}

// Result summarizes a training run.
type Result struct {
	Rows      int
	Excluded  int
	TrainRows int
	TestRows  int
	Artifacts []domain.ModelArtifact
}

// Artifact returns the artifact with the given name.
func (r Result) Artifact(name string) (domain.ModelArtifact, bool) {
	for _, a := range r.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return domain.ModelArtifact{}, false
}

// Trainer fits one regressor per target.
type Trainer struct {
	saver   ArtifactSaver
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTrainer creates a Trainer. A nil saver skips persistence.
func NewTrainer(saver ArtifactSaver, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Trainer {
	if opts.TestFraction == 0 {
		opts.TestFraction = DefaultTestFraction
	}
	if opts.NewRegressor == nil {
		opts.NewRegressor = ForestFactory(model.DefaultForestConfig(opts.Seed))
	}
	return &Trainer{saver: saver, opts: opts, logger: logger, metrics: metrics}
}

type target struct {
	name string
	y    []float64
}

// Train assembles features and targets from t, splits them, fits and
// evaluates both models and saves their artifacts. Nothing is saved unless
// both models fit.
func (tr *Trainer) Train(ctx context.Context, t domain.Table) (Result, error) {
	samples, err := Assemble(t)
	if err != nil {
		return Result{}, err
	}
	if samples.Excluded > 0 {
		tr.logger.Warn("rows excluded from training", "excluded", samples.Excluded, "reason", "missing_feature")
	}

	part, err := Split(len(samples.X), tr.opts.TestFraction, tr.opts.Seed)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Rows:      len(samples.X),
		Excluded:  samples.Excluded,
		TrainRows: len(part.Train),
		TestRows:  len(part.Test),
	}

	targets := []target{
		{name: domain.AQIModelName, y: samples.AQI},
		{name: domain.HealthModelName, y: samples.Health},
	}
	for _, tg := range targets {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		a, err := tr.fit(tg, samples.X, part)
		if err != nil {
			return Result{}, err
		}
		res.Artifacts = append(res.Artifacts, a)
	}

	if tr.saver != nil {
		if err := tr.saver.Save(ctx, res.Artifacts...); err != nil {
			return Result{}, fmt.Errorf("save models: %w", err)
		}
	}
	return res, nil
}

func (tr *Trainer) fit(tg target, X [][]float64, part Partition) (domain.ModelArtifact, error) {
	xTrain, yTrain := subset(X, tg.y, part.Train)
	xTest, yTest := subset(X, tg.y, part.Test)

	reg := tr.opts.NewRegressor(tr.opts.Seed)
	if err := reg.Fit(xTrain, yTrain); err != nil {
		return domain.ModelArtifact{}, fmt.Errorf("fit %s: %w", tg.name, err)
	}
	pred, err := reg.Predict(xTest)
	if err != nil {
		return domain.ModelArtifact{}, fmt.Errorf("evaluate %s: %w", tg.name, err)
	}
	eval, err := Evaluate(yTest, pred)
	if err != nil {
		return domain.ModelArtifact{}, fmt.Errorf("evaluate %s: %w", tg.name, err)
	}

	kind, payload, err := model.Encode(reg)
	if err != nil {
		return domain.ModelArtifact{}, err
	}
	a := domain.NewModelArtifact(tg.name, kind, payload)
	a.Seed = tr.opts.Seed
	a.TrainRows = len(part.Train)
	a.TestRows = len(part.Test)
	a.Evaluation = eval

	tr.logger.Info("model trained",
		"model", tg.name,
		"kind", kind,
		"train_rows", a.TrainRows,
		"test_rows", a.TestRows,
		"r2", eval.R2,
		"rmse", eval.RMSE,
	)
	if tr.metrics != nil {
		tr.metrics.ObserveModel(tg.name, eval.R2, eval.RMSE)
	}
	return a, nil
}

// Evaluate scores predictions against held-out targets.
func Evaluate(yTrue, yPred []float64) (domain.Evaluation, error) {
	r2, err := model.R2(yTrue, yPred)
	if err != nil {
		return domain.Evaluation{}, err
	}
	rmse, err := model.RMSE(yTrue, yPred)
	if err != nil {
		return domain.Evaluation{}, err
	}
	return domain.Evaluation{R2: r2, RMSE: rmse}, nil
}
