package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

// Extractor reads the full raw dataset from the source.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawDataset, error)
}

// Transformer converts the raw dataset into the clean dataset.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawDataset) (domain.CleanDataset, domain.NormalizeStats, error)
}

// Loader writes the clean dataset to one destination.
type Loader interface {
	Name() string
	Load(ctx context.Context, ds domain.CleanDataset) error
}

// Report summarizes one pipeline run.
type Report struct {
	domain.NormalizeStats
	Sinks    []string
	Started  time.Time
	Duration time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRetry sets how often a failing load is attempted and the backoff
// between attempts.
func WithRetry(attempts int, initial, maxBackoff time.Duration) Option {
	return func(p *Pipeline) {
		p.attempts = max(attempts, 1)
		p.initialBackoff = initial
		p.maxBackoff = maxBackoff
	}
}

// WithClock sets the clock used for run timing and backoff sleeps.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Pipeline orchestrates a single extract-transform-load run.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock

	attempts       int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// New creates a Pipeline with the given stages and observability. Loaders
// run in order; the first one is normally the clean CSV.
func New(e Extractor, t Transformer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		// Exponential backoff: start at 200ms, double each retry, cap at 5s.
		attempts:       3,
		initialBackoff: 200 * time.Millisecond,
		maxBackoff:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run reads the raw dataset, normalizes it and writes it to every loader.
// Any stage failure aborts the run; loaders that already succeeded keep
// their output.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := p.clock.Now()
	report := Report{Started: start}
	p.logger.Info("pipeline started", "sinks", len(p.loaders))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	raw, err := p.extractor.Extract(ctx)
	if err != nil {
		p.logger.Error("extract failed", "error", err)
		return report, fmt.Errorf("extract: %w", err)
	}
	p.metrics.RowsRead.Add(float64(len(raw.Rows) + raw.Malformed))

	clean, stats, err := p.transformer.Transform(ctx, raw)
	report.NormalizeStats = stats
	p.recordStats(stats)
	if err != nil {
		p.logger.Error("transform failed", "error", err, "rows_read", stats.RowsRead)
		return report, fmt.Errorf("transform: %w", err)
	}

	for _, l := range p.loaders {
		if err := p.loadWithRetry(ctx, l, clean); err != nil {
			return report, fmt.Errorf("load %s: %w", l.Name(), err)
		}
		p.metrics.RecordsWritten.WithLabelValues(l.Name()).Add(float64(len(clean.Records)))
		report.Sinks = append(report.Sinks, l.Name())
	}

	report.Duration = p.clock.Since(start)
	p.metrics.RunDuration.Observe(report.Duration.Seconds())
	p.logger.Info("pipeline finished",
		"rows_read", stats.RowsRead,
		"dropped_malformed", stats.DroppedMalformed,
		"dropped_missing", stats.DroppedMissing,
		"dropped_bad_date", stats.DroppedBadDate,
		"records", stats.Records,
		"cities", stats.Cities,
		"duration", report.Duration,
	)
	return report, nil
}

func (p *Pipeline) recordStats(stats domain.NormalizeStats) {
	p.metrics.RowsDropped.WithLabelValues("malformed").Add(float64(stats.DroppedMalformed))
	p.metrics.RowsDropped.WithLabelValues("missing_field").Add(float64(stats.DroppedMissing))
	p.metrics.RowsDropped.WithLabelValues("bad_date").Add(float64(stats.DroppedBadDate))
	p.metrics.UnscaledCities.Add(float64(len(stats.UnscaledCities)))
}

// loadWithRetry attempts the load up to p.attempts times with exponential
// backoff between attempts.
func (p *Pipeline) loadWithRetry(ctx context.Context, l Loader, ds domain.CleanDataset) error {
	backoff := p.initialBackoff
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err = l.Load(ctx, ds); err == nil {
			p.logger.Info("load complete", "sink", l.Name(), "records", len(ds.Records))
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		p.logger.Warn("load failed", "sink", l.Name(), "attempt", attempt, "error", err)
		if attempt == p.attempts {
			break
		}
		if !p.sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, p.maxBackoff)
	}
	return err
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func (p *Pipeline) sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
