package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// Normalizer implements Transformer with the domain normalization stages.
type Normalizer struct {
	opts   domain.NormalizeOptions
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer with the given scale factors and AQI
// anchor table.
func NewNormalizer(opts domain.NormalizeOptions, logger *slog.Logger) *Normalizer {
	return &Normalizer{opts: opts, logger: logger}
}

// Transform normalizes raw. Cities without a scale factor are logged once
// each and left unscaled.
func (n *Normalizer) Transform(ctx context.Context, raw domain.RawDataset) (domain.CleanDataset, domain.NormalizeStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.CleanDataset{}, domain.NormalizeStats{RowsRead: len(raw.Rows) + raw.Malformed}, err
	}

	clean, stats, err := domain.Normalize(raw, n.opts)
	if stats.DroppedMalformed > 0 {
		n.logger.Warn("rows dropped", "reason", "malformed", "count", stats.DroppedMalformed)
	}
	if stats.DroppedMissing > 0 {
		n.logger.Warn("rows dropped", "reason", "missing_field", "count", stats.DroppedMissing)
	}
	if stats.DroppedBadDate > 0 {
		n.logger.Warn("rows dropped", "reason", "bad_date", "count", stats.DroppedBadDate)
	}
	if err != nil {
		return clean, stats, err
	}
	for _, city := range stats.UnscaledCities {
		n.logger.Warn("no scale factor for city, using 1.0", "city", city)
	}
	return clean, stats, nil
}
