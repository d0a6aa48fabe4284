package domain

import "errors"

var (
	// ErrMalformedInput marks a row or cell that cannot be parsed. It is
	// recovered by excluding the row and never aborts a run on its own.
	ErrMalformedInput = errors.New("malformed input")

	// ErrDatasetEmpty is returned when no usable rows remain after cleaning
	// or feature assembly.
	ErrDatasetEmpty = errors.New("dataset empty")

	// ErrTooFewRows is returned when the train/test split cannot produce a
	// test partition of at least two rows and a non-empty train partition.
	ErrTooFewRows = errors.New("too few rows for train/test split")

	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")

	// ErrArtifactIO wraps failures reading datasets or writing artifacts.
	ErrArtifactIO = errors.New("artifact io")

	// ErrFeatureOrder is returned when a model artifact was trained on a
	// feature order other than FeatureOrder.
	ErrFeatureOrder = errors.New("feature order mismatch")
)
