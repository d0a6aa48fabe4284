// Package csvfile reads raw observation CSVs and reads and writes the clean
// dataset CSV.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/fsutil"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// header maps column positions of a CSV file.
type header struct {
	city, date, aqi int
	fields          []domain.Field
	index           [domain.NumFields]int
}

func parseHeader(cols []string) header {
	h := header{city: -1, date: -1, aqi: -1}
	for i := range h.index {
		h.index[i] = -1
	}
	for i, c := range cols {
		name := strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		switch name {
		case domain.ColumnCity:
			h.city = i
		case domain.ColumnDate:
			h.date = i
		case domain.ColumnAQI:
			h.aqi = i
		default:
			if f, ok := domain.FieldByName(name); ok && h.index[f] < 0 {
				h.index[f] = i
				h.fields = append(h.fields, f)
			}
		}
	}
	return h
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// number parses a numeric cell. Empty and unparsable cells are missing.
func number(s string) (float64, bool) {
	if s == "" {
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

func (h header) values(row []string) (domain.Values, int) {
	v := domain.MissingValues()
	bad := 0
	for _, f := range h.fields {
		n, ok := number(cell(row, h.index[f]))
		if !ok {
			bad++
		}
		v[f] = n
	}
	return v, bad
}

// Reader loads CSV datasets from a filesystem.
type Reader struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewReader creates a Reader over fs.
func NewReader(fs afero.Fs, logger *slog.Logger) *Reader {
	return &Reader{fs: fs, logger: logger}
}

// readAll reads the header and every data row of path. Rows the CSV parser
// rejects, including rows whose cell count differs from the header, are
// skipped and counted.
func (r *Reader) readAll(path string) ([]string, [][]string, int, error) {
	f, err := r.fs.Open(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: open %s: %w", domain.ErrArtifactIO, path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.LazyQuotes = true
	cols, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, 0, fmt.Errorf("%w: %s has no header row", domain.ErrArtifactIO, path)
	}
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: read header of %s: %w", domain.ErrArtifactIO, path, err)
	}

	var rows [][]string
	malformed := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			malformed++
			r.logger.Debug("malformed csv row skipped", "path", path, "line", perr.StartLine, "error", perr.Err)
			continue
		}
		if err != nil {
			return nil, nil, 0, fmt.Errorf("%w: read %s: %w", domain.ErrArtifactIO, path, err)
		}
		rows = append(rows, row)
	}
	if malformed > 0 {
		r.logger.Warn("malformed csv rows skipped", "path", path, "rows", malformed)
	}
	return cols, rows, malformed, nil
}

// ReadRaw reads a raw observation CSV. Unknown columns are ignored; numeric
// cells that are empty or unparsable become missing values.
func (r *Reader) ReadRaw(_ context.Context, path string) (domain.RawDataset, error) {
	cols, rows, malformed, err := r.readAll(path)
	if err != nil {
		return domain.RawDataset{}, err
	}
	h := parseHeader(cols)

	ds := domain.RawDataset{Fields: h.fields, Rows: make([]domain.Observation, 0, len(rows)), Malformed: malformed}
	badCells := 0
	for _, row := range rows {
		v, bad := h.values(row)
		badCells += bad
		ds.Rows = append(ds.Rows, domain.Observation{
			City:   cell(row, h.city),
			Date:   cell(row, h.date),
			Values: v,
		})
	}
	if badCells > 0 {
		r.logger.Warn("unparsable numeric cells treated as missing", "path", path, "cells", badCells)
	}
	r.logger.Debug("raw dataset read", "path", path, "rows", len(ds.Rows), "columns", len(h.fields))
	return ds, nil
}

// ReadClean reads a clean dataset CSV as written by Writer. Rows that are
// malformed or carry an unparsable date are skipped and counted in the
// returned skip count. Without a date column every record has the zero
// date; without a city column every record has an empty city.
func (r *Reader) ReadClean(_ context.Context, path string) (domain.CleanDataset, int, error) {
	cols, rows, skipped, err := r.readAll(path)
	if err != nil {
		return domain.CleanDataset{}, 0, err
	}
	h := parseHeader(cols)
	if h.city < 0 || h.date < 0 {
		r.logger.Warn("clean dataset lacks city or date column", "path", path)
	}

	ds := domain.CleanDataset{Fields: h.fields, Records: make([]domain.CleanRecord, 0, len(rows))}
	badDates := 0
	for i, row := range rows {
		var date time.Time
		if h.date >= 0 {
			if date, err = time.Parse(domain.DateLayout, cell(row, h.date)); err != nil {
				badDates++
				r.logger.Debug("clean row with bad date skipped", "path", path, "row", i+1, "error", err)
				continue
			}
		}
		v, _ := h.values(row)
		aqi, _ := number(cell(row, h.aqi))
		ds.Records = append(ds.Records, domain.CleanRecord{
			City:   cell(row, h.city),
			Date:   date,
			Values: v,
			AQI:    aqi,
		})
	}
	if badDates > 0 {
		r.logger.Warn("clean rows with bad dates skipped", "path", path, "rows", badDates)
	}
	return ds, skipped + badDates, nil
}

// Writer writes the clean dataset to a CSV file atomically.
type Writer struct {
	fs   afero.Fs
	path string
}

// NewWriter creates a Writer targeting path on fs.
func NewWriter(fs afero.Fs, path string) *Writer {
	return &Writer{fs: fs, path: path}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "csv" }

// Load writes ds with a header row in canonical column order. Missing values
// are written as empty cells.
func (w *Writer) Load(_ context.Context, ds domain.CleanDataset) error {
	return fsutil.WriteAtomic(w.fs, w.path, func(out io.Writer) error {
		return Encode(out, ds)
	})
}

// Encode writes ds as CSV to out.
func Encode(out io.Writer, ds domain.CleanDataset) error {
	var have [domain.NumFields]bool
	for _, f := range ds.Fields {
		have[f] = true
	}
	present := make([]domain.Field, 0, len(ds.Fields))
	for f := range domain.NumFields {
		if have[f] {
			present = append(present, domain.Field(f))
		}
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(ds.Columns()); err != nil {
		return err
	}
	row := make([]string, 0, len(present)+3)
	for _, rec := range ds.Records {
		row = append(row[:0], rec.City, rec.Date.Format(domain.DateLayout))
		for _, f := range present {
			row = append(row, formatNumber(rec.Values[f]))
		}
		row = append(row, formatNumber(rec.AQI))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Source extracts the raw dataset from a fixed path.
// It implements pipeline.Extractor.
type Source struct {
	reader *Reader
	path   string
}

// NewSource creates a Source reading path with r.
func NewSource(r *Reader, path string) *Source {
	return &Source{reader: r, path: path}
}

// Extract reads the whole raw dataset.
func (s *Source) Extract(ctx context.Context) (domain.RawDataset, error) {
	return s.reader.ReadRaw(ctx, s.path)
}
