// Command validate checks a clean air-quality CSV against the guarantees of
// the normalizer: canonical columns, unique sorted city-days, bounded
// pollutants, complete required fields and AQI consistent with pm25. Given
// the raw input it also re-runs normalization and compares the result.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -clean data/south_asia_6months_data_clean.csv \
//	  -raw data/south_asia_6months_data.csv \
//	  -city-config config/cities.yaml
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// tolerance absorbs the rounding of values written to CSV.
const tolerance = 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cleanPath := flag.String("clean", "", "path to the clean CSV")
	rawPath := flag.String("raw", "", "optional raw CSV to re-normalize and compare")
	cityConfig := flag.String("city-config", "", "optional YAML city config used for -raw")
	scaleName := flag.String("aqi-scale", "proxy", "AQI scale the clean CSV was derived with (proxy|epa)")
	flag.Parse()

	if *cleanPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(afero.NewOsFs(), os.Stdout, *cleanPath, *rawPath, *cityConfig, *scaleName); code != 0 {
		os.Exit(code)
	}
}

func run(fs afero.Fs, out io.Writer, cleanPath, rawPath, cityConfig, scaleName string) int {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	fmt.Fprintln(out, "=== Air Quality Clean Dataset Validation ===")
	fmt.Fprintln(out)

	scale, err := domain.AQIScaleByName(scaleName)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}
	cols, err := readHeader(fs, cleanPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: read header: %v\n", err)
		return 1
	}
	reader := csvfile.NewReader(fs, logger)
	clean, skipped, err := reader.ReadClean(ctx, cleanPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load clean CSV: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSchema(cols, clean, skipped),
		validateKeys(clean.Records),
		validateValues(clean.Records),
		validateAQI(clean.Records, scale),
	}
	if rawPath != "" {
		cities, err := config.LoadCityConfig(fs, cityConfig)
		if err != nil {
			fmt.Fprintf(out, "FATAL: load city config: %v\n", err)
			return 1
		}
		raw, err := reader.ReadRaw(ctx, rawPath)
		if err != nil {
			fmt.Fprintf(out, "FATAL: load raw CSV: %v\n", err)
			return 1
		}
		phases = append(phases, validateReproduction(raw, clean, domain.NormalizeOptions{Scale: cities.Scale, AQI: scale}))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}
	fmt.Fprintf(out, "\nRecords: %d\n", len(clean.Records))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func readHeader(fs afero.Fs, path string) ([]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cols, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, err
	}
	if len(cols) > 0 {
		cols[0] = strings.TrimPrefix(cols[0], "\ufeff")
	}
	return cols, nil
}

// ── Phase 1: Schema ──

func validateSchema(cols []string, ds domain.CleanDataset, skipped int) *phase {
	p := &phase{name: "Phase 1: Schema (canonical columns)"}
	if skipped > 0 {
		p.errorf("%d rows are malformed or carry an unparsable date", skipped)
	}
	if want := ds.Columns(); !slices.Equal(cols, want) {
		p.errorf("header %v, want %v", cols, want)
	}
	for _, f := range []domain.Field{domain.PM25, domain.TempMax, domain.HumidityMax} {
		if !slices.Contains(ds.Fields, f) {
			p.errorf("required column %s missing", f)
		}
	}
	return p
}

// ── Phase 2: Keys ──

func validateKeys(records []domain.CleanRecord) *phase {
	p := &phase{name: "Phase 2: Keys (unique, sorted city-days)"}
	seen := make(map[string]int, len(records))
	for i, r := range records {
		if prev, ok := seen[r.Key()]; ok {
			p.errorf("row %d: duplicate of row %d (%s)", i+2, prev+2, r.Key())
		}
		seen[r.Key()] = i
		if i == 0 {
			continue
		}
		last := records[i-1]
		if r.City < last.City || (r.City == last.City && r.Date.Before(last.Date)) {
			p.errorf("row %d: %s sorts before %s", i+2, r.Key(), last.Key())
		}
	}
	return p
}

// ── Phase 3: Values ──

func validateValues(records []domain.CleanRecord) *phase {
	p := &phase{name: "Phase 3: Values (bounds, completeness)"}
	for i, r := range records {
		for _, f := range domain.Pollutants {
			v := r.Values[f]
			if !math.IsNaN(v) && (v < domain.PollutantMin || v > domain.PollutantMax) {
				p.errorf("row %d (%s): %s=%g outside [%g, %g]", i+2, r.Key(), f, v, domain.PollutantMin, domain.PollutantMax)
			}
		}
		for _, f := range []domain.Field{domain.PM25, domain.TempMax, domain.HumidityMax} {
			if !r.Values.Has(f) {
				p.errorf("row %d (%s): %s is empty", i+2, r.Key(), f)
			}
		}
	}
	return p
}

// ── Phase 4: AQI ──

func validateAQI(records []domain.CleanRecord, scale domain.AQIScale) *phase {
	p := &phase{name: "Phase 4: AQI (derived from pm25)"}
	for i, r := range records {
		want := scale.Interpolate(r.Values[domain.PM25])
		if math.IsNaN(r.AQI) {
			p.errorf("row %d (%s): AQI is empty", i+2, r.Key())
			continue
		}
		if math.Abs(r.AQI-want) > tolerance {
			p.errorf("row %d (%s): AQI=%g, want %g", i+2, r.Key(), r.AQI, want)
		}
	}
	return p
}

// ── Phase 5: Reproduction ──

func validateReproduction(raw domain.RawDataset, clean domain.CleanDataset, opts domain.NormalizeOptions) *phase {
	p := &phase{name: "Phase 5: Reproduction (raw re-normalized)"}
	want, _, err := domain.Normalize(raw, opts)
	if err != nil {
		p.errorf("normalize raw: %v", err)
		return p
	}
	if len(want.Records) != len(clean.Records) {
		p.errorf("record count: raw normalizes to %d, clean has %d", len(want.Records), len(clean.Records))
		return p
	}
	opt := cmp.Options{cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, tolerance)}
	for i := range want.Records {
		if diff := cmp.Diff(want.Records[i], clean.Records[i], opt); diff != "" {
			p.errorf("row %d (%s) mismatch (-raw +clean):\n%s", i+2, want.Records[i].Key(), diff)
		}
	}
	return p
}
