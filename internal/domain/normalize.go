package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// SmoothingWindow is the trailing row window of the pollutant rolling mean.
const SmoothingWindow = 3

// dateLayouts are the accepted input date formats, tried in order. Single
// digit month, day and hour elements also accept zero-padded values.
var dateLayouts = []string{
	DateLayout,
	"2006-1-2",
	"2006/1/2",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2T15:04:05",
	"2006-1-2T15:04",
	time.RFC3339,
}

// NormalizeOptions configures a normalization run.
type NormalizeOptions struct {
	Scale ScaleFactors
	AQI   AQIScale
}

// NormalizeStats describes what a run kept and dropped.
type NormalizeStats struct {
	RowsRead         int
	DroppedMalformed int
	DroppedMissing   int
	DroppedBadDate int
	Records        int
	Cities         []string
	UnscaledCities []string
	From           time.Time
	To             time.Time
}

// Normalize cleans raw observations into unique, bounded, smoothed and
// city-scaled daily records. It fails only when no row survives the
// completeness filter.
func Normalize(ds RawDataset, opts NormalizeOptions) (CleanDataset, NormalizeStats, error) {
	stats := NormalizeStats{RowsRead: len(ds.Rows) + ds.Malformed, DroppedMalformed: ds.Malformed}

	complete, dropped := FilterIncomplete(ds.Rows)
	stats.DroppedMissing = dropped
	if len(complete) == 0 {
		return CleanDataset{}, stats, fmt.Errorf("%w: no complete rows in %d read", ErrDatasetEmpty, stats.RowsRead)
	}

	records, dropped := ParseDates(complete)
	stats.DroppedBadDate = dropped
	if len(records) == 0 {
		return CleanDataset{}, stats, fmt.Errorf("%w: no rows with a valid date", ErrDatasetEmpty)
	}

	ClampPollutants(records)
	records = AverageDaily(records)
	SortByCityDate(records)
	SmoothPollutants(records, SmoothingWindow)
	stats.UnscaledCities = ApplyScaleFactors(records, opts.Scale)
	ClampPollutants(records)

	aqi := opts.AQI
	if len(aqi) == 0 {
		aqi = ProxyScale
	}
	DeriveAQI(records, aqi)

	out := Project(ds.Fields, records)
	stats.Records = len(out.Records)
	stats.Cities = distinctCities(out.Records)
	stats.From, stats.To = dateRange(out.Records)
	return out, stats, nil
}

// FilterIncomplete drops observations missing city, date, pm25, temp_max or
// humidity_max.
func FilterIncomplete(rows []Observation) ([]Observation, int) {
	kept := make([]Observation, 0, len(rows))
	for _, o := range rows {
		if strings.TrimSpace(o.City) == "" || strings.TrimSpace(o.Date) == "" {
			continue
		}
		if !o.Values.Has(PM25) || !o.Values.Has(TempMax) || !o.Values.Has(HumidityMax) {
			continue
		}
		kept = append(kept, o)
	}
	return kept, len(rows) - len(kept)
}

// ParseDate coerces s to a UTC calendar date, discarding any time of day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", ErrMalformedInput, s)
}

// ParseDates converts observations to working records, dropping rows whose
// date cannot be parsed.
func ParseDates(rows []Observation) ([]CleanRecord, int) {
	out := make([]CleanRecord, 0, len(rows))
	for _, o := range rows {
		day, err := ParseDate(o.Date)
		if err != nil {
			continue
		}
		out = append(out, CleanRecord{City: o.City, Date: day, Values: o.Values, AQI: math.NaN()})
	}
	return out, len(rows) - len(out)
}

// ClampPollutants bounds every pollutant of every record in place.
func ClampPollutants(records []CleanRecord) {
	for i := range records {
		for _, f := range Pollutants {
			records[i].Values[f] = Clamp(records[i].Values[f])
		}
	}
}

// AverageDaily collapses records sharing (city, date) into one record whose
// fields are the arithmetic mean of the non-missing group values.
func AverageDaily(records []CleanRecord) []CleanRecord {
	type group struct {
		rec    CleanRecord
		sums   Values
		counts [NumFields]int
	}
	index := make(map[string]int, len(records))
	groups := make([]*group, 0, len(records))

	for _, r := range records {
		i, ok := index[r.Key()]
		if !ok {
			i = len(groups)
			index[r.Key()] = i
			groups = append(groups, &group{rec: CleanRecord{City: r.City, Date: r.Date, AQI: math.NaN()}})
		}
		g := groups[i]
		for f, v := range r.Values {
			if math.IsNaN(v) {
				continue
			}
			g.sums[f] += v
			g.counts[f]++
		}
	}

	out := make([]CleanRecord, len(groups))
	for i, g := range groups {
		rec := g.rec
		for f := range rec.Values {
			if g.counts[f] == 0 {
				rec.Values[f] = math.NaN()
				continue
			}
			rec.Values[f] = g.sums[f] / float64(g.counts[f])
		}
		out[i] = rec
	}
	return out
}

// SortByCityDate orders records by city, then ascending date.
func SortByCityDate(records []CleanRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].City != records[j].City {
			return records[i].City < records[j].City
		}
		return records[i].Date.Before(records[j].Date)
	})
}

// SmoothPollutants replaces each pollutant with the mean of itself and up
// to window-1 preceding records of the same city. Records must be sorted by
// city and date. Missing values are skipped; a window with no values stays
// missing.
func SmoothPollutants(records []CleanRecord, window int) {
	if window < 1 {
		return
	}
	for start := 0; start < len(records); {
		end := start + 1
		for end < len(records) && records[end].City == records[start].City {
			end++
		}
		for _, f := range Pollutants {
			raw := make([]float64, end-start)
			for i := start; i < end; i++ {
				raw[i-start] = records[i].Values[f]
			}
			for i := range raw {
				records[start+i].Values[f] = trailingMean(raw, i, window)
			}
		}
		start = end
	}
}

func trailingMean(raw []float64, i, window int) float64 {
	var sum float64
	var n int
	for j := max(0, i-window+1); j <= i; j++ {
		if math.IsNaN(raw[j]) {
			continue
		}
		sum += raw[j]
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// ApplyScaleFactors multiplies every pollutant by its city's factor. Cities
// without a factor are left unchanged and returned, sorted and distinct.
func ApplyScaleFactors(records []CleanRecord, scale ScaleFactors) []string {
	unscaled := make(map[string]struct{})
	for i := range records {
		factor, ok := scale.Lookup(records[i].City)
		if !ok {
			unscaled[records[i].City] = struct{}{}
			continue
		}
		for _, f := range Pollutants {
			records[i].Values[f] *= factor
		}
	}
	out := make([]string, 0, len(unscaled))
	for city := range unscaled {
		out = append(out, city)
	}
	sort.Strings(out)
	return out
}

// DeriveAQI sets each record's AQI from its pm25 through scale.
func DeriveAQI(records []CleanRecord, scale AQIScale) {
	for i := range records {
		records[i].AQI = scale.Interpolate(records[i].Values[PM25])
	}
}

// Project restricts records to the columns present in the source. Fields
// absent from the source are forced to missing.
func Project(fields []Field, records []CleanRecord) CleanDataset {
	present := fieldSet(fields)
	kept := make([]Field, 0, len(fields))
	for f := range NumFields {
		if present[f] {
			kept = append(kept, Field(f))
		}
	}
	for i := range records {
		for f := range NumFields {
			if !present[f] {
				records[i].Values[f] = math.NaN()
			}
		}
	}
	return CleanDataset{Fields: kept, Records: records}
}

func distinctCities(records []CleanRecord) []string {
	var out []string
	for i, r := range records {
		if i == 0 || r.City != records[i-1].City {
			out = append(out, r.City)
		}
	}
	return out
}

func dateRange(records []CleanRecord) (time.Time, time.Time) {
	var from, to time.Time
	for i, r := range records {
		if i == 0 || r.Date.Before(from) {
			from = r.Date
		}
		if i == 0 || r.Date.After(to) {
			to = r.Date
		}
	}
	return from, to
}
