// Package report summarizes the clean dataset per city.
package report

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// CitySummary is the per-city mean of the headline columns.
type CitySummary struct {
	City        string
	Days        int
	From        time.Time
	To          time.Time
	PM25        float64
	TempMax     float64
	HumidityMax float64
	AQI         float64
}

// MarshalJSON omits means that are undefined because every value was missing.
func (s CitySummary) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"city": s.City,
		"days": s.Days,
		"from": s.From.Format(domain.DateLayout),
		"to":   s.To.Format(domain.DateLayout),
	}
	for key, v := range map[string]float64{
		domain.PM25.String():        s.PM25,
		domain.TempMax.String():     s.TempMax,
		domain.HumidityMax.String(): s.HumidityMax,
		domain.ColumnAQI:            s.AQI,
	} {
		if !math.IsNaN(v) {
			out[key] = v
		}
	}
	return json.Marshal(out)
}

type accumulator struct {
	summary CitySummary
	sums    [4]float64
	counts  [4]int
}

func (a *accumulator) add(i int, v float64) {
	if math.IsNaN(v) {
		return
	}
	a.sums[i] += v
	a.counts[i]++
}

func (a *accumulator) mean(i int) float64 {
	if a.counts[i] == 0 {
		return math.NaN()
	}
	return a.sums[i] / float64(a.counts[i])
}

// Summarize returns one summary per city, ordered by city name. Missing
// values are ignored in each mean.
func Summarize(records []domain.CleanRecord) []CitySummary {
	byCity := make(map[string]*accumulator)
	for _, r := range records {
		acc, ok := byCity[r.City]
		if !ok {
			acc = &accumulator{summary: CitySummary{City: r.City, From: r.Date, To: r.Date}}
			byCity[r.City] = acc
		}
		s := &acc.summary
		s.Days++
		if r.Date.Before(s.From) {
			s.From = r.Date
		}
		if r.Date.After(s.To) {
			s.To = r.Date
		}
		acc.add(0, r.Values[domain.PM25])
		acc.add(1, r.Values[domain.TempMax])
		acc.add(2, r.Values[domain.HumidityMax])
		acc.add(3, r.AQI)
	}

	out := make([]CitySummary, 0, len(byCity))
	for _, acc := range byCity {
		s := acc.summary
		s.PM25 = acc.mean(0)
		s.TempMax = acc.mean(1)
		s.HumidityMax = acc.mean(2)
		s.AQI = acc.mean(3)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}

// History returns the records of city in date order. The match is
// case-insensitive.
func History(records []domain.CleanRecord, city string) []domain.CleanRecord {
	key := domain.CityKey(city)
	var out []domain.CleanRecord
	for _, r := range records {
		if domain.CityKey(r.City) == key {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Cities lists the distinct cities in the dataset, sorted.
func Cities(records []domain.CleanRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.City] {
			seen[r.City] = true
			out = append(out, r.City)
		}
	}
	sort.Strings(out)
	return out
}
