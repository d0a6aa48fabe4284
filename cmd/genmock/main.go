// Command genmock writes a synthetic raw air-quality CSV shaped like the
// six-month South Asia extract: several timestamped readings per city-day,
// sporadic blank cells, a few unparsable dates and an unknown station column.
// Output is fully determined by -seed and -start.
//
// Usage:
//
//	go run ./cmd/genmock -out data/south_asia_6months_data.csv -days 180 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/fsutil"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// cityProfile is the baseline climate and pollution level of one city.
type cityProfile struct {
	name     string
	temp     float64
	humidity float64
	pm25     float64
}

var profiles = []cityProfile{
	{name: "New Delhi", temp: 31, humidity: 55, pm25: 140},
	{name: "Dhaka", temp: 29, humidity: 75, pm25: 110},
	{name: "Kathmandu", temp: 22, humidity: 65, pm25: 70},
	{name: "Islamabad", temp: 27, humidity: 50, pm25: 60},
	{name: "Kabul", temp: 18, humidity: 35, pm25: 55},
	{name: "Colombo", temp: 30, humidity: 80, pm25: 30},
	{name: "Malé", temp: 30, humidity: 78, pm25: 18},
	{name: "Thimphu", temp: 15, humidity: 60, pm25: 20},
}

const readingLayout = "2006-01-02 15:04:05"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the raw CSV")
	days := flag.Int("days", 180, "number of days per city")
	perDay := flag.Int("per-day", 4, "readings per city-day")
	seed := flag.Uint64("seed", 42, "random seed")
	start := flag.String("start", "", "first date (YYYY-MM-DD, default today minus -days)")
	missing := flag.Float64("missing-rate", 0.02, "probability that a cell is left blank")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	clock := clockwork.NewRealClock()
	if *start != "" {
		t, err := time.Parse(domain.DateLayout, *start)
		if err != nil {
			return fmt.Errorf("parse -start: %w", err)
		}
		clock = clockwork.NewFakeClockAt(t.AddDate(0, 0, *days))
	}

	g := newGenerator(*seed, clock, *days, *perDay, *missing)
	err := fsutil.WriteAtomic(afero.NewOsFs(), *out, g.write)
	if err != nil {
		return err
	}
	log.Printf("wrote %d rows for %d cities to %s", g.rows, len(profiles), *out)
	return nil
}

type generator struct {
	rng         *rand.Rand
	start       time.Time
	days        int
	perDay      int
	missingRate float64
	rows        int
}

func newGenerator(seed uint64, clock clockwork.Clock, days, perDay int, missingRate float64) *generator {
	end := clock.Now().UTC().Truncate(24 * time.Hour)
	return &generator{
		rng:         rand.New(rand.NewPCG(seed, seed)),
		start:       end.AddDate(0, 0, -days),
		days:        max(days, 1),
		perDay:      max(perDay, 1),
		missingRate: missingRate,
	}
}

func header() []string {
	cols := []string{domain.ColumnCity, domain.ColumnDate}
	for f := domain.Field(0); int(f) < domain.NumFields; f++ {
		cols = append(cols, f.String())
	}
	return append(cols, "station")
}

func (g *generator) write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header()); err != nil {
		return err
	}
	for _, p := range profiles {
		for d := range g.days {
			day := g.start.AddDate(0, 0, d)
			// Seasonal swing over the series.
			season := math.Sin(2 * math.Pi * float64(d) / 365)
			for r := range g.perDay {
				at := day.Add(time.Duration(r*24/g.perDay) * time.Hour)
				if err := cw.Write(g.row(p, at, season)); err != nil {
					return err
				}
				g.rows++
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func (g *generator) row(p cityProfile, at time.Time, season float64) []string {
	temp := p.temp + 6*season + g.rng.NormFloat64()*2
	humidity := math.Min(100, math.Max(5, p.humidity-10*season+g.rng.NormFloat64()*8))
	pm25 := math.Max(1, p.pm25*(1-0.3*season)*(0.7+0.6*g.rng.Float64()))

	var v domain.Values
	v[domain.TempMax] = temp + 3
	v[domain.TempMin] = temp - 3
	v[domain.HumidityMax] = humidity
	v[domain.HumidityMin] = humidity * 0.7
	v[domain.WindSpeed] = math.Abs(8 + g.rng.NormFloat64()*4)
	v[domain.Precipitation] = 0
	if g.rng.Float64() < 0.2 {
		v[domain.Precipitation] = g.rng.ExpFloat64() * 5
	}
	v[domain.PM25] = pm25
	v[domain.PM10] = pm25 * (1.4 + 0.4*g.rng.Float64())
	v[domain.NO2] = pm25 * 0.3 * (0.8 + 0.4*g.rng.Float64())
	v[domain.SO2] = pm25 * 0.1 * (0.8 + 0.4*g.rng.Float64())
	v[domain.O3] = 20 + 40*g.rng.Float64()
	v[domain.CO] = 200 + pm25*4*(0.8+0.4*g.rng.Float64())

	date := at.Format(readingLayout)
	if g.rng.Float64() < g.missingRate/4 {
		date = "n/a"
	}
	cols := []string{p.name, date}
	for _, x := range v {
		if g.rng.Float64() < g.missingRate {
			cols = append(cols, "")
			continue
		}
		cols = append(cols, strconv.FormatFloat(math.Round(x*100)/100, 'f', -1, 64))
	}
	return append(cols, "ST-"+strconv.Itoa(g.rng.IntN(5)+1))
}
