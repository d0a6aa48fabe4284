package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Field identifies a numeric column of an observation. The iota order is the
// canonical output column order after city and date.
type Field int

const (
	TempMax Field = iota
	TempMin
	HumidityMax
	HumidityMin
	WindSpeed
	Precipitation
	PM25
	PM10
	NO2
	SO2
	O3
	CO

	// NumFields is the number of numeric observation fields.
	NumFields = int(CO) + 1
)

const (
	ColumnCity = "city"
	ColumnDate = "date"
	ColumnAQI  = "AQI"

	// DateLayout is the calendar-date format written to the clean dataset.
	DateLayout = "2006-01-02"
)

var fieldNames = [NumFields]string{
	TempMax:       "temp_max",
	TempMin:       "temp_min",
	HumidityMax:   "humidity_max",
	HumidityMin:   "humidity_min",
	WindSpeed:     "wind_speed",
	Precipitation: "precipitation",
	PM25:          "pm25",
	PM10:          "pm10",
	NO2:           "no2",
	SO2:           "so2",
	O3:            "o3",
	CO:            "co",
}

// Pollutants lists the six pollutant concentration fields.
var Pollutants = [...]Field{PM25, PM10, NO2, SO2, O3, CO}

func (f Field) String() string {
	if f < 0 || int(f) >= NumFields {
		return "unknown"
	}
	return fieldNames[f]
}

// FieldByName resolves a column name to its Field.
func FieldByName(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// Values holds one numeric value per Field. NaN marks a missing value.
type Values [NumFields]float64

// MissingValues returns a Values with every field missing.
func MissingValues() Values {
	var v Values
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}

// Has reports whether field f carries a value.
func (v Values) Has(f Field) bool {
	return !math.IsNaN(v[f])
}

// Observation is one raw input row. Date is kept as read; it is parsed
// during normalization.
type Observation struct {
	City   string
	Date   string
	Values Values
}

// CleanRecord is one city-day after normalization.
type CleanRecord struct {
	City   string
	Date   time.Time
	Values Values
	AQI    float64
}

// Key returns the (city, date) uniqueness key of the record.
func (r CleanRecord) Key() string {
	return r.City + "|" + r.Date.Format(DateLayout)
}

// MarshalJSON encodes the record with column names as keys; missing values
// are omitted.
func (r CleanRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, NumFields+3)
	out[ColumnCity] = r.City
	out[ColumnDate] = r.Date.Format(DateLayout)
	for i, v := range r.Values {
		if !math.IsNaN(v) {
			out[fieldNames[i]] = v
		}
	}
	if !math.IsNaN(r.AQI) {
		out[ColumnAQI] = r.AQI
	}
	return json.Marshal(out)
}

// RawDataset is the input table: the numeric columns present in the source
// header and the rows read from it. Malformed counts source rows that could
// not be split into cells and were skipped by the reader.
type RawDataset struct {
	Fields    []Field
	Rows      []Observation
	Malformed int
}

// CleanDataset is the Normalizer output.
type CleanDataset struct {
	Fields  []Field
	Records []CleanRecord
}

// Columns returns the canonical output header, limited to present fields.
func (d CleanDataset) Columns() []string {
	cols := []string{ColumnCity, ColumnDate}
	present := fieldSet(d.Fields)
	for f := range NumFields {
		if present[f] {
			cols = append(cols, Field(f).String())
		}
	}
	return append(cols, ColumnAQI)
}

// Table exposes the numeric fields of a dataset independent of its shape.
type Table struct {
	Fields []Field
	Rows   []Values
}

// HasField reports whether the table carries column f.
func (t Table) HasField(f Field) bool {
	for _, have := range t.Fields {
		if have == f {
			return true
		}
	}
	return false
}

// Table returns the numeric view of the raw dataset.
func (d RawDataset) Table() Table {
	rows := make([]Values, len(d.Rows))
	for i, o := range d.Rows {
		rows[i] = o.Values
	}
	return Table{Fields: d.Fields, Rows: rows}
}

// Table returns the numeric view of the clean dataset.
func (d CleanDataset) Table() Table {
	rows := make([]Values, len(d.Records))
	for i, r := range d.Records {
		rows[i] = r.Values
	}
	return Table{Fields: d.Fields, Rows: rows}
}

func fieldSet(fields []Field) [NumFields]bool {
	var set [NumFields]bool
	for _, f := range fields {
		if f >= 0 && int(f) < NumFields {
			set[f] = true
		}
	}
	return set
}
