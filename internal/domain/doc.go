// Package domain models daily environmental observations for a fixed set of
// cities and the transforms that turn them into a training-ready series.
//
// # Data Source
//
// Raw observations arrive as a CSV file with one row per city reading:
//
//	city,date,temp_max,temp_min,humidity_max,humidity_min,wind_speed,
//	precipitation,pm25,pm10,no2,so2,o3,co
//
// Several readings may exist for the same city-day (intraday samples). Empty
// or unparsable numeric cells are treated as missing (NaN), never as zero.
//
// # Normalization
//
// [Normalize] runs the cleaning stages in a fixed order. Later stages assume
// the guarantees of earlier ones:
//
//  1. drop rows missing city, date, pm25, temp_max or humidity_max
//  2. parse the date to a calendar day, dropping unparsable rows
//  3. clamp the six pollutants to [0, 500]
//  4. average every numeric field per (city, day)
//  5. sort by city, then day
//  6. trailing 3-row rolling mean of the pollutants within each city
//  7. multiply the pollutants by the city's scale factor
//  8. clamp the pollutants to [0, 500] again
//  9. derive AQI from pm25 through a piecewise-linear anchor table
//  10. project to the canonical column order
//
// Missing optional values survive every stage as NaN and are written as
// empty cells.
//
// # Pollutant Bounds
//
// Pollutant concentrations are bounded to [0, 500], the span of the EPA AQI
// scale. Out-of-range sensor values are clamped, not rejected.
//
// # AQI
//
// The default [ProxyScale] anchors map pm25 onto itself, so AQI equals pm25
// on [0, 500]. [EPAScale] follows the EPA PM2.5 breakpoints and is selected
// with AQI_SCALE=epa.
//
// # Features and Targets
//
// Both regressors consume the 12-value vector in [FeatureOrder]. The order
// is persisted with every model artifact and checked on load. The AQI
// target is pm25 itself; the health target is the weighted pollutant sum in
// [HealthIndex], whose weights sum to exactly 1.
package domain
