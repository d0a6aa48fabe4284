package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/modelstore"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/inference"
)

func newPredictCommand(a *app) *cobra.Command {
	var city string
	var in domain.FeatureInput
	var tempMin, humidityMin, precipitation float64

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one live observation with the trained models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("temp-min") {
				in.TempMin = &tempMin
			}
			if flags.Changed("humidity-min") {
				in.HumidityMin = &humidityMin
			}
			if flags.Changed("precipitation") {
				in.Precipitation = &precipitation
			}

			store := modelstore.New(a.fs, a.cfg.ModelDir)
			p, err := inference.Load(cmd.Context(), store, a.cities.Dampening, a.logger, a.metrics)
			if err != nil {
				return err
			}
			preds, err := p.Predict([]inference.Input{{City: city, Features: in}})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(preds[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&city, "city", "", "city name, used for dampening")
	f.Float64Var(&in.TempMax, "temp-max", 0, "daily maximum temperature (°C)")
	f.Float64Var(&tempMin, "temp-min", 0, "daily minimum temperature (°C, default temp-max)")
	f.Float64Var(&in.HumidityMax, "humidity-max", 0, "daily maximum relative humidity (%)")
	f.Float64Var(&humidityMin, "humidity-min", 0, "daily minimum relative humidity (%, default humidity-max)")
	f.Float64Var(&in.WindSpeed, "wind-speed", 0, "wind speed")
	f.Float64Var(&precipitation, "precipitation", 0, "precipitation (default 0)")
	f.Float64Var(&in.PM25, "pm25", 0, "PM2.5 concentration")
	f.Float64Var(&in.PM10, "pm10", 0, "PM10 concentration")
	f.Float64Var(&in.NO2, "no2", 0, "NO2 concentration")
	f.Float64Var(&in.SO2, "so2", 0, "SO2 concentration")
	f.Float64Var(&in.O3, "o3", 0, "O3 concentration")
	f.Float64Var(&in.CO, "co", 0, "CO concentration")
	for _, name := range []string{"temp-max", "humidity-max", "wind-speed", "pm25", "pm10", "no2", "so2", "o3", "co"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
