package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/air-quality-etl/internal/adapter/kafka"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
)

func newCleanCommand(a *app) *cobra.Command {
	var in, out string
	var publish bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Normalize the raw dataset into the clean daily dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in == "" {
				in = a.cfg.RawDataPath
			}
			if out == "" {
				out = a.cfg.CleanDataPath
			}
			if cmd.Flags().Changed("kafka") {
				a.cfg.KafkaEnabled = publish
			}

			scale, err := domain.AQIScaleByName(a.cfg.AQIScale)
			if err != nil {
				return err
			}
			a.logger.Info("aqi scale selected", "scale", a.cfg.AQIScale)

			reader := csvfile.NewReader(a.fs, a.logger)
			loaders := []pipeline.Loader{csvfile.NewWriter(a.fs, out)}
			if a.cfg.KafkaEnabled {
				w := kafkaadapter.NewWriter(a.cfg, a.logger)
				defer func() {
					if err := w.Close(); err != nil {
						a.logger.Error("kafka writer close error", "error", err)
					}
				}()
				loaders = append(loaders, w)
			}

			transformer := pipeline.NewNormalizer(domain.NormalizeOptions{Scale: a.cities.Scale, AQI: scale}, a.logger)
			p := pipeline.New(csvfile.NewSource(reader, in), transformer, loaders, a.logger, a.metrics)

			report, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "read %d rows, dropped %d (malformed) + %d (missing) + %d (bad date), wrote %d records for %d cities to %s\n",
				report.RowsRead, report.DroppedMalformed, report.DroppedMissing, report.DroppedBadDate, report.Records, len(report.Cities), out)
			if len(report.UnscaledCities) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "unscaled cities: %v\n", report.UnscaledCities)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "raw CSV path (default RAW_DATA_PATH)")
	cmd.Flags().StringVar(&out, "out", "", "clean CSV path (default CLEAN_DATA_PATH)")
	cmd.Flags().BoolVar(&publish, "kafka", false, "also publish clean records to Kafka (overrides KAFKA_ENABLED)")
	return cmd
}
