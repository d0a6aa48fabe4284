// Command airq cleans raw air-quality observations, trains the AQI and
// health-impact models, and serves predictions.
//
// Usage:
//
//	airq clean   --in data/raw.csv --out data/clean.csv
//	airq train   --in data/clean.csv --model-dir models
//	airq predict --city Dhaka --temp-max 31 --humidity-max 70 ...
//	airq serve
//	airq summary [--city Dhaka]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand(observability.NewMetrics()).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app carries the process-wide dependencies shared by every subcommand.
type app struct {
	cfg     *config.Config
	cities  config.CityConfig
	logger  *slog.Logger
	metrics *observability.Metrics
	fs      afero.Fs
}

func newRootCommand(metrics *observability.Metrics) *cobra.Command {
	a := &app{fs: afero.NewOsFs(), metrics: metrics}
	var envFile, cityConfig, modelDir string

	cmd := &cobra.Command{
		Use:           "airq",
		Short:         "Air quality ETL, model training and prediction",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			if err := config.LoadDotEnv(files...); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cityConfig != "" {
				cfg.CityConfigPath = cityConfig
			}
			if modelDir != "" {
				cfg.ModelDir = modelDir
			}
			a.cfg = cfg
			a.logger = observability.NewLogger(cfg)

			if a.cities, err = config.LoadCityConfig(a.fs, cfg.CityConfigPath); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default ./.env when present)")
	cmd.PersistentFlags().StringVar(&cityConfig, "city-config", "", "YAML file with scale_factors and dampening (overrides CITY_CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&modelDir, "model-dir", "", "model artifact directory (overrides MODEL_DIR)")

	cmd.AddCommand(newCleanCommand(a))
	cmd.AddCommand(newTrainCommand(a))
	cmd.AddCommand(newPredictCommand(a))
	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newSummaryCommand(a))
	return cmd
}
