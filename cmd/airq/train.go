package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/modelstore"
	"github.com/couchcryptid/air-quality-etl/internal/training"
)

func newTrainCommand(a *app) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the AQI and health-impact models on the clean dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in == "" {
				in = a.cfg.CleanDataPath
			}
			ds, skipped, err := csvfile.NewReader(a.fs, a.logger).ReadClean(cmd.Context(), in)
			if err != nil {
				return err
			}

			store := modelstore.New(a.fs, a.cfg.ModelDir)
			trainer := training.NewTrainer(store, training.Options{
				Seed:         a.cfg.TrainSeed,
				TestFraction: a.cfg.TrainTestFraction,
				NewRegressor: training.ForestFactory(a.cfg.ForestConfig()),
			}, a.logger, a.metrics)

			res, err := trainer.Train(cmd.Context(), ds.Table())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trained on %d rows (%d train / %d test, %d excluded, %d unreadable)\n",
				res.Rows, res.TrainRows, res.TestRows, res.Excluded, skipped)
			for _, art := range res.Artifacts {
				fmt.Fprintf(out, "%-13s R2=%.4f RMSE=%.4f -> %s\n",
					art.Name, art.Evaluation.R2, art.Evaluation.RMSE, store.Path(art.Name))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "clean CSV path (default CLEAN_DATA_PATH)")
	return cmd
}
