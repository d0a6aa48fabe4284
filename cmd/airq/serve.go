package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/air-quality-etl/internal/adapter/http"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/modelstore"
	"github.com/couchcryptid/air-quality-etl/internal/inference"
)

func newServeCommand(a *app) *cobra.Command {
	var addr, data string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions, model info and city history over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := a.logger
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
			if data == "" {
				data = a.cfg.CleanDataPath
			}

			var opts []httpadapter.Option
			store := modelstore.New(a.fs, a.cfg.ModelDir)
			predictor, err := inference.Load(ctx, store, a.cities.Dampening, logger, a.metrics)
			if err != nil {
				logger.Warn("models not loaded, prediction disabled", "dir", a.cfg.ModelDir, "error", err)
			} else {
				opts = append(opts, httpadapter.WithPredictor(predictor))
			}

			ds, _, err := csvfile.NewReader(a.fs, logger).ReadClean(ctx, data)
			if err != nil {
				logger.Warn("clean dataset not loaded, city history disabled", "path", data, "error", err)
			} else {
				opts = append(opts, httpadapter.WithRecords(ds.Records))
				logger.Info("clean dataset loaded", "records", len(ds.Records))
			}

			srv := httpadapter.NewServer(addr, predictor, logger, opts...)

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					return err
				}
			}
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default HTTP_ADDR)")
	cmd.Flags().StringVar(&data, "data", "", "clean CSV served by the city routes (default CLEAN_DATA_PATH)")
	return cmd
}
