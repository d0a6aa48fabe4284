package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/report"
)

func newSummaryCommand(a *app) *cobra.Command {
	var in, city string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print per-city means, or one city's history with --city",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in == "" {
				in = a.cfg.CleanDataPath
			}
			ds, _, err := csvfile.NewReader(a.fs, a.logger).ReadClean(cmd.Context(), in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if city != "" {
				history := report.History(ds.Records, city)
				if len(history) == 0 {
					return fmt.Errorf("no records for city %q", city)
				}
				if asJSON {
					return writeIndentedJSON(out, history)
				}
				return csvfile.Encode(out, domain.CleanDataset{Fields: ds.Fields, Records: history})
			}

			summaries := report.Summarize(ds.Records)
			if asJSON {
				return writeIndentedJSON(out, summaries)
			}
			return writeSummaryTable(out, summaries)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "clean CSV path (default CLEAN_DATA_PATH)")
	cmd.Flags().StringVar(&city, "city", "", "print the time-ordered history of one city")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func writeSummaryTable(out io.Writer, summaries []report.CitySummary) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tDAYS\tFROM\tTO\tPM25\tTEMP_MAX\tHUMIDITY_MAX\tAQI")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.City, s.Days, s.From.Format(domain.DateLayout), s.To.Format(domain.DateLayout),
			cellf(s.PM25), cellf(s.TempMax), cellf(s.HumidityMax), cellf(s.AQI))
	}
	return tw.Flush()
}

func cellf(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func writeIndentedJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
