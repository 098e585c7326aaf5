package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"workbench/internal/analysis"
	"workbench/internal/export"
)

func newCorrelateCmd(log *slog.Logger, defaultDigits int) *cobra.Command {
	var (
		featuresPath string
		clinicalPath string
		settingsPath string
		outPath      string
		digits       int
	)

	cmd := &cobra.Command{
		Use:   "correlate",
		Short: "Correlate feature columns with clinical scales and write an XLSX report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ext := extension(outPath); ext != "xlsx" {
				return fmt.Errorf("--out must be an .xlsx file, got %q", outPath)
			}

			src, err := os.ReadFile(settingsPath)
			if err != nil {
				return err
			}
			settings, err := analysis.ParseSettings(src, settingsPath)
			if err != nil {
				return err
			}
			features, err := readFrame(featuresPath)
			if err != nil {
				return err
			}
			clinical, err := readFrame(clinicalPath)
			if err != nil {
				return err
			}

			tables, err := analysis.AssessCorrelation(features, clinical, settings, analysis.CorrelationOptions{Digits: digits})
			if err != nil {
				return err
			}
			if err := export.SaveWorkbook(outPath, export.CorrelationSheets(tables)...); err != nil {
				return err
			}

			log.Info("correlation_written", "out", outPath, "scales", len(tables), "features", features.Width())
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d scale(s) to %s\n", len(tables), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&featuresPath, "features", "", "CSV of feature columns, first column is the row index")
	cmd.Flags().StringVar(&clinicalPath, "clinical", "", "CSV of clinical scales, first column is the row index")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "scale settings (.hcl or .json)")
	cmd.Flags().StringVar(&outPath, "out", "", "XLSX report path")
	cmd.Flags().IntVar(&digits, "digits", defaultDigits, "decimal places of coefficients and p-values")
	for _, name := range []string{"features", "clinical", "settings", "out"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
