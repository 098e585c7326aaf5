package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"workbench/internal/analysis"
	"workbench/internal/export"
	"workbench/internal/frame"
	"workbench/internal/fsutil"
)

func newCovariatesCmd(log *slog.Logger) *cobra.Command {
	var (
		featuresPath   string
		covariatesPath string
		outPath        string
		modelsPath     string
	)

	cmd := &cobra.Command{
		Use:   "covariates",
		Short: "Regress covariates out of feature columns and write the residuals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ext := extension(outPath)
			if ext != "csv" && ext != "xlsx" {
				return fmt.Errorf("--out must be a .csv or .xlsx file, got %q", outPath)
			}

			features, err := readFrame(featuresPath)
			if err != nil {
				return err
			}
			covariates, err := readFrame(covariatesPath)
			if err != nil {
				return err
			}

			var ctl analysis.CovariateController
			residuals, err := ctl.FitTransform(features, covariates)
			if err != nil {
				return err
			}

			if ext == "xlsx" {
				err = export.SaveWorkbook(outPath, export.FrameSheet(residuals, "residuals"))
			} else {
				err = writeCSV(outPath, residuals)
			}
			if err != nil {
				return err
			}

			if modelsPath != "" {
				data, err := json.MarshalIndent(ctl.Models(features.Columns), "", "  ")
				if err != nil {
					return err
				}
				if err := fsutil.WriteFile(modelsPath, data); err != nil {
					return err
				}
			}

			log.Info("residuals_written", "out", outPath, "features", residuals.Width(), "covariates", covariates.Width())
			fmt.Fprintf(cmd.OutOrStdout(), "wrote residuals of %d feature(s) to %s\n", residuals.Width(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&featuresPath, "features", "", "CSV of feature columns, first column is the row index")
	cmd.Flags().StringVar(&covariatesPath, "covariates", "", "CSV of covariates, first column is the row index")
	cmd.Flags().StringVar(&outPath, "out", "", "residuals path (.csv or .xlsx)")
	cmd.Flags().StringVar(&modelsPath, "models", "", "optional JSON path for the fitted models")
	for _, name := range []string{"features", "covariates", "out"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func writeCSV(path string, f *frame.Frame) error {
	if err := fsutil.EnsureDir(path); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.WriteCSV(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
