package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"workbench/internal/analysis"
	"workbench/internal/fsutil"
)

func newMissingCmd(log *slog.Logger) *cobra.Command {
	var (
		dataPath   string
		outPath    string
		reportPath string
		figure     analysis.FigureSettings
	)
	defaults := analysis.DefaultFigureSettings()

	cmd := &cobra.Command{
		Use:   "missing",
		Short: "Summarize missing values and draw them as a heatmap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := analysis.NormalizeFormat(extension(outPath))
			if err != nil {
				return err
			}

			data, err := readFrame(dataPath)
			if err != nil {
				return err
			}

			report := analysis.ExploreMissing(data)
			img, err := analysis.RenderMissing(data, figure, format)
			if err != nil {
				return err
			}
			if err := fsutil.WriteFile(outPath, img); err != nil {
				return err
			}

			if reportPath != "" {
				report.Mask = nil
				raw, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				if err := fsutil.WriteFile(reportPath, raw); err != nil {
					return err
				}
			}

			log.Info("missing_figure_written", "out", outPath, "format", format, "missing_cells", report.MissingCells)
			if !report.HasMissing() {
				fmt.Fprintf(cmd.OutOrStdout(), "no missing cells in %d, figure written to %s\n", report.TotalCells, outPath)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d cells missing (%.2f%%), figure written to %s\n",
				report.MissingCells, report.TotalCells, report.MissingRatio*100, outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "CSV table, first column is the row index")
	cmd.Flags().StringVar(&outPath, "out", "", "figure path (.pdf, .png or .svg)")
	cmd.Flags().StringVar(&reportPath, "report", "", "optional JSON path for the missing-value summary")
	cmd.Flags().Float64Var(&figure.Width, "width", defaults.Width, "figure width in inches")
	cmd.Flags().Float64Var(&figure.Height, "height", defaults.Height, "figure height in inches")
	cmd.Flags().StringVar(&figure.Colormap, "cmap", defaults.Colormap, "colormap (Greys, Blues, Reds)")
	cmd.Flags().Float64Var(&figure.LineWidth, "line-width", defaults.LineWidth, "grid line width in points")
	cmd.Flags().StringVar(&figure.LineColor, "line-color", defaults.LineColor, "grid line color as #rrggbb")
	cmd.Flags().StringVar(&figure.Title, "title", defaults.Title, "figure title")
	for _, name := range []string{"data", "out"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
