package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"workbench/internal/config"
	"workbench/internal/frame"
	"workbench/internal/logger"
)

// main is the entrypoint of the local analysis CLI.
func main() {
	cfg := config.Load()
	log := logger.NewWithWriter(os.Stderr, cfg.Env)
	slog.SetDefault(log)

	if err := run(os.Stdout, log, cfg, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run builds the command tree and executes it with args.
func run(out io.Writer, log *slog.Logger, cfg *config.AppConfig, args []string) error {
	root := newRootCmd(out, log, cfg)
	root.SetArgs(args)
	return root.Execute()
}

func newRootCmd(out io.Writer, log *slog.Logger, cfg *config.AppConfig) *cobra.Command {
	root := &cobra.Command{
		Use:           "workbench",
		Short:         "Correlation, covariate and missing-data analyses on CSV tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(
		newCorrelateCmd(log, cfg.Analysis.RoundDigits),
		newCovariatesCmd(log),
		newMissingCmd(log),
	)
	return root
}

// readFrame parses a CSV table named after its file.
func readFrame(path string) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fr, err := frame.ParseCSV(f, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return fr, nil
}

func extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
