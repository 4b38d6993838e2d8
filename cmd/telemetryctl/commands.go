package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/telemetry-viewer/backend/internal/export"
	"github.com/telemetry-viewer/backend/internal/loader"
	"github.com/telemetry-viewer/backend/internal/models"
	"github.com/telemetry-viewer/backend/internal/parser"
	"github.com/telemetry-viewer/backend/internal/plot"
	"github.com/vmihailenco/msgpack/v5"
)

type globalOptions struct {
	pattern     string
	timeColumn  string
	logLevel    string
	pairByIndex bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "telemetryctl",
		Short: "Work with directories of delimited telemetry files",
		Long: `telemetryctl loads every matching telemetry file in a directory and
lists its columns, prints plot series, renders a PNG chart or writes an
XLSX workbook for one value column.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
				return fmt.Errorf("invalid log level: %s", opts.logLevel)
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.pattern, "pattern", loader.DefaultPattern, "Glob for telemetry file names")
	flags.StringVar(&opts.timeColumn, "time-column", loader.DefaultTimeColumn, "Name of the time column (case-insensitive)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flags.BoolVar(&opts.pairByIndex, "pair-by-index", false, "Pair time and value columns by position after filtering each")

	rootCmd.AddCommand(
		newColumnsCmd(opts),
		newSeriesCmd(opts),
		newPlotCmd(opts),
		newExportCmd(opts),
	)

	return rootCmd
}

func (o *globalOptions) newLoader() (*loader.Loader, error) {
	pairing := loader.PairByRow
	if o.pairByIndex {
		pairing = loader.PairByIndex
	}
	return loader.New(loader.Options{
		Pattern:    o.pattern,
		TimeColumn: o.timeColumn,
		Pairing:    pairing,
	})
}

// loadDirectory loads dir and reports skipped files on stderr.
func (o *globalOptions) loadDirectory(cmd *cobra.Command, dir string) (*loader.Loader, *models.FileCollection, error) {
	l, err := o.newLoader()
	if err != nil {
		return nil, nil, err
	}

	collection, err := l.LoadDirectory(dir)
	if err != nil {
		return nil, nil, err
	}

	for _, d := range collection.Diagnostics {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", d.Path, d.Reason)
	}
	return l, collection, nil
}

// buildSeries loads dir and builds the series for column. An empty result
// is an error.
func (o *globalOptions) buildSeries(cmd *cobra.Command, dir, column string) ([]models.Series, error) {
	l, collection, err := o.loadDirectory(cmd, dir)
	if err != nil {
		return nil, err
	}
	if len(collection.Tables) == 0 {
		return nil, fmt.Errorf("no telemetry files matching %q in %s", o.pattern, dir)
	}

	series, err := l.BuildSeries(collection, column)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no data to plot for column %q, check the contents of the selected files", column)
	}
	return series, nil
}

func newColumnsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "columns <dir>",
		Short: "List the plottable columns of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, collection, err := opts.loadDirectory(cmd, args[0])
			if err != nil {
				return err
			}
			if collection.NoColumns() {
				fmt.Fprintln(cmd.ErrOrStderr(), "no columns found to display")
				return nil
			}
			for _, col := range collection.Columns {
				fmt.Fprintln(cmd.OutOrStdout(), col)
			}
			return nil
		},
	}
}

func newSeriesCmd(opts *globalOptions) *cobra.Command {
	var column, format string

	cmd := &cobra.Command{
		Use:   "series <dir>",
		Short: "Print the plot series for one column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "msgpack" {
				return fmt.Errorf("invalid format: %s (must be json or msgpack)", format)
			}

			series, err := opts.buildSeries(cmd, args[0], column)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "msgpack" {
				return msgpack.NewEncoder(out).Encode(series)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(series)
		},
	}

	cmd.Flags().StringVarP(&column, "column", "c", "", "Column to plot on the Y axis")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or msgpack")
	cmd.MarkFlagRequired("column")

	return cmd
}

func newPlotCmd(opts *globalOptions) *cobra.Command {
	var column, outputPath, stylePath string

	cmd := &cobra.Command{
		Use:   "plot <dir>",
		Short: "Render the chart for one column as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			style := parser.DefaultPlotStyle()
			if stylePath != "" {
				s, err := parser.ParsePlotStyle(stylePath)
				if err != nil {
					return err
				}
				style = s
			}

			series, err := opts.buildSeries(cmd, args[0], column)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := plot.Render(&buf, series, column, style); err != nil {
				return err
			}
			return writeOutput(cmd, outputPath, buf.Bytes())
		},
	}

	cmd.Flags().StringVarP(&column, "column", "c", "", "Column to plot on the Y axis")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&stylePath, "style", "", "YAML plot style file")
	cmd.MarkFlagRequired("column")

	return cmd
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var column, outputPath string

	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write the series for one column to an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := opts.buildSeries(cmd, args[0], column)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := export.WriteXLSX(&buf, series, column); err != nil {
				return err
			}
			return writeOutput(cmd, outputPath, buf.Bytes())
		},
	}

	cmd.Flags().StringVarP(&column, "column", "c", "", "Column to export")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.MarkFlagRequired("column")

	return cmd
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := io.Copy(cmd.OutOrStdout(), bytes.NewReader(data))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
