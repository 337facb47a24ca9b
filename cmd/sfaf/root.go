package main

import (
	"log/slog"

	"github.com/couchcryptid/sfaf-etl/internal/config"
	"github.com/couchcryptid/sfaf-etl/internal/observability"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once flags and config are resolved.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

type outputFlags struct {
	csvOutput   string
	jsonOutput  string
	xlsxOutput  string
	csvHeader   bool
	correlation string
}

func newRootCmd(metrics *observability.Metrics) *cobra.Command {
	a := &app{metrics: metrics}
	var verbose bool

	root := &cobra.Command{
		Use:   "sfaf",
		Short: "Convert SFAF one-column frequency assignment records",
		Long: `sfaf reads an SFAF one-column export (plain, .gz or .zst), assembles each
record into a normalized frequency assignment and writes the accepted records
to JSON and CSV, optionally to an XLSX workbook and a Kafka topic.

Settings come from the environment (see SFAF_CONFIG_FILE for a YAML overlay);
flags override both.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if verbose {
				cfg.LogLevel = "debug"
			}
			a.cfg = cfg
			a.logger = observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			slog.SetDefault(a.logger)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(newConvertCmd(a), newServeCmd(a))
	return root
}

func addOutputFlags(cmd *cobra.Command, f *outputFlags) {
	cmd.Flags().StringVarP(&f.csvOutput, "output", "o", "recordsspreadsheet.csv", "CSV output path")
	cmd.Flags().StringVarP(&f.jsonOutput, "json-output", "j", "records.json", "JSON output path")
	cmd.Flags().StringVar(&f.xlsxOutput, "xlsx", "", "XLSX workbook output path (disabled when empty)")
	cmd.Flags().BoolVar(&f.csvHeader, "csv-header", false, "write a header row to the CSV output")
	cmd.Flags().StringVar(&f.correlation, "correlation", "positional", "station/emission grouping: positional or indexed")
}

// applyOutputFlags copies explicitly set flags over the loaded config.
func (a *app) applyOutputFlags(cmd *cobra.Command, f *outputFlags) error {
	flags := cmd.Flags()
	if flags.Changed("output") {
		a.cfg.CSVOutput = f.csvOutput
	}
	if flags.Changed("json-output") {
		a.cfg.JSONOutput = f.jsonOutput
	}
	if flags.Changed("xlsx") {
		a.cfg.XLSXOutput = f.xlsxOutput
	}
	if flags.Changed("csv-header") {
		a.cfg.CSVHeader = f.csvHeader
	}
	if flags.Changed("correlation") {
		a.cfg.Correlation = f.correlation
	}
	return a.cfg.Validate()
}
