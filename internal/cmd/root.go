package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/AndresProano/CleaningDataIt/internal/aggregator"
	"github.com/AndresProano/CleaningDataIt/internal/config"
	"github.com/AndresProano/CleaningDataIt/internal/enrich"
	"github.com/AndresProano/CleaningDataIt/internal/extract"
	"github.com/AndresProano/CleaningDataIt/internal/output"
)

var cfgFile string

// rootCmd extracts the default export when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "cleaningdata",
	Short: "CleaningData: recover records from a malformed CSV export",
	Long: `CleaningData reads a request-tracking export whose quoting and line breaks
are unreliable, recovers one record per request, and writes a clean CSV with
derived date, classification and detail columns ready for Power BI.

Without arguments it reads datos.csv and writes datos_completos_power_bi.csv
in the working directory.

Examples:
  cleaningdata
  cleaningdata -i "exports/**/*.csv" -o todo.csv --workbook todo.xlsx
  cleaningdata --encoding windows-1252 --format text`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runExtract,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	d := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.cleaningdata.yaml)")
	flags.StringSliceP("input", "i", d.Input, "input export paths or glob patterns")
	flags.StringP("output", "o", d.Output, "CSV output path")
	flags.String("workbook", d.Workbook, "also write an .xlsx workbook to this path")
	flags.String("sqlite", d.SQLite, "also store rows in this SQLite database")
	flags.String("encoding", d.Encoding, "input encoding: utf-8, windows-1252, iso-8859-1, iso-8859-15")
	flags.Int("chunk-size", d.ChunkSize, "read buffer size in bytes")
	flags.String("format", d.Format, "stdout preview: none, text, json")
	flags.Bool("no-header", d.NoHeader, "input has no header line")
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"input":      "input",
	"output":     "output",
	"workbook":   "workbook",
	"sqlite":     "sqlite",
	"encoding":   "encoding",
	"chunk-size": "chunk_size",
	"format":     "format",
	"no-header":  "no_header",
	"serve":      "serve",
	"port":       "port",
	"checkpoint": "checkpoint",
}

// loadConfig resolves flags, environment and config file for cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return config.Config{}, err
	}
	return config.Load(v)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(banner string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, banner)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func runExtract(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.TokenizerOptions()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext("\nCleaningData interrupted, closing outputs...")
	defer cancel()

	sink, err := openSinks(cfg, false)
	if err != nil {
		return err
	}

	agg := aggregator.New(nil, aggregator.Sources{})
	runner := &extract.Runner{
		Options:  opts,
		Enricher: enrich.Default(),
		Sink:     sink,
		Observer: agg,
	}

	fmt.Fprintf(os.Stderr, "%s extracting records...\n", styleTitle.Render("CleaningData"))
	summaries, runErr := runner.Run(ctx, cfg.Input)
	closeErr := sink.Close()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("close outputs: %w", closeErr)
	}

	printFiles(os.Stderr, summaries)
	printSummary(os.Stderr, agg.Snapshot(), outputPaths(cfg))
	return nil
}

// openSinks opens the configured outputs. On failure every sink opened so
// far is closed.
func openSinks(cfg config.Config, appendCSV bool) (output.Multi, error) {
	var sinks output.Multi
	fail := func(err error) (output.Multi, error) {
		_ = sinks.Close()
		return nil, err
	}

	csvSink, err := output.NewCSVSink(cfg.Output, appendCSV)
	if err != nil {
		return fail(err)
	}
	sinks = append(sinks, csvSink)

	if cfg.Workbook != "" {
		x, err := output.NewXLSXSink(cfg.Workbook)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, x)
	}

	if cfg.SQLite != "" {
		db, err := output.NewSQLiteSink(cfg.SQLite)
		if err != nil {
			return fail(err)
		}
		fmt.Fprintf(os.Stderr, "   SQLite run %s\n", db.RunID())
		sinks = append(sinks, db)
	}

	switch cfg.Format {
	case config.FormatText:
		sinks = append(sinks, output.NewTextRenderer())
	case config.FormatJSON:
		sinks = append(sinks, output.NewJSONRenderer())
	}
	return sinks, nil
}

func outputPaths(cfg config.Config) []string {
	out := []string{cfg.Output}
	for _, p := range []string{cfg.Workbook, cfg.SQLite} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
