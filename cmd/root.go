package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/woescope-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/woescope-cli/internal/config"
	"github.com/KaramelBytes/woescope-cli/internal/explorer"
	"github.com/KaramelBytes/woescope-cli/internal/loader"
	"github.com/KaramelBytes/woescope-cli/internal/logger"
	"github.com/KaramelBytes/woescope-cli/internal/utils"
)

var (
	// Global flags (override config if set)
	cfgFile        string
	debug          bool
	flagLogLevel   string
	flagLogFormat  string
	flagTargetYear int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "woescope",
	Short: "woescope: return rates and Weight of Evidence for tabular data",
	Long: `woescope loads CSV, XLSX or Parquet datasets, filters them to one year and
reports the return rate and the Weight of Evidence of a variable against a binary target.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.woescope/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagTargetYear, "target-year", 0, "year kept by the year filter (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") && flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	if f.Changed("target-year") && flagTargetYear > 0 {
		cfg.TargetYear = flagTargetYear
	}
}

// settings returns the loaded config, or the defaults when none was loaded.
func settings() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Default()
	}
	return cfg
}

func newLogger() *logrus.Logger {
	c := settings()
	return logger.NewLogger(c.LogLevel, c.LogFormat)
}

// newExplorer builds an Explorer from the effective configuration.
func newExplorer(log *logrus.Logger) *explorer.Explorer {
	c := settings()
	opt := explorer.DefaultOptions()
	opt.TargetYear = c.TargetYear
	opt.PreviewRows = c.PreviewRows
	opt.Sample = analysis.SampleOptions{Size: c.SampleSize, Seed: c.SampleSeed}
	opt.Load = loader.Options{Delimiter: c.DelimiterRune(), SheetName: c.SheetName}
	opt.CacheTTL = c.CacheTTL()
	return explorer.New(opt, log)
}

// yearColumn returns the --year-col flag when set, else the configured column.
func yearColumn(cmd *cobra.Command, flagVal string) string {
	if cmd.Flags().Changed("year-col") {
		return flagVal
	}
	return settings().YearColumn
}

func printNotices(w io.Writer, notices []explorer.Notice) {
	for _, n := range notices {
		switch n.Severity {
		case analysis.SeverityOK:
			fmt.Fprintf(w, "✓ %s\n", n.Message)
		case analysis.SeverityInfo:
			fmt.Fprintf(w, "ℹ %s\n", n.Message)
		case analysis.SeverityWarning:
			fmt.Fprintf(w, "⚠ %s\n", n.Message)
		default:
			fmt.Fprintf(w, "✗ %s\n", n.Message)
		}
	}
}

func printJSON(w io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
