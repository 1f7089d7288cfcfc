package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/woescope-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set woescope configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "target_year: %d\n", c.TargetYear)
		if c.YearColumn != "" {
			fmt.Fprintf(out, "year_column: %s\n", c.YearColumn)
		}
		fmt.Fprintf(out, "sample_size: %d\n", c.SampleSize)
		fmt.Fprintf(out, "sample_seed: %d\n", c.SampleSeed)
		fmt.Fprintf(out, "preview_rows: %d\n", c.PreviewRows)
		fmt.Fprintf(out, "delimiter: %s\n", c.Delimiter)
		if c.SheetName != "" {
			fmt.Fprintf(out, "sheet_name: %s\n", c.SheetName)
		}
		fmt.Fprintf(out, "cache_ttl_minutes: %d\n", c.CacheTTLMinutes)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		fmt.Fprintf(out, "server_addr: %s\n", c.ServerAddr)
		fmt.Fprintf(out, "max_upload_mb: %d\n", c.MaxUploadMB)
		fmt.Fprintf(out, "upload_rate_per_minute: %d\n", c.UploadRatePerMinute)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		atoi := func() (int, error) {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("invalid int for %s: %v", key, val)
			}
			return i, nil
		}
		switch key {
		case "target_year":
			i, err := atoi()
			if err != nil {
				return err
			}
			cfg.TargetYear = i
		case "year_column":
			cfg.YearColumn = val
		case "sample_size":
			i, err := atoi()
			if err != nil {
				return err
			}
			cfg.SampleSize = i
		case "sample_seed":
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int for sample_seed: %v", val)
			}
			cfg.SampleSeed = i
		case "preview_rows":
			i, err := atoi()
			if err != nil {
				return err
			}
			cfg.PreviewRows = i
		case "delimiter":
			cfg.Delimiter = val
		case "sheet_name":
			cfg.SheetName = val
		case "cache_ttl_minutes":
			i, err := atoi()
			if err != nil {
				return err
			}
			cfg.CacheTTLMinutes = i
		case "log_level":
			cfg.LogLevel = val
		case "log_format":
			cfg.LogFormat = val
		case "server_addr":
			cfg.ServerAddr = val
		case "max_upload_mb":
			i, err := atoi()
			if err != nil {
				return err
			}
			cfg.MaxUploadMB = i
		case "upload_rate_per_minute":
			i, err := atoi()
			if err != nil {
				return err
			}
			cfg.UploadRatePerMinute = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
