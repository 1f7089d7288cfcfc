package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/woescope-cli/internal/explorer"
	"github.com/KaramelBytes/woescope-cli/internal/export"
	"github.com/KaramelBytes/woescope-cli/internal/render"
	"github.com/KaramelBytes/woescope-cli/internal/utils"
)

var (
	woeYearCol string
	woeTarget  string
	woeVar     string
	woeOutput  string
	woeFormat  string
	woeDataURI bool
	woeJSON    bool
)

var woeCmd = &cobra.Command{
	Use:   "woe <file>",
	Short: "Compute the Weight of Evidence of a variable against a binary target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(woeFormat)
		if err != nil {
			return err
		}
		if woeOutput != "" && !cmd.Flags().Changed("format") {
			if f, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(woeOutput), ".")); err == nil {
				format = f
			}
		}

		ex := newExplorer(newLogger())
		ds, err := ex.OpenFile(args[0])
		if err != nil {
			return err
		}
		res := ex.WOE(ds, explorer.Selection{
			YearColumn: yearColumn(cmd, woeYearCol),
			Target:     woeTarget,
			Variable:   woeVar,
		})

		out := cmd.OutOrStdout()
		if woeJSON {
			if err := printJSON(out, res); err != nil {
				return err
			}
		} else {
			printNotices(out, res.Notices)
		}
		if res.Table == nil {
			return errors.New("WOE not computed")
		}
		if !woeJSON {
			render.WOE(out, res.Table)
		}
		if woeDataURI && res.CSV != nil {
			fmt.Fprintln(out, export.DataURI(res.CSV))
		}

		if woeOutput != "" {
			path, err := utils.ExpandHome(woeOutput)
			if err != nil {
				return err
			}
			if err := export.Save(path, format, res.Table); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(woeCmd)
	woeCmd.Flags().StringVar(&woeYearCol, "year-col", "", "column to filter on the target year (empty = all years)")
	woeCmd.Flags().StringVar(&woeTarget, "target", "", "binary target column (1 = event, 0 = non-event)")
	woeCmd.Flags().StringVar(&woeVar, "var", "", "variable to bin")
	woeCmd.Flags().StringVarP(&woeOutput, "output", "o", "", "write the WOE table to a file (e.g. "+export.FileName+")")
	woeCmd.Flags().StringVar(&woeFormat, "format", "csv", "export format: csv|xlsx|parquet")
	woeCmd.Flags().BoolVar(&woeDataURI, "data-uri", false, "print the CSV export as a data: URI")
	woeCmd.Flags().BoolVar(&woeJSON, "json", false, "print the result as JSON")
}
