package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/woescope-cli/internal/chart"
	"github.com/KaramelBytes/woescope-cli/internal/explorer"
	"github.com/KaramelBytes/woescope-cli/internal/render"
	"github.com/KaramelBytes/woescope-cli/internal/utils"
)

var (
	probYearCol string
	probTarget  string
	probVar     string
	probChart   string
	probJSON    bool
)

var probabilityCmd = &cobra.Command{
	Use:   "probability <file>",
	Short: "Show the sampled return rate per category of a variable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ex := newExplorer(newLogger())
		ds, err := ex.OpenFile(args[0])
		if err != nil {
			return err
		}
		res := ex.Probability(ds, explorer.Selection{
			YearColumn: yearColumn(cmd, probYearCol),
			Target:     probTarget,
			Variable:   probVar,
		})

		out := cmd.OutOrStdout()
		if probJSON {
			if err := printJSON(out, res); err != nil {
				return err
			}
		} else {
			printNotices(out, res.Notices)
		}
		if res.Table == nil {
			return errors.New("return rate not computed")
		}
		if !probJSON {
			render.Probability(out, res.Table)
		}

		if probChart != "" {
			img, err := chart.PNG(res.Table)
			if err != nil {
				return err
			}
			path, err := utils.ExpandHome(probChart)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(path, img); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote chart to %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probabilityCmd)
	probabilityCmd.Flags().StringVar(&probYearCol, "year-col", "", "column to filter on the target year (empty = all years)")
	probabilityCmd.Flags().StringVar(&probTarget, "target", "", "binary outcome column")
	probabilityCmd.Flags().StringVar(&probVar, "var", "", "variable to group by")
	probabilityCmd.Flags().StringVar(&probChart, "chart", "", "optional path to write a PNG bar chart")
	probabilityCmd.Flags().BoolVar(&probJSON, "json", false, "print the result as JSON")
}
