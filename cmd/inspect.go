package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/woescope-cli/internal/analysis"
	"github.com/KaramelBytes/woescope-cli/internal/render"
)

var (
	insYearCol   string
	insRows      int
	insJSON      bool
	insCorr      bool
	insOutliers  bool
	insOutlierTh float64
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Load a dataset and preview its first rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ex := newExplorer(newLogger())
		ds, err := ex.OpenFile(args[0])
		if err != nil {
			return err
		}
		opt := analysis.DefaultProfileOptions()
		opt.Correlations = insCorr
		opt.Outliers = insOutliers
		if insOutlierTh > 0 {
			opt.OutlierThreshold = insOutlierTh
		}
		p := ex.PreviewWith(ds, yearColumn(cmd, insYearCol), insRows, opt)

		out := cmd.OutOrStdout()
		if insJSON {
			return printJSON(out, p)
		}
		fmt.Fprintf(out, "✓ Loaded %s: %d rows, %d columns\n", ds.Name, ds.Rows(), len(ds.Names()))
		printNotices(out, p.Notices)
		render.Preview(out, p.Head, p.Head.Rows())
		fmt.Fprintln(out)
		fmt.Fprint(out, p.Profile.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&insYearCol, "year-col", "", "column to filter on the target year (empty = all years)")
	inspectCmd.Flags().IntVar(&insRows, "rows", 0, "number of rows to preview (default from config)")
	inspectCmd.Flags().BoolVar(&insJSON, "json", false, "print the preview as JSON")
	inspectCmd.Flags().BoolVar(&insCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	inspectCmd.Flags().BoolVar(&insOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	inspectCmd.Flags().Float64Var(&insOutlierTh, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
}
