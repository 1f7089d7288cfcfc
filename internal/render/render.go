// Package render prints frames and analysis tables as text tables.
package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/KaramelBytes/woescope-cli/internal/analysis"
	"github.com/KaramelBytes/woescope-cli/internal/frame"
)

// Undefined is printed in place of a missing rate or WOE.
const Undefined = "-"

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func num(v *float64, prec int) string {
	if v == nil {
		return Undefined
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

// Preview prints the first n rows of f.
func Preview(w io.Writer, f *frame.Frame, n int) {
	table := newTable(w, f.Names())
	head := f.Head(n)
	for i := 0; i < head.Rows(); i++ {
		table.Append(head.Row(i))
	}
	table.Render()
}

// Probability prints the return rate per category.
func Probability(w io.Writer, t *analysis.ProbabilityTable) {
	table := newTable(w, []string{t.Variable, "mean " + t.Outcome, "rows"})
	for _, r := range t.Rows {
		table.Append([]string{r.Category, num(r.Rate, 4), strconv.Itoa(r.Count)})
	}
	table.SetFooter([]string{"", "sample", strconv.Itoa(t.SampleSize)})
	table.Render()
}

// WOE prints the WOE table with its information value.
func WOE(w io.Writer, t *analysis.WOETable) {
	table := newTable(w, []string{"var", "WOE", "n", "event_rate"})
	for _, r := range t.Rows {
		rate := r.EventRate
		table.Append([]string{r.Var, num(r.WOE, 4), strconv.Itoa(r.N), num(&rate, 4)})
	}
	table.SetFooter([]string{"", "IV", fmt.Sprintf("%.4f", t.IV()), ""})
	table.Render()
}
