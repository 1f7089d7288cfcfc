package analysis

import (
	"fmt"

	"github.com/KaramelBytes/woescope-cli/internal/frame"
)

// DefaultTargetYear is the year kept by FilterYear unless configured otherwise.
const DefaultTargetYear = 2020

// FilterResult is the outcome of FilterYear. Frame is never nil: on any
// problem it is the unfiltered dataset.
type FilterResult struct {
	Frame    *frame.Frame
	Column   string
	Year     int
	Applied  bool
	Severity Severity
	Message  string
	Err      error
}

// Rows is the row count of the resulting frame.
func (r FilterResult) Rows() int { return r.Frame.Rows() }

// FilterYear keeps the rows of ds whose column equals year. An empty column
// name means no year column was selected and ds is returned as is.
func FilterYear(ds *frame.Frame, column string, year int) FilterResult {
	res := FilterResult{Frame: ds, Column: column, Year: year}
	if column == "" {
		res.Severity = SeverityInfo
		res.Message = "analysis uses all years because no year column was selected"
		return res
	}
	col, err := ds.Column(column)
	if err != nil {
		return res.fallback(err)
	}
	if !col.Kind.Numeric() {
		return res.fallback(fmt.Errorf("%w: %q is %s", ErrNotNumeric, column, col.Kind))
	}

	target := float64(year)
	keep := make([]int, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if v, ok := col.Numeric(i); ok && v == target {
			keep = append(keep, i)
		}
	}
	res.Frame = ds.Take(keep)
	res.Applied = true
	res.Severity = SeverityOK
	res.Message = fmt.Sprintf("filtered to %d rows where %s == %d", len(keep), column, year)
	return res
}

func (r FilterResult) fallback(err error) FilterResult {
	r.Err = &FilterError{Column: r.Column, Year: r.Year, Err: err}
	r.Severity = SeverityWarning
	r.Message = fmt.Sprintf("year filter not applied, using all %d rows: %v", r.Frame.Rows(), err)
	return r
}
