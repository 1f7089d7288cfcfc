// Package explorer runs the load, filter and analysis pipeline for the CLI
// and the HTTP server, turning recoverable failures into notices.
package explorer

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/woescope-cli/internal/analysis"
	"github.com/KaramelBytes/woescope-cli/internal/export"
	"github.com/KaramelBytes/woescope-cli/internal/frame"
	"github.com/KaramelBytes/woescope-cli/internal/loader"
	"github.com/KaramelBytes/woescope-cli/internal/logger"
	"github.com/KaramelBytes/woescope-cli/internal/metrics"
)

// Options configures an Explorer.
type Options struct {
	TargetYear  int
	PreviewRows int
	Sample      analysis.SampleOptions
	Load        loader.Options
	CacheTTL    time.Duration
}

// DefaultOptions returns year 2020, 5 preview rows and the default sample.
func DefaultOptions() Options {
	return Options{
		TargetYear:  analysis.DefaultTargetYear,
		PreviewRows: 5,
		Sample:      analysis.DefaultSampleOptions(),
		CacheTTL:    time.Hour,
	}
}

// Notice is a user-facing message attached to a result.
type Notice struct {
	Severity analysis.Severity `json:"severity"`
	Message  string            `json:"message"`
}

// Selection names the columns an analysis runs on. An empty YearColumn
// means the whole dataset is used.
type Selection struct {
	YearColumn string `json:"year_column,omitempty" form:"year_col"`
	Target     string `json:"target" form:"target"`
	Variable   string `json:"var" form:"var"`
}

// View is the filtered dataset that every analysis starts from.
type View struct {
	Frame      *frame.Frame `json:"-"`
	Rows       int          `json:"rows"`
	YearColumn string       `json:"year_column,omitempty"`
	Year       int          `json:"year"`
	Filtered   bool         `json:"filtered"`
	Notices    []Notice     `json:"notices"`
}

// PreviewResult is the head of a View plus a column summary.
type PreviewResult struct {
	View
	Head    *frame.Frame     `json:"-"`
	Columns []string         `json:"columns"`
	Records [][]string       `json:"records"`
	Profile *analysis.Report `json:"profile"`
}

// ProbabilityResult carries the return-rate table or the reason it is missing.
type ProbabilityResult struct {
	View
	Table  *analysis.ProbabilityTable `json:"table,omitempty"`
	Cached bool                       `json:"cached"`
}

// WOEResult carries the WOE table, its CSV export and any warnings.
type WOEResult struct {
	View
	Table  *analysis.WOETable `json:"table,omitempty"`
	IV     *float64           `json:"iv,omitempty"`
	CSV    []byte             `json:"-"`
	Cached bool               `json:"cached"`
}

// Severity is the most severe notice of the view.
func (v View) Severity() analysis.Severity {
	worst := analysis.SeverityOK
	for _, n := range v.Notices {
		if n.Severity > worst {
			worst = n.Severity
		}
	}
	return worst
}

func (v *View) notify(s analysis.Severity, format string, args ...interface{}) {
	v.Notices = append(v.Notices, Notice{Severity: s, Message: fmt.Sprintf(format, args...)})
}

// Explorer ties the loader cache and the analysis memo together.
type Explorer struct {
	opt    Options
	loader *loader.Cache
	memo   *analysis.Memo
	log    *logrus.Entry
}

// New creates an Explorer. A nil logger discards logs.
func New(opt Options, log *logrus.Logger) *Explorer {
	if log == nil {
		log = logger.Discard()
	}
	if opt.PreviewRows <= 0 {
		opt.PreviewRows = 5
	}
	return &Explorer{
		opt:    opt,
		loader: loader.NewCache(opt.CacheTTL),
		memo:   analysis.NewMemo(opt.CacheTTL),
		log:    log.WithField("component", "explorer"),
	}
}

// Options returns the options the explorer was built with.
func (e *Explorer) Options() Options { return e.opt }

// Open decodes an uploaded blob. The error is an *analysis.DeserializationError
// when the blob is not a readable table.
func (e *Explorer) Open(name string, blob []byte) (*frame.Frame, error) {
	f, hit, err := e.loader.Load(name, blob, e.opt.Load)
	if err != nil {
		e.log.WithError(err).WithField("file", name).Warn("dataset rejected")
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"file":    name,
		"dataset": f.ID,
		"rows":    f.Rows(),
		"columns": len(f.Names()),
		"cached":  hit,
	}).Info("dataset loaded")
	return f, nil
}

// OpenFile reads and decodes a file from disk.
func (e *Explorer) OpenFile(path string) (*frame.Frame, error) {
	f, err := loader.LoadFile(path, e.opt.Load)
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"file": path, "dataset": f.ID, "rows": f.Rows()}).Info("dataset loaded")
	return f, nil
}

// Filter applies the year filter and reports the resulting row count.
func (e *Explorer) Filter(ds *frame.Frame, yearColumn string) View {
	start := time.Now()
	res := analysis.FilterYear(ds, yearColumn, e.opt.TargetYear)
	v := View{
		Frame:      res.Frame,
		Rows:       res.Rows(),
		YearColumn: yearColumn,
		Year:       e.opt.TargetYear,
		Filtered:   res.Applied,
	}
	v.notify(res.Severity, "%s", res.Message)
	outcome := "ok"
	if res.Err != nil {
		outcome = "warning"
		e.log.WithError(res.Err).WithField("dataset", ds.ID).Warn("year filter fell back to all rows")
	}
	metrics.RecordAnalysis("filter", outcome, time.Since(start))
	return v
}

// Preview filters ds and summarizes its first rows with the default profile.
func (e *Explorer) Preview(ds *frame.Frame, yearColumn string, rows int) PreviewResult {
	return e.PreviewWith(ds, yearColumn, rows, analysis.DefaultProfileOptions())
}

// PreviewWith is Preview with explicit profile options. The profile always
// lists the previewed rows as its samples.
func (e *Explorer) PreviewWith(ds *frame.Frame, yearColumn string, rows int, opt analysis.ProfileOptions) PreviewResult {
	if rows <= 0 {
		rows = e.opt.PreviewRows
	}
	v := e.Filter(ds, yearColumn)
	head := v.Frame.Head(rows)
	out := PreviewResult{View: v, Head: head, Columns: head.Names()}
	for i := 0; i < head.Rows(); i++ {
		out.Records = append(out.Records, head.Row(i))
	}
	opt.SampleRows = rows
	out.Profile = analysis.Profile(v.Frame, opt)
	return out
}

func checkSelection(v *View, sel Selection) bool {
	ok := true
	if sel.Target == "" {
		v.notify(analysis.SeverityWarning, "select a target column")
		ok = false
	}
	if sel.Variable == "" {
		v.notify(analysis.SeverityWarning, "select a variable column")
		ok = false
	}
	return ok
}

// Probability computes the sampled return rate per category of sel.Variable.
func (e *Explorer) Probability(ds *frame.Frame, sel Selection) ProbabilityResult {
	res := ProbabilityResult{View: e.Filter(ds, sel.YearColumn)}
	if !checkSelection(&res.View, sel) {
		return res
	}
	start := time.Now()
	tbl, hit, err := e.memo.Probability(res.Frame, sel.Variable, sel.Target, e.opt.Sample)
	res.Cached = hit
	log := e.log.WithFields(logrus.Fields{"dataset": res.Frame.ID, "var": sel.Variable, "target": sel.Target, "cached": hit})
	if err != nil {
		if errors.Is(err, analysis.ErrInsufficientData) {
			res.notify(analysis.SeverityWarning, "not enough data to compute return rates: the filtered dataset is empty")
		} else {
			res.notify(analysis.SeverityWarning, "return rate could not be computed: %v", err)
		}
		log.WithError(err).Warn("probability failed")
		metrics.RecordAnalysis("probability", "error", time.Since(start))
		return res
	}
	res.Table = tbl
	res.notify(analysis.SeverityOK, "return rate over a sample of %d rows", tbl.SampleSize)
	if n := undefinedRates(tbl); n > 0 {
		res.notify(analysis.SeverityWarning,
			"return rate is undefined for %d categories because %s holds infinite values", n, sel.Target)
	}
	log.WithField("sample", tbl.SampleSize).Info("probability computed")
	metrics.RecordAnalysis("probability", "ok", time.Since(start))
	return res
}

// undefinedRates counts groups with observed outcomes whose mean is not finite.
func undefinedRates(t *analysis.ProbabilityTable) int {
	n := 0
	for _, r := range t.Rows {
		if r.Rate == nil && r.Observed > 0 {
			n++
		}
	}
	return n
}

// WOE computes the WOE table of sel.Variable against sel.Target and renders
// its CSV export.
func (e *Explorer) WOE(ds *frame.Frame, sel Selection) WOEResult {
	res := WOEResult{View: e.Filter(ds, sel.YearColumn)}
	if !checkSelection(&res.View, sel) {
		return res
	}
	start := time.Now()
	tbl, hit, err := e.memo.WOE(res.Frame, sel.Variable, sel.Target)
	res.Cached = hit
	log := e.log.WithFields(logrus.Fields{"dataset": res.Frame.ID, "var": sel.Variable, "target": sel.Target, "cached": hit})
	outcome := "ok"
	switch {
	case err == nil:
	case tbl != nil && errors.Is(err, analysis.ErrNoTargetVariation):
		outcome = "warning"
		res.notify(analysis.SeverityWarning,
			"%s has %d events and %d non-events; WOE is undefined for every category",
			sel.Target, tbl.TotalEvents, tbl.TotalNonEvents)
		log.WithError(err).Warn("woe degenerate")
	default:
		res.notify(analysis.SeverityWarning, "WOE could not be computed: %v", err)
		log.WithError(err).Warn("woe failed")
		metrics.RecordAnalysis("woe", "error", time.Since(start))
		return res
	}

	res.Table = tbl
	if outcome == "ok" {
		iv := tbl.IV()
		res.IV = &iv
	}
	data, cerr := export.CSVBytes(tbl)
	if cerr != nil {
		res.notify(analysis.SeverityWarning, "CSV export failed: %v", cerr)
		log.WithError(cerr).Error("csv export failed")
	} else {
		res.CSV = data
	}
	log.WithField("bins", len(tbl.Rows)).Info("woe computed")
	metrics.RecordAnalysis("woe", outcome, time.Since(start))
	return res
}
