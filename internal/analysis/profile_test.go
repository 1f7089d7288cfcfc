package analysis

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/woescope-cli/internal/frame"
)

func TestProfileAndMarkdown(t *testing.T) {
	ds := mustFrame(t,
		strCol("region", "A", "B", "A", "", "A"),
		numCol("year", frame.Int, 2020, 2020, 2019, 2020, 2021),
		numCol("price", frame.Float, 10, 12, math.NaN(), 14, 16),
	)
	opt := DefaultProfileOptions()
	opt.SampleRows = 2
	opt.Correlations = true
	rep := Profile(ds, opt)

	if rep.Rows != 5 || len(rep.Cols) != 3 {
		t.Fatalf("unexpected shape: rows=%d cols=%d", rep.Rows, len(rep.Cols))
	}
	region := rep.Cols[0]
	if region.Kind != "string" || region.Missing != 1 || region.Unique != 2 {
		t.Fatalf("region summary: %+v", region)
	}
	if len(region.TopValues) == 0 || region.TopValues[0].Value != "A" || region.TopValues[0].Count != 3 {
		t.Fatalf("top values: %+v", region.TopValues)
	}
	price := rep.Cols[2]
	if price.Min != 10 || price.Max != 16 || math.Abs(price.Mean-13) > 1e-9 {
		t.Fatalf("price stats: %+v", price)
	}
	if math.Abs(price.Std-math.Sqrt(20.0/3.0)) > 1e-9 {
		t.Fatalf("price std: %v", price.Std)
	}
	if len(rep.Samples) != 2 {
		t.Fatalf("expected 2 sample rows, got %d", len(rep.Samples))
	}
	if rep.Corr == nil || len(rep.Corr.Columns) != 2 {
		t.Fatalf("expected correlation over year and price")
	}

	md := rep.Markdown()
	for _, want := range []string{"[DATASET SUMMARY]", "[SCHEMA]", "[HEAD AND SAMPLE ROWS]", "[CORRELATIONS]", "- region: string", "A(3)"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestProfileOutliers(t *testing.T) {
	vals := []float64{10, 10.5, 9.5, 10.2, 9.8, 10.1, 9.9, 10, 50}
	ds := mustFrame(t, numCol("score", frame.Float, vals...))
	opt := DefaultProfileOptions()
	opt.Outliers = true
	rep := Profile(ds, opt)
	if rep.Cols[0].OutliersCount != 1 {
		t.Fatalf("expected one outlier, got %+v", rep.Cols[0])
	}
	if !strings.Contains(rep.Markdown(), "outliers: 1") {
		t.Fatalf("markdown does not report outliers")
	}
}

func TestProfileEmptyColumnNote(t *testing.T) {
	ds := mustFrame(t, strCol("note", "", ""))
	rep := Profile(ds, DefaultProfileOptions())
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Markdown(), "[NOTES]") {
		t.Fatalf("expected a note for the empty column: %+v", rep.Warnings)
	}
}

func TestProfileSkipsInfiniteValues(t *testing.T) {
	ds := mustFrame(t,
		numCol("amount", frame.Float, 1.5, math.Inf(1), 2, 3),
		numCol("y", frame.Int, 1, 0, 0, 1),
	)
	opt := DefaultProfileOptions()
	opt.Correlations = true
	opt.Outliers = true
	rep := Profile(ds, opt)

	amount := rep.Cols[0]
	if amount.NonNull != 4 || amount.NonFinite != 1 {
		t.Fatalf("amount counts: %+v", amount)
	}
	if amount.Min != 1.5 || amount.Max != 3 || math.Abs(amount.Mean-6.5/3) > 1e-9 {
		t.Fatalf("amount stats: %+v", amount)
	}
	if math.IsNaN(amount.Std) || math.IsInf(amount.Std, 0) {
		t.Fatalf("std is not finite: %v", amount.Std)
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "infinite") {
		t.Fatalf("expected an infinite-value note: %+v", rep.Warnings)
	}
	if _, err := json.Marshal(rep); err != nil {
		t.Fatalf("report does not marshal: %v", err)
	}
}
