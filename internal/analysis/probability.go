package analysis

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/woescope-cli/internal/frame"
)

const (
	// DefaultSampleSize caps the rows drawn for the return-rate table.
	DefaultSampleSize = 2000
	// DefaultSampleSeed makes repeated runs draw the same sample.
	DefaultSampleSeed = 42
	// MissingLabel names the group of rows whose variable is missing.
	MissingLabel = "<missing>"
)

// SampleOptions controls the row sample behind Probability.
type SampleOptions struct {
	Size int
	Seed int64
}

// DefaultSampleOptions returns the 2000-row, seed 42 sample.
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{Size: DefaultSampleSize, Seed: DefaultSampleSeed}
}

// ProbabilityRow is the mean outcome of one category. Rate is nil when every
// outcome in the group is missing.
type ProbabilityRow struct {
	Category string   `json:"category"`
	Missing  bool     `json:"missing,omitempty"`
	Rate     *float64 `json:"rate"`
	Count    int      `json:"count"`
	Observed int      `json:"observed"`
}

// ProbabilityTable is the sampled return rate per category of Variable.
type ProbabilityTable struct {
	Variable   string           `json:"variable"`
	Outcome    string           `json:"outcome"`
	SampleSize int              `json:"sample_size"`
	Rows       []ProbabilityRow `json:"rows"`
}

// SampleRows draws min(opt.Size, n) distinct row indexes out of n without
// replacement. The same n and options always give the same indexes.
func SampleRows(n int, opt SampleOptions) []int {
	size := opt.Size
	if size <= 0 {
		size = DefaultSampleSize
	}
	if size > n {
		size = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(opt.Seed))
	for i := 0; i < size; i++ {
		j := i + rng.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:size]
}

type group struct {
	key      string
	num      float64
	numeric  bool
	missing  bool
	count    int
	outcomes []float64
}

// Probability samples ds and returns the mean of outcome per distinct value
// of variable. Groups are ordered numerically (or lexically for strings) with
// the missing group last.
func Probability(ds *frame.Frame, variable, outcome string, opt SampleOptions) (*ProbabilityTable, error) {
	fail := func(err error) error {
		return &AggregationError{Variable: variable, Outcome: outcome, Err: err}
	}
	if variable == outcome {
		return nil, fail(ErrSameColumn)
	}
	vc, err := ds.Column(variable)
	if err != nil {
		return nil, fail(err)
	}
	oc, err := ds.Column(outcome)
	if err != nil {
		return nil, fail(err)
	}
	if !oc.Kind.Numeric() {
		return nil, fail(fmt.Errorf("%w: %q is %s", ErrNotNumeric, outcome, oc.Kind))
	}

	rows := SampleRows(ds.Rows(), opt)
	if len(rows) == 0 {
		return nil, fail(ErrInsufficientData)
	}

	groups := make(map[string]*group)
	for _, r := range rows {
		key, missing := vc.Key(r)
		id := key
		if missing {
			id = "\x00missing"
		}
		g := groups[id]
		if g == nil {
			g = &group{key: key, missing: missing}
			if !missing {
				g.num, g.numeric = vc.Numeric(r)
			}
			groups[id] = g
		}
		g.count++
		if y, ok := oc.Numeric(r); ok {
			g.outcomes = append(g.outcomes, y)
		}
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.missing != b.missing {
			return b.missing
		}
		if a.numeric && b.numeric && a.num != b.num {
			return a.num < b.num
		}
		return a.key < b.key
	})

	t := &ProbabilityTable{Variable: variable, Outcome: outcome, SampleSize: len(rows)}
	for _, g := range ordered {
		row := ProbabilityRow{Category: g.key, Missing: g.missing, Count: g.count, Observed: len(g.outcomes)}
		if g.missing {
			row.Category = MissingLabel
		}
		if len(g.outcomes) > 0 {
			row.Rate = ratio(stat.Mean(g.outcomes, nil))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
