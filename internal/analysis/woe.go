package analysis

import (
	"math"

	"github.com/KaramelBytes/woescope-cli/internal/frame"
)

// WOERow is one category of a WOE table. WOE is nil when the bin has no
// events or no non-events.
type WOERow struct {
	Var       string   `json:"var"`
	WOE       *float64 `json:"WOE"`
	N         int      `json:"n"`
	EventRate float64  `json:"event_rate"`
	Events    int      `json:"events"`
	NonEvents int      `json:"non_events"`
}

// WOETable holds per-category Weight of Evidence of Variable against Target.
type WOETable struct {
	Variable       string   `json:"variable"`
	Target         string   `json:"target"`
	TotalEvents    int      `json:"total_events"`
	TotalNonEvents int      `json:"total_non_events"`
	Rows           []WOERow `json:"rows"`
}

// IV is the information value summed over bins with a defined WOE.
func (t *WOETable) IV() float64 {
	if t.TotalEvents == 0 || t.TotalNonEvents == 0 {
		return 0
	}
	var iv float64
	for _, r := range t.Rows {
		if r.WOE == nil {
			continue
		}
		de := float64(r.Events) / float64(t.TotalEvents)
		dn := float64(r.NonEvents) / float64(t.TotalNonEvents)
		iv += (de - dn) * *r.WOE
	}
	return iv
}

type bin struct {
	label     string
	n         int
	events    int
	nonEvents int
}

// WOE computes the Weight of Evidence of each non-missing value of variable.
// Target values equal to 1 are events, values equal to 0 non-events; anything
// else only counts towards n. Bins keep first-encounter order.
//
// When the target has no events or no non-events the table is still returned,
// with every WOE nil, alongside an error wrapping ErrNoTargetVariation.
func WOE(ds *frame.Frame, variable, target string) (*WOETable, error) {
	fail := func(err error) error {
		return &WOEComputationError{Variable: variable, Target: target, Err: err}
	}
	vc, err := ds.Column(variable)
	if err != nil {
		return nil, fail(err)
	}
	tc, err := ds.Column(target)
	if err != nil {
		return nil, fail(err)
	}

	t := &WOETable{Variable: variable, Target: target}
	index := make(map[string]*bin)
	var order []*bin
	for i := 0; i < ds.Rows(); i++ {
		y, ok := tc.Numeric(i)
		event := ok && y == 1
		nonEvent := ok && y == 0
		if event {
			t.TotalEvents++
		} else if nonEvent {
			t.TotalNonEvents++
		}

		key, missing := vc.Key(i)
		if missing {
			continue
		}
		b := index[key]
		if b == nil {
			b = &bin{label: key}
			index[key] = b
			order = append(order, b)
		}
		b.n++
		if event {
			b.events++
		} else if nonEvent {
			b.nonEvents++
		}
	}

	for _, b := range order {
		row := WOERow{
			Var:       b.label,
			N:         b.n,
			Events:    b.events,
			NonEvents: b.nonEvents,
			EventRate: float64(b.events) / float64(b.n),
		}
		if b.events > 0 && b.nonEvents > 0 && t.TotalEvents > 0 && t.TotalNonEvents > 0 {
			de := float64(b.events) / float64(t.TotalEvents)
			dn := float64(b.nonEvents) / float64(t.TotalNonEvents)
			row.WOE = ratio(math.Log(de / dn))
		}
		t.Rows = append(t.Rows, row)
	}

	if t.TotalEvents == 0 || t.TotalNonEvents == 0 {
		return t, fail(ErrNoTargetVariation)
	}
	return t, nil
}
