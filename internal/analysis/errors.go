package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means there are no rows to aggregate.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNoTargetVariation means the target has no events or no non-events.
	ErrNoTargetVariation = errors.New("target has no variation")
	// ErrSameColumn means the explanatory variable is the outcome itself.
	ErrSameColumn = errors.New("variable and outcome are the same column")
	// ErrNotNumeric means a column cannot be compared to or averaged as a number.
	ErrNotNumeric = errors.New("column is not numeric")
)

// DeserializationError indicates an upload that is not a readable table.
type DeserializationError struct {
	Name   string
	Format string
	Err    error
}

func (e *DeserializationError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("cannot read %q as %s: %v", e.Name, e.Format, e.Err)
	}
	return fmt.Sprintf("cannot read %q: %v", e.Name, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// FilterError indicates that the year filter could not be applied.
type FilterError struct {
	Column string
	Year   int
	Err    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %s == %d: %v", e.Column, e.Year, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

// AggregationError indicates that the return-rate table could not be built.
type AggregationError struct {
	Variable string
	Outcome  string
	Err      error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("mean %s by %s: %v", e.Outcome, e.Variable, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// WOEComputationError indicates a WOE table that is missing or degenerate.
type WOEComputationError struct {
	Variable string
	Target   string
	Err      error
}

func (e *WOEComputationError) Error() string {
	return fmt.Sprintf("woe of %s against %s: %v", e.Variable, e.Target, e.Err)
}

func (e *WOEComputationError) Unwrap() error { return e.Err }
