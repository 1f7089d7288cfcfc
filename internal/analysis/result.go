package analysis

import (
	"encoding/json"
	"math"
)

// Severity classifies the outcome of a step for the caller.
type Severity int

const (
	SeverityOK Severity = iota
	// SeverityInfo is a note, not a problem.
	SeverityInfo
	// SeverityWarning means a fallback was used or a result was withheld.
	SeverityWarning
	// SeverityFatal means nothing downstream can run.
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityFatal:
		return "fatal"
	default:
		return "ok"
	}
}

func (s Severity) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// ratio returns a pointer so that undefined values marshal as null. NaN and
// infinities are undefined too; encoding/json cannot represent them.
func ratio(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
