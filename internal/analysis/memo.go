package analysis

import (
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/KaramelBytes/woescope-cli/internal/frame"
	"github.com/KaramelBytes/woescope-cli/internal/metrics"
)

// CacheKey identifies one analysis of one dataset.
type CacheKey struct {
	Kind     string
	FrameID  string
	Variable string
	Outcome  string
	Sample   SampleOptions
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%q:%q:%d:%d", k.Kind, k.FrameID, k.Variable, k.Outcome, k.Sample.Size, k.Sample.Seed)
}

type memoEntry struct {
	value interface{}
	err   error
}

// Memo caches analysis results by frame identity. Errors are cached with
// their table so a degenerate input is not recomputed either.
type Memo struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemo creates a memo whose entries expire after ttl.
func NewMemo(ttl time.Duration) *Memo {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Memo{cache: cache.New(ttl, ttl*2), ttl: ttl}
}

func (m *Memo) lookup(key CacheKey, compute func() (interface{}, error)) (interface{}, bool, error) {
	if v, found := m.cache.Get(key.String()); found {
		if e, ok := v.(memoEntry); ok {
			metrics.RecordCacheLookup("analysis", true)
			return e.value, true, e.err
		}
	}
	metrics.RecordCacheLookup("analysis", false)
	value, err := compute()
	m.cache.Set(key.String(), memoEntry{value: value, err: err}, m.ttl)
	return value, false, err
}

// Probability is the memoized form of the package-level Probability.
func (m *Memo) Probability(ds *frame.Frame, variable, outcome string, opt SampleOptions) (*ProbabilityTable, bool, error) {
	key := CacheKey{Kind: "probability", FrameID: ds.ID, Variable: variable, Outcome: outcome, Sample: opt}
	v, hit, err := m.lookup(key, func() (interface{}, error) {
		return Probability(ds, variable, outcome, opt)
	})
	t, _ := v.(*ProbabilityTable)
	return t, hit, err
}

// WOE is the memoized form of the package-level WOE.
func (m *Memo) WOE(ds *frame.Frame, variable, target string) (*WOETable, bool, error) {
	key := CacheKey{Kind: "woe", FrameID: ds.ID, Variable: variable, Outcome: target}
	v, hit, err := m.lookup(key, func() (interface{}, error) {
		return WOE(ds, variable, target)
	})
	t, _ := v.(*WOETable)
	return t, hit, err
}

// ItemCount returns the number of items in cache
func (m *Memo) ItemCount() int { return m.cache.ItemCount() }

// Flush drops every cached result.
func (m *Memo) Flush() { m.cache.Flush() }
