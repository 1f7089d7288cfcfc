// Package frame holds the in-memory table shared by the loader and the analysis
// core: an ordered set of named columns whose types are discovered at load time.
package frame

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// Kind is the inferred scalar type of a column.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	default:
		return "string"
	}
}

// Numeric reports whether values of this kind compare as numbers.
// Bool compares as 1/0.
func (k Kind) Numeric() bool { return k != String }

// Value is a single cell. Num is set for numeric and bool kinds, Str for
// strings. Int holds the exact value of an integer cell; Num may round it.
type Value struct {
	Num  float64
	Int  int64
	Str  string
	Null bool
}

func Null() Value { return Value{Null: true} }

func Text(s string) Value { return Value{Str: s} }

// Number wraps f; NaN is stored as missing.
func Number(f float64) Value {
	v := Value{Num: f, Null: math.IsNaN(f)}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		v.Int = int64(f)
	}
	return v
}

// Integer wraps n without losing precision above 2^53.
func Integer(n int64) Value { return Value{Num: float64(n), Int: n} }

func Boolean(b bool) Value {
	if b {
		return Value{Num: 1, Str: "true"}
	}
	return Value{Num: 0, Str: "false"}
}

// Column is a named, typed sequence of values.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

func (c *Column) Len() int { return len(c.Values) }

// Numeric returns the i-th value as a number. It is false for missing cells and
// for string columns.
func (c *Column) Numeric(i int) (float64, bool) {
	v := c.Values[i]
	if v.Null || !c.Kind.Numeric() {
		return 0, false
	}
	return v.Num, true
}

// Key returns an exact-match grouping key for the i-th value and whether the
// value is missing.
func (c *Column) Key(i int) (string, bool) {
	v := c.Values[i]
	if v.Null {
		return "", true
	}
	return c.Label(i), false
}

// Label renders the i-th value for display. Missing cells render as "".
func (c *Column) Label(i int) string {
	v := c.Values[i]
	if v.Null {
		return ""
	}
	switch c.Kind {
	case String:
		return v.Str
	case Bool:
		if v.Num != 0 {
			return "true"
		}
		return "false"
	case Int:
		return strconv.FormatInt(v.Int, 10)
	default:
		f := v.Num
		if f == 0 {
			f = 0 // fold -0
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// ErrColumnNotFound is returned when a column name is not part of the frame.
var ErrColumnNotFound = errors.New("column not found")

// Frame is an immutable table. Derived frames are copies and never alias the
// values of their parent.
type Frame struct {
	// ID identifies the frame contents; equal contents give equal IDs.
	ID   string
	Name string

	cols  []*Column
	index map[string]int
	rows  int
}

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/KaramelBytes/woescope-cli/frame"))

// Identity returns a stable UUIDv5 for an arbitrary byte sequence.
func Identity(data []byte) string {
	return uuid.NewSHA1(namespace, data).String()
}

// New builds a frame from columns of equal length with unique names.
func New(name string, cols ...*Column) (*Frame, error) {
	f := &Frame{Name: name, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := f.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), f.rows)
		}
		f.index[c.Name] = i
		f.cols = append(f.cols, c)
	}
	f.ID = f.fingerprint()
	return f, nil
}

func (f *Frame) fingerprint() string {
	h := sha256.New()
	var num [8]byte
	for _, c := range f.cols {
		h.Write([]byte(c.Name))
		h.Write([]byte{0, byte(c.Kind)})
		for _, v := range c.Values {
			switch {
			case v.Null:
				h.Write([]byte{0xff})
			case c.Kind == String:
				h.Write([]byte(v.Str))
				h.Write([]byte{0})
			case c.Kind == Int:
				binary.LittleEndian.PutUint64(num[:], uint64(v.Int))
				h.Write(num[:])
			default:
				binary.LittleEndian.PutUint64(num[:], math.Float64bits(v.Num))
				h.Write(num[:])
			}
		}
	}
	return Identity(h.Sum(nil))
}

// WithName returns f under another name. The copy shares the immutable
// columns and keeps the ID.
func (f *Frame) WithName(name string) *Frame {
	if f.Name == name {
		return f
	}
	cp := *f
	cp.Name = name
	return &cp
}

func (f *Frame) Rows() int { return f.rows }

func (f *Frame) Names() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name
	}
	return out
}

// Columns returns the columns in order. Callers must not modify them.
func (f *Frame) Columns() []*Column {
	out := make([]*Column, len(f.cols))
	copy(out, f.cols)
	return out
}

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

func (f *Frame) Column(name string) (*Column, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return f.cols[i], nil
}

// Take returns a copy holding the given rows, in the given order.
func (f *Frame) Take(rows []int) *Frame {
	cols := make([]*Column, len(f.cols))
	for i, c := range f.cols {
		vals := make([]Value, len(rows))
		for j, r := range rows {
			vals[j] = c.Values[r]
		}
		cols[i] = &Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	out, _ := New(f.Name, cols...) // shape is inherited from f
	return out
}

// Head returns a copy of the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n < 0 {
		n = 0
	}
	if n > f.rows {
		n = f.rows
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return f.Take(idx)
}

// Row renders the i-th row as display strings.
func (f *Frame) Row(i int) []string {
	out := make([]string, len(f.cols))
	for j, c := range f.cols {
		out[j] = c.Label(i)
	}
	return out
}
