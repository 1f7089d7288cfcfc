package loader

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/woescope-cli/internal/frame"
)

// nanValues are the cells read as missing.
var nanValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "<nil>"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvDecoder struct{}

func (csvDecoder) Format() string { return "csv" }

// Sniff accepts anything; delimited text is the fallback format.
func (csvDecoder) Sniff([]byte) bool { return true }

func (csvDecoder) Decode(name string, blob []byte, opt Options) (*frame.Frame, error) {
	if !utf8.Valid(blob) {
		return nil, errors.New("not valid UTF-8 text")
	}
	blob = bytes.TrimPrefix(blob, utf8BOM)
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(blob)
	}
	df := dataframe.ReadCSV(bytes.NewReader(blob),
		dataframe.WithDelimiter(delim),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, df.Err
	}
	return fromDataFrame(name, df)
}

// sniffDelimiter picks the candidate that splits the header line into the
// most fields, defaulting to a comma.
func sniffDelimiter(blob []byte) rune {
	header := blob
	if i := bytes.IndexByte(blob, '\n'); i >= 0 {
		header = blob[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(header, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// fromDataFrame converts a gota frame using the types gota detected.
func fromDataFrame(name string, df dataframe.DataFrame) (*frame.Frame, error) {
	names := df.Names()
	if len(names) == 0 {
		return nil, errors.New("no header row")
	}
	cols := make([]*frame.Column, 0, len(names))
	for _, n := range names {
		s := df.Col(n)
		if s.Err != nil {
			return nil, fmt.Errorf("column %q: %w", n, s.Err)
		}
		c := &frame.Column{Name: n, Values: make([]frame.Value, s.Len())}
		switch s.Type() {
		case series.Int:
			c.Kind = frame.Int
		case series.Float:
			c.Kind = frame.Float
		case series.Bool:
			c.Kind = frame.Bool
		default:
			c.Kind = frame.String
		}
		for i := 0; i < s.Len(); i++ {
			e := s.Elem(i)
			if e.IsNA() {
				c.Values[i] = frame.Null()
				continue
			}
			switch c.Kind {
			case frame.String:
				c.Values[i] = frame.Text(e.String())
			case frame.Bool:
				b, err := e.Bool()
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", n, i+1, err)
				}
				c.Values[i] = frame.Boolean(b)
			case frame.Int:
				x, err := e.Int()
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", n, i+1, err)
				}
				c.Values[i] = frame.Integer(int64(x))
			default:
				c.Values[i] = frame.Number(e.Float())
			}
		}
		cols = append(cols, c)
	}
	return frame.New(name, cols...)
}
