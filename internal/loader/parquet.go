package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/KaramelBytes/woescope-cli/internal/frame"
)

var parquetMagic = []byte("PAR1")

type parquetDecoder struct{}

func (parquetDecoder) Format() string { return "parquet" }

func (parquetDecoder) Sniff(blob []byte) bool { return bytes.HasPrefix(blob, parquetMagic) }

// Decode reads a flat parquet file. Nested or repeated columns are rejected.
func (parquetDecoder) Decode(name string, blob []byte, _ Options) (*frame.Frame, error) {
	f, err := parquet.OpenFile(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	fields := f.Schema().Fields()
	if len(fields) == 0 {
		return nil, errors.New("parquet schema has no columns")
	}
	cols := make([]*frame.Column, len(fields))
	for i, fld := range fields {
		if !fld.Leaf() || fld.Repeated() {
			return nil, fmt.Errorf("column %q is nested or repeated", fld.Name())
		}
		c := &frame.Column{Name: fld.Name(), Values: make([]frame.Value, 0, f.NumRows())}
		switch fld.Type().Kind() {
		case parquet.Boolean:
			c.Kind = frame.Bool
		case parquet.Int32, parquet.Int64:
			c.Kind = frame.Int
		case parquet.Float, parquet.Double:
			c.Kind = frame.Float
		default:
			c.Kind = frame.String
		}
		cols[i] = c
	}

	buf := make([]parquet.Row, 256)
	for _, rg := range f.RowGroups() {
		if err := readRowGroup(rg, buf, cols); err != nil {
			return nil, err
		}
	}
	return frame.New(name, cols...)
}

func readRowGroup(rg parquet.RowGroup, buf []parquet.Row, cols []*frame.Column) error {
	rows := rg.Rows()
	defer rows.Close()
	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			if len(row) != len(cols) {
				return fmt.Errorf("row has %d values, schema has %d columns", len(row), len(cols))
			}
			for _, v := range row {
				c := cols[v.Column()]
				c.Values = append(c.Values, parquetValue(v))
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read rows: %w", err)
		}
	}
}

func parquetValue(v parquet.Value) frame.Value {
	if v.IsNull() {
		return frame.Null()
	}
	switch v.Kind() {
	case parquet.Boolean:
		return frame.Boolean(v.Boolean())
	case parquet.Int32:
		return frame.Integer(int64(v.Int32()))
	case parquet.Int64:
		return frame.Integer(v.Int64())
	case parquet.Float:
		return frame.Number(float64(v.Float()))
	case parquet.Double:
		return frame.Number(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return frame.Text(string(v.ByteArray()))
	default:
		return frame.Text(v.String())
	}
}
