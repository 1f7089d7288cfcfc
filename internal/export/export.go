// Package export writes WOE tables as CSV, XLSX or Parquet.
package export

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/woescope-cli/internal/analysis"
	"github.com/KaramelBytes/woescope-cli/internal/utils"
)

// FileName is the default name of the downloadable WOE table.
const FileName = "woe_result.csv"

// Header is the column layout of the CSV export.
var Header = []string{"var", "WOE", "n", "event_rate"}

// Format is an export file format.
type Format string

const (
	CSV     Format = "csv"
	XLSX    Format = "xlsx"
	Parquet Format = "parquet"
)

// ParseFormat accepts csv, xlsx or parquet in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, XLSX, Parquet:
		return f, nil
	case "":
		return CSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv, xlsx or parquet)", s)
	}
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string { return "." + string(f) }

func formatFloat(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

// WriteCSV writes t with the var,WOE,n,event_rate header. An undefined WOE is
// written as an empty field.
func WriteCSV(w io.Writer, t *analysis.WOETable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range t.Rows {
		woe := ""
		if r.WOE != nil {
			woe = formatFloat(*r.WOE)
		}
		if err := cw.Write([]string{r.Var, woe, strconv.Itoa(r.N), formatFloat(r.EventRate)}); err != nil {
			return fmt.Errorf("write row %q: %w", r.Var, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVBytes renders t with WriteCSV.
func CSVBytes(t *analysis.WOETable) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseCSV reads rows written by WriteCSV. Event counts are not part of the
// export and are left zero.
func ParseCSV(r io.Reader) ([]analysis.WOERow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("missing header")
	}
	for i, h := range Header {
		if records[0][i] != h {
			return nil, fmt.Errorf("unexpected header %v", records[0])
		}
	}
	rows := make([]analysis.WOERow, 0, len(records)-1)
	for i, rec := range records[1:] {
		row := analysis.WOERow{Var: rec[0]}
		if rec[1] != "" {
			v, err := strconv.ParseFloat(rec[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d WOE: %w", i+2, err)
			}
			row.WOE = &v
		}
		if row.N, err = strconv.Atoi(rec[2]); err != nil {
			return nil, fmt.Errorf("line %d n: %w", i+2, err)
		}
		if row.EventRate, err = strconv.ParseFloat(rec[3], 64); err != nil {
			return nil, fmt.Errorf("line %d event_rate: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DataURI embeds a CSV payload in a data: URI suitable for a download link.
func DataURI(csvData []byte) string {
	return "data:text/csv;base64," + base64.StdEncoding.EncodeToString(csvData)
}

// Encode renders t in the given format.
func Encode(t *analysis.WOETable, f Format) ([]byte, error) {
	switch f {
	case CSV, "":
		return CSVBytes(t)
	case XLSX:
		return encodeXLSX(t)
	case Parquet:
		return encodeParquet(t)
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}

// Save encodes t and writes it atomically to path.
func Save(path string, f Format, t *analysis.WOETable) error {
	data, err := Encode(t, f)
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("save %s: %w", f, err)
	}
	return nil
}
