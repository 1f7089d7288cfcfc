package loader

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/woescope-cli/internal/frame"
)

var zipMagic = []byte("PK\x03\x04")

type xlsxDecoder struct{}

func (xlsxDecoder) Format() string { return "xlsx" }

func (xlsxDecoder) Sniff(blob []byte) bool { return bytes.HasPrefix(blob, zipMagic) }

func (xlsxDecoder) Decode(name string, blob []byte, opt Options) (*frame.Frame, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := opt.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	// GetRows drops trailing empty cells, so short rows are padded back.
	width := len(rows[0])
	records := make([][]string, 0, len(rows))
	for i, r := range rows {
		if len(r) > width {
			return nil, fmt.Errorf("sheet %q row %d has %d cells, header has %d", sheet, i+1, len(r), width)
		}
		rec := make([]string, width)
		copy(rec, r)
		records = append(records, rec)
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, df.Err
	}
	return fromDataFrame(name, df)
}
