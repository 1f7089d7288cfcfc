package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/woescope-cli/internal/analysis"
)

// SheetName is the worksheet holding the WOE table.
const SheetName = "WOE"

func encodeXLSX(t *analysis.WOETable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetName); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, err
		}
	}
	for r, row := range t.Rows {
		line := r + 2
		set := func(col int, v interface{}) error {
			cell, _ := excelize.CoordinatesToCellName(col, line)
			return f.SetCellValue(SheetName, cell, v)
		}
		if err := set(1, row.Var); err != nil {
			return nil, err
		}
		if row.WOE != nil {
			if err := set(2, *row.WOE); err != nil {
				return nil, err
			}
		}
		if err := set(3, row.N); err != nil {
			return nil, err
		}
		if err := set(4, row.EventRate); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
