package export

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/KaramelBytes/woescope-cli/internal/analysis"
)

type parquetRow struct {
	Var       string   `parquet:"var"`
	WOE       *float64 `parquet:"WOE,optional"`
	N         int64    `parquet:"n"`
	EventRate float64  `parquet:"event_rate"`
}

func encodeParquet(t *analysis.WOETable) ([]byte, error) {
	rows := make([]parquetRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = parquetRow{Var: r.Var, WOE: r.WOE, N: int64(r.N), EventRate: r.EventRate}
	}

	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[parquetRow](&buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
