package export

import (
	"bytes"
	"encoding/base64"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/woescope-cli/internal/analysis"
	"github.com/KaramelBytes/woescope-cli/internal/frame"
	"github.com/KaramelBytes/woescope-cli/internal/loader"
)

func regionTable(t *testing.T) *analysis.WOETable {
	t.Helper()
	f, err := frame.New("orders",
		&frame.Column{Name: "region", Kind: frame.String, Values: []frame.Value{
			frame.Text("A"), frame.Text("A"), frame.Text("A"), frame.Text("B"), frame.Text("B"), frame.Text("C"),
		}},
		&frame.Column{Name: "target", Kind: frame.Int, Values: []frame.Value{
			frame.Number(1), frame.Number(1), frame.Number(0), frame.Number(0), frame.Number(0), frame.Number(1),
		}},
	)
	require.NoError(t, err)
	tbl, err := analysis.WOE(f, "region", "target")
	require.NoError(t, err)
	return tbl
}

func TestWriteCSVLayout(t *testing.T) {
	data, err := CSVBytes(regionTable(t))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "var,WOE,n,event_rate", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "A,0.693147"))
	assert.Equal(t, "B,,2,0", lines[2])
	assert.Equal(t, "C,,1,1", lines[3])
}

func TestCSVRoundTrip(t *testing.T) {
	tbl := regionTable(t)
	tbl.Rows = append(tbl.Rows, analysis.WOERow{Var: `quoted, "name"`, WOE: func() *float64 { v := -1.0 / 3.0; return &v }(), N: 7, EventRate: 2.0 / 7.0})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	rows, err := ParseCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, len(tbl.Rows))
	for i, want := range tbl.Rows {
		got := rows[i]
		assert.Equal(t, want.Var, got.Var)
		assert.Equal(t, want.N, got.N)
		assert.Equal(t, want.EventRate, got.EventRate)
		if want.WOE == nil {
			assert.Nil(t, got.WOE)
			continue
		}
		require.NotNil(t, got.WOE)
		assert.Equal(t, *want.WOE, *got.WOE)
	}
}

func TestParseCSVRejectsForeignHeader(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("a,b,c,d\n1,2,3,4\n"))
	assert.Error(t, err)
}

func TestDataURI(t *testing.T) {
	payload := []byte("var,WOE,n,event_rate\n")
	uri := DataURI(payload)
	require.True(t, strings.HasPrefix(uri, "data:text/csv;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:text/csv;base64,"))
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, XLSX, f)
	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, CSV, f)
	_, err = ParseFormat("json")
	assert.Error(t, err)
}

func TestEncodeReadableByLoader(t *testing.T) {
	tbl := regionTable(t)
	for _, format := range []Format{CSV, XLSX, Parquet} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(tbl, format)
			require.NoError(t, err)
			f, err := loader.Load("woe"+format.Ext(), data, loader.Options{})
			require.NoError(t, err)
			assert.Equal(t, []string{"var", "WOE", "n", "event_rate"}, f.Names())
			assert.Equal(t, 3, f.Rows())

			woe, err := f.Column("WOE")
			require.NoError(t, err)
			v, ok := woe.Numeric(0)
			require.True(t, ok)
			assert.InDelta(t, math.Ln2, v, 1e-12)
			_, missing := woe.Key(1)
			assert.True(t, missing, "undefined WOE stays empty")
		})
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", FileName)
	require.NoError(t, Save(path, CSV, regionTable(t)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "var,WOE,n,event_rate\n"))
}
