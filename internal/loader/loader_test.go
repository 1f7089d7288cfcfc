package loader

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/woescope-cli/internal/analysis"
	"github.com/KaramelBytes/woescope-cli/internal/frame"
)

const regionCSV = "region,year,returned,price\nA,2020,1,9.5\nA,2020,1,\nA,2019,0,3\nB,2020,0,NA\nB,2021,0,1.25\nC,2020,1,7\n"

func TestLoadCSVDetectsTypes(t *testing.T) {
	f, err := Load("orders.csv", []byte(regionCSV), Options{})
	require.NoError(t, err)
	assert.Equal(t, "orders.csv", f.Name)
	assert.Equal(t, 6, f.Rows())
	assert.Equal(t, []string{"region", "year", "returned", "price"}, f.Names())

	kinds := map[string]frame.Kind{"region": frame.String, "year": frame.Int, "returned": frame.Int, "price": frame.Float}
	for name, want := range kinds {
		c, err := f.Column(name)
		require.NoError(t, err)
		assert.Equal(t, want, c.Kind, name)
	}
	price, _ := f.Column("price")
	_, missing := price.Key(1)
	assert.True(t, missing, "empty cell is missing")
	_, missing = price.Key(3)
	assert.True(t, missing, "NA is missing")
}

func TestLoadCSVDelimiters(t *testing.T) {
	tests := []struct {
		name string
		data string
		opt  Options
	}{
		{name: "semicolon", data: "a;b\n1;x\n2;y\n"},
		{name: "tab", data: "a\tb\n1\tx\n2\ty\n"},
		{name: "bom", data: "\xEF\xBB\xBFa,b\n1,x\n2,y\n"},
		{name: "configured", data: "a|b\n1|x\n2|y\n", opt: Options{Delimiter: '|'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(tt.name, []byte(tt.data), tt.opt)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, f.Names())
			assert.Equal(t, 2, f.Rows())
		})
	}
}

func TestLoadRejectsUnreadableBlobs(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{name: "empty", blob: nil},
		{name: "whitespace", blob: []byte("  \n")},
		{name: "binary", blob: []byte{0xff, 0xfe, 0x00, 0x01}},
		{name: "ragged", blob: []byte("a,b\n1,2,3\n")},
		{name: "broken zip", blob: append([]byte("PK\x03\x04"), 0, 1, 2)},
		{name: "broken parquet", blob: []byte("PAR1garbage")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(tt.name, tt.blob, Options{})
			assert.Nil(t, f)
			var de *analysis.DeserializationError
			require.True(t, errors.As(err, &de), "got %v", err)
			assert.Equal(t, tt.name, de.Name)
		})
	}
}

func TestLoadXLSX(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()
	_, err := wb.NewSheet("Data")
	require.NoError(t, err)
	cells := [][]interface{}{
		{"region", "year", "returned", "note"},
		{"A", 2020, 1, "first"},
		{"B", 2019, 0},
		{"C", 2020, 1, "third"},
	}
	for r, row := range cells {
		for c, v := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, wb.SetCellValue("Data", ref, v))
		}
	}
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", "ignored"))
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)

	f, err := Load("book.xlsx", buf.Bytes(), Options{SheetName: "Data"})
	require.NoError(t, err)
	assert.Equal(t, 3, f.Rows())
	year, err := f.Column("year")
	require.NoError(t, err)
	assert.Equal(t, frame.Int, year.Kind)
	note, _ := f.Column("note")
	_, missing := note.Key(1)
	assert.True(t, missing, "trailing empty cell is padded as missing")

	_, err = Load("book.xlsx", buf.Bytes(), Options{SheetName: "Nope"})
	var de *analysis.DeserializationError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "xlsx", de.Format)
}

type parquetFixture struct {
	Region   string   `parquet:"region"`
	Year     int64    `parquet:"year"`
	Returned int32    `parquet:"returned"`
	Price    *float64 `parquet:"price,optional"`
	Gift     bool     `parquet:"gift"`
}

func TestLoadParquet(t *testing.T) {
	price := 9.5
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[parquetFixture](&buf)
	_, err := w.Write([]parquetFixture{
		{Region: "A", Year: 2020, Returned: 1, Price: &price, Gift: true},
		{Region: "B", Year: 2019, Returned: 0},
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := Load("orders.parquet", buf.Bytes(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Rows())
	assert.Equal(t, []string{"region", "year", "returned", "price", "gift"}, f.Names())

	region, _ := f.Column("region")
	assert.Equal(t, frame.String, region.Kind)
	assert.Equal(t, "B", region.Label(1))
	year, _ := f.Column("year")
	assert.Equal(t, frame.Int, year.Kind)
	assert.Equal(t, "2020", year.Label(0))
	p, _ := f.Column("price")
	assert.Equal(t, frame.Float, p.Kind)
	_, missing := p.Key(1)
	assert.True(t, missing)
	gift, _ := f.Column("gift")
	assert.Equal(t, frame.Bool, gift.Kind)
	assert.Equal(t, "true", gift.Label(0))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(regionCSV), 0o644))
	f, err := LoadFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "orders.csv", f.Name)

	_, err = LoadFile(filepath.Join(dir, "missing.csv"), Options{})
	assert.Error(t, err)
}

func TestCacheSkipsReparse(t *testing.T) {
	c := NewCache(time.Minute)
	first, hit, err := c.Load("a.csv", []byte(regionCSV), Options{})
	require.NoError(t, err)
	assert.False(t, hit)

	again, hit, err := c.Load("a.csv", []byte(regionCSV), Options{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, again)

	renamed, hit, err := c.Load("b.csv", []byte(regionCSV), Options{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "b.csv", renamed.Name)
	assert.Equal(t, first.ID, renamed.ID)
	assert.Equal(t, "a.csv", first.Name, "cached frame keeps its own name")

	_, hit, err = c.Load("a.csv", []byte(regionCSV), Options{Delimiter: ';'})
	require.NoError(t, err)
	assert.False(t, hit, "options are part of the key")

	_, _, err = c.Load("bad", nil, Options{})
	assert.Error(t, err)
	assert.Equal(t, 2, c.ItemCount())
}

func TestLoadCSVKeepsLargeIntegersApart(t *testing.T) {
	blob := []byte("id,returned\n9007199254740993,1\n9007199254740992,0\n9007199254740993,0\n")
	f, err := Load("ids.csv", blob, Options{})
	require.NoError(t, err)
	id, err := f.Column("id")
	require.NoError(t, err)
	require.Equal(t, frame.Int, id.Kind)
	assert.Equal(t, "9007199254740993", id.Label(0))
	assert.Equal(t, "9007199254740992", id.Label(1))

	a, _ := id.Key(0)
	b, _ := id.Key(1)
	assert.NotEqual(t, a, b)

	tbl, err := analysis.WOE(f, "id", "returned")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "9007199254740993", tbl.Rows[0].Var)
	assert.Equal(t, 2, tbl.Rows[0].N)
	assert.Equal(t, "9007199254740992", tbl.Rows[1].Var)
	assert.Equal(t, 1, tbl.Rows[1].N)
}

func TestLoadCSVInfinity(t *testing.T) {
	f, err := Load("amounts.csv", []byte("cat,amount\na,1.5\na,inf\n"), Options{})
	require.NoError(t, err)
	amount, err := f.Column("amount")
	require.NoError(t, err)
	assert.Equal(t, frame.Float, amount.Kind)
	x, ok := amount.Numeric(1)
	require.True(t, ok)
	assert.True(t, math.IsInf(x, 1))
}
