// Package loader turns an uploaded blob into a frame. The format is detected
// from the content, not the file name.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/woescope-cli/internal/analysis"
	"github.com/KaramelBytes/woescope-cli/internal/frame"
)

// Options controls decoding.
type Options struct {
	// Delimiter for delimited text. If 0, auto-detects among ',', ';', '\t'.
	Delimiter rune
	// SheetName selects the workbook sheet; empty means the first sheet.
	SheetName string
}

// Decoder defines a table format implementation.
type Decoder interface {
	Format() string
	Sniff(blob []byte) bool
	Decode(name string, blob []byte, opt Options) (*frame.Frame, error)
}

var registry []Decoder

// Register adds a decoder to the registry. Decoders are tried in
// registration order; the first whose Sniff accepts the blob wins.
func Register(d Decoder) {
	registry = append(registry, d)
}

func init() {
	Register(parquetDecoder{})
	Register(xlsxDecoder{})
	Register(csvDecoder{})
}

// ErrEmpty indicates a zero-length upload.
var ErrEmpty = errors.New("empty file")

// Load decodes blob into a frame named name. Every failure is returned as an
// *analysis.DeserializationError.
func Load(name string, blob []byte, opt Options) (*frame.Frame, error) {
	if len(bytes.TrimSpace(blob)) == 0 {
		return nil, &analysis.DeserializationError{Name: name, Err: ErrEmpty}
	}
	for _, d := range registry {
		if !d.Sniff(blob) {
			continue
		}
		f, err := d.Decode(name, blob, opt)
		if err != nil {
			return nil, &analysis.DeserializationError{Name: name, Format: d.Format(), Err: err}
		}
		return f, nil
	}
	return nil, &analysis.DeserializationError{Name: name, Err: errors.New("unrecognized format")}
}

// LoadFile reads path and decodes it with Load.
func LoadFile(path string, opt Options) (*frame.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Load(filepath.Base(path), data, opt)
}
