// Package chart draws the return-rate bar chart.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/woescope-cli/internal/analysis"
)

// Size of the rendered image.
var (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

// ErrEmpty is returned for a table without rows.
var ErrEmpty = errors.New("nothing to plot")

// Probability builds a bar per category with the mean return rate as height.
// Categories whose rate is undefined are drawn at zero.
func Probability(t *analysis.ProbabilityTable) (*plot.Plot, error) {
	if t == nil || len(t.Rows) == 0 {
		return nil, ErrEmpty
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Return rate by %s (sample of %d rows)", t.Variable, t.SampleSize)
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = t.Variable
	p.Y.Label.Text = "mean return rate"

	values := make(plotter.Values, len(t.Rows))
	labels := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		if r.Rate != nil {
			values[i] = *r.Rate
		}
		labels[i] = r.Category
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	bars.LineStyle.Width = vg.Length(0)

	p.Add(plotter.NewGrid())
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Min = 0
	if p.Y.Max < 1 {
		p.Y.Max = 1
	}
	return p, nil
}

// WritePNG renders the probability chart as PNG to w.
func WritePNG(w io.Writer, t *analysis.ProbabilityTable) error {
	p, err := Probability(t)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return fmt.Errorf("png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return nil
}

// PNG renders the probability chart as PNG bytes.
func PNG(t *analysis.ProbabilityTable) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
