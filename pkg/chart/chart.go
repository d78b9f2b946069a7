// Package chart renders zone series as scatter plots.
package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Scatter describes a density vs attribute plot
type Scatter struct {
	Title    string
	XLabel   string
	YLabel   string
	ShowGrid bool
	Width    vg.Length
	Height   vg.Length
}

// NewScatter returns a plot configured with generic labels
func NewScatter() *Scatter {
	return &Scatter{
		Title:    "Your graph title",
		XLabel:   "X axis label",
		YLabel:   "Y axis label",
		ShowGrid: true,
		Width:    10 * vg.Inch,
		Height:   6 * vg.Inch,
	}
}

// NewAttributeScatter returns a plot of zone density against the mean of attribute
func NewAttributeScatter(attribute string) *Scatter {
	s := NewScatter()
	s.Title = titleCase(attribute)
	s.XLabel = "density"
	s.YLabel = attribute
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// XYs zips parallel x and y series into plotter points
func XYs(x, y []float64) (plotter.XYs, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("series length mismatch: %d x values, %d y values", len(x), len(y))
	}
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts, nil
}

// Plot builds the gonum plot for the series
func (s *Scatter) Plot(x, y []float64) (*plot.Plot, error) {
	pts, err := XYs(x, y)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = s.XLabel
	p.Y.Label.Text = s.YLabel
	if s.ShowGrid {
		p.Add(plotter.NewGrid())
	}

	if len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("scatter: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
		sc.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(sc)
	}
	return p, nil
}

// Render writes the plot to path. The format follows the file extension (.png, .svg, .pdf, ...).
func (s *Scatter) Render(x, y []float64, path string) error {
	p, err := s.Plot(x, y)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	if err := p.Save(s.Width, s.Height, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
