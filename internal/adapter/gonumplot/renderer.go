// Package gonumplot draws state fatality maps with gonum.org/v1/plot.
package gonumplot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/fars-analysis/internal/statemap"
)

// Renderer writes scatter maps to a file. The output format is inferred
// from the extension (.png, .svg, .pdf).
type Renderer struct {
	Out    string
	Width  vg.Length
	Height vg.Length
}

// New creates a Renderer with the default 8x6 inch canvas.
func New(out string) *Renderer {
	return &Renderer{
		Out:    out,
		Width:  8 * vg.Inch,
		Height: 6 * vg.Inch,
	}
}

// Render draws one small marker per plottable point inside the viewport the
// data defined, then saves the canvas.
func (r *Renderer) Render(mp statemap.MapPlot) error {
	p, _, err := buildPlot(mp)
	if err != nil {
		return err
	}
	if err := p.Save(r.Width, r.Height, r.Out); err != nil {
		return fmt.Errorf("save %s: %w", r.Out, err)
	}
	return nil
}

// buildPlot assembles the scatter. Missing points are dropped here because
// the scatter plotter rejects NaN coordinates; the count of surviving points
// is returned alongside the plot.
func buildPlot(mp statemap.MapPlot) (*plot.Plot, int, error) {
	xys := make(plotter.XYs, 0, len(mp.Points))
	for _, pt := range mp.Points {
		if pt.Missing() {
			continue
		}
		xys = append(xys, plotter.XY{X: pt.Lon, Y: pt.Lat})
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s traffic fatalities, %d", mp.Region, mp.Year)
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, 0, fmt.Errorf("build scatter: %w", err)
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(1)
	scatter.GlyphStyle.Color = color.RGBA{R: 0x1f, G: 0x4e, B: 0x79, A: 0xff}
	p.Add(scatter)

	// The viewport is the data's own extent, set after Add so the axes do
	// not re-range.
	p.X.Min, p.X.Max = mp.Bounds.LonMin, mp.Bounds.LonMax
	p.Y.Min, p.Y.Max = mp.Bounds.LatMin, mp.Bounds.LatMax

	return p, len(xys), nil
}
