package main

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/pointstruct/tensor"
)

// xyProjection drops batch element b of a (B, n, 3) tensor onto the XY plane.
func xyProjection(points *tensor.Dense, b int) plotter.XYs {
	n := points.Dim(1)
	xys := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		xys[i].X = points.At(b, i, 0)
		xys[i].Y = points.At(b, i, 1)
	}
	return xys
}

// scatterPNG renders the first batch element of the input cloud in grey with
// the chosen points of one variant drawn over it.
func scatterPNG(path, name string, input, sampled *tensor.Dense) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Sampled points (%s)", name)
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	in, err := plotter.NewScatter(xyProjection(input, 0))
	if err != nil {
		return fmt.Errorf("input scatter: %w", err)
	}
	in.GlyphStyle.Color = color.RGBA{R: 190, G: 190, B: 190, A: 255}
	in.GlyphStyle.Radius = vg.Points(1)

	out, err := plotter.NewScatter(xyProjection(sampled, 0))
	if err != nil {
		return fmt.Errorf("sampled scatter: %w", err)
	}
	out.GlyphStyle.Color = hueColor(0.62)
	out.GlyphStyle.Radius = vg.Points(2)

	p.Add(in, out)
	p.Legend.Add("input", in)
	p.Legend.Add(name, out)
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save scatter plot: %w", err)
	}
	return nil
}

// scoreHistogramPNG renders the distribution of the squashed selection scores
// for the first batch element. The spread of this distribution is what
// separates a trained scorer from a uniform one.
func scoreHistogramPNG(path, name string, scores *tensor.Dense) error {
	slots, points := scores.Dim(1), scores.Dim(2)
	vals := make(plotter.Values, 0, slots*points)
	for s := 0; s < slots; s++ {
		for m := 0; m < points; m++ {
			vals = append(vals, scores.At(0, s, m))
		}
	}

	h, err := plotter.NewHist(vals, 40)
	if err != nil {
		return fmt.Errorf("score histogram: %w", err)
	}
	h.FillColor = hueColor(0.36)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Selection score distribution (%s)", name)
	p.X.Label.Text = "score"
	p.Y.Label.Text = "count"
	p.Add(h)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save histogram plot: %w", err)
	}
	return nil
}

// hueColor returns a saturated mid-lightness color for hue in [0, 1).
func hueColor(hue float64) color.RGBA {
	r, g, b := hslToRGB(hue, 0.7, 0.5)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// hslToRGB converts HSL to RGB (0-255 range).
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
