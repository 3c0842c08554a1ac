// Package render draws the ECG waveform and the vital trend charts.
package render

import (
	"image"
	"image/draw"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	minorGridStep  = 20
	majorGridStep  = 100
	minorGridWidth = 0.5
	majorGridWidth = 1
	minorGridAlpha = 0.1
	majorGridAlpha = 0.2
	signalWidth    = 2
	glowBlur       = 10
)

// glow approximates a shadow blur with wider translucent strokes drawn
// under the signal, outermost first.
var glow = []struct {
	extra float64
	alpha float64
}{
	{extra: glowBlur, alpha: 0.08},
	{extra: glowBlur / 2, alpha: 0.16},
	{extra: glowBlur / 4, alpha: 0.3},
}

// Redraw clears s and draws grid and waveform from values, which are
// expected in [-1, 1]. It only touches s, and the same input always
// produces the same pixels.
func Redraw(s *Surface, values []float64, theme Theme, stroke drawing.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := s.prepare()
	draw.Draw(img, img.Bounds(), &image.Uniform{C: theme.Background}, image.Point{}, draw.Src)

	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return err
	}
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	r := s.ratio

	drawGrid(gc, w, h, minorGridStep*r, minorGridWidth*r, theme.ink(minorGridAlpha))
	drawGrid(gc, w, h, majorGridStep*r, majorGridWidth*r, theme.ink(majorGridAlpha))

	if len(values) < 2 {
		return nil
	}
	for _, g := range glow {
		strokePolyline(gc, values, w, h, (signalWidth+g.extra)*r, withAlpha(stroke, g.alpha))
	}
	strokePolyline(gc, values, w, h, signalWidth*r, stroke)
	return nil
}

func drawGrid(gc *drawing.RasterGraphicContext, w, h, step, width float64, c drawing.Color) {
	gc.SetStrokeColor(c)
	gc.SetLineWidth(width)
	for x := 0.0; x <= w; x += step {
		gc.BeginPath()
		gc.MoveTo(x, 0)
		gc.LineTo(x, h)
		gc.Stroke()
	}
	for y := 0.0; y <= h; y += step {
		gc.BeginPath()
		gc.MoveTo(0, y)
		gc.LineTo(w, y)
		gc.Stroke()
	}
}

// PlotY maps a sample in [-1, 1] to a raster row: +1 at the top, -1 at the
// bottom.
func PlotY(v, height float64) float64 {
	return ((-v + 1) / 2) * height
}

// PlotX spreads n samples across the full width.
func PlotX(i, n int, width float64) float64 {
	if n < 2 {
		return 0
	}
	return float64(i) * width / float64(n-1)
}

func strokePolyline(gc *drawing.RasterGraphicContext, values []float64, w, h, width float64, c drawing.Color) {
	gc.SetStrokeColor(c)
	gc.SetLineWidth(width)
	gc.BeginPath()
	n := len(values)
	for i, v := range values {
		x, y := PlotX(i, n, w), PlotY(v, h)
		if i == 0 {
			gc.MoveTo(x, y)
			continue
		}
		gc.LineTo(x, y)
	}
	gc.Stroke()
}
