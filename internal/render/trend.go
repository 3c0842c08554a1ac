package render

import (
	"bytes"
	"errors"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNotEnoughPoints = errors.New("trend chart needs at least two points")

// TrendOptions sizes a trend chart and optionally pins its vertical range.
type TrendOptions struct {
	Width  int
	Height int
	Min    *float64
	Max    *float64
}

// TrendPNG renders values as a filled line chart.
func TrendPNG(values []float64, theme Theme, stroke drawing.Color, opts TrendOptions) ([]byte, error) {
	if len(values) < 2 {
		return nil, ErrNotEnoughPoints
	}
	if opts.Width <= 0 {
		opts.Width = 480
	}
	if opts.Height <= 0 {
		opts.Height = 200
	}

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	lo, hi := valueRange(values)
	if opts.Min != nil {
		lo = *opts.Min
	}
	if opts.Max != nil {
		hi = *opts.Max
	}
	if hi <= lo {
		hi = lo + 1
	}

	text := theme.ink(0.7)
	axis := chart.Style{FontColor: text, StrokeColor: theme.ink(majorGridAlpha)}
	ch := chart.Chart{
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{FillColor: theme.Background, StrokeColor: theme.Background},
		Canvas:     chart.Style{FillColor: theme.Background},
		XAxis:      chart.XAxis{Style: axis},
		YAxis: chart.YAxis{
			Style: axis,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: values,
				Style: chart.Style{
					StrokeColor: stroke,
					StrokeWidth: signalWidth,
					FillColor:   withAlpha(stroke, 0.2),
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// valueRange pads the data extent by 10% so the line does not touch the
// frame.
func valueRange(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}
