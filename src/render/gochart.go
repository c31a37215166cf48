package render

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/os24/memlatplot/src/cachelevels"
)

var (
	randomColor     = drawing.Color{R: 0x1f, G: 0x77, B: 0xb4, A: 255}
	sequentialColor = drawing.Color{R: 0xff, G: 0x7f, B: 0x0e, A: 255}
)

// lineStyle returns a style that renders a connected line without dots.
func lineStyle(col drawing.Color, width float64) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: width,
	}
}

// go-chart has no log axis; x is plotted as log10(bytes) with byte labels on the ticks.
func log10All(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Log10(x)
	}
	return out
}

// spanTicks pads ticks with unlabelled marks at min and max. go-chart takes
// the axis range from the first and last tick whenever ticks are given.
func spanTicks(ticks []chart.Tick, min, max float64) []chart.Tick {
	const eps = 1e-9
	if len(ticks) == 0 || ticks[0].Value > min+eps {
		ticks = append([]chart.Tick{{Value: min}}, ticks...)
	}
	if ticks[len(ticks)-1].Value < max-eps {
		ticks = append(ticks, chart.Tick{Value: max})
	}
	return ticks
}

func buildGoChart(l layout, levels []cachelevels.Level, o Options) chart.Chart {
	xs := log10All(l.xs)
	series := []chart.Series{
		chart.ContinuousSeries{Name: o.RandomLabel, XValues: xs, YValues: l.random, Style: lineStyle(randomColor, 2)},
		chart.ContinuousSeries{Name: o.SequentialLabel, XValues: xs, YValues: l.sequential, Style: lineStyle(sequentialColor, 2)},
	}
	for _, lv := range levels {
		c := lv.RGBA()
		x := math.Log10(float64(lv.SizeBytes))
		series = append(series, chart.ContinuousSeries{
			Name:    lv.Label(),
			XValues: []float64{x, x},
			YValues: []float64{l.yMin, l.yMax},
			Style:   lineStyle(drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}, 1.5),
		})
	}

	xTicks := make([]chart.Tick, 0, len(l.xTicks)+2)
	for _, t := range l.xTicks {
		xTicks = append(xTicks, chart.Tick{Value: math.Log10(t.Value), Label: t.Label})
	}
	xTicks = spanTicks(xTicks, math.Log10(l.xMin), math.Log10(l.xMax))
	yTicks := make([]chart.Tick, 0, len(l.yTicks)+2)
	for _, t := range l.yTicks {
		yTicks = append(yTicks, chart.Tick{Value: t.Value, Label: t.Label})
	}
	yTicks = spanTicks(yTicks, l.yMin, l.yMax)

	ch := chart.Chart{
		Title:      o.Title,
		Width:      o.Width,
		Height:     o.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  o.XLabel,
			Range: &chart.ContinuousRange{Min: math.Log10(l.xMin), Max: math.Log10(l.xMax)},
			Ticks: xTicks,
		},
		YAxis: chart.YAxis{
			Name:  o.YLabel,
			Range: &chart.ContinuousRange{Min: l.yMin, Max: l.yMax},
			Ticks: yTicks,
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch
}

func renderGoChart(w io.Writer, l layout, levels []cachelevels.Level, o Options, f Format) error {
	ch := buildGoChart(l, levels, o)
	rp := chart.PNG
	if f == SVG {
		rp = chart.SVG
	}
	if err := ch.Render(rp, w); err != nil {
		return fmt.Errorf("go-chart render: %w", err)
	}
	return nil
}
