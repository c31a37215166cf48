package render

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/os24/memlatplot/src/cachelevels"
)

// vgimg rasterizes at 96 dpi; vg lengths are points (1/72 in).
const rasterDPI = 96

func pixels(px int) vg.Length { return vg.Length(px) * vg.Inch / rasterDPI }

// staticTicks hands precomputed marks to gonum's axis.
type staticTicks []tick

func (s staticTicks) Ticks(min, max float64) []plot.Tick {
	out := make([]plot.Tick, 0, len(s))
	for _, t := range s {
		if t.Value < min || t.Value > max {
			continue
		}
		out = append(out, plot.Tick{Value: t.Value, Label: t.Label})
	}
	return out
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

func buildGonumPlot(l layout, levels []cachelevels.Level, o Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = o.Title
	p.Title.TextStyle.Font.Size = 15
	p.X.Label.Text = o.XLabel
	p.Y.Label.Text = o.YLabel
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = staticTicks(l.xTicks)
	p.Y.Tick.Marker = staticTicks(l.yTicks)
	p.X.Min, p.X.Max = l.xMin, l.xMax
	p.Y.Min, p.Y.Max = l.yMin, l.yMax
	// top-left stays clear: small arrays are the fastest, and the marker
	// labels sit along the bottom edge
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = vg.Points(8)
	p.Legend.YOffs = -vg.Points(8)
	p.Add(plotter.NewGrid())

	for _, s := range []struct {
		name string
		ys   []float64
		col  color.Color
	}{
		{o.RandomLabel, l.random, color.RGBA(randomColor)},
		{o.SequentialLabel, l.sequential, color.RGBA(sequentialColor)},
	} {
		line, err := plotter.NewLine(xys(l.xs, s.ys))
		if err != nil {
			return nil, fmt.Errorf("%s line: %w", s.name, err)
		}
		line.Color = s.col
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	for _, lv := range levels {
		if err := addVerticalLine(p, float64(lv.SizeBytes), lv.Label(), lv.RGBA()); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// markerLabelAt places a marker label just above the bottom of the y range.
func markerLabelAt(p *plot.Plot, x float64) plotter.XY {
	return plotter.XY{X: x, Y: p.Y.Min + 0.02*(p.Y.Max-p.Y.Min)}
}

// addVerticalLine draws a dashed marker across the y range with its label near the bottom.
func addVerticalLine(p *plot.Plot, x float64, label string, clr color.RGBA) error {
	vline, err := plotter.NewLine(plotter.XYs{{X: x, Y: p.Y.Min}, {X: x, Y: p.Y.Max}})
	if err != nil {
		return fmt.Errorf("%s marker: %w", label, err)
	}
	vline.Color = clr
	vline.Width = vg.Points(1.5)
	vline.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{markerLabelAt(p, x)},
		Labels: []string{label},
	})
	if err != nil {
		return fmt.Errorf("%s marker label: %w", label, err)
	}
	labels.TextStyle[0].Color = clr
	labels.TextStyle[0].YAlign = text.YBottom
	labels.TextStyle[0].XAlign = text.XLeft
	labels.Offset = vg.Point{X: vg.Points(3)}

	p.Add(vline, labels)
	p.Legend.Add(label, vline)
	return nil
}

func renderGonum(w io.Writer, l layout, levels []cachelevels.Level, o Options, f Format) error {
	p, err := buildGonumPlot(l, levels, o)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(pixels(o.Width), pixels(o.Height), string(f))
	if err != nil {
		return fmt.Errorf("gonum canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("gonum render: %w", err)
	}
	return nil
}
