package render

import (
	"fmt"
	"math"

	"github.com/os24/memlatplot/src/cachelevels"
	"github.com/os24/memlatplot/src/latency"
)

// tick is a backend-neutral axis mark. Value is in data units (bytes or ns).
type tick struct {
	Value float64
	Label string
}

// layout is what both backends need to draw the same chart.
type layout struct {
	xs, random, sequential []float64
	xMin, xMax             float64 // bytes
	yMin, yMax             float64 // ns
	xTicks, yTicks         []tick
}

func newLayout(ds *latency.Dataset, levels []cachelevels.Level) layout {
	l := layout{
		xs:         ds.Sizes(),
		random:     ds.RandomSeries(),
		sequential: ds.SequentialSeries(),
	}
	lo, hi := ds.SizeRange()
	l.xMin, l.xMax = float64(lo), float64(hi)
	// keep every reference line on the canvas
	for _, lv := range levels {
		l.xMin = math.Min(l.xMin, float64(lv.SizeBytes))
		l.xMax = math.Max(l.xMax, float64(lv.SizeBytes))
	}
	if l.xMax <= l.xMin {
		l.xMin, l.xMax = l.xMin/2, l.xMax*2
	}
	// a line needs two points
	if len(l.xs) == 1 {
		l.xs = append(l.xs, l.xs[0])
		l.random = append(l.random, l.random[0])
		l.sequential = append(l.sequential, l.sequential[0])
	}
	yLo, yHi := ds.LatencyRange()
	l.yMin, l.yMax = niceAxisBounds(yLo, yHi)
	l.xTicks = binaryTicks(l.xMin, l.xMax, 8)
	l.yTicks = niceTicks(l.yMin, l.yMax, 6)
	latency.Debugf("render: x=[%.0f,%.0f] y=[%.3f,%.3f] xticks=%d yticks=%d", l.xMin, l.xMax, l.yMin, l.yMax, len(l.xTicks), len(l.yTicks))
	return l
}

// binaryTicks places marks on powers of two inside [min,max] bytes, thinning
// the exponent step until at most n remain.
func binaryTicks(min, max float64, n int) []tick {
	if min <= 0 || max <= min || n < 1 {
		return nil
	}
	// nothing below one byte is worth a label
	kLo := int(math.Max(math.Ceil(math.Log2(min)), 0))
	kHi := int(math.Floor(math.Log2(max)))
	if kHi < kLo {
		return nil
	}
	step := 1
	for _, s := range []int{1, 2, 4, 5, 10, 20} {
		step = s
		if (kHi-kLo)/s+1 <= n {
			break
		}
	}
	var ticks []tick
	for k := kLo; k <= kHi; k++ {
		if k%step != 0 {
			continue
		}
		v := math.Ldexp(1, k)
		ticks = append(ticks, tick{Value: v, Label: cachelevels.FormatBytes(uint64(v))})
	}
	return ticks
}

// niceAxisBounds expands [min,max] by a small margin and rounds to "nice" numbers for readability.
func niceAxisBounds(min, max float64) (float64, float64) {
	if math.IsNaN(min) || math.IsNaN(max) {
		return min, max
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	pad := span * 0.05
	a := min - pad
	b := max + pad
	mag := math.Pow(10, math.Floor(math.Log10(span)))
	if !math.IsInf(mag, 0) && mag > 0 {
		a = math.Floor(a/mag) * mag
		b = math.Ceil(b/mag) * mag
	}
	// offsets that never dip below zero shouldn't get a negative axis from padding
	if min >= 0 && a < 0 {
		a = 0
	}
	return a, b
}

// niceTicks generates up to n desired tick marks between [min, max] using nice increments.
func niceTicks(min, max float64, n int) []tick {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	// steps of 1, 2, 2.5, 5, 10 scaled by a power of 10
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		count := math.Ceil(span / step)
		if count < 2 {
			count = 2
		}
		if score := math.Abs(count - float64(n)); score < bestScore {
			bestScore = score
			bestStep = step
		}
	}
	start := math.Ceil(min/bestStep) * bestStep
	var ticks []tick
	for v := start; v <= max+bestStep/1e6; v += bestStep {
		ticks = append(ticks, tick{Value: v, Label: formatTick(v)})
		if len(ticks) > n+2 {
			break
		}
	}
	return ticks
}

func formatTick(v float64) string {
	if math.Abs(v) < 1e-9 {
		return "0"
	}
	av := math.Abs(v)
	switch {
	case av >= 100:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
