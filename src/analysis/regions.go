// Package analysis summarizes latency samples per cache region.
//
// A region is the span of array sizes that fits in one cache level but not
// the one below it; sizes above the last level fall into RAM. The summary
// is descriptive only: counts, size span and the mean/median of each series.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/os24/memlatplot/src/cachelevels"
	"github.com/os24/memlatplot/src/latency"
)

// RegionSummary aggregates the samples that landed in one region.
type RegionSummary struct {
	Name             string
	Samples          int
	MinBytes         uint64
	MaxBytes         uint64
	MeanRandom       float64
	MedianRandom     float64
	MeanSequential   float64
	MedianSequential float64
}

// Ratio is the random/sequential median ratio; NaN when sequential is not positive.
func (r RegionSummary) Ratio() float64 {
	if r.MedianSequential <= 0 {
		return math.NaN()
	}
	return r.MedianRandom / r.MedianSequential
}

// Regions buckets ds by levels (sorted ascending) and returns non-empty
// regions in hierarchy order.
func Regions(ds *latency.Dataset, levels []cachelevels.Level) []RegionSummary {
	if ds == nil || ds.Len() == 0 {
		return nil
	}
	order := make([]string, 0, len(levels)+1)
	for _, l := range levels {
		order = append(order, l.Name)
	}
	order = append(order, "RAM")

	type bucket struct {
		rnd, seq []float64
		lo, hi   uint64
	}
	buckets := map[string]*bucket{}
	for _, s := range ds.Samples {
		name := cachelevels.Region(levels, s.Bytes)
		b := buckets[name]
		if b == nil {
			b = &bucket{lo: s.Bytes, hi: s.Bytes}
			buckets[name] = b
		}
		b.rnd = append(b.rnd, s.Random)
		b.seq = append(b.seq, s.Sequential)
		if s.Bytes < b.lo {
			b.lo = s.Bytes
		}
		if s.Bytes > b.hi {
			b.hi = s.Bytes
		}
	}

	var out []RegionSummary
	for _, name := range order {
		b := buckets[name]
		if b == nil {
			continue
		}
		out = append(out, RegionSummary{
			Name:             name,
			Samples:          len(b.rnd),
			MinBytes:         b.lo,
			MaxBytes:         b.hi,
			MeanRandom:       stat.Mean(b.rnd, nil),
			MedianRandom:     median(b.rnd),
			MeanSequential:   stat.Mean(b.seq, nil),
			MedianSequential: median(b.seq),
		})
	}
	latency.Debugf("analysis: %d samples in %d region(s)", ds.Len(), len(out))
	return out
}

// median uses the midpoint of the two middle values for even counts.
func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, s, nil)
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Slowdown returns how much slower random access gets from the first to the
// last region, relative to sequential: ratio(last)/ratio(first). NaN with
// fewer than two regions or undefined ratios.
func Slowdown(regions []RegionSummary) float64 {
	if len(regions) < 2 {
		return math.NaN()
	}
	first := regions[0].Ratio()
	last := regions[len(regions)-1].Ratio()
	if math.IsNaN(first) || math.IsNaN(last) || first == 0 {
		return math.NaN()
	}
	return last / first
}

// FormatRegions renders the summaries as a fixed-width table.
func FormatRegions(regions []RegionSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %7s %-21s %10s %10s %10s %10s\n", "region", "samples", "sizes", "rnd_mean", "rnd_p50", "seq_mean", "seq_p50")
	for _, r := range regions {
		span := cachelevels.FormatBytes(r.MinBytes) + ".." + cachelevels.FormatBytes(r.MaxBytes)
		fmt.Fprintf(&b, "%-6s %7d %-21s %10.2f %10.2f %10.2f %10.2f\n",
			r.Name, r.Samples, span, r.MeanRandom, r.MedianRandom, r.MeanSequential, r.MedianSequential)
	}
	return b.String()
}
