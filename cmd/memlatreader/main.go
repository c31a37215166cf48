// memlatreader prints the per cache region latency summary of a benchmark CSV
// without rendering a chart.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/os24/memlatplot/src/analysis"
	"github.com/os24/memlatplot/src/cachelevels"
	"github.com/os24/memlatplot/src/latency"
)

func main() {
	var file, header, caches, machine string
	flag.StringVar(&file, "csv", "memory_latency.csv", "Benchmark CSV; - reads stdin")
	flag.StringVar(&header, "header", "auto", "First CSV row is a header: auto|yes|no")
	flag.StringVar(&caches, "caches", "L1=192KiB,L2=5MiB,L3=48MiB", "Cache levels as name=size[:color],...")
	flag.StringVar(&machine, "machine", "", "JSONC machine description (overrides -caches)")
	flag.Parse()
	latency.SetLogLevel("warn")

	mode, err := latency.ParseHeaderMode(header)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var levels []cachelevels.Level
	if machine != "" {
		levels, _, err = cachelevels.LoadFile(machine)
	} else {
		levels, err = cachelevels.Parse(caches)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	ds, err := latency.LoadFile(file, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	regions := analysis.Regions(ds, levels)
	fmt.Printf("Samples: %d\n", ds.Len())
	fmt.Print(analysis.FormatRegions(regions))
	if s := analysis.Slowdown(regions); !math.IsNaN(s) {
		fmt.Printf("random/sequential slowdown: %.1fx\n", s)
	}
}
