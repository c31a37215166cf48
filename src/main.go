// memlatplot entrypoint.
//
// Reads the CSV written by the memory latency benchmark (bytes,random_ns,sequential_ns),
// draws both series against a log-scaled size axis, marks the cache boundaries
// and saves the chart. The format follows the -out extension (.png, .svg, .pdf).
//
// Design notes:
//   - Cache levels come from -caches, or from a JSONC machine file via -machine
//     which takes precedence. -caches "" draws no reference lines.
//   - -out may contain {date} and {host}; both are expanded before rendering so
//     repeated runs on several machines don't overwrite each other.
//   - Dependency direction: main -> latency (load), cachelevels, analysis, render.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/os24/memlatplot/src/analysis"
	"github.com/os24/memlatplot/src/cachelevels"
	"github.com/os24/memlatplot/src/latency"
	"github.com/os24/memlatplot/src/render"
)

const defaultCaches = "L1=192KiB:red,L2=5MiB:green,L3=48MiB:brown"

// expandOutPath substitutes {date} (YYYYMMDD) and {host} (sanitized hostname).
func expandOutPath(path string, now time.Time, hostname string) string {
	if strings.Contains(path, "{date}") {
		path = strings.ReplaceAll(path, "{date}", now.Format("20060102"))
	}
	if strings.Contains(path, "{host}") {
		path = strings.ReplaceAll(path, "{host}", sanitizeHost(hostname))
	}
	return path
}

// sanitizeHost lowercases and replaces any char not alnum, dash, underscore with '-'.
func sanitizeHost(hn string) string {
	if hn == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(hn) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("memlatplot", flag.ContinueOnError)
	csvPath := fs.String("csv", "memory_latency.csv", "Benchmark CSV (bytes,random_ns,sequential_ns); - reads stdin")
	outPath := fs.String("out", "plot.png", "Output image (.png, .svg or .pdf); {date} and {host} are expanded")
	header := fs.String("header", "auto", "First CSV row is a header: auto|yes|no")
	caches := fs.String("caches", defaultCaches, "Cache levels as name=size[:color],...; empty disables reference lines")
	machine := fs.String("machine", "", "JSONC machine description with cache levels (overrides -caches)")
	backend := fs.String("backend", string(render.BackendChart), "Plotting backend (chart|gonum)")
	title := fs.String("title", render.DefaultTitle, "Chart title")
	width := fs.Int("width", render.DefaultWidth, "Image width in pixels")
	height := fs.Int("height", render.DefaultHeight, "Image height in pixels")
	caption := fs.String("caption", "", "Footnote stamped onto PNG output")
	summary := fs.Bool("summary", false, "Print per cache region latency summary to stdout")
	logLevel := fs.String("log-level", "info", "Log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !latency.SetLogLevel(*logLevel) {
		return fmt.Errorf("unknown log level %q (want debug|info|warn|error)", *logLevel)
	}

	mode, err := latency.ParseHeaderMode(*header)
	if err != nil {
		return err
	}
	be, err := render.ParseBackend(*backend)
	if err != nil {
		return err
	}

	var levels []cachelevels.Level
	if *machine != "" {
		var name string
		levels, name, err = cachelevels.LoadFile(*machine)
		if err != nil {
			return fmt.Errorf("load machine: %w", err)
		}
		latency.Infof("machine %q: %d cache level(s)", name, len(levels))
	} else if levels, err = cachelevels.Parse(*caches); err != nil {
		return err
	}

	ds, err := latency.LoadFile(*csvPath, mode)
	if err != nil {
		return fmt.Errorf("load csv: %w", err)
	}
	lo, hi := ds.SizeRange()
	latency.Infof("loaded %d samples from %s (%s..%s)", ds.Len(), ds.Source, cachelevels.FormatBytes(lo), cachelevels.FormatBytes(hi))

	if *summary {
		regions := analysis.Regions(ds, levels)
		fmt.Fprint(stdout, analysis.FormatRegions(regions))
		if s := analysis.Slowdown(regions); !math.IsNaN(s) {
			fmt.Fprintf(stdout, "random/sequential slowdown %s -> %s: %.1fx\n", regions[0].Name, regions[len(regions)-1].Name, s)
		}
	}

	hn, _ := os.Hostname()
	out := expandOutPath(*outPath, time.Now(), hn)
	opts := render.Options{
		Title:   *title,
		Width:   *width,
		Height:  *height,
		Backend: be,
		Caption: *caption,
	}
	return render.RenderFile(out, ds, levels, opts)
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
