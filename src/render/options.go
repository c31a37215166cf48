// Package render draws the latency chart: both series against a log-scaled
// size axis with one vertical reference line per cache level.
package render

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the output encoding.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
	PDF Format = "pdf"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch Format(ext) {
	case PNG, SVG, PDF:
		return Format(ext), nil
	}
	return "", fmt.Errorf("unsupported output extension %q (want .png, .svg or .pdf)", filepath.Ext(path))
}

// Backend selects the plotting library.
type Backend string

const (
	BackendChart Backend = "chart" // go-chart
	BackendGonum Backend = "gonum" // gonum/plot
)

// ParseBackend validates a backend name; empty means BackendChart.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendChart, nil
	case BackendChart, BackendGonum:
		return b, nil
	}
	return "", fmt.Errorf("unknown backend %q (want chart|gonum)", s)
}

func (b Backend) supports(f Format) bool {
	if b == BackendGonum {
		return true
	}
	return f == PNG || f == SVG
}

const (
	DefaultTitle           = "Latency as a function of array size"
	DefaultXLabel          = "Bytes allocated (log scale)"
	DefaultYLabel          = "Latency (ns)"
	DefaultRandomLabel     = "Random access"
	DefaultSequentialLabel = "Sequential access"
	DefaultWidth           = 1100
	DefaultHeight          = 520

	minWidth  = 400
	minHeight = 240
)

// Options controls labels, size and backend. Zero values take the defaults.
type Options struct {
	Title           string
	XLabel          string
	YLabel          string
	RandomLabel     string
	SequentialLabel string
	Width           int // px
	Height          int // px
	Backend         Backend
	// Caption is stamped onto the bottom-left of raster output.
	Caption string
}

// withDefaults fills unset fields and clamps the size.
func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.XLabel == "" {
		o.XLabel = DefaultXLabel
	}
	if o.YLabel == "" {
		o.YLabel = DefaultYLabel
	}
	if o.RandomLabel == "" {
		o.RandomLabel = DefaultRandomLabel
	}
	if o.SequentialLabel == "" {
		o.SequentialLabel = DefaultSequentialLabel
	}
	if o.Backend == "" {
		o.Backend = BackendChart
	}
	o.Width, o.Height = dimensions(o.Width, o.Height)
	return o
}

// dimensions applies the default size and minimum clamps.
func dimensions(w, h int) (int, int) {
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	if w < minWidth {
		w = minWidth
	}
	if h < minHeight {
		h = minHeight
	}
	return w, h
}
