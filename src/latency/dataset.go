// Package latency loads the CSV produced by the memory latency benchmark.
//
// Every row is "bytes,random_ns,sequential_ns": the array size that was walked
// and the access-time offset (ns) over the loop baseline for a random and a
// sequential walk. Offsets can be negative when the baseline was noisy.
package latency

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// StdinPath selects standard input in LoadFile.
const StdinPath = "-"

// HeaderMode controls whether the first CSV row is treated as column names.
type HeaderMode int

const (
	// HeaderAuto skips the first row only when its size column is not numeric.
	HeaderAuto HeaderMode = iota
	// HeaderYes always drops the first row.
	HeaderYes
	// HeaderNo treats every row as data.
	HeaderNo
)

func (m HeaderMode) String() string {
	switch m {
	case HeaderYes:
		return "yes"
	case HeaderNo:
		return "no"
	default:
		return "auto"
	}
}

// ParseHeaderMode maps auto|yes|no (and true/false) to a HeaderMode.
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return HeaderAuto, nil
	case "yes", "true", "1":
		return HeaderYes, nil
	case "no", "false", "0":
		return HeaderNo, nil
	}
	return HeaderAuto, fmt.Errorf("unknown header mode %q (want auto|yes|no)", s)
}

// Sample is one measured array size.
type Sample struct {
	Bytes      uint64
	Random     float64 // ns
	Sequential float64 // ns
}

// Dataset holds the samples of one CSV, ordered by Bytes.
type Dataset struct {
	Source  string
	Samples []Sample
}

// ErrNoSamples is returned when the input contains no data rows.
var ErrNoSamples = errors.New("no samples")

// LoadFile reads a benchmark CSV from path ("-" reads stdin).
func LoadFile(path string, mode HeaderMode) (*Dataset, error) {
	if path == StdinPath {
		return Load(os.Stdin, "stdin", mode)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, path, mode)
}

// Load parses benchmark rows from r. source is only used for messages.
func Load(r io.Reader, source string, mode HeaderMode) (*Dataset, error) {
	defer TimeTrack(time.Now(), "load "+source)
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	ds := &Dataset{Source: source}
	first := true
	warnedExtra := false
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(rec) {
			continue
		}
		if first {
			first = false
			// spreadsheet exports lead with a byte order mark
			rec[0] = strings.TrimPrefix(rec[0], "\uFEFF")
			if mode == HeaderYes || (mode == HeaderAuto && !looksNumeric(rec[0])) {
				Debugf("%s: skipping header row %q", source, strings.Join(rec, ","))
				continue
			}
		}
		s, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", source, line, err)
		}
		if len(rec) > 3 && !warnedExtra {
			warnedExtra = true
			Debugf("%s line %d: ignoring %d extra column(s)", source, line, len(rec)-3)
		}
		ds.Samples = append(ds.Samples, s)
	}
	if len(ds.Samples) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrNoSamples)
	}
	sort.SliceStable(ds.Samples, func(i, j int) bool { return ds.Samples[i].Bytes < ds.Samples[j].Bytes })
	Debugf("%s: %d samples, bytes %d..%d", source, len(ds.Samples), ds.Samples[0].Bytes, ds.Samples[len(ds.Samples)-1].Bytes)
	return ds, nil
}

func parseRow(rec []string) (Sample, error) {
	if len(rec) < 3 {
		return Sample{}, fmt.Errorf("want 3 fields (bytes,random,sequential), got %d", len(rec))
	}
	size, err := strconv.ParseUint(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		// sizes written through a float formatter ("4096.0")
		f, ferr := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if ferr != nil || math.IsInf(f, 0) || f < 0 || f >= 1<<64 || f != math.Trunc(f) {
			return Sample{}, fmt.Errorf("bad size %q", rec[0])
		}
		size = uint64(f)
	}
	if size == 0 {
		return Sample{}, fmt.Errorf("size must be positive for a log axis")
	}
	rnd, err := parseLatency(rec[1])
	if err != nil {
		return Sample{}, fmt.Errorf("bad random latency %q", rec[1])
	}
	seq, err := parseLatency(rec[2])
	if err != nil {
		return Sample{}, fmt.Errorf("bad sequential latency %q", rec[2])
	}
	return Sample{Bytes: size, Random: rnd, Sequential: seq}, nil
}

func parseLatency(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite")
	}
	return v, nil
}

func looksNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Samples) }

// Sizes returns the array sizes as float64 for plotting.
func (d *Dataset) Sizes() []float64 {
	out := make([]float64, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = float64(s.Bytes)
	}
	return out
}

// RandomSeries returns the random-access latencies in sample order.
func (d *Dataset) RandomSeries() []float64 {
	out := make([]float64, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = s.Random
	}
	return out
}

// SequentialSeries returns the sequential-access latencies in sample order.
func (d *Dataset) SequentialSeries() []float64 {
	out := make([]float64, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = s.Sequential
	}
	return out
}

// SizeRange returns the smallest and largest array size.
func (d *Dataset) SizeRange() (uint64, uint64) {
	if len(d.Samples) == 0 {
		return 0, 0
	}
	return d.Samples[0].Bytes, d.Samples[len(d.Samples)-1].Bytes
}

// LatencyRange returns min/max over both series.
func (d *Dataset) LatencyRange() (float64, float64) {
	if len(d.Samples) == 0 {
		return 0, 0
	}
	lo, hi := math.MaxFloat64, -math.MaxFloat64
	for _, s := range d.Samples {
		lo = math.Min(lo, math.Min(s.Random, s.Sequential))
		hi = math.Max(hi, math.Max(s.Random, s.Sequential))
	}
	return lo, hi
}
