// Package cachelevels describes the cache hierarchy drawn as reference lines on
// latency charts.
package cachelevels

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"sort"
	"strconv"
	"strings"

	humanize "github.com/dustin/go-humanize"
)

const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
)

// Level is one cache boundary.
type Level struct {
	Name      string
	SizeBytes uint64
	Color     string // palette name or #rrggbb
}

// Defaults returns the hierarchy of the machine the benchmark was tuned on.
func Defaults() []Level {
	return []Level{
		{Name: "L1", SizeBytes: 192 * KiB, Color: "red"},
		{Name: "L2", SizeBytes: 5 * MiB, Color: "green"},
		{Name: "L3", SizeBytes: 48 * MiB, Color: "brown"},
	}
}

var palette = map[string]color.RGBA{
	"red":    {R: 255, G: 0, B: 0, A: 255},
	"green":  {R: 0, G: 128, B: 0, A: 255},
	"brown":  {R: 165, G: 42, B: 42, A: 255},
	"blue":   {R: 0, G: 0, B: 255, A: 255},
	"orange": {R: 255, G: 165, B: 0, A: 255},
	"purple": {R: 128, G: 0, B: 128, A: 255},
	"gray":   {R: 128, G: 128, B: 128, A: 255},
	"black":  {R: 0, G: 0, B: 0, A: 255},
}

// fallback colors when a level doesn't name one, in hierarchy order
var cycle = []string{"red", "green", "brown", "blue", "orange", "purple"}

// ParseColor resolves a palette name or #rrggbb.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := palette[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
		}
	}
	return color.RGBA{}, fmt.Errorf("unknown color %q", s)
}

// RGBA returns the level color; unknown names render gray.
func (l Level) RGBA() color.RGBA {
	c, err := ParseColor(l.Color)
	if err != nil {
		return palette["gray"]
	}
	return c
}

// Label renders e.g. "L2 (5 MiB)".
func (l Level) Label() string {
	return fmt.Sprintf("%s (%s)", l.Name, FormatBytes(l.SizeBytes))
}

// FormatBytes shows n in the largest binary unit it reaches, truncated to an
// integer (5.5 MiB prints as "5 MiB").
func FormatBytes(n uint64) string {
	switch {
	case n >= GiB:
		return fmt.Sprintf("%d GiB", n/GiB)
	case n >= MiB:
		return fmt.Sprintf("%d MiB", n/MiB)
	case n >= KiB:
		return fmt.Sprintf("%d KiB", n/KiB)
	}
	return fmt.Sprintf("%d B", n)
}

// Parse reads "L1=192KiB,L2=5MiB:green,L3=48MiB:#a52a2a". An empty string
// yields no levels.
func Parse(s string) ([]Level, error) {
	var levels []Level
	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, rest, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("cache level %q: want name=size[:color]", part)
		}
		size, col, _ := strings.Cut(rest, ":")
		lvl, err := newLevel(name, size, col, i)
		if err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return finish(levels)
}

func newLevel(name, size, col string, idx int) (Level, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Level{}, fmt.Errorf("cache level %d: empty name", idx+1)
	}
	n, err := humanize.ParseBytes(strings.TrimSpace(size))
	if err != nil {
		return Level{}, fmt.Errorf("cache level %s: size %q: %w", name, size, err)
	}
	if n == 0 {
		return Level{}, fmt.Errorf("cache level %s: size must be positive", name)
	}
	col = strings.TrimSpace(col)
	if col == "" {
		col = cycle[idx%len(cycle)]
	} else if _, err := ParseColor(col); err != nil {
		return Level{}, fmt.Errorf("cache level %s: %w", name, err)
	}
	return Level{Name: name, SizeBytes: n, Color: col}, nil
}

func finish(levels []Level) ([]Level, error) {
	seen := map[string]bool{}
	for _, l := range levels {
		if seen[l.Name] {
			return nil, fmt.Errorf("duplicate cache level %q", l.Name)
		}
		seen[l.Name] = true
	}
	sort.SliceStable(levels, func(i, j int) bool { return levels[i].SizeBytes < levels[j].SizeBytes })
	return levels, nil
}

// Machine is the JSONC description accepted by LoadFile.
type Machine struct {
	Name   string `json:"name"`
	Caches []struct {
		Name  string `json:"name"`
		Size  string `json:"size"`
		Color string `json:"color,omitempty"`
	} `json:"caches"`
}

// StripJSONC loads a machine file and returns plain JSON: a leading byte order
// mark is dropped and // comments are cut, whole-line or trailing, as long as
// they sit outside a string.
func StripJSONC(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []byte
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if n == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		line = cutComment(line)
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return out, nil
}

// cutComment drops a // comment; slashes inside "..." (colors, paths) stay.
func cutComment(line string) string {
	inString, escaped := false, false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}

// LoadFile reads a machine description and returns its levels and name.
func LoadFile(path string) ([]Level, string, error) {
	b, err := StripJSONC(path)
	if err != nil {
		return nil, "", err
	}
	var m Machine
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	levels := make([]Level, 0, len(m.Caches))
	for i, c := range m.Caches {
		lvl, err := newLevel(c.Name, c.Size, c.Color, i)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
		levels = append(levels, lvl)
	}
	levels, err = finish(levels)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return levels, m.Name, nil
}

// Region names the cache level that holds an array of n bytes, or "RAM"
// when it exceeds every level. levels must be sorted by size.
func Region(levels []Level, n uint64) string {
	for _, l := range levels {
		if n <= l.SizeBytes {
			return l.Name
		}
	}
	return "RAM"
}
