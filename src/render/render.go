package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/os24/memlatplot/src/cachelevels"
	"github.com/os24/memlatplot/src/latency"
)

// Render draws ds with one reference line per level and writes it to w in format f.
func Render(w io.Writer, ds *latency.Dataset, levels []cachelevels.Level, opts Options, f Format) error {
	if ds == nil || ds.Len() == 0 {
		return fmt.Errorf("render: %w", latency.ErrNoSamples)
	}
	o := opts.withDefaults()
	if !o.Backend.supports(f) {
		return fmt.Errorf("backend %s cannot write %s", o.Backend, f)
	}
	defer latency.TimeTrack(time.Now(), fmt.Sprintf("render %s/%s", o.Backend, f))
	l := newLayout(ds, levels)

	var buf bytes.Buffer
	var err error
	switch o.Backend {
	case BackendGonum:
		err = renderGonum(&buf, l, levels, o, f)
	default:
		err = renderGoChart(&buf, l, levels, o, f)
	}
	if err != nil {
		return err
	}
	out := buf.Bytes()
	if f == PNG && strings.TrimSpace(o.Caption) != "" {
		if out, err = stampPNG(out, o.Caption); err != nil {
			return err
		}
	} else if o.Caption != "" {
		latency.Debugf("render: caption ignored for %s output", f)
	}
	_, err = w.Write(out)
	return err
}

// RenderFile renders into path, creating parent directories. The format
// comes from the extension.
func RenderFile(path string, ds *latency.Dataset, levels []cachelevels.Level, opts Options) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Render(&buf, ds, levels, opts, f); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create out dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	latency.Infof("wrote %s (%d bytes, %d samples, %d cache levels)", path, buf.Len(), ds.Len(), len(levels))
	return nil
}
