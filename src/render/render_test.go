package render

import (
	"bytes"
	"image"
	"image/color"
	_ "image/png" // register PNG decoder
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/os24/memlatplot/src/cachelevels"
	"github.com/os24/memlatplot/src/latency"
)

// benchDataset mimics a geometric sweep from 100 B to ~200 MiB with factor 1.5.
func benchDataset(t *testing.T) *latency.Dataset {
	t.Helper()
	ds := &latency.Dataset{Source: "synthetic"}
	for n := 100.0; n < 200<<20; n *= 1.5 {
		rnd := 1.0
		switch {
		case n > 48<<20:
			rnd = 90
		case n > 5<<20:
			rnd = 30
		case n > 192<<10:
			rnd = 6
		}
		ds.Samples = append(ds.Samples, latency.Sample{Bytes: uint64(n), Random: rnd, Sequential: 0.3 + rnd/100})
	}
	return ds
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestRender_GoChartPNGSize(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, benchDataset(t), cachelevels.Defaults(), Options{Width: 900, Height: 400}, PNG); err != nil {
		t.Fatalf("render: %v", err)
	}
	if w, h := decodeSize(t, buf.Bytes()); w != 900 || h != 400 {
		t.Fatalf("png size = %dx%d want 900x400", w, h)
	}
}

func TestRender_GonumPNGSize(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, benchDataset(t), cachelevels.Defaults(), Options{Backend: BackendGonum}, PNG); err != nil {
		t.Fatalf("render: %v", err)
	}
	w, h := decodeSize(t, buf.Bytes())
	if math.Abs(float64(w-DefaultWidth)) > 1 || math.Abs(float64(h-DefaultHeight)) > 1 {
		t.Fatalf("png size = %dx%d want ~%dx%d", w, h, DefaultWidth, DefaultHeight)
	}
}

func TestRender_SVGCarriesLegend(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, benchDataset(t), cachelevels.Defaults(), Options{}, SVG); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<svg", DefaultTitle, DefaultRandomLabel, DefaultSequentialLabel, "L1 (192 KiB)", "L2 (5 MiB)", "L3 (48 MiB)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("svg output missing %q", want)
		}
	}
}

func TestRender_GonumVectorFormats(t *testing.T) {
	for f, prefix := range map[Format]string{SVG: "<svg", PDF: "%PDF"} {
		var buf bytes.Buffer
		if err := Render(&buf, benchDataset(t), cachelevels.Defaults(), Options{Backend: BackendGonum}, f); err != nil {
			t.Fatalf("render %s: %v", f, err)
		}
		if !strings.Contains(buf.String(), prefix) {
			t.Fatalf("%s output missing %q", f, prefix)
		}
	}
}

func TestRender_Errors(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, benchDataset(t), nil, Options{}, PDF); err == nil {
		t.Fatalf("go-chart backend should refuse pdf")
	}
	if err := Render(&buf, &latency.Dataset{}, nil, Options{}, PNG); err == nil {
		t.Fatalf("empty dataset should fail")
	}
}

func TestRender_SingleSampleNoLevels(t *testing.T) {
	datasets := map[string]*latency.Dataset{
		"single sample": {Samples: []latency.Sample{{Bytes: 4096, Random: 2, Sequential: 2}}},
		// one power of two (128) inside the data
		"narrow sweep": {Samples: []latency.Sample{{Bytes: 100, Random: 5, Sequential: 1}, {Bytes: 200, Random: 6, Sequential: 1}}},
	}
	for name, ds := range datasets {
		for _, b := range []Backend{BackendChart, BackendGonum} {
			var buf bytes.Buffer
			if err := Render(&buf, ds, nil, Options{Backend: b}, PNG); err != nil {
				t.Fatalf("%s/%s: render: %v", name, b, err)
			}
		}
	}
}

func TestSpanTicks(t *testing.T) {
	got := spanTicks(nil, 2, 3)
	if len(got) != 2 || got[0].Value != 2 || got[1].Value != 3 {
		t.Fatalf("empty ticks not spanned: %+v", got)
	}
	inner := []chart.Tick{{Value: 2.5, Label: "mid"}}
	got = spanTicks(inner, 2, 3)
	if len(got) != 3 || got[0].Label != "" || got[1].Label != "mid" || got[2].Value != 3 {
		t.Fatalf("inner tick not padded: %+v", got)
	}
	full := []chart.Tick{{Value: 2, Label: "lo"}, {Value: 3, Label: "hi"}}
	if got = spanTicks(full, 2, 3); len(got) != 2 {
		t.Fatalf("ticks already at the ends were padded: %+v", got)
	}
}

func TestBuildGoChart_TicksCoverWholeRange(t *testing.T) {
	levels := cachelevels.Defaults()
	l := newLayout(benchDataset(t), levels)
	ch := buildGoChart(l, levels, Options{}.withDefaults())

	xt := ch.XAxis.Ticks
	if math.Abs(xt[0].Value-math.Log10(l.xMin)) > 1e-9 || math.Abs(xt[len(xt)-1].Value-math.Log10(l.xMax)) > 1e-9 {
		t.Fatalf("x ticks span [%v,%v] want [%v,%v]", xt[0].Value, xt[len(xt)-1].Value, math.Log10(l.xMin), math.Log10(l.xMax))
	}
	if l3 := math.Log10(float64(48 << 20)); xt[len(xt)-1].Value < l3 {
		t.Fatalf("x axis ends at %v, before L3 at %v", xt[len(xt)-1].Value, l3)
	}
	yt := ch.YAxis.Ticks
	if yt[0].Value != l.yMin || yt[len(yt)-1].Value != l.yMax {
		t.Fatalf("y ticks span [%v,%v] want [%v,%v]", yt[0].Value, yt[len(yt)-1].Value, l.yMin, l.yMax)
	}
}

func TestRender_GoChartDrawsLevelBeyondLastLabel(t *testing.T) {
	// L3 sits past the last labelled tick (16 MiB) of this sweep
	levels := []cachelevels.Level{{Name: "L3", SizeBytes: 48 << 20, Color: "#ff00ff"}}
	var buf bytes.Buffer
	if err := Render(&buf, benchDataset(t), levels, Options{}, PNG); err != nil {
		t.Fatalf("render: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	magenta := 0
	// the legend swatch is on the left; only the marker reaches the right quarter
	for y := b.Min.Y + b.Dy()/4; y < b.Min.Y+3*b.Dy()/4; y++ {
		for x := b.Min.X + 3*b.Dx()/4; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if c.R > 200 && c.B > 200 && c.G < 120 {
				magenta++
			}
		}
	}
	if magenta < 40 {
		t.Fatalf("L3 marker not drawn in the right quarter (%d magenta pixels)", magenta)
	}
}

func TestBuildGonumPlot_LegendAndMarkerLabels(t *testing.T) {
	levels := cachelevels.Defaults()
	l := newLayout(benchDataset(t), levels)
	p, err := buildGonumPlot(l, levels, Options{}.withDefaults())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !p.Legend.Top || !p.Legend.Left {
		t.Fatalf("legend should sit top-left, got top=%v left=%v", p.Legend.Top, p.Legend.Left)
	}
	at := markerLabelAt(p, float64(levels[2].SizeBytes))
	if at.Y >= p.Y.Min+0.1*(p.Y.Max-p.Y.Min) {
		t.Fatalf("marker label at y=%v is not near the bottom of [%v,%v]", at.Y, p.Y.Min, p.Y.Max)
	}
}

func TestRenderFile_CreatesDirsAndCaption(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "out", "plain.png")
	captioned := filepath.Join(dir, "out", "nested", "captioned.png")
	ds := benchDataset(t)
	if err := RenderFile(plain, ds, cachelevels.Defaults(), Options{}); err != nil {
		t.Fatalf("render plain: %v", err)
	}
	if err := RenderFile(captioned, ds, cachelevels.Defaults(), Options{Caption: "bench.csv, factor 1.5"}); err != nil {
		t.Fatalf("render captioned: %v", err)
	}
	a, err := os.ReadFile(plain)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	b, err := os.ReadFile(captioned)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("caption did not change the image")
	}
	if err := RenderFile(filepath.Join(dir, "plot.gif"), ds, nil, Options{}); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestDrawCaption(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 60))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	out := drawCaption(img, "L3 48 MiB")
	changed := 0
	for y := 0; y < 60; y++ {
		for x := 0; x < 300; x++ {
			if out.At(x, y) != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
				changed++
			}
		}
	}
	if changed == 0 {
		t.Fatalf("caption drew nothing")
	}
	if drawCaption(img, "  ") != image.Image(img) {
		t.Fatalf("blank caption should return the input image")
	}
}

func TestFormatFromPath(t *testing.T) {
	for p, want := range map[string]Format{"plot.png": PNG, "a/b/Chart.SVG": SVG, "x.pdf": PDF} {
		got, err := FormatFromPath(p)
		if err != nil || got != want {
			t.Fatalf("FormatFromPath(%q) = %q, %v", p, got, err)
		}
	}
	for _, p := range []string{"plot", "plot.jpg"} {
		if _, err := FormatFromPath(p); err == nil {
			t.Fatalf("FormatFromPath(%q): expected error", p)
		}
	}
}

func TestParseBackend(t *testing.T) {
	if b, err := ParseBackend(""); err != nil || b != BackendChart {
		t.Fatalf("default backend = %q, %v", b, err)
	}
	if b, err := ParseBackend(" Gonum "); err != nil || b != BackendGonum {
		t.Fatalf("gonum backend = %q, %v", b, err)
	}
	if _, err := ParseBackend("matplotlib"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestDimensions(t *testing.T) {
	cases := []struct{ w, h, ww, wh int }{
		{0, 0, DefaultWidth, DefaultHeight},
		{100, 50, minWidth, minHeight},
		{1600, 900, 1600, 900},
	}
	for _, c := range cases {
		if w, h := dimensions(c.w, c.h); w != c.ww || h != c.wh {
			t.Fatalf("dimensions(%d,%d) = %d,%d want %d,%d", c.w, c.h, w, h, c.ww, c.wh)
		}
	}
}
