package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawCaption draws a small caption onto img near the bottom-left.
func drawCaption(img image.Image, caption string) image.Image {
	if img == nil || strings.TrimSpace(caption) == "" {
		return img
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	pad := 4
	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: rgba, Src: image.NewUniform(color.RGBA{R: 60, G: 60, B: 60, A: 255}), Face: face}
	tw := dr.MeasureString(caption).Ceil()
	x := b.Min.X + 8
	y := b.Max.Y - 6
	// light box so the text stays readable over grid lines
	bg := image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 220})
	rect := image.Rect(x-pad, y-face.Metrics().Ascent.Ceil()-pad, x+tw+pad, y+pad/2)
	draw.Draw(rgba, rect, bg, image.Point{}, draw.Over)
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(caption)
	return rgba
}

// stampPNG decodes a rendered PNG, draws the caption and re-encodes it.
func stampPNG(data []byte, caption string) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode for caption: %w", err)
	}
	var out bytes.Buffer
	if err := png.Encode(&out, drawCaption(img, caption)); err != nil {
		return nil, fmt.Errorf("encode captioned png: %w", err)
	}
	return out.Bytes(), nil
}
