package surface

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// MaxScale caps the supersampling factor; 8 yields 3200x1920.
const MaxScale = 8

// ErrInvalidScale is returned for a supersampling factor outside 1..MaxScale.
var ErrInvalidScale = fmt.Errorf("scale must be between 1 and %d", MaxScale)

// decorationOpacity matches the faint background circles of the card.
const decorationOpacity = 0.05

// RasterOptions controls a single rasterization.
type RasterOptions struct {
	// Scale multiplies the logical size; 3 yields 1200x720.
	Scale int
	// Opaque paints a white backdrop behind the rounded corners instead of
	// leaving them transparent.
	Opaque bool
}

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
	fontsErr    error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		regularFont, fontsErr = opentype.Parse(goregular.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("parse regular font: %w", fontsErr)
			return
		}
		boldFont, fontsErr = opentype.Parse(gobold.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("parse bold font: %w", fontsErr)
		}
	})
	return fontsErr
}

// Rasterize draws the surface at Width*Scale by Height*Scale pixels.
func Rasterize(s Surface, opts RasterOptions) (*image.NRGBA, error) {
	if opts.Scale < 1 || opts.Scale > MaxScale {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidScale, opts.Scale)
	}
	if err := loadFonts(); err != nil {
		return nil, err
	}
	scale := float64(opts.Scale)
	w, h := Width*opts.Scale, Height*opts.Scale

	body := paintFill(s.style.fill, w, h)
	body = imaging.Overlay(body, paintDecorations(s.style.text, w, h, scale), image.Pt(0, 0), decorationOpacity)

	backdrop := color.NRGBA{}
	if opts.Opaque {
		backdrop = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	clipCard(body, s.style.border, backdrop, scale)

	faces := newFaceCache(scale)
	defer faces.close()
	for _, ln := range s.layout() {
		if ln.marker {
			paintMarker(body, withAlpha(s.style.text, 0.7), ln, scale)
		}
		if err := drawLine(body, faces, ln, scale); err != nil {
			return nil, err
		}
	}
	return body, nil
}

func paintFill(fill Fill, w, h int) *image.NRGBA {
	if !fill.Gradient {
		return imaging.New(w, h, fill.From)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := (float64(x)/float64(w-1) + float64(y)/float64(h-1)) / 2
			img.SetNRGBA(x, y, fill.At(t))
		}
	}
	return img
}

// paintDecorations draws the two circles peeking in from the top-right and
// bottom-left corners on a transparent layer.
func paintDecorations(ink color.NRGBA, w, h int, scale float64) *image.NRGBA {
	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	circles := []struct{ cx, cy, r float64 }{
		{cx: Width, cy: 0, r: 64},
		{cx: 0, cy: Height, r: 48},
	}
	for _, c := range circles {
		cx, cy, r := c.cx*scale, c.cy*scale, c.r*scale
		minX, maxX := clampInt(int(cx-r), 0, w), clampInt(int(math.Ceil(cx+r)), 0, w)
		minY, maxY := clampInt(int(cy-r), 0, h), clampInt(int(math.Ceil(cy+r)), 0, h)
		for y := minY; y < maxY; y++ {
			for x := minX; x < maxX; x++ {
				dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
				if dx*dx+dy*dy <= r*r {
					layer.SetNRGBA(x, y, ink)
				}
			}
		}
	}
	return layer
}

// clipCard rounds the corners and paints the border band in place.
func clipCard(img *image.NRGBA, border, backdrop color.NRGBA, scale float64) {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	r := CornerRadius * scale
	bw := BorderWidth * scale
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			switch {
			case !insideRounded(px, py, 0, 0, w, h, r):
				img.SetNRGBA(x, y, backdrop)
			case !insideRounded(px, py, bw, bw, w-bw, h-bw, math.Max(r-bw, 0)):
				img.SetNRGBA(x, y, border)
			}
		}
	}
}

func insideRounded(px, py, x0, y0, x1, y1, r float64) bool {
	if px < x0 || py < y0 || px > x1 || py > y1 {
		return false
	}
	cx := math.Min(math.Max(px, x0+r), x1-r)
	cy := math.Min(math.Max(py, y0+r), y1-r)
	dx, dy := px-cx, py-cy
	return dx*dx+dy*dy <= r*r
}

func paintMarker(img *image.NRGBA, ink color.NRGBA, ln line, scale float64) {
	cx := (Padding + markerBox/2) * scale
	cy := (ln.top + ln.lineHeight/2) * scale
	r := 3 * scale
	src := image.NewUniform(ink)
	for y := int(cy - r); y <= int(math.Ceil(cy+r)); y++ {
		for x := int(cx - r); x <= int(math.Ceil(cx+r)); x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r*r {
				draw.Draw(img, image.Rect(x, y, x+1, y+1), src, image.Point{}, draw.Over)
			}
		}
	}
}

func drawLine(img *image.NRGBA, faces *faceCache, ln line, scale float64) error {
	face, err := faces.get(ln.size, ln.bold)
	if err != nil {
		return err
	}
	maxWidth := fixed.I(int((Width - Padding - ln.x) * scale))
	text := fitText(face, flatten(ln.text), maxWidth)
	if text == "" {
		return nil
	}

	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	lineHeight := ln.lineHeight * scale
	baseline := ln.top*scale + (lineHeight-(ascent+descent))/2 + ascent

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ln.ink),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(int(ln.x * scale)), Y: fixed.I(int(math.Round(baseline)))},
	}
	d.DrawString(text)
	return nil
}

// flatten keeps the single-line layout when a value carries control whitespace.
func flatten(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', '\v', '\f':
			return ' '
		}
		return r
	}, s)
}

// fitText truncates s with an ellipsis so it fits in limit. The cut point is
// bisected over rune prefixes.
func fitText(face font.Face, s string, limit fixed.Int26_6) string {
	if font.MeasureString(face, s) <= limit {
		return s
	}
	runes := []rune(s)
	candidate := func(n int) string {
		return strings.TrimRight(string(runes[:n]), " ") + "…"
	}
	n := sort.Search(len(runes), func(n int) bool {
		return font.MeasureString(face, candidate(n)) > limit
	})
	if n == 0 {
		return ""
	}
	return candidate(n - 1)
}

type faceKey struct {
	size float64
	bold bool
}

type faceCache struct {
	scale float64
	faces map[faceKey]font.Face
}

func newFaceCache(scale float64) *faceCache {
	return &faceCache{scale: scale, faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) get(size float64, bold bool) (font.Face, error) {
	key := faceKey{size: size, bold: bold}
	if f, ok := c.faces[key]; ok {
		return f, nil
	}
	src := regularFont
	if bold {
		src = boldFont
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size * c.scale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	c.faces[key] = f
	return f, nil
}

func (c *faceCache) close() {
	for _, f := range c.faces {
		f.Close()
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
