package surface

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrUnknownToken is returned when a theme token names a colour the renderer
// cannot resolve.
var ErrUnknownToken = errors.New("unknown style token")

// swatches maps utility colour names to their sRGB values.
var swatches = map[string]string{
	"white":      "#ffffff",
	"black":      "#000000",
	"gray-50":    "#f9fafb",
	"gray-100":   "#f3f4f6",
	"gray-200":   "#e5e7eb",
	"gray-300":   "#d1d5db",
	"gray-500":   "#6b7280",
	"gray-600":   "#4b5563",
	"gray-700":   "#374151",
	"gray-800":   "#1f2937",
	"gray-900":   "#111827",
	"slate-600":  "#475569",
	"slate-700":  "#334155",
	"slate-900":  "#0f172a",
	"blue-100":   "#dbeafe",
	"blue-200":   "#bfdbfe",
	"blue-400":   "#60a5fa",
	"blue-600":   "#2563eb",
	"blue-800":   "#1e40af",
	"blue-900":   "#1e3a8a",
	"cyan-400":   "#22d3ee",
	"teal-500":   "#14b8a6",
	"purple-200": "#e9d5ff",
	"purple-500": "#a855f7",
	"purple-700": "#7e22ce",
	"purple-900": "#581c87",
	"yellow-400": "#facc15",
	"yellow-500": "#eab308",
	"yellow-800": "#854d0e",
	"pink-100":   "#fce7f3",
	"pink-300":   "#f9a8d4",
	"pink-500":   "#ec4899",
	"orange-400": "#fb923c",
	"amber-200":  "#fde68a",
	"amber-600":  "#d97706",
	"amber-900":  "#78350f",
	"green-200":  "#bbf7d0",
	"green-500":  "#22c55e",
	"green-600":  "#16a34a",
	"green-800":  "#166534",
	"red-100":    "#fee2e2",
	"red-400":    "#f87171",
	"red-500":    "#ef4444",
}

// Fill is a solid colour or a top-left to bottom-right gradient.
type Fill struct {
	From     color.NRGBA
	To       color.NRGBA
	Gradient bool
}

// At returns the fill colour at position t in [0,1] along the gradient.
func (f Fill) At(t float64) color.NRGBA {
	if !f.Gradient {
		return f.From
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	r, g, b := toColorful(f.From).BlendRgb(toColorful(f.To), t).Clamped().RGB255()
	a := float64(f.From.A) + (float64(f.To.A)-float64(f.From.A))*t
	return color.NRGBA{R: r, G: g, B: b, A: uint8(a + 0.5)}
}

// toColorful drops alpha; callers blend it separately.
func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// style is a theme definition with every token resolved.
type style struct {
	fill   Fill
	text   color.NRGBA
	accent color.NRGBA
	border color.NRGBA
}

// parseFill understands "bg-<colour>" and
// "bg-gradient-to-br from-<colour> to-<colour>".
func parseFill(token string) (Fill, error) {
	parts := strings.Fields(token)
	switch {
	case len(parts) == 1:
		c, err := parseColor(parts[0], "bg-")
		if err != nil {
			return Fill{}, err
		}
		return Fill{From: c, To: c}, nil
	case len(parts) == 3 && parts[0] == "bg-gradient-to-br":
		from, err := parseColor(parts[1], "from-")
		if err != nil {
			return Fill{}, err
		}
		to, err := parseColor(parts[2], "to-")
		if err != nil {
			return Fill{}, err
		}
		return Fill{From: from, To: to, Gradient: true}, nil
	default:
		return Fill{}, fmt.Errorf("%w: background %q", ErrUnknownToken, token)
	}
}

func parseColor(token, prefix string) (color.NRGBA, error) {
	name, ok := strings.CutPrefix(strings.TrimSpace(token), prefix)
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w: %q lacks %q prefix", ErrUnknownToken, token, prefix)
	}
	hex, ok := swatches[name]
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w: colour %q", ErrUnknownToken, name)
	}
	return parseHex(hex)
}

func parseHex(s string) (color.NRGBA, error) {
	c, err := colorful.Hex("#" + strings.TrimPrefix(s, "#"))
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

func hexString(c color.NRGBA) string {
	return toColorful(c).Hex()
}

func withAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(float64(c.A)*opacity + 0.5)
	return c
}
