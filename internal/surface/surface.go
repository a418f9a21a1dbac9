// Package surface composes a card and its theme into the fixed-size business
// card layout, and renders that layout either as pixels or as a terminal
// preview.
package surface

import (
	"fmt"
	"image"
	"image/color"

	"cardterm/internal/card"
	"cardterm/internal/theme"
)

// Logical dimensions in CSS-like pixels. Raster output multiplies them by the
// capture scale.
const (
	Width        = 400
	Height       = 240
	Padding      = 24
	CornerRadius = 8
	BorderWidth  = 2

	markerBox = 12
	markerGap = 8
)

// Surface is an immutable snapshot of a card bound to its resolved theme.
type Surface struct {
	Card  card.Card
	Theme theme.Definition
	style style
}

// Compose binds a card to its theme. It fails with theme.ErrUndefinedTheme
// when the card references a theme outside the registry, and with
// ErrUnknownToken when a theme token cannot be resolved.
func Compose(c card.Card) (Surface, error) {
	def, err := theme.Lookup(c.Theme)
	if err != nil {
		return Surface{}, err
	}
	st, err := resolve(def)
	if err != nil {
		return Surface{}, fmt.Errorf("theme %q: %w", c.Theme, err)
	}
	return Surface{Card: c, Theme: def, style: st}, nil
}

func resolve(def theme.Definition) (style, error) {
	fill, err := parseFill(def.Background)
	if err != nil {
		return style{}, err
	}
	text, err := parseColor(def.Text, "text-")
	if err != nil {
		return style{}, err
	}
	accent, err := parseColor(def.Accent, "text-")
	if err != nil {
		return style{}, err
	}
	border, err := parseColor(def.Border, "border-")
	if err != nil {
		return style{}, err
	}
	return style{fill: fill, text: text, accent: accent, border: border}, nil
}

// Size returns the logical bounding box, which never depends on content.
func (s Surface) Size() image.Point {
	return image.Pt(Width, Height)
}

// line is one run of text positioned in logical units.
type line struct {
	field      card.Field
	text       string
	size       float64
	lineHeight float64
	bold       bool
	ink        color.NRGBA
	x, top     float64
	marker     bool
}

// layout places the header block at the top edge and the contact block at the
// bottom edge of the padded content box.
func (s Surface) layout() []line {
	c := s.Card
	st := s.style

	lines := make([]line, 0, 7)
	y := float64(Padding)
	lines = append(lines, line{field: card.FieldName, text: c.Name, size: 20, lineHeight: 28, bold: true, ink: st.accent, x: Padding, top: y})
	y += 28 + 4
	lines = append(lines, line{field: card.FieldTitle, text: c.Title, size: 14, lineHeight: 20, ink: withAlpha(st.text, 0.9), x: Padding, top: y})
	y += 20 + 4
	lines = append(lines, line{field: card.FieldCompany, text: c.Company, size: 14, lineHeight: 20, bold: true, ink: st.accent, x: Padding, top: y})

	const contactHeight, contactGap = 16, 4
	contacts := []struct {
		field card.Field
		text  string
	}{
		{card.FieldPhone, c.Phone},
		{card.FieldEmail, c.Email},
		{card.FieldWebsite, c.Website},
		{card.FieldAddress, c.Address},
	}
	block := float64(len(contacts)*contactHeight + (len(contacts)-1)*contactGap)
	y = float64(Height-Padding) - block
	for _, ct := range contacts {
		lines = append(lines, line{
			field:      ct.field,
			text:       ct.text,
			size:       12,
			lineHeight: contactHeight,
			ink:        st.text,
			x:          Padding + markerBox + markerGap,
			top:        y,
			marker:     true,
		})
		y += contactHeight + contactGap
	}
	return lines
}
