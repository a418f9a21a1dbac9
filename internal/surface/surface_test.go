package surface

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"cardterm/internal/card"
	"cardterm/internal/theme"
)

func composeDefault(t *testing.T) Surface {
	t.Helper()
	s, err := Compose(card.New())
	require.NoError(t, err)
	return s
}

func TestComposeUndefinedTheme(t *testing.T) {
	c := card.New()
	require.NoError(t, c.Update(card.FieldTheme, "neon"))

	_, err := Compose(c)
	require.ErrorIs(t, err, theme.ErrUndefinedTheme)
}

func TestComposeResolvesEveryTheme(t *testing.T) {
	for _, id := range theme.IDs() {
		c := card.New()
		require.NoError(t, c.Update(card.FieldTheme, id))
		s, err := Compose(c)
		require.NoError(t, err, id)
		assert.Equal(t, image.Pt(Width, Height), s.Size())
	}
}

func TestComposeSnapshotsCard(t *testing.T) {
	c := card.New()
	s, err := Compose(c)
	require.NoError(t, err)

	require.NoError(t, c.Update(card.FieldName, "Changed"))
	assert.Equal(t, "John Doe", s.Card.Name)
}

func TestRasterizeDimensionsAndTransparency(t *testing.T) {
	s := composeDefault(t)
	img, err := Rasterize(s, RasterOptions{Scale: 3})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 1200, 720), img.Bounds())
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A, "rounded corner must stay transparent")
	assert.Equal(t, uint8(0), img.NRGBAAt(1199, 719).A)
	assert.Equal(t, uint8(0xff), img.NRGBAAt(600, 360).A, "card body is opaque")
}

func TestRasterizeOpaqueBackdrop(t *testing.T) {
	s := composeDefault(t)
	img, err := Rasterize(s, RasterOptions{Scale: 1, Opaque: true})
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, img.NRGBAAt(0, 0))
}

func TestRasterizeDrawsBorderAndAccent(t *testing.T) {
	s := composeDefault(t)
	img, err := Rasterize(s, RasterOptions{Scale: 3})
	require.NoError(t, err)

	border := s.style.border
	assert.Equal(t, border, img.NRGBAAt(600, 1), "top border band")

	accent := s.style.accent
	found := 0
	for y := 24 * 3; y < 52*3; y++ {
		for x := 24 * 3; x < 376*3; x++ {
			if img.NRGBAAt(x, y) == accent {
				found++
			}
		}
	}
	assert.Greater(t, found, 0, "name should be painted in the accent colour")
}

func TestRasterizeRejectsInvalidScale(t *testing.T) {
	s := composeDefault(t)
	for _, scale := range []int{0, -3, MaxScale + 1, 1 << 16} {
		_, err := Rasterize(s, RasterOptions{Scale: scale})
		require.ErrorIs(t, err, ErrInvalidScale, "scale %d", scale)
	}
}

func TestRasterizeLongContentKeepsBounds(t *testing.T) {
	c := card.New()
	require.NoError(t, c.Update(card.FieldName, strings.Repeat("Very Long Name ", 20)))
	require.NoError(t, c.Update(card.FieldAddress, "line one\nline two"))
	require.NoError(t, c.Update(card.FieldEmail, ""))
	require.NoError(t, c.Update(card.FieldTheme, "sunset"))
	s, err := Compose(c)
	require.NoError(t, err)

	img, err := Rasterize(s, RasterOptions{Scale: 2})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 480), img.Bounds())
}

func TestGradientFill(t *testing.T) {
	fill, err := parseFill("bg-gradient-to-br from-slate-900 to-slate-700")
	require.NoError(t, err)
	require.True(t, fill.Gradient)

	from, _ := parseHex("#0f172a")
	to, _ := parseHex("#334155")
	assert.Equal(t, from, fill.At(0))
	assert.Equal(t, to, fill.At(1))
	assert.Equal(t, to, fill.At(2))
	mid := fill.At(0.5)
	assert.Equal(t, uint8(0x21), mid.R)
	assert.Equal(t, uint8(0x2c), mid.G)
	assert.InDelta(t, 63.5, float64(mid.B), 0.5)
	assert.Equal(t, uint8(0xff), mid.A)

	solid, err := parseFill("bg-white")
	require.NoError(t, err)
	assert.False(t, solid.Gradient)
	assert.Equal(t, solid.From, solid.At(0.7))
}

func TestParseHex(t *testing.T) {
	c, err := parseHex("#3b82f6")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}, c)
	assert.Equal(t, "#3b82f6", hexString(c))

	bare, err := parseHex("3b82f6")
	require.NoError(t, err)
	assert.Equal(t, c, bare)

	for _, bad := range []string{"", "#12", "#zzzzzz"} {
		_, err := parseHex(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseTokensRejectUnknown(t *testing.T) {
	cases := []string{"bg-chartreuse", "bg-gradient-to-tl from-red-500 to-red-400", "white", ""}
	for _, tc := range cases {
		_, err := parseFill(tc)
		assert.ErrorIs(t, err, ErrUnknownToken, tc)
	}
	_, err := parseColor("border-red-500", "text-")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestFitTextTruncatesWithEllipsis(t *testing.T) {
	require.NoError(t, loadFonts())
	face, err := opentype.NewFace(regularFont, &opentype.FaceOptions{Size: 12, DPI: 72, Hinting: font.HintingFull})
	require.NoError(t, err)
	defer face.Close()

	assert.Equal(t, "short", fitText(face, "short", fixed.I(200)))

	long := strings.Repeat("abcdefghij", 10)
	got := fitText(face, long, fixed.I(60))
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, font.MeasureString(face, got), fixed.I(60))
	assert.Empty(t, fitText(face, long, fixed.I(1)))
}

func TestFitTextHugeInput(t *testing.T) {
	require.NoError(t, loadFonts())
	face, err := opentype.NewFace(regularFont, &opentype.FaceOptions{Size: 12, DPI: 72, Hinting: font.HintingFull})
	require.NoError(t, err)
	defer face.Close()

	huge := strings.Repeat("abcdefghij", 20000)
	got := fitText(face, huge, fixed.I(120))
	require.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, font.MeasureString(face, got), fixed.I(120))

	kept := []rune(strings.TrimSuffix(got, "…"))
	longer := string([]rune(huge)[:len(kept)+1]) + "…"
	assert.Greater(t, font.MeasureString(face, longer), fixed.I(120), "cut point is the longest prefix that fits")
}

func TestTruncateCells(t *testing.T) {
	assert.Equal(t, "short", truncateCells("short", 10))
	assert.Empty(t, truncateCells("anything", 0))
	assert.Equal(t, "…", truncateCells("anything", 1))

	got := truncateCells(strings.Repeat("x", 200000), 12)
	assert.Equal(t, strings.Repeat("x", 11)+"…", got)

	wide := truncateCells(strings.Repeat("名", 50), 9)
	assert.LessOrEqual(t, lipgloss.Width(wide), 9)
	assert.Equal(t, strings.Repeat("名", 4)+"…", wide)
}

func TestPreviewHasFixedGeometry(t *testing.T) {
	short := composeDefault(t)

	c := card.New()
	require.NoError(t, c.Update(card.FieldCompany, strings.Repeat("Enormous Holdings ", 10)))
	long, err := Compose(c)
	require.NoError(t, err)

	for _, s := range []Surface{short, long} {
		out := Preview(s)
		assert.Equal(t, PreviewColumns, lipgloss.Width(out))
		assert.Equal(t, PreviewRows, lipgloss.Height(out))
	}
	assert.Contains(t, Preview(short), "John Doe")
	assert.Contains(t, Preview(short), "www.johndoe.com")
}
