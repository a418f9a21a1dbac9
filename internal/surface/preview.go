package surface

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal cell geometry of the preview box, border included.
const (
	PreviewColumns = 48
	PreviewRows    = 13
)

var contactGlyphs = [...]string{"☎", "✉", "◎", "⌂"}

// Preview renders the surface for the terminal. The box keeps the same cell
// size whatever the content length.
func Preview(s Surface) string {
	st := s.style
	text := lipgloss.Color(hexString(st.text))
	accent := lipgloss.Color(hexString(st.accent))
	bg := lipgloss.Color(hexString(st.fill.At(0.5)))

	inner := PreviewColumns - 2 - 4
	base := lipgloss.NewStyle().Background(bg).Foreground(text)
	emph := base.Foreground(accent).Bold(true)
	faint := base.Faint(true)

	var header, contacts []string
	contactIdx := 0
	for _, ln := range s.layout() {
		value := flatten(ln.text)
		switch {
		case ln.marker:
			glyph := contactGlyphs[contactIdx%len(contactGlyphs)]
			contactIdx++
			contacts = append(contacts, faint.Render(glyph+" ")+base.Render(truncateCells(value, inner-2)))
		case ln.bold:
			header = append(header, emph.Render(truncateCells(value, inner)))
		default:
			header = append(header, base.Render(truncateCells(value, inner)))
		}
	}

	rows := PreviewRows - 2 - 2
	gap := rows - len(header) - len(contacts)
	if gap < 0 {
		gap = 0
	}
	body := make([]string, 0, rows)
	body = append(body, header...)
	for i := 0; i < gap; i++ {
		body = append(body, "")
	}
	body = append(body, contacts...)

	box := lipgloss.NewStyle().
		Width(PreviewColumns-2).
		Height(PreviewRows-2).
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(hexString(st.border))).
		Background(bg).
		Foreground(text)
	return box.Render(strings.Join(body, "\n"))
}

func truncateCells(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= limit {
		return s
	}
	runes := []rune(s)
	n := sort.Search(len(runes), func(n int) bool {
		return lipgloss.Width(string(runes[:n])+"…") > limit
	})
	if n == 0 {
		return ""
	}
	return string(runes[:n-1]) + "…"
}
