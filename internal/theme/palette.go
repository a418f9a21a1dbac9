package theme

import "github.com/charmbracelet/lipgloss"

// Palette holds the terminal styles for the editor chrome around the card.
type Palette struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Accent    lipgloss.Style
	Label     lipgloss.Style
	Focused   lipgloss.Style
	Secondary lipgloss.Style
	Success   lipgloss.Style
	Danger    lipgloss.Style
	Faint     lipgloss.Style
	Panel     lipgloss.Style
	HelpKey   lipgloss.Style
	HelpValue lipgloss.Style
}

// Default returns a high-contrast palette that plays nicely with common terminals.
func Default() Palette {
	return Palette{
		Title:     lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true).Underline(true),
		Subtitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true),
		Accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("219")).Bold(true),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("249")).Bold(true),
		Focused:   lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
		Secondary: lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Danger:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		Faint:     lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Panel:     lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		HelpKey:   lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true),
		HelpValue: lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	}
}
