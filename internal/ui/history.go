package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"cardterm/internal/storage"
)

type historyModel struct {
	entries []storage.Export
	counts  []storage.FormatCount
	err     string
}

func (m *model) openHistory() {
	m.pushState(stateHistory)
	m.refreshHistory()
}

func (m *model) refreshHistory() {
	m.historyView = historyModel{}
	if m.history == nil {
		m.historyView.err = "Export history is disabled"
		return
	}
	ctx := context.Background()
	entries, err := m.history.ListExports(ctx, historyLimit)
	if err != nil {
		m.historyView.err = fmt.Sprintf("load history: %v", err)
		return
	}
	counts, err := m.history.CountByFormat(ctx)
	if err != nil {
		m.historyView.err = fmt.Sprintf("count history: %v", err)
		return
	}
	m.historyView.entries = entries
	m.historyView.counts = counts
}

func (m *model) updateHistory(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "esc", "/", "q", "ctrl+r":
		m.popState()
	case "r":
		m.refreshHistory()
	}
	return nil
}

func (m *model) viewHistory() string {
	lines := []string{
		m.palette.Title.Render("Export History"),
		m.palette.Faint.Render("Most recent exports first. 'r' refreshes, Esc or '/' goes back."),
		"",
	}
	if m.historyView.err != "" {
		lines = append(lines, m.palette.Danger.Render(m.historyView.err))
		return strings.Join(lines, "\n") + "\n"
	}
	if len(m.historyView.entries) == 0 {
		lines = append(lines, m.palette.Faint.Render("No exports yet. Press Ctrl+S or Ctrl+P in the editor."))
		return strings.Join(lines, "\n") + "\n"
	}

	summary := make([]string, 0, len(m.historyView.counts))
	for _, c := range m.historyView.counts {
		summary = append(summary, fmt.Sprintf("%s: %d", strings.ToUpper(c.Format), c.Count))
	}
	lines = append(lines, m.palette.Secondary.Render(strings.Join(summary, "  ")), "")

	for _, e := range m.historyView.entries {
		when := e.CreatedAt.Local().Format("2006-01-02 15:04")
		lines = append(lines, fmt.Sprintf("%s  %s  %s",
			m.palette.Faint.Render(when),
			m.palette.Accent.Render(strings.ToUpper(e.Format)),
			m.palette.Secondary.Render(e.Filename),
		))
		if e.Path != "" {
			lines = append(lines, "    "+m.palette.Faint.Render(e.Path))
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
