package ui

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardterm/internal/card"
	"cardterm/internal/config"
	"cardterm/internal/storage"
	"cardterm/internal/theme"
)

func newTestConfig(t *testing.T) *config.Store {
	t.Helper()
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	cfg.Config.OutputDir = t.TempDir()
	cfg.Config.Scale = 1
	return cfg
}

func typeText(m *model, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func press(m *model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

func runCmd(t *testing.T, m *model, cmd tea.Cmd) exportDoneMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(exportDoneMsg)
	require.True(t, ok)
	m.Update(msg)
	return msg
}

func TestTypingRecomposesSurface(t *testing.T) {
	m := newModel(Options{Config: newTestConfig(t)})
	require.NotNil(t, m.surface)

	press(m, tea.KeyCtrlU)
	typeText(m, "Grace Hopper")

	assert.Equal(t, "Grace Hopper", m.card.Name)
	assert.Equal(t, "Grace Hopper", m.surface.Card.Name)

	press(m, tea.KeyTab)
	typeText(m, "!")
	assert.Equal(t, "Software Engineer!", m.card.Title)
	assert.Equal(t, "Software Engineer!", m.surface.Card.Title)
}

func TestThemeSelectorCycles(t *testing.T) {
	m := newModel(Options{Config: newTestConfig(t)})
	for i := 0; i < len(m.form.inputs); i++ {
		press(m, tea.KeyTab)
	}
	require.True(t, m.form.onTheme())

	press(m, tea.KeyRight)
	ids := theme.IDs()
	assert.Equal(t, ids[1], m.card.Theme)
	assert.Equal(t, ids[1], m.surface.Card.Theme)

	press(m, tea.KeyLeft)
	press(m, tea.KeyLeft)
	assert.Equal(t, ids[len(ids)-1], m.card.Theme)

	press(m, tea.KeyTab)
	assert.Equal(t, 0, m.form.index, "focus wraps to the first field")
}

func TestExportPNGFromEditor(t *testing.T) {
	cfg := newTestConfig(t)
	m := newModel(Options{Config: cfg})

	cmd := press(m, tea.KeyCtrlS)
	assert.Contains(t, m.infoMessage, "Exporting PNG")
	assert.Equal(t, 1, m.pending)

	done := runCmd(t, m, cmd)
	require.NoError(t, done.err)
	assert.Equal(t, 0, m.pending)
	assert.Empty(t, m.errMessage)
	assert.Contains(t, m.infoMessage, done.result.Path)

	want := filepath.Join(cfg.Config.OutputDir, "John_Doe_business_card.png")
	assert.FileExists(t, want)
}

func TestExportUsesStateAtRequestTime(t *testing.T) {
	cfg := newTestConfig(t)
	m := newModel(Options{Config: cfg})

	cmd := press(m, tea.KeyCtrlP)
	typeText(m, " Jr")
	assert.Equal(t, "John Doe Jr", m.card.Name)

	done := runCmd(t, m, cmd)
	require.NoError(t, done.err)
	assert.Equal(t, "John_Doe_business_card.pdf", done.result.Artifact.Filename)
	assert.FileExists(t, filepath.Join(cfg.Config.OutputDir, "John_Doe_business_card.pdf"))
}

func TestExportUndefinedThemeLeavesCardAlone(t *testing.T) {
	cfg := newTestConfig(t)
	c := card.New()
	require.NoError(t, c.Update(card.FieldTheme, "neon"))
	m := newModel(Options{Config: cfg, Card: &c})

	assert.Nil(t, m.surface)
	assert.Contains(t, m.View(), "undefined")

	cmd := press(m, tea.KeyCtrlS)
	assert.Nil(t, cmd)
	assert.Contains(t, m.errMessage, "not defined")
	assert.Equal(t, c, m.card)

	entries, err := os.ReadDir(cfg.Config.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportDeliveryFailureIsReported(t *testing.T) {
	cfg := newTestConfig(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg.Config.OutputDir = blocker
	m := newModel(Options{Config: cfg})

	done := runCmd(t, m, press(m, tea.KeyCtrlS))
	require.Error(t, done.err)
	assert.Contains(t, m.errMessage, "Could not save the PNG")
	assert.Empty(t, m.infoMessage)
}

func TestHistoryView(t *testing.T) {
	cfg := newTestConfig(t)
	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := newModel(Options{Config: cfg, History: store})
	runCmd(t, m, press(m, tea.KeyCtrlS))

	press(m, tea.KeyCtrlR)
	require.Equal(t, stateHistory, m.state)
	require.Len(t, m.historyView.entries, 1)
	view := m.View()
	assert.Contains(t, view, "Export History")
	assert.Contains(t, view, "John_Doe_business_card.png")

	press(m, tea.KeyEsc)
	assert.Equal(t, stateEditor, m.state)
}

func TestHistoryDisabled(t *testing.T) {
	m := newModel(Options{Config: newTestConfig(t)})
	press(m, tea.KeyCtrlR)
	assert.Contains(t, m.View(), "disabled")
}

func TestQuitKeepsNoCardData(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Config.DefaultTheme = "ocean"
	m := newModel(Options{Config: cfg})
	press(m, tea.KeyCtrlU)
	typeText(m, "Typed Person")

	cmd := press(m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	entries, err := os.ReadDir(filepath.Dir(cfg.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, "config.json", e.Name())
	}

	want := card.New()
	want.Theme = "ocean"
	again := newModel(Options{Config: cfg})
	assert.Equal(t, want, again.card)
	assert.Equal(t, "John Doe", again.form.inputs[0].input.Value())
}

func TestInitBatchesStartupCommands(t *testing.T) {
	m := newModel(Options{Config: newTestConfig(t)})
	cmd := m.Init()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	assert.Len(t, batch, 2)

	assert.Nil(t, batchCmds([]tea.Cmd{nil, nil}))
	only := func() tea.Msg { return nil }
	assert.NotNil(t, batchCmds([]tea.Cmd{nil, only}))
}

func TestEditorViewShowsTipsAndPreview(t *testing.T) {
	m := newModel(Options{Config: newTestConfig(t)})
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 50})

	view := m.View()
	assert.Contains(t, view, "Quick Tips")
	assert.Contains(t, view, "89mm × 51mm")
	assert.Contains(t, view, "John Doe")
	assert.Contains(t, view, "Ctrl+S")
}
