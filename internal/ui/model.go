package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"cardterm/internal/card"
	"cardterm/internal/config"
	"cardterm/internal/export"
	"cardterm/internal/logging"
	"cardterm/internal/storage"
	"cardterm/internal/surface"
	"cardterm/internal/theme"
)

// Program wraps the Bubble Tea program lifecycle.
type Program struct {
	program *tea.Program
}

// Options wires the editor to its collaborators. History and Logger are
// optional; Card overrides the initial card.
type Options struct {
	Config  *config.Store
	History *storage.Store
	Logger  *log.Logger
	Card    *card.Card
}

// NewProgram constructs a new interactive editor session.
func NewProgram(opts Options) *Program {
	m := newModel(opts)
	return &Program{program: tea.NewProgram(m, tea.WithAltScreen())}
}

// Run launches the Bubble Tea program and blocks until it exits.
func (p *Program) Run() error {
	if p == nil || p.program == nil {
		return fmt.Errorf("nil program")
	}
	_, err := p.program.Run()
	return err
}

type viewState int

const (
	stateEditor viewState = iota
	stateHistory
)

const (
	formWidth    = 44
	historyLimit = 20
)

var tips = []string{
	`Standard business card size: 3.5" × 2" (89mm × 51mm)`,
	"PNG format is perfect for digital use",
	"PDF format is ideal for professional printing",
	"Try different themes to match your brand",
}

const windowTitle = "Business Card Generator"

type model struct {
	state       viewState
	prevStates  []viewState
	cfg         *config.Store
	history     *storage.Store
	pipeline    *export.Pipeline
	logger      *log.Logger
	palette     theme.Palette
	width       int
	height      int
	infoMessage string
	errMessage  string

	card      card.Card
	surface   *surface.Surface
	renderErr error
	form      editorForm
	pending   int

	historyView historyModel
}

type editorForm struct {
	index  int
	inputs []fieldInput
}

type fieldInput struct {
	field card.Field
	input textinput.Model
}

// onTheme reports whether the theme selector, which follows the text inputs,
// has focus.
func (f editorForm) onTheme() bool {
	return f.index == len(f.inputs)
}

func (f editorForm) size() int {
	return len(f.inputs) + 1
}

type exportDoneMsg struct {
	format export.Format
	result export.Result
	err    error
}

func newModel(opts Options) *model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	pipelineOpts := []export.Option{
		export.WithScale(opts.Config.Config.Scale),
		export.WithLogger(logger),
	}
	if opts.History != nil {
		pipelineOpts = append(pipelineOpts, export.WithRecorder(opts.History))
	}

	m := model{
		state:    stateEditor,
		cfg:      opts.Config,
		history:  opts.History,
		pipeline: export.New(export.DirSink{Dir: opts.Config.Config.OutputDir}, pipelineOpts...),
		logger:   logger,
		palette:  theme.Default(),
	}
	m.card = m.initialCard(opts.Card)
	m.form = newEditorForm(m.card)
	m.recompose()
	return &m
}

func (m *model) initialCard(override *card.Card) card.Card {
	if override != nil {
		return *override
	}
	c := card.New()
	c.Theme = m.cfg.Config.DefaultTheme
	return c
}

func newEditorForm(c card.Card) editorForm {
	var inputs []fieldInput
	for _, field := range card.Fields() {
		if field == card.FieldTheme {
			continue
		}
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = field.Placeholder()
		ti.CharLimit = 96
		if field == card.FieldAddress {
			ti.CharLimit = 160
		}
		ti.Width = formWidth - 2
		value, _ := c.Value(field)
		ti.SetValue(value)
		inputs = append(inputs, fieldInput{field: field, input: ti})
	}
	inputs[0].input.Focus()
	return editorForm{inputs: inputs}
}

func (m *model) Init() tea.Cmd {
	return batchCmds([]tea.Cmd{textinput.Blink, tea.SetWindowTitle(windowTitle)})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case exportDoneMsg:
		m.finishExport(msg)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateEditor:
		cmd = m.updateEditor(msg)
	case stateHistory:
		cmd = m.updateHistory(msg)
	default:
		m.state = stateEditor
		cmd = m.updateEditor(msg)
	}
	return m, cmd
}

func (m *model) View() string {
	switch m.state {
	case stateEditor:
		return m.viewEditor()
	case stateHistory:
		return m.viewHistory()
	default:
		return ""
	}
}

// Navigation helpers
func (m *model) pushState(next viewState) {
	m.prevStates = append(m.prevStates, m.state)
	m.state = next
}

func (m *model) popState() {
	if len(m.prevStates) == 0 {
		m.state = stateEditor
		return
	}
	idx := len(m.prevStates) - 1
	m.state = m.prevStates[idx]
	m.prevStates = m.prevStates[:idx]
}

func (m *model) resetMessages() {
	m.errMessage = ""
	m.infoMessage = ""
}

func batchCmds(cmds []tea.Cmd) tea.Cmd {
	filtered := cmds[:0]
	for _, c := range cmds {
		if c != nil {
			filtered = append(filtered, c)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return tea.Batch(filtered...)
	}
}

func (m *model) updateEditor(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+s":
			return m.startExport(export.FormatPNG)
		case "ctrl+p":
			return m.startExport(export.FormatPDF)
		case "ctrl+r":
			m.openHistory()
			return nil
		case "tab", "down", "enter":
			return m.moveFocus(1)
		case "shift+tab", "up":
			return m.moveFocus(-1)
		case "esc":
			m.resetMessages()
			return nil
		}
		if m.form.onTheme() {
			switch key.String() {
			case "left", "h":
				m.cycleTheme(-1)
			case "right", "l", " ":
				m.cycleTheme(1)
			}
			return nil
		}
	}
	if m.form.onTheme() {
		return nil
	}

	f := &m.form.inputs[m.form.index]
	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if value := f.input.Value(); value != before {
		m.setField(f.field, value)
	}
	return cmd
}

func (m *model) moveFocus(delta int) tea.Cmd {
	if !m.form.onTheme() {
		m.form.inputs[m.form.index].input.Blur()
	}
	n := m.form.size()
	m.form.index = ((m.form.index+delta)%n + n) % n
	if m.form.onTheme() {
		return nil
	}
	return m.form.inputs[m.form.index].input.Focus()
}

func (m *model) cycleTheme(delta int) {
	m.setField(card.FieldTheme, theme.Next(m.card.Theme, delta))
}

// setField applies one edit and recomposes the surface before returning, so
// the preview and any export requested next see the new value.
func (m *model) setField(field card.Field, value string) {
	if err := m.card.Update(field, value); err != nil {
		m.errMessage = err.Error()
		return
	}
	m.recompose()
}

func (m *model) recompose() {
	s, err := surface.Compose(m.card)
	if err != nil {
		m.surface = nil
		m.renderErr = err
		return
	}
	m.surface = &s
	m.renderErr = nil
}

// captureLive is the export source backed by the mounted surface.
func (m *model) captureLive() (surface.Surface, error) {
	if m.renderErr != nil {
		return surface.Surface{}, m.renderErr
	}
	if m.surface == nil {
		return surface.Surface{}, export.ErrCaptureUnavailable
	}
	return *m.surface, nil
}

func (m *model) startExport(format export.Format) tea.Cmd {
	job, err := m.pipeline.Prepare(export.SourceFunc(m.captureLive), format)
	if err != nil {
		m.infoMessage = ""
		m.errMessage = describeExportError(err)
		return nil
	}
	m.pending++
	m.errMessage = ""
	m.infoMessage = fmt.Sprintf("Exporting %s…", strings.ToUpper(string(format)))
	return runExport(job)
}

func runExport(job *export.Job) tea.Cmd {
	return func() tea.Msg {
		res, err := job.Run(context.Background())
		return exportDoneMsg{format: job.Format(), result: res, err: err}
	}
}

func (m *model) finishExport(msg exportDoneMsg) {
	if m.pending > 0 {
		m.pending--
	}
	if msg.err != nil {
		m.infoMessage = ""
		m.errMessage = describeExportError(msg.err)
		return
	}
	m.errMessage = ""
	m.infoMessage = fmt.Sprintf("Saved %s → %s", strings.ToUpper(string(msg.format)), msg.result.Path)
}

func describeExportError(err error) string {
	e, ok := export.AsError(err)
	if !ok {
		return err.Error()
	}
	switch e.Code {
	case export.CodeUndefinedTheme:
		return "Cannot export: the selected theme is not defined"
	case export.CodeCaptureUnavailable:
		return "Cannot export: the card preview is not ready"
	case export.CodeEncodingFailure:
		return fmt.Sprintf("Could not render the %s: %v", strings.ToUpper(string(e.Format)), errors.Unwrap(e))
	case export.CodeDeliveryFailure:
		return fmt.Sprintf("Could not save the %s: %v", strings.ToUpper(string(e.Format)), errors.Unwrap(e))
	default:
		return e.Error()
	}
}

func (m *model) viewEditor() string {
	header := []string{
		m.palette.Title.Render(windowTitle),
		m.palette.Faint.Render("Create a professional business card and export it as PNG or PDF."),
		"",
	}

	form := m.palette.Panel.Width(formWidth).Render(m.viewForm())
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.palette.Subtitle.Render("Preview"),
		m.viewPreview(),
		"",
		m.viewTips(),
	)

	var body string
	if m.width > 0 && m.width < formWidth+surface.PreviewColumns+6 {
		body = lipgloss.JoinVertical(lipgloss.Left, form, "", right)
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, form, "  ", right)
	}

	lines := append(header, body, "")
	if m.errMessage != "" {
		lines = append(lines, m.palette.Danger.Render(m.errMessage))
	}
	if m.infoMessage != "" {
		lines = append(lines, m.palette.Success.Render(m.infoMessage))
	}
	lines = append(lines, m.viewHelp())
	return strings.Join(lines, "\n") + "\n"
}

func (m *model) viewForm() string {
	lines := []string{m.palette.Subtitle.Render("Card Details"), ""}
	for i, f := range m.form.inputs {
		label := m.palette.Label
		if i == m.form.index {
			label = m.palette.Focused
		}
		lines = append(lines, label.Render(strings.ToUpper(f.field.Label())), f.input.View(), "")
	}

	label := m.palette.Label
	if m.form.onTheme() {
		label = m.palette.Focused
	}
	lines = append(lines, label.Render(strings.ToUpper(card.FieldTheme.Label())), m.viewThemeSelector())
	return strings.Join(lines, "\n")
}

func (m *model) viewThemeSelector() string {
	def, err := theme.Lookup(m.card.Theme)
	if err != nil {
		return m.palette.Danger.Render(fmt.Sprintf("%q (undefined)", m.card.Theme))
	}
	if m.form.onTheme() {
		return m.palette.Accent.Render("‹ " + def.Label + " ›")
	}
	return m.palette.Secondary.Render(def.Label)
}

func (m *model) viewPreview() string {
	if m.surface == nil {
		msg := "Preview unavailable"
		if m.renderErr != nil {
			msg = m.renderErr.Error()
		}
		return m.palette.Panel.
			Width(surface.PreviewColumns - 2).
			Height(surface.PreviewRows - 2).
			Render(m.palette.Danger.Render(msg))
	}
	return surface.Preview(*m.surface)
}

func (m *model) viewTips() string {
	lines := []string{m.palette.Subtitle.Render("Quick Tips")}
	for _, tip := range tips {
		lines = append(lines, m.palette.Secondary.Render("• "+tip))
	}
	return strings.Join(lines, "\n")
}

func (m *model) viewHelp() string {
	pairs := [][2]string{
		{"Tab/↑↓", "Move"},
		{"←/→", "Theme"},
		{"Ctrl+S", "PNG"},
		{"Ctrl+P", "PDF"},
		{"Ctrl+R", "History"},
		{"Ctrl+C", "Quit"},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, m.palette.HelpKey.Render(p[0])+" "+m.palette.HelpValue.Render(p[1]))
	}
	out := strings.Join(parts, "  ")
	if m.pending > 0 {
		out += "  " + m.palette.Faint.Render(fmt.Sprintf("(%d export in progress)", m.pending))
	}
	return out
}
