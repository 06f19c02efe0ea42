// Package tui implements the interactive job creation wizard: a three-step
// form over the draft controller with a dry-run test panel.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lmxcli/internal/draft"
	"lmxcli/internal/models"
	"lmxcli/internal/service"
	"lmxcli/internal/upload"
)

// App represents the TUI application
type App struct {
	ctrl      *draft.Controller
	testSvc   *service.TestService
	submitSvc *service.SubmitService
	uploads   *upload.Adapter
}

// NewApp creates a new TUI application
func NewApp(ctrl *draft.Controller, testSvc *service.TestService, submitSvc *service.SubmitService, uploads *upload.Adapter) *App {
	return &App{
		ctrl:      ctrl,
		testSvc:   testSvc,
		submitSvc: submitSvc,
		uploads:   uploads,
	}
}

// Run starts the TUI application and reports whether the job was submitted.
func (a *App) Run() (bool, error) {
	model := newModel(a.ctrl, a.testSvc, a.submitSvc, a.uploads)
	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	if m, ok := final.(Model); ok {
		return m.submitted, nil
	}
	return false, nil
}

// rowKind distinguishes free-text rows from fixed-choice rows.
type rowKind int

const (
	rowInput rowKind = iota
	rowSelect
	rowFile
)

// formRow is one focusable line of a form step.
type formRow struct {
	label    string
	kind     rowKind
	input    textinput.Model
	options  []string
	selected int
	apply    func(value string)         // called on every change
	stage    func(path string) error    // called on enter for file rows
	visible  func(d *models.Draft) bool // nil means always visible
}

// Model represents the TUI model
type Model struct {
	ctrl      *draft.Controller
	testSvc   *service.TestService
	submitSvc *service.SubmitService
	uploads   *upload.Adapter

	steps [3][]formRow
	focus int

	testing    bool
	submitting bool
	submitted  bool
	outcome    *service.TestOutcome
	status     string

	width  int
	height int
}

func textRow(label, placeholder, value string, apply func(string)) formRow {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.SetValue(value)
	ti.CharLimit = 0
	return formRow{label: label, kind: rowInput, input: ti, apply: apply}
}

func fileRow(label, placeholder string, stage func(string) error) formRow {
	ti := textinput.New()
	ti.Placeholder = placeholder
	return formRow{label: label, kind: rowFile, input: ti, stage: stage}
}

func selectRow(label string, options []string, selected int, apply func(string)) formRow {
	if selected < 0 {
		selected = 0
	}
	return formRow{label: label, kind: rowSelect, options: options, selected: selected, apply: apply}
}

func indexOf(options []string, v string) int {
	for i, o := range options {
		if o == v {
			return i
		}
	}
	return -1
}

// newModel creates a new model
func newModel(ctrl *draft.Controller, testSvc *service.TestService, submitSvc *service.SubmitService, uploads *upload.Adapter) Model {
	d := ctrl.Draft()

	// The response-mode selector renders its first option as chosen, so the
	// draft must start with that value applied.
	if d.StreamMode == "" {
		ctrl.SetStreamMode(models.StreamModeStream)
	}

	basic := []formRow{
		textRow("Job name", "smoke-test", d.Name, ctrl.SetName),
		textRow("Target host", "https://api.example.com", d.Host, ctrl.SetHost),
		textRow("API path", "/v1/chat/completions", d.APIPath, ctrl.SetAPIPath),
		textRow("Model", "gpt-4o", d.Model, ctrl.SetModel),
		selectRow("Response mode",
			[]string{models.StreamModeStream, models.StreamModeNonStream},
			indexOf([]string{models.StreamModeStream, models.StreamModeNonStream}, d.StreamMode),
			ctrl.SetStreamMode),
		textRow("Payload (JSON)", `{"model":"gpt-4o","messages":[...]}`, d.Payload, ctrl.SetPayload),
		fileRow("Client cert (optional)", "path/to/client.pem", func(p string) error {
			return uploads.StageCertificate(d, p)
		}),
		fileRow("Cert key (optional)", "path/to/client.key", func(p string) error {
			return uploads.StageKey(d, p)
		}),
	}

	sources := []string{
		string(models.DatasetNone),
		string(models.DatasetBuiltin),
		string(models.DatasetInline),
		string(models.DatasetUpload),
	}
	load := []formRow{
		selectRow("Dataset source", sources, indexOf(sources, string(d.DatasetSource)), func(v string) {
			ctrl.SetDatasetSource(models.DatasetSource(v))
			// The dataset-type selector shows "text" as chosen when it
			// appears; the draft must hold that value too.
			if models.DatasetSource(v) == models.DatasetBuiltin &&
				draft.IsChatPath(d.APIPath) && d.DatasetType == "" {
				ctrl.SetDatasetType(models.DatasetTypeText)
			}
		}),
		{
			label:    "Dataset type",
			kind:     rowSelect,
			options:  []string{models.DatasetTypeText, models.DatasetTypeMultimodal},
			selected: 0,
			apply:    ctrl.SetDatasetType,
			visible: func(d *models.Draft) bool {
				return d.DatasetSource == models.DatasetBuiltin && draft.IsChatPath(d.APIPath)
			},
		},
		{
			label: "Inline data (JSONL)",
			kind:  rowInput,
			input: newInput(`{"prompt":"hello"}`, d.InlineData),
			apply: ctrl.SetInlineData,
			visible: func(d *models.Draft) bool {
				return d.DatasetSource == models.DatasetInline
			},
		},
		{
			label: "Dataset file",
			kind:  rowFile,
			input: newInput("path/to/prompts.jsonl", ""),
			stage: func(p string) error { return uploads.StageDataset(d, p) },
			visible: func(d *models.Draft) bool {
				return d.DatasetSource == models.DatasetUpload
			},
		},
		textRow("Duration (s)", "60", formatInt(d.Duration), func(v string) {
			ctrl.SetDuration(parseInt(v))
		}),
		textRow("Concurrent users", "1", formatInt(d.ConcurrentUsers), func(v string) {
			ctrl.SetConcurrentUsers(parseInt(v))
		}),
		textRow("Spawn rate", "1", formatInt(d.SpawnRate), func(v string) {
			ctrl.SetSpawnRate(parseInt(v))
		}),
	}

	fm := d.FieldMapping
	mapping := []formRow{
		textRow("Prompt path", "messages.0.content", fm.Prompt, func(v string) { setMapping(ctrl, func(m *models.FieldMapping) { m.Prompt = v }) }),
		textRow("Data format", "json", fm.DataFormat, func(v string) { setMapping(ctrl, func(m *models.FieldMapping) { m.DataFormat = v }) }),
		textRow("Stream line prefix", "data:", fm.StreamPrefix, func(v string) { setMapping(ctrl, func(m *models.FieldMapping) { m.StreamPrefix = v }) }),
		textRow("Stop flag", "[DONE]", fm.StopFlag, func(v string) { setMapping(ctrl, func(m *models.FieldMapping) { m.StopFlag = v }) }),
		textRow("End prefix", "", fm.EndPrefix, func(v string) { setMapping(ctrl, func(m *models.FieldMapping) { m.EndPrefix = v }) }),
		textRow("End condition", "", fm.EndCondition, func(v string) { setMapping(ctrl, func(m *models.FieldMapping) { m.EndCondition = v }) }),
		textRow("Content path", "choices.0.delta.content", fm.Content, func(v string) { setMapping(ctrl, func(m *models.FieldMapping) { m.Content = v }) }),
		textRow("Reasoning path", "choices.0.delta.reasoning_content", fm.ReasoningContent, func(v string) { setMapping(ctrl, func(m *models.FieldMapping) { m.ReasoningContent = v }) }),
	}

	m := Model{
		ctrl:      ctrl,
		testSvc:   testSvc,
		submitSvc: submitSvc,
		uploads:   uploads,
		steps:     [3][]formRow{basic, load, mapping},
	}
	m.focusRow(0)
	return m
}

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.SetValue(value)
	return ti
}

func setMapping(ctrl *draft.Controller, mutate func(*models.FieldMapping)) {
	fm := ctrl.Draft().FieldMapping
	mutate(&fm)
	ctrl.SetFieldMapping(fm)
}

func parseInt(v string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func formatInt(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

// rows returns the rows of the active step.
func (m *Model) rows() []formRow {
	return m.steps[int(m.ctrl.Step())-1]
}

// visibleIndexes lists the focusable rows of the active step given the
// current draft state.
func (m *Model) visibleIndexes() []int {
	d := m.ctrl.Draft()
	var idx []int
	for i, r := range m.rows() {
		if r.visible == nil || r.visible(d) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (m *Model) focusRow(pos int) {
	vis := m.visibleIndexes()
	if len(vis) == 0 {
		return
	}
	if pos < 0 {
		pos = len(vis) - 1
	}
	if pos >= len(vis) {
		pos = 0
	}
	m.focus = pos
	step := int(m.ctrl.Step()) - 1
	for i := range m.steps[step] {
		m.steps[step][i].input.Blur()
	}
	row := &m.steps[step][vis[pos]]
	if row.kind != rowSelect {
		row.input.Focus()
	}
}

func (m *Model) focusedRow() *formRow {
	vis := m.visibleIndexes()
	if len(vis) == 0 {
		return nil
	}
	if m.focus >= len(vis) {
		m.focus = len(vis) - 1
	}
	return &m.steps[int(m.ctrl.Step())-1][vis[m.focus]]
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case testDoneMsg:
		m.testing = false
		if msg.err != nil {
			m.outcome = nil
			m.status = msg.err.Error()
		} else {
			m.outcome = msg.outcome
			m.status = ""
		}
		return m, nil

	case submitDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.submitted = true
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		// Cancel discards the draft.
		return m, tea.Quit

	case "up", "shift+tab":
		m.focusRow(m.focus - 1)
		return m, nil

	case "down", "tab":
		m.focusRow(m.focus + 1)
		return m, nil

	case "ctrl+n":
		if err := m.ctrl.Next(); err != nil {
			m.status = err.Error()
		} else {
			m.status = ""
			m.focusRow(0)
		}
		return m, nil

	case "ctrl+b":
		m.ctrl.Prev()
		m.status = ""
		m.focusRow(0)
		return m, nil

	case "ctrl+t":
		if m.testing {
			return m, nil
		}
		if !m.ctrl.CanTest() {
			m.status = "fill in host, path, model, response mode, and a valid JSON payload first"
			return m, nil
		}
		m.testing = true
		m.status = ""
		return m, m.runTest()

	case "ctrl+s":
		if m.ctrl.Step() != draft.StepMapping {
			m.status = "finish the remaining steps before submitting (ctrl+n)"
			return m, nil
		}
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		m.status = ""
		return m, m.runSubmit()
	}

	row := m.focusedRow()
	if row == nil {
		return m, nil
	}

	switch row.kind {
	case rowSelect:
		switch msg.String() {
		case "left", "h":
			row.selected = (row.selected + len(row.options) - 1) % len(row.options)
			row.apply(row.options[row.selected])
		case "right", "l":
			row.selected = (row.selected + 1) % len(row.options)
			row.apply(row.options[row.selected])
		case "enter", " ":
			row.apply(row.options[row.selected])
		}
		return m, nil

	case rowFile:
		if msg.String() == "enter" {
			path := strings.TrimSpace(row.input.Value())
			if path == "" {
				return m, nil
			}
			if err := row.stage(path); err != nil {
				m.status = err.Error()
			} else {
				m.status = fmt.Sprintf("staged %s", path)
			}
			return m, nil
		}
		var cmd tea.Cmd
		row.input, cmd = row.input.Update(msg)
		return m, cmd

	default:
		var cmd tea.Cmd
		row.input, cmd = row.input.Update(msg)
		row.apply(row.input.Value())
		return m, cmd
	}
}

// runTest launches the dry-run test flow. The flow runs on a snapshot of
// the draft; editing while the request is in flight never touches the
// state the flow reads.
func (m Model) runTest() tea.Cmd {
	snap, svc := m.ctrl.Snapshot(), m.testSvc
	return func() tea.Msg {
		outcome, err := svc.Run(context.Background(), snap)
		return testDoneMsg{outcome: outcome, err: err}
	}
}

// runSubmit launches the submission flow on a snapshot of the draft. On
// failure the live draft keeps every entered value, staged files included.
func (m Model) runSubmit() tea.Cmd {
	snap, svc := m.ctrl.Snapshot(), m.submitSvc
	return func() tea.Msg {
		return submitDoneMsg{err: svc.Submit(context.Background(), snap)}
	}
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	focusedLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#7D56F4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5A56E0"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

var stepNames = [3]string{"Basic", "Load & Data", "Field Mapping"}

// View renders the current view
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("New Benchmark Job"))
	b.WriteString("\n\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderForm())
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}
	if m.testing {
		b.WriteString(infoStyle.Render("Running endpoint test..."))
		b.WriteString("\n")
	}
	if m.submitting {
		b.WriteString(infoStyle.Render("Submitting job..."))
		b.WriteString("\n")
	}
	if m.outcome != nil {
		b.WriteString("\n")
		b.WriteString(m.renderOutcome())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(infoStyle.Render("↑/↓ move · ←/→ choose · ctrl+n next · ctrl+b back · ctrl+t test · ctrl+s submit · esc cancel"))

	return boxStyle.Render(b.String())
}

func (m Model) renderTabs() string {
	parts := make([]string, len(stepNames))
	for i, name := range stepNames {
		label := fmt.Sprintf("%d. %s", i+1, name)
		if int(m.ctrl.Step()) == i+1 {
			parts[i] = activeTabStyle.Render(label)
		} else {
			parts[i] = tabStyle.Render(label)
		}
	}
	return strings.Join(parts, "   ")
}

func (m Model) renderForm() string {
	var b strings.Builder
	d := m.ctrl.Draft()
	vis := m.visibleIndexes()
	rows := m.rows()

	for pos, i := range vis {
		row := rows[i]
		cursor := "  "
		style := labelStyle
		if pos == m.focus {
			cursor = "> "
			style = focusedLabelStyle
		}
		b.WriteString(cursor)
		b.WriteString(style.Render(fmt.Sprintf("%-22s", row.label)))
		switch row.kind {
		case rowSelect:
			b.WriteString(m.renderChoices(row))
		default:
			b.WriteString(row.input.View())
		}
		b.WriteString("\n")
	}

	if m.ctrl.Step() == draft.StepBasic {
		if d.CertFile != nil {
			b.WriteString(successStyle.Render(fmt.Sprintf("  staged certificate: %s", d.CertFile.Name)))
			b.WriteString("\n")
		}
		if d.KeyFile != nil {
			b.WriteString(successStyle.Render(fmt.Sprintf("  staged key: %s", d.KeyFile.Name)))
			b.WriteString("\n")
		}
	}
	if m.ctrl.Step() == draft.StepLoad && d.DatasetFile != nil {
		b.WriteString(successStyle.Render(fmt.Sprintf("  staged dataset: %s", d.DatasetFile.Name)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderChoices(row formRow) string {
	parts := make([]string, len(row.options))
	for i, opt := range row.options {
		if i == row.selected {
			parts[i] = activeTabStyle.Render("(•) " + opt)
		} else {
			parts[i] = tabStyle.Render("( ) " + opt)
		}
	}
	return strings.Join(parts, "  ")
}

// renderOutcome renders the test result panel. Streaming chunks are listed
// with 1-based ordinals.
func (m Model) renderOutcome() string {
	var b strings.Builder
	out := m.outcome

	if out.Succeeded {
		b.WriteString(successStyle.Render(fmt.Sprintf("Test passed (status %d)", out.StatusCode)))
	} else {
		b.WriteString(errorStyle.Render("Test failed: " + out.Message))
		if out.StatusCode != 0 {
			b.WriteString(tabStyle.Render(fmt.Sprintf(" (status %d)", out.StatusCode)))
		}
	}
	b.WriteString("\n")

	if out.IsStream && len(out.Chunks) > 0 {
		for i, chunk := range out.Chunks {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, chunk))
		}
	} else if out.Body != "" {
		b.WriteString(out.Body)
		b.WriteString("\n")
	}

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}
