// ABOUTME: Interactive TUI form for configuring the embedding endpoint.
// ABOUTME: Collects base URL, model, and optional API key, then embeds a probe before saving.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/curate/internal/config"
)

type phase int

const (
	phaseEditing phase = iota
	phaseValidating
	phaseDone
)

// Field indexes.
const (
	fieldBaseURL = iota
	fieldModel
	fieldAPIKey
	fieldCount
)

// validationResultMsg carries the result of an async validation attempt.
type validationResultMsg struct {
	err error
}

// ValidateFn checks that an endpoint can embed text with the given model.
type ValidateFn func(ctx context.Context, baseURL, model, apiKey string) error

// cancelHolder shares a cancel function across bubbletea model copies.
type cancelHolder struct {
	cancel context.CancelFunc
}

// field is one labelled input. finish rewrites the value when the user
// leaves the field.
type field struct {
	label  string
	hint   string
	input  textinput.Model
	finish func(string) string
	secret bool
}

func newField(label, hint, placeholder, value string, finish func(string) string) field {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Width = 50
	if value != "" {
		in.SetValue(value)
	}
	return field{label: label, hint: hint, input: in, finish: finish}
}

// display is the value shown when the field is not being edited.
func (f field) display() string {
	v := f.input.Value()
	switch {
	case v == "":
		return "(none)"
	case f.secret:
		return strings.Repeat("*", len(v))
	default:
		return v
	}
}

// SetupModel is the bubbletea model for the setup form. A failed validation
// returns to the form with the error shown; only a working endpoint is saved.
type SetupModel struct {
	fields   [fieldCount]field
	focus    int
	phase    phase
	spinner  spinner.Model
	validate ValidateFn
	cancel   *cancelHolder
	err      error
	quitting bool
}

var (
	brandStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// NewSetupModel creates the form, pre-filled with existing config values.
func NewSetupModel(baseURL, model, apiKey string) SetupModel {
	m := SetupModel{
		fields: [fieldCount]field{
			newField("Base URL", "enter for local Ollama", config.DefaultBaseURL, baseURL, NormalizeBaseURL),
			newField("Model", "enter for "+config.DefaultModel, config.DefaultModel, model, defaultModel),
			newField("API Key", "optional for Ollama", "leave empty for Ollama", apiKey, nil),
		},
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		validate: ValidateEmbedding,
		cancel:   &cancelHolder{},
	}
	m.fields[fieldAPIKey].secret = true
	m.fields[fieldAPIKey].input.EchoMode = textinput.EchoPassword
	m.fields[fieldBaseURL].input.Focus()
	return m
}

// NormalizeBaseURL trims trailing slashes and makes sure the URL ends in /v1.
func NormalizeBaseURL(val string) string {
	val = strings.TrimRight(strings.TrimSpace(val), "/")
	if val == "" {
		return config.DefaultBaseURL
	}
	if !strings.HasSuffix(val, "/v1") {
		val += "/v1"
	}
	return val
}

func defaultModel(val string) string {
	if val = strings.TrimSpace(val); val == "" {
		return config.DefaultModel
	}
	return val
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEscape {
			m.quitting = true
			if m.cancel.cancel != nil {
				m.cancel.cancel()
			}
			return m, tea.Quit
		}
		if m.phase != phaseEditing {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyShiftTab, tea.KeyUp:
			return m.focusOn(m.focus - 1)
		}
		var cmd tea.Cmd
		m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
		return m, cmd

	case validationResultMsg:
		m.cancel.cancel = nil
		if msg.err != nil {
			m.err = msg.err
			m.phase = phaseEditing
			return m.focusOn(fieldBaseURL)
		}
		m.phase = phaseDone
		return m, tea.Quit

	case spinner.TickMsg:
		if m.phase == phaseValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// submit finishes the focused field and moves on; the last field starts validation.
func (m SetupModel) submit() (tea.Model, tea.Cmd) {
	f := &m.fields[m.focus]
	if f.finish != nil {
		f.input.SetValue(f.finish(f.input.Value()))
	}
	if m.focus < fieldCount-1 {
		return m.focusOn(m.focus + 1)
	}

	f.input.Blur()
	m.phase = phaseValidating
	m.err = nil
	return m, tea.Batch(m.startValidation(), m.spinner.Tick)
}

func (m SetupModel) focusOn(i int) (tea.Model, tea.Cmd) {
	if i < 0 {
		i = 0
	}
	m.fields[m.focus].input.Blur()
	m.focus = i
	m.fields[i].input.Focus()
	return m, textinput.Blink
}

func (m SetupModel) startValidation() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel.cancel = cancel
	baseURL, model, apiKey := m.Result()
	fn := m.validate
	return func() tea.Msg {
		return validationResultMsg{err: fn(ctx, baseURL, model, apiKey)}
	}
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   CURATE"))
	b.WriteString(titleStyle.Render(" - Embedding Setup"))
	b.WriteString("\n\n")
	b.WriteString("Point curate at an OpenAI-compatible embedding endpoint.\n\n")

	for i, f := range m.fields {
		if m.phase == phaseEditing && i == m.focus {
			fmt.Fprintf(&b, "%s  %s\n  %s\n", labelStyle.Render("> "+f.label), hintStyle.Render(f.hint), f.input.View())
			continue
		}
		fmt.Fprintf(&b, "  %-9s %s\n", f.label+":", f.display())
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("✗ Validation failed: " + m.err.Error()))
		b.WriteString("\n")
	}

	switch m.phase {
	case phaseEditing:
		b.WriteString(hintStyle.Render("enter: next  shift+tab: back  esc: cancel"))
	case phaseValidating:
		b.WriteString(m.spinner.View())
		b.WriteString(" Embedding a probe string...")
	case phaseDone:
		b.WriteString(successStyle.Render("✓ Embedding endpoint ready!"))
	}
	b.WriteString("\n")

	return b.String()
}

// Result returns the entered values.
func (m SetupModel) Result() (baseURL, model, apiKey string) {
	return m.fields[fieldBaseURL].input.Value(), m.fields[fieldModel].input.Value(), m.fields[fieldAPIKey].input.Value()
}

// ShouldSave reports whether the endpoint validated and the user did not cancel.
func (m SetupModel) ShouldSave() bool {
	return m.phase == phaseDone && !m.quitting
}
