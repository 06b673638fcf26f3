// Package ui holds the interactive terminal prompts.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user leaves the prompt without submitting.
var ErrCancelled = errors.New("input cancelled")

var (
	salmonPink = lipgloss.Color("#FFB3BA")
	mutedGray  = lipgloss.Color("#6B7280")

	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	tipsStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 1)
)

const pasteTips = "ctrl+d to submit • esc to cancel"

// PasteModel is a multi-line text prompt for pasted patient data.
type PasteModel struct {
	textarea  textarea.Model
	title     string
	submitted bool
	cancelled bool
}

// NewPasteModel creates a focused prompt.
func NewPasteModel(title string) PasteModel {
	ta := textarea.New()
	ta.Placeholder = "Plak de patiëntgegevens hier..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(76)
	ta.SetHeight(12)
	ta.Focus()
	return PasteModel{textarea: ta, title: title}
}

func (m PasteModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m PasteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlD, tea.KeyCtrlS:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if msg.Width > 8 {
			m.textarea.SetWidth(msg.Width - 6)
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m PasteModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(m.textarea.View()))
	b.WriteString("\n")
	b.WriteString(tipsStyle.Render(pasteTips))
	b.WriteString("\n")
	return b.String()
}

// Value returns the text entered so far.
func (m PasteModel) Value() string {
	return m.textarea.Value()
}

// Submitted reports whether the user submitted the text.
func (m PasteModel) Submitted() bool {
	return m.submitted
}

// ReadPaste runs the prompt on in and out until the user submits or cancels.
func ReadPaste(ctx context.Context, in io.Reader, out io.Writer, title string) (string, error) {
	p := tea.NewProgram(NewPasteModel(title),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("paste prompt: %w", err)
	}
	m, ok := final.(PasteModel)
	if !ok || !m.submitted {
		return "", ErrCancelled
	}
	return m.Value(), nil
}
