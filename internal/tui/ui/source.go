package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SourceInput is the prompt used to open a new source. It shows a spinner
// while the source loads.
type SourceInput struct {
	textInput textinput.Model
	spinner   spinner.Model
	loading   bool
}

func NewSourceInput() SourceInput {
	ti := textinput.New()
	ti.Placeholder = "File, URL or video id..."
	ti.Width = 60
	ti.Prompt = "> "

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return SourceInput{
		textInput: ti,
		spinner:   s,
	}
}

func (s *SourceInput) Focus() tea.Cmd {
	return s.textInput.Focus()
}

func (s *SourceInput) Blur() {
	s.textInput.Blur()
}

func (s *SourceInput) SetLoading(loading bool) tea.Cmd {
	s.loading = loading
	if loading {
		s.textInput.Prompt = s.spinner.View() + " "
		return s.spinner.Tick
	}
	s.textInput.Prompt = "> "
	return nil
}

func (s *SourceInput) Loading() bool {
	return s.loading
}

func (s *SourceInput) Update(msg tea.Msg) (*SourceInput, tea.Cmd) {
	var cmds []tea.Cmd

	if s.loading {
		var spinnerCmd tea.Cmd
		s.spinner, spinnerCmd = s.spinner.Update(msg)
		cmds = append(cmds, spinnerCmd)
		s.textInput.Prompt = s.spinner.View() + " "
	}

	var textCmd tea.Cmd
	s.textInput, textCmd = s.textInput.Update(msg)
	cmds = append(cmds, textCmd)

	return s, tea.Batch(cmds...)
}

func (s *SourceInput) View() string {
	return lipgloss.NewStyle().MarginTop(1).MarginBottom(1).MarginLeft(2).Render(s.textInput.View())
}

func (s *SourceInput) Value() string {
	return s.textInput.Value()
}

func (s *SourceInput) SetValue(value string) {
	s.textInput.SetValue(value)
}

func (s *SourceInput) SetWidth(width int) {
	s.textInput.Width = width - 8
}

func (s *SourceInput) IsFocused() bool {
	return s.textInput.Focused()
}
