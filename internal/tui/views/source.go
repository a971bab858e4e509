package views

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/hayasedb/hayase-player/internal/facade"
	"github.com/hayasedb/hayase-player/internal/tui/navigation"
	"github.com/hayasedb/hayase-player/internal/tui/ui"
)

type sourceLoadedMsg struct {
	err error
}

// SourceView prompts for a new source and hands it to the facade, switching
// to the first registered platform that matches it.
type SourceView struct {
	input  ui.SourceInput
	state  *navigation.State
	player *facade.Player
	err    error
	footer *ui.Footer
}

func NewSourceView(state *navigation.State, player *facade.Player) *SourceView {
	return &SourceView{
		input:  ui.NewSourceInput(),
		state:  state,
		player: player,
		footer: ui.NewFooter(),
	}
}

func (v *SourceView) Focus() tea.Cmd {
	v.err = nil
	v.input.SetValue("")
	return v.input.Focus()
}

func (v *SourceView) Update(msg tea.Msg) (*SourceView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.input.SetWidth(msg.Width)
		return v, nil

	case sourceLoadedMsg:
		cmd := v.input.SetLoading(false)
		if msg.err != nil {
			v.err = msg.err
			return v, cmd
		}
		v.input.Blur()
		v.state.NavigateBack()
		return v, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			v.state.SetQuitting(true)
			return v, tea.Quit
		case "esc":
			v.input.Blur()
			v.state.NavigateBack()
			return v, nil
		case "enter":
			src := strings.TrimSpace(v.input.Value())
			if src == "" || v.input.Loading() {
				return v, nil
			}
			return v, tea.Batch(v.input.SetLoading(true), v.load(src))
		}
	}

	input, cmd := v.input.Update(msg)
	v.input = *input
	return v, cmd
}

func (v *SourceView) load(src string) tea.Cmd {
	player := v.player
	return func() tea.Msg {
		log.Info("Opening source", "source", src)
		if d, ok := player.Env().Registry().MatchSource(src); ok && d.Platform != player.Platform() {
			if err := player.SetAttribute(facade.AttrType, d.Platform); err != nil {
				return sourceLoadedMsg{err: err}
			}
		}
		return sourceLoadedMsg{err: player.SetSource(src)}
	}
}

func (v *SourceView) View() string {
	v.footer.SetKeys(ui.SourceKeys())

	content := v.input.View()
	if v.err != nil {
		content = lipgloss.JoinVertical(lipgloss.Left, content,
			errorStyle.Render(v.err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, v.footer.View())
}
