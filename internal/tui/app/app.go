package app

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/hayasedb/hayase-player/internal/controls"
	"github.com/hayasedb/hayase-player/internal/events"
	"github.com/hayasedb/hayase-player/internal/facade"
	"github.com/hayasedb/hayase-player/internal/tui/navigation"
	"github.com/hayasedb/hayase-player/internal/tui/views"
)

type Model struct {
	state        *navigation.State
	player       *facade.Player
	controls     *controls.State
	playerView   *views.PlayerView
	settingsView *views.SettingsView
	sourceView   *views.SourceView
	exitOnEnd    bool
	cancelFunc   context.CancelFunc
}

type Option func(*Model)

// WithExitOnEnd quits the program when playback ends.
func WithExitOnEnd() Option {
	return func(m *Model) {
		m.exitOnEnd = true
	}
}

func NewModel(cancelFunc context.CancelFunc, player *facade.Player, c *controls.State, opts ...Option) *Model {
	state := navigation.NewState()

	model := &Model{
		state:        state,
		player:       player,
		controls:     c,
		playerView:   views.NewPlayerView(state, c, player),
		settingsView: views.NewSettingsView(state, player),
		sourceView:   views.NewSourceView(state, player),
		cancelFunc:   cancelFunc,
	}
	for _, opt := range opts {
		opt(model)
	}
	return model
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			log.Debug("Ctrl+C pressed in TUI, cancelling context and exiting")
			if m.cancelFunc != nil {
				m.cancelFunc()
			}
			m.state.SetQuitting(true)
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.state.SetDimensions(msg.Width, msg.Height)
		m.playerView, _ = m.playerView.Update(msg)
		m.settingsView, _ = m.settingsView.Update(msg)
		m.sourceView, _ = m.sourceView.Update(msg)
		return m, nil

	case views.SnapshotMsg:
		m.playerView, _ = m.playerView.Update(msg)
		return m, nil

	case views.StatusMsg:
		m.playerView, _ = m.playerView.Update(msg)
		if msg.Kind == facade.EventEnded && m.exitOnEnd {
			log.Debug("Playback ended, exiting")
			m.state.SetQuitting(true)
			return m, tea.Quit
		}
		return m, nil
	}

	previousView := m.state.GetCurrentView()

	var cmd tea.Cmd
	switch previousView {
	case navigation.ControlsView:
		m.playerView, cmd = m.playerView.Update(msg)
	case navigation.SettingsView:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case navigation.SourceView:
		m.sourceView, cmd = m.sourceView.Update(msg)
	}

	if m.state.GetCurrentView() != previousView {
		cmd = tea.Batch(cmd, m.handleViewTransition(m.state.GetCurrentView()))
	}

	return m, cmd
}

func (m *Model) handleViewTransition(to navigation.ViewState) tea.Cmd {
	switch to {
	case navigation.SettingsView:
		m.settingsView.Load()
	case navigation.SourceView:
		return m.sourceView.Focus()
	}
	return nil
}

func (m *Model) View() string {
	if m.state.IsQuitting() {
		return "\n  Goodbye!\n\n"
	}

	switch m.state.GetCurrentView() {
	case navigation.SettingsView:
		return m.settingsView.View()
	case navigation.SourceView:
		return m.sourceView.View()
	default:
		return m.playerView.View()
	}
}

// Run drives the facade from the terminal until the user quits, ctx is
// cancelled or, with WithExitOnEnd, playback ends.
func Run(ctx context.Context, player *facade.Player, c *controls.State, opts ...Option) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(cancel, player, c, opts...)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	subs := []*events.Subscription{
		c.OnChange(func(snap controls.Snapshot) {
			p.Send(views.SnapshotMsg{Snapshot: snap})
		}),
		player.Subscribe(func(ev facade.Event) {
			switch ev.Kind {
			case facade.EventReady, facade.EventEnded, facade.EventError:
				p.Send(views.StatusMsg{Kind: ev.Kind})
			}
		}),
	}
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
