package app

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayasedb/hayase-player/internal/controls"
	"github.com/hayasedb/hayase-player/internal/facade"
	"github.com/hayasedb/hayase-player/internal/models"
	"github.com/hayasedb/hayase-player/internal/players"
	"github.com/hayasedb/hayase-player/internal/tui/navigation"
	"github.com/hayasedb/hayase-player/internal/tui/views"
)

func setup(t *testing.T, opts ...facade.Option) (*Model, *controls.State, *players.Mock) {
	t.Helper()

	var built []*players.Mock
	env := facade.NewEnv()
	require.NoError(t, env.Use(players.MockDescriptor("mock", &built, models.FeatureVolume, models.FeatureSeek)))

	c := controls.NewState()
	p, err := facade.New(env, append([]facade.Option{facade.WithControls(c), facade.WithType("mock")}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	return NewModel(nil, p, c, WithExitOnEnd()), c, built[0]
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(s)}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestModel_KeysRaiseIntents(t *testing.T) {
	m, c, mock := setup(t)

	_, cmd := m.Update(key(" "))
	run(cmd)
	assert.True(t, mock.Playing())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	run(cmd)
	assert.InDelta(t, 1.0, mock.Volume(), 1e-9)

	c.SetVolume(0.5)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	run(cmd)
	assert.InDelta(t, 0.45, mock.Volume(), 1e-9)

	_, cmd = m.Update(key("m"))
	run(cmd)
	assert.True(t, mock.Muted())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	run(cmd)
	assert.Contains(t, mock.Calls(), "seek")
}

func TestModel_HiddenControlsIgnoreKeys(t *testing.T) {
	m, c, mock := setup(t, facade.WithAttribute(facade.AttrNoControls, ""))
	m.Update(views.SnapshotMsg{Snapshot: c.Snapshot()})

	_, cmd := m.Update(key(" "))
	assert.Nil(t, cmd)
	assert.False(t, mock.Playing())
	assert.Contains(t, m.View(), "o: open")
	assert.NotContains(t, m.View(), "play/pause")
}

func TestModel_Navigation(t *testing.T) {
	m, c, _ := setup(t)
	m.Update(views.SnapshotMsg{Snapshot: c.Snapshot()})

	m.Update(key("s"))
	assert.Equal(t, navigation.SettingsView, m.state.GetCurrentView())
	assert.Contains(t, m.View(), "No alternative qualities available")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, navigation.ControlsView, m.state.GetCurrentView())

	m.Update(key("o"))
	assert.Equal(t, navigation.SourceView, m.state.GetCurrentView())
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, navigation.ControlsView, m.state.GetCurrentView())
}

func TestModel_View(t *testing.T) {
	m, c, mock := setup(t, facade.WithSource("song.mp3"), facade.WithAttribute(facade.AttrShownElements, "playPause,timer,volume"))
	mock.SetDuration(125)
	mock.Fire(models.EventReady)
	mock.Fire(models.EventDurationChange)
	m.Update(views.SnapshotMsg{Snapshot: c.Snapshot()})

	out := m.View()
	assert.Contains(t, out, "song.mp3")
	assert.Contains(t, out, "mock • Paused")
	assert.Contains(t, out, "00:00 / 02:05")
	assert.Contains(t, out, "space: play/pause")
	assert.Contains(t, out, "↑↓: volume")
	assert.NotContains(t, out, "m: mute")
}

func TestModel_ExitOnEnd(t *testing.T) {
	m, _, _ := setup(t)

	_, cmd := m.Update(views.StatusMsg{Kind: facade.EventEnded})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.True(t, m.state.IsQuitting())
}
