package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hayasedb/hayase-player/internal/controls"
	"github.com/hayasedb/hayase-player/internal/facade"
	"github.com/hayasedb/hayase-player/internal/models"
	"github.com/hayasedb/hayase-player/internal/tui/navigation"
	"github.com/hayasedb/hayase-player/internal/tui/ui"
)

const (
	seekStep   = 5.0
	volumeStep = 0.05
)

// SnapshotMsg carries a controls state push into the program.
type SnapshotMsg struct {
	Snapshot controls.Snapshot
}

// StatusMsg reports a facade lifecycle event.
type StatusMsg struct {
	Kind facade.EventKind
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginLeft(2).MarginTop(1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginLeft(2)
	lineStyle   = lipgloss.NewStyle().MarginLeft(2)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).MarginLeft(2)
)

type PlayerView struct {
	state    *navigation.State
	controls *controls.State
	player   *facade.Player
	progress progress.Model
	volume   progress.Model
	footer   *ui.Footer
	snap     controls.Snapshot
	status   facade.EventKind
}

func NewPlayerView(state *navigation.State, c *controls.State, player *facade.Player) *PlayerView {
	return &PlayerView{
		state:    state,
		controls: c,
		player:   player,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		volume:   progress.New(progress.WithSolidFill("205"), progress.WithoutPercentage(), progress.WithWidth(20)),
		footer:   ui.NewFooter(),
		snap:     c.Snapshot(),
	}
}

func (v *PlayerView) Update(msg tea.Msg) (*PlayerView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.progress.Width = max(msg.Width-24, 10)
		return v, nil

	case SnapshotMsg:
		v.snap = msg.Snapshot
		return v, nil

	case StatusMsg:
		v.status = msg.Kind
		return v, nil

	case tea.KeyMsg:
		return v.handleKeys(msg)
	}

	return v, nil
}

// raise runs a controls action off the program loop; the resulting state
// comes back as a SnapshotMsg.
func raise(action func() bool) tea.Cmd {
	return func() tea.Msg {
		action()
		return nil
	}
}

func (v *PlayerView) handleKeys(msg tea.KeyMsg) (*PlayerView, tea.Cmd) {
	c := v.controls

	switch msg.String() {
	case "ctrl+c", "q":
		v.state.SetQuitting(true)
		return v, tea.Quit
	case "o":
		v.state.SetCurrentView(navigation.SourceView)
		return v, nil
	}

	if v.snap.Hidden {
		return v, nil
	}

	switch msg.String() {
	case " ":
		return v, raise(c.TogglePlay)
	case "left":
		return v, raise(func() bool { return c.SeekBy(-seekStep) })
	case "right":
		return v, raise(func() bool { return c.SeekBy(seekStep) })
	case "up":
		return v, raise(func() bool { return c.ChangeVolumeBy(volumeStep) })
	case "down":
		return v, raise(func() bool { return c.ChangeVolumeBy(-volumeStep) })
	case "m":
		return v, raise(c.ToggleMute)
	case "f":
		return v, raise(c.ToggleFullscreen)
	case "p":
		return v, raise(c.TogglePictureInPicture)
	case "s":
		if v.snap.Enabled(models.ControlSettings) {
			v.state.SetCurrentView(navigation.SettingsView)
		}
	}
	return v, nil
}

func formatTime(seconds float64) string {
	d := time.Duration(max(seconds, 0) * float64(time.Second)).Round(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func (v *PlayerView) header() string {
	title := v.player.Title()
	if title == "" {
		title = v.player.Source()
	}
	if title == "" {
		title = "Nothing loaded"
	}
	platform := v.player.Platform()
	if platform == "" {
		platform = "unbound"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		statusStyle.Render(platform+" • "+v.statusText()),
	)
}

func (v *PlayerView) statusText() string {
	switch {
	case v.status == facade.EventError:
		return "Error"
	case v.status == facade.EventEnded:
		return "Ended"
	case v.player.State() != facade.StateReady:
		return "Loading"
	case v.snap.Playing:
		return "Playing"
	default:
		return "Paused"
	}
}

func (v *PlayerView) View() string {
	header := v.header()

	if v.snap.Hidden {
		v.footer.SetKeys(ui.HiddenKeys())
		return lipgloss.JoinVertical(lipgloss.Left, header, v.footer.View())
	}

	snap := v.snap
	var lines []string

	if snap.Enabled(models.ControlSeek) || snap.Enabled(models.ControlTimer) {
		var parts []string
		if snap.Enabled(models.ControlSeek) {
			percent := 0.0
			if snap.Duration > 0 {
				percent = snap.CurrentTime / snap.Duration
			}
			parts = append(parts, v.progress.ViewAs(percent))
		}
		if snap.Enabled(models.ControlTimer) {
			parts = append(parts, formatTime(snap.CurrentTime)+" / "+formatTime(snap.Duration))
		}
		lines = append(lines, lineStyle.Render(strings.Join(parts, "  ")))
	}

	if snap.Enabled(models.ControlVolume) || snap.Enabled(models.ControlMute) {
		label := fmt.Sprintf("vol %3.0f%%", snap.Volume*100)
		if snap.Volume == 0 {
			label = "muted"
		}
		line := label
		if snap.Enabled(models.ControlVolume) {
			line = v.volume.ViewAs(snap.Volume) + "  " + label
		}
		lines = append(lines, lineStyle.Render(line))
	}

	var flags []string
	if snap.Fullscreen {
		flags = append(flags, "fullscreen")
	}
	if v.player.Current() != nil && v.player.Current().IsPiPElement() {
		flags = append(flags, "picture-in-picture")
	}
	if len(flags) > 0 {
		lines = append(lines, statusStyle.Render(strings.Join(flags, " • ")))
	}

	if v.status == facade.EventError {
		lines = append(lines, errorStyle.Render("The player reported an error, see the log for details"))
	}

	v.footer.SetKeys(ui.ControlKeys(snap.EnabledElements()))

	body := lipgloss.NewStyle().MarginTop(1).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.JoinVertical(lipgloss.Left, header, body, v.footer.View())
}
