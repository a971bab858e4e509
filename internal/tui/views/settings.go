package views

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/hayasedb/hayase-player/internal/facade"
	"github.com/hayasedb/hayase-player/internal/models"
	"github.com/hayasedb/hayase-player/internal/tui/navigation"
	"github.com/hayasedb/hayase-player/internal/tui/ui"
)

type qualityItem struct {
	index   int
	quality models.Quality
	active  bool
}

func (i qualityItem) Title() string {
	if i.active {
		return i.quality.String() + " (current)"
	}
	return i.quality.String()
}

func (i qualityItem) Description() string { return "" }

func (i qualityItem) FilterValue() string { return i.quality.String() }

// SettingsView lists the qualities the active adapter offers.
type SettingsView struct {
	list     list.Model
	delegate *ui.ListDelegate
	state  *navigation.State
	player *facade.Player
	height int
	footer *ui.Footer
}

func NewSettingsView(state *navigation.State, player *facade.Player) *SettingsView {
	delegate := ui.NewListDelegate()
	l := list.New([]list.Item{}, delegate, 40, 10)
	l.Title = "Quality"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return &SettingsView{
		list:     l,
		delegate: delegate,
		state:    state,
		player:   player,
		footer:   ui.NewFooter(),
	}
}

// Load refreshes the list from the active adapter.
func (v *SettingsView) Load() {
	qualities := v.player.AvailableQualities()
	active := v.player.Quality()

	items := make([]list.Item, len(qualities))
	for i, q := range qualities {
		items[i] = qualityItem{index: i, quality: q, active: i == active}
	}
	v.list.SetItems(items)
	// Adapters that cannot report the active quality get no highlight until
	// the user moves the cursor.
	v.delegate.SetShowSelection(active >= 0 && active < len(items))
	if active >= 0 && active < len(items) {
		v.list.Select(active)
	}
}

func (v *SettingsView) Update(msg tea.Msg) (*SettingsView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.height = msg.Height
		v.list.SetWidth(msg.Width)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeys(msg)
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *SettingsView) handleKeys(msg tea.KeyMsg) (*SettingsView, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		v.state.SetQuitting(true)
		return v, tea.Quit
	case "esc":
		v.state.NavigateBack()
		return v, nil
	case "enter":
		return v.handleSelection()
	}

	v.delegate.SetShowSelection(true)
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *SettingsView) handleSelection() (*SettingsView, tea.Cmd) {
	item, ok := v.list.SelectedItem().(qualityItem)
	if !ok {
		return v, nil
	}
	v.state.NavigateBack()

	player := v.player
	return v, func() tea.Msg {
		if err := player.SetQuality(item.index); err != nil {
			log.Warn("Failed to change quality", "quality", item.quality, "error", err)
		}
		return nil
	}
}

func (v *SettingsView) View() string {
	v.footer.SetKeys(ui.SettingsKeys())
	footerView := v.footer.View()

	var content string
	switch {
	case len(v.list.Items()) > 0:
		if v.height > 0 {
			v.list.SetHeight(v.height - lipgloss.Height(footerView) - 1)
		}
		content = lipgloss.NewStyle().MarginTop(1).Render(v.list.View())
	default:
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginLeft(2).
			MarginTop(1).
			Render("No alternative qualities available")
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, footerView)
}
