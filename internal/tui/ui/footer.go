package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hayasedb/hayase-player/internal/models"
)

type FooterKey struct {
	Key         string
	Description string
}

type Footer struct {
	keys []FooterKey
}

func NewFooter() *Footer {
	return &Footer{}
}

func (f *Footer) SetKeys(keys []FooterKey) {
	f.keys = keys
}

func (f *Footer) View() string {
	if len(f.keys) == 0 {
		return ""
	}

	parts := make([]string, len(f.keys))
	for i, key := range f.keys {
		parts[i] = key.Key + ": " + key.Description
	}

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginLeft(2).
		MarginBottom(1).
		MarginTop(1).
		Render(strings.Join(parts, " • "))
}

var elementKeys = map[models.ControlElement]FooterKey{
	models.ControlPlayPause:  {"space", "play/pause"},
	models.ControlSeek:       {"←→", "seek"},
	models.ControlVolume:     {"↑↓", "volume"},
	models.ControlMute:       {"m", "mute"},
	models.ControlSettings:   {"s", "quality"},
	models.ControlFullscreen: {"f", "fullscreen"},
	models.ControlPiP:        {"p", "pip"},
}

// ControlKeys lists the keys of the enabled elements, in order.
func ControlKeys(enabled []models.ControlElement) []FooterKey {
	var keys []FooterKey
	for _, el := range enabled {
		if key, ok := elementKeys[el]; ok {
			keys = append(keys, key)
		}
	}
	return append(keys, FooterKey{"o", "open"}, FooterKey{"q", "quit"})
}

func HiddenKeys() []FooterKey {
	return []FooterKey{
		{"o", "open"},
		{"q", "quit"},
	}
}

func SettingsKeys() []FooterKey {
	return []FooterKey{
		{"enter", "select"},
		{"↑↓", "navigate"},
		{"esc", "back"},
		{"q", "quit"},
	}
}

func SourceKeys() []FooterKey {
	return []FooterKey{
		{"enter", "load"},
		{"esc", "cancel"},
	}
}
