package ui

import (
	"io"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

// ListDelegate renders single-line items and can suppress the selection
// highlight while the list is not focused.
type ListDelegate struct {
	list.DefaultDelegate
	showSelection bool
}

func NewListDelegate() *ListDelegate {
	d := list.NewDefaultDelegate()
	d.SetHeight(1)
	d.SetSpacing(0)
	d.ShowDescription = false
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.
		Foreground(lipgloss.Color("205")).
		BorderForeground(lipgloss.Color("205"))

	return &ListDelegate{
		DefaultDelegate: d,
		showSelection:   true,
	}
}

func (d *ListDelegate) SetShowSelection(show bool) {
	d.showSelection = show
}

func (d *ListDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	renderIndex := index
	if !d.showSelection {
		renderIndex = -1
	}
	d.DefaultDelegate.Render(w, m, renderIndex, listItem)
}
