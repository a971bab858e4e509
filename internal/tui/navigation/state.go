package navigation

type ViewState int

const (
	ControlsView ViewState = iota
	SettingsView
	SourceView
)

func (v ViewState) String() string {
	switch v {
	case SettingsView:
		return "settings"
	case SourceView:
		return "source"
	default:
		return "controls"
	}
}

type State struct {
	current  ViewState
	width    int
	height   int
	quitting bool
}

func NewState() *State {
	return &State{
		current: ControlsView,
	}
}

func (s *State) GetCurrentView() ViewState {
	return s.current
}

func (s *State) SetCurrentView(view ViewState) {
	s.current = view
}

func (s *State) SetDimensions(width, height int) {
	s.width = width
	s.height = height
}

func (s *State) GetDimensions() (int, int) {
	return s.width, s.height
}

func (s *State) SetQuitting(quit bool) {
	s.quitting = quit
}

func (s *State) IsQuitting() bool {
	return s.quitting
}

// NavigateBack returns to the controls from any overlay.
func (s *State) NavigateBack() {
	s.current = ControlsView
}
