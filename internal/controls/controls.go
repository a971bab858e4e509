// Package controls defines the surface a facade drives and listens to, and a
// headless State that implements it for renderers to build on.
package controls

import (
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/hayasedb/hayase-player/internal/events"
	"github.com/hayasedb/hayase-player/internal/models"
)

type IntentKind string

const (
	IntentTogglePlay       IntentKind = "toggle-play"
	IntentSeekChange       IntentKind = "seek-change"
	IntentVolumeChange     IntentKind = "volume-change"
	IntentMuteToggle       IntentKind = "mute-toggle"
	IntentFullscreenToggle IntentKind = "fullscreen-toggle"
	IntentPiPToggle        IntentKind = "pip-toggle"
)

// Intent is a user request raised by a controls surface. Time is set for
// seek-change, Volume for volume-change and Muted for mute-toggle.
type Intent struct {
	Kind   IntentKind
	Time   float64
	Volume float64
	Muted  bool
}

// Surface is what a facade pushes playback state into and takes intents
// from.
type Surface interface {
	SetCurrentTime(t float64)
	SetDuration(d float64)
	SetPlaying(playing bool)
	// SetVolume receives the effective volume: 0 while muted.
	SetVolume(v float64)
	SetFullscreen(fullscreen bool)
	SetFeaturesAvailable(features models.FeatureSet)
	SetShownElements(elements []models.ControlElement)
	SetHidden(hidden bool)

	Subscribe(fn func(Intent)) *events.Subscription
}

// Snapshot is a copy of everything a renderer needs to draw.
type Snapshot struct {
	CurrentTime float64
	Duration    float64
	Playing     bool
	Volume      float64
	Fullscreen  bool
	Hidden      bool
	Features    models.FeatureSet
	Shown       []models.ControlElement
}

// Enabled reports whether el is both allowed and backed by the adapter.
func (s Snapshot) Enabled(el models.ControlElement) bool {
	if !slices.Contains(s.Shown, el) {
		return false
	}
	feature, ok := el.RequiredFeature()
	return !ok || s.Features.Has(feature)
}

// EnabledElements lists enabled elements in display order.
func (s Snapshot) EnabledElements() []models.ControlElement {
	return lo.Filter(models.DefaultShownElements(), func(el models.ControlElement, _ int) bool {
		return s.Enabled(el)
	})
}

// State is a headless Surface. It stores what the facade pushes, publishes
// every change, and turns user actions into intents when the matching
// element is enabled and the surface is not hidden.
type State struct {
	mu   sync.Mutex
	snap Snapshot

	intents events.Emitter[Intent]
	changes events.Emitter[Snapshot]
}

var _ Surface = (*State)(nil)

func NewState() *State {
	return &State{
		snap: Snapshot{
			Volume: 1,
			Shown:  models.DefaultShownElements(),
		},
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Features = slices.Clone(s.snap.Features)
	snap.Shown = slices.Clone(s.snap.Shown)
	return snap
}

func (s *State) Enabled(el models.ControlElement) bool {
	return s.Snapshot().Enabled(el)
}

func (s *State) EnabledElements() []models.ControlElement {
	return s.Snapshot().EnabledElements()
}

// OnChange registers fn for every state push.
func (s *State) OnChange(fn func(Snapshot)) *events.Subscription {
	return s.changes.Subscribe(fn)
}

func (s *State) Subscribe(fn func(Intent)) *events.Subscription {
	return s.intents.Subscribe(fn)
}

func (s *State) update(mutate func(*Snapshot)) {
	s.mu.Lock()
	mutate(&s.snap)
	s.mu.Unlock()
	s.changes.Emit(s.Snapshot())
}

func (s *State) SetCurrentTime(t float64) {
	s.update(func(snap *Snapshot) { snap.CurrentTime = t })
}

func (s *State) SetDuration(d float64) {
	s.update(func(snap *Snapshot) { snap.Duration = d })
}

func (s *State) SetPlaying(playing bool) {
	s.update(func(snap *Snapshot) { snap.Playing = playing })
}

func (s *State) SetVolume(v float64) {
	s.update(func(snap *Snapshot) { snap.Volume = lo.Clamp(v, 0, 1) })
}

func (s *State) SetFullscreen(fullscreen bool) {
	s.update(func(snap *Snapshot) { snap.Fullscreen = fullscreen })
}

func (s *State) SetFeaturesAvailable(features models.FeatureSet) {
	s.update(func(snap *Snapshot) { snap.Features = models.NewFeatureSet(features...) })
}

func (s *State) SetShownElements(elements []models.ControlElement) {
	s.update(func(snap *Snapshot) { snap.Shown = slices.Clone(elements) })
}

func (s *State) SetHidden(hidden bool) {
	s.update(func(snap *Snapshot) { snap.Hidden = hidden })
}

func (s *State) raise(el models.ControlElement, intent Intent) bool {
	snap := s.Snapshot()
	if snap.Hidden || !snap.Enabled(el) {
		return false
	}
	s.intents.Emit(intent)
	return true
}

// TogglePlay raises toggle-play. The return value reports whether the
// intent was raised.
func (s *State) TogglePlay() bool {
	return s.raise(models.ControlPlayPause, Intent{Kind: IntentTogglePlay})
}

func (s *State) Seek(t float64) bool {
	return s.raise(models.ControlSeek, Intent{Kind: IntentSeekChange, Time: max(t, 0)})
}

// SeekBy seeks relative to the last pushed time, bounded by the duration
// when one is known.
func (s *State) SeekBy(delta float64) bool {
	snap := s.Snapshot()
	target := snap.CurrentTime + delta
	if snap.Duration > 0 {
		target = min(target, snap.Duration)
	}
	return s.Seek(target)
}

func (s *State) ChangeVolume(v float64) bool {
	return s.raise(models.ControlVolume, Intent{Kind: IntentVolumeChange, Volume: lo.Clamp(v, 0, 1)})
}

func (s *State) ChangeVolumeBy(delta float64) bool {
	return s.ChangeVolume(s.Snapshot().Volume + delta)
}

// ToggleMute asks to mute unless the displayed volume is already zero.
func (s *State) ToggleMute() bool {
	muted := s.Snapshot().Volume != 0
	return s.raise(models.ControlMute, Intent{Kind: IntentMuteToggle, Muted: muted})
}

func (s *State) ToggleFullscreen() bool {
	return s.raise(models.ControlFullscreen, Intent{Kind: IntentFullscreenToggle})
}

func (s *State) TogglePictureInPicture() bool {
	return s.raise(models.ControlPiP, Intent{Kind: IntentPiPToggle})
}
