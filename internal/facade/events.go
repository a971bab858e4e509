package facade

import (
	"github.com/hayasedb/hayase-player/internal/events"
	"github.com/hayasedb/hayase-player/internal/models"
)

// EventKind names an event a facade emits to the embedding application.
type EventKind string

const (
	EventBeforeDurationChange EventKind = "beforedurationchange"
	EventAfterDurationChange  EventKind = "afterdurationchange"
	EventBeforeTimeUpdate     EventKind = "beforetimeupdate"
	EventAfterTimeUpdate      EventKind = "aftertimeupdate"
	EventBeforeVolumeChange   EventKind = "beforevolumechange"
	EventAfterVolumeChange    EventKind = "aftervolumechange"
	EventBeforePlaying        EventKind = "beforeplaying"
	EventAfterPlaying         EventKind = "afterplaying"
	EventBeforePausing        EventKind = "beforepausing"
	EventAfterPausing         EventKind = "afterpausing"
	EventReady                EventKind = "ready"
	EventEnded                EventKind = "ended"
	EventError                EventKind = "error"
)

type Event struct {
	Kind   EventKind
	Player *Player
}

// brackets maps adapter events to the before/after pair the facade emits
// around its controls update.
var brackets = map[models.EventKind][2]EventKind{
	models.EventDurationChange: {EventBeforeDurationChange, EventAfterDurationChange},
	models.EventTimeUpdate:     {EventBeforeTimeUpdate, EventAfterTimeUpdate},
	models.EventVolumeChange:   {EventBeforeVolumeChange, EventAfterVolumeChange},
	models.EventPlaying:        {EventBeforePlaying, EventAfterPlaying},
	models.EventPause:          {EventBeforePausing, EventAfterPausing},
}

// State is the facade lifecycle, re-entered on every platform switch.
type State int

const (
	StateUnbound State = iota
	StateBound
	StateReady
)

func (s State) String() string {
	switch s {
	case StateBound:
		return "bound"
	case StateReady:
		return "ready"
	default:
		return "unbound"
	}
}

func (p *Player) Subscribe(fn func(Event)) *events.Subscription {
	return p.emitter.Subscribe(fn)
}

// On subscribes fn to a single event kind.
func (p *Player) On(kind EventKind, fn func(Event)) *events.Subscription {
	return p.emitter.Subscribe(func(ev Event) {
		if ev.Kind == kind {
			fn(ev)
		}
	})
}

func (p *Player) emit(kind EventKind) {
	p.emitter.Emit(Event{Kind: kind, Player: p})
}
