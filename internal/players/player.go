package players

import (
	"errors"

	"github.com/hayasedb/hayase-player/internal/events"
	"github.com/hayasedb/hayase-player/internal/host"
	"github.com/hayasedb/hayase-player/internal/models"
)

var (
	ErrUnsupportedOperation = errors.New("operation not supported by this player")
	ErrNotImplemented       = errors.New("not implemented")
)

// Event is a canonical player event. It carries only the emitting player;
// listeners read whatever state they need back from it.
type Event struct {
	Kind   models.EventKind
	Player Player
}

// Player is the contract every backend adapter satisfies. Transport calls
// return once the request is issued; completion is observed through events.
type Player interface {
	Platform() string

	Play() error
	Pause() error
	Stop() error
	Seek(t float64) error

	RequestPictureInPicture() error
	IsPiPElement() bool

	SupportedFeatures() models.FeatureSet
	AvailableQualities() []models.Quality

	CurrentTime() float64
	SetCurrentTime(t float64) error
	Duration() float64

	Volume() float64
	SetVolume(v float64) error
	Muted() bool
	SetMuted(m bool) error

	Autoplay() bool
	SetAutoplay(a bool) error

	Playing() bool

	Source() string
	SetSource(src string) error

	Quality() int
	SetQuality(index int) error

	// Surface is the node the facade attaches to its stage.
	Surface() *host.Node

	Subscribe(fn func(Event)) *events.Subscription

	// Close detaches backend listeners, stops timers and releases the
	// backend. The player must not emit after Close returns.
	Close() error
}
