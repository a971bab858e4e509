package html5

import (
	"github.com/charmbracelet/log"
)

type MediaKind string

const (
	KindAudio MediaKind = "audio"
	KindVideo MediaKind = "video"
)

// MediaEvent is an event raised by a native media element.
type MediaEvent string

const (
	MediaPlaying        MediaEvent = "playing"
	MediaPause          MediaEvent = "pause"
	MediaWaiting        MediaEvent = "waiting"
	MediaDurationChange MediaEvent = "durationchange"
	MediaTimeUpdate     MediaEvent = "timeupdate"
	MediaEnded          MediaEvent = "ended"
	MediaCanPlay        MediaEvent = "canplay"
	MediaVolumeChange   MediaEvent = "volumechange"
	MediaError          MediaEvent = "error"
)

// MediaElement is a native playable surface. Implementations raise events
// from their own goroutine through the handler given to OnEvent.
type MediaElement interface {
	Load(src string) error
	Play() error
	Pause() error
	Paused() bool

	CurrentTime() float64
	SetCurrentTime(t float64) error
	Duration() float64

	Volume() float64
	SetVolume(v float64) error
	Muted() bool
	SetMuted(m bool) error
	Autoplay() bool
	SetAutoplay(a bool)

	// CanPlayType returns "", "maybe" or "probably".
	CanPlayType(mime string) string

	OnEvent(fn func(MediaEvent))
	Close() error
}

type ElementFactory func(kind MediaKind, logger *log.Logger) (MediaElement, error)
