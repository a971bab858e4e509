package youtube

// PlayerState is the embed's playback state as reported by onStateChange.
type PlayerState int

const (
	StateUnstarted PlayerState = -1
	StateEnded     PlayerState = 0
	StatePlaying   PlayerState = 1
	StatePaused    PlayerState = 2
	StateBuffering PlayerState = 3
	StateCued      PlayerState = 5
)

func (s PlayerState) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	default:
		return "unknown"
	}
}

// EmbedPlayer is one embedded video player on the remote API. Volume is on
// the embed's 0-100 scale.
type EmbedPlayer interface {
	PlayVideo() error
	PauseVideo() error
	StopVideo() error
	SeekTo(seconds float64, allowSeekAhead bool) error
	LoadVideoByID(id string) error

	CurrentTime() float64
	Duration() float64

	Volume() float64
	SetVolume(v float64) error
	IsMuted() bool
	Mute() error
	UnMute() error

	PlaybackQuality() string
	SetPlaybackQuality(q string) error
	AvailableQualityLevels() []string

	Destroy() error
}

// EmbedEvents are invoked from the API's own goroutine.
type EmbedEvents struct {
	OnReady                 func()
	OnStateChange           func(PlayerState)
	OnError                 func(code int)
	OnPlaybackRateChange    func(rate float64)
	OnPlaybackQualityChange func(quality string)
}

type EmbedConfig struct {
	VideoID  string
	Autoplay bool
	Muted    bool
	Events   EmbedEvents
}

// API is the loaded remote embed API.
type API interface {
	NewPlayer(cfg EmbedConfig) (EmbedPlayer, error)
}

var errorMessages = map[int]string{
	2:   "The request contains an invalid parameter value. For example, this error occurs if you specify a video ID that does not have 11 characters, or if the video ID contains invalid characters, such as exclamation points or asterisks.",
	5:   "The requested content cannot be played in an HTML5 player or another error related to the HTML5 player has occurred.",
	100: "The video requested was not found. This error occurs when a video has been removed (for any reason) or has been marked as private.",
	101: "The owner of the requested video does not allow it to be played in embedded players.",
	150: "The owner of the requested video does not allow it to be played in embedded players.",
}

// ErrorMessage maps an embed error code to its description.
func ErrorMessage(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "unknown error"
}
