package models

// EventKind is one of the canonical, backend-agnostic events every adapter
// emits.
type EventKind string

const (
	EventReady              EventKind = "ready"
	EventPlaying            EventKind = "playing"
	EventPause              EventKind = "pause"
	EventWaiting            EventKind = "waiting"
	EventTimeUpdate         EventKind = "timeupdate"
	EventDurationChange     EventKind = "durationchange"
	EventVolumeChange       EventKind = "volumechange"
	EventEnded              EventKind = "ended"
	EventError              EventKind = "error"
	EventQualityChange      EventKind = "qualitychange"
	EventPlaybackRateChange EventKind = "playbackratechange"
)

func EventKinds() []EventKind {
	return []EventKind{
		EventReady,
		EventPlaying,
		EventPause,
		EventWaiting,
		EventTimeUpdate,
		EventDurationChange,
		EventVolumeChange,
		EventEnded,
		EventError,
		EventQualityChange,
		EventPlaybackRateChange,
	}
}

func (k EventKind) String() string {
	return string(k)
}
