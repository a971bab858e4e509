// Package bridge reaches a remote YouTube embed host over a websocket. Frames
// are msgpack-encoded Messages; the host runs the real iframe API and relays
// its callbacks back as events.
package bridge

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TypeCall  = "call"
	TypeReply = "reply"
	TypeEvent = "event"
)

// Event names sent by the host.
const (
	EventReady                 = "ready"
	EventStateChange           = "stateChange"
	EventError                 = "error"
	EventPlaybackRateChange    = "playbackRateChange"
	EventPlaybackQualityChange = "playbackQualityChange"
	EventInfoDelivery          = "infoDelivery"
)

// Methods understood by the host.
const (
	MethodCreate             = "create"
	MethodDestroy            = "destroy"
	MethodPlayVideo          = "playVideo"
	MethodPauseVideo         = "pauseVideo"
	MethodStopVideo          = "stopVideo"
	MethodSeekTo             = "seekTo"
	MethodLoadVideoByID      = "loadVideoById"
	MethodSetVolume          = "setVolume"
	MethodMute               = "mute"
	MethodUnMute             = "unMute"
	MethodSetPlaybackQuality = "setPlaybackQuality"
)

type Message struct {
	Type   string `msgpack:"type"`
	ID     string `msgpack:"id,omitempty"`
	Player string `msgpack:"player,omitempty"`
	Method string `msgpack:"method,omitempty"`
	Args   []any  `msgpack:"args,omitempty"`

	Event   string  `msgpack:"event,omitempty"`
	State   int     `msgpack:"state,omitempty"`
	Code    int     `msgpack:"code,omitempty"`
	Rate    float64 `msgpack:"rate,omitempty"`
	Quality string  `msgpack:"quality,omitempty"`
	Info    *Info   `msgpack:"info,omitempty"`

	Error string `msgpack:"error,omitempty"`
}

// Info is the host's periodic snapshot of one player. Absent fields keep
// their previous value.
type Info struct {
	CurrentTime            *float64 `msgpack:"currentTime,omitempty"`
	Duration               *float64 `msgpack:"duration,omitempty"`
	Volume                 *float64 `msgpack:"volume,omitempty"`
	Muted                  *bool    `msgpack:"muted,omitempty"`
	PlaybackQuality        *string  `msgpack:"playbackQuality,omitempty"`
	AvailableQualityLevels []string `msgpack:"availableQualityLevels,omitempty"`
}

func Encode(msg Message) ([]byte, error) {
	data, err := msgpack.Marshal(&msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", msg.Type, err)
	}
	return data, nil
}

func Decode(data []byte) (Message, error) {
	var msg Message
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("failed to decode message: %w", err)
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("message has no type")
	}
	return msg, nil
}
