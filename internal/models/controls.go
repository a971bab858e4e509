package models

import (
	"strings"

	"github.com/samber/lo"
)

// ControlElement names one affordance of a controls surface.
type ControlElement string

const (
	ControlPlayPause  ControlElement = "playPause"
	ControlVolume     ControlElement = "volume"
	ControlMute       ControlElement = "mute"
	ControlTimer      ControlElement = "timer"
	ControlSeek       ControlElement = "seek"
	ControlSettings   ControlElement = "settings"
	ControlFullscreen ControlElement = "fullscreen"
	ControlPiP        ControlElement = "pip"
)

func DefaultShownElements() []ControlElement {
	return []ControlElement{
		ControlPlayPause,
		ControlVolume,
		ControlMute,
		ControlTimer,
		ControlSeek,
		ControlSettings,
		ControlFullscreen,
		ControlPiP,
	}
}

// RequiredFeature returns the adapter capability an element depends on, if any.
func (e ControlElement) RequiredFeature() (Feature, bool) {
	switch e {
	case ControlSeek:
		return FeatureSeek, true
	case ControlVolume, ControlMute:
		return FeatureVolume, true
	case ControlFullscreen:
		return FeatureFullscreen, true
	case ControlPiP:
		return FeaturePictureInPicture, true
	default:
		return "", false
	}
}

func (e ControlElement) Known() bool {
	return lo.Contains(DefaultShownElements(), e)
}

// ParseShownElements turns a comma-separated allow-list into elements.
// Unknown names and duplicates are dropped.
func ParseShownElements(list string) []ControlElement {
	elements := lo.FilterMap(strings.Split(list, ","), func(item string, _ int) (ControlElement, bool) {
		el := ControlElement(strings.TrimSpace(item))
		return el, el.Known()
	})
	return lo.Uniq(elements)
}
