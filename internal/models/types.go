package models

import (
	"fmt"
	"slices"
	"strings"
)

type Feature string

const (
	FeaturePictureInPicture Feature = "picture-in-picture"
	FeatureFullscreen       Feature = "fullscreen"
	FeatureVolume           Feature = "volume"
	FeatureSeek             Feature = "seek"
	FeaturePlaybackRate     Feature = "playback-rate"
	FeatureLoop             Feature = "loop"
)

func (f Feature) String() string {
	return string(f)
}

func ParseFeature(s string) (Feature, error) {
	switch f := Feature(strings.ToLower(strings.TrimSpace(s))); f {
	case FeaturePictureInPicture, FeatureFullscreen, FeatureVolume,
		FeatureSeek, FeaturePlaybackRate, FeatureLoop:
		return f, nil
	default:
		return "", fmt.Errorf("unknown feature: %s", s)
	}
}

// FeatureSet is the capability list an adapter kind declares. It is never
// mutated after the adapter is constructed.
type FeatureSet []Feature

func NewFeatureSet(features ...Feature) FeatureSet {
	return slices.Clone(features)
}

func (s FeatureSet) Has(f Feature) bool {
	return slices.Contains(s, f)
}

func (s FeatureSet) Equal(other FeatureSet) bool {
	if len(s) != len(other) {
		return false
	}
	for _, f := range s {
		if !other.Has(f) {
			return false
		}
	}
	return true
}

func (s FeatureSet) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

// Quality is a backend-reported quality descriptor, e.g. "720" for a sized
// <source> or "hd720" for an embed quality level.
type Quality string

func (q Quality) String() string {
	if q == "" {
		return "auto"
	}
	return string(q)
}
