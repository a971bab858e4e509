package mpris

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"
)

// Service is the player surface exposed over D-Bus. *facade.Player
// satisfies it.
type Service interface {
	Play() error
	Pause() error
	Stop() error
	TogglePlay() error
	SeekTo(t float64) error
	SetSource(src string) error
	ChangeVolume(v float64) error

	Playing() bool
	CurrentTime() float64
	Duration() float64
	Volume() float64
	Muted() bool
	Title() string
	Source() string
	Platform() string
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error { return nil }

func (r *rootAdapter) Quit() error { return nil }

func (r *rootAdapter) CanQuit() (bool, error) { return false, nil }

func (r *rootAdapter) CanRaise() (bool, error) { return false, nil }

func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }

func (r *rootAdapter) Identity() (string, error) {
	return "Hayase Player", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "video/mp4", "video/webm", "video/x-matroska"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	service Service
}

func toSeconds(us types.Microseconds) float64 {
	return (time.Duration(us) * time.Microsecond).Seconds()
}

func toMicroseconds(seconds float64) types.Microseconds {
	return types.Microseconds(time.Duration(seconds * float64(time.Second)).Microseconds())
}

func (p *playerAdapter) Next() error { return nil }

func (p *playerAdapter) Previous() error { return nil }

func (p *playerAdapter) Pause() error {
	return p.service.Pause()
}

func (p *playerAdapter) PlayPause() error {
	return p.service.TogglePlay()
}

func (p *playerAdapter) Stop() error {
	return p.service.Stop()
}

func (p *playerAdapter) Play() error {
	return p.service.Play()
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	target := p.service.CurrentTime() + toSeconds(offset)
	if d := p.service.Duration(); d > 0 && target > d {
		// Seeking past the end behaves like Next, which has nothing to go to.
		return p.service.Stop()
	}
	return p.service.SeekTo(max(target, 0))
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	target := toSeconds(position)
	if target < 0 || target > p.service.Duration() {
		return nil
	}
	return p.service.SeekTo(target)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(uri string) error {
	return p.service.SetSource(uri)
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch {
	case p.service.Platform() == "":
		return types.PlaybackStatusStopped, nil
	case p.service.Playing():
		return types.PlaybackStatusPlaying, nil
	default:
		return types.PlaybackStatusPaused, nil
	}
}

func (p *playerAdapter) Rate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) SetRate(_ float64) error { return nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	src := p.service.Source()
	if src == "" {
		return types.Metadata{}, nil
	}

	title := p.service.Title()
	if title == "" {
		title = src
	}
	return types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(src)),
		Length:  toMicroseconds(p.service.Duration()),
		Title:   title,
		Artist:  []string{p.service.Platform()},
	}, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	if p.service.Muted() {
		return 0, nil
	}
	return p.service.Volume(), nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	return p.service.ChangeVolume(v)
}

func (p *playerAdapter) Position() (int64, error) {
	return int64(toMicroseconds(p.service.CurrentTime())), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) CanGoNext() (bool, error) { return false, nil }

func (p *playerAdapter) CanGoPrevious() (bool, error) { return false, nil }

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.service.Platform() != "", nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return p.service.Platform() != "", nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.service.Duration() > 0, nil
}

func (p *playerAdapter) CanControl() (bool, error) { return true, nil }

func formatTrackID(src string) string {
	h := fnv.New64a()
	h.Write([]byte(src))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
