package facade

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/hayasedb/hayase-player/internal/controls"
	"github.com/hayasedb/hayase-player/internal/host"
	"github.com/hayasedb/hayase-player/internal/storage"
)

func (p *Player) handleIntent(intent controls.Intent) {
	var err error
	switch intent.Kind {
	case controls.IntentTogglePlay:
		err = p.TogglePlay()
	case controls.IntentSeekChange:
		err = p.SeekTo(intent.Time)
	case controls.IntentVolumeChange:
		err = p.ChangeVolume(intent.Volume)
	case controls.IntentMuteToggle:
		err = p.SetMutedByUser(intent.Muted)
	case controls.IntentFullscreenToggle:
		p.ToggleFullscreen()
	case controls.IntentPiPToggle:
		err = p.TogglePictureInPicture()
	default:
		p.log.Debug("Ignoring unknown intent", "intent", intent.Kind)
	}
	if err != nil {
		p.log.Debug("Intent failed", "intent", intent.Kind, "error", err)
	}
}

// All transport methods are no-ops while no adapter is bound.

func (p *Player) Play() error {
	if pl := p.Current(); pl != nil {
		return pl.Play()
	}
	return nil
}

func (p *Player) Pause() error {
	if pl := p.Current(); pl != nil {
		return pl.Pause()
	}
	return nil
}

func (p *Player) Stop() error {
	if pl := p.Current(); pl != nil {
		return pl.Stop()
	}
	return nil
}

func (p *Player) TogglePlay() error {
	pl := p.Current()
	if pl == nil {
		return nil
	}
	if pl.Playing() {
		return pl.Pause()
	}
	return pl.Play()
}

func (p *Player) SeekTo(t float64) error {
	if pl := p.Current(); pl != nil {
		return pl.SetCurrentTime(t)
	}
	return nil
}

// ChangeVolume applies a user volume request. Zero mutes without touching
// the volume or the store; anything else unmutes, sets and persists it.
func (p *Player) ChangeVolume(v float64) error {
	pl := p.Current()
	if pl == nil {
		return nil
	}

	v = lo.Clamp(v, 0, 1)
	if v == 0 {
		return pl.SetMuted(true)
	}

	if pl.Muted() {
		if err := pl.SetMuted(false); err != nil {
			return fmt.Errorf("failed to unmute: %w", err)
		}
	}
	if err := pl.SetVolume(v); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return storage.SetVolume(p.env.Store(), v)
}

// SetMutedByUser applies and persists a user mute request.
func (p *Player) SetMutedByUser(muted bool) error {
	pl := p.Current()
	if pl == nil {
		return nil
	}
	if err := pl.SetMuted(muted); err != nil {
		return fmt.Errorf("failed to set muted: %w", err)
	}
	return storage.SetMuted(p.env.Store(), muted)
}

func (p *Player) Fullscreen() bool {
	return p.env.Host().FullscreenElement() == p.node
}

// ToggleFullscreen moves the host fullscreen target to this facade, or
// releases it when already held.
func (p *Player) ToggleFullscreen() {
	h := p.env.Host()
	fullscreen := h.FullscreenElement() != p.node
	if fullscreen {
		h.RequestFullscreen(p.node)
	} else {
		h.ExitFullscreen()
	}
	if p.controls != nil {
		p.controls.SetFullscreen(fullscreen)
	}
}

// TogglePictureInPicture hands picture-in-picture to the active adapter,
// taking it from whichever surface holds it, or leaves it when the adapter
// already holds it.
func (p *Player) TogglePictureInPicture() error {
	h := p.env.Host()
	if !h.PictureInPictureEnabled() {
		p.log.Warn("Picture-in-picture is not supported on this host")
		return host.ErrPictureInPictureUnsupported
	}

	pl := p.Current()
	if pl == nil {
		return nil
	}

	holder := h.PictureInPictureElement()
	if !pl.IsPiPElement() {
		if holder != nil {
			h.ExitPictureInPicture()
		}
		return pl.RequestPictureInPicture()
	}
	if holder != nil {
		h.ExitPictureInPicture()
	}
	return nil
}
