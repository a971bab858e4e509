// Package html5 adapts native audio and video elements to the player
// contract.
package html5

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/hayasedb/hayase-player/internal/host"
	"github.com/hayasedb/hayase-player/internal/markup"
	"github.com/hayasedb/hayase-player/internal/models"
	"github.com/hayasedb/hayase-player/internal/players"
)

const (
	AudioPlatform = "html5-audio"
	VideoPlatform = "html5-video"
)

var (
	audioFeatures = models.NewFeatureSet(
		models.FeatureVolume,
		models.FeatureSeek,
	)
	videoFeatures = models.NewFeatureSet(
		models.FeatureVolume,
		models.FeatureSeek,
		models.FeaturePictureInPicture,
		models.FeatureFullscreen,
		models.FeaturePlaybackRate,
		models.FeatureLoop,
	)

	audioExtensions = []string{".mp3", ".flac", ".ogg", ".oga", ".opus", ".wav", ".m4a", ".aac"}
	videoExtensions = []string{".mp4", ".m4v", ".mkv", ".webm", ".mov", ".avi", ".ogv"}
)

type Player struct {
	players.Base

	kind     MediaKind
	platform string
	features models.FeatureSet
	element  MediaElement
	slot     *markup.Element
	host     *host.Host
	surface  *host.Node
	log      *log.Logger
}

var _ players.Player = (*Player)(nil)

func AudioDescriptor(factory ElementFactory) players.Descriptor {
	return descriptor(KindAudio, AudioPlatform, audioFeatures, audioExtensions, factory)
}

func VideoDescriptor(factory ElementFactory) players.Descriptor {
	return descriptor(KindVideo, VideoPlatform, videoFeatures, videoExtensions, factory)
}

func descriptor(kind MediaKind, platform string, features models.FeatureSet, exts []string, factory ElementFactory) players.Descriptor {
	return players.Descriptor{
		Platform: platform,
		Features: features,
		New: func(b players.Binding) (players.Player, error) {
			p, err := New(kind, platform, features, factory, b)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		MatchElement: func(el *markup.Element) bool {
			return el.Tag() == string(kind)
		},
		Match: func(source string) bool {
			return lo.Contains(exts, strings.ToLower(path.Ext(stripQuery(source))))
		},
	}
}

func stripQuery(source string) string {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		return source[:i]
	}
	return source
}

func New(kind MediaKind, platform string, features models.FeatureSet, factory ElementFactory, b players.Binding) (*Player, error) {
	logger := b.Log().WithPrefix(platform)

	element, err := factory(kind, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s element: %w", kind, err)
	}

	p := &Player{
		kind:     kind,
		platform: platform,
		features: features,
		element:  element,
		slot:     b.Slot,
		host:     b.Host,
		surface:  host.NewNode(platform),
		log:      logger,
	}
	p.Init(p)

	if err := element.SetMuted(b.Muted); err != nil {
		logger.Debug("Failed to set muted", "error", err)
	}
	element.SetAutoplay(b.Autoplay)
	if b.Autoplay && !b.Muted {
		logger.Warn("Autoplay is not muted, the backend may refuse to start audible playback")
	}

	element.OnEvent(p.handleMediaEvent)

	if src := b.Slot.Src(); src != "" {
		if err := p.SetSource(src); err != nil {
			logger.Warn("Failed to load slot source", "source", src, "error", err)
		}
	}

	return p, nil
}

func (p *Player) handleMediaEvent(ev MediaEvent) {
	switch ev {
	case MediaPlaying:
		p.Emit(models.EventPlaying)
	case MediaPause:
		p.Emit(models.EventPause)
	case MediaWaiting:
		p.Emit(models.EventWaiting)
	case MediaDurationChange:
		p.Emit(models.EventDurationChange)
	case MediaTimeUpdate:
		p.Emit(models.EventTimeUpdate)
	case MediaEnded:
		p.Emit(models.EventEnded)
	case MediaVolumeChange:
		p.Emit(models.EventVolumeChange)
	case MediaError:
		p.Emit(models.EventError)
	case MediaCanPlay:
		if p.element.Autoplay() {
			if err := p.Play(); err != nil {
				p.log.Debug("Autoplay failed", "error", err)
			}
		}
		p.Emit(models.EventReady)
	default:
		p.log.Debug("Unhandled media event", "event", ev)
	}
}

func (p *Player) Platform() string { return p.platform }

func (p *Player) Play() error {
	if p.Playing() {
		return nil
	}
	return p.element.Play()
}

func (p *Player) Pause() error {
	return p.element.Pause()
}

func (p *Player) Stop() error {
	if err := p.element.Pause(); err != nil {
		return err
	}
	return p.element.SetCurrentTime(0)
}

func (p *Player) Seek(t float64) error {
	return p.element.SetCurrentTime(max(t, 0))
}

func (p *Player) SupportedFeatures() models.FeatureSet { return p.features }

func (p *Player) RequestPictureInPicture() error {
	if !p.features.Has(models.FeaturePictureInPicture) {
		return fmt.Errorf("%s: %w", p.platform, players.ErrUnsupportedOperation)
	}
	if p.host == nil {
		return fmt.Errorf("%s: no host: %w", p.platform, players.ErrUnsupportedOperation)
	}
	return p.host.RequestPictureInPicture(p.surface)
}

func (p *Player) IsPiPElement() bool {
	return p.host != nil && p.host.PictureInPictureElement() == p.surface
}

func (p *Player) CurrentTime() float64 { return p.element.CurrentTime() }

func (p *Player) SetCurrentTime(t float64) error { return p.Seek(t) }

func (p *Player) Duration() float64 { return p.element.Duration() }

func (p *Player) Volume() float64 { return p.element.Volume() }

func (p *Player) SetVolume(v float64) error {
	return p.element.SetVolume(lo.Clamp(v, 0, 1))
}

func (p *Player) Muted() bool { return p.element.Muted() }

func (p *Player) SetMuted(m bool) error { return p.element.SetMuted(m) }

func (p *Player) Autoplay() bool { return p.element.Autoplay() }

func (p *Player) SetAutoplay(a bool) error {
	p.element.SetAutoplay(a)
	return nil
}

// SetSource swaps the element source, keeping the playback position and
// resuming if the element was playing.
func (p *Player) SetSource(src string) error {
	currentTime := p.element.CurrentTime()
	paused := p.element.Paused()

	if err := p.element.Load(src); err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}
	p.StoreSource(src)

	if err := p.element.SetCurrentTime(currentTime); err != nil {
		p.log.Debug("Failed to restore position", "time", currentTime, "error", err)
	}
	if !paused {
		return p.element.Play()
	}
	return nil
}

// sources returns the slot's <source> children this element can play.
func (p *Player) sources() []markup.Source {
	return lo.Filter(p.slot.Sources(), func(s markup.Source, _ int) bool {
		return s.MediaKind() == string(p.kind) && p.element.CanPlayType(s.Type) != ""
	})
}

func (p *Player) AvailableQualities() []models.Quality {
	return lo.Map(p.sources(), func(s markup.Source, _ int) models.Quality {
		if s.Size == 0 {
			return ""
		}
		return models.Quality(strconv.Itoa(s.Size))
	})
}

func (p *Player) SetQuality(index int) error {
	sources := p.sources()
	if index < 0 || index >= len(sources) {
		return fmt.Errorf("quality %d out of range (%d available)", index, len(sources))
	}

	p.StoreQuality(index)
	if err := p.SetSource(sources[index].Src); err != nil {
		return err
	}
	p.Emit(models.EventQualityChange)
	return nil
}

func (p *Player) Surface() *host.Node { return p.surface }

func (p *Player) Close() error {
	p.MarkClosed()
	if p.host != nil {
		p.host.Release(p.surface)
	}
	if err := p.element.Close(); err != nil {
		return fmt.Errorf("failed to close %s element: %w", p.kind, err)
	}
	return nil
}
