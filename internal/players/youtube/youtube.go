// Package youtube adapts an embedded YouTube player, reached through an
// asynchronous remote API, to the player contract.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/hayasedb/hayase-player/internal/host"
	"github.com/hayasedb/hayase-player/internal/markup"
	"github.com/hayasedb/hayase-player/internal/models"
	"github.com/hayasedb/hayase-player/internal/players"
)

const Platform = "youtube"

const (
	// PollInterval is how often timeupdate is synthesized while playing;
	// the embed never pushes its position.
	PollInterval = 100 * time.Millisecond
	// VolumeChangeDelay defers volumechange after a volume or mute call,
	// the embed's own notification races the call.
	VolumeChangeDelay = 200 * time.Millisecond
)

var ErrNotReady = errors.New("embed player is not ready")

var (
	features = models.NewFeatureSet(
		models.FeatureFullscreen,
		models.FeatureLoop,
		models.FeaturePlaybackRate,
		models.FeatureSeek,
		models.FeatureVolume,
	)

	videoIDPattern = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)
)

// VideoID extracts the video id from a YouTube URL. Sources that match no
// known URL shape are returned unchanged.
func VideoID(source string) string {
	if source == "" {
		return ""
	}
	matches := videoIDPattern.FindStringSubmatch(source)
	if len(matches) >= 3 {
		return matches[2]
	}
	return source
}

func Match(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	hostname := strings.ToLower(u.Hostname())
	return hostname == "youtu.be" || hostname == "youtube.com" || strings.HasSuffix(hostname, ".youtube.com")
}

func MatchElement(el *markup.Element) bool {
	return el.Tag() == "iframe" && strings.Contains(el.Attr("src"), "youtube")
}

type Option func(*Player)

// WithOEmbed enables title lookup once the embed is ready.
func WithOEmbed(c *OEmbedClient) Option {
	return func(p *Player) {
		p.oembed = c
	}
}

func Descriptor(loader *Loader, opts ...Option) players.Descriptor {
	return players.Descriptor{
		Platform: Platform,
		Features: features,
		New: func(b players.Binding) (players.Player, error) {
			return New(loader, b, opts...), nil
		},
		MatchElement: MatchElement,
		Match:        Match,
	}
}

type Player struct {
	players.Base

	loader  *Loader
	oembed  *OEmbedClient
	surface *host.Node
	log     *log.Logger

	mu           sync.Mutex
	embed        EmbedPlayer
	readyPending bool
	autoplay     bool
	muted        bool
	volume       float64
	hasVolume    bool
	duration     float64
	title        string
	pollStop     chan struct{}
	timers       map[*time.Timer]struct{}
	closed       bool
	cancel       context.CancelFunc
}

var _ players.Player = (*Player)(nil)

func New(loader *Loader, b players.Binding, opts ...Option) *Player {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Player{
		loader:   loader,
		surface:  host.NewNode(Platform),
		log:      b.Log().WithPrefix(Platform),
		autoplay: b.Autoplay,
		muted:    b.Muted,
		timers:   make(map[*time.Timer]struct{}),
		cancel:   cancel,
	}
	p.Init(p)
	for _, opt := range opts {
		opt(p)
	}

	p.StoreSource(b.Slot.Src())

	loader.Ready(func(api API, err error) {
		p.attach(ctx, api, err)
	})

	return p
}

func (p *Player) attach(ctx context.Context, api API, err error) {
	if err != nil {
		p.log.Error("Embed API unavailable", "error", err)
		p.Emit(models.EventError)
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	cfg := EmbedConfig{
		VideoID:  VideoID(p.Source()),
		Autoplay: p.autoplay,
		Muted:    p.muted,
		Events: EmbedEvents{
			OnReady:                 func() { p.onReady(ctx) },
			OnStateChange:           p.onStateChange,
			OnError:                 p.onError,
			OnPlaybackRateChange:    p.onPlaybackRateChange,
			OnPlaybackQualityChange: p.onPlaybackQualityChange,
		},
	}
	p.mu.Unlock()

	embed, err := api.NewPlayer(cfg)
	if err != nil {
		p.log.Error("Failed to create embed player", "video_id", cfg.VideoID, "error", err)
		p.Emit(models.EventError)
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if err := embed.Destroy(); err != nil {
			p.log.Debug("Failed to destroy embed player", "error", err)
		}
		return
	}
	p.embed = embed
	readyPending := p.readyPending
	p.readyPending = false
	volume, hasVolume := p.volume, p.hasVolume
	p.mu.Unlock()

	if hasVolume {
		if err := embed.SetVolume(volume * 100); err != nil {
			p.log.Debug("Failed to apply pending volume", "error", err)
		}
	}

	if readyPending {
		p.onReady(ctx)
	}
}

func (p *Player) backend() EmbedPlayer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.embed
}

func (p *Player) onReady(ctx context.Context) {
	p.mu.Lock()
	if p.embed == nil {
		p.readyPending = true
		p.mu.Unlock()
		return
	}
	autoplay := p.autoplay
	p.mu.Unlock()

	if p.oembed != nil {
		go p.fetchTitle(ctx, VideoID(p.Source()))
	}

	if autoplay {
		if err := p.Play(); err != nil {
			p.log.Debug("Autoplay failed", "error", err)
		}
	}

	p.Emit(models.EventReady)
}

func (p *Player) fetchTitle(ctx context.Context, videoID string) {
	info, err := p.oembed.Fetch(ctx, videoID)
	if err != nil {
		p.log.Debug("Failed to fetch title", "video_id", videoID, "error", err)
		return
	}
	p.mu.Lock()
	p.title = info.Title
	p.mu.Unlock()
	p.log.Debug("Fetched title", "title", info.Title)
}

func (p *Player) onStateChange(state PlayerState) {
	p.log.Debug("State changed", "state", state)

	switch state {
	case StateEnded:
		p.stopPolling()
		p.Emit(models.EventEnded)

	case StatePlaying:
		p.startPolling()
		p.Emit(models.EventPlaying)
		if embed := p.backend(); embed != nil {
			p.observeDuration(embed.Duration())
		}

	case StatePaused:
		p.stopPolling()
		p.Emit(models.EventPause)

	case StateBuffering:
		p.Emit(models.EventWaiting)

	case StateCued, StateUnstarted:
		p.stopPolling()
		p.SetPlayingFlag(false)
	}
}

// observeDuration stores the first strictly positive duration.
func (p *Player) observeDuration(d float64) {
	p.mu.Lock()
	if d <= 0 || p.duration > 0 {
		p.mu.Unlock()
		return
	}
	p.duration = d
	p.mu.Unlock()

	p.Emit(models.EventDurationChange)
}

func (p *Player) onError(code int) {
	p.log.Error("Embed error", "code", code, "message", ErrorMessage(code))
	p.Emit(models.EventError)
}

func (p *Player) onPlaybackRateChange(rate float64) {
	p.log.Debug("Playback rate changed", "rate", rate)
	p.Emit(models.EventPlaybackRateChange)
}

func (p *Player) onPlaybackQualityChange(quality string) {
	p.log.Debug("Playback quality changed", "quality", quality)
	p.Emit(models.EventQualityChange)
}

func (p *Player) startPolling() {
	p.mu.Lock()
	if p.pollStop != nil || p.closed {
		p.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	p.pollStop = stop
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				p.Emit(models.EventTimeUpdate)
			}
		}
	}()
}

func (p *Player) stopPolling() {
	p.mu.Lock()
	stop := p.pollStop
	p.pollStop = nil
	p.mu.Unlock()

	if stop != nil {
		close(stop)
	}
}

// Polling reports whether the timeupdate ticker is running.
func (p *Player) Polling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pollStop != nil
}

func (p *Player) emitVolumeChangeLater() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(VolumeChangeDelay, func() {
		p.mu.Lock()
		_, pending := p.timers[timer]
		delete(p.timers, timer)
		p.mu.Unlock()
		if pending {
			p.Emit(models.EventVolumeChange)
		}
	})
	p.timers[timer] = struct{}{}
}

func (p *Player) Platform() string { return Platform }

func (p *Player) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

func (p *Player) Play() error {
	embed := p.backend()
	if embed == nil {
		return ErrNotReady
	}
	if p.Playing() {
		return nil
	}
	return embed.PlayVideo()
}

func (p *Player) Pause() error {
	embed := p.backend()
	if embed == nil {
		return ErrNotReady
	}
	return embed.PauseVideo()
}

func (p *Player) Stop() error {
	embed := p.backend()
	if embed == nil {
		return ErrNotReady
	}
	return embed.StopVideo()
}

func (p *Player) Seek(t float64) error {
	embed := p.backend()
	if embed == nil {
		return ErrNotReady
	}
	return embed.SeekTo(max(t, 0), true)
}

func (p *Player) SupportedFeatures() models.FeatureSet { return features }

func (p *Player) RequestPictureInPicture() error {
	return fmt.Errorf("%s: %w", Platform, players.ErrUnsupportedOperation)
}

func (p *Player) CurrentTime() float64 {
	if embed := p.backend(); embed != nil {
		return embed.CurrentTime()
	}
	return 0
}

func (p *Player) SetCurrentTime(t float64) error { return p.Seek(t) }

func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *Player) Volume() float64 {
	if embed := p.backend(); embed != nil {
		return embed.Volume() / 100
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hasVolume {
		return p.volume
	}
	return 1
}

// SetVolume is applied once the embed exists when called before that.
func (p *Player) SetVolume(v float64) error {
	v = lo.Clamp(v, 0, 1)

	embed := p.backend()
	if embed == nil {
		p.mu.Lock()
		p.volume, p.hasVolume = v, true
		p.mu.Unlock()
		return nil
	}

	if err := embed.SetVolume(v * 100); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	p.emitVolumeChangeLater()
	return nil
}

func (p *Player) Muted() bool {
	if embed := p.backend(); embed != nil {
		return embed.IsMuted()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *Player) SetMuted(m bool) error {
	embed := p.backend()
	if embed == nil {
		p.mu.Lock()
		p.muted = m
		p.mu.Unlock()
		return nil
	}

	var err error
	if m {
		err = embed.Mute()
	} else {
		err = embed.UnMute()
	}
	if err != nil {
		return fmt.Errorf("failed to set muted: %w", err)
	}
	p.emitVolumeChangeLater()
	return nil
}

func (p *Player) Autoplay() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoplay
}

func (p *Player) SetAutoplay(a bool) error {
	p.mu.Lock()
	p.autoplay = a
	p.mu.Unlock()
	return nil
}

func (p *Player) SetSource(src string) error {
	p.StoreSource(src)
	p.mu.Lock()
	p.duration = 0
	p.mu.Unlock()

	if embed := p.backend(); embed != nil {
		return embed.LoadVideoByID(VideoID(src))
	}
	return nil
}

func (p *Player) AvailableQualities() []models.Quality {
	embed := p.backend()
	if embed == nil {
		return nil
	}
	return lo.Map(embed.AvailableQualityLevels(), func(q string, _ int) models.Quality {
		return models.Quality(q)
	})
}

func (p *Player) Quality() int {
	embed := p.backend()
	if embed == nil {
		return -1
	}
	return lo.IndexOf(embed.AvailableQualityLevels(), embed.PlaybackQuality())
}

func (p *Player) SetQuality(index int) error {
	embed := p.backend()
	if embed == nil {
		return ErrNotReady
	}
	levels := embed.AvailableQualityLevels()
	if index < 0 || index >= len(levels) {
		return fmt.Errorf("quality %d out of range (%d available)", index, len(levels))
	}
	return embed.SetPlaybackQuality(levels[index])
}

func (p *Player) Surface() *host.Node { return p.surface }

// Close stops polling and pending volume notifications and destroys the
// embed. Nothing is emitted after Close returns.
func (p *Player) Close() error {
	p.stopPolling()

	p.mu.Lock()
	p.closed = true
	for timer := range p.timers {
		timer.Stop()
	}
	clear(p.timers)
	embed := p.embed
	p.embed = nil
	p.mu.Unlock()

	p.cancel()
	p.MarkClosed()

	if embed != nil {
		if err := embed.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy embed player: %w", err)
		}
	}
	return nil
}
