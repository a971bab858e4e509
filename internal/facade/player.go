// Package facade is the single player surface applications drive. It owns at
// most one adapter at a time, keeps it consistent with the declared
// attributes and the preference store, and relays adapter events to the
// controls and to its own listeners.
package facade

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"

	"github.com/hayasedb/hayase-player/internal/controls"
	"github.com/hayasedb/hayase-player/internal/events"
	"github.com/hayasedb/hayase-player/internal/host"
	"github.com/hayasedb/hayase-player/internal/markup"
	"github.com/hayasedb/hayase-player/internal/models"
	"github.com/hayasedb/hayase-player/internal/players"
	"github.com/hayasedb/hayase-player/internal/storage"
)

var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrClosed          = errors.New("player is closed")
	ErrCreatePlayer    = errors.New("failed to create player")
)

type attribute struct {
	name  string
	value string
}

type config struct {
	attrs    []attribute
	controls controls.Surface
	slot     *markup.Element
}

type Option func(*config)

func WithAttribute(name, value string) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attribute{name: name, value: value})
	}
}

func WithType(platform string) Option {
	return WithAttribute(AttrType, platform)
}

func WithSource(src string) Option {
	return WithAttribute(AttrSource, src)
}

// WithControls replaces the default headless controls.
func WithControls(c controls.Surface) Option {
	return func(cfg *config) {
		cfg.controls = c
	}
}

func WithoutControls() Option {
	return func(cfg *config) {
		cfg.controls = nil
	}
}

// WithSlot sets the declarative element adapters are built from.
func WithSlot(el *markup.Element) Option {
	return func(cfg *config) {
		cfg.slot = el
	}
}

type Player struct {
	env      *Env
	log      *log.Logger
	controls controls.Surface
	slot     *markup.Element
	node     *host.Node
	slotNode *host.Node
	stage    host.Stage

	emitter     events.Emitter[Event]
	controlsSub *events.Subscription

	// switchMu serializes platform switches; mu guards the fields below.
	switchMu sync.Mutex
	mu       sync.Mutex
	attrs    map[string]string
	current  players.Player
	sub      *events.Subscription
	platform string
	state    State
	closed   bool
}

// New builds a facade. Attributes are applied in the order given, so a
// source declared before its type is loaded by the adapter the type
// selects. Without a type, the first registered adapter matching the slot
// or the source is used.
func New(env *Env, opts ...Option) (*Player, error) {
	cfg := config{controls: controls.NewState()}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Player{
		env:      env,
		log:      env.Logger(),
		controls: cfg.controls,
		slot:     cfg.slot,
		node:     host.NewNode("player"),
		slotNode: host.NewNode("slot"),
		attrs:    make(map[string]string),
	}
	p.stage.Prepend(p.slotNode)

	if p.controls != nil {
		p.controlsSub = p.controls.Subscribe(p.handleIntent)
		p.controls.SetShownElements(p.ShownElements())
	}

	for _, attr := range cfg.attrs {
		err := p.SetAttribute(attr.name, attr.value)
		if errors.Is(err, ErrUnknownPlatform) {
			// Already reported and rolled back; matching below may still bind.
			continue
		}
		if err != nil {
			p.Close()
			return nil, err
		}
	}

	if p.Current() == nil {
		if d, ok := p.match(); ok {
			if err := p.SetAttribute(AttrType, d.Platform); err != nil {
				p.Close()
				return nil, err
			}
		}
	}

	return p, nil
}

func (p *Player) match() (players.Descriptor, bool) {
	registry := p.env.Registry()
	if p.slot != nil {
		if d, ok := registry.MatchElement(p.slot); ok {
			return d, true
		}
	}
	if src, ok := p.Attribute(AttrSource); ok {
		return registry.MatchSource(src)
	}
	return players.Descriptor{}, false
}

// Platform returns the active adapter's platform, "" while unbound.
func (p *Player) Platform() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.platform
}

func (p *Player) Current() players.Player {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Controls() controls.Surface { return p.controls }

func (p *Player) Env() *Env { return p.env }

// Node is the facade's own surface, the fullscreen target.
func (p *Player) Node() *host.Node { return p.node }

// Stage lists the attached surfaces, the active adapter's first.
func (p *Player) Stage() []*host.Node { return p.stage.Nodes() }

func (p *Player) isCurrent(pl players.Player) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current == pl
}

// SetPlatform tears down the active adapter and binds a new one of the
// given platform.
func (p *Player) SetPlatform(platform string) error {
	d, ok := p.env.Registry().Resolve(platform)
	if !ok {
		p.log.Error("Platform is not available, register it with Env.Use before selecting it",
			"platform", platform, "available", p.env.Registry().Platforms())
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}

	p.switchMu.Lock()
	defer p.switchMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	old, oldSub := p.current, p.sub
	p.current, p.sub, p.platform, p.state = nil, nil, "", StateUnbound
	_, muted := p.attrs[AttrMuted]
	if v, ok := p.attrs[AttrVolume]; ok && parseVolume(v) == 0 {
		muted = true
	}
	_, autoplay := p.attrs[AttrAutoplay]
	src, hasSrc := p.attrs[AttrSource]
	p.mu.Unlock()

	if old != nil {
		p.detach(old, oldSub)
	}

	pl, err := d.New(players.Binding{
		Slot:     p.slot,
		Muted:    muted,
		Autoplay: autoplay,
		Host:     p.env.Host(),
		Logger:   p.log,
	})
	if err != nil {
		p.log.Error("Failed to create player", "platform", platform, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrCreatePlayer, platform, err)
	}

	p.stage.Prepend(pl.Surface())

	p.mu.Lock()
	p.current, p.platform, p.state = pl, platform, StateBound
	p.mu.Unlock()

	sub := pl.Subscribe(func(ev players.Event) {
		p.handle(pl, ev)
	})
	p.mu.Lock()
	if p.current == pl {
		p.sub = sub
	} else {
		sub.Close()
	}
	p.mu.Unlock()

	if p.controls != nil {
		p.controls.SetFeaturesAvailable(pl.SupportedFeatures())
	}

	if hasSrc && src != "" && src != pl.Source() {
		if err := pl.SetSource(src); err != nil {
			p.log.Warn("Failed to load source", "source", src, "error", err)
		}
	}

	p.log.Debug("Switched platform", "platform", platform, "features", pl.SupportedFeatures().String())
	return nil
}

func (p *Player) detach(pl players.Player, sub *events.Subscription) error {
	sub.Close()
	p.stage.Remove(pl.Surface())
	if err := pl.Close(); err != nil {
		p.log.Debug("Failed to close player", "platform", pl.Platform(), "error", err)
		return fmt.Errorf("failed to close %s player: %w", pl.Platform(), err)
	}
	return nil
}

func (p *Player) handle(pl players.Player, ev players.Event) {
	if !p.isCurrent(pl) {
		p.log.Debug("Dropping event from detached player", "platform", pl.Platform(), "event", ev.Kind)
		return
	}

	if pair, ok := brackets[ev.Kind]; ok {
		p.emit(pair[0])
		if c := p.controls; c != nil {
			switch ev.Kind {
			case models.EventDurationChange, models.EventTimeUpdate:
				c.SetDuration(pl.Duration())
				c.SetCurrentTime(pl.CurrentTime())
			case models.EventVolumeChange:
				if pl.Muted() {
					c.SetVolume(0)
				} else {
					c.SetVolume(pl.Volume())
				}
			case models.EventPlaying:
				c.SetPlaying(true)
			case models.EventPause:
				c.SetPlaying(false)
			}
		}
		p.emit(pair[1])
		return
	}

	switch ev.Kind {
	case models.EventReady:
		p.onReady(pl)
	case models.EventEnded:
		if c := p.controls; c != nil {
			c.SetPlaying(false)
		}
		p.emit(EventEnded)
	case models.EventError:
		p.emit(EventError)
	}
}

func (p *Player) onReady(pl players.Player) {
	if c := p.controls; c != nil {
		c.SetPlaying(pl.Playing())
	}

	p.mu.Lock()
	rawVolume, hasVolume := p.attrs[AttrVolume]
	_, hasMuted := p.attrs[AttrMuted]
	p.mu.Unlock()

	store := p.env.Store()
	volume := storage.Volume(store)
	if hasVolume {
		volume = parseVolume(rawVolume)
	}
	if err := pl.SetVolume(volume); err != nil {
		p.log.Debug("Failed to apply volume", "volume", volume, "error", err)
	}

	if !hasMuted && !hasVolume {
		if muted, ok := storage.Muted(store); ok {
			if err := pl.SetMuted(muted); err != nil {
				p.log.Debug("Failed to apply stored muted", "error", err)
			}
		}
	}

	p.mu.Lock()
	if p.current == pl {
		p.state = StateReady
	}
	p.mu.Unlock()

	p.emit(EventReady)
}

// Close detaches the active adapter and the controls. The facade is unusable
// afterwards.
func (p *Player) Close() error {
	p.switchMu.Lock()
	defer p.switchMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pl, sub := p.current, p.sub
	p.current, p.sub, p.platform, p.state = nil, nil, "", StateUnbound
	p.mu.Unlock()

	var result *multierror.Error
	if pl != nil {
		if err := p.detach(pl, sub); err != nil {
			result = multierror.Append(result, err)
		}
	}

	p.controlsSub.Close()
	p.stage.Remove(p.slotNode)
	p.env.Host().Release(p.node)
	p.emitter.Clear()

	return result.ErrorOrNil()
}
