package facade

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/hayasedb/hayase-player/internal/models"
)

const (
	AttrSource        = "source"
	AttrType          = "type"
	AttrMuted         = "muted"
	AttrVolume        = "volume"
	AttrAutoplay      = "autoplay"
	AttrNoControls    = "nocontrols"
	AttrShownElements = "shown-elements"
)

func ObservedAttributes() []string {
	return []string{AttrSource, AttrType, AttrMuted, AttrVolume, AttrNoControls, AttrAutoplay, AttrShownElements}
}

// parseVolume reads a volume attribute, clamped to [0,1]. Unparseable
// values read as 0.
func parseVolume(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return lo.Clamp(v, 0, 1)
}

func (p *Player) Attribute(name string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.attrs[name]
	return v, ok
}

func (p *Player) HasAttribute(name string) bool {
	_, ok := p.Attribute(name)
	return ok
}

// SetAttribute declares an attribute and reconciles the adapter, the
// controls and the facade with it. Boolean attributes are present or
// absent; their value is ignored.
func (p *Player) SetAttribute(name, value string) error {
	name = strings.ToLower(name)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	prev, hadPrev := p.attrs[name]
	p.attrs[name] = value
	p.mu.Unlock()

	err := p.reconcile(name, value, true)
	switch {
	case errors.Is(err, ErrUnknownPlatform):
		p.mu.Lock()
		if hadPrev {
			p.attrs[name] = prev
		} else {
			delete(p.attrs, name)
		}
		p.mu.Unlock()
	case errors.Is(err, ErrCreatePlayer):
		// The old adapter is gone, so the type no longer names anything bound.
		p.mu.Lock()
		if p.attrs[name] == value {
			delete(p.attrs, name)
		}
		p.mu.Unlock()
	}
	return err
}

func (p *Player) RemoveAttribute(name string) error {
	name = strings.ToLower(name)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if _, ok := p.attrs[name]; !ok {
		p.mu.Unlock()
		return nil
	}
	delete(p.attrs, name)
	p.mu.Unlock()

	return p.reconcile(name, "", false)
}

func (p *Player) reconcile(name, value string, present bool) error {
	pl := p.Current()

	switch name {
	case AttrNoControls:
		if p.controls != nil {
			p.controls.SetHidden(present)
		}
	case AttrVolume:
		if !present || pl == nil {
			return nil
		}
		volume := parseVolume(value)
		if err := pl.SetVolume(volume); err != nil {
			p.log.Debug("Failed to set volume", "volume", volume, "error", err)
		}
		if err := pl.SetMuted(volume == 0); err != nil {
			p.log.Debug("Failed to set muted", "error", err)
		}
	case AttrMuted:
		if pl == nil {
			return nil
		}
		if err := pl.SetMuted(present); err != nil {
			p.log.Debug("Failed to set muted", "error", err)
		}
	case AttrSource:
		if !present || pl == nil {
			return nil
		}
		if err := pl.SetSource(value); err != nil {
			p.log.Warn("Failed to load source", "source", value, "error", err)
		}
	case AttrType:
		if !present {
			return nil
		}
		if pl != nil && p.Platform() == value {
			p.log.Debug("Platform already active", "platform", value)
			return nil
		}
		return p.SetPlatform(value)
	case AttrAutoplay:
		if !present || pl == nil || pl.Playing() {
			return nil
		}
		if err := pl.SetAutoplay(true); err != nil {
			p.log.Debug("Failed to set autoplay", "error", err)
		}
	case AttrShownElements:
		if p.controls != nil {
			p.controls.SetShownElements(p.ShownElements())
		}
	}
	return nil
}

// ShownElements is the controls allow-list: the shown-elements attribute
// when declared, otherwise every element.
func (p *Player) ShownElements() []models.ControlElement {
	list, ok := p.Attribute(AttrShownElements)
	if !ok {
		return models.DefaultShownElements()
	}
	return models.ParseShownElements(list)
}

func (p *Player) Source() string {
	src, _ := p.Attribute(AttrSource)
	return src
}

// SetSource declares the source attribute when it changes.
func (p *Player) SetSource(src string) error {
	if src == p.Source() && p.HasAttribute(AttrSource) {
		return nil
	}
	return p.SetAttribute(AttrSource, src)
}

func (p *Player) Type() string {
	t, _ := p.Attribute(AttrType)
	return t
}

// SetType declares the type attribute when it names a registered platform.
func (p *Player) SetType(platform string) error {
	if platform == p.Type() || !p.env.Registry().Has(platform) {
		return nil
	}
	return p.SetAttribute(AttrType, platform)
}

func (p *Player) NoControls() bool {
	return p.HasAttribute(AttrNoControls)
}

func (p *Player) SetNoControls(hide bool) error {
	if hide {
		return p.SetAttribute(AttrNoControls, "")
	}
	return p.RemoveAttribute(AttrNoControls)
}

func (p *Player) Volume() float64 {
	if pl := p.Current(); pl != nil {
		return pl.Volume()
	}
	return 0
}

// SetVolume sets the adapter volume directly, without touching muted or
// the preference store.
func (p *Player) SetVolume(v float64) error {
	if pl := p.Current(); pl != nil {
		return pl.SetVolume(lo.Clamp(v, 0, 1))
	}
	return nil
}

func (p *Player) Muted() bool {
	if pl := p.Current(); pl != nil {
		return pl.Muted()
	}
	return false
}

func (p *Player) SetMuted(m bool) error {
	if pl := p.Current(); pl != nil {
		return pl.SetMuted(m)
	}
	return nil
}

func (p *Player) Autoplay() bool {
	return p.HasAttribute(AttrAutoplay)
}

func (p *Player) Playing() bool {
	if pl := p.Current(); pl != nil {
		return pl.Playing()
	}
	return false
}

func (p *Player) CurrentTime() float64 {
	if pl := p.Current(); pl != nil {
		return pl.CurrentTime()
	}
	return 0
}

func (p *Player) Duration() float64 {
	if pl := p.Current(); pl != nil {
		return pl.Duration()
	}
	return 0
}

func (p *Player) AvailableQualities() []models.Quality {
	if pl := p.Current(); pl != nil {
		return pl.AvailableQualities()
	}
	return nil
}

// Quality returns the index of the active quality, -1 when unknown.
func (p *Player) Quality() int {
	if pl := p.Current(); pl != nil {
		return pl.Quality()
	}
	return -1
}

func (p *Player) SetQuality(index int) error {
	if pl := p.Current(); pl != nil {
		return pl.SetQuality(index)
	}
	return nil
}

type titled interface {
	Title() string
}

// Title returns the media title when the adapter knows one.
func (p *Player) Title() string {
	if t, ok := p.Current().(titled); ok {
		return t.Title()
	}
	return ""
}
