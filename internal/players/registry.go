package players

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/hayasedb/hayase-player/internal/host"
	"github.com/hayasedb/hayase-player/internal/markup"
	"github.com/hayasedb/hayase-player/internal/models"
)

var ErrInvalidDescriptor = errors.New("descriptor does not describe a player")

// Binding is what a facade hands an adapter constructor.
type Binding struct {
	Slot     *markup.Element
	Muted    bool
	Autoplay bool
	Host     *host.Host
	Logger   *log.Logger
}

func (b Binding) Log() *log.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return log.Default()
}

// Descriptor registers one adapter kind.
type Descriptor struct {
	Platform string
	Features models.FeatureSet
	New      func(Binding) (Player, error)

	// MatchElement reports whether the adapter can drive a slot element.
	// Defaults to Match(el.Src()).
	MatchElement func(*markup.Element) bool
	// Match reports whether the adapter can play a source. Defaults to false.
	Match func(source string) bool
}

func (d Descriptor) Valid() bool {
	return d.Platform != "" && d.New != nil
}

func (d Descriptor) MatchesElement(el *markup.Element) bool {
	if d.MatchElement != nil {
		return d.MatchElement(el)
	}
	return d.MatchesSource(el.Src())
}

func (d Descriptor) MatchesSource(source string) bool {
	if d.Match == nil || source == "" {
		return false
	}
	return d.Match(source)
}

// Registry maps platform names to descriptors. The first registration of a
// name wins; later ones are ignored.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	order       []string
}

func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]Descriptor),
	}
}

func (r *Registry) Register(d Descriptor) error {
	if !d.Valid() {
		return fmt.Errorf("failed to register %q: %w", d.Platform, ErrInvalidDescriptor)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[d.Platform]; exists {
		log.Debug("Player already registered, ignoring", "platform", d.Platform)
		return nil
	}

	r.descriptors[d.Platform] = d
	r.order = append(r.order, d.Platform)
	log.Debug("Registered player", "platform", d.Platform, "features", d.Features.String())
	return nil
}

func (r *Registry) Resolve(platform string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[platform]
	return d, ok
}

func (r *Registry) Has(platform string) bool {
	_, ok := r.Resolve(platform)
	return ok
}

// Platforms lists registered platforms in registration order.
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.descriptors[name])
	}
	return out
}

// MatchElement returns the first registered descriptor that can drive el.
func (r *Registry) MatchElement(el *markup.Element) (Descriptor, bool) {
	for _, d := range r.Descriptors() {
		if d.MatchesElement(el) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// MatchSource returns the first registered descriptor that can play source.
func (r *Registry) MatchSource(source string) (Descriptor, bool) {
	for _, d := range r.Descriptors() {
		if d.MatchesSource(source) {
			return d, true
		}
	}
	return Descriptor{}, false
}
