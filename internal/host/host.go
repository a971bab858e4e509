// Package host models the environment a player is mounted in: the stage its
// surfaces are attached to and the two exclusive presentation resources,
// fullscreen and picture-in-picture.
package host

import (
	"errors"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var (
	ErrPictureInPictureUnsupported = errors.New("picture-in-picture is not supported by the host")
	ErrPictureInPictureBusy        = errors.New("picture-in-picture is held by another surface")
)

// Node is a presentation surface owned by an adapter.
type Node struct {
	ID   string
	Name string
}

func NewNode(name string) *Node {
	return &Node{ID: uuid.NewString(), Name: name}
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.Name + "#" + n.ID[:8]
}

// Stage is the ordered list of surfaces attached to one facade.
type Stage struct {
	mu    sync.Mutex
	nodes []*Node
}

func (s *Stage) Prepend(n *Node) {
	if n == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = slices.Insert(slices.DeleteFunc(s.nodes, func(o *Node) bool { return o == n }), 0, n)
}

func (s *Stage) Remove(n *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = slices.DeleteFunc(s.nodes, func(o *Node) bool { return o == n })
}

func (s *Stage) Contains(n *Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.nodes, n)
}

func (s *Stage) Nodes() []*Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.nodes)
}

type Option func(*Host)

func WithPictureInPicture(enabled bool) Option {
	return func(h *Host) {
		h.pipEnabled = enabled
	}
}

// Host owns the process-wide fullscreen and picture-in-picture targets.
// Each can be held by at most one node at a time.
type Host struct {
	mu         sync.Mutex
	fullscreen *Node
	pip        *Node
	pipEnabled bool
}

func New(opts ...Option) *Host {
	h := &Host{pipEnabled: true}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Host) FullscreenElement() *Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fullscreen
}

// RequestFullscreen moves the fullscreen target to n, replacing any holder.
func (h *Host) RequestFullscreen(n *Node) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fullscreen != nil && h.fullscreen != n {
		log.Debug("Replacing fullscreen holder", "previous", h.fullscreen, "next", n)
	}
	h.fullscreen = n
}

func (h *Host) ExitFullscreen() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fullscreen = nil
}

func (h *Host) PictureInPictureEnabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pipEnabled
}

func (h *Host) PictureInPictureElement() *Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pip
}

func (h *Host) RequestPictureInPicture(n *Node) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.pipEnabled {
		return ErrPictureInPictureUnsupported
	}
	if h.pip != nil && h.pip != n {
		return ErrPictureInPictureBusy
	}
	h.pip = n
	return nil
}

func (h *Host) ExitPictureInPicture() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pip = nil
}

// Release drops every target n holds. Called when a surface is detached.
func (h *Host) Release(n *Node) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fullscreen == n {
		h.fullscreen = nil
	}
	if h.pip == n {
		h.pip = nil
	}
}
