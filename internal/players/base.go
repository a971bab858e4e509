package players

import (
	"sync"

	"github.com/hayasedb/hayase-player/internal/events"
	"github.com/hayasedb/hayase-player/internal/models"
)

// Base carries the bookkeeping shared by all adapters. Adapters embed it,
// call Init with themselves, and override whatever their backend supports.
type Base struct {
	self    Player
	emitter events.Emitter[Event]

	mu         sync.Mutex
	playing    bool
	source     string
	quality    int
	closed     bool
	subscribed bool
	pending    []Event
}

func (b *Base) Init(self Player) {
	b.self = self
}

// Subscribe attaches fn. Events emitted before the first listener attached
// (a backend may become ready while the adapter is still being wired) are
// delivered to it first.
func (b *Base) Subscribe(fn func(Event)) *events.Subscription {
	b.mu.Lock()
	sub := b.emitter.Subscribe(fn)
	if !b.subscribed {
		b.subscribed = true
		b.emitter.Post(b.pending...)
		b.pending = nil
	}
	b.mu.Unlock()

	b.emitter.Flush()
	return sub
}

// Emit publishes kind and keeps the playing flag in step with
// playing/pause/ended. Emits after MarkClosed are dropped.
func (b *Base) Emit(kind models.EventKind) {
	ev := Event{Kind: kind, Player: b.self}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	switch kind {
	case models.EventPlaying:
		b.playing = true
	case models.EventPause, models.EventEnded:
		b.playing = false
	}
	if !b.subscribed {
		b.pending = append(b.pending, ev)
		b.mu.Unlock()
		return
	}
	b.emitter.Post(ev)
	b.mu.Unlock()

	b.emitter.Flush()
}

// MarkClosed stops further emission and detaches every listener.
func (b *Base) MarkClosed() {
	b.mu.Lock()
	b.closed = true
	b.pending = nil
	b.mu.Unlock()
	b.emitter.Clear()
}

func (b *Base) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Base) Playing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

func (b *Base) SetPlayingFlag(playing bool) {
	b.mu.Lock()
	b.playing = playing
	b.mu.Unlock()
}

func (b *Base) Source() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.source
}

func (b *Base) StoreSource(src string) {
	b.mu.Lock()
	b.source = src
	b.mu.Unlock()
}

func (b *Base) Quality() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.quality
}

func (b *Base) StoreQuality(index int) {
	b.mu.Lock()
	b.quality = index
	b.mu.Unlock()
}

func (b *Base) CurrentTime() float64 { return 0 }

func (b *Base) SetCurrentTime(t float64) error {
	return b.self.Seek(t)
}

func (b *Base) Duration() float64 { return 0 }

func (b *Base) Volume() float64 { return 1 }

func (b *Base) SetVolume(float64) error { return ErrNotImplemented }

func (b *Base) Muted() bool { return false }

func (b *Base) SetMuted(bool) error { return ErrNotImplemented }

func (b *Base) Autoplay() bool { return false }

func (b *Base) SetAutoplay(bool) error { return ErrNotImplemented }

func (b *Base) SetSource(src string) error {
	b.StoreSource(src)
	return nil
}

func (b *Base) SetQuality(index int) error {
	b.StoreQuality(index)
	return nil
}

func (b *Base) AvailableQualities() []models.Quality { return nil }

func (b *Base) IsPiPElement() bool { return false }

func (b *Base) RequestPictureInPicture() error { return ErrUnsupportedOperation }
