package players

import (
	"sync"

	"github.com/hayasedb/hayase-player/internal/host"
	"github.com/hayasedb/hayase-player/internal/models"
)

// Mock is a test double for Player. Backend events are simulated with Fire.
type Mock struct {
	Base

	platform string
	features models.FeatureSet
	surface  *host.Node

	mu        sync.Mutex
	time      float64
	duration  float64
	volume    float64
	muted     bool
	autoplay  bool
	closed    bool
	calls     []string
	volumeSet []float64
	closeErr  error
}

var _ Player = (*Mock)(nil)

func NewMock(platform string, features ...models.Feature) *Mock {
	m := &Mock{
		platform: platform,
		features: models.NewFeatureSet(features...),
		surface:  host.NewNode(platform),
		volume:   1,
	}
	m.Init(m)
	return m
}

// MockDescriptor registers constructors that record every Mock they build.
func MockDescriptor(platform string, built *[]*Mock, features ...models.Feature) Descriptor {
	var mu sync.Mutex
	return Descriptor{
		Platform: platform,
		Features: models.NewFeatureSet(features...),
		New: func(b Binding) (Player, error) {
			m := NewMock(platform, features...)
			m.muted = b.Muted
			m.autoplay = b.Autoplay
			if src := b.Slot.Src(); src != "" {
				m.StoreSource(src)
			}
			mu.Lock()
			*built = append(*built, m)
			mu.Unlock()
			return m, nil
		},
	}
}

func (m *Mock) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *Mock) Platform() string { return m.platform }

func (m *Mock) Play() error {
	m.record("play")
	if m.Playing() {
		return nil
	}
	m.Emit(models.EventPlaying)
	return nil
}

func (m *Mock) Pause() error {
	m.record("pause")
	if !m.Playing() {
		return nil
	}
	m.Emit(models.EventPause)
	return nil
}

func (m *Mock) Stop() error {
	m.record("stop")
	if err := m.Pause(); err != nil {
		return err
	}
	return m.Seek(0)
}

func (m *Mock) Seek(t float64) error {
	m.record("seek")
	m.mu.Lock()
	m.time = t
	m.mu.Unlock()
	return nil
}

func (m *Mock) RequestPictureInPicture() error {
	m.record("pip")
	if !m.features.Has(models.FeaturePictureInPicture) {
		return ErrUnsupportedOperation
	}
	return nil
}

func (m *Mock) SupportedFeatures() models.FeatureSet { return m.features }

func (m *Mock) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.time
}

func (m *Mock) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) SetDuration(d float64) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) SetVolume(v float64) error {
	m.record("volume")
	m.mu.Lock()
	m.volume = v
	m.volumeSet = append(m.volumeSet, v)
	m.mu.Unlock()
	return nil
}

func (m *Mock) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *Mock) SetMuted(muted bool) error {
	m.record("muted")
	m.mu.Lock()
	m.muted = muted
	m.mu.Unlock()
	return nil
}

func (m *Mock) Autoplay() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoplay
}

func (m *Mock) SetAutoplay(a bool) error {
	m.record("autoplay")
	m.mu.Lock()
	m.autoplay = a
	m.mu.Unlock()
	return nil
}

func (m *Mock) SetSource(src string) error {
	m.record("source")
	m.StoreSource(src)
	return nil
}

func (m *Mock) Surface() *host.Node { return m.surface }

func (m *Mock) Close() error {
	m.record("close")
	m.mu.Lock()
	m.closed = true
	err := m.closeErr
	m.mu.Unlock()
	m.MarkClosed()
	return err
}

// Test helpers

// Fire simulates a backend event.
func (m *Mock) Fire(kind models.EventKind) {
	m.Emit(kind)
}

func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *Mock) VolumeCalls() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.volumeSet))
	copy(out, m.volumeSet)
	return out
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Mock) SetCloseError(err error) {
	m.mu.Lock()
	m.closeErr = err
	m.mu.Unlock()
}
