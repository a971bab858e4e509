package facade

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayasedb/hayase-player/internal/controls"
	"github.com/hayasedb/hayase-player/internal/host"
	"github.com/hayasedb/hayase-player/internal/markup"
	"github.com/hayasedb/hayase-player/internal/models"
	"github.com/hayasedb/hayase-player/internal/players"
	"github.com/hayasedb/hayase-player/internal/storage"
)

type eventLog struct {
	mu    sync.Mutex
	kinds []EventKind
}

func listen(p *Player) *eventLog {
	l := &eventLog{}
	p.Subscribe(func(ev Event) {
		l.mu.Lock()
		l.kinds = append(l.kinds, ev.Kind)
		l.mu.Unlock()
	})
	return l
}

func (l *eventLog) all() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]EventKind(nil), l.kinds...)
}

func (l *eventLog) count(kind EventKind) int {
	n := 0
	for _, k := range l.all() {
		if k == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	env   *Env
	store *storage.MemoryStore
	a, b  []*players.Mock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: storage.NewMemoryStore()}
	f.env = NewEnv(WithStore(f.store))
	require.NoError(t, f.env.Use(players.MockDescriptor("mock-a", &f.a, models.FeatureVolume)))
	require.NoError(t, f.env.Use(players.MockDescriptor("mock-b", &f.b, models.FeatureSeek, models.FeaturePictureInPicture)))
	return f
}

func newPlayer(t *testing.T, env *Env, opts ...Option) *Player {
	t.Helper()
	p, err := New(env, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func state(p *Player) controls.Snapshot {
	return p.Controls().(*controls.State).Snapshot()
}

func TestChangeVolume_ZeroMutesOnly(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))
	m := f.a[0]

	require.NoError(t, p.ChangeVolume(0))

	assert.True(t, m.Muted())
	assert.Equal(t, 1.0, m.Volume())
	assert.Empty(t, m.VolumeCalls())
	_, stored := f.store.Get(storage.KeyVolume)
	assert.False(t, stored)
}

func TestChangeVolume_UnmutesSetsAndPersists(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"), WithAttribute(AttrMuted, ""))
	m := f.a[0]
	require.True(t, m.Muted())

	require.NoError(t, p.ChangeVolume(0.4))

	assert.False(t, m.Muted())
	assert.Equal(t, 0.4, m.Volume())
	assert.Equal(t, 0.4, storage.Volume(f.store))

	require.NoError(t, p.ChangeVolume(7))
	assert.Equal(t, 1.0, m.Volume())
}

func TestSetMutedByUser_Persists(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))

	require.NoError(t, p.SetMutedByUser(true))

	assert.True(t, f.a[0].Muted())
	muted, ok := storage.Muted(f.store)
	assert.True(t, ok)
	assert.True(t, muted)
}

func TestSetPlatform_SwitchIsAtomic(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))
	old := f.a[0]
	assert.Equal(t, StateBound, p.State())
	assert.Equal(t, models.NewFeatureSet(models.FeatureVolume), state(p).Features)

	require.NoError(t, p.SetAttribute(AttrType, "mock-b"))
	next := f.b[0]

	assert.True(t, old.IsClosed())
	assert.Equal(t, "mock-b", p.Platform())
	assert.Same(t, players.Player(next), p.Current())
	assert.Equal(t, []*host.Node{next.Surface(), p.slotNode}, p.Stage())
	assert.True(t, state(p).Features.Equal(next.SupportedFeatures()))

	// The old adapter cannot reach the facade any more.
	events := listen(p)
	old.Fire(models.EventPlaying)
	assert.Empty(t, events.all())
	assert.False(t, state(p).Playing)
}

func TestSetPlatform_Unknown(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))

	err := p.SetAttribute(AttrType, "flash")
	assert.ErrorIs(t, err, ErrUnknownPlatform)

	assert.Equal(t, "mock-a", p.Platform())
	assert.Equal(t, "mock-a", p.Type())
	assert.False(t, f.a[0].IsClosed())
	assert.Len(t, f.a, 1)

}

func TestNew_UnknownTypeStaysUnbound(t *testing.T) {
	f := newFixture(t)

	p, err := New(f.env, WithType("flash"), WithSource("clip.mp4"))
	require.NoError(t, err)
	require.NotNil(t, p)
	t.Cleanup(func() { p.Close() })

	assert.Equal(t, StateUnbound, p.State())
	assert.Equal(t, "", p.Platform())
	assert.False(t, p.HasAttribute(AttrType))
	assert.Equal(t, "clip.mp4", p.Source())
	assert.Empty(t, f.a)
	assert.Empty(t, f.b)

	require.NoError(t, p.SetType("mock-b"))
	assert.Equal(t, "mock-b", p.Platform())
	assert.Equal(t, "clip.mp4", f.b[0].Source())
}

func TestNew_UnknownTypeFallsBackToSlot(t *testing.T) {
	f := newFixture(t)
	var built []*players.Mock
	d := players.MockDescriptor("mock-video", &built)
	d.MatchElement = func(el *markup.Element) bool { return el.Tag() == "video" }
	require.NoError(t, f.env.Use(d))

	slot, err := markup.Parse(`<video src="clip.mp4"></video>`)
	require.NoError(t, err)

	p, err := New(f.env, WithSlot(slot), WithType("flash"))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	assert.Equal(t, "mock-video", p.Platform())
	assert.Equal(t, "mock-video", p.Type())
	assert.Equal(t, StateBound, p.State())
}

func TestSetPlatform_CreateFailureDropsType(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.env.Use(players.Descriptor{
		Platform: "broken",
		New: func(players.Binding) (players.Player, error) {
			return nil, errors.New("no backend")
		},
	}))
	p := newPlayer(t, f.env, WithType("mock-a"))

	err := p.SetAttribute(AttrType, "broken")
	assert.ErrorIs(t, err, ErrCreatePlayer)

	assert.True(t, f.a[0].IsClosed())
	assert.Equal(t, "", p.Platform())
	assert.Equal(t, "", p.Type())
	assert.False(t, p.HasAttribute(AttrType))
	assert.Equal(t, StateUnbound, p.State())

	require.NoError(t, p.SetType("mock-b"))
	assert.Equal(t, "mock-b", p.Type())
	assert.Equal(t, "mock-b", p.Platform())
}

func TestSetPlatform_SamePlatformKeepsAdapter(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))

	require.NoError(t, p.SetAttribute(AttrType, "mock-a"))
	assert.Len(t, f.a, 1)
	assert.NoError(t, p.SetType("unregistered"))
	assert.Equal(t, "mock-a", p.Type())
}

func TestReady_VolumeFromStore(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, storage.SetVolume(f.store, 0.6))
	p := newPlayer(t, f.env, WithType("mock-a"))
	events := listen(p)

	f.a[0].Fire(models.EventReady)

	assert.Equal(t, 0.6, f.a[0].Volume())
	assert.Equal(t, []EventKind{EventReady}, events.all())
	assert.Equal(t, StateReady, p.State())
}

func TestReady_VolumeAttributeWins(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, storage.SetVolume(f.store, 0.6))
	p := newPlayer(t, f.env, WithType("mock-a"), WithAttribute(AttrVolume, "0.25"))

	f.a[0].Fire(models.EventReady)

	assert.Equal(t, 0.25, f.a[0].Volume())
	assert.Equal(t, 0.6, storage.Volume(f.store))
	assert.Equal(t, 0.6, storage.Volume(p.Env().Store()))
}

func TestReady_VolumeDefault(t *testing.T) {
	f := newFixture(t)
	newPlayer(t, f.env, WithType("mock-a"))

	f.a[0].Fire(models.EventReady)

	assert.Equal(t, []float64{1}, f.a[0].VolumeCalls())
}

func TestReady_StoredMuted(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, storage.SetMuted(f.store, true))

	newPlayer(t, f.env, WithType("mock-a"))
	f.a[0].Fire(models.EventReady)
	assert.True(t, f.a[0].Muted())

	// A declared volume takes precedence over the stored flag.
	require.NoError(t, storage.SetMuted(f.store, false))
	newPlayer(t, f.env, WithType("mock-a"), WithAttribute(AttrVolume, "0"))
	f.a[1].Fire(models.EventReady)
	assert.True(t, f.a[1].Muted())
}

func TestReady_EmittedBeforeSubscribeIsDelivered(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.env.Use(players.Descriptor{
		Platform: "eager",
		New: func(b players.Binding) (players.Player, error) {
			m := players.NewMock("eager")
			m.Fire(models.EventReady)
			return m, nil
		},
	}))

	p := newPlayer(t, f.env, WithType("eager"))

	assert.Equal(t, StateReady, p.State())
	assert.Equal(t, 1.0, p.Volume())
}

func TestPlay_Idempotent(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))
	events := listen(p)

	require.NoError(t, p.Play())
	require.NoError(t, p.Play())

	assert.Equal(t, 1, events.count(EventBeforePlaying))
	assert.Equal(t, 1, events.count(EventAfterPlaying))
	assert.True(t, p.Playing())
}

func TestBridge_BracketsControlsUpdate(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))
	m := f.a[0]

	seen := map[EventKind]bool{}
	p.Subscribe(func(ev Event) {
		seen[ev.Kind] = state(p).Playing
	})

	m.Fire(models.EventPlaying)
	assert.False(t, seen[EventBeforePlaying])
	assert.True(t, seen[EventAfterPlaying])

	m.Fire(models.EventPause)
	assert.True(t, seen[EventBeforePausing])
	assert.False(t, seen[EventAfterPausing])
}

func TestBridge_Events(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))
	m := f.a[0]
	events := listen(p)

	m.SetDuration(90)
	require.NoError(t, m.Seek(12))
	m.Fire(models.EventDurationChange)
	m.Fire(models.EventTimeUpdate)
	require.NoError(t, m.SetVolume(0.3))
	m.Fire(models.EventVolumeChange)
	require.NoError(t, m.SetMuted(true))
	m.Fire(models.EventVolumeChange)
	m.Fire(models.EventWaiting)
	m.Fire(models.EventEnded)
	m.Fire(models.EventError)

	assert.Equal(t, []EventKind{
		EventBeforeDurationChange, EventAfterDurationChange,
		EventBeforeTimeUpdate, EventAfterTimeUpdate,
		EventBeforeVolumeChange, EventAfterVolumeChange,
		EventBeforeVolumeChange, EventAfterVolumeChange,
		EventEnded,
		EventError,
	}, events.all())

	snap := state(p)
	assert.Equal(t, 90.0, snap.Duration)
	assert.Equal(t, 12.0, snap.CurrentTime)
	assert.Equal(t, 0.0, snap.Volume)
}

func TestShownElements(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env,
		WithType("mock-b"),
		WithAttribute(AttrShownElements, "playPause,volume"),
	)
	c := p.Controls().(*controls.State)

	// mock-b lacks the volume feature.
	assert.Equal(t, []models.ControlElement{models.ControlPlayPause}, c.EnabledElements())

	require.NoError(t, p.SetAttribute(AttrType, "mock-a"))
	assert.Equal(t, []models.ControlElement{models.ControlPlayPause, models.ControlVolume}, c.EnabledElements())

	require.NoError(t, p.RemoveAttribute(AttrShownElements))
	assert.Equal(t, models.DefaultShownElements(), c.Snapshot().Shown)
}

func TestAttributes(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))
	m := f.a[0]

	require.NoError(t, p.SetAttribute(AttrVolume, "0"))
	assert.True(t, m.Muted())
	assert.Equal(t, 0.0, m.Volume())

	require.NoError(t, p.SetAttribute(AttrVolume, "1.5"))
	assert.False(t, m.Muted())
	assert.Equal(t, 1.0, m.Volume())

	require.NoError(t, p.SetAttribute(AttrMuted, ""))
	assert.True(t, m.Muted())
	require.NoError(t, p.RemoveAttribute(AttrMuted))
	assert.False(t, m.Muted())

	require.NoError(t, p.SetSource("clip.mp4"))
	assert.Equal(t, "clip.mp4", m.Source())
	assert.Equal(t, "clip.mp4", p.Source())

	require.NoError(t, p.SetNoControls(true))
	assert.True(t, state(p).Hidden)
	require.NoError(t, p.SetNoControls(false))
	assert.False(t, state(p).Hidden)

	require.NoError(t, p.SetAttribute(AttrAutoplay, ""))
	assert.True(t, m.Autoplay())
}

func TestAttributes_AutoplayIgnoredWhilePlaying(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))
	m := f.a[0]
	require.NoError(t, p.Play())

	require.NoError(t, p.SetAttribute(AttrAutoplay, ""))
	assert.NotContains(t, m.Calls(), "autoplay")
}

func TestBindingCarriesDeclaredAttributes(t *testing.T) {
	f := newFixture(t)
	slot, err := markup.Parse(`<video src="slot.mp4"></video>`)
	require.NoError(t, err)

	newPlayer(t, f.env,
		WithSlot(slot),
		WithAttribute(AttrMuted, ""),
		WithAttribute(AttrAutoplay, ""),
		WithType("mock-a"),
	)

	m := f.a[0]
	assert.True(t, m.Muted())
	assert.True(t, m.Autoplay())
	assert.Equal(t, "slot.mp4", m.Source())
}

func TestSourceBeforeType(t *testing.T) {
	f := newFixture(t)
	newPlayer(t, f.env, WithSource("declared.mp4"), WithType("mock-a"))

	assert.Equal(t, "declared.mp4", f.a[0].Source())
}

func TestNew_MatchesSource(t *testing.T) {
	var built []*players.Mock
	env := NewEnv()
	d := players.MockDescriptor("matcher", &built)
	d.Match = func(src string) bool { return src == "match-me" }
	require.NoError(t, env.Use(d))

	p := newPlayer(t, env, WithSource("match-me"))
	assert.Equal(t, "matcher", p.Platform())
	assert.Equal(t, "matcher", p.Type())

	p = newPlayer(t, env, WithSource("nothing"))
	assert.Equal(t, StateUnbound, p.State())
}

func TestUnbound_TransportIsNoop(t *testing.T) {
	p := newPlayer(t, NewEnv())

	assert.NoError(t, p.Play())
	assert.NoError(t, p.Pause())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.TogglePlay())
	assert.NoError(t, p.SeekTo(3))
	assert.NoError(t, p.ChangeVolume(0.5))
	assert.NoError(t, p.SetMutedByUser(true))
	assert.NoError(t, p.SetAttribute(AttrVolume, "0.5"))
	assert.Equal(t, StateUnbound, p.State())
	assert.Equal(t, "", p.Platform())
}

func TestIntentsFromControls(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))
	m := f.a[0]
	c := p.Controls().(*controls.State)

	assert.True(t, c.TogglePlay())
	assert.True(t, m.Playing())
	assert.True(t, c.TogglePlay())
	assert.False(t, m.Playing())

	assert.True(t, c.ChangeVolume(0.7))
	assert.Equal(t, 0.7, m.Volume())
	assert.Equal(t, 0.7, storage.Volume(f.store))

	assert.True(t, c.ToggleMute())
	assert.True(t, m.Muted())

	// mock-a cannot seek.
	assert.False(t, c.Seek(5))
	assert.NotContains(t, m.Calls(), "seek")
}

func TestWithoutControls(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithoutControls(), WithType("mock-a"), WithAttribute(AttrNoControls, ""))
	assert.Nil(t, p.Controls())

	f.a[0].Fire(models.EventReady)
	f.a[0].Fire(models.EventPlaying)
	assert.Equal(t, StateReady, p.State())
}

func TestToggleFullscreen(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))

	p.ToggleFullscreen()
	assert.True(t, p.Fullscreen())
	assert.True(t, state(p).Fullscreen)
	assert.Same(t, p.Node(), f.env.Host().FullscreenElement())

	p.ToggleFullscreen()
	assert.False(t, p.Fullscreen())
	assert.False(t, state(p).Fullscreen)
}

func TestTogglePictureInPicture(t *testing.T) {
	h := host.New()
	env := NewEnv(WithHost(h))
	require.NoError(t, env.Use(players.Descriptor{
		Platform: "pip",
		Features: models.NewFeatureSet(models.FeaturePictureInPicture),
		New: func(b players.Binding) (players.Player, error) {
			return newPiPMock(b.Host), nil
		},
	}))
	p := newPlayer(t, env, WithType("pip"))
	surface := p.Current().Surface()

	foreign := host.NewNode("other")
	require.NoError(t, h.RequestPictureInPicture(foreign))

	require.NoError(t, p.TogglePictureInPicture())
	assert.Same(t, surface, h.PictureInPictureElement())

	require.NoError(t, p.TogglePictureInPicture())
	assert.Nil(t, h.PictureInPictureElement())
}

func TestTogglePictureInPicture_Unsupported(t *testing.T) {
	f := newFixture(t)
	f.env = NewEnv(WithHost(host.New(host.WithPictureInPicture(false))))
	require.NoError(t, f.env.Use(players.MockDescriptor("mock-b", &f.b, models.FeaturePictureInPicture)))
	p := newPlayer(t, f.env, WithType("mock-b"))

	err := p.TogglePictureInPicture()
	assert.ErrorIs(t, err, host.ErrPictureInPictureUnsupported)
	assert.NotContains(t, f.b[0].Calls(), "pip")
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	p, err := New(f.env, WithType("mock-a"))
	require.NoError(t, err)
	m := f.a[0]
	p.ToggleFullscreen()

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.True(t, m.IsClosed())
	assert.Nil(t, f.env.Host().FullscreenElement())
	assert.Empty(t, p.Stage())
	assert.ErrorIs(t, p.SetAttribute(AttrType, "mock-b"), ErrClosed)
	assert.ErrorIs(t, p.SetPlatform("mock-b"), ErrClosed)
}

func TestClose_AggregatesErrors(t *testing.T) {
	f := newFixture(t)
	p, err := New(f.env, WithType("mock-a"))
	require.NoError(t, err)
	f.a[0].SetCloseError(assert.AnError)

	err = p.Close()
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEnv_SetStore(t *testing.T) {
	f := newFixture(t)
	p := newPlayer(t, f.env, WithType("mock-a"))

	swapped := storage.NewMemoryStore()
	f.env.SetStore(swapped)
	require.NoError(t, p.ChangeVolume(0.5))

	assert.Equal(t, 0.5, storage.Volume(swapped))
	_, ok := f.store.Get(storage.KeyVolume)
	assert.False(t, ok)

	f.env.SetStore(nil)
	assert.NotNil(t, f.env.Store())
}

// pipMock claims picture-in-picture through the host like a video element.
type pipMock struct {
	*players.Mock
	host *host.Host
}

func newPiPMock(h *host.Host) *pipMock {
	m := &pipMock{Mock: players.NewMock("pip", models.FeaturePictureInPicture), host: h}
	m.Init(m)
	return m
}

func (m *pipMock) RequestPictureInPicture() error {
	return m.host.RequestPictureInPicture(m.Surface())
}

func (m *pipMock) IsPiPElement() bool {
	return m.host.PictureInPictureElement() == m.Surface()
}
