package html5

import (
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayasedb/hayase-player/internal/host"
	"github.com/hayasedb/hayase-player/internal/markup"
	"github.com/hayasedb/hayase-player/internal/models"
	"github.com/hayasedb/hayase-player/internal/players"
)

// fakeElement behaves like a browser media element: play/pause raise the
// matching events synchronously.
type fakeElement struct {
	mu       sync.Mutex
	handler  func(MediaEvent)
	src      string
	loads    []string
	paused   bool
	time     float64
	duration float64
	volume   float64
	muted    bool
	autoplay bool
	plays    int
	closed   bool
	playable map[string]bool
}

func newFakeElement() *fakeElement {
	return &fakeElement{paused: true, volume: 1, duration: 120}
}

func (f *fakeElement) fire(ev MediaEvent) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

func (f *fakeElement) Load(src string) error {
	f.mu.Lock()
	f.src = src
	f.loads = append(f.loads, src)
	f.time = 0
	f.mu.Unlock()
	return nil
}

func (f *fakeElement) Play() error {
	f.mu.Lock()
	f.plays++
	wasPaused := f.paused
	f.paused = false
	f.mu.Unlock()
	if wasPaused {
		f.fire(MediaPlaying)
	}
	return nil
}

func (f *fakeElement) Pause() error {
	f.mu.Lock()
	wasPaused := f.paused
	f.paused = true
	f.mu.Unlock()
	if !wasPaused {
		f.fire(MediaPause)
	}
	return nil
}

func (f *fakeElement) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *fakeElement) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.time
}

func (f *fakeElement) SetCurrentTime(t float64) error {
	f.mu.Lock()
	f.time = t
	f.mu.Unlock()
	return nil
}

func (f *fakeElement) Duration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

func (f *fakeElement) Volume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *fakeElement) SetVolume(v float64) error {
	f.mu.Lock()
	f.volume = v
	f.mu.Unlock()
	f.fire(MediaVolumeChange)
	return nil
}

func (f *fakeElement) Muted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted
}

func (f *fakeElement) SetMuted(m bool) error {
	f.mu.Lock()
	f.muted = m
	f.mu.Unlock()
	return nil
}

func (f *fakeElement) Autoplay() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.autoplay
}

func (f *fakeElement) SetAutoplay(a bool) {
	f.mu.Lock()
	f.autoplay = a
	f.mu.Unlock()
}

func (f *fakeElement) CanPlayType(mime string) string {
	if f.playable == nil || f.playable[mime] {
		return "maybe"
	}
	return ""
}

func (f *fakeElement) OnEvent(fn func(MediaEvent)) {
	f.mu.Lock()
	f.handler = fn
	f.mu.Unlock()
}

func (f *fakeElement) Close() error {
	f.mu.Lock()
	f.closed = true
	f.handler = nil
	f.mu.Unlock()
	return nil
}

func factoryFor(el *fakeElement) ElementFactory {
	return func(MediaKind, *log.Logger) (MediaElement, error) {
		return el, nil
	}
}

func newVideo(t *testing.T, el *fakeElement, slot string, b players.Binding) *Player {
	t.Helper()
	if slot != "" {
		parsed, err := markup.Parse(slot)
		require.NoError(t, err)
		b.Slot = parsed
	}
	p, err := VideoDescriptor(factoryFor(el)).New(b)
	require.NoError(t, err)
	return p.(*Player)
}

func collect(p players.Player) *[]models.EventKind {
	var kinds []models.EventKind
	p.Subscribe(func(ev players.Event) { kinds = append(kinds, ev.Kind) })
	return &kinds
}

func TestNew_CopiesBindingAndLoadsSlotSource(t *testing.T) {
	el := newFakeElement()
	p := newVideo(t, el, `<video src="movie.mp4"></video>`, players.Binding{Muted: true, Autoplay: true})

	assert.True(t, el.Muted())
	assert.True(t, el.Autoplay())
	assert.Equal(t, []string{"movie.mp4"}, el.loads)
	assert.Equal(t, "movie.mp4", p.Source())
	assert.Equal(t, VideoPlatform, p.Platform())
}

func TestPlay_IsIdempotent(t *testing.T) {
	el := newFakeElement()
	p := newVideo(t, el, "", players.Binding{})
	kinds := collect(p)

	require.NoError(t, p.Play())
	require.NoError(t, p.Play())

	assert.Equal(t, []models.EventKind{models.EventPlaying}, *kinds)
	assert.True(t, p.Playing())
	assert.Equal(t, 1, el.plays)
}

func TestPauseAndStop(t *testing.T) {
	el := newFakeElement()
	p := newVideo(t, el, "", players.Binding{})
	kinds := collect(p)

	require.NoError(t, p.Play())
	require.NoError(t, p.Seek(30))
	require.NoError(t, p.Stop())

	assert.False(t, p.Playing())
	assert.Equal(t, 0.0, p.CurrentTime())
	assert.Equal(t, []models.EventKind{models.EventPlaying, models.EventPause}, *kinds)
}

func TestSeek_ClampsNegative(t *testing.T) {
	el := newFakeElement()
	p := newVideo(t, el, "", players.Binding{})

	require.NoError(t, p.SetCurrentTime(-5))
	assert.Equal(t, 0.0, p.CurrentTime())
}

func TestCanPlay_AutoplaysAndEmitsReady(t *testing.T) {
	el := newFakeElement()
	p := newVideo(t, el, "", players.Binding{Autoplay: true, Muted: true})
	kinds := collect(p)

	el.fire(MediaCanPlay)

	assert.Equal(t, []models.EventKind{models.EventPlaying, models.EventReady}, *kinds)
}

func TestCanPlay_WithoutAutoplay(t *testing.T) {
	el := newFakeElement()
	p := newVideo(t, el, "", players.Binding{})
	kinds := collect(p)

	el.fire(MediaCanPlay)

	assert.Equal(t, []models.EventKind{models.EventReady}, *kinds)
	assert.False(t, p.Playing())
}

func TestMediaEventsAreTranslated(t *testing.T) {
	el := newFakeElement()
	p := newVideo(t, el, "", players.Binding{})
	kinds := collect(p)

	for _, ev := range []MediaEvent{MediaWaiting, MediaDurationChange, MediaTimeUpdate, MediaEnded, MediaError} {
		el.fire(ev)
	}

	assert.Equal(t, []models.EventKind{
		models.EventWaiting,
		models.EventDurationChange,
		models.EventTimeUpdate,
		models.EventEnded,
		models.EventError,
	}, *kinds)
}

func TestSetVolume_Clamps(t *testing.T) {
	el := newFakeElement()
	p := newVideo(t, el, "", players.Binding{})

	require.NoError(t, p.SetVolume(1.7))
	assert.Equal(t, 1.0, p.Volume())

	require.NoError(t, p.SetVolume(-0.3))
	assert.Equal(t, 0.0, p.Volume())

	require.NoError(t, p.SetVolume(0.4))
	assert.Equal(t, 0.4, p.Volume())
}

func TestSetSource_PreservesTimeAndPlayback(t *testing.T) {
	el := newFakeElement()
	p := newVideo(t, el, "", players.Binding{})

	require.NoError(t, p.Play())
	require.NoError(t, p.Seek(42))
	require.NoError(t, p.SetSource("other.mp4"))

	assert.Equal(t, 42.0, p.CurrentTime())
	assert.False(t, el.Paused())
	assert.Equal(t, "other.mp4", p.Source())
}

func TestSetSource_StaysPausedWhenPaused(t *testing.T) {
	el := newFakeElement()
	p := newVideo(t, el, "", players.Binding{})

	require.NoError(t, p.Seek(10))
	require.NoError(t, p.SetSource("other.mp4"))

	assert.True(t, el.Paused())
	assert.Equal(t, 10.0, p.CurrentTime())
	assert.Equal(t, 0, el.plays)
}

func TestQualities_FilterByKindAndPlayability(t *testing.T) {
	el := newFakeElement()
	el.playable = map[string]bool{"video/mp4": true}
	p := newVideo(t, el, `<video>
		<source src="480.mp4" type="video/mp4" size="480">
		<source src="720.webm" type="video/webm" size="720">
		<source src="1080.mp4" type="video/mp4" size="1080">
		<source src="music.ogg" type="audio/ogg" size="128">
	</video>`, players.Binding{})
	kinds := collect(p)

	assert.Equal(t, []models.Quality{"480", "1080"}, p.AvailableQualities())

	require.NoError(t, p.SetQuality(1))
	assert.Equal(t, "1080.mp4", p.Source())
	assert.Equal(t, 1, p.Quality())
	assert.Equal(t, []models.EventKind{models.EventQualityChange}, *kinds)

	assert.Error(t, p.SetQuality(5))
	assert.Equal(t, 1, p.Quality())
}

func TestPictureInPicture(t *testing.T) {
	h := host.New()

	video := newVideo(t, newFakeElement(), "", players.Binding{Host: h})
	require.NoError(t, video.RequestPictureInPicture())
	assert.True(t, video.IsPiPElement())

	audio, err := AudioDescriptor(factoryFor(newFakeElement())).New(players.Binding{Host: h})
	require.NoError(t, err)
	assert.ErrorIs(t, audio.RequestPictureInPicture(), players.ErrUnsupportedOperation)
	assert.False(t, audio.IsPiPElement())

	require.NoError(t, video.Close())
	assert.Nil(t, h.PictureInPictureElement())
}

func TestFeatures(t *testing.T) {
	audio := AudioDescriptor(nil)
	video := VideoDescriptor(nil)

	assert.True(t, audio.Features.Equal(models.NewFeatureSet(models.FeatureVolume, models.FeatureSeek)))
	assert.Len(t, video.Features, 6)
	assert.True(t, video.Features.Has(models.FeaturePictureInPicture))
}

func TestMatching(t *testing.T) {
	audio := AudioDescriptor(nil)
	video := VideoDescriptor(nil)

	el, err := markup.Parse(`<audio src="x"></audio>`)
	require.NoError(t, err)
	assert.True(t, audio.MatchesElement(el))
	assert.False(t, video.MatchesElement(el))

	assert.True(t, audio.MatchesSource("https://cdn.example/song.MP3?token=1"))
	assert.True(t, video.MatchesSource("/home/me/movie.mkv"))
	assert.False(t, video.MatchesSource("https://youtu.be/abc"))
}

func TestClose_StopsEvents(t *testing.T) {
	el := newFakeElement()
	p := newVideo(t, el, "", players.Binding{})
	kinds := collect(p)

	require.NoError(t, p.Close())
	el.fire(MediaPlaying)

	assert.Empty(t, *kinds)
	assert.True(t, el.closed)
}
