package mpris

import (
	"testing"

	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayasedb/hayase-player/internal/facade"
	"github.com/hayasedb/hayase-player/internal/models"
	"github.com/hayasedb/hayase-player/internal/players"
)

var _ Service = (*facade.Player)(nil)

func setup(t *testing.T) (*playerAdapter, *players.Mock) {
	t.Helper()

	var built []*players.Mock
	env := facade.NewEnv()
	require.NoError(t, env.Use(players.MockDescriptor("mock", &built, models.FeatureVolume, models.FeatureSeek)))

	p, err := facade.New(env, facade.WithType("mock"), facade.WithSource("track.flac"))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	return &playerAdapter{service: p}, built[0]
}

func TestPlayerAdapter_PlaybackStatus(t *testing.T) {
	a, mock := setup(t)

	status, err := a.PlaybackStatus()
	require.NoError(t, err)
	assert.Equal(t, types.PlaybackStatusPaused, status)

	require.NoError(t, a.PlayPause())
	assert.True(t, mock.Playing())

	status, _ = a.PlaybackStatus()
	assert.Equal(t, types.PlaybackStatusPlaying, status)

	require.NoError(t, a.Pause())
	assert.False(t, mock.Playing())
}

func TestPlayerAdapter_Seek(t *testing.T) {
	a, mock := setup(t)
	mock.SetDuration(120)

	require.NoError(t, a.SetPosition("", toMicroseconds(30)))
	assert.InDelta(t, 30, mock.CurrentTime(), 1e-6)

	require.NoError(t, a.Seek(toMicroseconds(-10)))
	assert.InDelta(t, 20, mock.CurrentTime(), 1e-6)

	require.NoError(t, a.Seek(toMicroseconds(-60)))
	assert.InDelta(t, 0, mock.CurrentTime(), 1e-6)

	// Out of range positions are ignored.
	require.NoError(t, a.SetPosition("", toMicroseconds(500)))
	assert.InDelta(t, 0, mock.CurrentTime(), 1e-6)

	pos, err := a.Position()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	can, _ := a.CanSeek()
	assert.True(t, can)
}

func TestPlayerAdapter_Volume(t *testing.T) {
	a, mock := setup(t)

	require.NoError(t, a.SetVolume(0.4))
	assert.InDelta(t, 0.4, mock.Volume(), 1e-9)

	v, err := a.Volume()
	require.NoError(t, err)
	assert.InDelta(t, 0.4, v, 1e-9)

	require.NoError(t, a.SetVolume(0))
	assert.True(t, mock.Muted())
	assert.InDelta(t, 0.4, mock.Volume(), 1e-9)

	v, _ = a.Volume()
	assert.Zero(t, v)
}

func TestPlayerAdapter_Metadata(t *testing.T) {
	a, mock := setup(t)
	mock.SetDuration(2.5)

	meta, err := a.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "track.flac", meta.Title)
	assert.Equal(t, []string{"mock"}, meta.Artist)
	assert.Equal(t, types.Microseconds(2_500_000), meta.Length)
	assert.Equal(t, formatTrackID("track.flac"), string(meta.TrackId))

	require.NoError(t, a.OpenUri("other.mp3"))
	assert.Equal(t, "other.mp3", mock.Source())
}
