package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/domain"
	"github.com/jose-valero/nexus7-bot/internal/infra/storage"
)

func newMusic(t *testing.T, search VideoSearch, res Resolver, settings SettingsRepo) *MusicService {
	t.Helper()
	players := playback.NewManager(nopVoice{}, crowd{}, nil, zap.NewNop())
	t.Cleanup(players.Close)
	return NewMusicService(search, res, players, settings, zap.NewNop())
}

func req(q string) PlayRequest {
	return PlayRequest{GuildID: "g1", VoiceChannel: "v1", TextChannelID: "t1", UserID: "u1", Query: q}
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPlayStartsThenQueues(t *testing.T) {
	res := &fakeResolver{}
	svc := newMusic(t, fakeSearch{ids: []string{"abcdefghijk"}}, res, &memSettings{})

	first, err := svc.Play(ctxT(t), req("lofi"))
	require.NoError(t, err)
	assert.True(t, first.Started)
	assert.Equal(t, "https://www.youtube.com/watch?v=abcdefghijk", res.target)

	second, err := svc.Play(ctxT(t), req("lofi"))
	require.NoError(t, err)
	assert.False(t, second.Started)

	snap := svc.Snapshot("g1")
	assert.Equal(t, playback.Playing, snap.Status)
	assert.Len(t, snap.Queue, 2)
	assert.Equal(t, "u1", snap.Queue[1].RequestedBy)
}

func TestPlayWithURLSkipsSearch(t *testing.T) {
	res := &fakeResolver{}
	svc := newMusic(t, fakeSearch{err: errors.New("must not search")}, res, nil)

	_, err := svc.Play(ctxT(t), req("https://youtu.be/xyz"))
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/xyz", res.target)
}

func TestPlayErrors(t *testing.T) {
	t.Run("not in voice", func(t *testing.T) {
		svc := newMusic(t, fakeSearch{ids: []string{"a"}}, &fakeResolver{}, nil)
		r := req("x")
		r.VoiceChannel = ""
		_, err := svc.Play(ctxT(t), r)
		assert.ErrorIs(t, err, domain.ErrNoVoice)
	})
	t.Run("no results", func(t *testing.T) {
		svc := newMusic(t, fakeSearch{}, &fakeResolver{}, nil)
		_, err := svc.Play(ctxT(t), req("zzzz"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, playback.Idle, svc.Snapshot("g1").Status)
	})
	t.Run("resolver failure", func(t *testing.T) {
		svc := newMusic(t, fakeSearch{ids: []string{"a"}}, &fakeResolver{err: errors.New("yt-dlp exit 1")}, nil)
		_, err := svc.Play(ctxT(t), req("x"))
		var se *domain.StreamError
		assert.True(t, errors.As(err, &se))
		assert.Empty(t, svc.Snapshot("g1").Queue)
	})
	t.Run("empty query with nothing pending", func(t *testing.T) {
		svc := newMusic(t, fakeSearch{}, &fakeResolver{}, nil)
		_, err := svc.Play(ctxT(t), req(""))
		assert.ErrorIs(t, err, domain.ErrQueueEmpty)
	})
}

func TestPlayHonorsGuildQueueLimit(t *testing.T) {
	svc := newMusic(t, fakeSearch{ids: []string{"a"}}, &fakeResolver{}, &memSettings{gs: storage.GuildSettings{MaxQueue: 2}})

	_, err := svc.Play(ctxT(t), req("1"))
	require.NoError(t, err)
	_, err = svc.Play(ctxT(t), req("2"))
	require.NoError(t, err)
	_, err = svc.Play(ctxT(t), req("3"))
	assert.ErrorIs(t, err, domain.ErrQueueFull)
}

func TestSettingsFailureFallsBackToDefaultLimit(t *testing.T) {
	svc := newMusic(t, fakeSearch{ids: []string{"a"}}, &fakeResolver{}, &memSettings{err: errors.New("db down")})
	_, err := svc.Play(ctxT(t), req("1"))
	assert.NoError(t, err)
}

func TestControlsWithoutSession(t *testing.T) {
	svc := newMusic(t, fakeSearch{}, &fakeResolver{}, nil)
	ctx := ctxT(t)

	assert.ErrorIs(t, svc.Pause(ctx, "g9"), domain.ErrNotPlaying)
	assert.ErrorIs(t, svc.Resume(ctx, "g9"), domain.ErrNotPaused)
	assert.ErrorIs(t, svc.Skip(ctx, "g9"), domain.ErrNotPlaying)
	assert.ErrorIs(t, svc.Leave(ctx, "g9"), domain.ErrNotConnected)
	assert.ErrorIs(t, svc.Join(ctx, "g9", ""), domain.ErrNoVoice)
	assert.Equal(t, playback.Idle, svc.Snapshot("g9").Status)
}

func TestPauseResumeAndEmptyPlayResumes(t *testing.T) {
	svc := newMusic(t, fakeSearch{ids: []string{"a"}}, &fakeResolver{}, nil)
	ctx := ctxT(t)

	_, err := svc.Play(ctx, req("x"))
	require.NoError(t, err)
	require.NoError(t, svc.Pause(ctx, "g1"))
	assert.Equal(t, playback.Paused, svc.Snapshot("g1").Status)

	res, err := svc.Play(ctx, req(""))
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, "Song", res.Entry.Video.Title)
	assert.Equal(t, playback.Playing, svc.Snapshot("g1").Status)
}
