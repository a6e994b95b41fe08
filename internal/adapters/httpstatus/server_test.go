package httpstatus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/domain"
	"github.com/jose-valero/nexus7-bot/internal/infra/storage"
)

type fakeHistory struct {
	limit int
	err   error
}

func (f *fakeHistory) Recent(_ context.Context, guildID string, limit int) ([]storage.HistoryEntry, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []storage.HistoryEntry{{ID: 1, GuildID: guildID, VideoID: "abcdefghijk", Title: "Song"}}, nil
}

type fakePlayers []playback.Snapshot

func (f fakePlayers) Snapshots() []playback.Snapshot { return f }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "nexus7_test_total", Help: "x"}))
	players := fakePlayers{{
		GuildID:   "g1",
		Status:    playback.Playing,
		Connected: true,
		Queue: []playback.Entry{
			{Video: domain.Video{ID: "abcdefghijk", Title: "Song"}, RequestedBy: "u1"},
			{Video: domain.Video{ID: "zzzzzzzzzzz", Title: "Next"}, RequestedBy: "u2"},
		},
	}}
	srv := httptest.NewServer(New(players, reg, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
}

func TestPlaybackSnapshot(t *testing.T) {
	srv := newTestServer(t)
	res, err := http.Get(srv.URL + "/guilds/g1/playback")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		GuildID string `json:"guild_id"`
		Status  string `json:"status"`
		Queue   []struct {
			RequestedBy string `json:"requested_by"`
		} `json:"queue"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "g1", body.GuildID)
	assert.Equal(t, "playing", body.Status)
	assert.Len(t, body.Queue, 2)
}

func TestPlaybackUnknownGuild(t *testing.T) {
	srv := newTestServer(t)
	res, err := http.Get(srv.URL + "/guilds/nope/playback")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestGuildsSummary(t *testing.T) {
	srv := newTestServer(t)
	res, err := http.Get(srv.URL + "/guilds")
	require.NoError(t, err)
	defer res.Body.Close()

	var body []map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "g1", body[0]["guild_id"])
	assert.EqualValues(t, 2, body[0]["pending"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	res, err := http.Post(srv.URL+"/healthz", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestHistoryDisabled(t *testing.T) {
	srv := newTestServer(t)
	res, err := http.Get(srv.URL + "/guilds/g1/history")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestHistoryLimit(t *testing.T) {
	h := &fakeHistory{}
	srv := httptest.NewServer(New(fakePlayers{}, prometheus.NewRegistry(), nil).WithHistory(h).Handler())
	t.Cleanup(srv.Close)

	res, err := http.Get(srv.URL + "/guilds/g9/history?limit=500")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, maxHistory, h.limit)

	var body []map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "g9", body[0]["guild_id"])

	bad, err := http.Get(srv.URL + "/guilds/g9/history?limit=abc")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestHistoryError(t *testing.T) {
	h := &fakeHistory{err: errors.New("db down")}
	srv := httptest.NewServer(New(fakePlayers{}, prometheus.NewRegistry(), nil).WithHistory(h).Handler())
	t.Cleanup(srv.Close)

	res, err := http.Get(srv.URL + "/guilds/g9/history")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, defaultHistory, h.limit)
}
