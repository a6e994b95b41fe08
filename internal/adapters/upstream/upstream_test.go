package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestWeatherMapsFields(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Lima", r.URL.Query().Get("q"))
		assert.Equal(t, "k3y", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(`{
			"name":"Lima","sys":{"country":"PE"},
			"weather":[{"main":"Clouds","description":"overcast clouds","icon":"04d"}],
			"main":{"temp":11.6,"feels_like":10.9,"humidity":88},
			"wind":{"speed":3.1},"clouds":{"all":90}}`))
	})

	got, err := NewWeather(New("weather", srv.URL), "k3y").Current(context.Background(), "Lima")
	require.NoError(t, err)
	assert.Equal(t, "PE", got.Country)
	assert.Equal(t, "http://openweathermap.org/img/w/04d.png", got.IconURL)
	assert.Equal(t, 88, got.Humidity)
	assert.True(t, got.Gloomy())
}

func TestNotFoundMapsToSentinel(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":"404","message":"city not found"}`, http.StatusNotFound)
	})
	_, err := NewWeather(New("weather", srv.URL), "k").Current(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServerErrorIsAPIError(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream on fire", http.StatusBadGateway)
	})
	_, err := NewBooks(New("books", srv.URL)).Search(context.Background(), "dune", 5)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "books", apiErr.Source)
	assert.Contains(t, apiErr.Body, "on fire")
}

func TestRetryAfterOnce(t *testing.T) {
	var calls atomic.Int32
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"items":[]}`))
	})
	books, err := NewBooks(New("books", srv.URL)).Search(context.Background(), "x", 5)
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.EqualValues(t, 2, calls.Load())
}

func TestRetryAfterRespectsContext(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewBooks(New("books", srv.URL)).Search(ctx, "x", 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBooksKeepsOrderAndLimit(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(`{"totalItems":3,"items":[
			{"id":"b","volumeInfo":{"title":"Second","authors":["A","B"],"pageCount":300,"imageLinks":{"thumbnail":"http://img/b"}}},
			{"id":"a","volumeInfo":{"title":"First"}},
			{"id":"c","volumeInfo":{"title":"Third"}}]}`))
	})
	got, err := NewBooks(New("books", srv.URL)).Search(context.Background(), "q", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "A, B", got[0].AuthorLine())
	assert.Equal(t, "http://img/b", got[0].Thumbnail)
	assert.Equal(t, "a", got[1].ID)
}

func TestStatsFiltersRankedPlaylists(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profile/Some%20One", r.URL.EscapedPath())
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		_, _ = w.Write([]byte(`{"data":{
			"platformInfo":{"platformUserIdentifier":"Some One"},
			"segments":[
				{"type":"overview","metadata":{"name":"Lifetime"},"stats":{
					"wins":{"displayValue":"1,204"},"goals":{"displayValue":"3,001"},
					"saves":{"displayValue":"900"},"assists":{"displayValue":"700"},
					"goalShotRatio":{"displayValue":"41.2"},"tRNRating":{"displayValue":"1,100"}}},
				{"type":"playlist","metadata":{"name":"Ranked Doubles 2v2"},"stats":{
					"tier":{"metadata":{"name":"Diamond II","iconUrl":"http://icon/d2"}},
					"division":{"metadata":{"name":"Division III"}},
					"rating":{"value":1105},"peakRating":{"value":1150},
					"winStreak":{"displayValue":"3"}}},
				{"type":"playlist","metadata":{"name":"Hoops"},"stats":{}},
				{"type":"peak-rating","metadata":{"name":"Ranked Duel 1v1"},"stats":{}}
			]}}`))
	})
	c := New("rlstats", srv.URL+"/profile/", WithBrowserUA())
	p, err := NewStats(c).Player(context.Background(), "Some One")
	require.NoError(t, err)

	assert.Equal(t, "Some One", p.Name)
	assert.Equal(t, "1,204", p.Wins)
	assert.Equal(t, "41.2", p.GoalShotRatio)
	require.Len(t, p.Playlists, 1)
	pl := p.Playlists[0]
	assert.Equal(t, "Ranked Doubles 2v2", pl.ItemID())
	assert.Equal(t, "Diamond II", pl.Tier)
	assert.Equal(t, "Division III", pl.Division)
	assert.Equal(t, 1105.0, pl.MMR)
	assert.Equal(t, "3", pl.WinStreak)
	assert.Len(t, p.Items(), 1)
}

func TestStatsWithoutLifetime(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"segments":[]}}`))
	})
	p, err := NewStats(New("rlstats", srv.URL+"/")).Player(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", p.Name)
	assert.Equal(t, "-", p.Wins)
	assert.Empty(t, p.Playlists)
}

func TestYouTubeSearchIDs(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lofi beats", r.URL.Query().Get("search_query"))
		_, _ = w.Write([]byte(`<a href="/watch?v=abcdefghijk">x</a>
			"url":"/watch?v=abcdefghijk&list=1" /watch?v=ZYX_-123456 /watch?v=short`))
	})
	ids, err := NewYouTube(New("youtube", srv.URL)).SearchIDs(context.Background(), "lofi beats", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"abcdefghijk", "ZYX_-123456"}, ids)
}
