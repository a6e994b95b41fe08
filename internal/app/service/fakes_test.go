package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/domain"
	"github.com/jose-valero/nexus7-bot/internal/infra/storage"
)

// ---- upstreams ----

type fakeWeather struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (f *fakeWeather) Current(_ context.Context, city string) (domain.Weather, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return domain.Weather{}, f.err
	}
	return domain.Weather{City: city, Temp: 20}, nil
}

type fakeSearch struct {
	ids []string
	err error
}

func (f fakeSearch) SearchIDs(context.Context, string, int) ([]string, error) { return f.ids, f.err }

type fakeResolver struct {
	err    error
	target string
}

func (f *fakeResolver) Resolve(_ context.Context, u string) (domain.Video, error) {
	f.target = u
	if f.err != nil {
		return domain.Video{}, f.err
	}
	return domain.Video{ID: "vid", Title: "Song", PageURL: u, StreamURL: "http://cdn/vid"}, nil
}

type fakeSpotify struct {
	SpotifyAPI
	mine atomic.Int32
}

func (f *fakeSpotify) MyPlaylists(context.Context, int) ([]domain.Playlist, error) {
	f.mine.Add(1)
	return []domain.Playlist{{ID: "p1", Name: "Gym"}}, nil
}

func (f *fakeSpotify) CreatePlaylist(_ context.Context, name string) (domain.Playlist, error) {
	return domain.Playlist{ID: "p2", Name: name}, nil
}

type countingMetrics struct {
	mu      sync.Mutex
	hits    map[string]int
	fetches map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{hits: map[string]int{}, fetches: map[string]int{}}
}

func (m *countingMetrics) CacheHit(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[source]++
}

func (m *countingMetrics) ObserveFetch(source string, _ time.Time, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[source]++
}

// ---- storage ----

type memSettings struct {
	gs  storage.GuildSettings
	err error
}

func (m *memSettings) Get(_ context.Context, guildID string) (storage.GuildSettings, error) {
	if m.err != nil {
		return storage.GuildSettings{}, m.err
	}
	m.gs.GuildID = guildID
	return m.gs, nil
}

func (m *memSettings) Update(ctx context.Context, guildID string, u storage.GuildSettingsUpdate) (storage.GuildSettings, error) {
	if u.MaxQueue != nil {
		m.gs.MaxQueue = *u.MaxQueue
	}
	if u.Announce != nil {
		m.gs.Announce = *u.Announce
	}
	return m.Get(ctx, guildID)
}

type memSaved struct {
	items map[string]domain.SavedItem
}

func (m *memSaved) key(user string, k domain.Kind, id string) string {
	return user + "/" + string(k) + "/" + id
}

func (m *memSaved) Save(_ context.Context, it domain.SavedItem) error {
	if m.items == nil {
		m.items = map[string]domain.SavedItem{}
	}
	k := m.key(it.UserID, it.Type, it.ItemKey)
	if _, ok := m.items[k]; ok {
		return domain.ErrAlreadySaved
	}
	m.items[k] = it
	return nil
}

func (m *memSaved) List(_ context.Context, userID string, _ []domain.Kind, _ int) ([]domain.SavedItem, error) {
	var out []domain.SavedItem
	for _, it := range m.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memSaved) Get(_ context.Context, userID string, k domain.Kind, id string) (domain.SavedItem, error) {
	it, ok := m.items[m.key(userID, k, id)]
	if !ok {
		return domain.SavedItem{}, domain.ErrNotFound
	}
	return it, nil
}

func (m *memSaved) Delete(_ context.Context, userID string, k domain.Kind, id string) (bool, error) {
	key := m.key(userID, k, id)
	_, ok := m.items[key]
	delete(m.items, key)
	return ok, nil
}

type memHistory struct {
	mu   sync.Mutex
	rows []storage.HistoryEntry
}

func (m *memHistory) Record(_ context.Context, h storage.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, h)
	return nil
}

func (m *memHistory) Recent(_ context.Context, guildID string, limit int) ([]storage.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.HistoryEntry
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if m.rows[i].GuildID == guildID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memHistory) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// ---- voz ----

type nopStream struct {
	done chan error
	once sync.Once
}

func (*nopStream) Pause()               {}
func (*nopStream) Resume()              {}
func (s *nopStream) Stop()              { s.once.Do(func() { close(s.done) }) }
func (s *nopStream) Done() <-chan error { return s.done }

type nopConn struct{ ch string }

func (c *nopConn) ChannelID() string                { return c.ch }
func (c *nopConn) Disconnect(context.Context) error { return nil }

func (c *nopConn) Move(_ context.Context, ch string) error {
	c.ch = ch
	return nil
}

func (c *nopConn) Play(context.Context, domain.Video) (playback.Stream, error) {
	return &nopStream{done: make(chan error)}, nil
}

type nopVoice struct{}

func (nopVoice) Connect(_ context.Context, _, ch string) (playback.Conn, error) {
	return &nopConn{ch: ch}, nil
}

type crowd struct{}

func (crowd) Occupants(string) (int, bool) { return 3, true }
