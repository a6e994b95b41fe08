package playback

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Manager mantiene una Session por guild; los guilds no comparten estado.
type Manager struct {
	voice    Voice
	presence Presence
	obs      Observer
	log      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

func NewManager(voice Voice, presence Presence, obs Observer, log *zap.Logger) *Manager {
	if obs == nil {
		obs = nopObserver{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		voice:    voice,
		presence: presence,
		obs:      obs,
		log:      log,
		sessions: map[string]*Session{},
	}
}

// Session devuelve (o crea) la sesión del guild. nil si el manager está cerrado.
func (m *Manager) Session(guildID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	s, ok := m.sessions[guildID]
	if !ok {
		s = newSession(guildID, m.voice, m.presence, m.obs, m.log)
		m.sessions[guildID] = s
	}
	return s
}

func (m *Manager) Lookup(guildID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[guildID]
	return s, ok
}

func (m *Manager) Snapshots() []Snapshot {
	m.mu.Lock()
	out := make([]Snapshot, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Snapshot())
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out
}

func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	ss := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		ss = append(ss, s)
	}
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range ss {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Close()
		}(s)
	}
	wg.Wait()
}
