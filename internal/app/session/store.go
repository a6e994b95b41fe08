package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jose-valero/nexus7-bot/internal/app/pager"
	"github.com/jose-valero/nexus7-bot/internal/app/selection"
	"github.com/jose-valero/nexus7-bot/internal/domain"
)

const (
	DefaultTTL      = 180 * time.Second
	DefaultCapacity = 2048
)

// Session es el estado interactivo de un mensaje renderizado (paginado y/o selección).
// Sólo se toca entre Acquire y su release.
type Session struct {
	ID        string
	UserID    string
	ChannelID string
	Kind      string
	Title     string

	Pager  *pager.Paginator
	Choice *selection.Controller

	// Handle: referencia de plataforma al mensaje dueño (para desactivar controles al expirar).
	Handle any

	mu       sync.Mutex
	lastSeen time.Time
	closed   atomic.Bool
}

func (s *Session) Closed() bool { return s.closed.Load() }

type ownerKey struct{ user, channel string }

type Store struct {
	ttl      time.Duration
	capacity int
	now      func() time.Time
	onExpire func(*Session)

	mu      sync.Mutex
	cache   *lru.Cache[string, *Session]
	owners  map[ownerKey]string
	pending []*Session
}

type Option func(*Store)

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }
func WithCapacity(n int) Option             { return func(s *Store) { s.capacity = n } }

// OnExpire se llama fuera de los locks cuando una sesión expira, se reemplaza o se desaloja.
func OnExpire(fn func(*Session)) Option { return func(s *Store) { s.onExpire = fn } }

func NewStore(ttl time.Duration, opts ...Option) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	st := &Store{
		ttl:      ttl,
		capacity: DefaultCapacity,
		now:      time.Now,
		owners:   map[ownerKey]string{},
	}
	for _, o := range opts {
		o(st)
	}
	c, err := lru.NewWithEvict[string, *Session](st.capacity, st.evicted)
	if err != nil {
		return nil, err
	}
	st.cache = c
	return st, nil
}

// evicted corre con st.mu tomado (Add/Remove siempre se llaman bajo el lock).
func (st *Store) evicted(id string, s *Session) {
	s.closed.Store(true)
	k := ownerKey{s.UserID, s.ChannelID}
	if st.owners[k] == id {
		delete(st.owners, k)
	}
	st.pending = append(st.pending, s)
}

func (st *Store) flush() {
	st.mu.Lock()
	p := st.pending
	st.pending = nil
	st.mu.Unlock()
	if st.onExpire == nil {
		return
	}
	for _, s := range p {
		st.onExpire(s)
	}
}

// Open publica la sesión y reemplaza la anterior del mismo usuario en el mismo canal.
func (st *Store) Open(s *Session) *Session {
	s.ID = uuid.NewString()

	st.mu.Lock()
	s.lastSeen = st.now()
	k := ownerKey{s.UserID, s.ChannelID}
	if prev, ok := st.owners[k]; ok {
		st.cache.Remove(prev)
	}
	st.cache.Add(s.ID, s)
	st.owners[k] = s.ID
	st.mu.Unlock()

	st.flush()
	return s
}

// Acquire toma la sesión para una interacción de userID.
// Errores: domain.ErrExpired, domain.ErrForbidden, domain.ErrBusy.
func (st *Store) Acquire(id, userID string) (*Session, func(), error) {
	st.mu.Lock()
	s, ok := st.cache.Get(id)
	if !ok {
		st.mu.Unlock()
		return nil, nil, domain.ErrExpired
	}
	if st.now().Sub(s.lastSeen) > st.ttl {
		st.cache.Remove(id)
		st.mu.Unlock()
		st.flush()
		return nil, nil, domain.ErrExpired
	}
	st.mu.Unlock()

	if s.UserID != userID {
		return nil, nil, domain.ErrForbidden
	}
	if !s.mu.TryLock() {
		return nil, nil, domain.ErrBusy
	}
	if s.Closed() {
		s.mu.Unlock()
		return nil, nil, domain.ErrExpired
	}

	release := func() {
		st.mu.Lock()
		s.lastSeen = st.now()
		st.mu.Unlock()
		s.mu.Unlock()
	}
	return s, release, nil
}

func (st *Store) Close(id string) {
	st.mu.Lock()
	st.cache.Remove(id)
	st.mu.Unlock()
	st.flush()
}

// Sweep descarta las sesiones inactivas y devuelve cuántas expiraron.
func (st *Store) Sweep() int {
	st.mu.Lock()
	now := st.now()
	n := 0
	for _, id := range st.cache.Keys() {
		s, ok := st.cache.Peek(id)
		if !ok || now.Sub(s.lastSeen) <= st.ttl {
			continue
		}
		// tomada por una interacción en curso: lastSeen se renueva al soltarla
		if !s.mu.TryLock() {
			continue
		}
		s.mu.Unlock()
		st.cache.Remove(id)
		n++
	}
	st.mu.Unlock()
	st.flush()
	return n
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cache.Len()
}
