package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/nexus7-bot/internal/app/pager"
	"github.com/jose-valero/nexus7-bot/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newStore(t *testing.T, opts ...Option) (*Store, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	st, err := NewStore(DefaultTTL, append([]Option{WithClock(clk.Now)}, opts...)...)
	require.NoError(t, err)
	return st, clk
}

func pagedSession(user, channel string, n int) *Session {
	items := make([]domain.ResultItem, n)
	for i := range items {
		items[i] = domain.Track{ID: string(rune('a' + i)), Name: "x"}
	}
	return &Session{UserID: user, ChannelID: channel, Kind: "tracks", Pager: pager.New(items, 5)}
}

func TestAcquireWithinWindow(t *testing.T) {
	st, clk := newStore(t)
	s := st.Open(pagedSession("u1", "c1", 12))
	require.NotEmpty(t, s.ID)

	clk.Advance(179 * time.Second)
	got, release, err := st.Acquire(s.ID, "u1")
	require.NoError(t, err)
	got.Pager.Next()
	release()

	// release renueva la ventana
	clk.Advance(179 * time.Second)
	got, release, err = st.Acquire(s.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Pager.Current())
	release()
}

func TestLateInteractionIsExpired(t *testing.T) {
	var expired []*Session
	st, clk := newStore(t, OnExpire(func(s *Session) { expired = append(expired, s) }))
	s := st.Open(pagedSession("u1", "c1", 12))

	clk.Advance(200 * time.Second)
	_, _, err := st.Acquire(s.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrExpired)
	assert.Equal(t, 1, s.Pager.Current(), "no page change after expiry")
	require.Len(t, expired, 1)
	assert.True(t, expired[0].Closed())
	assert.Equal(t, 0, st.Len())
}

func TestUnknownSessionIsExpired(t *testing.T) {
	st, _ := newStore(t)
	_, _, err := st.Acquire("does-not-exist", "u1")
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestOnlyOwnerMayInteract(t *testing.T) {
	st, _ := newStore(t)
	s := st.Open(pagedSession("u1", "c1", 12))
	_, _, err := st.Acquire(s.ID, "intruder")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestConcurrentClickIsBusy(t *testing.T) {
	st, _ := newStore(t)
	s := st.Open(pagedSession("u1", "c1", 12))

	_, release, err := st.Acquire(s.ID, "u1")
	require.NoError(t, err)

	_, _, err = st.Acquire(s.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrBusy)

	release()
	_, release, err = st.Acquire(s.ID, "u1")
	require.NoError(t, err)
	release()
}

func TestNewCommandSupersedesOldSession(t *testing.T) {
	var expired []string
	st, _ := newStore(t, OnExpire(func(s *Session) { expired = append(expired, s.ID) }))

	old := st.Open(pagedSession("u1", "c1", 12))
	other := st.Open(pagedSession("u1", "c2", 3))
	fresh := st.Open(pagedSession("u1", "c1", 7))

	_, _, err := st.Acquire(old.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrExpired)
	assert.Equal(t, []string{old.ID}, expired)

	for _, id := range []string{other.ID, fresh.ID} {
		_, release, err := st.Acquire(id, "u1")
		require.NoError(t, err)
		release()
	}
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	var n int
	st, clk := newStore(t, OnExpire(func(*Session) { n++ }))
	a := st.Open(pagedSession("u1", "c1", 1))
	clk.Advance(100 * time.Second)
	b := st.Open(pagedSession("u2", "c1", 1))
	clk.Advance(100 * time.Second)

	assert.Equal(t, 1, st.Sweep())
	assert.Equal(t, 1, n)

	_, _, err := st.Acquire(a.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrExpired)
	_, release, err := st.Acquire(b.ID, "u2")
	require.NoError(t, err)
	release()
}

func TestSweepSkipsSessionInUse(t *testing.T) {
	var n int
	st, clk := newStore(t, OnExpire(func(*Session) { n++ }))
	s := st.Open(pagedSession("u1", "c1", 1))

	_, release, err := st.Acquire(s.ID, "u1")
	require.NoError(t, err)
	clk.Advance(DefaultTTL + time.Second)

	assert.Equal(t, 0, st.Sweep())
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, st.Len())
	assert.False(t, s.Closed())

	// al soltarla arranca una ventana nueva
	release()
	assert.Equal(t, 0, st.Sweep())
	_, release, err = st.Acquire(s.ID, "u1")
	require.NoError(t, err)
	release()

	clk.Advance(DefaultTTL + time.Second)
	assert.Equal(t, 1, st.Sweep())
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, st.Len())
}

func TestCapacityEvictsOldest(t *testing.T) {
	st, _ := newStore(t, WithCapacity(2))
	a := st.Open(pagedSession("u1", "c1", 1))
	st.Open(pagedSession("u2", "c1", 1))
	st.Open(pagedSession("u3", "c1", 1))

	assert.Equal(t, 2, st.Len())
	assert.True(t, a.Closed())
}

func TestCloseEndsSession(t *testing.T) {
	st, _ := newStore(t)
	s := st.Open(pagedSession("u1", "c1", 1))
	st.Close(s.ID)
	_, _, err := st.Acquire(s.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrExpired)
}
