package discord

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/domain"
	"github.com/jose-valero/nexus7-bot/internal/infra/storage"
)

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []*discordgo.MessageSend
	sentTo  []string
	edits   []*discordgo.MessageEdit
	deleted []string
	editErr error
}

func (f *fakeMessenger) ChannelMessageSendComplex(ch string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	f.sentTo = append(f.sentTo, ch)
	return &discordgo.Message{ID: "m-new", ChannelID: ch}, nil
}

func (f *fakeMessenger) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, m)
	if f.editErr != nil {
		return nil, f.editErr
	}
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func (f *fakeMessenger) ChannelMessageDelete(ch, id string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ch+"/"+id)
	return nil
}

func (f *fakeMessenger) counts() (sent, edits int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent), len(f.edits)
}

type memPanels struct {
	mu sync.Mutex
	m  map[string]storage.PlaybackPanel
}

func (r *memPanels) Get(_ context.Context, g string) (storage.PlaybackPanel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.m[g]
	if !ok {
		return storage.PlaybackPanel{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *memPanels) Upsert(_ context.Context, g, ch, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[g] = storage.PlaybackPanel{GuildID: g, ChannelID: ch, MessageID: msg}
	return nil
}

func (r *memPanels) Delete(_ context.Context, g string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, g)
	return nil
}

func (r *memPanels) has(g string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.m[g]
	return ok
}

type fixedSettings struct{ announce bool }

func (s fixedSettings) Get(_ context.Context, g string) (storage.GuildSettings, error) {
	return storage.GuildSettings{GuildID: g, MaxQueue: 50, Announce: s.announce}, nil
}

func newTestPanels(announce bool) (*Panels, *fakeMessenger, *memPanels) {
	msg := &fakeMessenger{}
	repo := &memPanels{m: map[string]storage.PlaybackPanel{}}
	p := NewPanels(msg, repo, fixedSettings{announce}, zap.NewNop())
	p.debounce = 10 * time.Millisecond
	return p, msg, repo
}

func TestPublishReplacesOldPanel(t *testing.T) {
	p, msg, repo := newTestPanels(true)
	repo.m["g1"] = storage.PlaybackPanel{GuildID: "g1", ChannelID: "c0", MessageID: "m-old"}

	require.NoError(t, p.Publish(context.Background(), "c1", snapshot(playback.Playing, 0, "a")))
	assert.Equal(t, []string{"c0/m-old"}, msg.deleted)
	pn, err := repo.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "m-new", pn.MessageID)
	assert.Equal(t, "c1", pn.ChannelID)
}

func TestRefreshIsDebounced(t *testing.T) {
	p, msg, repo := newTestPanels(false)
	repo.m["g1"] = storage.PlaybackPanel{GuildID: "g1", ChannelID: "c1", MessageID: "m1"}

	for i := 0; i < 5; i++ {
		p.PlaybackEvent(playback.Event{Kind: playback.EventQueued, Snapshot: snapshot(playback.Playing, 0, "a", "b")})
	}
	last := snapshot(playback.Paused, 0, "a", "b")
	p.PlaybackEvent(playback.Event{Kind: playback.EventPaused, Snapshot: last})

	assert.Eventually(t, func() bool { _, n := msg.counts(); return n == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	_, n := msg.counts()
	assert.Equal(t, 1, n)

	msg.mu.Lock()
	edit := msg.edits[0]
	msg.mu.Unlock()
	assert.Equal(t, "m1", edit.ID)
	assert.Contains(t, (*edit.Embeds)[0].Fields[0].Value, "Paused")
}

func TestRefreshWithoutPanelDoesNothing(t *testing.T) {
	p, msg, _ := newTestPanels(false)
	p.PlaybackEvent(playback.Event{Kind: playback.EventLeft, Snapshot: snapshot(playback.Idle, 0)})
	time.Sleep(60 * time.Millisecond)
	sent, edits := msg.counts()
	assert.Zero(t, sent)
	assert.Zero(t, edits)
}

func TestDeletedPanelIsForgotten(t *testing.T) {
	p, msg, repo := newTestPanels(false)
	repo.m["g1"] = storage.PlaybackPanel{GuildID: "g1", ChannelID: "c1", MessageID: "m1"}
	msg.editErr = &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage},
	}

	p.PlaybackEvent(playback.Event{Kind: playback.EventQueued, Snapshot: snapshot(playback.Playing, 0, "a")})
	assert.Eventually(t, func() bool { return !repo.has("g1") }, time.Second, 5*time.Millisecond)
}

func TestAnnounceRespectsSettings(t *testing.T) {
	started := snapshot(playback.Playing, 0, "a")
	entry := started.Queue[0]
	entry.TextChannelID = "text"

	p, msg, _ := newTestPanels(true)
	p.PlaybackEvent(playback.Event{Kind: playback.EventStarted, Snapshot: started, Entry: &entry})
	assert.Eventually(t, func() bool { n, _ := msg.counts(); return n == 1 }, time.Second, 5*time.Millisecond)
	msg.mu.Lock()
	assert.Equal(t, "text", msg.sentTo[0])
	assert.Contains(t, msg.sent[0].Content, "Now playing **a**")
	msg.mu.Unlock()

	p, msg, _ = newTestPanels(false)
	p.PlaybackEvent(playback.Event{Kind: playback.EventStarted, Snapshot: started, Entry: &entry})
	time.Sleep(60 * time.Millisecond)
	n, _ := msg.counts()
	assert.Zero(t, n)
}
