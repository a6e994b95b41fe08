package discord

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/domain"
)

// atajos de tunning
const (
	panelDebounce  = 750 * time.Millisecond
	panelRenderMax = 3 * time.Second
)

// messenger es lo que el panel necesita de *discordgo.Session.
type messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Panels mantiene el mensaje "now playing" de cada guild al día con la cola.
// Es un playback.Observer: PlaybackEvent sólo agenda trabajo, nunca bloquea el loop del guild.
type Panels struct {
	s        messenger
	repo     PanelRepo
	settings AnnounceSettings
	log      *zap.Logger
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	latest map[string]playback.Snapshot
}

func NewPanels(s messenger, repo PanelRepo, settings AnnounceSettings, log *zap.Logger) *Panels {
	if log == nil {
		log = zap.NewNop()
	}
	return &Panels{
		s:        s,
		repo:     repo,
		settings: settings,
		log:      log,
		debounce: panelDebounce,
		timers:   map[string]*time.Timer{},
		latest:   map[string]playback.Snapshot{},
	}
}

// Publish postea el panel en channelID y reemplaza al anterior del guild.
func (p *Panels) Publish(ctx context.Context, channelID string, snap playback.Snapshot) error {
	msg, err := p.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{nowPlayingEmbed(snap)},
		Components: []discordgo.MessageComponent{panelRow(snap)},
	})
	if err != nil {
		return err
	}
	if old, err := p.repo.Get(ctx, snap.GuildID); err == nil && old.MessageID != msg.ID {
		if err := p.s.ChannelMessageDelete(old.ChannelID, old.MessageID); err != nil && restCode(err) != discordgo.ErrCodeUnknownMessage {
			p.log.Debug("old panel delete failed", zap.String("guild", snap.GuildID), zap.Error(err))
		}
	}
	return p.repo.Upsert(ctx, snap.GuildID, channelID, msg.ID)
}

func (p *Panels) PlaybackEvent(ev playback.Event) {
	p.schedule(ev.Snapshot)

	if ev.Entry == nil || ev.Entry.TextChannelID == "" {
		return
	}
	switch ev.Kind {
	case playback.EventStarted:
		go p.announce(ev.Snapshot.GuildID, *ev.Entry)
	case playback.EventFailed:
		go p.notify(ev.Entry.TextChannelID, "📼 I couldn't play **"+ev.Entry.Video.Title+"**, skipping it.")
	}
}

// schedule: debounce por guild, el timer siempre renderiza el último snapshot.
func (p *Panels) schedule(snap playback.Snapshot) {
	g := snap.GuildID
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest[g] = snap
	if t, ok := p.timers[g]; ok {
		t.Stop()
	}
	p.timers[g] = time.AfterFunc(p.debounce, func() { p.refresh(g) })
}

func (p *Panels) refresh(guildID string) {
	p.mu.Lock()
	snap, ok := p.latest[guildID]
	delete(p.latest, guildID)
	p.mu.Unlock()
	if !ok {
		return
	}

	stop := step(p.log, "panel.refresh")
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), panelRenderMax)
	defer cancel()

	pn, err := p.repo.Get(ctx, guildID)
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	if err != nil {
		p.log.Warn("panel lookup failed", zap.String("guild", guildID), zap.Error(err))
		return
	}

	em := []*discordgo.MessageEmbed{nowPlayingEmbed(snap)}
	cc := []discordgo.MessageComponent{panelRow(snap)}
	_, err = p.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    pn.ChannelID,
		ID:         pn.MessageID,
		Embeds:     &em,
		Components: &cc,
	})
	if err == nil {
		return
	}
	if restCode(err) == discordgo.ErrCodeUnknownMessage {
		// alguien borró el panel: dejamos de editarlo
		if derr := p.repo.Delete(ctx, guildID); derr != nil {
			p.log.Warn("panel delete failed", zap.String("guild", guildID), zap.Error(derr))
		}
		return
	}
	var re *discordgo.RESTError
	if errors.As(err, &re) && re.Response != nil {
		p.log.Warn("panel edit failed",
			zap.String("guild", guildID),
			zap.Int("status", re.Response.StatusCode),
			zap.String("retry_after", re.Response.Header.Get("Retry-After")),
			zap.String("bucket", re.Response.Header.Get("X-RateLimit-Bucket")))
		return
	}
	p.log.Warn("panel edit failed", zap.String("guild", guildID), zap.Error(err))
}

func (p *Panels) announce(guildID string, e playback.Entry) {
	if p.settings != nil {
		ctx, cancel := context.WithTimeout(context.Background(), panelRenderMax)
		gs, err := p.settings.Get(ctx, guildID)
		cancel()
		if err == nil && !gs.Announce {
			return
		}
	}
	p.notify(e.TextChannelID, "🎶 Now playing **"+e.Video.Title+"** · requested by <@"+e.RequestedBy+">")
}

func (p *Panels) notify(channelID, content string) {
	_, err := p.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		p.log.Debug("playback notice failed", zap.String("channel", channelID), zap.Error(err))
	}
}

// Stop cancela los refresh pendientes (shutdown).
func (p *Panels) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for g, t := range p.timers {
		t.Stop()
		delete(p.timers, g)
	}
}
