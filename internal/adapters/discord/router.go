package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/app/pager"
	"github.com/jose-valero/nexus7-bot/internal/app/service"
	"github.com/jose-valero/nexus7-bot/internal/app/session"
)

const (
	clickWindow      = 1 * time.Second
	commandTimeout   = 15 * time.Second
	playTimeout      = 45 * time.Second
	componentTimeout = 8 * time.Second
)

type Deps struct {
	Catalog  *service.CatalogService
	Music    *service.MusicService
	Library  *service.LibraryService
	Settings *service.SettingsService
	Sessions *session.Store
	Panels   *Panels
	Metrics  Metrics
}

type Options struct {
	GuildID        string // "" = comandos globales
	AdminRoleIDs   []string
	SpotifyOwnerID string
	ReactWords     []string
	PageSize       int
}

type Router struct {
	s    *discordgo.Session
	opts Options
	log  *zap.Logger

	catalog  *service.CatalogService
	music    *service.MusicService
	library  *service.LibraryService
	settings *service.SettingsService
	sessions *session.Store
	panels   *Panels
	metrics  Metrics

	clickLimiter *userLimiter
	tiers        *tierBadges
	reactWords   map[string]struct{}
}

func NewRouter(s *discordgo.Session, d Deps, o Options, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if o.PageSize <= 0 {
		o.PageSize = pager.DefaultPageSize
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	words := make(map[string]struct{}, len(o.ReactWords))
	for _, w := range o.ReactWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words[w] = struct{}{}
		}
	}
	return &Router{
		s:            s,
		opts:         o,
		log:          log,
		catalog:      d.Catalog,
		music:        d.Music,
		library:      d.Library,
		settings:     d.Settings,
		sessions:     d.Sessions,
		panels:       d.Panels,
		metrics:      d.Metrics,
		clickLimiter: newUserLimiter(clickWindow),
		tiers:        newTierBadges(),
		reactWords:   words,
	}
}

// Register reemplaza los comandos de la app (guild o globales) con el set actual.
func (r *Router) Register() error {
	appID := r.s.State.User.ID
	cmds, err := r.s.ApplicationCommandBulkOverwrite(appID, r.opts.GuildID, Commands(r.catalog.SpotifyEnabled()))
	if err != nil {
		return err
	}
	r.log.Info("commands registered", zap.Int("count", len(cmds)), zap.String("guild", r.opts.GuildID))
	return nil
}

// Clear borra todos los comandos del scope configurado.
func (r *Router) Clear() error {
	_, err := r.s.ApplicationCommandBulkOverwrite(r.s.State.User.ID, r.opts.GuildID, []*discordgo.ApplicationCommand{})
	return err
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			r.handleSlashCommand(s, ic)
		case discordgo.InteractionMessageComponent:
			r.handleMessageComponent(s, ic)
		}
	})
	r.s.AddHandler(r.onVoiceStateUpdate)
	r.s.AddHandler(r.onMessageCreate)
	r.s.AddHandler(func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		if g.Guild != nil {
			r.tiers.learn(g.ID, g.Emojis)
		}
	})
	r.s.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildEmojisUpdate) {
		r.tiers.learn(e.GuildID, e.Emojis)
	})
	r.s.AddHandler(func(s *discordgo.Session, rd *discordgo.Ready) {
		r.log.Info("gateway ready", zap.String("user", rd.User.Username), zap.Int("guilds", len(rd.Guilds)))
	})
}

// onMessageCreate reacciona ✋🏻 😔 a los mensajes que son exactamente una palabra gatillo.
func (r *Router) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if len(r.reactWords) == 0 || m.Author == nil || m.Author.Bot {
		return
	}
	if _, ok := r.reactWords[strings.ToLower(strings.TrimSpace(m.Content))]; !ok {
		return
	}
	for _, e := range []string{"✋🏻", "😔"} {
		if err := s.MessageReactionAdd(m.ChannelID, m.ID, e); err != nil {
			r.log.Debug("reaction failed", zap.String("channel", m.ChannelID), zap.Error(err))
			return
		}
	}
}

// OnExpire se engancha en session.OnExpire: reemplaza los controles del mensaje por uno deshabilitado.
func (r *Router) OnExpire(sess *session.Session) {
	v, ok := sess.Handle.(*view)
	if !ok {
		return
	}
	ref := v.ref.Load()
	if ref == nil {
		return
	}
	cc := []discordgo.MessageComponent{expiredRow()}
	var err error
	if v.ephemeral {
		_, err = r.s.FollowupMessageEdit(v.interaction, ref.MessageID, &discordgo.WebhookEdit{Components: &cc})
	} else {
		edit := discordgo.NewMessageEdit(ref.ChannelID, ref.MessageID)
		edit.Components = &cc
		_, err = r.s.ChannelMessageEditComplex(edit)
	}
	if err != nil {
		// el token de la interacción dura 15 minutos; después no hay forma de editar un efímero
		r.log.Debug("expire edit failed", zap.String("session", sess.ID), zap.String("kind", sess.Kind), zap.Error(err))
	}
}

func expiredRow() discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Style:    discordgo.SecondaryButton,
			Label:    "Expired, run the command again",
			CustomID: "expired",
			Emoji:    &discordgo.ComponentEmoji{Name: "⌛"},
			Disabled: true,
		},
	}}
}

func (r *Router) guildBadge(guildID, tier string) string { return r.tiers.badge(guildID, tier) }

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}
