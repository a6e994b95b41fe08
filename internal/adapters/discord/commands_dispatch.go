// lógica de InteractionApplicationCommand: valida la interacción y despacha a los servicios
package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/app/service"
	"github.com/jose-valero/nexus7-bot/internal/domain"
)

func (r *Router) handleSlashCommand(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	cmd := ic.ApplicationCommandData()
	log := r.log.With(zap.String("cmd", cmd.Name), zap.String("by", userID(ic)), zap.String("guild", ic.GuildID))
	log.Info("cmd")
	ephemeral := ephemeralCommands[cmd.Name]

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in cmd", zap.Any("panic", rec), zap.Stack("stack"))
			r.metrics.Interaction("command", "panic")
			r.replyEphemeral(ic, "❌ Something broke while running that command.")
		}
	}()
	defer step(log, "cmd."+cmd.Name)()

	_ = r.deferReply(ic, ephemeral)

	var err error
	switch cmd.Name {
	case "play":
		err = r.cmdPlay(ic)
	case "pause":
		err = r.cmdControl(ic, "⏸️ Paused.", r.music.Pause)
	case "resume":
		err = r.cmdControl(ic, "▶️ Resumed.", r.music.Resume)
	case "skip":
		err = r.cmdControl(ic, "⏭️ Skipped.", r.music.Skip)
	case "leave":
		err = r.cmdControl(ic, "👋 Left the channel and cleared the queue.", r.music.Leave)
	case "join":
		err = r.cmdJoin(ic)
	case "queue":
		err = r.cmdQueue(ic)
	case "nowplaying":
		err = r.cmdNowPlaying(ic)
	case "weather":
		err = r.cmdWeather(ic)
	case "books":
		err = r.cmdBooks(ic)
	case "rlstats":
		err = r.cmdRLStats(ic)
	case "spotify":
		err = r.cmdSpotify(ic)
	case "saved":
		err = r.cmdSaved(ic)
	case "avatar":
		err = r.cmdAvatar(ic)
	case "help":
		r.reply(ic, true, "", helpEmbed(Commands(r.catalog.SpotifyEnabled())))
	case "clear":
		err = r.cmdClear(ic)
	case "settings":
		err = r.cmdSettings(ic)
	default:
		r.reply(ic, true, "🤷 Unknown command.")
	}

	r.metrics.Interaction("command", resultLabel(err))
	if err == nil {
		return
	}
	var done repliedError
	if errors.As(err, &done) {
		log.Debug("cmd failed after reply", zap.Error(err))
		return
	}
	if resultLabel(err) == "error" || resultLabel(err) == "upstream" {
		log.Warn("cmd failed", zap.Error(err))
	} else {
		log.Debug("cmd rejected", zap.Error(err))
	}
	r.reply(ic, ephemeral, userMessage(err))
}

// ---------- música ----------

func (r *Router) cmdPlay(ic *discordgo.InteractionCreate) error {
	ctx, cancel := withTimeout(playTimeout)
	defer cancel()

	query, _ := optStr(ic, "query")
	uid := userID(ic)
	res, err := r.music.Play(ctx, service.PlayRequest{
		GuildID:       ic.GuildID,
		VoiceChannel:  r.voiceChannelOf(ic.GuildID, uid),
		TextChannelID: ic.ChannelID,
		UserID:        uid,
		Query:         query,
	})
	if err != nil {
		return err
	}
	title := res.Entry.Video.Title
	switch {
	case res.Resumed && title != "":
		r.reply(ic, false, "▶️ Resuming **"+title+"**.")
	case res.Resumed:
		r.reply(ic, false, "▶️ Resumed.")
	case res.Started:
		e := videoEmbed(res.Entry.Video)
		e.Author = &discordgo.MessageEmbedAuthor{Name: "🎶 Now playing"}
		r.reply(ic, false, "", e)
	default:
		r.reply(ic, false, "➕ Added **"+title+"** to the queue.")
	}
	return nil
}

// cmdControl: pause/resume/skip/leave sólo cambian el estado del guild.
func (r *Router) cmdControl(ic *discordgo.InteractionCreate, ok string, fn func(context.Context, string) error) error {
	ctx, cancel := withTimeout(commandTimeout)
	defer cancel()
	if err := fn(ctx, ic.GuildID); err != nil {
		return err
	}
	r.reply(ic, false, ok)
	return nil
}

func (r *Router) cmdJoin(ic *discordgo.InteractionCreate) error {
	ctx, cancel := withTimeout(commandTimeout)
	defer cancel()
	ch := r.voiceChannelOf(ic.GuildID, userID(ic))
	if err := r.music.Join(ctx, ic.GuildID, ch); err != nil {
		return err
	}
	name := "<#" + ch + ">"
	if c, err := r.safeGetChannel(ch); err == nil && c.Name != "" {
		name = "**" + c.Name + "**"
	}
	r.reply(ic, false, "🔊 Joined "+name+".")
	return nil
}

func (r *Router) cmdQueue(ic *discordgo.InteractionCreate) error {
	snap := r.music.Snapshot(ic.GuildID)
	items := queueItems(snap)
	if len(items) == 0 {
		return domain.ErrQueueEmpty
	}
	footer := fmt.Sprintf("%d pending · %s", snap.Pending(), snap.Status)
	return r.open(ic, viewSpec{
		kind:  viewQueue,
		title: "🎶 Queue",
		items: items,
		paged: true,
		view:  &view{color: colorPlayer, footer: footer},
	})
}

func (r *Router) cmdNowPlaying(ic *discordgo.InteractionCreate) error {
	ctx, cancel := withTimeout(commandTimeout)
	defer cancel()
	snap := r.music.Snapshot(ic.GuildID)
	if err := r.panels.Publish(ctx, ic.ChannelID, snap); err != nil {
		return err
	}
	r.reply(ic, true, "📌 Now playing panel posted. It updates by itself.")
	return nil
}

// ---------- consultas ----------

func (r *Router) cmdWeather(ic *discordgo.InteractionCreate) error {
	ctx, cancel := withTimeout(commandTimeout)
	defer cancel()
	city, _ := optStr(ic, "city")
	w, err := r.catalog.Weather(ctx, city)
	if err != nil {
		return err
	}
	r.reply(ic, false, "", weatherEmbed(w))
	return nil
}

func (r *Router) cmdBooks(ic *discordgo.InteractionCreate) error {
	ctx, cancel := withTimeout(commandTimeout)
	defer cancel()
	q, _ := optStr(ic, "query")
	books, err := r.catalog.Books(ctx, q)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		return domain.ErrNotFound
	}
	items := make([]domain.ResultItem, 0, len(books))
	for _, b := range books {
		items = append(items, b)
	}
	return r.open(ic, viewSpec{
		kind:    viewBooks,
		title:   "📚 " + q,
		items:   items,
		choose:  true,
		content: "📚 Results for **" + q + "**",
		view:    &view{color: colorBooks, placeholder: "Pick a book"},
	})
}

func (r *Router) cmdRLStats(ic *discordgo.InteractionCreate) error {
	ctx, cancel := withTimeout(commandTimeout)
	defer cancel()
	tag, _ := optStr(ic, "nametag")
	p, err := r.catalog.Player(ctx, tag)
	if err != nil {
		return err
	}
	header := playerEmbed(p)
	items := p.Items()
	if len(items) == 0 {
		r.reply(ic, false, "", header)
		return nil
	}
	return r.open(ic, viewSpec{
		kind:   viewRLStats,
		title:  p.Name,
		items:  items,
		choose: true,
		view:   &view{color: colorDefault, placeholder: "Pick a playlist", header: header},
	})
}

// ---------- spotify ----------

func (r *Router) cmdSpotify(ic *discordgo.InteractionCreate) error {
	if !r.catalog.SpotifyEnabled() {
		return service.ErrSpotifyDisabled
	}
	if !r.requireSpotifyOwner(ic, false) {
		return nil
	}
	ctx, cancel := withTimeout(commandTimeout)
	defer cancel()

	sub, _ := subcmdName(ic)
	switch sub {
	case "toptracks":
		ts, err := r.catalog.TopTracks(ctx)
		return r.openTracks(ic, "🎧 Your top tracks", ts, err)
	case "recommendations":
		ts, err := r.catalog.Recommendations(ctx)
		return r.openTracks(ic, "✨ Recommended for you", ts, err)
	case "search":
		q, _ := optStr(ic, "query")
		ts, err := r.catalog.SearchTracks(ctx, q)
		return r.openTracks(ic, "🔎 "+q, ts, err)
	case "myplaylists":
		ps, err := r.catalog.MyPlaylists(ctx)
		return r.openPlaylists(ic, "📀 Your playlists", ps, err)
	case "playlists":
		u, _ := optStr(ic, "user")
		ps, err := r.catalog.UserPlaylists(ctx, u)
		return r.openPlaylists(ic, "📀 Playlists of "+u, ps, err)
	case "createplaylist":
		name, _ := optStr(ic, "name")
		pl, err := r.catalog.CreatePlaylist(ctx, name)
		if err != nil {
			return err
		}
		r.reply(ic, false, "✅ Playlist created.", playlistEmbed(pl))
		return nil
	}
	r.reply(ic, false, "Use `/spotify toptracks`, `recommendations`, `myplaylists`, `playlists`, `createplaylist` or `search`.")
	return nil
}

func (r *Router) openTracks(ic *discordgo.InteractionCreate, title string, ts []domain.Track, err error) error {
	if err != nil {
		return err
	}
	if len(ts) == 0 {
		return domain.ErrNotFound
	}
	items := make([]domain.ResultItem, 0, len(ts))
	for _, t := range ts {
		items = append(items, t)
	}
	return r.open(ic, viewSpec{
		kind:  viewTracks,
		title: title,
		items: items,
		paged: true,
		view:  &view{color: colorSpotify, footer: "Powered by Spotify"},
	})
}

func (r *Router) openPlaylists(ic *discordgo.InteractionCreate, title string, ps []domain.Playlist, err error) error {
	if err != nil {
		return err
	}
	if len(ps) == 0 {
		return domain.ErrNotFound
	}
	items := make([]domain.ResultItem, 0, len(ps))
	for _, p := range ps {
		items = append(items, p)
	}
	return r.open(ic, viewSpec{
		kind:  viewPlaylists,
		title: title,
		items: items,
		paged: true,
		view:  &view{color: colorSpotify, footer: "Powered by Spotify"},
	})
}

// ---------- guardados / varios ----------

func (r *Router) cmdSaved(ic *discordgo.InteractionCreate) error {
	ctx, cancel := withTimeout(commandTimeout)
	defer cancel()
	var kinds []domain.Kind
	if k, ok := optStr(ic, "kind"); ok && k != "" {
		kinds = append(kinds, domain.Kind(k))
	}
	saved, err := r.library.List(ctx, userID(ic), kinds...)
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		r.reply(ic, true, "💾 Nothing saved yet. Use the Save button on a result.")
		return nil
	}
	items := make([]domain.ResultItem, 0, len(saved))
	for _, s := range saved {
		items = append(items, s)
	}
	return r.open(ic, viewSpec{
		kind:   viewSaved,
		title:  "💾 Your saved results",
		items:  items,
		paged:  true,
		choose: true,
		view:   &view{color: colorDefault, placeholder: "Open one", ephemeral: true},
	})
}

func (r *Router) cmdAvatar(ic *discordgo.InteractionCreate) error {
	u, m, ok := optUser(ic, "user")
	if !ok {
		m = ic.Member
		if m != nil {
			u = m.User
		} else {
			u = ic.User
		}
	}
	if u == nil {
		return domain.ErrNotFound
	}
	name, url := u.DisplayName(), u.AvatarURL("1024")
	if m != nil {
		m.User = u
		name, url = m.DisplayName(), m.AvatarURL("1024")
	}
	r.reply(ic, false, "", &discordgo.MessageEmbed{
		Title: name,
		URL:   url,
		Color: colorDefault,
		Image: &discordgo.MessageEmbedImage{URL: url},
	})
	return nil
}

// cmdClear: Discord sólo deja borrar en bulk mensajes de menos de 14 días.
func (r *Router) cmdClear(ic *discordgo.InteractionCreate) error {
	if !r.requireAdminOrRoles(ic, true) {
		return nil
	}
	amount, _ := optInt(ic, "amount")
	if amount < 1 || amount > 100 {
		r.reply(ic, true, "⚠️ Amount must be between 1 and 100.")
		return nil
	}
	msgs, err := r.s.ChannelMessages(ic.ChannelID, amount, "", "", "")
	if err != nil {
		return err
	}
	ids := bulkDeletable(msgs, time.Now())
	switch len(ids) {
	case 0:
		r.reply(ic, true, "🧹 Nothing I can delete here (messages older than 14 days stay).")
		return nil
	case 1:
		err = r.s.ChannelMessageDelete(ic.ChannelID, ids[0])
	default:
		err = r.s.ChannelMessagesBulkDelete(ic.ChannelID, ids)
	}
	if err != nil {
		return err
	}
	r.reply(ic, true, fmt.Sprintf("🧹 Deleted %d messages.", len(ids)))
	return nil
}

const bulkDeleteMaxAge = 14*24*time.Hour - time.Minute

func bulkDeletable(msgs []*discordgo.Message, now time.Time) []string {
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m == nil || now.Sub(m.Timestamp) >= bulkDeleteMaxAge {
			continue
		}
		ids = append(ids, m.ID)
	}
	return ids
}

func (r *Router) cmdSettings(ic *discordgo.InteractionCreate) error {
	if !r.requireAdminOrRoles(ic, true) {
		return nil
	}
	ctx, cancel := withTimeout(commandTimeout)
	defer cancel()

	if sub, _ := subcmdName(ic); sub == "set" {
		var patch service.SettingsPatch
		if v, ok := optInt(ic, "max_queue"); ok {
			patch.MaxQueue = &v
		}
		if v, ok := optBool(ic, "announce"); ok {
			patch.Announce = &v
		}
		msg, err := r.settings.Update(ctx, ic.GuildID, patch)
		if err != nil {
			return err
		}
		r.reply(ic, true, "✅ Settings updated.\n"+msg)
		return nil
	}
	msg, err := r.settings.Show(ctx, ic.GuildID)
	if err != nil {
		return err
	}
	r.reply(ic, true, msg)
	return nil
}

func helpEmbed(cmds []*discordgo.ApplicationCommand) *discordgo.MessageEmbed {
	var b strings.Builder
	for _, c := range cmds {
		fmt.Fprintf(&b, "`/%s` %s\n", c.Name, c.Description)
		for _, o := range c.Options {
			if o.Type == discordgo.ApplicationCommandOptionSubCommand {
				fmt.Fprintf(&b, "  · `%s` %s\n", o.Name, o.Description)
			}
		}
	}
	return &discordgo.MessageEmbed{
		Title:       "🤖 Commands",
		Description: b.String(),
		Color:       colorDefault,
	}
}
