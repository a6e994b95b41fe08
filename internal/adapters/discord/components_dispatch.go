package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/app/service"
	"github.com/jose-valero/nexus7-bot/internal/domain"
)

func (r *Router) handleMessageComponent(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.MessageComponentData()
	log := r.log.With(zap.String("custom_id", data.CustomID), zap.String("by", userID(ic)))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in component", zap.Any("panic", rec), zap.Stack("stack"))
			r.metrics.Interaction("component", "panic")
			r.replyError(ic, errors.New("panic"))
		}
	}()

	cid, err := parseCustomID(data.CustomID)
	if err == nil {
		switch cid.Prefix {
		case cidPage:
			err = r.onPage(ic, cid)
		case cidSelect:
			err = r.onSelect(ic, cid, data.Values)
		case cidSave:
			err = r.onSave(ic, cid)
		case cidPanel:
			err = r.onPanel(ic, cid)
		}
	} else {
		// botones de versiones viejas del bot: mismo trato que una sesión vencida
		err = domain.ErrExpired
	}

	r.metrics.Interaction("component", resultLabel(err))
	if err == nil {
		return
	}
	var done repliedError
	if errors.As(err, &done) {
		log.Debug("component failed after reply", zap.Error(err))
		return
	}
	log.Debug("component rejected", zap.Error(err))
	r.replyError(ic, err)
}

// onPage: la página en el custom_id es la que estaba renderizada; si ya cambió, el click llegó tarde
// (doble click) y sólo se hace ack, sin mover la página otra vez.
func (r *Router) onPage(ic *discordgo.InteractionCreate, cid customID) error {
	sess, release, err := r.sessions.Acquire(cid.SID, userID(ic))
	if err != nil {
		return err
	}
	defer release()
	v, ok := viewOf(sess)
	if !ok || sess.Pager == nil {
		return domain.ErrExpired
	}
	if sess.Pager.Current() != cid.Page {
		return r.deferUpdate(ic)
	}
	sess.Pager.Go(cid.Action)
	embeds, comps := r.renderView(ic.GuildID, sess, v)
	return r.updateMessage(ic, embeds, comps)
}

func (r *Router) onSelect(ic *discordgo.InteractionCreate, cid customID, values []string) error {
	if len(values) == 0 {
		return domain.ErrNotFound
	}
	sess, release, err := r.sessions.Acquire(cid.SID, userID(ic))
	if err != nil {
		return err
	}
	defer release()
	v, ok := viewOf(sess)
	if !ok || sess.Choice == nil {
		return domain.ErrExpired
	}
	it, err := sess.Choice.Select(values[0])
	if err != nil {
		return err
	}

	// en /saved elegir re-envía el resultado guardado; la lista queda igual
	if saved, ok := it.(domain.SavedItem); ok {
		orig, err := service.Decode(saved)
		if err != nil {
			return err
		}
		return r.sendEphemeral(ic, "", r.detail(ic.GuildID, orig))
	}

	embeds, comps := r.renderView(ic.GuildID, sess, v)
	return r.updateMessage(ic, embeds, comps)
}

// onSave: one-shot por item mostrado. Si falla el guardado se libera para reintentar.
func (r *Router) onSave(ic *discordgo.InteractionCreate, cid customID) error {
	uid := userID(ic)
	sess, release, err := r.sessions.Acquire(cid.SID, uid)
	if err != nil {
		return err
	}
	defer release()
	if sess.Choice == nil {
		return domain.ErrExpired
	}
	it, err := sess.Choice.Claim(cid.ItemID)
	if err != nil {
		return err
	}
	if err := r.deferReply(ic, true); err != nil {
		sess.Choice.Release(cid.ItemID)
		return err
	}

	ctx, cancel := withTimeout(componentTimeout)
	defer cancel()
	if _, err := r.library.Save(ctx, uid, it); err != nil {
		if !errors.Is(err, domain.ErrAlreadySaved) {
			sess.Choice.Release(cid.ItemID)
		}
		r.replyEphemeral(ic, userMessage(err))
		return repliedError{err}
	}

	if err := r.dm(uid, "💾 Saved from <#"+ic.ChannelID+">", r.detail(ic.GuildID, it)); err != nil {
		r.log.Debug("save dm failed", zap.String("user", uid), zap.Error(err))
		r.replyEphemeral(ic, "💾 Saved! I couldn't DM you a copy (are your DMs closed?). Use `/saved` to see it.")
		return nil
	}
	r.replyEphemeral(ic, "💾 Saved! I sent you a copy by DM. Use `/saved` to list everything.")
	return nil
}

func (r *Router) dm(userID, content string, embed *discordgo.MessageEmbed) error {
	ch, err := r.s.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = r.s.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	})
	return err
}

// onPanel: controles del panel "now playing". Los puede usar cualquiera que esté
// en el mismo canal de voz que el bot; el panel se repinta solo con el evento de playback.
func (r *Router) onPanel(ic *discordgo.InteractionCreate, cid customID) error {
	uid := userID(ic)
	if !r.clickLimiter.Allow(uid) {
		return r.sendEphemeral(ic, "⏳ Wait a second…")
	}
	snap := r.music.Snapshot(ic.GuildID)
	if !snap.Connected {
		return domain.ErrNotConnected
	}
	if r.voiceChannelOf(ic.GuildID, uid) != snap.ChannelID {
		return domain.ErrNoVoice
	}

	var fn func(context.Context, string) error
	switch cid.Panel {
	case "pause":
		fn = r.music.Pause
	case "resume":
		fn = r.music.Resume
	case "skip":
		fn = r.music.Skip
	case "leave":
		fn = r.music.Leave
	default:
		return domain.ErrExpired
	}
	if err := r.deferUpdate(ic); err != nil {
		return err
	}

	ctx, cancel := withTimeout(componentTimeout)
	defer cancel()
	if err := fn(ctx, ic.GuildID); err != nil {
		r.replyEphemeral(ic, userMessage(err))
		return repliedError{err}
	}
	return nil
}
