package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

func (r *Router) safeGetChannel(id string) (*discordgo.Channel, error) {
	if ch, err := r.s.State.Channel(id); err == nil && ch != nil {
		return ch, nil
	}
	ch, err := r.s.Channel(id)
	if err != nil {
		return nil, err
	}
	_ = r.s.State.ChannelAdd(ch)
	return ch, nil
}

// voiceChannelOf: canal de voz actual del usuario según el cache del gateway ("" si no está).
func (r *Router) voiceChannelOf(guildID, userID string) string {
	vs, err := r.s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}

// onVoiceStateUpdate: cualquier movimiento puede dejar al bot solo en su canal.
func (r *Router) onVoiceStateUpdate(_ *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs.GuildID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.music.VoiceStateChanged(ctx, vs.GuildID)
}
