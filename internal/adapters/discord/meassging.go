package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// repliedError: el handler ya le respondió al usuario; sólo queda contarlo.
type repliedError struct{ error }

func (e repliedError) Unwrap() error { return e.error }

func restCode(err error) int {
	var re *discordgo.RESTError
	if errors.As(err, &re) && re.Message != nil {
		return re.Message.Code
	}
	return 0
}

func responseFlags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func (r *Router) sendEphemeral(ic *discordgo.InteractionCreate, msg string, embeds ...*discordgo.MessageEmbed) error {
	err := r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Embeds:  embeds,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		r.log.Warn("sendEphemeral", zap.Error(err))
	}
	return err
}

// deferReply: "pensando…" para trabajos >3s. Los públicos quedan visibles para el canal.
func (r *Router) deferReply(ic *discordgo.InteractionCreate, ephemeral bool) error {
	err := r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: responseFlags(ephemeral)},
	})
	if err != nil {
		r.log.Warn("deferReply", zap.Error(err))
	}
	return err
}

// followup manda el mensaje después del defer. Si todavía no hubo respuesta
// (webhook desconocido) cae a una respuesta directa.
func (r *Router) followup(ic *discordgo.InteractionCreate, ephemeral bool, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	params.Flags = responseFlags(ephemeral)
	if params.AllowedMentions == nil {
		params.AllowedMentions = &discordgo.MessageAllowedMentions{}
	}
	msg, err := r.s.FollowupMessageCreate(ic.Interaction, true, params)
	if err == nil {
		return msg, nil
	}
	if restCode(err) != discordgo.ErrCodeUnknownWebhook {
		r.log.Warn("followup", zap.Error(err))
		return nil, err
	}
	err = r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    params.Content,
			Embeds:     params.Embeds,
			Components: params.Components,
			Flags:      params.Flags,
		},
	})
	if err != nil {
		r.log.Warn("followup fallback", zap.Error(err))
		return nil, err
	}
	return r.s.InteractionResponse(ic.Interaction)
}

func (r *Router) replyEphemeral(ic *discordgo.InteractionCreate, content string, embeds ...*discordgo.MessageEmbed) {
	_, _ = r.followup(ic, true, &discordgo.WebhookParams{Content: content, Embeds: embeds})
}

// reply responde con la visibilidad con la que se hizo el defer.
func (r *Router) reply(ic *discordgo.InteractionCreate, ephemeral bool, content string, embeds ...*discordgo.MessageEmbed) {
	_, _ = r.followup(ic, ephemeral, &discordgo.WebhookParams{Content: content, Embeds: embeds})
}

// replyError: respuesta efímera de error, haya o no un ack previo.
func (r *Router) replyError(ic *discordgo.InteractionCreate, err error) {
	msg := userMessage(err)
	rerr := r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: msg, Flags: discordgo.MessageFlagsEphemeral},
	})
	if rerr == nil {
		return
	}
	if restCode(rerr) == discordgo.ErrCodeInteractionHasAlreadyBeenAcknowledged {
		r.replyEphemeral(ic, msg)
		return
	}
	r.log.Warn("replyError", zap.Error(rerr))
}

// updateMessage reemplaza el mensaje dueño del componente clickeado.
func (r *Router) updateMessage(ic *discordgo.InteractionCreate, embeds []*discordgo.MessageEmbed, comps []discordgo.MessageComponent) error {
	return r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     embeds,
			Components: comps,
		},
	})
}

// deferUpdate hace ack sin tocar el mensaje (click viejo o acción que refresca por otro lado).
func (r *Router) deferUpdate(ic *discordgo.InteractionCreate) error {
	return r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}
