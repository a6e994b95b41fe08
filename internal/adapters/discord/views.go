package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/nexus7-bot/internal/app/pager"
	"github.com/jose-valero/nexus7-bot/internal/app/selection"
	"github.com/jose-valero/nexus7-bot/internal/app/session"
	"github.com/jose-valero/nexus7-bot/internal/domain"
)

// viewSpec describe una vista nueva antes de abrir su sesión.
type viewSpec struct {
	kind    string
	title   string
	items   []domain.ResultItem
	paged   bool // con paginado (si no, lista de selección + detalle)
	choose  bool // con select menu
	content string
	view    *view
}

// open registra la sesión y manda el primer render como followup del defer.
// La sesión queda tomada hasta que el mensaje existe, así nadie clickea un mensaje a medio crear.
func (r *Router) open(ic *discordgo.InteractionCreate, vs viewSpec) error {
	v := vs.view
	v.interaction = ic.Interaction

	sess := &session.Session{
		UserID:    userID(ic),
		ChannelID: ic.ChannelID,
		Kind:      vs.kind,
		Title:     vs.title,
		Handle:    v,
	}
	if vs.paged {
		sess.Pager = pager.New(vs.items, r.opts.PageSize)
	}
	if vs.choose {
		sess.Choice = selection.New(vs.items)
	}
	sess = r.sessions.Open(sess)

	s, release, err := r.sessions.Acquire(sess.ID, sess.UserID)
	if err != nil {
		return err
	}
	defer release()

	embeds, comps := r.renderView(ic.GuildID, s, v)
	msg, err := r.followup(ic, v.ephemeral, &discordgo.WebhookParams{
		Content:    vs.content,
		Embeds:     embeds,
		Components: comps,
	})
	if err != nil {
		r.sessions.Close(s.ID)
		return repliedError{err}
	}
	v.ref.Store(&viewRef{ChannelID: msg.ChannelID, MessageID: msg.ID})
	return nil
}

// renderView arma embeds y componentes a partir del estado actual de la sesión.
func (r *Router) renderView(guildID string, sess *session.Session, v *view) ([]*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	var (
		embeds []*discordgo.MessageEmbed
		comps  []discordgo.MessageComponent
	)

	if sess.Pager != nil {
		page := sess.Pager.Render()
		embeds = append(embeds, pageEmbed(sess.Title, v.color, page, v.footer))
		if sess.Choice != nil {
			if row, ok := selectRow(sess.ID, v.placeholder, page.Items, ""); ok {
				comps = append(comps, row)
			}
		}
		comps = append(comps, pagerRow(sess.ID, page))
		return embeds, comps
	}

	if v.header != nil {
		embeds = append(embeds, v.header)
	}
	if sess.Choice == nil {
		return embeds, nil
	}
	sel, selected := sess.Choice.Selected()
	selID := ""
	if selected {
		selID = sel.ItemID()
		embeds = append(embeds, r.detail(guildID, sel))
	}
	if len(embeds) == 0 {
		embeds = append(embeds, &discordgo.MessageEmbed{
			Title:       sess.Title,
			Description: "Pick one from the list below.",
			Color:       v.color,
		})
	}
	if row, ok := selectRow(sess.ID, v.placeholder, sess.Choice.Items(), selID); ok {
		comps = append(comps, row)
	}
	if selected {
		if row := saveRow(sess.ID, selID, false); row != nil {
			comps = append(comps, *row)
		}
	}
	return embeds, comps
}

// detail agrega el badge del guild a los rangos de Rocket League.
func (r *Router) detail(guildID string, it domain.ResultItem) *discordgo.MessageEmbed {
	if g, ok := it.(domain.GameStatBlock); ok {
		return statEmbed(g, r.guildBadge(guildID, g.Tier))
	}
	return detailEmbed(it)
}

func viewOf(sess *session.Session) (*view, bool) {
	v, ok := sess.Handle.(*view)
	return v, ok
}
