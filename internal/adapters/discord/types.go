package discord

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/domain"
	"github.com/jose-valero/nexus7-bot/internal/infra/storage"
)

// Tipos de vista interactiva (session.Session.Kind).
const (
	viewTracks    = "tracks"
	viewPlaylists = "playlists"
	viewQueue     = "queue"
	viewBooks     = "books"
	viewRLStats   = "rlstats"
	viewSaved     = "saved"
)

// view es lo que guardamos en session.Session.Handle: cómo re-renderizar el mensaje
// y dónde está, para desactivar los controles cuando expira.
type view struct {
	color       int
	footer      string
	placeholder string
	header      *discordgo.MessageEmbed // rlstats: stats lifetime arriba del detalle

	ephemeral   bool
	interaction *discordgo.Interaction
	ref         atomic.Pointer[viewRef] // se completa cuando el mensaje ya existe
}

type viewRef struct {
	ChannelID string
	MessageID string
}

// queueItem adapta una entrada de la cola a ResultItem para paginarla.
type queueItem struct {
	pos   int
	entry playback.Entry
	state queueState
}

type queueState int

const (
	queuePlayed queueState = iota
	queueCurrent
	queueUpcoming
)

func (q queueItem) ItemID() string    { return strconv.Itoa(q.pos) }
func (q queueItem) Label() string     { return q.entry.Video.Title }
func (q queueItem) Kind() domain.Kind { return domain.KindVideo }

func (q queueItem) marker() string {
	switch q.state {
	case queueCurrent:
		return "▶️"
	case queuePlayed:
		return "✔️"
	}
	return "⏳"
}

// queueItems arma la vista de /queue: lo ya sonado, el actual y lo pendiente, en orden.
func queueItems(snap playback.Snapshot) []domain.ResultItem {
	out := make([]domain.ResultItem, 0, len(snap.Queue))
	_, playing := snap.Current()
	for i, e := range snap.Queue {
		st := queueUpcoming
		switch {
		case i < snap.Cursor:
			st = queuePlayed
		case i == snap.Cursor && playing:
			st = queueCurrent
		}
		out = append(out, queueItem{pos: i + 1, entry: e, state: st})
	}
	return out
}

// PanelRepo persiste dónde está publicado el panel de cada guild.
type PanelRepo interface {
	Get(ctx context.Context, guildID string) (storage.PlaybackPanel, error)
	Upsert(ctx context.Context, guildID, channelID, messageID string) error
	Delete(ctx context.Context, guildID string) error
}

// AnnounceSettings: si el guild quiere avisos de "now playing" en el canal de texto.
type AnnounceSettings interface {
	Get(ctx context.Context, guildID string) (storage.GuildSettings, error)
}

type Metrics interface {
	Interaction(kind, result string)
}

type nopMetrics struct{}

func (nopMetrics) Interaction(string, string) {}
