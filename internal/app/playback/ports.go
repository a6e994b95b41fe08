package playback

import (
	"context"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

// Voice abre conexiones de voz. Lo implementa internal/adapters/audio.
type Voice interface {
	Connect(ctx context.Context, guildID, channelID string) (Conn, error)
}

type Conn interface {
	ChannelID() string
	Move(ctx context.Context, channelID string) error
	// Play arranca el stream; ctx sólo acota el arranque, no la vida del stream.
	Play(ctx context.Context, v domain.Video) (Stream, error)
	Disconnect(ctx context.Context) error
}

type Stream interface {
	Pause()
	Resume()
	Stop()
	// Done entrega el resultado una sola vez (nil = terminó solo) o se cierra.
	Done() <-chan error
}

// Presence responde cuántos humanos quedan en el canal de voz del bot.
// inVoice=false si el bot ya no está conectado en ese guild.
type Presence interface {
	Occupants(guildID string) (n int, inVoice bool)
}

type EventKind string

const (
	EventQueued   EventKind = "queued"
	EventStarted  EventKind = "started"
	EventPaused   EventKind = "paused"
	EventResumed  EventKind = "resumed"
	EventFinished EventKind = "finished"
	EventFailed   EventKind = "failed"
	EventLeft     EventKind = "left"
)

type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Entry    *Entry
	Err      error
}

// Observer recibe eventos desde el loop del guild: no debe bloquear.
type Observer interface {
	PlaybackEvent(ev Event)
}

// Observers reparte un evento a varios observers.
type Observers []Observer

func (obs Observers) PlaybackEvent(ev Event) {
	for _, o := range obs {
		if o != nil {
			o.PlaybackEvent(ev)
		}
	}
}

type nopObserver struct{}

func (nopObserver) PlaybackEvent(Event) {}
