package playback

import (
	"time"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

type Status int

const (
	Idle Status = iota
	Connecting
	Playing
	Paused
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "idle"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Entry: un video pedido para un canal de voz.
type Entry struct {
	Video         domain.Video `json:"video"`
	ChannelID     string       `json:"channel_id"`
	TextChannelID string       `json:"text_channel_id,omitempty"`
	RequestedBy   string       `json:"requested_by"`
}

// Snapshot es una copia inmutable del estado de un guild.
type Snapshot struct {
	GuildID   string    `json:"guild_id"`
	Status    Status    `json:"status"`
	Queue     []Entry   `json:"queue"`
	Cursor    int       `json:"cursor"`
	ChannelID string    `json:"channel_id,omitempty"`
	Connected bool      `json:"connected"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Snapshot) Playing() bool { return s.Status == Playing }
func (s Snapshot) Paused() bool  { return s.Status == Paused }

func (s Snapshot) Current() (Entry, bool) {
	if (s.Status != Playing && s.Status != Paused) || s.Cursor >= len(s.Queue) {
		return Entry{}, false
	}
	return s.Queue[s.Cursor], true
}

// Upcoming: lo que falta sonar después del actual.
func (s Snapshot) Upcoming() []Entry {
	from := s.Cursor
	if _, ok := s.Current(); ok {
		from++
	}
	if from >= len(s.Queue) {
		return nil
	}
	return s.Queue[from:]
}

func (s Snapshot) History() []Entry {
	if s.Cursor > len(s.Queue) {
		return s.Queue
	}
	return s.Queue[:s.Cursor]
}

// Pending cuenta las entradas que aún no terminaron (incluye la actual).
func (s Snapshot) Pending() int {
	if s.Cursor >= len(s.Queue) {
		return 0
	}
	return len(s.Queue) - s.Cursor
}
