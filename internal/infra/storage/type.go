package storage

import "time"

type HistoryEntry struct {
	ID          int64     `json:"id"`
	GuildID     string    `json:"guild_id"`
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	PageURL     string    `json:"page_url,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

type GuildSettings struct {
	GuildID              string
	MaxQueue             int  // 0 = sin límite
	Announce             bool // publicar "Now playing" al arrancar cada track
	CreatedAt, UpdatedAt time.Time
}

// Para updates parciales desde /settings set
type GuildSettingsUpdate struct {
	MaxQueue *int
	Announce *bool
}

type PlaybackPanel struct {
	GuildID   string
	ChannelID string
	MessageID string
	CreatedAt time.Time
	UpdatedAt time.Time
}
