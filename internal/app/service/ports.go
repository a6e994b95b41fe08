package service

import (
	"context"
	"time"

	"github.com/jose-valero/nexus7-bot/internal/domain"
	"github.com/jose-valero/nexus7-bot/internal/infra/storage"
)

// Lo implementan los clientes de internal/adapters/upstream
type WeatherAPI interface {
	Current(ctx context.Context, city string) (domain.Weather, error)
}

type BooksAPI interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Book, error)
}

type StatsAPI interface {
	Player(ctx context.Context, nametag string) (domain.GamePlayer, error)
}

type VideoSearch interface {
	SearchIDs(ctx context.Context, query string, limit int) ([]string, error)
}

// Lo implementa internal/adapters/audio.YtDlp
type Resolver interface {
	Resolve(ctx context.Context, url string) (domain.Video, error)
}

// Lo implementa internal/adapters/spotify.Client
type SpotifyAPI interface {
	TopTracks(ctx context.Context, limit int) ([]domain.Track, error)
	Recommendations(ctx context.Context, limit int) ([]domain.Track, error)
	MyPlaylists(ctx context.Context, limit int) ([]domain.Playlist, error)
	UserPlaylists(ctx context.Context, userID string, limit int) ([]domain.Playlist, error)
	CreatePlaylist(ctx context.Context, name string) (domain.Playlist, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error)
}

// Lo implementa internal/infra/storage.SavedRepo
type SavedRepo interface {
	Save(ctx context.Context, it domain.SavedItem) error
	List(ctx context.Context, userID string, kinds []domain.Kind, limit int) ([]domain.SavedItem, error)
	Get(ctx context.Context, userID string, kind domain.Kind, key string) (domain.SavedItem, error)
	Delete(ctx context.Context, userID string, kind domain.Kind, key string) (bool, error)
}

// Lo implementa internal/infra/storage.HistoryRepo
type HistoryRepo interface {
	Record(ctx context.Context, h storage.HistoryEntry) error
	Recent(ctx context.Context, guildID string, limit int) ([]storage.HistoryEntry, error)
}

// Lo implementa internal/infra/storage.SettingsRepo
type SettingsRepo interface {
	Get(ctx context.Context, guildID string) (storage.GuildSettings, error)
	Update(ctx context.Context, guildID string, u storage.GuildSettingsUpdate) (storage.GuildSettings, error)
}

// Lo implementa internal/infra/metrics.Metrics (nil = sin métricas)
type FetchMetrics interface {
	ObserveFetch(source string, start time.Time, err error)
	CacheHit(source string)
}
