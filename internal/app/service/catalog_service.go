package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

const (
	DefaultCacheSize = 512
	DefaultLimit     = 5

	// Spotify devuelve hasta 50 por página; el paginado lo hacemos nosotros.
	spotifyLimit = 50
)

var ErrSpotifyDisabled = errors.New("spotify is not configured")

// CatalogService envuelve los upstreams con cache TTL, coalescing y métricas.
type CatalogService struct {
	weather WeatherAPI
	books   BooksAPI
	stats   StatsAPI
	spotify SpotifyAPI

	cache   *expirable.LRU[string, any]
	group   singleflight.Group
	metrics FetchMetrics
}

type CatalogDeps struct {
	Weather WeatherAPI
	Books   BooksAPI
	Stats   StatsAPI
	Spotify SpotifyAPI // nil si no hay credenciales
	Metrics FetchMetrics
}

func NewCatalogService(d CatalogDeps, ttl time.Duration) *CatalogService {
	m := d.Metrics
	if m == nil {
		m = nopMetrics{}
	}
	return &CatalogService{
		weather: d.Weather,
		books:   d.Books,
		stats:   d.Stats,
		spotify: d.Spotify,
		cache:   expirable.NewLRU[string, any](DefaultCacheSize, nil, ttl),
		metrics: m,
	}
}

func (s *CatalogService) Weather(ctx context.Context, city string) (domain.Weather, error) {
	return cached(ctx, s, "weather", norm(city), func(ctx context.Context) (domain.Weather, error) {
		return s.weather.Current(ctx, strings.TrimSpace(city))
	})
}

// Books: primeros DefaultLimit resultados, orden del upstream.
func (s *CatalogService) Books(ctx context.Context, query string) ([]domain.Book, error) {
	return cached(ctx, s, "books", norm(query), func(ctx context.Context) ([]domain.Book, error) {
		return s.books.Search(ctx, strings.TrimSpace(query), DefaultLimit)
	})
}

func (s *CatalogService) Player(ctx context.Context, nametag string) (domain.GamePlayer, error) {
	return cached(ctx, s, "rlstats", norm(nametag), func(ctx context.Context) (domain.GamePlayer, error) {
		return s.stats.Player(ctx, strings.TrimSpace(nametag))
	})
}

func (s *CatalogService) SpotifyEnabled() bool { return s.spotify != nil }

func (s *CatalogService) TopTracks(ctx context.Context) ([]domain.Track, error) {
	if s.spotify == nil {
		return nil, ErrSpotifyDisabled
	}
	return cached(ctx, s, "spotify", "top", func(ctx context.Context) ([]domain.Track, error) {
		return s.spotify.TopTracks(ctx, spotifyLimit)
	})
}

// Recommendations no se cachea: cada pedido debería traer algo distinto.
func (s *CatalogService) Recommendations(ctx context.Context) ([]domain.Track, error) {
	if s.spotify == nil {
		return nil, ErrSpotifyDisabled
	}
	return observed(ctx, s, "spotify", func(ctx context.Context) ([]domain.Track, error) {
		return s.spotify.Recommendations(ctx, spotifyLimit)
	})
}

func (s *CatalogService) MyPlaylists(ctx context.Context) ([]domain.Playlist, error) {
	if s.spotify == nil {
		return nil, ErrSpotifyDisabled
	}
	return cached(ctx, s, "spotify", "mine", func(ctx context.Context) ([]domain.Playlist, error) {
		return s.spotify.MyPlaylists(ctx, spotifyLimit)
	})
}

func (s *CatalogService) UserPlaylists(ctx context.Context, userID string) ([]domain.Playlist, error) {
	if s.spotify == nil {
		return nil, ErrSpotifyDisabled
	}
	return cached(ctx, s, "spotify", "user:"+norm(userID), func(ctx context.Context) ([]domain.Playlist, error) {
		return s.spotify.UserPlaylists(ctx, strings.TrimSpace(userID), spotifyLimit)
	})
}

func (s *CatalogService) CreatePlaylist(ctx context.Context, name string) (domain.Playlist, error) {
	if s.spotify == nil {
		return domain.Playlist{}, ErrSpotifyDisabled
	}
	pl, err := observed(ctx, s, "spotify", func(ctx context.Context) (domain.Playlist, error) {
		return s.spotify.CreatePlaylist(ctx, strings.TrimSpace(name))
	})
	if err == nil {
		s.cache.Remove("spotify|mine")
	}
	return pl, err
}

func (s *CatalogService) SearchTracks(ctx context.Context, query string) ([]domain.Track, error) {
	if s.spotify == nil {
		return nil, ErrSpotifyDisabled
	}
	return cached(ctx, s, "spotify", "search:"+norm(query), func(ctx context.Context) ([]domain.Track, error) {
		return s.spotify.SearchTracks(ctx, strings.TrimSpace(query), spotifyLimit)
	})
}

// cached: cache -> singleflight -> upstream. Los NotFound no se cachean.
func cached[T any](ctx context.Context, s *CatalogService, source, key string, fn func(context.Context) (T, error)) (T, error) {
	ck := source + "|" + key
	if v, ok := s.cache.Get(ck); ok {
		if out, ok := v.(T); ok {
			s.metrics.CacheHit(source)
			return out, nil
		}
	}
	v, err, _ := s.group.Do(ck, func() (any, error) {
		start := time.Now()
		out, err := fn(ctx)
		s.metrics.ObserveFetch(source, start, err)
		if err != nil {
			return nil, err
		}
		s.cache.Add(ck, out)
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, wrapFetch(source, err)
	}
	return v.(T), nil
}

func observed[T any](ctx context.Context, s *CatalogService, source string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	out, err := fn(ctx)
	s.metrics.ObserveFetch(source, start, err)
	if err != nil {
		var zero T
		return zero, wrapFetch(source, err)
	}
	return out, nil
}

// wrapFetch deja pasar NotFound tal cual; todo lo demás es FetchError.
func wrapFetch(source string, err error) error {
	var fe *domain.FetchError
	if errors.Is(err, domain.ErrNotFound) || errors.As(err, &fe) {
		return err
	}
	return &domain.FetchError{Source: source, Err: err}
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

type nopMetrics struct{}

func (nopMetrics) ObserveFetch(string, time.Time, error) {}
func (nopMetrics) CacheHit(string)                       {}
