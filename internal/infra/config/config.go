package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DiscordToken string
	DiscordGuild string // scope de registro de comandos ("" = global)
	DatabaseURL  string
	HTTPAddr     string // opcional, default :8080

	LogLevel  string
	LogFormat string // json | console

	WeatherToken     string
	WeatherEndpoint  string
	BooksEndpoint    string
	RLStatsEndpoint  string
	YouTubeSearchURL string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRefreshToken string
	SpotifyOwnerID      string // único usuario de discord habilitado para /spotify

	AdminRoleIDs []string
	ReactWords   []string

	PageSize   int
	SessionTTL time.Duration
	CacheTTL   time.Duration

	YtDlpPath  string
	FFmpegPath string
}

// Load lee el entorno del proceso (el .env ya lo cargó godotenv en main).
func Load() (Config, error) {
	cfg, err := Parse(os.Getenv)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func Parse(getenv func(string) string) (Config, error) {
	var missing []string
	get := func(k string, req bool) string {
		v := strings.TrimSpace(getenv(k))
		if v == "" && req {
			missing = append(missing, k)
		}
		return v
	}
	def := func(k, fallback string) string {
		if v := get(k, false); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		DiscordToken: get("DISCORD_BOT_TOKEN", true),
		DiscordGuild: get("DISCORD_GUILD_ID", false),
		DatabaseURL:  get("DATABASE_URL", true),
		HTTPAddr:     def("HTTP_ADDR", ":8080"),

		LogLevel:  def("LOG_LEVEL", "info"),
		LogFormat: def("LOG_FORMAT", "json"),

		WeatherToken:     get("WEATHER_TOKEN", false),
		WeatherEndpoint:  def("WEATHER_ENDPOINT", "https://api.openweathermap.org/data/2.5/weather"),
		BooksEndpoint:    def("GOOGLE_BOOKS_ENDPOINT", "https://www.googleapis.com/books/v1/volumes"),
		RLStatsEndpoint:  def("ROCKET_LEAGUE_ENDPOINT", "https://api.tracker.gg/api/v2/rocket-league/standard/profile/epic/"),
		YouTubeSearchURL: def("YOUTUBE_SEARCH_ENDPOINT", "https://www.youtube.com/results"),

		SpotifyClientID:     get("SPOTIFY_CLIENT_ID", false),
		SpotifyClientSecret: get("SPOTIFY_CLIENT_SECRET", false),
		SpotifyRefreshToken: get("SPOTIFY_REFRESH_TOKEN", false),
		SpotifyOwnerID:      get("SPOTIFY_OWNER_ID", false),

		AdminRoleIDs: csv(get("ADMIN_ROLE_IDS", false)),
		ReactWords:   csv(strings.ToLower(get("REACT_WORDS", false))),

		YtDlpPath:  def("YTDLP_PATH", "yt-dlp"),
		FFmpegPath: def("FFMPEG_PATH", "ffmpeg"),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("faltante env %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.PageSize, err = intVar(getenv, "PAGE_SIZE", 5); err != nil {
		return Config{}, err
	}
	if cfg.PageSize < 1 || cfg.PageSize > 25 {
		return Config{}, fmt.Errorf("PAGE_SIZE fuera de rango (1..25): %d", cfg.PageSize)
	}
	if cfg.SessionTTL, err = durVar(getenv, "SESSION_TTL", 180*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = durVar(getenv, "CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT inválido: %q", cfg.LogFormat)
	}
	return cfg, nil
}

// SpotifyEnabled: sin las tres credenciales no se registra /spotify.
func (c Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != "" && c.SpotifyRefreshToken != ""
}

func csv(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intVar(getenv func(string) string, k string, fallback int) (int, error) {
	v := strings.TrimSpace(getenv(k))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

// durVar acepta "90s", "3m" o segundos pelados.
func durVar(getenv func(string) string, k string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(k))
	if v == "" {
		return fallback, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
