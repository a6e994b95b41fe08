package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jose-valero/nexus7-bot/internal/adapters/audio"
	discordrouter "github.com/jose-valero/nexus7-bot/internal/adapters/discord"
	"github.com/jose-valero/nexus7-bot/internal/adapters/httpstatus"
	"github.com/jose-valero/nexus7-bot/internal/adapters/spotify"
	"github.com/jose-valero/nexus7-bot/internal/adapters/upstream"
	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/app/service"
	"github.com/jose-valero/nexus7-bot/internal/app/session"
	"github.com/jose-valero/nexus7-bot/internal/infra/config"
	"github.com/jose-valero/nexus7-bot/internal/infra/logging"
	"github.com/jose-valero/nexus7-bot/internal/infra/metrics"
	"github.com/jose-valero/nexus7-bot/internal/infra/storage"
)

const (
	sweepEvery      = 30 * time.Second
	shutdownGrace   = 5 * time.Second
	upstreamTimeout = 10 * time.Second
)

func runCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the gateway and serve interactions (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.run(ctx)
		},
	}
}

func (a *app) run(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	// DB
	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	// Repos
	savedRepo := storage.NewSavedRepo(db)
	historyRepo := storage.NewHistoryRepo(db)
	settingsRepo := storage.NewSettingsRepo(db)
	panelRepo := storage.NewPanelRepo(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNew(reg)

	// Discord session (antes de voice/panels, que la necesitan)
	dg, err := newDiscord(cfg)
	if err != nil {
		return err
	}

	// Services
	catalog := newCatalog(ctx, cfg, m)
	library := service.NewLibraryService(savedRepo)
	settings := service.NewSettingsService(settingsRepo)
	history := service.NewHistoryRecorder(historyRepo, logging.Module(log, "history"))

	panels := discordrouter.NewPanels(dg, panelRepo, settings, logging.Module(log, "panels"))
	voice := audio.NewVoice(dg, audio.Transcoder{Path: cfg.FFmpegPath, Preset: audio.DefaultPreset}, logging.Module(log, "voice"))
	players := playback.NewManager(voice, audio.NewPresence(dg), playback.Observers{m, history, panels}, logging.Module(log, "playback"))

	youtube := upstream.NewYouTube(upstream.New("youtube", cfg.YouTubeSearchURL, upstream.WithHTTPClient(upstreamHTTP), upstream.WithBrowserUA()))
	music := service.NewMusicService(youtube, audio.NewYtDlp(cfg.YtDlpPath, logging.Module(log, "ytdlp")), players, settingsRepo, logging.Module(log, "music"))

	// El store avisa al router cuando una vista expira; el router se crea después.
	var router *discordrouter.Router
	sessions, err := session.NewStore(cfg.SessionTTL, session.OnExpire(func(s *session.Session) {
		if router != nil {
			router.OnExpire(s)
		}
	}))
	if err != nil {
		return err
	}

	router = discordrouter.NewRouter(dg, discordrouter.Deps{
		Catalog:  catalog,
		Music:    music,
		Library:  library,
		Settings: settings,
		Sessions: sessions,
		Panels:   panels,
		Metrics:  m,
	}, routerOptions(cfg), logging.Module(log, "router"))
	router.Handlers()

	m.Gauge("session", "active", "Live interactive result views.", func() float64 { return float64(sessions.Len()) })
	m.Gauge("playback", "guilds_playing", "Guilds currently streaming audio.", func() float64 {
		n := 0
		for _, sn := range players.Snapshots() {
			if sn.Playing() {
				n++
			}
		}
		return float64(n)
	})

	if err := dg.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	log.Info("✅ Conectado", zap.String("user", dg.State.User.Username), zap.String("id", dg.State.User.ID))

	if err := router.Register(); err != nil {
		_ = dg.Close()
		return fmt.Errorf("registrando comandos: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpstatus.New(players, reg, logging.Module(log, "http")).WithHistory(history).Run(gctx, cfg.HTTPAddr)
	})
	g.Go(func() error { return history.Run(gctx) })
	g.Go(func() error {
		t := time.NewTicker(sweepEvery)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				if n := sessions.Sweep(); n > 0 {
					log.Debug("sessions swept", zap.Int("expired", n))
				}
			}
		}
	})

	<-gctx.Done()
	log.Info("👋 apagando")

	// Primero soltamos voz y paneles; después cerramos el gateway.
	done := make(chan struct{})
	go func() {
		players.Close()
		panels.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		log.Warn("playback shutdown timed out")
	}
	if err := dg.Close(); err != nil {
		log.Warn("discord close", zap.Error(err))
	}
	return g.Wait()
}

func openDB(ctx context.Context, cfg config.Config, log *zap.Logger) (*sql.DB, error) {
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	version, err := storage.Migrate(ctx, db, logging.Module(log, "storage"))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("✅ DB lista", zap.Int64("schema_version", version))
	return db, nil
}

func newDiscord(cfg config.Config) (*discordgo.Session, error) {
	auth := strings.TrimSpace(cfg.DiscordToken)
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	s, err := discordgo.New(auth)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildEmojis
	return s, nil
}

// upstreamHTTP: un solo pool de conexiones para todas las APIs.
var upstreamHTTP = &http.Client{Timeout: upstreamTimeout}

// newCatalog arma los upstreams; Spotify queda nil sin credenciales y /spotify no se registra.
func newCatalog(ctx context.Context, cfg config.Config, m *metrics.Metrics) *service.CatalogService {
	var sp service.SpotifyAPI
	if cfg.SpotifyEnabled() {
		sp = spotify.New(spotify.NewAPI(ctx, cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRefreshToken))
	}
	hc := upstream.WithHTTPClient(upstreamHTTP)
	return service.NewCatalogService(service.CatalogDeps{
		Weather: upstream.NewWeather(upstream.New("weather", cfg.WeatherEndpoint, hc), cfg.WeatherToken),
		Books:   upstream.NewBooks(upstream.New("books", cfg.BooksEndpoint, hc)),
		Stats:   upstream.NewStats(upstream.New("rlstats", cfg.RLStatsEndpoint, hc, upstream.WithBrowserUA())),
		Spotify: sp,
		Metrics: m,
	}, cfg.CacheTTL)
}

func routerOptions(cfg config.Config) discordrouter.Options {
	return discordrouter.Options{
		GuildID:        cfg.DiscordGuild,
		AdminRoleIDs:   cfg.AdminRoleIDs,
		SpotifyOwnerID: cfg.SpotifyOwnerID,
		ReactWords:     cfg.ReactWords,
		PageSize:       cfg.PageSize,
	}
}
