package httpstatus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/infra/storage"
)

const (
	defaultHistory = 20
	maxHistory     = 100
)

// Players es lo que el server lee del estado de reproducción (*playback.Manager).
type Players interface {
	Snapshots() []playback.Snapshot
}

// History lo implementa service.HistoryRecorder.
type History interface {
	Recent(ctx context.Context, guildID string, limit int) ([]storage.HistoryEntry, error)
}

type Server struct {
	players  Players
	history  History
	gatherer prometheus.Gatherer
	log      *zap.Logger
	mux      *http.ServeMux
	started  time.Time
}

func New(players Players, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{players: players, gatherer: gatherer, log: log, mux: http.NewServeMux(), started: time.Now()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /guilds", s.handleGuilds)
	s.mux.HandleFunc("GET /guilds/{id}/playback", s.handlePlayback)
	s.mux.HandleFunc("GET /guilds/{id}/history", s.handleHistory)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// WithHistory habilita /guilds/{id}/history (sin esto responde 404).
func (s *Server) WithHistory(h History) *Server {
	s.history = h
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// handleGuilds resume los guilds con sesión de reproducción (sin la cola completa).
func (s *Server) handleGuilds(w http.ResponseWriter, _ *http.Request) {
	type summary struct {
		GuildID   string          `json:"guild_id"`
		Status    playback.Status `json:"status"`
		Pending   int             `json:"pending"`
		Connected bool            `json:"connected"`
	}
	snaps := s.players.Snapshots()
	out := make([]summary, 0, len(snaps))
	for _, sn := range snaps {
		out = append(out, summary{GuildID: sn.GuildID, Status: sn.Status, Pending: sn.Pending(), Connected: sn.Connected})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	for _, sn := range s.players.Snapshots() {
		if sn.GuildID == id {
			writeJSON(w, http.StatusOK, sn)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "no playback session for guild"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.NotFound(w, r)
		return
	}
	limit := defaultHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistory)
	}
	out, err := s.history.Recent(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.log.Error("history lookup", zap.String("guild", r.PathValue("id")), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	if out == nil {
		out = []storage.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Run sirve hasta que ctx se cancela y después apaga con un margen de 5s.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("🌐 HTTP listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown)
}
