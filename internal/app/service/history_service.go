package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/infra/storage"
)

const historyBuffer = 64

// HistoryRecorder guarda en playback_history cada track que arranca.
// Es un playback.Observer: PlaybackEvent sólo encola, Run escribe.
type HistoryRecorder struct {
	repo HistoryRepo
	ch   chan storage.HistoryEntry
	log  *zap.Logger
	now  func() time.Time
}

func NewHistoryRecorder(repo HistoryRepo, log *zap.Logger) *HistoryRecorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &HistoryRecorder{
		repo: repo,
		ch:   make(chan storage.HistoryEntry, historyBuffer),
		log:  log,
		now:  time.Now,
	}
}

func (h *HistoryRecorder) PlaybackEvent(ev playback.Event) {
	if ev.Kind != playback.EventStarted || ev.Entry == nil {
		return
	}
	e := storage.HistoryEntry{
		GuildID:     ev.Snapshot.GuildID,
		VideoID:     ev.Entry.Video.ID,
		Title:       ev.Entry.Video.Title,
		PageURL:     ev.Entry.Video.PageURL,
		RequestedBy: ev.Entry.RequestedBy,
		StartedAt:   h.now(),
	}
	select {
	case h.ch <- e:
	default:
		h.log.Warn("history buffer full, dropping entry", zap.String("guild", e.GuildID), zap.String("video", e.VideoID))
	}
}

// Run escribe hasta que ctx se cancele; lo pendiente en el buffer se intenta guardar igual.
func (h *HistoryRecorder) Run(ctx context.Context) error {
	for {
		select {
		case e := <-h.ch:
			h.record(ctx, e)
		case <-ctx.Done():
			h.drain()
			return nil
		}
	}
}

func (h *HistoryRecorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		select {
		case e := <-h.ch:
			h.record(ctx, e)
		default:
			return
		}
	}
}

func (h *HistoryRecorder) record(ctx context.Context, e storage.HistoryEntry) {
	if err := h.repo.Record(ctx, e); err != nil {
		h.log.Warn("history record failed", zap.String("guild", e.GuildID), zap.Error(err))
	}
}

func (h *HistoryRecorder) Recent(ctx context.Context, guildID string, limit int) ([]storage.HistoryEntry, error) {
	return h.repo.Recent(ctx, guildID, limit)
}
