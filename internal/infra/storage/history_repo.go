package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type HistoryRepo struct{ db *sql.DB }

func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

func (r *HistoryRepo) Record(ctx context.Context, h HistoryEntry) error {
	if h.StartedAt.IsZero() {
		h.StartedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO playback_history (guild_id, video_id, title, page_url, requested_by, started_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, h.GuildID, h.VideoID, h.Title, h.PageURL, h.RequestedBy, h.StartedAt)
	return err
}

// Recent: últimos tracks arrancados en el guild.
func (r *HistoryRepo) Recent(ctx context.Context, guildID string, limit int) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, guild_id, video_id, title, page_url, requested_by, started_at
  FROM playback_history
 WHERE guild_id = $1
 ORDER BY started_at DESC
 LIMIT $2
`, guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.GuildID, &h.VideoID, &h.Title, &h.PageURL, &h.RequestedBy, &h.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Prune elimina historial más viejo que olderThan (todos los guilds).
func (r *HistoryRepo) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM playback_history
 WHERE started_at < now() - $1::interval
`, durToInterval(olderThan))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func durToInterval(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs <= 0 {
		return "0 seconds"
	}
	return fmt.Sprintf("%d seconds", secs)
}
