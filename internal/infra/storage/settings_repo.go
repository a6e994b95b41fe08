package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type SettingsRepo struct{ db *sql.DB }

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

func (r *SettingsRepo) Get(ctx context.Context, guildID string) (GuildSettings, error) {
	var s GuildSettings
	err := r.db.QueryRowContext(ctx, `
SELECT guild_id, max_queue, announce, created_at, updated_at
  FROM guild_settings
 WHERE guild_id = $1
`, guildID).Scan(&s.GuildID, &s.MaxQueue, &s.Announce, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// crea default
		_, err := r.db.ExecContext(ctx, `
INSERT INTO guild_settings (guild_id) VALUES ($1)
ON CONFLICT (guild_id) DO NOTHING
`, guildID)
		if err != nil {
			return GuildSettings{}, err
		}
		return r.Get(ctx, guildID)
	}
	return s, err
}

func (r *SettingsRepo) Update(ctx context.Context, guildID string, u GuildSettingsUpdate) (GuildSettings, error) {
	// asegura la fila antes del UPDATE
	if _, err := r.Get(ctx, guildID); err != nil {
		return GuildSettings{}, err
	}
	q, args, ok := buildSettingsUpdate(guildID, u, time.Now())
	if !ok {
		// nada que cambiar
		return r.Get(ctx, guildID)
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return GuildSettings{}, err
	}
	return r.Get(ctx, guildID)
}

// buildSettingsUpdate arma el UPDATE sólo con los campos presentes.
func buildSettingsUpdate(guildID string, u GuildSettingsUpdate, now time.Time) (string, []any, bool) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	i := 1

	if u.MaxQueue != nil {
		sets = append(sets, fmt.Sprintf("max_queue = $%d", i))
		args = append(args, *u.MaxQueue)
		i++
	}
	if u.Announce != nil {
		sets = append(sets, fmt.Sprintf("announce = $%d", i))
		args = append(args, *u.Announce)
		i++
	}
	if len(sets) == 0 {
		return "", nil, false
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", i))
	args = append(args, now)
	i++

	args = append(args, guildID)
	q := `
UPDATE guild_settings
   SET ` + strings.Join(sets, ", ") + `
 WHERE guild_id = $` + fmt.Sprint(i)
	return q, args, true
}
