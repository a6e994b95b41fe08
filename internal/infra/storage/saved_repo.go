package storage

import (
	"context"
	"database/sql"
	"errors"

	pq "github.com/lib/pq"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

type SavedRepo struct{ db *sql.DB }

func NewSavedRepo(db *sql.DB) *SavedRepo { return &SavedRepo{db: db} }

// Save inserta el item; si ya existía devuelve domain.ErrAlreadySaved.
func (r *SavedRepo) Save(ctx context.Context, it domain.SavedItem) error {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO saved_items (discord_user_id, item_key, kind, title, payload)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (discord_user_id, kind, item_key) DO NOTHING
`, it.UserID, it.ItemKey, string(it.Type), it.Title, it.Payload)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAlreadySaved
	}
	return nil
}

// List devuelve lo guardado por el usuario, más nuevo primero. kinds vacío = todos.
func (r *SavedRepo) List(ctx context.Context, userID string, kinds []domain.Kind, limit int) ([]domain.SavedItem, error) {
	ks := make([]string, 0, len(kinds))
	for _, k := range kinds {
		ks = append(ks, string(k))
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT discord_user_id, item_key, kind, title, payload, saved_at
  FROM saved_items
 WHERE discord_user_id = $1
   AND (cardinality($2::text[]) = 0 OR kind = ANY($2))
 ORDER BY saved_at DESC
 LIMIT $3
`, userID, pq.Array(ks), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SavedItem
	for rows.Next() {
		var (
			it   domain.SavedItem
			kind string
		)
		if err := rows.Scan(&it.UserID, &it.ItemKey, &kind, &it.Title, &it.Payload, &it.SavedAt); err != nil {
			return nil, err
		}
		it.Type = domain.Kind(kind)
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *SavedRepo) Get(ctx context.Context, userID string, kind domain.Kind, key string) (domain.SavedItem, error) {
	it := domain.SavedItem{UserID: userID, Type: kind, ItemKey: key}
	err := r.db.QueryRowContext(ctx, `
SELECT title, payload, saved_at
  FROM saved_items
 WHERE discord_user_id = $1 AND kind = $2 AND item_key = $3
`, userID, string(kind), key).Scan(&it.Title, &it.Payload, &it.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SavedItem{}, domain.ErrNotFound
	}
	return it, err
}

func (r *SavedRepo) Delete(ctx context.Context, userID string, kind domain.Kind, key string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM saved_items
 WHERE discord_user_id = $1 AND kind = $2 AND item_key = $3
`, userID, string(kind), key)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
