// cmd/janitor: lambda programada que poda historial viejo y paneles huérfanos.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/infra/logging"
)

const (
	historyRetention = 30 * 24 * time.Hour
	panelRetention   = 7 * 24 * time.Hour
)

type result struct {
	History int64 `json:"history_deleted"`
	Panels  int64 `json:"panels_deleted"`
}

func handler(log *zap.Logger) func(ctx context.Context) (result, error) {
	return func(ctx context.Context) (result, error) {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return result{}, fmt.Errorf("no DATABASE_URL")
		}

		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return result{}, fmt.Errorf("parse: %w", err)
		}
		cfg.MaxConns = 2

		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return result{}, fmt.Errorf("pool: %w", err)
		}
		defer pool.Close()

		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		var out result
		tag, err := pool.Exec(cctx, `DELETE FROM playback_history WHERE started_at < $1`, time.Now().Add(-historyRetention))
		if err != nil {
			return out, fmt.Errorf("prune history: %w", err)
		}
		out.History = tag.RowsAffected()

		// un panel que nadie tocó en una semana ya no está en pantalla
		tag, err = pool.Exec(cctx, `DELETE FROM playback_panels WHERE updated_at < $1`, time.Now().Add(-panelRetention))
		if err != nil {
			return out, fmt.Errorf("prune panels: %w", err)
		}
		out.Panels = tag.RowsAffected()

		log.Info("🧹 janitor", zap.Int64("history", out.History), zap.Int64("panels", out.Panels))
		return out, nil
	}
}

func main() {
	log, err := logging.New(os.Getenv("LOG_LEVEL"), "json")
	if err != nil {
		log = zap.NewNop()
	}
	defer log.Sync()
	lambda.Start(handler(log))
}
