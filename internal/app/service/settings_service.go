package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jose-valero/nexus7-bot/internal/infra/storage"
)

const maxQueueCeiling = 500

var ErrInvalidSetting = errors.New("invalid setting")

type SettingsService struct {
	repo SettingsRepo
}

func NewSettingsService(r SettingsRepo) *SettingsService { return &SettingsService{repo: r} }

// Patch: sólo se aplican los campos no-nil.
type SettingsPatch struct {
	MaxQueue *int
	Announce *bool
}

func (s *SettingsService) Get(ctx context.Context, guildID string) (storage.GuildSettings, error) {
	return s.repo.Get(ctx, guildID)
}

func (s *SettingsService) Show(ctx context.Context, guildID string) (string, error) {
	gs, err := s.repo.Get(ctx, guildID)
	if err != nil {
		return "", err
	}
	return formatSettings(gs), nil
}

func (s *SettingsService) Update(ctx context.Context, guildID string, p SettingsPatch) (string, error) {
	if p.MaxQueue != nil && (*p.MaxQueue < 0 || *p.MaxQueue > maxQueueCeiling) {
		return "", fmt.Errorf("%w: max_queue must be between 0 and %d", ErrInvalidSetting, maxQueueCeiling)
	}
	gs, err := s.repo.Update(ctx, guildID, storage.GuildSettingsUpdate{
		MaxQueue: p.MaxQueue,
		Announce: p.Announce,
	})
	if err != nil {
		return "", err
	}
	return formatSettings(gs), nil
}

func formatSettings(gs storage.GuildSettings) string {
	limit := fmt.Sprint(gs.MaxQueue)
	if gs.MaxQueue == 0 {
		limit = "unlimited"
	}
	return fmt.Sprintf("**Settings for %s**\n• max_queue: **%s**\n• announce: **%v**", gs.GuildID, limit, gs.Announce)
}
