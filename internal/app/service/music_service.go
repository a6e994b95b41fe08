package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/domain"
)

// DefaultMaxQueue aplica si no se pudo leer guild_settings.
const DefaultMaxQueue = 50

type MusicService struct {
	search   VideoSearch
	resolver Resolver
	players  *playback.Manager
	settings SettingsRepo
	log      *zap.Logger
}

func NewMusicService(search VideoSearch, resolver Resolver, players *playback.Manager, settings SettingsRepo, log *zap.Logger) *MusicService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MusicService{search: search, resolver: resolver, players: players, settings: settings, log: log}
}

type PlayRequest struct {
	GuildID       string
	VoiceChannel  string // canal de voz del que pide ("" = no está en voz)
	TextChannelID string
	UserID        string
	Query         string
}

type PlayResult struct {
	Entry   playback.Entry
	Started bool // true si arrancó a sonar ahora (guild estaba Idle)
	Resumed bool // /play sin query sobre una pausa o cola pendiente
}

// Play busca y encola. Sin query reanuda la pausa o arranca lo pendiente.
func (s *MusicService) Play(ctx context.Context, req PlayRequest) (PlayResult, error) {
	sess := s.players.Session(req.GuildID)
	if sess == nil {
		return PlayResult{}, domain.ErrClosed
	}
	if strings.TrimSpace(req.Query) == "" {
		if err := sess.Start(ctx); err != nil {
			return PlayResult{}, err
		}
		cur, _ := sess.Snapshot().Current()
		return PlayResult{Entry: cur, Resumed: true}, nil
	}
	if req.VoiceChannel == "" {
		return PlayResult{}, domain.ErrNoVoice
	}

	v, err := s.Lookup(ctx, req.Query)
	if err != nil {
		return PlayResult{}, err
	}
	e := playback.Entry{
		Video:         v,
		ChannelID:     req.VoiceChannel,
		TextChannelID: req.TextChannelID,
		RequestedBy:   req.UserID,
	}
	idle := sess.Snapshot().Status == playback.Idle
	if err := sess.Enqueue(ctx, e, s.maxQueue(ctx, req.GuildID)); err != nil {
		return PlayResult{}, err
	}
	return PlayResult{Entry: e, Started: idle}, nil
}

// Lookup resuelve una URL directa o el primer resultado de la búsqueda.
func (s *MusicService) Lookup(ctx context.Context, query string) (domain.Video, error) {
	query = strings.TrimSpace(query)
	target := query
	if !isURL(query) {
		ids, err := s.search.SearchIDs(ctx, query, 1)
		if err != nil {
			return domain.Video{}, wrapFetch("youtube", err)
		}
		if len(ids) == 0 {
			return domain.Video{}, domain.ErrNotFound
		}
		target = "https://www.youtube.com/watch?v=" + ids[0]
	}
	v, err := s.resolver.Resolve(ctx, target)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Video{}, err
		}
		return domain.Video{}, &domain.StreamError{Title: query, Err: err}
	}
	return v, nil
}

func (s *MusicService) Pause(ctx context.Context, guildID string) error {
	sess, ok := s.players.Lookup(guildID)
	if !ok {
		return domain.ErrNotPlaying
	}
	return sess.Pause(ctx)
}

func (s *MusicService) Resume(ctx context.Context, guildID string) error {
	sess, ok := s.players.Lookup(guildID)
	if !ok {
		return domain.ErrNotPaused
	}
	return sess.Resume(ctx)
}

func (s *MusicService) Skip(ctx context.Context, guildID string) error {
	sess, ok := s.players.Lookup(guildID)
	if !ok {
		return domain.ErrNotPlaying
	}
	return sess.Skip(ctx)
}

func (s *MusicService) Join(ctx context.Context, guildID, voiceChannel string) error {
	if voiceChannel == "" {
		return domain.ErrNoVoice
	}
	sess := s.players.Session(guildID)
	if sess == nil {
		return domain.ErrClosed
	}
	return sess.Join(ctx, voiceChannel)
}

func (s *MusicService) Leave(ctx context.Context, guildID string) error {
	sess, ok := s.players.Lookup(guildID)
	if !ok {
		return domain.ErrNotConnected
	}
	return sess.Leave(ctx)
}

// Snapshot devuelve el estado del guild (Idle vacío si nunca sonó nada).
func (s *MusicService) Snapshot(guildID string) playback.Snapshot {
	if sess, ok := s.players.Lookup(guildID); ok {
		return sess.Snapshot()
	}
	return playback.Snapshot{GuildID: guildID}
}

// VoiceStateChanged se llama con cada voice state update del guild.
func (s *MusicService) VoiceStateChanged(ctx context.Context, guildID string) {
	sess, ok := s.players.Lookup(guildID)
	if !ok {
		return
	}
	if _, err := sess.VoiceStateChanged(ctx); err != nil && !errors.Is(err, domain.ErrClosed) {
		s.log.Warn("voice state check failed", zap.String("guild", guildID), zap.Error(err))
	}
}

func (s *MusicService) maxQueue(ctx context.Context, guildID string) int {
	if s.settings == nil {
		return DefaultMaxQueue
	}
	gs, err := s.settings.Get(ctx, guildID)
	if err != nil {
		s.log.Warn("guild settings unavailable, using default queue limit", zap.String("guild", guildID), zap.Error(err))
		return DefaultMaxQueue
	}
	return gs.MaxQueue
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
