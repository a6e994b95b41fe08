package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

// MaxSaved acota el listado de /saved.
const MaxSaved = 100

// LibraryService maneja los resultados guardados (💾) de cada usuario.
type LibraryService struct {
	repo SavedRepo
}

func NewLibraryService(r SavedRepo) *LibraryService { return &LibraryService{repo: r} }

// Save persiste el item tal cual se mostró. ErrAlreadySaved si ya estaba.
func (s *LibraryService) Save(ctx context.Context, userID string, it domain.ResultItem) (domain.SavedItem, error) {
	payload, err := json.Marshal(it)
	if err != nil {
		return domain.SavedItem{}, fmt.Errorf("encode %s: %w", it.Kind(), err)
	}
	saved := domain.SavedItem{
		UserID:  userID,
		ItemKey: it.ItemID(),
		Type:    it.Kind(),
		Title:   it.Label(),
		Payload: payload,
	}
	if err := s.repo.Save(ctx, saved); err != nil {
		return domain.SavedItem{}, err
	}
	return saved, nil
}

func (s *LibraryService) List(ctx context.Context, userID string, kinds ...domain.Kind) ([]domain.SavedItem, error) {
	return s.repo.List(ctx, userID, kinds, MaxSaved)
}

func (s *LibraryService) Remove(ctx context.Context, userID string, it domain.SavedItem) error {
	ok, err := s.repo.Delete(ctx, userID, it.Type, it.ItemKey)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// Decode reconstruye el item original a partir del payload guardado.
func Decode(s domain.SavedItem) (domain.ResultItem, error) {
	var (
		it  domain.ResultItem
		err error
	)
	switch s.Type {
	case domain.KindTrack:
		it, err = decodeAs[domain.Track](s.Payload)
	case domain.KindPlaylist:
		it, err = decodeAs[domain.Playlist](s.Payload)
	case domain.KindBook:
		it, err = decodeAs[domain.Book](s.Payload)
	case domain.KindGameStat:
		it, err = decodeAs[domain.GameStatBlock](s.Payload)
	case domain.KindVideo:
		it, err = decodeAs[domain.Video](s.Payload)
	default:
		return nil, fmt.Errorf("saved item %s: unknown kind %q", s.ItemKey, s.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", s.Type, s.ItemKey, err)
	}
	return it, nil
}

func decodeAs[T domain.ResultItem](b []byte) (domain.ResultItem, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}
