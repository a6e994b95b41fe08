package upstream

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

type BooksClient struct{ c *Client }

func NewBooks(c *Client) *BooksClient { return &BooksClient{c: c} }

// Search devuelve hasta limit libros en el orden de la API. Sin resultados = slice vacío.
func (b *BooksClient) Search(ctx context.Context, query string, limit int) ([]domain.Book, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("maxResults", strconv.Itoa(limit))
	}

	var dto volumesDTO
	if err := b.c.doJSON(ctx, "GET", "", q, &dto); err != nil {
		return nil, err
	}
	out := make([]domain.Book, 0, len(dto.Items))
	seen := map[string]bool{}
	for _, it := range dto.Items {
		if it.ID == "" || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		v := it.VolumeInfo
		out = append(out, domain.Book{
			ID:            it.ID,
			Title:         v.Title,
			Authors:       v.Authors,
			PublishedDate: v.PublishedDate,
			Description:   v.Description,
			PageCount:     v.PageCount,
			Categories:    v.Categories,
			AverageRating: v.AverageRating,
			Thumbnail:     v.ImageLinks.Thumbnail,
			Publisher:     v.Publisher,
			Language:      v.Language,
			Link:          v.CanonicalVolumeLink,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
