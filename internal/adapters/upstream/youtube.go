package upstream

import (
	"context"
	"net/url"
	"regexp"
)

var reWatch = regexp.MustCompile(`watch\?v=([A-Za-z0-9_-]{11})`)

// YouTubeClient busca ids de video raspando la página de resultados (sin API key).
type YouTubeClient struct{ c *Client }

func NewYouTube(c *Client) *YouTubeClient { return &YouTubeClient{c: c} }

func (y *YouTubeClient) SearchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("search_query", query)
	html, err := y.c.getText(ctx, "", q)
	if err != nil {
		return nil, err
	}
	var ids []string
	seen := map[string]bool{}
	for _, m := range reWatch.FindAllStringSubmatch(html, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
		if limit > 0 && len(ids) == limit {
			break
		}
	}
	return ids, nil
}
