package upstream

import (
	"context"
	"net/url"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

var rankedPlaylists = map[string]bool{
	"Ranked Duel 1v1":     true,
	"Ranked Doubles 2v2":  true,
	"Ranked Standard 3v3": true,
	"Tournament Matches":  true,
}

type StatsClient struct{ c *Client }

func NewStats(c *Client) *StatsClient { return &StatsClient{c: c} }

// Player trae el perfil; sólo se quedan las playlists rankeadas de tipo "playlist".
func (s *StatsClient) Player(ctx context.Context, nametag string) (domain.GamePlayer, error) {
	var dto profileDTO
	if err := s.c.doJSON(ctx, "GET", url.PathEscape(nametag), nil, &dto); err != nil {
		return domain.GamePlayer{}, err
	}

	p := domain.GamePlayer{
		Name:          dto.Data.PlatformInfo.PlatformUserIdentifier,
		Wins:          "-",
		Goals:         "-",
		Saves:         "-",
		Assists:       "-",
		GoalShotRatio: "-",
		Rating:        "-",
	}
	if p.Name == "" {
		p.Name = nametag
	}
	lifetime := false
	for _, seg := range dto.Data.Segments {
		if seg.Type == "playlist" && rankedPlaylists[seg.Metadata.Name] {
			st := seg.Stats
			p.Playlists = append(p.Playlists, domain.GameStatBlock{
				Playlist:  seg.Metadata.Name,
				Tier:      st["tier"].Metadata.Name,
				TierIcon:  st["tier"].Metadata.IconURL,
				Division:  st["division"].Metadata.Name,
				MMR:       st["rating"].Value,
				PeakMMR:   st["peakRating"].Value,
				WinStreak: st["winStreak"].DisplayValue,
			})
		}
		if seg.Metadata.Name == "Lifetime" && !lifetime {
			lifetime = true
			st := seg.Stats
			p.Wins = display(st, "wins")
			p.Goals = display(st, "goals")
			p.Saves = display(st, "saves")
			p.Assists = display(st, "assists")
			p.GoalShotRatio = display(st, "goalShotRatio")
			p.Rating = display(st, "tRNRating")
		}
	}
	return p, nil
}

func display(st map[string]statValue, k string) string {
	if v, ok := st[k]; ok && v.DisplayValue != "" {
		return v.DisplayValue
	}
	return "-"
}
