package spotify

import (
	"context"
	"errors"
	"fmt"

	spotifylib "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

const (
	DefaultLimit        = 5
	DefaultPlaylistName = "My recommended playlist"
	playlistDescription = "A playlist with recommended songs by Nexus-7"
)

// API es el subconjunto de *spotify.Client que usamos (mockeable en tests).
type API interface {
	CurrentUser(ctx context.Context) (*spotifylib.PrivateUser, error)
	CurrentUsersTopTracks(ctx context.Context, opts ...spotifylib.RequestOption) (*spotifylib.FullTrackPage, error)
	CurrentUsersTopArtists(ctx context.Context, opts ...spotifylib.RequestOption) (*spotifylib.FullArtistPage, error)
	GetRecommendations(ctx context.Context, seeds spotifylib.Seeds, attrs *spotifylib.TrackAttributes, opts ...spotifylib.RequestOption) (*spotifylib.Recommendations, error)
	CurrentUsersPlaylists(ctx context.Context, opts ...spotifylib.RequestOption) (*spotifylib.SimplePlaylistPage, error)
	GetPlaylistsForUser(ctx context.Context, userID string, opts ...spotifylib.RequestOption) (*spotifylib.SimplePlaylistPage, error)
	CreatePlaylistForUser(ctx context.Context, userID, playlistName, description string, public bool, collaborative bool) (*spotifylib.FullPlaylist, error)
	AddTracksToPlaylist(ctx context.Context, playlistID spotifylib.ID, trackIDs ...spotifylib.ID) (string, error)
	Search(ctx context.Context, query string, t spotifylib.SearchType, opts ...spotifylib.RequestOption) (*spotifylib.SearchResult, error)
}

var _ API = (*spotifylib.Client)(nil)

// NewAPI arma el cliente autenticado con un refresh token; oauth2 renueva el access token solo.
func NewAPI(ctx context.Context, clientID, clientSecret, refreshToken string) *spotifylib.Client {
	auth := spotifyauth.New(
		spotifyauth.WithClientID(clientID),
		spotifyauth.WithClientSecret(clientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserTopRead,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistModifyPublic,
		),
	)
	tok := &oauth2.Token{RefreshToken: refreshToken}
	return spotifylib.New(auth.Client(ctx, tok))
}

type Client struct {
	api API
}

func New(api API) *Client { return &Client{api: api} }

func (c *Client) TopTracks(ctx context.Context, limit int) ([]domain.Track, error) {
	page, err := c.api.CurrentUsersTopTracks(ctx, spotifylib.Limit(orDefault(limit)))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Track, 0, len(page.Tracks))
	for _, t := range page.Tracks {
		out = append(out, fullTrack(t))
	}
	return out, nil
}

// Recommendations: semillas = géneros del primer top artist + 2 top tracks + 2 top artists.
func (c *Client) Recommendations(ctx context.Context, limit int) ([]domain.Track, error) {
	artists, err := c.api.CurrentUsersTopArtists(ctx, spotifylib.Limit(2))
	if err != nil {
		return nil, err
	}
	tracks, err := c.api.CurrentUsersTopTracks(ctx, spotifylib.Limit(2))
	if err != nil {
		return nil, err
	}

	var seeds spotifylib.Seeds
	for i, a := range artists.Artists {
		if i == 0 {
			// la API acepta hasta 5 semillas en total
			for _, g := range a.Genres {
				if len(seeds.Genres) == 1 {
					break
				}
				seeds.Genres = append(seeds.Genres, g)
			}
		}
		seeds.Artists = append(seeds.Artists, a.ID)
	}
	for _, t := range tracks.Tracks {
		seeds.Tracks = append(seeds.Tracks, t.ID)
	}
	if len(seeds.Artists)+len(seeds.Tracks)+len(seeds.Genres) == 0 {
		return nil, domain.ErrNotFound
	}

	recs, err := c.api.GetRecommendations(ctx, seeds, nil, spotifylib.Limit(orDefault(limit)))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Track, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		out = append(out, simpleTrack(t, "", ""))
	}
	return out, nil
}

func (c *Client) MyPlaylists(ctx context.Context, limit int) ([]domain.Playlist, error) {
	page, err := c.api.CurrentUsersPlaylists(ctx, spotifylib.Limit(orDefault(limit)))
	if err != nil {
		return nil, err
	}
	return playlists(page.Playlists), nil
}

func (c *Client) UserPlaylists(ctx context.Context, userID string, limit int) ([]domain.Playlist, error) {
	page, err := c.api.GetPlaylistsForUser(ctx, userID, spotifylib.Limit(orDefault(limit)))
	if err != nil {
		var se spotifylib.Error
		if errors.As(err, &se) && se.Status == 404 {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return playlists(page.Playlists), nil
}

// CreatePlaylist crea una playlist privada con recomendaciones + top tracks.
func (c *Client) CreatePlaylist(ctx context.Context, name string) (domain.Playlist, error) {
	if name == "" {
		name = DefaultPlaylistName
	}
	me, err := c.api.CurrentUser(ctx)
	if err != nil {
		return domain.Playlist{}, err
	}
	recs, err := c.Recommendations(ctx, DefaultLimit)
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("recommendations: %w", err)
	}
	top, err := c.TopTracks(ctx, DefaultLimit)
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("top tracks: %w", err)
	}

	pl, err := c.api.CreatePlaylistForUser(ctx, me.ID, name, playlistDescription, false, false)
	if err != nil {
		return domain.Playlist{}, err
	}
	ids := make([]spotifylib.ID, 0, len(recs)+len(top))
	seen := map[string]bool{}
	for _, t := range append(recs, top...) {
		if t.ID == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		ids = append(ids, spotifylib.ID(t.ID))
	}
	if len(ids) > 0 {
		if _, err := c.api.AddTracksToPlaylist(ctx, pl.ID, ids...); err != nil {
			return domain.Playlist{}, fmt.Errorf("add tracks: %w", err)
		}
	}
	return playlist(pl.SimplePlaylist), nil
}

func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	res, err := c.api.Search(ctx, query, spotifylib.SearchTypeTrack, spotifylib.Limit(orDefault(limit)))
	if err != nil {
		return nil, err
	}
	if res.Tracks == nil {
		return nil, nil
	}
	out := make([]domain.Track, 0, len(res.Tracks.Tracks))
	for _, t := range res.Tracks.Tracks {
		out = append(out, fullTrack(t))
	}
	return out, nil
}

// ---- mapping ----

func fullTrack(t spotifylib.FullTrack) domain.Track {
	img := ""
	if len(t.Album.Images) > 0 {
		img = t.Album.Images[0].URL
	}
	tr := simpleTrack(t.SimpleTrack, t.Album.Name, img)
	tr.Popularity = int(t.Popularity)
	return tr
}

func simpleTrack(t spotifylib.SimpleTrack, album, img string) domain.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return domain.Track{
		ID:       string(t.ID),
		Name:     t.Name,
		Artists:  artists,
		Album:    album,
		URL:      t.ExternalURLs["spotify"],
		ImageURL: img,
	}
}

func playlists(in []spotifylib.SimplePlaylist) []domain.Playlist {
	out := make([]domain.Playlist, 0, len(in))
	for _, p := range in {
		out = append(out, playlist(p))
	}
	return out
}

func playlist(p spotifylib.SimplePlaylist) domain.Playlist {
	img := ""
	if len(p.Images) > 0 {
		img = p.Images[0].URL
	}
	return domain.Playlist{
		ID:          string(p.ID),
		Name:        p.Name,
		Owner:       p.Owner.DisplayName,
		Description: p.Description,
		URL:         p.ExternalURLs["spotify"],
		ImageURL:    img,
	}
}

func orDefault(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}
