package domain

import (
	"strings"
	"time"
)

// Kind identifica la variante de un ResultItem.
type Kind string

const (
	KindTrack    Kind = "track"
	KindPlaylist Kind = "playlist"
	KindBook     Kind = "book"
	KindGameStat Kind = "gamestat"
	KindVideo    Kind = "video"
)

// ResultItem es un resultado de búsqueda paginable/seleccionable.
// ItemID es único dentro de un mismo set y el orden del upstream es el orden de paginado.
type ResultItem interface {
	ItemID() string
	Label() string
	Kind() Kind
}

type Track struct {
	ID         string
	Name       string
	Artists    []string
	Album      string
	URL        string
	ImageURL   string
	Popularity int
}

func (t Track) ItemID() string { return t.ID }
func (t Track) Kind() Kind     { return KindTrack }
func (t Track) Label() string {
	if len(t.Artists) == 0 {
		return t.Name
	}
	return t.Name + " — " + joinNames(t.Artists)
}

type Playlist struct {
	ID          string
	Name        string
	Owner       string
	Description string
	URL         string
	ImageURL    string
}

func (p Playlist) ItemID() string { return p.ID }
func (p Playlist) Kind() Kind     { return KindPlaylist }
func (p Playlist) Label() string  { return p.Name }

type Book struct {
	ID            string
	Title         string
	Authors       []string
	PublishedDate string
	Description   string
	PageCount     int
	Categories    []string
	AverageRating float64
	Thumbnail     string
	Publisher     string
	Language      string
	Link          string
}

func (b Book) ItemID() string { return b.ID }
func (b Book) Kind() Kind     { return KindBook }
func (b Book) Label() string  { return b.Title }

func (b Book) AuthorLine() string { return joinNames(b.Authors) }

// GameStatBlock: una playlist rankeada de Rocket League.
type GameStatBlock struct {
	Playlist  string
	Tier      string
	TierIcon  string
	Division  string
	MMR       float64
	PeakMMR   float64
	WinStreak string
}

func (g GameStatBlock) ItemID() string { return g.Playlist }
func (g GameStatBlock) Kind() Kind     { return KindGameStat }
func (g GameStatBlock) Label() string  { return g.Playlist }

// GamePlayer agrupa las playlists rankeadas y las stats "Lifetime".
type GamePlayer struct {
	Name          string
	Playlists     []GameStatBlock
	Wins          string
	Goals         string
	Saves         string
	Assists       string
	GoalShotRatio string
	Rating        string
}

// Items devuelve las playlists como ResultItems, en orden del upstream.
func (p GamePlayer) Items() []ResultItem {
	out := make([]ResultItem, 0, len(p.Playlists))
	for _, pl := range p.Playlists {
		out = append(out, pl)
	}
	return out
}

// Video es lo que entra a la cola de reproducción.
type Video struct {
	ID          string
	Title       string
	Description string
	Duration    time.Duration
	StreamURL   string
	PageURL     string
	Thumbnail   string
}

func (v Video) ItemID() string { return v.ID }
func (v Video) Kind() Kind     { return KindVideo }
func (v Video) Label() string  { return v.Title }

// SavedItem: un resultado guardado por un usuario (💾).
type SavedItem struct {
	UserID  string
	ItemKey string
	Type    Kind
	Title   string
	Payload []byte
	SavedAt time.Time
}

func (s SavedItem) ItemID() string { return string(s.Type) + ":" + s.ItemKey }
func (s SavedItem) Kind() Kind     { return s.Type }
func (s SavedItem) Label() string  { return s.Title }

func joinNames(ns []string) string { return strings.Join(ns, ", ") }
