package discord

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/nexus7-bot/internal/app/pager"
	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/domain"
)

const (
	colorSpotify = 0x1DB954
	colorBooks   = 0x4285F4
	colorWeather = 0x87CEEB
	colorPlayer  = 0xFF0000
	colorDefault = 0x5865F2

	descLimit   = 200
	optionLimit = 100
)

var quotes = []string{
	"A reader lives a thousand lives before he dies.",
	"Today a reader, tomorrow a leader.",
	"Once you learn to read, you will be forever free.",
	"There is no friend as loyal as a book.",
	"Reading is to the mind what exercise is to the body.",
}

func randomQuote() string { return quotes[rand.IntN(len(quotes))] }

// ---------- paginado ----------

var pagerButtons = []struct {
	action pager.Action
	emoji  string
}{
	{pager.First, "🤛🏻"},
	{pager.Prev, "👈🏻"},
	{pager.Next, "👉🏻"},
	{pager.Last, "🤜🏻"},
}

func pagerRow(sid string, p pager.Page) discordgo.ActionsRow {
	comps := make([]discordgo.MessageComponent, 0, len(pagerButtons))
	for _, b := range pagerButtons {
		comps = append(comps, discordgo.Button{
			Style:    discordgo.SecondaryButton,
			CustomID: pageID(sid, b.action, p.Number),
			Emoji:    &discordgo.ComponentEmoji{Name: b.emoji},
			Disabled: p.Buttons.Disabled(b.action),
		})
	}
	return discordgo.ActionsRow{Components: comps}
}

// pageEmbed lista los items de la página numerados por su posición global.
func pageEmbed(title string, color int, p pager.Page, footer string) *discordgo.MessageEmbed {
	var b strings.Builder
	if p.Empty() {
		b.WriteString("Nothing here.")
	}
	for i, it := range p.Items {
		fmt.Fprintf(&b, "**%d.** %s\n", p.Offset+i+1, itemLine(it))
	}
	foot := fmt.Sprintf("Page %d/%d", p.Number, p.Count)
	if footer != "" {
		foot += " · " + footer
	}
	e := &discordgo.MessageEmbed{
		Title:       title,
		Description: b.String(),
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: foot},
	}
	if !p.Empty() {
		if img := itemImage(p.Items[0]); img != "" {
			e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: img}
		}
	}
	return e
}

func itemLine(it domain.ResultItem) string {
	switch v := it.(type) {
	case domain.Track:
		return link(v.Name, v.URL) + " — " + strings.Join(v.Artists, ", ")
	case domain.Playlist:
		line := link(v.Name, v.URL)
		if v.Owner != "" {
			line += " · by " + v.Owner
		}
		return line
	case domain.Book:
		if a := v.AuthorLine(); a != "" {
			return "**" + v.Title + "** — " + a
		}
		return "**" + v.Title + "**"
	case domain.Video:
		return link(v.Title, v.PageURL) + durationSuffix(v.Duration)
	case queueItem:
		return v.marker() + " " + link(v.entry.Video.Title, v.entry.Video.PageURL) + durationSuffix(v.entry.Video.Duration) + " · <@" + v.entry.RequestedBy + ">"
	case domain.SavedItem:
		return kindEmoji(v.Type) + " " + v.Title + fmt.Sprintf(" · <t:%d:R>", v.SavedAt.Unix())
	}
	return it.Label()
}

func itemImage(it domain.ResultItem) string {
	switch v := it.(type) {
	case domain.Track:
		return v.ImageURL
	case domain.Playlist:
		return v.ImageURL
	case domain.Book:
		return v.Thumbnail
	case domain.Video:
		return v.Thumbnail
	case queueItem:
		return v.entry.Video.Thumbnail
	}
	return ""
}

// ---------- selección ----------

func selectRow(sid, placeholder string, items []domain.ResultItem, selected string) (discordgo.ActionsRow, bool) {
	if len(items) == 0 {
		return discordgo.ActionsRow{}, false
	}
	opts := make([]discordgo.SelectMenuOption, 0, len(items))
	for _, it := range items {
		opts = append(opts, discordgo.SelectMenuOption{
			Label:       clip(it.Label(), optionLimit),
			Value:       it.ItemID(),
			Description: clip(optionDescription(it), optionLimit),
			Default:     it.ItemID() == selected,
		})
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			CustomID:    selectID(sid),
			Placeholder: placeholder,
			Options:     opts,
		},
	}}, true
}

func optionDescription(it domain.ResultItem) string {
	switch v := it.(type) {
	case domain.Book:
		return v.AuthorLine()
	case domain.GameStatBlock:
		return strings.TrimSpace(v.Tier + " " + v.Division)
	case domain.SavedItem:
		return string(v.Type)
	}
	return ""
}

// saveRow es nil si el id no entra en un custom_id.
func saveRow(sid, itemID string, disabled bool) *discordgo.ActionsRow {
	id := saveID(sid, itemID)
	if id == "" {
		return nil
	}
	return &discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Style:    discordgo.SuccessButton,
			Label:    "Save",
			CustomID: id,
			Emoji:    &discordgo.ComponentEmoji{Name: "💾"},
			Disabled: disabled,
		},
	}}
}

// ---------- detalle ----------

func detailEmbed(it domain.ResultItem) *discordgo.MessageEmbed {
	switch v := it.(type) {
	case domain.Book:
		return bookEmbed(v, randomQuote())
	case domain.GameStatBlock:
		return statEmbed(v, "")
	case domain.Track:
		return trackEmbed(v)
	case domain.Playlist:
		return playlistEmbed(v)
	case domain.Video:
		return videoEmbed(v)
	}
	return &discordgo.MessageEmbed{Title: it.Label(), Color: colorDefault}
}

func bookEmbed(b domain.Book, quote string) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       b.Title,
		URL:         b.Link,
		Description: truncate(b.Description, descLimit),
		Color:       colorBooks,
		Footer:      &discordgo.MessageEmbedFooter{Text: quote},
	}
	if a := b.AuthorLine(); a != "" {
		e.Author = &discordgo.MessageEmbedAuthor{Name: a}
	}
	if b.Thumbnail != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: b.Thumbnail}
	}
	e.Fields = appendField(e.Fields, "Pages", intOrDash(b.PageCount), true)
	e.Fields = appendField(e.Fields, "Published", orDash(b.PublishedDate), true)
	rating := "-"
	if b.AverageRating > 0 {
		rating = fmt.Sprintf("%.1f ⭐", b.AverageRating)
	}
	e.Fields = appendField(e.Fields, "Rating", rating, true)
	e.Fields = appendField(e.Fields, "Language", orDash(strings.ToUpper(b.Language)), true)
	e.Fields = appendField(e.Fields, "Categories", orDash(strings.Join(b.Categories, ", ")), true)
	e.Fields = appendField(e.Fields, "Publisher", orDash(b.Publisher), true)
	return e
}

func playerEmbed(p domain.GamePlayer) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       "🚗 " + p.Name,
		Description: "Lifetime stats",
		Color:       colorDefault,
	}
	e.Fields = appendField(e.Fields, "Wins", p.Wins, true)
	e.Fields = appendField(e.Fields, "Goals", p.Goals, true)
	e.Fields = appendField(e.Fields, "Saves", p.Saves, true)
	e.Fields = appendField(e.Fields, "Assists", p.Assists, true)
	e.Fields = appendField(e.Fields, "Goal/Shot %", p.GoalShotRatio, true)
	e.Fields = appendField(e.Fields, "Rating", p.Rating, true)
	if len(p.Playlists) == 0 {
		e.Footer = &discordgo.MessageEmbedFooter{Text: "No ranked playlists this season."}
	}
	return e
}

func statEmbed(g domain.GameStatBlock, badge string) *discordgo.MessageEmbed {
	tier := strings.TrimSpace(g.Tier + " " + g.Division)
	if badge != "" {
		tier = badge + " " + tier
	}
	e := &discordgo.MessageEmbed{
		Title:       g.Playlist,
		Description: orDash(tier),
		Color:       tierColor(g.Tier),
	}
	if g.TierIcon != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: g.TierIcon}
	}
	e.Fields = appendField(e.Fields, "MMR", fmt.Sprintf("%.0f", g.MMR), true)
	if g.PeakMMR > 0 {
		e.Fields = appendField(e.Fields, "Peak", fmt.Sprintf("%.0f", g.PeakMMR), true)
	}
	e.Fields = appendField(e.Fields, "Win streak", orDash(g.WinStreak), true)
	return e
}

func weatherEmbed(w domain.Weather) *discordgo.MessageEmbed {
	title := "Weather in " + w.City
	if w.Country != "" {
		title += ", " + w.Country
	}
	e := &discordgo.MessageEmbed{
		Title:       title,
		Description: w.Main + " · " + w.Description,
		Color:       colorWeather,
	}
	if w.IconURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: w.IconURL}
	}
	e.Fields = appendField(e.Fields, "Temperature", fmt.Sprintf("%.1f °C", w.Temp), true)
	e.Fields = appendField(e.Fields, "Feels like", fmt.Sprintf("%.1f °C", w.FeelsLike), true)
	e.Fields = appendField(e.Fields, "Humidity", fmt.Sprintf("%d%%", w.Humidity), true)
	e.Fields = appendField(e.Fields, "Wind", fmt.Sprintf("%.1f m/s", w.WindSpeed), true)
	e.Fields = appendField(e.Fields, "Clouds", fmt.Sprintf("%d%%", w.Clouds), true)
	if w.Gloomy() {
		e.Footer = &discordgo.MessageEmbedFooter{Text: "Perfect time to play Skyrim!"}
	}
	return e
}

func trackEmbed(t domain.Track) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       t.Name,
		URL:         t.URL,
		Description: strings.Join(t.Artists, ", "),
		Color:       colorSpotify,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Powered by Spotify"},
	}
	if t.Album != "" {
		e.Fields = appendField(e.Fields, "Album", t.Album, true)
	}
	if t.ImageURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.ImageURL}
	}
	return e
}

func playlistEmbed(p domain.Playlist) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       p.Name,
		URL:         p.URL,
		Description: truncate(p.Description, descLimit),
		Color:       colorSpotify,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Powered by Spotify"},
	}
	if p.Owner != "" {
		e.Author = &discordgo.MessageEmbedAuthor{Name: p.Owner}
	}
	if p.ImageURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: p.ImageURL}
	}
	return e
}

func videoEmbed(v domain.Video) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       v.Title,
		URL:         v.PageURL,
		Description: truncate(v.Description, descLimit),
		Color:       colorPlayer,
	}
	if v.Duration > 0 {
		e.Fields = appendField(e.Fields, "Duration", fmtDuration(v.Duration), true)
	}
	if v.Thumbnail != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: v.Thumbnail}
	}
	return e
}

// ---------- reproducción ----------

func nowPlayingEmbed(snap playback.Snapshot) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{Color: colorPlayer, Title: "🎶 Now playing"}
	cur, ok := snap.Current()
	if !ok {
		e.Title = "🎶 Nothing playing"
		e.Description = "Use `/play` with a song name or link."
	} else {
		state := "▶️ Playing"
		if snap.Paused() {
			state = "⏸️ Paused"
		}
		e.Description = link(cur.Video.Title, cur.Video.PageURL) + durationSuffix(cur.Video.Duration)
		e.Fields = appendField(e.Fields, "Status", state, true)
		e.Fields = appendField(e.Fields, "Requested by", "<@"+cur.RequestedBy+">", true)
		if snap.ChannelID != "" {
			e.Fields = appendField(e.Fields, "Channel", "<#"+snap.ChannelID+">", true)
		}
		if cur.Video.Thumbnail != "" {
			e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: cur.Video.Thumbnail}
		}
	}
	if up := snap.Upcoming(); len(up) > 0 {
		var b strings.Builder
		for i, en := range up {
			if i == 3 {
				fmt.Fprintf(&b, "…and %d more", len(up)-3)
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, clip(en.Video.Title, 80))
		}
		e.Fields = appendField(e.Fields, "Up next", b.String(), false)
	}
	if !snap.UpdatedAt.IsZero() {
		e.Timestamp = snap.UpdatedAt.Format(time.RFC3339)
	}
	return e
}

func panelRow(snap playback.Snapshot) discordgo.ActionsRow {
	active := snap.Playing() || snap.Paused()
	toggle := discordgo.Button{Style: discordgo.PrimaryButton, Label: "Pause", CustomID: panelID("pause"), Emoji: &discordgo.ComponentEmoji{Name: "⏸️"}, Disabled: !active}
	if snap.Paused() {
		toggle = discordgo.Button{Style: discordgo.SuccessButton, Label: "Resume", CustomID: panelID("resume"), Emoji: &discordgo.ComponentEmoji{Name: "▶️"}}
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		toggle,
		discordgo.Button{Style: discordgo.SecondaryButton, Label: "Skip", CustomID: panelID("skip"), Emoji: &discordgo.ComponentEmoji{Name: "⏭️"}, Disabled: !active},
		discordgo.Button{Style: discordgo.DangerButton, Label: "Leave", CustomID: panelID("leave"), Emoji: &discordgo.ComponentEmoji{Name: "⏹️"}, Disabled: !snap.Connected},
	}}
}

// ---------- varios ----------

// tierColor: color del embed según el prefijo del rango (Bronze, Silver...).
var tierColors = map[string]int{
	"un": 0x000000,
	"br": 0xAD5F20,
	"si": 0xA7A7A7,
	"go": 0xCEAF18,
	"pl": 0x7BCCCB,
	"di": 0x0859BC,
	"ch": 0x7108BC,
	"gr": 0xBC0839,
	"su": 0xBC08B7,
}

func tierColor(tier string) int {
	t := strings.ToLower(strings.TrimSpace(tier))
	if len(t) < 2 {
		return 0x000000
	}
	return tierColors[t[:2]]
}

func kindEmoji(k domain.Kind) string {
	switch k {
	case domain.KindTrack:
		return "🎵"
	case domain.KindPlaylist:
		return "📀"
	case domain.KindBook:
		return "📚"
	case domain.KindGameStat:
		return "🚗"
	case domain.KindVideo:
		return "📼"
	}
	return "💾"
}

func appendField(fs []*discordgo.MessageEmbedField, name, value string, inline bool) []*discordgo.MessageEmbedField {
	return append(fs, &discordgo.MessageEmbedField{Name: name, Value: orDash(value), Inline: inline})
}

func link(text, url string) string {
	if url == "" {
		return "**" + text + "**"
	}
	return "[" + text + "](" + url + ")"
}

// truncate corta en n runas y agrega "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// clip asegura len <= n runas (límites de Discord).
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func intOrDash(n int) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprint(n)
}

func durationSuffix(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return " `" + fmtDuration(d) + "`"
}

func fmtDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Round(time.Second).Seconds())
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s/60)%60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
