package discord

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/nexus7-bot/internal/app/pager"
	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/domain"
)

func tracks(n int) []domain.ResultItem {
	out := make([]domain.ResultItem, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Track{ID: fmt.Sprintf("t%d", i), Name: fmt.Sprintf("Song %d", i), Artists: []string{"Band"}})
	}
	return out
}

func buttons(row discordgo.ActionsRow) []discordgo.Button {
	out := make([]discordgo.Button, 0, len(row.Components))
	for _, c := range row.Components {
		out = append(out, c.(discordgo.Button))
	}
	return out
}

func TestPagerRowFollowsPageState(t *testing.T) {
	p := pager.New(tracks(12), 5)
	bs := buttons(pagerRow(sid, p.Render()))
	require.Len(t, bs, 4)
	assert.Equal(t, "🤛🏻", bs[0].Emoji.Name)
	assert.Equal(t, "🤜🏻", bs[3].Emoji.Name)
	assert.True(t, bs[0].Disabled)
	assert.True(t, bs[1].Disabled)
	assert.False(t, bs[2].Disabled)
	assert.False(t, bs[3].Disabled)

	// cada botón lleva la página renderizada, no la destino
	c, err := parseCustomID(bs[2].CustomID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Page)
	assert.Equal(t, pager.Next, c.Action)

	p.Last()
	bs = buttons(pagerRow(sid, p.Render()))
	assert.False(t, bs[0].Disabled)
	assert.True(t, bs[2].Disabled)
	assert.True(t, bs[3].Disabled)
}

func TestPageEmbedNumbersGlobally(t *testing.T) {
	p := pager.New(tracks(7), 5)
	p.Next()
	e := pageEmbed("Top", colorSpotify, p.Render(), "Powered by Spotify")
	assert.Contains(t, e.Description, "**6.** ")
	assert.Contains(t, e.Description, "**7.** ")
	assert.NotContains(t, e.Description, "**1.** ")
	assert.Equal(t, "Page 2/2 · Powered by Spotify", e.Footer.Text)
	assert.Equal(t, colorSpotify, e.Color)
}

func TestPageEmbedEmpty(t *testing.T) {
	e := pageEmbed("Nada", colorDefault, pager.New(nil, 5).Render(), "")
	assert.Equal(t, "Nothing here.", e.Description)
	assert.Equal(t, "Page 1/1", e.Footer.Text)
	assert.Nil(t, e.Thumbnail)
}

func TestSelectRowMarksSelected(t *testing.T) {
	row, ok := selectRow(sid, "Pick", tracks(3), "t2")
	require.True(t, ok)
	menu := row.Components[0].(discordgo.SelectMenu)
	assert.Equal(t, selectID(sid), menu.CustomID)
	require.Len(t, menu.Options, 3)
	assert.False(t, menu.Options[0].Default)
	assert.True(t, menu.Options[1].Default)

	_, ok = selectRow(sid, "Pick", nil, "")
	assert.False(t, ok)
}

func TestSelectOptionsAreClipped(t *testing.T) {
	long := domain.Book{ID: "b", Title: strings.Repeat("á", 150)}
	row, ok := selectRow(sid, "Pick", []domain.ResultItem{long}, "")
	require.True(t, ok)
	opt := row.Components[0].(discordgo.SelectMenu).Options[0]
	assert.Equal(t, 100, len([]rune(opt.Label)))
}

func TestBookEmbed(t *testing.T) {
	b := domain.Book{
		Title:         "Dune",
		Authors:       []string{"Frank Herbert"},
		Description:   strings.Repeat("x", 250),
		PageCount:     412,
		AverageRating: 4.5,
		Language:      "en",
		Categories:    []string{"Fiction"},
	}
	e := bookEmbed(b, "quote")
	assert.Equal(t, strings.Repeat("x", 200)+"...", e.Description)
	assert.Equal(t, "Frank Herbert", e.Author.Name)
	assert.Equal(t, "quote", e.Footer.Text)

	fields := map[string]string{}
	for _, f := range e.Fields {
		fields[f.Name] = f.Value
	}
	assert.Equal(t, "412", fields["Pages"])
	assert.Equal(t, "-", fields["Published"])
	assert.Equal(t, "4.5 ⭐", fields["Rating"])
	assert.Equal(t, "EN", fields["Language"])
	assert.Equal(t, "-", fields["Publisher"])
}

func TestTierColor(t *testing.T) {
	assert.Equal(t, 0x0859BC, tierColor("Diamond II"))
	assert.Equal(t, 0xBC0839, tierColor("Grand Champion I"))
	assert.Equal(t, 0xBC08B7, tierColor("Supersonic Legend"))
	assert.Equal(t, 0xCEAF18, tierColor(" gold iii"))
	assert.Equal(t, 0x000000, tierColor(""))
	assert.Equal(t, 0x000000, tierColor("Unranked"))
}

func TestWeatherFooter(t *testing.T) {
	e := weatherEmbed(domain.Weather{City: "Lima", Country: "PE", Temp: 11, Clouds: 20})
	require.NotNil(t, e.Footer)
	assert.Equal(t, "Perfect time to play Skyrim!", e.Footer.Text)
	assert.Equal(t, "Weather in Lima, PE", e.Title)

	e = weatherEmbed(domain.Weather{City: "Cairo", Temp: 31, Clouds: 0})
	assert.Nil(t, e.Footer)
}

func snapshot(status playback.Status, cursor int, titles ...string) playback.Snapshot {
	s := playback.Snapshot{GuildID: "g1", Status: status, Cursor: cursor, ChannelID: "vc", Connected: status != playback.Idle}
	for i, title := range titles {
		s.Queue = append(s.Queue, playback.Entry{
			Video:       domain.Video{ID: fmt.Sprint(i), Title: title, Duration: 3 * time.Minute},
			RequestedBy: "u1",
		})
	}
	return s
}

func TestNowPlayingEmbed(t *testing.T) {
	e := nowPlayingEmbed(snapshot(playback.Paused, 1, "a", "b", "c", "d", "e", "f"))
	assert.Contains(t, e.Description, "b")
	up := e.Fields[len(e.Fields)-1]
	assert.Equal(t, "Up next", up.Name)
	assert.Contains(t, up.Value, "1. c")
	assert.Contains(t, up.Value, "…and 1 more")
	assert.Empty(t, e.Timestamp)

	e = nowPlayingEmbed(snapshot(playback.Idle, 0))
	assert.Equal(t, "🎶 Nothing playing", e.Title)
}

func TestPanelRow(t *testing.T) {
	bs := buttons(panelRow(snapshot(playback.Playing, 0, "a")))
	require.Len(t, bs, 3)
	assert.Equal(t, panelID("pause"), bs[0].CustomID)
	assert.False(t, bs[1].Disabled)

	bs = buttons(panelRow(snapshot(playback.Paused, 0, "a")))
	assert.Equal(t, panelID("resume"), bs[0].CustomID)

	bs = buttons(panelRow(snapshot(playback.Idle, 0)))
	assert.True(t, bs[0].Disabled)
	assert.True(t, bs[1].Disabled)
	assert.True(t, bs[2].Disabled)
}

func TestQueueItemsMarkers(t *testing.T) {
	items := queueItems(snapshot(playback.Playing, 1, "a", "b", "c"))
	require.Len(t, items, 3)
	assert.Equal(t, "✔️", items[0].(queueItem).marker())
	assert.Equal(t, "▶️", items[1].(queueItem).marker())
	assert.Equal(t, "⏳", items[2].(queueItem).marker())
	assert.Equal(t, "3", items[2].ItemID())

	// cola terminada: todo queda como historial
	items = queueItems(snapshot(playback.Idle, 3, "a", "b", "c"))
	for _, it := range items {
		assert.Equal(t, "✔️", it.(queueItem).marker())
	}
}

func TestFmtDurationAndTruncate(t *testing.T) {
	assert.Equal(t, "3:05", fmtDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "1:02:03", fmtDuration(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "0:00", fmtDuration(-time.Second))
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...", truncate("abcd", 2))
	assert.Equal(t, "ab…", clip("abcd", 3))
}

func TestHelpListsSubcommands(t *testing.T) {
	e := helpEmbed(Commands(true))
	assert.Contains(t, e.Description, "`/spotify`")
	assert.Contains(t, e.Description, "`toptracks`")
	assert.NotContains(t, helpEmbed(Commands(false)).Description, "/spotify")
}

func TestBulkDeletableSkipsOldMessages(t *testing.T) {
	now := time.Now()
	msgs := []*discordgo.Message{
		{ID: "1", Timestamp: now.Add(-time.Hour)},
		{ID: "2", Timestamp: now.Add(-15 * 24 * time.Hour)},
		nil,
		{ID: "3", Timestamp: now.Add(-13 * 24 * time.Hour)},
	}
	assert.Equal(t, []string{"1", "3"}, bulkDeletable(msgs, now))
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, isAdmin(discordgo.PermissionAdministrator, nil, nil))
	assert.True(t, isAdmin(0, []string{"r1", "r2"}, []string{"r2"}))
	assert.False(t, isAdmin(discordgo.PermissionManageMessages, []string{"r1"}, []string{"r9"}))
	assert.False(t, isAdmin(0, []string{"r1"}, nil))

	roles := []*discordgo.Role{{ID: "r1", Permissions: discordgo.PermissionAdministrator}, {ID: "r2"}}
	assert.Equal(t, int64(discordgo.PermissionAdministrator), rolePermissions(roles, []string{"r1"}))
	assert.Zero(t, rolePermissions(roles, []string{"r2"}))
}
