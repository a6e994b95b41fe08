package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestParseTierFromEmojiName(t *testing.T) {
	cases := map[string]string{
		"bronze1":           "bronze1",
		"Diamond_3":         "diamond3",
		"rl_gc2":            "grandchampion2",
		"grand-champion-1":  "grandchampion1",
		"GrandChampion":     "grandchampion",
		"ssl":               "supersoniclegend",
		"supersonic_legend": "supersoniclegend",
		"plat2":             "platinum2",
		"champion3":         "champion3",
		"unranked":          "unranked",
	}
	for name, want := range cases {
		got, ok := parseTierFromEmojiName(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	for _, name := range []string{"pepega", "diamond4", "gold_10", "lvl3"} {
		_, ok := parseTierFromEmojiName(name)
		assert.False(t, ok, name)
	}
}

func TestTierKey(t *testing.T) {
	assert.Equal(t, "diamond2", tierKey("Diamond II"))
	assert.Equal(t, "grandchampion3", tierKey("Grand Champion III"))
	assert.Equal(t, "supersoniclegend", tierKey("Supersonic Legend"))
	assert.Equal(t, "", tierKey("  "))
}

func TestTierBadges(t *testing.T) {
	tb := newTierBadges()
	tb.learn("g1", []*discordgo.Emoji{
		{ID: "11", Name: "diamond2"},
		{ID: "12", Name: "champion"},
		{ID: "13", Name: "catjam"},
		nil,
	})
	assert.Equal(t, "<:diamond2:11>", tb.badge("g1", "Diamond II"))
	assert.Equal(t, "<:champion:12>", tb.badge("g1", "Champion III"))
	assert.Equal(t, "💎", tb.badge("g1", "Diamond I"))
	assert.Equal(t, "💎", tb.badge("other", "Diamond II"))
	assert.Equal(t, "", tb.badge("g1", ""))
}
