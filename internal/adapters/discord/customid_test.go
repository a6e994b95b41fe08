package discord

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/nexus7-bot/internal/app/pager"
)

const sid = "0b9c1e6e-6a43-4c55-9d7e-2f4a5d8c7b10"

func TestCustomIDRoundTrip(t *testing.T) {
	c, err := parseCustomID(pageID(sid, pager.Next, 3))
	require.NoError(t, err)
	assert.Equal(t, cidPage, c.Prefix)
	assert.Equal(t, sid, c.SID)
	assert.Equal(t, pager.Next, c.Action)
	assert.Equal(t, 3, c.Page)

	c, err = parseCustomID(selectID(sid))
	require.NoError(t, err)
	assert.Equal(t, cidSelect, c.Prefix)
	assert.Equal(t, sid, c.SID)

	// los ids de guardados traen ':' (kind:key)
	c, err = parseCustomID(saveID(sid, "book:zyTCAlFPjgYC"))
	require.NoError(t, err)
	assert.Equal(t, sid, c.SID)
	assert.Equal(t, "book:zyTCAlFPjgYC", c.ItemID)

	c, err = parseCustomID(panelID("skip"))
	require.NoError(t, err)
	assert.Equal(t, "skip", c.Panel)
}

func TestCustomIDsFitDiscordLimit(t *testing.T) {
	assert.LessOrEqual(t, len(pageID(sid, pager.First, 999)), maxCustomID)
	assert.Empty(t, saveID(sid, strings.Repeat("x", 80)))
}

func TestParseCustomIDRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		"",
		"queue_join",
		"pg:" + sid,
		"pg:" + sid + ":sideways:1",
		"pg:" + sid + ":next:0",
		"pg:" + sid + ":next:x",
		"sv:" + sid,
		"sv::item",
		"zz:whatever",
	} {
		_, err := parseCustomID(raw)
		assert.ErrorIs(t, err, errBadCustomID, raw)
	}
}
