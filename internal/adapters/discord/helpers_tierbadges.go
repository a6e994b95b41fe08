package discord

import (
	"regexp"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Badges de rango de Rocket League: emojis custom del guild descubiertos por nombre
// (bronze1, diamond_3, rl_gc2, ssl...). Sin emoji cae a un fallback unicode.

var tierAliases = map[string]string{
	"gc":                "grandchampion",
	"grand_champion":    "grandchampion",
	"ssl":               "supersoniclegend",
	"supersonic_legend": "supersoniclegend",
	"plat":              "platinum",
	"champ":             "champion",
}

var emojiTierRe = regexp.MustCompile(`^(?:rl_?)?(unranked|bronze|silver|gold|plat|platinum|diamond|champ|champion|grand_?champion|gc|supersonic_?legend|ssl)_?([1-3])?$`)

// parseTierFromEmojiName devuelve la clave normalizada ("diamond3", "supersoniclegend").
func parseTierFromEmojiName(name string) (string, bool) {
	name = strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	m := emojiTierRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	base := m[1]
	if a, ok := tierAliases[base]; ok {
		base = a
	}
	base = strings.ReplaceAll(base, "_", "")
	return base + m[2], true
}

var romanDivision = map[string]string{"i": "1", "ii": "2", "iii": "3"}

// tierKey normaliza el nombre que manda el tracker ("Grand Champion II" -> "grandchampion2").
func tierKey(tier string) string {
	fs := strings.Fields(strings.ToLower(tier))
	if len(fs) == 0 {
		return ""
	}
	if n, ok := romanDivision[fs[len(fs)-1]]; ok {
		return strings.Join(fs[:len(fs)-1], "") + n
	}
	return strings.Join(fs, "")
}

var tierFallback = map[string]string{
	"unranked":         "⚫",
	"bronze":           "🟤",
	"silver":           "⚪",
	"gold":             "🟡",
	"platinum":         "🔷",
	"diamond":          "💎",
	"champion":         "🟣",
	"grandchampion":    "🔴",
	"supersoniclegend": "🌟",
}

type tierBadges struct {
	mu     sync.RWMutex
	guilds map[string]map[string]string
}

func newTierBadges() *tierBadges {
	return &tierBadges{guilds: map[string]map[string]string{}}
}

// learn reemplaza los badges conocidos del guild con sus emojis actuales.
func (t *tierBadges) learn(guildID string, emojis []*discordgo.Emoji) {
	m := map[string]string{}
	for _, e := range emojis {
		if e == nil || e.ID == "" {
			continue
		}
		if key, ok := parseTierFromEmojiName(e.Name); ok {
			m[key] = e.MessageFormat()
		}
	}
	t.mu.Lock()
	t.guilds[guildID] = m
	t.mu.Unlock()
}

func (t *tierBadges) badge(guildID, tier string) string {
	key := tierKey(tier)
	if key == "" {
		return ""
	}
	t.mu.RLock()
	m := t.guilds[guildID]
	v, ok := m[key]
	if !ok {
		// un solo emoji por rango (sin división) también sirve
		v, ok = m[strings.TrimRight(key, "123")]
	}
	t.mu.RUnlock()
	if ok {
		return v
	}
	return tierFallback[strings.TrimRight(key, "123")]
}
