package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// userID funciona tanto en guilds (Member) como en DMs (User).
func userID(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}

// commandOptions aplana un nivel de subcomando.
func commandOptions(ic *discordgo.InteractionCreate) []*discordgo.ApplicationCommandInteractionDataOption {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	var out []*discordgo.ApplicationCommandInteractionDataOption
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			out = append(out, o.Options...)
			continue
		}
		out = append(out, o)
	}
	return out
}

func findOption(ic *discordgo.InteractionCreate, name string, t discordgo.ApplicationCommandOptionType) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	for _, o := range commandOptions(ic) {
		if o.Name == name && o.Type == t {
			return o, true
		}
	}
	return nil, false
}

func optStr(ic *discordgo.InteractionCreate, name string) (string, bool) {
	o, ok := findOption(ic, name, discordgo.ApplicationCommandOptionString)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(o.StringValue()), true
}

func optBool(ic *discordgo.InteractionCreate, name string) (bool, bool) {
	o, ok := findOption(ic, name, discordgo.ApplicationCommandOptionBoolean)
	if !ok {
		return false, false
	}
	return o.BoolValue(), true
}

func optInt(ic *discordgo.InteractionCreate, name string) (int, bool) {
	o, ok := findOption(ic, name, discordgo.ApplicationCommandOptionInteger)
	if !ok {
		return 0, false
	}
	return int(o.IntValue()), true
}

// optUser usa los datos resueltos de la interacción; no pega a la API.
func optUser(ic *discordgo.InteractionCreate, name string) (*discordgo.User, *discordgo.Member, bool) {
	o, ok := findOption(ic, name, discordgo.ApplicationCommandOptionUser)
	if !ok {
		return nil, nil, false
	}
	u := o.UserValue(nil)
	var m *discordgo.Member
	if res := ic.ApplicationCommandData().Resolved; res != nil {
		if ru, ok := res.Users[u.ID]; ok {
			u = ru
		}
		if rm, ok := res.Members[u.ID]; ok {
			m = rm
			m.User = u
		}
	}
	return u, m, true
}

func subcmdName(ic *discordgo.InteractionCreate) (string, bool) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return "", false
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			return o.Name, true
		}
	}
	return "", false
}
