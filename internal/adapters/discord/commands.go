package discord

import "github.com/bwmarrin/discordgo"

var (
	guildOnly = &[]discordgo.InteractionContextType{discordgo.InteractionContextGuild}

	manageMessages int64 = discordgo.PermissionManageMessages
	manageGuild    int64 = discordgo.PermissionManageGuild

	minClear float64 = 1
	minQueue float64 = 0
)

// ephemeralCommands responden sólo al que los ejecuta; el resto es público.
var ephemeralCommands = map[string]bool{
	"saved":      true,
	"nowplaying": true,
	"help":       true,
	"clear":      true,
	"settings":   true,
}

var musicCommands = []*discordgo.ApplicationCommand{
	{
		Name:        "play",
		Description: "Play a song from YouTube, or resume the queue",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "query",
			Description: "Song name or link (empty resumes)",
		}},
	},
	{Name: "pause", Description: "Pause the current song"},
	{Name: "resume", Description: "Resume the paused song"},
	{Name: "skip", Description: "Skip to the next song"},
	{Name: "queue", Description: "Show the queue"},
	{Name: "nowplaying", Description: "Post the now playing panel in this channel"},
	{Name: "join", Description: "Join your voice channel"},
	{Name: "leave", Description: "Leave the voice channel and clear the queue"},
}

var lookupCommands = []*discordgo.ApplicationCommand{
	{
		Name:        "weather",
		Description: "Current weather in a city",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "city",
			Description: "City name",
			Required:    true,
		}},
	},
	{
		Name:        "books",
		Description: "Search Google Books",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "query",
			Description: "Title, author or keywords",
			Required:    true,
		}},
	},
	{
		Name:        "rlstats",
		Description: "Rocket League ranked stats",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "nametag",
			Description: "Epic name",
			Required:    true,
		}},
	},
	{
		Name:        "saved",
		Description: "Your saved results",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "kind",
			Description: "Only this kind",
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Books", Value: "book"},
				{Name: "Tracks", Value: "track"},
				{Name: "Playlists", Value: "playlist"},
				{Name: "Rocket League", Value: "gamestat"},
				{Name: "Videos", Value: "video"},
			},
		}},
	},
	{
		Name:        "avatar",
		Description: "Show someone's avatar",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Whose avatar (default: yours)",
		}},
	},
	{Name: "help", Description: "List the commands"},
}

var adminCommands = []*discordgo.ApplicationCommand{
	{
		Name:                     "clear",
		Description:              "Delete recent messages in this channel",
		DefaultMemberPermissions: &manageMessages,
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "amount",
			Description: "How many (1-100)",
			Required:    true,
			MinValue:    &minClear,
			MaxValue:    100,
		}},
	},
	{
		Name:                     "settings",
		Description:              "Show or change the bot settings for this server",
		DefaultMemberPermissions: &manageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "show", Description: "Show the current settings"},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set",
				Description: "Change settings (only what you pass)",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "max_queue", Description: "Max pending songs (0 = unlimited)", MinValue: &minQueue, MaxValue: 500},
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "announce", Description: "Announce each song in the text channel"},
				},
			},
		},
	},
}

var spotifyCommand = &discordgo.ApplicationCommand{
	Name:        "spotify",
	Description: "Spotify: your music",
	Options: []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "toptracks", Description: "Your top tracks"},
		{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "recommendations", Description: "Tracks picked from your taste"},
		{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "myplaylists", Description: "Your playlists"},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "playlists",
			Description: "Public playlists of a Spotify user",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "user", Description: "Spotify user id", Required: true},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "createplaylist",
			Description: "Create a playlist from your top tracks and recommendations",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Playlist name"},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "search",
			Description: "Search tracks",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "query", Description: "What to look for", Required: true},
			},
		},
	},
}

// Commands arma el set a registrar; /spotify sólo si hay credenciales.
func Commands(spotify bool) []*discordgo.ApplicationCommand {
	var out []*discordgo.ApplicationCommand
	out = append(out, musicCommands...)
	out = append(out, lookupCommands...)
	if spotify {
		out = append(out, spotifyCommand)
	}
	out = append(out, adminCommands...)
	for _, c := range out {
		c.Contexts = guildOnly
	}
	return out
}
