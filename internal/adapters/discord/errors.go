package discord

import (
	"context"
	"errors"

	"github.com/jose-valero/nexus7-bot/internal/app/service"
	"github.com/jose-valero/nexus7-bot/internal/domain"
)

var sentinelMessages = []struct {
	err error
	msg string
}{
	{domain.ErrExpired, "⌛ This menu expired. Run the command again."},
	{domain.ErrForbidden, "🔒 Only the person who ran the command can use these controls."},
	{domain.ErrBusy, "⏳ Still working on your last click…"},
	{domain.ErrAlreadySaved, "💾 You already saved that one."},
	{domain.ErrNotConnected, "🔇 I'm not in a voice channel."},
	{domain.ErrNotPlaying, "⏹️ Nothing is playing right now."},
	{domain.ErrNotPaused, "▶️ Playback is not paused."},
	{domain.ErrQueueEmpty, "📭 The queue is empty. Use `/play` with a song name."},
	{domain.ErrQueueFull, "📛 The queue is full for this server."},
	{domain.ErrNoVoice, "🎧 Join a voice channel first."},
	{domain.ErrClosed, "🛑 Playback is shutting down, try again in a moment."},
	{service.ErrSpotifyDisabled, "🎵 Spotify is not configured on this bot."},
}

// userMessage traduce un error a un mensaje corto; cada clase tiene el suyo.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, service.ErrInvalidSetting) {
		return "⚠️ " + err.Error()
	}
	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	var (
		ce *domain.ConnectError
		se *domain.StreamError
		fe *domain.FetchError
	)
	switch {
	case errors.As(err, &ce):
		return "🔌 I couldn't join your voice channel. Check my permissions and try again."
	case errors.As(err, &se):
		return "📼 I couldn't play that track. Try another one."
	case errors.Is(err, domain.ErrNotFound):
		return "🔎 Nothing found."
	case errors.As(err, &fe):
		return "🌐 " + sourceName(fe.Source) + " is not responding right now. Try again later."
	case errors.Is(err, context.DeadlineExceeded):
		return "⏱️ That took too long. Try again."
	}
	return "⚠️ Something went wrong."
}

// resultLabel clasifica el error para la métrica de interacciones.
func resultLabel(err error) string {
	var fe *domain.FetchError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrExpired):
		return "expired"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.As(err, &fe):
		return "upstream"
	}
	return "error"
}

func sourceName(src string) string {
	switch src {
	case "weather":
		return "The weather service"
	case "books":
		return "Google Books"
	case "rlstats":
		return "Rocket League tracker"
	case "spotify":
		return "Spotify"
	case "youtube":
		return "YouTube"
	}
	return "The upstream service"
}
