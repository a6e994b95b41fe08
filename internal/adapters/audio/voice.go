package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/app/playback"
	"github.com/jose-valero/nexus7-bot/internal/domain"
)

var errEmptyStream = errors.New("ffmpeg: empty audio stream")

// Voice implementa playback.Voice con discordgo + ffmpeg.
type Voice struct {
	s   *discordgo.Session
	tc  Transcoder
	log *zap.Logger
}

func NewVoice(s *discordgo.Session, tc Transcoder, log *zap.Logger) *Voice {
	if log == nil {
		log = zap.NewNop()
	}
	return &Voice{s: s, tc: tc, log: log}
}

type joinResult struct {
	vc  *discordgo.VoiceConnection
	err error
}

func (v *Voice) Connect(ctx context.Context, guildID, channelID string) (playback.Conn, error) {
	// ChannelVoiceJoin no acepta ctx: si el ctx vence primero, la conexión
	// que llegue tarde se suelta en background.
	ch := make(chan joinResult, 1)
	go func() {
		vc, err := v.s.ChannelVoiceJoin(guildID, channelID, false, true)
		ch <- joinResult{vc: vc, err: err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			if r.vc != nil {
				_ = r.vc.Disconnect()
			}
			return nil, r.err
		}
		v.log.Info("voice connected", zap.String("guild", guildID), zap.String("channel", channelID))
		return &conn{v: v, vc: r.vc, guildID: guildID, channelID: channelID}, nil
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.vc != nil {
				_ = r.vc.Disconnect()
			}
		}()
		return nil, ctx.Err()
	}
}

type conn struct {
	v       *Voice
	vc      *discordgo.VoiceConnection
	guildID string

	mu        sync.Mutex
	channelID string
}

func (c *conn) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelID
}

func (c *conn) Move(_ context.Context, channelID string) error {
	if err := c.vc.ChangeChannel(channelID, false, true); err != nil {
		return err
	}
	c.mu.Lock()
	c.channelID = channelID
	c.mu.Unlock()
	return nil
}

func (c *conn) Disconnect(context.Context) error {
	c.v.log.Info("voice disconnected", zap.String("guild", c.guildID))
	return c.vc.Disconnect()
}

type firstPacket struct {
	p   []byte
	err error
}

// Play arranca ffmpeg y espera el primer paquete: si no llega, el track no arranca.
func (c *conn) Play(ctx context.Context, v domain.Video) (playback.Stream, error) {
	if v.StreamURL == "" {
		return nil, fmt.Errorf("%s: no stream url", v.ID)
	}
	tc, err := c.v.tc.Start(v.StreamURL)
	if err != nil {
		return nil, err
	}
	src := newOpusReader(bufio.NewReaderSize(tc, 16<<10))

	ch := make(chan firstPacket, 1)
	go func() {
		p, err := src.Next()
		ch <- firstPacket{p: p, err: err}
	}()

	var first []byte
	select {
	case <-ctx.Done():
		_ = tc.Close()
		return nil, ctx.Err()
	case r := <-ch:
		if errors.Is(r.err, io.EOF) {
			if werr := tc.Wait(); werr != nil {
				return nil, werr
			}
			return nil, errEmptyStream
		}
		if r.err != nil {
			_ = tc.Close()
			return nil, r.err
		}
		first = r.p
	}

	st := newStream()
	go func() {
		_ = c.vc.Speaking(true)
		natural, err := st.pump(first, src, c.vc.OpusSend)
		_ = c.vc.Speaking(false)
		if natural {
			err = tc.Wait()
		} else {
			_ = tc.Close()
		}
		if err != nil {
			c.v.log.Warn("stream ended with error", zap.String("guild", c.guildID), zap.String("video", v.ID), zap.Error(err))
		}
		st.done <- err
	}()
	return st, nil
}

// Presence cuenta humanos en el canal de voz del bot usando el state cache.
type Presence struct {
	s *discordgo.Session
}

func NewPresence(s *discordgo.Session) *Presence { return &Presence{s: s} }

func (p *Presence) Occupants(guildID string) (int, bool) {
	if p.s.State == nil || p.s.State.User == nil {
		return 0, false
	}
	g, err := p.s.State.Guild(guildID)
	if err != nil {
		return 0, false
	}
	p.s.State.RLock()
	states := append([]*discordgo.VoiceState(nil), g.VoiceStates...)
	p.s.State.RUnlock()

	return countHumans(states, p.s.State.User.ID, func(userID string) bool {
		m, err := p.s.State.Member(guildID, userID)
		return err == nil && m.User != nil && m.User.Bot
	})
}

// countHumans: ocupantes no-bot del canal donde está botID. inVoice=false si el bot no está en voz.
func countHumans(states []*discordgo.VoiceState, botID string, isBot func(userID string) bool) (int, bool) {
	var channel string
	for _, vs := range states {
		if vs.UserID == botID {
			channel = vs.ChannelID
			break
		}
	}
	if channel == "" {
		return 0, false
	}
	n := 0
	for _, vs := range states {
		if vs.ChannelID != channel || vs.UserID == botID {
			continue
		}
		if vs.Member != nil && vs.Member.User != nil {
			if vs.Member.User.Bot {
				continue
			}
		} else if isBot != nil && isBot(vs.UserID) {
			continue
		}
		n++
	}
	return n, true
}
