package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

const (
	teardownTimeout = 5 * time.Second
	// tope por intento de arranque cuando el loop avanza solo.
	advanceTimeout = 20 * time.Second
)

type op struct {
	ctx   context.Context
	fn    func(ctx context.Context) error
	reply chan error
}

// trackEnded llega desde la goroutine que mira el stream; gen descarta avisos viejos.
type trackEnded struct {
	gen uint64
	err error
}

// Session es el dueño único del estado de reproducción de un guild.
// Todo cambio pasa por el loop (ops + ended), así que no hay locks sobre el estado.
type Session struct {
	guildID  string
	voice    Voice
	presence Presence
	obs      Observer
	log      *zap.Logger

	ops   chan op
	ended chan trackEnded
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once

	// ctx de vida de la sesión: lo usan los avances automáticos.
	ctx    context.Context
	cancel context.CancelFunc

	advanceTimeout time.Duration

	snap atomic.Pointer[Snapshot]

	// sólo el loop
	status Status
	queue  []Entry
	cursor int
	conn   Conn
	stream Stream
	gen    uint64
}

func newSession(guildID string, voice Voice, presence Presence, obs Observer, log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		guildID:  guildID,
		voice:    voice,
		presence: presence,
		obs:      obs,
		log:      log.With(zap.String("guild", guildID)),
		ops:      make(chan op),
		ended:    make(chan trackEnded),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,

		advanceTimeout: advanceTimeout,
	}
	s.publish()
	go s.run()
	return s
}

func (s *Session) GuildID() string { return s.guildID }

// Snapshot no pasa por el loop: devuelve la última foto publicada.
func (s *Session) Snapshot() Snapshot { return *s.snap.Load() }

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case o := <-s.ops:
			o.reply <- o.fn(o.ctx)
		case ev := <-s.ended:
			s.onTrackEnded(ev)
		case <-s.quit:
			s.teardown()
			return
		}
	}
}

func (s *Session) do(ctx context.Context, fn func(ctx context.Context) error) error {
	reply := make(chan error, 1)
	select {
	case s.ops <- op{ctx: ctx, fn: fn, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return domain.ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close corta el stream, desconecta y termina el loop.
// Cancela primero el ctx de vida para destrabar un arranque en curso.
func (s *Session) Close() {
	s.once.Do(func() { close(s.quit) })
	s.cancel()
	<-s.done
}

// Enqueue agrega e. Si el guild está Idle arranca a sonar; si el arranque falla
// la cola queda como estaba y se devuelve el error (ConnectError / StreamError).
// limit > 0 acota las entradas pendientes.
func (s *Session) Enqueue(ctx context.Context, e Entry, limit int) error {
	return s.do(ctx, func(ctx context.Context) error {
		if limit > 0 && len(s.queue)-s.cursor >= limit {
			return domain.ErrQueueFull
		}
		if s.status == Playing || s.status == Paused {
			s.queue = append(s.queue, e)
			s.publish()
			s.emit(EventQueued, &e, nil)
			return nil
		}

		// Idle: con la cola agotada el cursor ya apunta a la entrada nueva.
		prev, prevCursor := len(s.queue), s.cursor
		s.queue = append(s.queue, e)
		if err := s.start(ctx); err != nil {
			s.queue = s.queue[:prev]
			s.cursor = prevCursor
			s.publish()
			return err
		}
		return nil
	})
}

// Start reanuda si está en pausa o arranca lo pendiente.
func (s *Session) Start(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) error {
		switch s.status {
		case Playing:
			return nil
		case Paused:
			return s.resume()
		}
		if s.cursor >= len(s.queue) {
			return domain.ErrQueueEmpty
		}
		return s.start(ctx)
	})
}

func (s *Session) Pause(ctx context.Context) error {
	return s.do(ctx, func(context.Context) error {
		if s.status != Playing {
			return domain.ErrNotPlaying
		}
		s.stream.Pause()
		s.status = Paused
		s.publish()
		s.emit(EventPaused, s.currentEntry(), nil)
		return nil
	})
}

func (s *Session) Resume(ctx context.Context) error {
	return s.do(ctx, func(context.Context) error { return s.resume() })
}

func (s *Session) resume() error {
	if s.status != Paused {
		return domain.ErrNotPaused
	}
	s.stream.Resume()
	s.status = Playing
	s.publish()
	s.emit(EventResumed, s.currentEntry(), nil)
	return nil
}

// Skip corta el actual y avanza.
func (s *Session) Skip(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) error {
		if s.status != Playing && s.status != Paused {
			return domain.ErrNotPlaying
		}
		s.stopStream()
		s.advance(ctx)
		return nil
	})
}

// Join conecta (o mueve) el bot al canal sin tocar la cola.
func (s *Session) Join(ctx context.Context, channelID string) error {
	return s.do(ctx, func(ctx context.Context) error {
		if s.conn != nil {
			if s.conn.ChannelID() == channelID {
				return nil
			}
			if err := s.conn.Move(ctx, channelID); err != nil {
				return &domain.ConnectError{ChannelID: channelID, Err: err}
			}
			s.publish()
			return nil
		}
		c, err := s.voice.Connect(ctx, s.guildID, channelID)
		if err != nil {
			return &domain.ConnectError{ChannelID: channelID, Err: err}
		}
		s.conn = c
		s.publish()
		return nil
	})
}

// Leave vacía la cola, resetea el cursor y suelta la conexión.
func (s *Session) Leave(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) error {
		if s.conn == nil && len(s.queue) == 0 {
			return domain.ErrNotConnected
		}
		s.reset(ctx)
		return nil
	})
}

// VoiceStateChanged aplica la regla de "solo en el canal". Devuelve true si se fue.
func (s *Session) VoiceStateChanged(ctx context.Context) (bool, error) {
	var left bool
	err := s.do(ctx, func(ctx context.Context) error {
		if s.conn == nil {
			return nil
		}
		n, inVoice := s.presence.Occupants(s.guildID)
		if inVoice && n > 0 {
			return nil
		}
		s.log.Info("alone in voice channel, leaving", zap.Int("occupants", n), zap.Bool("in_voice", inVoice))
		s.reset(ctx)
		left = true
		return nil
	})
	return left, err
}

// ---- internos (sólo desde el loop) ----

func (s *Session) start(ctx context.Context) error {
	e := s.queue[s.cursor]
	s.status = Connecting
	s.publish()

	fresh := false
	prevChannel := ""
	if s.conn == nil {
		c, err := s.voice.Connect(ctx, s.guildID, e.ChannelID)
		if err != nil {
			s.status = Idle
			s.publish()
			return &domain.ConnectError{ChannelID: e.ChannelID, Err: err}
		}
		s.conn = c
		fresh = true
	} else if e.ChannelID != "" && s.conn.ChannelID() != e.ChannelID {
		prevChannel = s.conn.ChannelID()
		if err := s.conn.Move(ctx, e.ChannelID); err != nil {
			s.status = Idle
			s.publish()
			return &domain.ConnectError{ChannelID: e.ChannelID, Err: err}
		}
	}

	if err := s.playCurrent(ctx); err != nil {
		switch {
		case fresh:
			s.disconnect(ctx)
		case prevChannel != "":
			s.moveBack(ctx, prevChannel)
		}
		s.status = Idle
		s.publish()
		return err
	}
	return nil
}

// moveBack deshace el Move de un arranque fallido; ctx puede venir vencido.
func (s *Session) moveBack(ctx context.Context, channelID string) {
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()
	if err := s.conn.Move(mctx, channelID); err != nil {
		s.log.Warn("move back failed", zap.String("channel", channelID), zap.Error(err))
	}
}

func (s *Session) playCurrent(ctx context.Context) error {
	e := s.queue[s.cursor]
	st, err := s.conn.Play(ctx, e.Video)
	if err != nil {
		return &domain.StreamError{Title: e.Video.Title, Err: err}
	}
	s.gen++
	s.stream = st
	s.status = Playing
	s.publish()
	s.emit(EventStarted, &e, nil)
	s.watch(s.gen, st)
	return nil
}

// watch pasa el fin del stream al loop por canal: nunca toca estado desde otra goroutine.
func (s *Session) watch(gen uint64, st Stream) {
	go func() {
		var err error
		select {
		case err = <-st.Done():
		case <-s.quit:
			return
		}
		select {
		case s.ended <- trackEnded{gen: gen, err: err}:
		case <-s.quit:
		}
	}()
}

func (s *Session) onTrackEnded(ev trackEnded) {
	if ev.gen != s.gen || s.stream == nil {
		return
	}
	s.stream = nil
	if ev.err != nil {
		s.log.Warn("stream ended with error", zap.Error(ev.err))
	}
	s.advance(s.ctx)
}

// advance mueve el cursor; al pasarse del final queda Idle y la cola se guarda como historial.
func (s *Session) advance(ctx context.Context) {
	for {
		s.cursor++
		if s.cursor >= len(s.queue) {
			s.cursor = len(s.queue)
			s.status = Idle
			s.publish()
			s.emit(EventFinished, nil, nil)
			return
		}
		e := s.queue[s.cursor]
		err := s.tryPlay(ctx, e)
		if err == nil {
			return
		}
		s.log.Warn("skipping unplayable entry", zap.String("title", e.Video.Title), zap.Error(err))
		s.emit(EventFailed, &e, err)
	}
}

// tryPlay acota cada intento (Move + Play): uno colgado no puede trabar el loop.
func (s *Session) tryPlay(ctx context.Context, e Entry) error {
	pctx, cancel := context.WithTimeout(ctx, s.advanceTimeout)
	defer cancel()
	if e.ChannelID != "" && s.conn.ChannelID() != e.ChannelID {
		if err := s.conn.Move(pctx, e.ChannelID); err != nil {
			s.log.Warn("move failed, staying", zap.String("channel", e.ChannelID), zap.Error(err))
		}
	}
	return s.playCurrent(pctx)
}

func (s *Session) stopStream() {
	s.gen++
	if s.stream != nil {
		s.stream.Stop()
		s.stream = nil
	}
}

func (s *Session) disconnect(ctx context.Context) {
	if s.conn == nil {
		return
	}
	if err := s.conn.Disconnect(ctx); err != nil {
		s.log.Warn("voice disconnect", zap.Error(err))
	}
	s.conn = nil
}

func (s *Session) reset(ctx context.Context) {
	s.stopStream()
	s.queue = nil
	s.cursor = 0
	s.status = Idle
	s.disconnect(ctx)
	s.publish()
	s.emit(EventLeft, nil, nil)
}

func (s *Session) teardown() {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	s.stopStream()
	s.disconnect(ctx)
}

func (s *Session) currentEntry() *Entry {
	if s.cursor >= len(s.queue) {
		return nil
	}
	e := s.queue[s.cursor]
	return &e
}

func (s *Session) publish() {
	q := make([]Entry, len(s.queue))
	copy(q, s.queue)
	snap := &Snapshot{
		GuildID:   s.guildID,
		Status:    s.status,
		Queue:     q,
		Cursor:    s.cursor,
		Connected: s.conn != nil,
		UpdatedAt: time.Now(),
	}
	if s.conn != nil {
		snap.ChannelID = s.conn.ChannelID()
	}
	s.snap.Store(snap)
}

func (s *Session) emit(kind EventKind, e *Entry, err error) {
	s.obs.PlaybackEvent(Event{Kind: kind, Snapshot: s.Snapshot(), Entry: e, Err: err})
}
