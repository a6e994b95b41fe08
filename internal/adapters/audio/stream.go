package audio

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

type packetSource interface {
	Next() ([]byte, error)
}

// stream implementa playback.Stream sobre un pump de paquetes opus.
type stream struct {
	paused atomic.Bool
	wake   chan struct{}
	stop   chan struct{}
	once   sync.Once
	done   chan error
}

func newStream() *stream {
	return &stream{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan error, 1),
	}
}

func (s *stream) Pause() { s.paused.Store(true) }

func (s *stream) Resume() {
	s.paused.Store(false)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *stream) Stop()              { s.once.Do(func() { close(s.stop) }) }
func (s *stream) Done() <-chan error { return s.done }

func (s *stream) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// pump manda paquetes a out hasta EOF (natural=true), Stop o error de lectura.
// Mientras está en pausa no lee ni envía nada.
func (s *stream) pump(first []byte, src packetSource, out chan<- []byte) (natural bool, err error) {
	pkt := first
	for {
		for s.paused.Load() {
			select {
			case <-s.wake:
			case <-s.stop:
				return false, nil
			}
		}
		select {
		case out <- pkt:
		case <-s.stop:
			return false, nil
		}
		pkt, err = src.Next()
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
	}
}
