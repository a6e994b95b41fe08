package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("session expired")
	ErrBusy         = errors.New("interaction in progress")
	ErrForbidden    = errors.New("not the session owner")
	ErrAlreadySaved = errors.New("already saved")

	ErrNotConnected = errors.New("not connected to voice")
	ErrNotPlaying   = errors.New("nothing is playing")
	ErrNotPaused    = errors.New("playback is not paused")
	ErrQueueEmpty   = errors.New("queue is empty")
	ErrQueueFull    = errors.New("queue is full")
	ErrNoVoice      = errors.New("user not in a voice channel")
	ErrClosed       = errors.New("playback session closed")
)

// FetchError: falla del upstream (timeout, 5xx, json roto).
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Source, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

type ConnectError struct {
	ChannelID string
	Err       error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("voice connect %s: %v", e.ChannelID, e.Err)
}
func (e *ConnectError) Unwrap() error { return e.Err }

type StreamError struct {
	Title string
	Err   error
}

func (e *StreamError) Error() string { return fmt.Sprintf("stream %q: %v", e.Title, e.Err) }
func (e *StreamError) Unwrap() error { return e.Err }
