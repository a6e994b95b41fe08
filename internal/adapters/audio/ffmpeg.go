package audio

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// Preset: parámetros de salida de ffmpeg. Discord pide opus 48kHz estéreo en frames de 20ms.
type Preset struct {
	Bitrate    string
	SampleRate int
	Channels   int
	FrameMS    int
	ExtraArgs  []string
}

var DefaultPreset = Preset{Bitrate: "96k", SampleRate: 48000, Channels: 2, FrameMS: 20}

// Args arma la línea de ffmpeg para leer src y escribir ogg/opus por stdout.
func (p Preset) Args(src string) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if strings.HasPrefix(src, "http") {
		args = append(args, "-reconnect", "1", "-reconnect_streamed", "1", "-reconnect_delay_max", "5")
	}
	args = append(args, "-i", src, "-vn", "-map", "0:a:0", "-c:a", "libopus")
	if p.Bitrate != "" {
		args = append(args, "-b:a", p.Bitrate)
	}
	if p.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(p.SampleRate))
	}
	if p.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(p.Channels))
	}
	if p.FrameMS > 0 {
		args = append(args, "-frame_duration", strconv.Itoa(p.FrameMS), "-page_duration", strconv.Itoa(p.FrameMS*1000))
	}
	args = append(args, p.ExtraArgs...)
	return append(args, "-f", "ogg", "pipe:1")
}

// Transcoder lanza ffmpeg por track.
type Transcoder struct {
	Path   string
	Preset Preset
}

// transcode es un ffmpeg corriendo; Close lo mata y espera.
type transcode struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	cancel context.CancelFunc
	once   sync.Once
	err    error
}

// Start no usa el ctx del pedido: el proceso vive lo que dure el track.
func (t Transcoder) Start(src string) (*transcode, error) {
	path := t.Path
	if path == "" {
		path = "ffmpeg"
	}
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, path, t.Preset.Args(src)...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	out, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, &ExecError{Bin: path, Err: err}
	}
	return &transcode{cmd: cmd, stdout: out, stderr: stderr, cancel: cancel}, nil
}

func (tc *transcode) Read(p []byte) (int, error) { return tc.stdout.Read(p) }

// Wait espera la salida natural (después de leer EOF).
func (tc *transcode) Wait() error { return tc.stop(false) }

// Close mata ffmpeg; el error de salida por kill no se reporta.
func (tc *transcode) Close() error { return tc.stop(true) }

func (tc *transcode) stop(kill bool) error {
	tc.once.Do(func() {
		if kill {
			tc.cancel()
		}
		err := tc.cmd.Wait()
		tc.cancel()
		if err != nil && !kill {
			tc.err = &ExecError{Bin: tc.cmd.Path, Err: err, Stderr: strings.TrimSpace(tc.stderr.String())}
		}
	})
	return tc.err
}
