package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

const resolveTimeout = 30 * time.Second

// runner ejecuta un binario y devuelve stdout; stderr va en el error.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &ExecError{Bin: name, Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	return stdout.Bytes(), nil
}

type ExecError struct {
	Bin    string
	Err    error
	Stderr string
}

func (e *ExecError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Bin, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Bin, e.Err, e.Stderr)
}
func (e *ExecError) Unwrap() error { return e.Err }

// YtDlp resuelve una URL de video a metadata + URL directa de audio.
type YtDlp struct {
	path string
	run  runner
	log  *zap.Logger
}

func NewYtDlp(path string, log *zap.Logger) *YtDlp {
	if path == "" {
		path = "yt-dlp"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &YtDlp{path: path, run: execRunner, log: log}
}

type ytInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	URL         string  `json:"url"`
	WebpageURL  string  `json:"webpage_url"`
	Thumbnail   string  `json:"thumbnail"`
	IsLive      bool    `json:"is_live"`
}

func (y *YtDlp) Resolve(ctx context.Context, url string) (domain.Video, error) {
	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	start := time.Now()
	out, err := y.run(ctx, y.path,
		"-j", "--no-playlist", "--no-warnings",
		"-f", "bestaudio[acodec=opus]/bestaudio/best",
		url)
	if err != nil {
		var ee *ExecError
		if errors.As(err, &ee) && unavailable(ee.Stderr) {
			return domain.Video{}, fmt.Errorf("%s: %w", url, domain.ErrNotFound)
		}
		return domain.Video{}, err
	}
	v, err := parseInfo(out)
	if err != nil {
		return domain.Video{}, err
	}
	y.log.Debug("resolved video", zap.String("id", v.ID), zap.Duration("took", time.Since(start)))
	return v, nil
}

func parseInfo(b []byte) (domain.Video, error) {
	var in ytInfo
	if err := json.Unmarshal(b, &in); err != nil {
		return domain.Video{}, fmt.Errorf("yt-dlp json: %w", err)
	}
	if in.URL == "" {
		return domain.Video{}, errors.New("yt-dlp: no playable format")
	}
	return domain.Video{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Duration:    time.Duration(in.Duration * float64(time.Second)),
		StreamURL:   in.URL,
		PageURL:     in.WebpageURL,
		Thumbnail:   in.Thumbnail,
	}, nil
}

func unavailable(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "video unavailable") ||
		strings.Contains(s, "private video") ||
		strings.Contains(s, "is not a valid url") ||
		strings.Contains(s, "unsupported url")
}
