package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/exec"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/keshon/maestro/pkg/retrylimit"
)

const openAttempts = 2

// YouTubeProvider opens an audio stream for a watch URL and pipes it
// through ffmpeg to raw PCM. Transient open failures are retried under a
// shared adaptive limiter.
type YouTubeProvider struct {
	client *youtube.Client
	lim    *retrylimit.AdaptiveLimiter
}

func NewYouTube() *YouTubeProvider {
	return &YouTubeProvider{
		client: &youtube.Client{
			HTTPClient: &http.Client{Timeout: 15 * time.Second},
		},
		lim: retrylimit.NewAdaptiveLimiter(5, 1, 10, 1, 0.5),
	}
}

func (p *YouTubeProvider) Open(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	var out io.ReadCloser
	err := retrylimit.WithRetryMax(ctx, func() error {
		rc, err := p.open(ctx, sourceURL)
		if err != nil {
			return err
		}
		out = rc
		return nil
	}, p.lim, openAttempts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

func (p *YouTubeProvider) open(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	video, err := p.client.GetVideoContext(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("youtube client error: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, errors.New("no audio formats found for video")
	}

	src, _, err := p.client.GetStreamContext(ctx, video, &formats[0])
	if err != nil {
		return nil, fmt.Errorf("get stream error: %w", err)
	}

	log.Printf("[Stream] Opened source for %q, piping through ffmpeg", video.Title)

	ffmpeg := exec.CommandContext(ctx, "ffmpeg",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	ffmpeg.Stdin = src
	reader, err := ffmpeg.StdoutPipe()
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("ffmpeg stdout pipe error: %w", err)
	}

	if err := ffmpeg.Start(); err != nil {
		src.Close()
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return &pcmStream{
		Reader: reader,
		closeFn: func() error {
			src.Close()
			if ffmpeg.Process != nil {
				_ = ffmpeg.Process.Kill()
			}
			_ = ffmpeg.Wait()
			return nil
		},
	}, nil
}

// pcmStream bundles the ffmpeg stdout reader with process cleanup.
type pcmStream struct {
	io.Reader
	closeFn func() error
}

func (s *pcmStream) Close() error {
	return s.closeFn()
}
