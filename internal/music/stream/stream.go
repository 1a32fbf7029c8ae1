// Package stream acquires live PCM audio for a track's source URL.
// All streams are 48kHz stereo s16le, the format the transport encodes
// from.
package stream

import (
	"context"
	"errors"
	"io"
)

const (
	channels   = 2
	sampleRate = 48000
)

var ErrUnavailable = errors.New("stream unavailable")

// Provider opens a live byte stream for a source URL. Each call may fail
// independently; the player treats a failure as a dropped track.
type Provider interface {
	Open(ctx context.Context, sourceURL string) (io.ReadCloser, error)
}
