// Package transport owns the live media channel to a guild's voice
// endpoint: joining, streaming opus frames into it, and reporting
// connection health back to the player.
package transport

import (
	"context"
	"io"
)

type EventType int

const (
	// EventDisconnected signals the connection dropped unexpectedly.
	EventDisconnected EventType = iota
	// EventReconnecting signals the connection is negotiating its way back.
	EventReconnecting
)

type Event struct {
	Type      EventType
	ChannelID string
}

// Transport joins voice channels and hands out connections. One connection
// per guild; the caller owns it exclusively.
type Transport interface {
	Join(ctx context.Context, guildID, channelID string) (Connection, error)
}

// Connection is a live voice channel link. Play binds a PCM stream to it;
// Events delivers disconnect/recovery notifications; Destroy releases the
// link and closes the event stream.
type Connection interface {
	ChannelID() string
	Play(src io.ReadCloser, volume int) (PlayerHandle, error)
	Events() <-chan Event
	Destroy() error
}

// PlayerHandle controls one running playback. Done yields exactly one
// result: nil on natural end of stream, an error otherwise. Stop always
// produces a nil result.
type PlayerHandle interface {
	SetVolume(volume int)
	Pause(paused bool)
	Stop()
	Done() <-chan error
}
