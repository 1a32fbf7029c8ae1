package player

import "github.com/keshon/maestro/internal/music/queue"

// EndReason tells observers why a session went away.
type EndReason string

const (
	EndQueueDrained    EndReason = "queue drained"
	EndStopped         EndReason = "stopped"
	EndDisconnected    EndReason = "disconnected"
	EndTooManyFailures EndReason = "too many failures"
)

// Notifier receives playback lifecycle notices. Implementations must not
// call back into the player and must not block.
type Notifier interface {
	TrackStarted(guildID string, track queue.Track)
	TrackQueued(guildID string, track queue.Track)
	TrackDropped(guildID string, track queue.Track, err error)
	PlaybackEnded(guildID string, reason EndReason)
}

// NopNotifier discards all notices.
type NopNotifier struct{}

func (NopNotifier) TrackStarted(string, queue.Track)        {}
func (NopNotifier) TrackQueued(string, queue.Track)         {}
func (NopNotifier) TrackDropped(string, queue.Track, error) {}
func (NopNotifier) PlaybackEnded(string, EndReason)         {}
