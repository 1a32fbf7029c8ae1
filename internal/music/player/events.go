package player

type eventKind int

const (
	// evPlaybackDone fires when the active track ends, naturally or not.
	evPlaybackDone eventKind = iota
	// evConnLost fires when the voice connection drops unexpectedly.
	evConnLost
	// evConnRecovering fires when the connection signals it is coming back.
	evConnRecovering
	// evRecoveryTimeout fires when no recovery signal arrived in time.
	evRecoveryTimeout
)

// event is the single currency of the session loop. Player and connection
// callbacks never mutate session state directly; they post events that the
// loop applies one at a time.
type event struct {
	kind eventKind
	gen  int // playback generation, guards against stale done events
	err  error
}
