package player

import "errors"

var (
	ErrSessionEnded      = errors.New("playback session has ended")
	ErrNoTrackPlaying    = errors.New("no track is currently playing")
	ErrNotPaused         = errors.New("playback is not paused")
	ErrWrongVoiceChannel = errors.New("caller is not in the session's voice channel")
	ErrVolumeOutOfRange  = errors.New("volume must be between 1 and 100")
)
