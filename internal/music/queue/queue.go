package queue

import (
	"sync"
	"time"
)

// Track is one playable item. Tracks are values and are never mutated
// after resolution.
type Track struct {
	Title       string
	URL         string
	Duration    time.Duration
	Thumbnail   string
	RequestedBy string
}

// TrackQueue is a strict FIFO queue of tracks. The head is the track that
// is currently playing or about to play. Safe for concurrent use.
type TrackQueue struct {
	mu     sync.Mutex
	tracks []Track
}

// Snapshot is a read-only view of the queue for display purposes.
type Snapshot struct {
	Current   *Track
	Upcoming  []Track
	Remaining int
}

func New() *TrackQueue {
	return &TrackQueue{tracks: make([]Track, 0)}
}

// Enqueue appends a track to the tail.
func (q *TrackQueue) Enqueue(track Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = append(q.tracks, track)
}

// Current returns the head without removing it.
func (q *TrackQueue) Current() (Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return Track{}, false
	}
	return q.tracks[0], true
}

// Advance removes the head and reports whether a new head exists.
func (q *TrackQueue) Advance() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return false
	}
	q.tracks = q.tracks[1:]
	return len(q.tracks) > 0
}

// Len returns the number of queued tracks, head included.
func (q *TrackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

// Clear drops every queued track.
func (q *TrackQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = q.tracks[:0]
}

// View returns the current track plus up to limit upcoming tracks and the
// count of what is left beyond that. It never affects playback.
func (q *TrackQueue) View(limit int) Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	var snap Snapshot
	if len(q.tracks) == 0 {
		return snap
	}

	head := q.tracks[0]
	snap.Current = &head

	upcoming := q.tracks[1:]
	if len(upcoming) > limit {
		snap.Remaining = len(upcoming) - limit
		upcoming = upcoming[:limit]
	}
	snap.Upcoming = make([]Track, len(upcoming))
	copy(snap.Upcoming, upcoming)
	return snap
}
