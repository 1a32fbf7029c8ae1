// Package player owns one guild's playback session: its queue, volume,
// voice connection and the state machine that keeps playback self-driving
// until the queue runs out or the session is stopped.
package player

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keshon/maestro/internal/music/queue"
	"github.com/keshon/maestro/internal/music/stream"
	"github.com/keshon/maestro/internal/music/transport"
	"github.com/keshon/maestro/pkg/jobmgr"
)

type State string

const (
	StateConnecting State = "Connecting"
	StatePlaying    State = "Playing"
	StatePaused     State = "Paused"
	StateStopped    State = "Stopped"
)

// Config holds the session tuning knobs.
type Config struct {
	// FailureCeiling is the number of consecutive track failures
	// tolerated before the session is forcibly stopped.
	FailureCeiling int
	// RecoveryWindow is how long a dropped connection may take to signal
	// recovery before the session is torn down.
	RecoveryWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		FailureCeiling: 3,
		RecoveryWindow: 5 * time.Second,
	}
}

// Deps are the session's collaborators.
type Deps struct {
	Transport transport.Transport
	Provider  stream.Provider
	Notifier  Notifier
	Jobs      *jobmgr.Manager
}

// Player is one guild's playback session. All mutation goes through the
// session mutex; asynchronous player/connection callbacks post typed
// events consumed by a single loop goroutine, so no two transitions for
// the same guild ever apply concurrently. Different guilds share nothing.
type Player struct {
	guildID   string
	channelID string
	cfg       Config
	deps      Deps

	mu         sync.Mutex
	state      State
	volume     int
	queue      *queue.TrackQueue
	conn       transport.Connection
	handle     transport.PlayerHandle
	gen        int
	failStreak int

	stopped  atomic.Bool
	onRemove func()

	ctx     context.Context
	cancel  context.CancelFunc
	events  chan event
	endOnce sync.Once
}

// New creates a session bound to one guild and voice channel. The voice
// channel authorizes future mutation and never changes. The transport is
// not joined here; the first track start joins it, serialized under the
// session mutex.
func New(guildID, channelID string, volume int, cfg Config, deps Deps) *Player {
	if cfg.FailureCeiling <= 0 {
		cfg.FailureCeiling = DefaultConfig().FailureCeiling
	}
	if cfg.RecoveryWindow <= 0 {
		cfg.RecoveryWindow = DefaultConfig().RecoveryWindow
	}
	if volume < 1 || volume > 100 {
		volume = 100
	}
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Jobs == nil {
		deps.Jobs = jobmgr.NewManager(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		guildID:   guildID,
		channelID: channelID,
		cfg:       cfg,
		deps:      deps,
		state:     StateConnecting,
		volume:    volume,
		queue:     queue.New(),
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan event, 16),
	}
	go p.loop()
	return p
}

func (p *Player) GuildID() string   { return p.guildID }
func (p *Player) ChannelID() string { return p.channelID }

// Stopped reports whether the session has reached its terminal state.
func (p *Player) Stopped() bool { return p.stopped.Load() }

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Play enqueues a track and starts playback if nothing is active yet.
// Resolution errors belong to the caller; from here on, failures for this
// track are handled internally.
func (p *Player) Play(track queue.Track) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped {
		return ErrSessionEnded
	}

	p.queue.Enqueue(track)
	log.Printf("[Player] Track enqueued %q | guild=%s queue=%d", track.Title, p.guildID, p.queue.Len())

	if p.handle == nil && p.state == StateConnecting {
		p.playCurrentLocked()
		return nil
	}

	p.deps.Notifier.TrackQueued(p.guildID, track)
	return nil
}

// Skip forces the track-completion transition for the active track. The
// resulting done event advances the queue exactly once, so a skip racing
// a natural completion never double-advances.
func (p *Player) Skip(channelID string) error {
	if err := p.authorize(channelID); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped {
		return ErrSessionEnded
	}
	if p.handle == nil {
		return ErrNoTrackPlaying
	}

	log.Printf("[Player] Skip requested | guild=%s", p.guildID)
	p.handle.Stop()
	return nil
}

// Stop clears the queue and forces the terminal state, preempting any
// in-flight stream acquisition or recovery wait. Idempotent.
func (p *Player) Stop(channelID string) error {
	if err := p.authorize(channelID); err != nil {
		return err
	}
	if p.stopped.Load() {
		return nil
	}

	p.Shutdown()
	return nil
}

// Shutdown force-stops the session without a caller authorization check.
// Used on process shutdown; commands go through Stop.
func (p *Player) Shutdown() {
	if p.stopped.Load() {
		return
	}

	// Cancel first so a blocked acquisition lets go of the session mutex.
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardownLocked(EndStopped)
}

// Pause halts frame delivery without advancing the queue or touching the
// volume.
func (p *Player) Pause(channelID string) error {
	if err := p.authorize(channelID); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying || p.handle == nil {
		return ErrNoTrackPlaying
	}
	p.handle.Pause(true)
	p.state = StatePaused
	return nil
}

func (p *Player) Resume(channelID string) error {
	if err := p.authorize(channelID); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePaused || p.handle == nil {
		return ErrNotPaused
	}
	p.handle.Pause(false)
	p.state = StatePlaying
	return nil
}

// SetVolume validates the range and applies the new gain to the live
// stream immediately, without interrupting playback.
func (p *Player) SetVolume(channelID string, volume int) error {
	if err := p.authorize(channelID); err != nil {
		return err
	}
	if volume < 1 || volume > 100 {
		return ErrVolumeOutOfRange
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped {
		return ErrSessionEnded
	}
	p.volume = volume
	if p.handle != nil {
		p.handle.SetVolume(volume)
	}
	return nil
}

// QueueView returns a read-only snapshot. Viewing is unrestricted.
func (p *Player) QueueView(limit int) queue.Snapshot {
	return p.queue.View(limit)
}

func (p *Player) authorize(channelID string) error {
	if channelID != p.channelID {
		return ErrWrongVoiceChannel
	}
	return nil
}

// loop is the session's single event consumer.
func (p *Player) loop() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case ev := <-p.events:
			switch ev.kind {
			case evPlaybackDone:
				p.handlePlaybackDone(ev)
			case evConnLost:
				p.handleConnectionLost()
			case evConnRecovering:
				p.handleConnectionRecovering()
			case evRecoveryTimeout:
				p.handleRecoveryTimeout()
			}
		}
	}
}

func (p *Player) post(ev event) {
	select {
	case p.events <- ev:
	case <-p.ctx.Done():
	}
}

// playCurrentLocked starts the queue head, dropping failed tracks
// iteratively up to the failure ceiling. Caller holds the session mutex;
// an explicit stop preempts the blocking calls through context
// cancellation.
func (p *Player) playCurrentLocked() {
	for {
		if p.ctx.Err() != nil {
			return
		}

		track, ok := p.queue.Current()
		if !ok {
			p.teardownLocked(EndQueueDrained)
			return
		}

		p.state = StateConnecting

		if p.conn == nil {
			conn, err := p.deps.Transport.Join(p.ctx, p.guildID, p.channelID)
			if err != nil {
				if p.ctx.Err() != nil {
					return
				}
				log.Printf("[Player] Failed to join voice channel | guild=%s err=%v", p.guildID, err)
				p.teardownLocked(EndDisconnected)
				return
			}
			p.conn = conn
			go p.watchConnection(conn)
		}

		src, err := p.deps.Provider.Open(p.ctx, track.URL)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			p.dropCurrentLocked(track, err)
			if p.state == StateStopped {
				return
			}
			continue
		}

		handle, err := p.conn.Play(src, p.volume)
		if err != nil {
			src.Close()
			if p.ctx.Err() != nil {
				return
			}
			p.dropCurrentLocked(track, err)
			if p.state == StateStopped {
				return
			}
			continue
		}

		p.failStreak = 0
		p.gen++
		p.handle = handle
		p.state = StatePlaying
		log.Printf("[Player] Now playing %q | guild=%s queue=%d", track.Title, p.guildID, p.queue.Len())
		p.deps.Notifier.TrackStarted(p.guildID, track)
		go p.watchPlayback(handle, p.gen)
		return
	}
}

// dropCurrentLocked discards the failed head and counts it against the
// consecutive-failure ceiling. Reaching the ceiling stops the session
// instead of chewing through the rest of the queue.
func (p *Player) dropCurrentLocked(track queue.Track, err error) {
	p.failStreak++
	log.Printf("[Player] Dropping track %q | guild=%s failures=%d err=%v",
		track.Title, p.guildID, p.failStreak, err)
	p.deps.Notifier.TrackDropped(p.guildID, track, err)

	if p.failStreak >= p.cfg.FailureCeiling {
		p.teardownLocked(EndTooManyFailures)
		return
	}
	p.queue.Advance()
}

func (p *Player) handlePlaybackDone(ev event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped || ev.gen != p.gen {
		return
	}
	p.handle = nil

	track, ok := p.queue.Current()
	if !ok {
		p.teardownLocked(EndQueueDrained)
		return
	}

	if ev.err != nil {
		p.dropCurrentLocked(track, ev.err)
		if p.state == StateStopped {
			return
		}
	} else {
		p.failStreak = 0
		p.queue.Advance()
	}

	p.playCurrentLocked()
}

// watchPlayback forwards the handle's single done result into the session
// loop, tagged with its generation.
func (p *Player) watchPlayback(handle transport.PlayerHandle, gen int) {
	select {
	case <-p.ctx.Done():
	case err := <-handle.Done():
		p.post(event{kind: evPlaybackDone, gen: gen, err: err})
	}
}

// watchConnection forwards connection events into the session loop.
func (p *Player) watchConnection(conn transport.Connection) {
	for {
		select {
		case <-p.ctx.Done():
			return
		case ev, ok := <-conn.Events():
			if !ok {
				return
			}
			switch ev.Type {
			case transport.EventDisconnected:
				p.post(event{kind: evConnLost})
			case transport.EventReconnecting:
				p.post(event{kind: evConnRecovering})
			}
		}
	}
}

func (p *Player) recoveryJobName() string {
	return "recovery:" + p.guildID
}

// handleConnectionLost starts the bounded recovery wait. A recovery
// signal cancels the wait; the timeout tears the session down. An
// explicit stop preempts the wait through the session context.
func (p *Player) handleConnectionLost() {
	p.mu.Lock()
	if p.state == StateStopped {
		p.mu.Unlock()
		return
	}
	window := p.cfg.RecoveryWindow
	p.mu.Unlock()

	log.Printf("[Player] Connection lost, waiting %v for recovery | guild=%s", window, p.guildID)

	// Already waiting from an earlier disconnect: keep the first window.
	_ = p.deps.Jobs.StartAsync(p.recoveryJobName(), func(jobCtx context.Context) error {
		select {
		case <-jobCtx.Done():
			return nil
		case <-p.ctx.Done():
			return nil
		case <-time.After(window):
			p.post(event{kind: evRecoveryTimeout})
			return nil
		}
	})
}

func (p *Player) handleConnectionRecovering() {
	if p.deps.Jobs.Running(p.recoveryJobName()) {
		log.Printf("[Player] Connection recovering, keeping session | guild=%s", p.guildID)
		p.deps.Jobs.Stop(p.recoveryJobName())
	}
}

func (p *Player) handleRecoveryTimeout() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateStopped {
		return
	}
	log.Printf("[Player] No recovery signal in time, tearing down | guild=%s", p.guildID)
	p.teardownLocked(EndDisconnected)
}

// teardownLocked is the single exit path. It releases the player and the
// connection exactly once, then removes the session from the registry, so
// no caller can observe a registered session whose connection is gone.
func (p *Player) teardownLocked(reason EndReason) {
	p.endOnce.Do(func() {
		p.stopped.Store(true)
		p.state = StateStopped
		p.cancel()
		p.deps.Jobs.Stop(p.recoveryJobName())
		p.queue.Clear()
		p.gen++

		if p.handle != nil {
			p.handle.Stop()
			p.handle = nil
		}
		if p.conn != nil {
			if err := p.conn.Destroy(); err != nil {
				log.Printf("[Player] Failed to destroy connection | guild=%s err=%v", p.guildID, err)
			}
			p.conn = nil
		}
		if p.onRemove != nil {
			p.onRemove()
		}

		log.Printf("[Player] Session ended | guild=%s reason=%s", p.guildID, reason)
		p.deps.Notifier.PlaybackEnded(p.guildID, reason)
	})
}
