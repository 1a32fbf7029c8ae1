package player

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keshon/maestro/internal/music/queue"
	"github.com/keshon/maestro/internal/music/transport"
)

type fakeHandle struct {
	done   chan error
	once   sync.Once
	volume atomic.Int32
	paused atomic.Bool
}

func newFakeHandle(volume int) *fakeHandle {
	h := &fakeHandle{done: make(chan error, 1)}
	h.volume.Store(int32(volume))
	return h
}

func (h *fakeHandle) SetVolume(volume int)  { h.volume.Store(int32(volume)) }
func (h *fakeHandle) Pause(paused bool)     { h.paused.Store(paused) }
func (h *fakeHandle) Stop()                 { h.finish(nil) }
func (h *fakeHandle) Done() <-chan error    { return h.done }
func (h *fakeHandle) finish(err error)      { h.once.Do(func() { h.done <- err }) }

type fakeConn struct {
	channelID string
	events    chan transport.Event

	mu      sync.Mutex
	handles []*fakeHandle

	destroyed atomic.Bool
	closeOnce sync.Once
}

func newFakeConn(channelID string) *fakeConn {
	return &fakeConn{
		channelID: channelID,
		events:    make(chan transport.Event, 4),
	}
}

func (c *fakeConn) ChannelID() string { return c.channelID }

func (c *fakeConn) Play(src io.ReadCloser, volume int) (transport.PlayerHandle, error) {
	src.Close()
	h := newFakeHandle(volume)
	c.mu.Lock()
	c.handles = append(c.handles, h)
	c.mu.Unlock()
	return h, nil
}

func (c *fakeConn) Events() <-chan transport.Event { return c.events }

func (c *fakeConn) Destroy() error {
	c.destroyed.Store(true)
	c.closeOnce.Do(func() { close(c.events) })
	return nil
}

func (c *fakeConn) handle(n int) *fakeHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n >= len(c.handles) {
		return nil
	}
	return c.handles[n]
}

type fakeTransport struct {
	mu    sync.Mutex
	joins int
	conns []*fakeConn
}

func (tr *fakeTransport) Join(ctx context.Context, guildID, channelID string) (transport.Connection, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.joins++
	c := newFakeConn(channelID)
	tr.conns = append(tr.conns, c)
	return c, nil
}

func (tr *fakeTransport) joinCount() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.joins
}

func (tr *fakeTransport) conn(n int) *fakeConn {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if n >= len(tr.conns) {
		return nil
	}
	return tr.conns[n]
}

// fakeProvider serves streams through an injectable open function.
type fakeProvider struct {
	mu   sync.Mutex
	fail func(sourceURL string) error
}

func (f *fakeProvider) failWith(fn func(sourceURL string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fn
}

func (f *fakeProvider) Open(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()

	if fail != nil {
		if err := fail(sourceURL); err != nil {
			return nil, err
		}
	}
	return io.NopCloser(strings.NewReader("pcm")), nil
}

// recNotifier records lifecycle notices on buffered channels so tests can
// block on them.
type recNotifier struct {
	started chan queue.Track
	queued  chan queue.Track
	dropped chan queue.Track
	ended   chan EndReason
}

func newRecNotifier() *recNotifier {
	return &recNotifier{
		started: make(chan queue.Track, 16),
		queued:  make(chan queue.Track, 16),
		dropped: make(chan queue.Track, 16),
		ended:   make(chan EndReason, 4),
	}
}

func (n *recNotifier) TrackStarted(guildID string, track queue.Track)            { n.started <- track }
func (n *recNotifier) TrackQueued(guildID string, track queue.Track)             { n.queued <- track }
func (n *recNotifier) TrackDropped(guildID string, track queue.Track, err error) { n.dropped <- track }
func (n *recNotifier) PlaybackEnded(guildID string, reason EndReason)            { n.ended <- reason }

func testTrack(title string) queue.Track {
	return queue.Track{Title: title, URL: "https://example.com/" + title}
}

const (
	testGuild   = "G1"
	testChannel = "C1"
)

func newTestPlayer(t *testing.T) (*Player, *fakeTransport, *fakeProvider, *recNotifier) {
	t.Helper()
	tr := &fakeTransport{}
	pv := &fakeProvider{}
	nt := newRecNotifier()

	p := New(testGuild, testChannel, 100,
		Config{FailureCeiling: 3, RecoveryWindow: 200 * time.Millisecond},
		Deps{Transport: tr, Provider: pv, Notifier: nt})
	t.Cleanup(p.Shutdown)
	return p, tr, pv, nt
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func recvTrack(t *testing.T, ch chan queue.Track, what string) queue.Track {
	t.Helper()
	select {
	case tr := <-ch:
		return tr
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return queue.Track{}
	}
}

func recvEnd(t *testing.T, ch chan EndReason) EndReason {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session end")
		return ""
	}
}
