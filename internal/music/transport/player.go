package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"layeh.com/gopus"
)

const (
	Channels   = 2
	SampleRate = 48000
	FrameSize  = 960 // 20ms at 48kHz
)

// player reads s16le PCM from src, applies the volume gain, encodes opus
// frames and pushes them into the connection's send channel. One player
// per track; it reports exactly one result on done.
type player struct {
	src      io.ReadCloser
	send     chan<- []byte
	speaking func(bool) error

	volume atomic.Int32 // percent, 1..100
	paused atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan error
	doneOnce sync.Once
}

func newPlayer(src io.ReadCloser, send chan<- []byte, speaking func(bool) error, volume int) *player {
	p := &player{
		src:      src,
		send:     send,
		speaking: speaking,
		stop:     make(chan struct{}),
		done:     make(chan error, 1),
	}
	p.volume.Store(int32(volume))
	return p
}

func (p *player) SetVolume(volume int) {
	p.volume.Store(int32(volume))
}

func (p *player) Pause(paused bool) {
	p.paused.Store(paused)
	if p.speaking != nil {
		_ = p.speaking(!paused)
	}
}

func (p *player) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *player) Done() <-chan error {
	return p.done
}

func (p *player) finish(err error) {
	p.doneOnce.Do(func() { p.done <- err })
}

func (p *player) run() {
	defer p.src.Close()

	encoder, err := gopus.NewEncoder(SampleRate, Channels, gopus.Audio)
	if err != nil {
		p.finish(fmt.Errorf("encoder error: %w", err))
		return
	}

	if p.speaking != nil {
		_ = p.speaking(true)
		defer func() { _ = p.speaking(false) }()
	}

	pcmBuf := make([]byte, FrameSize*Channels*2)
	intBuf := make([]int16, FrameSize*Channels)

	for {
		select {
		case <-p.stop:
			p.finish(nil)
			return
		default:
		}

		if p.paused.Load() {
			time.Sleep(20 * time.Millisecond)
			continue
		}

		if _, err := io.ReadFull(p.src, pcmBuf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				p.finish(nil)
			} else {
				p.finish(fmt.Errorf("read error: %w", err))
			}
			return
		}

		for i := range intBuf {
			intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
		}
		applyGain(intBuf, int(p.volume.Load()))

		opus, err := encoder.Encode(intBuf, FrameSize, len(pcmBuf))
		if err != nil {
			p.finish(fmt.Errorf("encode error: %w", err))
			return
		}

		select {
		case <-p.stop:
			p.finish(nil)
			return
		case p.send <- opus:
		}
	}
}

// applyGain scales samples to volume/100 in place.
func applyGain(samples []int16, volume int) {
	if volume >= 100 {
		return
	}
	if volume < 0 {
		volume = 0
	}
	for i, s := range samples {
		samples[i] = int16(int32(s) * int32(volume) / 100)
	}
}
