package transport

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// DiscordTransport joins Discord voice channels and routes gateway voice
// events to the owning connection.
type DiscordTransport struct {
	dg    *discordgo.Session
	mu    sync.Mutex
	conns map[string]*discordConn
}

func NewDiscord(dg *discordgo.Session) *DiscordTransport {
	return &DiscordTransport{
		dg:    dg,
		conns: make(map[string]*discordConn),
	}
}

// Join connects to the voice channel and registers the connection for
// event routing. At most one connection per guild.
func (t *DiscordTransport) Join(ctx context.Context, guildID, channelID string) (Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vc, err := t.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}
	log.Printf("[Transport] Joined voice channel %s on guild %s", channelID, guildID)

	c := &discordConn{
		t:         t,
		guildID:   guildID,
		channelID: channelID,
		vc:        vc,
		events:    make(chan Event, 8),
	}

	t.mu.Lock()
	t.conns[guildID] = c
	t.mu.Unlock()

	return c, nil
}

// HandleVoiceStateUpdate routes the bot's own voice state changes into the
// guild's connection event stream. A nil channel means the connection
// dropped; a channel reappearing means it is on its way back.
func (t *DiscordTransport) HandleVoiceStateUpdate(s *discordgo.Session, vsu *discordgo.VoiceStateUpdate) {
	if s.State.User == nil || vsu.UserID != s.State.User.ID {
		return
	}

	c := t.lookup(vsu.GuildID)
	if c == nil {
		return
	}

	if vsu.ChannelID == "" {
		c.post(Event{Type: EventDisconnected})
	} else {
		c.post(Event{Type: EventReconnecting, ChannelID: vsu.ChannelID})
	}
}

// HandleVoiceServerUpdate signals endpoint renegotiation, which precedes a
// successful voice resume.
func (t *DiscordTransport) HandleVoiceServerUpdate(s *discordgo.Session, vsu *discordgo.VoiceServerUpdate) {
	c := t.lookup(vsu.GuildID)
	if c == nil {
		return
	}
	c.post(Event{Type: EventReconnecting})
}

func (t *DiscordTransport) lookup(guildID string) *discordConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[guildID]
}

// dropIf removes the routing entry only while it still belongs to c, so a
// stale connection being destroyed cannot evict its successor.
func (t *DiscordTransport) dropIf(guildID string, c *discordConn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.conns[guildID]; ok && cur == c {
		delete(t.conns, guildID)
	}
}

type discordConn struct {
	t         *DiscordTransport
	guildID   string
	channelID string
	vc        *discordgo.VoiceConnection

	mu     sync.Mutex
	closed bool
	events chan Event
}

func (c *discordConn) ChannelID() string {
	return c.channelID
}

func (c *discordConn) Play(src io.ReadCloser, volume int) (PlayerHandle, error) {
	p := newPlayer(src, c.vc.OpusSend, c.vc.Speaking, volume)
	go p.run()
	return p, nil
}

func (c *discordConn) Events() <-chan Event {
	return c.events
}

// post delivers an event without blocking; a full channel drops the event
// rather than stalling the gateway handler.
func (c *discordConn) post(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		log.Printf("[Transport] Voice event dropped (channel full) | guild=%s type=%d", c.guildID, ev.Type)
	}
}

func (c *discordConn) Destroy() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.events)
	c.mu.Unlock()

	c.t.dropIf(c.guildID, c)
	if err := c.vc.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect voice: %w", err)
	}
	return nil
}
