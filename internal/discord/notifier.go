package discord

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/maestro/internal/music/player"
	"github.com/keshon/maestro/internal/music/queue"
	"github.com/keshon/maestro/internal/storage"
)

// embedNotifier announces playback lifecycle events to the text channel
// the last command for the guild came from. Every notice is posted on its
// own goroutine so the player is never blocked by Discord round trips.
type embedNotifier struct {
	dg    *discordgo.Session
	store *storage.Storage

	mu       sync.Mutex
	announce map[string]string // guildID -> text channel ID
}

func newEmbedNotifier(dg *discordgo.Session, store *storage.Storage) *embedNotifier {
	return &embedNotifier{
		dg:       dg,
		store:    store,
		announce: make(map[string]string),
	}
}

// SetAnnounceChannel remembers where the guild's last music command came
// from. Later notices for the guild land there.
func (n *embedNotifier) SetAnnounceChannel(guildID, channelID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.announce[guildID] = channelID
}

func (n *embedNotifier) announceChannel(guildID string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch, ok := n.announce[guildID]
	return ch, ok
}

func (n *embedNotifier) TrackStarted(guildID string, track queue.Track) {
	go func() {
		if err := n.store.AddTrackToHistory(guildID, storage.TrackHistoryRecord{
			Title:       track.Title,
			URL:         track.URL,
			RequestedBy: track.RequestedBy,
			PlayedAt:    time.Now(),
		}); err != nil {
			log.Println("[WARN] Failed to record track history:", err)
		}

		ch, ok := n.announceChannel(guildID)
		if !ok {
			return
		}
		embed := &discordgo.MessageEmbed{
			Title:       "▶️  Now Playing",
			Description: trackLine(track),
		}
		if track.Thumbnail != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.Thumbnail}
		}
		MessageEmbed(n.dg, ch, embed)
	}()
}

func (n *embedNotifier) TrackQueued(guildID string, track queue.Track) {
	go func() {
		ch, ok := n.announceChannel(guildID)
		if !ok {
			return
		}
		MessageEmbed(n.dg, ch, &discordgo.MessageEmbed{
			Title:       "➕  Queued",
			Description: trackLine(track),
		})
	}()
}

func (n *embedNotifier) TrackDropped(guildID string, track queue.Track, err error) {
	go func() {
		ch, ok := n.announceChannel(guildID)
		if !ok {
			return
		}
		MessageEmbed(n.dg, ch, &discordgo.MessageEmbed{
			Title:       "⚠️  Track skipped",
			Description: fmt.Sprintf("%s\nCould not play: %v", trackLine(track), err),
		})
	}()
}

func (n *embedNotifier) PlaybackEnded(guildID string, reason player.EndReason) {
	go func() {
		ch, ok := n.announceChannel(guildID)
		if !ok {
			return
		}

		var desc string
		switch reason {
		case player.EndQueueDrained:
			desc = "Queue finished. Leaving the voice channel."
		case player.EndStopped:
			desc = "Playback stopped."
		case player.EndDisconnected:
			desc = "Lost the voice connection. Leaving the session."
		case player.EndTooManyFailures:
			desc = "Too many tracks failed in a row. Stopping."
		default:
			desc = "Playback ended."
		}
		MessageEmbed(n.dg, ch, &discordgo.MessageEmbed{
			Title:       "⏹  Session ended",
			Description: desc,
		})
	}()
}

func trackLine(track queue.Track) string {
	line := fmt.Sprintf("[%s](%s)", track.Title, track.URL)
	if track.Duration > 0 {
		line += fmt.Sprintf(" `%s`", formatDuration(track.Duration))
	}
	if track.RequestedBy != "" {
		line += fmt.Sprintf("\nRequested by <@%s>", track.RequestedBy)
	}
	return line
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
