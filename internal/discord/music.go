package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/maestro/internal/music/player"
	"github.com/keshon/maestro/internal/music/queue"
	"github.com/keshon/maestro/internal/music/resolver"
	"github.com/keshon/maestro/pkg/cmd"
)

// MusicCommand is the /music slash command: all playback control grouped
// as subcommands.
type MusicCommand struct {
	bot *Bot
}

func NewMusicCommand(bot *Bot) *MusicCommand {
	return &MusicCommand{bot: bot}
}

func (c *MusicCommand) Name() string        { return "music" }
func (c *MusicCommand) Description() string { return "Play music in your voice channel" }

// SlashDefinition describes the command for Discord registration.
func (c *MusicCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Play a track by link or search query",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "query",
						Description: "YouTube link or search terms",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "skip",
				Description: "Skip the current track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stop",
				Description: "Stop playback and clear the queue",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "pause",
				Description: "Pause the current track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "resume",
				Description: "Resume a paused track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "volume",
				Description: "Set the playback volume",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "level",
						Description: "Volume from 1 to 100",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "queue",
				Description: "Show the current queue",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "history",
				Description: "Show recently played tracks",
			},
		},
	}
}

func (c *MusicCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sctx, ok := inv.Data.(*SlashInteractionContext)
	if !ok {
		return fmt.Errorf("music command invoked outside a slash interaction")
	}

	s, i := sctx.Session, sctx.Event
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: "Pick a subcommand.",
		})
	}
	sub := options[0]

	switch sub.Name {
	case "play":
		return c.handlePlay(ctx, s, i, sub)
	case "skip":
		return c.handleSkip(s, i)
	case "stop":
		return c.handleStop(s, i)
	case "pause":
		return c.handlePause(s, i)
	case "resume":
		return c.handleResume(s, i)
	case "volume":
		return c.handleVolume(s, i, sub)
	case "queue":
		return c.handleQueue(s, i)
	case "history":
		return c.handleHistory(s, i)
	default:
		return RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Unknown subcommand: %s", sub.Name),
		})
	}
}

func (c *MusicCommand) handlePlay(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	query := ""
	for _, opt := range sub.Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: "Give me a link or something to search for.",
		})
	}

	userID := interactionUserID(i)
	vs, err := c.bot.FindUserVoiceState(i.GuildID, userID)
	if err != nil {
		return RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: "Join a voice channel first, then ask me to play.",
		})
	}

	// Resolution hits the network; acknowledge now, answer later.
	if err := Defer(s, i); err != nil {
		return err
	}

	track, err := c.bot.resolver.Resolve(ctx, query, userID)
	if err != nil {
		if errors.Is(err, resolver.ErrNoResults) {
			return FollowupEmbedEphemeral(s, i, &discordgo.MessageEmbed{
				Description: fmt.Sprintf("Nothing found for %q.", query),
			})
		}
		return FollowupEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Could not resolve %q: %v", query, err),
		})
	}

	c.bot.notifier.SetAnnounceChannel(i.GuildID, i.ChannelID)

	p := c.bot.getOrCreateSession(i.GuildID, vs.ChannelID)
	if p.ChannelID() != vs.ChannelID {
		return FollowupEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: "I'm already playing in another voice channel in this server.",
		})
	}

	if err := p.Play(track); err != nil {
		// The session drained between lookup and enqueue; build a fresh one.
		if errors.Is(err, player.ErrSessionEnded) {
			p = c.bot.getOrCreateSession(i.GuildID, vs.ChannelID)
			err = p.Play(track)
		}
		if err != nil {
			return FollowupEmbedEphemeral(s, i, &discordgo.MessageEmbed{
				Description: fmt.Sprintf("Could not start playback: %v", err),
			})
		}
	}

	return FollowupEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🎶  Added",
		Description: trackLine(track),
	})
}

// liveSession returns the guild's session and the caller's voice channel,
// replying with a hint when either is missing.
func (c *MusicCommand) liveSession(s *discordgo.Session, i *discordgo.InteractionCreate) (*player.Player, string, bool) {
	p, ok := c.bot.registry.Get(i.GuildID)
	if !ok || p.Stopped() {
		_ = RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: "Nothing is playing right now.",
		})
		return nil, "", false
	}

	vs, err := c.bot.FindUserVoiceState(i.GuildID, interactionUserID(i))
	if err != nil {
		_ = RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: "Join my voice channel to control playback.",
		})
		return nil, "", false
	}
	return p, vs.ChannelID, true
}

func (c *MusicCommand) handleSkip(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	p, channelID, ok := c.liveSession(s, i)
	if !ok {
		return nil
	}

	if err := p.Skip(channelID); err != nil {
		return c.replyControlError(s, i, err)
	}
	return RespondEmbed(s, i, &discordgo.MessageEmbed{Description: "⏭  Skipped."})
}

func (c *MusicCommand) handleStop(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	p, channelID, ok := c.liveSession(s, i)
	if !ok {
		return nil
	}

	if err := p.Stop(channelID); err != nil {
		return c.replyControlError(s, i, err)
	}
	return RespondEmbed(s, i, &discordgo.MessageEmbed{Description: "⏹  Stopped and cleared the queue."})
}

func (c *MusicCommand) handlePause(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	p, channelID, ok := c.liveSession(s, i)
	if !ok {
		return nil
	}

	if err := p.Pause(channelID); err != nil {
		return c.replyControlError(s, i, err)
	}
	return RespondEmbed(s, i, &discordgo.MessageEmbed{Description: "⏸  Paused."})
}

func (c *MusicCommand) handleResume(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	p, channelID, ok := c.liveSession(s, i)
	if !ok {
		return nil
	}

	if err := p.Resume(channelID); err != nil {
		return c.replyControlError(s, i, err)
	}
	return RespondEmbed(s, i, &discordgo.MessageEmbed{Description: "▶️  Resumed."})
}

func (c *MusicCommand) handleVolume(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	level := 0
	for _, opt := range sub.Options {
		if opt.Name == "level" {
			level = int(opt.IntValue())
		}
	}

	p, channelID, ok := c.liveSession(s, i)
	if !ok {
		return nil
	}

	if err := p.SetVolume(channelID, level); err != nil {
		return c.replyControlError(s, i, err)
	}

	if err := c.bot.store.SetVolume(i.GuildID, level); err != nil {
		return fmt.Errorf("failed to persist volume: %w", err)
	}
	return RespondEmbed(s, i, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("🔊  Volume set to %d%%.", level),
	})
}

func (c *MusicCommand) handleQueue(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	p, ok := c.bot.registry.Get(i.GuildID)
	if !ok || p.Stopped() {
		return RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: "The queue is empty.",
		})
	}

	snap := p.QueueView(10)
	if snap.Current == nil {
		return RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: "The queue is empty.",
		})
	}

	return RespondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "📜  Queue",
		Description: queueDescription(snap),
	})
}

// queueDescription renders a queue snapshot. Remaining already counts the
// tracks beyond the displayed ones.
func queueDescription(snap queue.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Now:** %s\n", trackLine(*snap.Current))
	for n, t := range snap.Upcoming {
		fmt.Fprintf(&sb, "%d. [%s](%s)\n", n+1, t.Title, t.URL)
	}
	if snap.Remaining > 0 {
		fmt.Fprintf(&sb, "…and %d more.\n", snap.Remaining)
	}
	return sb.String()
}

func (c *MusicCommand) handleHistory(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	history, err := c.bot.store.TrackHistory(i.GuildID)
	if err != nil {
		return fmt.Errorf("failed to read track history: %w", err)
	}
	if len(history) == 0 {
		return RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: "No tracks played here yet.",
		})
	}

	var sb strings.Builder
	for n, rec := range history {
		fmt.Fprintf(&sb, "%d. [%s](%s)\n", n+1, rec.Title, rec.URL)
	}
	return RespondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🕘  Recently played",
		Description: sb.String(),
	})
}

// replyControlError maps player errors to user-facing replies.
func (c *MusicCommand) replyControlError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) error {
	var desc string
	switch {
	case errors.Is(err, player.ErrWrongVoiceChannel):
		desc = "You need to be in my voice channel to do that."
	case errors.Is(err, player.ErrNoTrackPlaying):
		desc = "No track is playing."
	case errors.Is(err, player.ErrNotPaused):
		desc = "Playback is not paused."
	case errors.Is(err, player.ErrVolumeOutOfRange):
		desc = "Volume must be between 1 and 100."
	case errors.Is(err, player.ErrSessionEnded):
		desc = "That session already ended."
	default:
		desc = fmt.Sprintf("Could not do that: %v", err)
	}
	return RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{Description: desc})
}
