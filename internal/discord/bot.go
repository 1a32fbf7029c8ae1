package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/maestro/internal/config"
	"github.com/keshon/maestro/internal/music/player"
	"github.com/keshon/maestro/internal/music/resolver"
	"github.com/keshon/maestro/internal/music/stream"
	"github.com/keshon/maestro/internal/music/transport"
	"github.com/keshon/maestro/internal/storage"
	"github.com/keshon/maestro/pkg/cmd"
)

// Bot is the Discord adapter around the playback core.
type Bot struct {
	dg        *discordgo.Session
	cfg       *config.Config
	store     *storage.Storage
	registry  *player.Registry
	resolver  resolver.Resolver
	provider  stream.Provider
	transport *transport.DiscordTransport
	notifier  *embedNotifier
	commands  *cmd.Registry
}

// StartBot runs the Discord bot until ctx is cancelled.
func StartBot(ctx context.Context, cfg *config.Config, store *storage.Storage) error {
	b := &Bot{
		cfg:      cfg,
		store:    store,
		registry: player.NewRegistry(),
		resolver: resolver.NewYouTube(),
		provider: stream.NewYouTube(),
		commands: cmd.NewRegistry(),
	}
	if err := b.run(ctx); err != nil {
		return fmt.Errorf("bot run error: %w", err)
	}
	return nil
}

func (b *Bot) run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	b.dg = dg
	b.transport = transport.NewDiscord(dg)
	b.notifier = newEmbedNotifier(dg, b.store)

	b.registerMusicCommands()

	b.configureIntents()
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onInteractionCreate)
	dg.AddHandler(b.transport.HandleVoiceStateUpdate)
	dg.AddHandler(b.transport.HandleVoiceServerUpdate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	for _, p := range b.registry.All() {
		p.Shutdown()
	}
	return nil
}

// configureIntents configures the Discord intents
func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages
}

// onReady is called when the bot is ready
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	botInfo, err := s.User("@me")
	if err != nil {
		log.Println("[WARN] Error retrieving bot user:", err)
		return
	}

	if b.cfg.InitSlashCommands {
		for _, g := range r.Guilds {
			if err := b.registerSlashCommands(g.ID); err != nil {
				log.Println("[ERR] Error registering slash commands for guild", g.ID, ":", err)
			}
		}
	} else {
		log.Println("[INFO] Registering slash commands skipped")
	}

	log.Printf("[INFO] ✅ Discord bot %v is running.", botInfo.Username)
}

// onGuildCreate is called when the bot joins a guild
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Printf("[INFO] Bot added to guild: %s (%s)", g.Guild.ID, g.Guild.Name)

	if err := b.registerSlashCommands(g.Guild.ID); err != nil {
		log.Printf("[ERR] Failed to register commands for new guild %s: %v", g.Guild.ID, err)
	}
}

// onInteractionCreate dispatches slash commands to the registry.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmdName := i.ApplicationCommandData().Name
	c := b.commands.Get(cmdName)
	if c == nil {
		log.Printf("[WARN] Unknown command: %s", cmdName)
		return
	}

	inv := &cmd.Invocation{Data: &SlashInteractionContext{Session: s, Event: i}}
	if err := c.Run(context.Background(), inv); err != nil {
		log.Println("[ERR] Error running slash command:", err)
		_ = RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Error running command: %v", err),
		})
	}
}

// getOrCreateSession resolves the guild's live session or builds one
// bound to the requester's voice channel. The factory is cheap; joining
// the voice channel happens inside the session's first track start.
func (b *Bot) getOrCreateSession(guildID, channelID string) *player.Player {
	return b.registry.GetOrCreate(guildID, func() *player.Player {
		volume := b.cfg.DefaultVolume
		if v, ok := b.store.Volume(guildID); ok {
			volume = v
		}
		return player.New(guildID, channelID, volume,
			player.Config{
				FailureCeiling: b.cfg.FailureCeiling,
				RecoveryWindow: b.cfg.RecoveryWindow,
			},
			player.Deps{
				Transport: b.transport,
				Provider:  b.provider,
				Notifier:  b.notifier,
			})
	})
}
