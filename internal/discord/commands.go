package discord

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/maestro/pkg/cmd"
)

// SlashProvider is implemented by commands that carry their own Discord
// registration payload.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// registerMusicCommands wires the command set into the registry with the
// shared middleware chain.
func (b *Bot) registerMusicCommands() {
	mws := []cmd.Middleware{
		WithCommandLogger(),
		WithGuildOnly(),
	}

	b.commands.Register(cmd.Apply(NewMusicCommand(b), mws...))
}

// registerSlashCommands pushes the registry's slash definitions to one
// guild in a single bulk overwrite.
func (b *Bot) registerSlashCommands(guildID string) error {
	var defs []*discordgo.ApplicationCommand
	for _, c := range b.commands.GetAll() {
		root := cmd.Root(c)
		sp, ok := root.(SlashProvider)
		if !ok {
			continue
		}
		defs = append(defs, sp.SlashDefinition())
	}

	if _, err := b.dg.ApplicationCommandBulkOverwrite(b.dg.State.User.ID, guildID, defs); err != nil {
		return fmt.Errorf("bulk overwrite failed: %w", err)
	}
	log.Printf("[INFO] Registered %d slash commands | guild=%s", len(defs), guildID)
	return nil
}
