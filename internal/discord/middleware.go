package discord

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/maestro/pkg/cmd"
)

// WithGuildOnly rejects invocations that did not come from a guild (DMs).
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			sctx, ok := inv.Data.(*SlashInteractionContext)
			if !ok {
				return c.Run(ctx, inv)
			}
			if sctx.Event.GuildID == "" {
				return RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
					Description: "This command only works inside a server.",
				})
			}
			return c.Run(ctx, inv)
		})
	}
}

// WithCommandLogger logs every invocation before running it.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if sctx, ok := inv.Data.(*SlashInteractionContext); ok {
				log.Printf("[Command] /%s | guild=%s user=%s",
					c.Name(), sctx.Event.GuildID, interactionUserID(sctx.Event))
			}
			return c.Run(ctx, inv)
		})
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
