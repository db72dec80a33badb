// Package commands implements the bot's slash commands. Each handler owns
// one command and the message components it renders: the immediate
// acknowledgement is returned synchronously, and anything that needs an
// upstream fetch is registered as a background continuation that finishes
// with exactly one edit of the original response.
package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/jonny/ritsu-bot/internal/domain/port/outbound"
)

func strp(s string) *string { return &s }

func boolp(b bool) *bool { return &b }

// editContent replaces the deferred response with plain text. Used for
// both success and failure paths so every deferral resolves to a visible
// message.
func editContent(ctx context.Context, editor outbound.ResponseEditor, token, content string) error {
	return editor.EditOriginal(ctx, token, &discordgo.WebhookEdit{Content: strp(content)})
}

// subcommandOptions flattens a subcommand's string options into a map.
func subcommandOptions(sub *discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	opts := make(map[string]string, len(sub.Options))
	for _, opt := range sub.Options {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			opts[opt.Name] = opt.StringValue()
		}
	}
	return opts
}
