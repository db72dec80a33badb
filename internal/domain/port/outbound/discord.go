package outbound

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// ResponseEditor performs the follow-up edit of a deferred interaction
// response. The interaction token is the only credential; it is valid for
// a bounded window after the interaction arrived, so callers must not
// retry forever.
type ResponseEditor interface {
	EditOriginal(ctx context.Context, interactionToken string, edit *discordgo.WebhookEdit) error
}

// CommandPusher replaces the application's registered command set on the
// platform. Used only by the administrative sync endpoint.
type CommandPusher interface {
	OverwriteCommands(ctx context.Context, commands []*discordgo.ApplicationCommand) error
}
