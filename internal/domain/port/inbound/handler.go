package inbound

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/jonny/ritsu-bot/internal/domain/model"
	"github.com/jonny/ritsu-bot/internal/tasks"
)

// Request carries the per-interaction state handed to a handler. Route is
// the parsed component routing key; it is the zero value for slash
// commands and pings. Batch collects background continuations the handler
// wants to run after the acknowledgement has been sent.
type Request struct {
	Interaction *discordgo.Interaction
	Route       model.ComponentID
	Batch       *tasks.Batch
}

// InteractionHandler implements one slash command and the component
// interactions it renders. Handle returns the synchronous response for the
// webhook; work that cannot finish inside the platform's response window
// is registered on req.Batch and must end in exactly one follow-up edit,
// success or error content.
type InteractionHandler interface {
	// Command declares the registration entry pushed to the platform
	// during command sync. Its Name is the routing key.
	Command() *discordgo.ApplicationCommand

	Handle(ctx context.Context, req Request) (*discordgo.InteractionResponse, error)
}

// InteractionRouter classifies a decoded interaction and dispatches it.
type InteractionRouter interface {
	Dispatch(ctx context.Context, interaction *discordgo.Interaction, batch *tasks.Batch) (*discordgo.InteractionResponse, error)
}
