// Package service contains the interaction routing logic between the
// webhook transport and the command handlers.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/bwmarrin/discordgo"

	"github.com/jonny/ritsu-bot/internal/domain/model"
	"github.com/jonny/ritsu-bot/internal/domain/port/inbound"
	"github.com/jonny/ritsu-bot/internal/tasks"
)

// Router dispatches decoded interactions to their handlers. The routing
// table is built once at construction and never mutated, so lookups need
// no locking.
type Router struct {
	handlers map[string]inbound.InteractionHandler
	logger   *slog.Logger
}

// NewRouter builds the routing table from the handler set. Registering two
// handlers under the same command name is a programming error.
func NewRouter(logger *slog.Logger, handlers ...inbound.InteractionHandler) (*Router, error) {
	table := make(map[string]inbound.InteractionHandler, len(handlers))
	for _, h := range handlers {
		name := h.Command().Name
		if _, dup := table[name]; dup {
			return nil, fmt.Errorf("duplicate handler for command %q", name)
		}
		table[name] = h
	}
	return &Router{handlers: table, logger: logger}, nil
}

// Commands returns the registration entries of every routed handler,
// sorted by name. This is the payload of the administrative command sync.
func (r *Router) Commands() []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, 0, len(r.handlers))
	for _, h := range r.handlers {
		cmds = append(cmds, h.Command())
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Dispatch classifies the interaction by type and routes it.
//
// Routing misses (a command invoked but never registered here, or a
// custom_id whose command prefix matches nothing) answer with an ephemeral
// not-implemented message: from the platform's point of view the delivery
// succeeded, and a 5xx would only make it redeliver. The miss is logged as
// configuration drift.
func (r *Router) Dispatch(ctx context.Context, interaction *discordgo.Interaction, batch *tasks.Batch) (*discordgo.InteractionResponse, error) {
	switch interaction.Type {
	case discordgo.InteractionPing:
		return model.Pong(), nil

	case discordgo.InteractionApplicationCommand:
		data := interaction.ApplicationCommandData()
		h, ok := r.handlers[data.Name]
		if !ok {
			r.logger.Warn("command not in routing table", "command", data.Name)
			return model.NotImplemented(), nil
		}
		return h.Handle(ctx, inbound.Request{Interaction: interaction, Batch: batch})

	case discordgo.InteractionMessageComponent:
		return r.dispatchComponent(ctx, interaction, interaction.MessageComponentData().CustomID, batch)

	case discordgo.InteractionModalSubmit:
		return r.dispatchComponent(ctx, interaction, interaction.ModalSubmitData().CustomID, batch)

	default:
		r.logger.Warn("unrecognized interaction type", "type", int(interaction.Type))
		return model.NotImplemented(), nil
	}
}

func (r *Router) dispatchComponent(ctx context.Context, interaction *discordgo.Interaction, customID string, batch *tasks.Batch) (*discordgo.InteractionResponse, error) {
	route, err := model.ParseComponentID(customID)
	if err != nil {
		r.logger.Warn("unroutable component interaction", "custom_id", customID, "error", err)
		return model.NotImplemented(), nil
	}

	h, ok := r.handlers[route.Command]
	if !ok {
		r.logger.Warn("component routed to unknown command", "custom_id", customID, "command", route.Command)
		return model.NotImplemented(), nil
	}
	return h.Handle(ctx, inbound.Request{Interaction: interaction, Route: route, Batch: batch})
}
