// Package webhook is the inbound HTTP surface: the interactions endpoint
// Discord delivers to, the administrative command-sync endpoint, and the
// health probes.
package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/jonny/ritsu-bot/internal/domain/port/inbound"
	"github.com/jonny/ritsu-bot/internal/tasks"
)

// Handler serves the interactions endpoint. Signature verification has
// already happened in middleware by the time ServeHTTP runs.
type Handler struct {
	router  inbound.InteractionRouter
	tracker *tasks.Tracker
	logger  *slog.Logger
}

// NewHandler creates the interactions handler. Background continuations
// registered during dispatch are handed to tracker only after the
// acknowledgement has been written.
func NewHandler(router inbound.InteractionRouter, tracker *tasks.Tracker, logger *slog.Logger) *Handler {
	return &Handler{router: router, tracker: tracker, logger: logger}
}

// ServeHTTP handles one interaction delivery:
//  1. Decodes the payload into an interaction.
//  2. Dispatches it to the router for the synchronous response.
//  3. Writes the acknowledgement.
//  4. Dispatches the batch of background continuations.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var interaction discordgo.Interaction
	if err := json.NewDecoder(r.Body).Decode(&interaction); err != nil {
		h.logger.Warn("interaction payload did not decode", "error", err)
		http.Error(w, "malformed interaction payload", http.StatusBadRequest)
		return
	}

	batch := tasks.NewBatch()
	resp, err := h.router.Dispatch(r.Context(), &interaction, batch)
	if err != nil {
		h.logger.Error("interaction dispatch failed",
			"interaction_type", interaction.Type, "error", err)
		http.Error(w, "failed to handle interaction", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("writing interaction response failed", "error", err)
		return
	}

	// The acknowledgement is on the wire; deferred work may start now.
	batch.Dispatch(h.tracker)
}
