package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/jonny/ritsu-bot/internal/domain/port/outbound"
)

// SyncHandler serves the administrative endpoint that pushes the declared
// command set to the platform. It is only mounted on instances explicitly
// marked as trusted local environments; elsewhere the route does not
// exist and callers see the mux's 404.
type SyncHandler struct {
	pusher   outbound.CommandPusher
	commands []*discordgo.ApplicationCommand
	logger   *slog.Logger
}

func NewSyncHandler(pusher outbound.CommandPusher, commands []*discordgo.ApplicationCommand, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{pusher: pusher, commands: commands, logger: logger}
}

func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.pusher.OverwriteCommands(r.Context(), h.commands); err != nil {
		h.logger.Error("command sync failed", "error", err)
		http.Error(w, "command sync failed", http.StatusBadGateway)
		return
	}

	h.logger.Info("command sync complete", "count", len(h.commands))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"synced": len(h.commands),
	})
}
