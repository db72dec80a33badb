// Package discord implements the outbound Discord REST calls the bot
// needs: editing the original response of a deferred interaction, and
// bulk-overwriting the application's global slash commands.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/jonny/ritsu-bot/pkg/apierror"
)

// Config holds Discord REST client settings.
type Config struct {
	// APIBase is the Discord API root, e.g. https://discord.com/api/v10.
	APIBase string
	// AppID is the application (client) ID.
	AppID string
	// ClientSecret is used for the client-credentials grant when pushing
	// command definitions. Webhook edits need no token, so it may be
	// empty on instances that never sync commands.
	ClientSecret string
	// Timeout bounds a single REST call.
	Timeout time.Duration
	// EditRatePerSecond throttles outbound calls. Zero disables the
	// limiter.
	EditRatePerSecond float64
}

// Client talks to the Discord REST API.
type Client struct {
	apiBase string
	appID   string
	http    *http.Client
	oauth   *clientcredentials.Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a Discord REST client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.EditRatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.EditRatePerSecond), 1)
	}
	return &Client{
		apiBase: cfg.APIBase,
		appID:   cfg.AppID,
		http:    &http.Client{Timeout: cfg.Timeout},
		oauth: &clientcredentials.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.APIBase + "/oauth2/token",
			Scopes:       []string{"applications.commands.update"},
		},
		limiter: limiter,
		logger:  logger,
	}
}

// EditOriginal replaces the original response of an acknowledged
// interaction. The interaction token itself authenticates the call.
func (c *Client) EditOriginal(ctx context.Context, interactionToken string, edit *discordgo.WebhookEdit) error {
	url := fmt.Sprintf("%s/webhooks/%s/%s/messages/@original", c.apiBase, c.appID, interactionToken)

	body, err := json.Marshal(edit)
	if err != nil {
		return fmt.Errorf("encoding webhook edit: %w", err)
	}
	return c.do(ctx, http.MethodPatch, url, body, "")
}

// OverwriteCommands replaces the application's global command set with
// commands, using a fresh client-credentials token.
func (c *Client) OverwriteCommands(ctx context.Context, commands []*discordgo.ApplicationCommand) error {
	token, err := c.oauth.Token(ctx)
	if err != nil {
		return fmt.Errorf("obtaining client-credentials token: %w", err)
	}

	url := fmt.Sprintf("%s/applications/%s/commands", c.apiBase, c.appID)
	body, err := json.Marshal(commands)
	if err != nil {
		return fmt.Errorf("encoding commands: %w", err)
	}

	c.logger.Info("overwriting application commands", "count", len(commands))
	return c.do(ctx, http.MethodPut, url, body, "Bearer "+token.AccessToken)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, authorization string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting on rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apierror.Upstream(resp.StatusCode, "discord", string(detail))
	}
	return nil
}
