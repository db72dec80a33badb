// Package fetch provides a caching HTTP fetcher for external APIs.
//
// Responses are cached by exact request URL in a pluggable store. Only
// successful (2xx) responses are cached; cache writes happen in the
// background so a slow store never delays the caller.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonny/ritsu-bot/internal/domain/port/outbound"
	"github.com/jonny/ritsu-bot/internal/tasks"
	"github.com/jonny/ritsu-bot/pkg/apierror"
)

// Config holds fetcher settings.
type Config struct {
	// Timeout bounds a single upstream request.
	Timeout time.Duration
	// MaxBodyBytes caps how much of an upstream response body is read.
	MaxBodyBytes int64
}

// Client fetches URLs with cache-aside semantics over a CacheStore.
type Client struct {
	store   outbound.CacheStore
	http    *http.Client
	tracker *tasks.Tracker
	logger  *slog.Logger
	maxBody int64
}

// NewClient creates a fetcher backed by store. Cache writes are scheduled
// on tracker so they survive the originating request.
func NewClient(cfg Config, store outbound.CacheStore, tracker *tasks.Tracker, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 4 << 20
	}
	return &Client{
		store:   store,
		http:    &http.Client{Timeout: cfg.Timeout},
		tracker: tracker,
		logger:  logger,
		maxBody: cfg.MaxBodyBytes,
	}
}

// Get returns the body for url, from cache when present. A store failure
// is logged and treated as a miss. Non-2xx upstream responses surface as
// *apierror.Error carrying the upstream status and body, and are never
// cached.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if body, ok, err := c.store.Get(ctx, url); err != nil {
		c.logger.Warn("cache read failed, fetching upstream", "url", url, "error", err)
	} else if ok {
		c.logger.Debug("cache hit", "url", url)
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierror.Upstream(resp.StatusCode, url, string(body))
	}

	c.tracker.Go("cache-put", func(ctx context.Context) error {
		return c.store.Put(ctx, url, body)
	})
	return body, nil
}
