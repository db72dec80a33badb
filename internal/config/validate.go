package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for errors.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if cfg.Server.MetricsPort <= 0 || cfg.Server.MetricsPort > 65535 {
		errs = append(errs, "server.metricsPort must be between 1 and 65535")
	}

	if cfg.Discord.AppID == "" {
		errs = append(errs, "discord.appID is required")
	}
	if cfg.Discord.PublicKey == "" {
		errs = append(errs, "discord.publicKey is required")
	} else if _, err := cfg.Discord.DecodePublicKey(); err != nil {
		errs = append(errs, fmt.Sprintf("discord.publicKey is not a valid ed25519 key: %v", err))
	}
	if cfg.Discord.TrustedLocalEnv && cfg.Discord.ClientSecret == "" {
		errs = append(errs, "discord.clientSecret is required when trustedLocalEnv enables command sync")
	}
	if cfg.Discord.APIBase == "" {
		errs = append(errs, "discord.apiBase must not be empty")
	}

	validBackends := map[string]bool{"memory": true, "sqlite": true, "redis": true}
	if !validBackends[cfg.Cache.Backend] {
		errs = append(errs, fmt.Sprintf("cache.backend must be memory, sqlite, or redis (got %q)", cfg.Cache.Backend))
	}
	if cfg.Cache.TTL < 0 {
		errs = append(errs, "cache.ttl must not be negative")
	}
	if cfg.Cache.Backend == "sqlite" && cfg.Cache.SQLite.Path == "" {
		errs = append(errs, "cache.sqlite.path is required when backend is sqlite")
	}
	if cfg.Cache.Backend == "redis" && cfg.Cache.Redis.Addr == "" {
		errs = append(errs, "cache.redis.addr is required when backend is redis")
	}

	if cfg.Fetch.Timeout <= 0 {
		errs = append(errs, "fetch.timeout must be positive")
	}
	if cfg.Tasks.Timeout <= 0 {
		errs = append(errs, "tasks.timeout must be positive")
	}

	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, "rateLimit.requestsPerMinute must be positive when rate limiting is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
