package cachestore

import (
	"fmt"

	"github.com/jonny/ritsu-bot/internal/config"
	"github.com/jonny/ritsu-bot/internal/domain/port/outbound"
)

// New builds the substrate selected by cfg.Backend.
func New(cfg config.CacheConfig) (outbound.CacheStore, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemory(cfg.TTL), nil
	case "sqlite":
		return NewSQLite(SQLiteConfig{
			Path:              cfg.SQLite.Path,
			MaxOpenConns:      cfg.SQLite.MaxOpenConns,
			PragmaJournalMode: cfg.SQLite.PragmaJournalMode,
			PragmaBusyTimeout: cfg.SQLite.PragmaBusyTimeout,
			TTL:               cfg.TTL,
		})
	case "redis":
		return NewRedis(RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.TTL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
