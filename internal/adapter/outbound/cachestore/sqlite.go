package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// validJournalModes defines accepted SQLite journal modes.
var validJournalModes = map[string]bool{
	"wal": true, "delete": true, "truncate": true,
	"persist": true, "memory": true, "off": true,
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS fetch_cache (
	url        TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
);`

// SQLiteConfig holds SQLite connection configuration.
type SQLiteConfig struct {
	Path              string
	MaxOpenConns      int
	PragmaJournalMode string
	PragmaBusyTimeout int
	TTL               time.Duration
}

// SQLite is a file-backed substrate: survives restarts, fits single-node
// deployments that don't want to run Redis.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite opens the database at cfg.Path, applies pragmas, and creates
// the cache table.
func NewSQLite(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.PragmaJournalMode != "" && !validJournalModes[strings.ToLower(cfg.PragmaJournalMode)] {
		return nil, fmt.Errorf("invalid pragma journal mode: %q", cfg.PragmaJournalMode)
	}
	dsn := fmt.Sprintf(
		"%s?_journal_mode=%s&_busy_timeout=%d",
		cfg.Path,
		cfg.PragmaJournalMode,
		cfg.PragmaBusyTimeout,
	)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &SQLite{db: db, ttl: cfg.TTL, now: time.Now}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM fetch_cache WHERE url = ?`, key,
	).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	if s.ttl > 0 && s.now().Unix()-fetchedAt > int64(s.ttl.Seconds()) {
		// Expired entries are deleted lazily on read.
		_, _ = s.db.ExecContext(ctx, `DELETE FROM fetch_cache WHERE url = ?`, key)
		return nil, false, nil
	}
	return body, true, nil
}

func (s *SQLite) Put(ctx context.Context, key string, body []byte) error {
	// OR IGNORE keeps the first writer's entry when two requests miss the
	// same key concurrently; Get already cleared any expired row.
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO fetch_cache (url, body, fetched_at) VALUES (?, ?, ?)`,
		key, body, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error { return s.db.Close() }
