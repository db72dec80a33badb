package outbound

import "context"

// CacheStore is the substrate behind the fetch cache. Keys are full
// request URLs. Implementations own freshness: a Get after the configured
// TTL reports a miss. Concurrent Get/Put from independent requests must be
// safe, but no read-after-write consistency across requests is promised.
type CacheStore interface {
	// Get returns the cached body for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores body under key. Overwriting an existing entry is allowed
	// but not required; the fetch layer only writes after a miss.
	Put(ctx context.Context, key string, body []byte) error

	// Ping reports whether the substrate is reachable.
	Ping(ctx context.Context) error

	Close() error
}
