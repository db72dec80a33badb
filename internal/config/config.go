package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Discord   DiscordConfig   `yaml:"discord"`
	Cache     CacheConfig     `yaml:"cache"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Tasks     TasksConfig     `yaml:"tasks"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MetricsPort     int           `yaml:"metricsPort"`
}

type DiscordConfig struct {
	// AppID is the application ID embedded in follow-up edit paths.
	AppID string `yaml:"appID"`
	// PublicKey is the hex-encoded Ed25519 key interactions are signed with.
	PublicKey string `yaml:"publicKey"`
	// ClientSecret authorizes the client-credentials exchange for command sync.
	ClientSecret string `yaml:"clientSecret"`
	APIBase      string `yaml:"apiBase"`
	// TrustedLocalEnv gates the /sync-cmds administrative endpoint.
	TrustedLocalEnv bool          `yaml:"trustedLocalEnv"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	// EditRatePerSecond throttles outbound calls to the platform API.
	EditRatePerSecond float64 `yaml:"editRatePerSecond"`
}

// DecodePublicKey parses the configured verification key.
func (d DiscordConfig) DecodePublicKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(d.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("decoding discord public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("discord public key is %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

type CacheConfig struct {
	// Backend selects the cache substrate: memory, sqlite, or redis.
	Backend string `yaml:"backend"`
	// TTL bounds entry freshness in every substrate. The cached data ranges
	// from effectively immutable (compound properties) to weekly-changing
	// (release schedules), so freshness is a deliberate, visible setting
	// rather than an accident of the substrate.
	TTL    time.Duration `yaml:"ttl"`
	SQLite SQLiteConfig  `yaml:"sqlite"`
	Redis  RedisConfig   `yaml:"redis"`
}

type SQLiteConfig struct {
	Path              string `yaml:"path"`
	MaxOpenConns      int    `yaml:"maxOpenConns"`
	PragmaJournalMode string `yaml:"pragmaJournalMode"`
	PragmaBusyTimeout int    `yaml:"pragmaBusyTimeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type FetchConfig struct {
	// Timeout bounds a single outbound call to a third-party data API.
	Timeout time.Duration `yaml:"timeout"`
	// MaxBodyBytes caps how much of an upstream response is read and cached.
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`
}

type TasksConfig struct {
	// Timeout bounds one background continuation. Keep it inside the
	// platform's interaction-token validity window.
	Timeout time.Duration `yaml:"timeout"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML config file and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MetricsPort:     9090,
		},
		Discord: DiscordConfig{
			APIBase:           "https://discord.com/api/v10",
			RequestTimeout:    10 * time.Second,
			EditRatePerSecond: 5,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     time.Hour,
			SQLite: SQLiteConfig{
				Path:              "/data/ritsu-cache.db",
				MaxOpenConns:      1,
				PragmaJournalMode: "wal",
				PragmaBusyTimeout: 5000,
			},
			Redis: RedisConfig{Addr: "localhost:6379"},
		},
		Fetch: FetchConfig{
			Timeout:      15 * time.Second,
			MaxBodyBytes: 4 << 20,
		},
		Tasks: TasksConfig{
			Timeout: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// expandEnvVars replaces ${VAR} patterns with environment variable values.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "${" + key + "}"
	})
}
