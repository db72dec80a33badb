package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// testPubKey is a syntactically valid (32-byte) hex ed25519 public key.
const testPubKey = "4c3f78a2d1e09b6655aa17c2f0d94e83b1c6a9d04f2e7b58c3d1a0e6f4928b7d"

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Discord.AppID = "123456789012345678"
	cfg.Discord.PublicKey = testPubKey
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected server.port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9090 {
		t.Errorf("expected server.metricsPort 9090, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected server.shutdownTimeout 15s, got %v", cfg.Server.ShutdownTimeout)
	}

	if cfg.Discord.APIBase != "https://discord.com/api/v10" {
		t.Errorf("expected discord.apiBase v10, got %q", cfg.Discord.APIBase)
	}
	if cfg.Discord.TrustedLocalEnv {
		t.Error("expected discord.trustedLocalEnv false by default")
	}

	if cfg.Cache.Backend != "memory" {
		t.Errorf("expected cache.backend memory, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("expected cache.ttl 1h, got %v", cfg.Cache.TTL)
	}

	if cfg.Fetch.Timeout != 15*time.Second {
		t.Errorf("expected fetch.timeout 15s, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Tasks.Timeout != 10*time.Minute {
		t.Errorf("expected tasks.timeout 10m, got %v", cfg.Tasks.Timeout)
	}

	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoad(t *testing.T) {
	yaml := `
server:
  port: 9000
  metricsPort: 9091
discord:
  appID: "42"
  publicKey: "` + testPubKey + `"
cache:
  backend: sqlite
  ttl: 30m
  sqlite:
    path: "/tmp/test-cache.db"
`
	f := writeTempYAML(t, yaml)

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "sqlite" {
		t.Errorf("expected cache.backend sqlite, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("expected cache.ttl 30m, got %v", cfg.Cache.TTL)
	}
	if cfg.Cache.SQLite.Path != "/tmp/test-cache.db" {
		t.Errorf("expected sqlite path override, got %q", cfg.Cache.SQLite.Path)
	}
	// Untouched sections keep their defaults.
	if cfg.Fetch.Timeout != 15*time.Second {
		t.Errorf("expected default fetch.timeout, got %v", cfg.Fetch.Timeout)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("RITSU_TEST_APP_ID", "987654321")

	yaml := `
discord:
  appID: "${RITSU_TEST_APP_ID}"
  publicKey: "` + testPubKey + `"
`
	f := writeTempYAML(t, yaml)

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Discord.AppID != "987654321" {
		t.Errorf("expected env-expanded appID, got %q", cfg.Discord.AppID)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	f := writeTempYAML(t, ":::invalid yaml:::")
	if _, err := Load(f); err == nil {
		t.Error("expected error for invalid yaml, got nil")
	}
}

func TestValidate_RequiresAppID(t *testing.T) {
	cfg := validConfig()
	cfg.Discord.AppID = ""
	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for missing appID, got nil")
	}
}

func TestValidate_RejectsBadPublicKey(t *testing.T) {
	cfg := validConfig()

	cfg.Discord.PublicKey = "not-hex"
	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for non-hex key, got nil")
	}

	cfg.Discord.PublicKey = "abcd" // right alphabet, wrong length
	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for short key, got nil")
	}
}

func TestValidate_UnknownCacheBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Backend = "memcached"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for unknown backend, got nil")
	}
	if !strings.Contains(err.Error(), "cache.backend") {
		t.Errorf("error does not mention cache.backend: %v", err)
	}
}

func TestValidate_SyncRequiresClientSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Discord.TrustedLocalEnv = true
	cfg.Discord.ClientSecret = ""
	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for missing clientSecret, got nil")
	}
}

func TestValidate_RedisBackendRequiresAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Backend = "redis"
	cfg.Cache.Redis.Addr = ""
	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for missing redis addr, got nil")
	}
}

func TestDecodePublicKey(t *testing.T) {
	cfg := validConfig()
	key, err := cfg.Discord.DecodePublicKey()
	if err != nil {
		t.Fatalf("DecodePublicKey: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("key length = %d, want 32", len(key))
	}
}

// writeTempYAML writes content to a temp file and returns its path.
func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	f := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(f, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp yaml: %v", err)
	}
	return f
}
