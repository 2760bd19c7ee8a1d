package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ridecache.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "server:\n  addr: \":9090\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Cache.TTL != 300*time.Second {
		t.Errorf("cache ttl default = %v, want 300s", cfg.Cache.TTL)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("cache backend default = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Database.DSN != "ridecache.db" {
		t.Errorf("dsn default = %q", cfg.Database.DSN)
	}
}

func TestLoadFull(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
server:
  addr: ":8081"
  shutdown_timeout: 5s
database:
  dsn: ":memory:"
cache:
  backend: redis
  ttl: 60s
  redis:
    addr: "localhost:6379"
    db: 2
  warm_on_start: [user, rider]
events:
  enabled: true
telemetry:
  metrics:
    enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.Redis.Addr != "localhost:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("redis config = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL != time.Minute {
		t.Errorf("ttl = %v, want 1m", cfg.Cache.TTL)
	}
	if len(cfg.Cache.WarmOnStart) != 2 || cfg.Cache.WarmOnStart[0] != "user" {
		t.Errorf("warm_on_start = %v", cfg.Cache.WarmOnStart)
	}
	if !cfg.Events.Enabled || !cfg.Telemetry.Metrics.Enabled {
		t.Error("events and metrics should be enabled")
	}
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("RIDECACHE_TEST_DSN", "/tmp/env.db")
	path := writeConfig(t, "database:\n  dsn: \"${RIDECACHE_TEST_DSN}\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.DSN != "/tmp/env.db" {
		t.Errorf("dsn = %q, want expanded env value", cfg.Database.DSN)
	}
}

func TestLoadUnknownBackend(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "cache:\n  backend: memcached\n")

	if _, err := Load(path); err == nil {
		t.Error("unknown backend should fail")
	}
}
