package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFileAndEnv(t *testing.T) {
	path := writeFile(t, `
http:
  port: "9090"
database:
  dsn: postgres://file
  pool:
    maxOpenConns: 7
redis:
  enabled: false
receipts:
  secret: from-file
  timezone: Asia/Colombo
feed:
  allowedOrigins: ["https://lot.example"]
`)
	t.Setenv("PARKING_POSTGRES_DSN", "postgres://env")
	t.Setenv("PARKING_HTTP_SHUTDOWN_TIMEOUT", "5")
	t.Setenv("PARKING_FEED_PING_INTERVAL", "45s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddress() != ":9090" {
		t.Fatalf("unexpected address %q", cfg.HTTPAddress())
	}
	if cfg.Database.DSN != "postgres://env" {
		t.Fatalf("env must override file dsn, got %q", cfg.Database.DSN)
	}
	if cfg.Database.Pool.MaxOpenConns != 7 || !cfg.Database.Migrate {
		t.Fatalf("unexpected database config %+v", cfg.Database)
	}
	if cfg.HTTP.ShutdownTimeout != 5*time.Second || cfg.Feed.PingInterval != 45*time.Second {
		t.Fatalf("durations not parsed: %+v %+v", cfg.HTTP, cfg.Feed)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("expected redis disabled by file")
	}
	if cfg.Receipts.Currency != "LKR" || cfg.Receipts.Secret != "from-file" {
		t.Fatalf("unexpected receipts config %+v", cfg.Receipts)
	}
	if len(cfg.Feed.AllowedOrigins) != 1 {
		t.Fatalf("unexpected origins %v", cfg.Feed.AllowedOrigins)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected LOG_LEVEL override, got %q", cfg.Log.Level)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Asia/Colombo" {
		t.Fatalf("unexpected location %v, %v", loc, err)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("PARKING_POSTGRES_DSN", "")
	t.Setenv("PARKING_RECEIPT_SECRET", "")

	if _, err := LoadFrom(""); err == nil {
		t.Fatalf("expected error without dsn")
	}

	t.Setenv("PARKING_POSTGRES_DSN", "postgres://x")
	if _, err := LoadFrom(""); err == nil {
		t.Fatalf("expected error without receipt secret")
	}

	t.Setenv("PARKING_RECEIPT_SECRET", "s")
	t.Setenv("PARKING_TIMEZONE", "Mars/Olympus")
	if _, err := LoadFrom(""); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}

	t.Setenv("PARKING_TIMEZONE", "")
	cfg, err := LoadFrom("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddress() != ":8080" || cfg.ActiveEntryTTL() != 24*time.Hour {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}
