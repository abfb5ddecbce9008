package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	HTTP struct {
		Port string `yaml:"port" env:"TEST_HTTP_PORT"`
	} `yaml:"http"`
	Cache struct {
		TTL     time.Duration `yaml:"ttl"`
		Enabled bool          `yaml:"enabled"`
	} `yaml:"cache"`
	Origins []string `yaml:"origins" env:"TEST_ORIGINS"`
	Ignored string   `yaml:"ignored" env:"-"`
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromYAMLThenEnv(t *testing.T) {
	path := writeFile(t, `
http:
  port: "9000"
cache:
  ttl: 30s
  enabled: false
origins: ["a"]
ignored: from-file
`)
	t.Setenv("TEST_HTTP_PORT", "9100")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("CACHE_TTL", "120")
	t.Setenv("TEST_ORIGINS", "http://x, http://y")
	t.Setenv("IGNORED", "from-env")

	var cfg testConfig
	if err := LoadFrom(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Port != "9100" {
		t.Fatalf("expected env port override, got %q", cfg.HTTP.Port)
	}
	if !cfg.Cache.Enabled {
		t.Fatalf("expected cache enabled from env")
	}
	if cfg.Cache.TTL != 2*time.Minute {
		t.Fatalf("expected ttl 2m from plain seconds, got %s", cfg.Cache.TTL)
	}
	if len(cfg.Origins) != 2 || cfg.Origins[1] != "http://y" {
		t.Fatalf("unexpected origins %v", cfg.Origins)
	}
	if cfg.Ignored != "from-file" {
		t.Fatalf("env:\"-\" field must not be overridden, got %q", cfg.Ignored)
	}
}

func TestLoadFromDurationSyntax(t *testing.T) {
	t.Setenv("CACHE_TTL", "1h30m")
	var cfg testConfig
	if err := LoadFrom("", &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Cache.TTL != 90*time.Minute {
		t.Fatalf("expected 90m, got %s", cfg.Cache.TTL)
	}
}

func TestLoadFromRejectsBadInput(t *testing.T) {
	if err := LoadFrom("", nil); err == nil {
		t.Fatalf("expected error for nil target")
	}
	var notStruct int
	if err := LoadFrom("", &notStruct); err == nil {
		t.Fatalf("expected error for non-struct target")
	}

	t.Setenv("CACHE_ENABLED", "maybe")
	var cfg testConfig
	if err := LoadFrom("", &cfg); err == nil {
		t.Fatalf("expected parse error for invalid bool")
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	var cfg testConfig
	if err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
