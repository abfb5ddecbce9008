package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	libconfig "parkinglot/backend/libs/config"
	"parkinglot/backend/libs/db"
	"parkinglot/backend/libs/logging"
)

const defaultPort = "8080"

// Config defines parking service configuration.
type Config struct {
	HTTP     HTTPConfig      `yaml:"http"`
	Database DatabaseConfig  `yaml:"database"`
	Redis    RedisConfig     `yaml:"redis"`
	Receipts ReceiptsConfig  `yaml:"receipts"`
	Feed     FeedConfig      `yaml:"feed"`
	Metrics  MetricsConfig   `yaml:"metrics"`
	Seed     SeedConfig      `yaml:"seed"`
	Log      logging.Options `yaml:"log"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port" env:"PARKING_HTTP_PORT"`
	ReadTimeout     time.Duration `yaml:"readTimeout" env:"PARKING_HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" env:"PARKING_HTTP_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" env:"PARKING_HTTP_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"PARKING_HTTP_SHUTDOWN_TIMEOUT"`
	// AccessLog logs every request at info level.
	AccessLog bool `yaml:"accessLog" env:"PARKING_HTTP_ACCESS_LOG"`
}

type DatabaseConfig struct {
	DSN     string         `yaml:"dsn" env:"PARKING_POSTGRES_DSN"`
	Migrate bool           `yaml:"migrate" env:"PARKING_DB_MIGRATE"`
	Pool    db.PoolOptions `yaml:"pool" env:"PARKING_DB_POOL"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env:"PARKING_REDIS_ENABLED"`
	Addr     string        `yaml:"addr" env:"PARKING_REDIS_ADDR"`
	Password string        `yaml:"password" env:"PARKING_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"PARKING_REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"PARKING_REDIS_TTL"`
}

type ReceiptsConfig struct {
	Secret   string `yaml:"secret" env:"PARKING_RECEIPT_SECRET"`
	Issuer   string `yaml:"issuer" env:"PARKING_RECEIPT_ISSUER"`
	Title    string `yaml:"title" env:"PARKING_RECEIPT_TITLE"`
	Currency string `yaml:"currency" env:"PARKING_CURRENCY"`
	Timezone string `yaml:"timezone" env:"PARKING_TIMEZONE"`
}

type FeedConfig struct {
	Enabled        bool          `yaml:"enabled" env:"PARKING_FEED_ENABLED"`
	PingInterval   time.Duration `yaml:"pingInterval" env:"PARKING_FEED_PING_INTERVAL"`
	AllowedOrigins []string      `yaml:"allowedOrigins" env:"PARKING_FEED_ALLOWED_ORIGINS"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"PARKING_METRICS_ENABLED"`
}

type SeedConfig struct {
	// OnStartup installs the default vehicle types when none exist.
	OnStartup bool `yaml:"onStartup" env:"PARKING_SEED_ON_STARTUP"`
}

// Defaults returns the configuration used before file and env overrides.
func Defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:            defaultPort,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Migrate: true},
		Redis: RedisConfig{
			Enabled: true,
			Addr:    "localhost:6379",
			TTL:     24 * time.Hour,
		},
		Receipts: ReceiptsConfig{
			Issuer:   "parking-service",
			Title:    "PARKING RECEIPT",
			Currency: "LKR",
			Timezone: "UTC",
		},
		Feed: FeedConfig{
			Enabled:      true,
			PingInterval: 30 * time.Second,
		},
		Metrics: MetricsConfig{Enabled: true},
		Log:     logging.Options{Level: "info", Encoding: "json"},
	}
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv(libconfig.DefaultPathEnv))
}

// LoadFrom reads the YAML file at path (optional) and the environment.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()
	if err := libconfig.LoadFrom(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn required")
	}
	if strings.TrimSpace(c.Receipts.Secret) == "" {
		return errors.New("config: receipt secret required")
	}
	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("config: redis addr required when redis is enabled")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// ActiveEntryTTL returns how long a cached active entry lives.
func (c *Config) ActiveEntryTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return c.Redis.TTL
}

// Location resolves the timezone receipts and exports are printed in.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Receipts.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", name, err)
	}
	return loc, nil
}
