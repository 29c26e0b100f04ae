package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration, loaded from the environment.
type Config struct {
	// HTTP server
	Host string `env:"HOST" envDefault:""`
	Port int    `env:"PORT" envDefault:"8080"`

	// Storage backend: "memory" or "redis"
	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	// Auth
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Websocket tuning
	PongWait  time.Duration `env:"WS_PONG_WAIT" envDefault:"60s"`
	WriteWait time.Duration `env:"WS_WRITE_WAIT" envDefault:"10s"`

	// Static game client directory. Empty disables serving it.
	StaticDir string `env:"STATIC_DIR" envDefault:"web/static"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.StorageType != "memory" && c.StorageType != "redis" {
		return fmt.Errorf("unknown storage type %q", c.StorageType)
	}
	return nil
}
