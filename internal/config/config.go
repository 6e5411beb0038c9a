package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all server settings, loaded from the environment
type Config struct {
	// HTTP server
	Host            string        `env:"GRIDFIRE_HOST"`
	Port            int           `env:"GRIDFIRE_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"GRIDFIRE_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"GRIDFIRE_WRITE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"GRIDFIRE_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Storage
	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`

	// Game rules
	BoardSize          int           `env:"BOARD_SIZE" envDefault:"10"`
	AllowAdjacentShips bool          `env:"ALLOW_ADJACENT_SHIPS" envDefault:"false"`
	TurnDuration       time.Duration `env:"TURN_DURATION" envDefault:"60s"`

	// Connection liveness
	HeartbeatInterval  time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"30s"`
	StaleSweepInterval time.Duration `env:"STALE_SWEEP_INTERVAL" envDefault:"60s"`
	StaleAfter         time.Duration `env:"STALE_AFTER" envDefault:"90s"`

	// Reconnection
	ReconnectGrace         time.Duration `env:"RECONNECT_GRACE" envDefault:"5m"`
	ReconnectSweepInterval time.Duration `env:"RECONNECT_SWEEP_INTERVAL" envDefault:"2m"`

	// Housekeeping
	GameRetention     time.Duration `env:"GAME_RETENTION" envDefault:"1h"`
	RetentionInterval time.Duration `env:"RETENTION_INTERVAL" envDefault:"10m"`

	// Identity
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"24h"`
}

// Load parses configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
