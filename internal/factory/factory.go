package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/gridfire-go/internal/config"
	"github.com/mcoot/gridfire-go/internal/dependencies/clock"
	"github.com/mcoot/gridfire-go/internal/dependencies/random"
	"github.com/mcoot/gridfire-go/internal/realtime"
	"github.com/mcoot/gridfire-go/internal/registry"
	"github.com/mcoot/gridfire-go/internal/services/auth"
	"github.com/mcoot/gridfire-go/internal/services/fleet"
	"github.com/mcoot/gridfire-go/internal/services/game"
	"github.com/mcoot/gridfire-go/internal/services/turnclock"
	"github.com/mcoot/gridfire-go/internal/storage"
	"github.com/mcoot/gridfire-go/internal/storage/memory"
	redisstorage "github.com/mcoot/gridfire-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Core components
	Registry       *registry.Registry
	FleetService   *fleet.Service
	TurnClock      *turnclock.Service
	AuthService    *auth.Service
	GameController *game.Controller
	Sessions       *realtime.SessionManager
	Hub            *realtime.Hub
	Bridge         *realtime.Bridge

	cfg    config.Config
	logger *slog.Logger
}

// New creates a new application with all dependencies wired from config
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	switch cfg.StorageType {
	case "", StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL required when STORAGE_TYPE is redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisStore, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid STORAGE_TYPE: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg config.Config, logger *slog.Logger) *App {
	reg := registry.New(logger)

	fleetService := fleet.New(fleet.Config{
		Fleet:         fleet.DefaultFleet,
		BoardSize:     cfg.BoardSize,
		AllowAdjacent: cfg.AllowAdjacentShips,
	})

	turnClock := turnclock.New(clk, logger)

	authService := auth.New(store, clk, rnd, auth.Config{
		SessionDuration: cfg.SessionDuration,
	})

	sessions := realtime.NewSessionManager(clk, rnd, realtime.SessionManagerConfig{
		Grace:         cfg.ReconnectGrace,
		SweepInterval: cfg.ReconnectSweepInterval,
	}, logger)

	hub := realtime.NewHub(sessions, clk, rnd, realtime.HubConfig{
		HeartbeatInterval:  cfg.HeartbeatInterval,
		StaleSweepInterval: cfg.StaleSweepInterval,
		StaleAfter:         cfg.StaleAfter,
	}, logger)

	gameController := game.NewController(reg, fleetService, turnClock, store, hub, clk, rnd, logger, game.Config{
		TurnDuration: cfg.TurnDuration,
	})

	bridge := realtime.NewBridge(hub, sessions, gameController, clk, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Registry:       reg,
		FleetService:   fleetService,
		TurnClock:      turnClock,
		AuthService:    authService,
		GameController: gameController,
		Sessions:       sessions,
		Hub:            hub,
		Bridge:         bridge,
		cfg:            cfg,
		logger:         logger,
	}
}

// Start launches the app's background loops. They all stop when ctx is
// cancelled.
func (a *App) Start(ctx context.Context) {
	go a.Hub.Run(ctx)
	go a.Sessions.Run(ctx)
	go a.Bridge.Run(ctx)
	go a.retentionLoop(ctx)
}

// retentionLoop evicts terminal games from the registry once their
// retention window passes. Persistent storage keeps its own copies, so
// eviction only bounds in-memory growth.
func (a *App) retentionLoop(ctx context.Context) {
	interval := a.cfg.RetentionInterval
	if interval == 0 {
		interval = 10 * time.Minute
	}
	retention := a.cfg.GameRetention
	if retention == 0 {
		retention = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := a.Registry.EvictTerminatedBefore(a.Clock.Now().Add(-retention)); n > 0 {
				a.logger.Info("evicted finished games", slog.Int("count", n))
			}
			a.AuthService.CleanExpiredSessions()

		case <-ctx.Done():
			return
		}
	}
}
