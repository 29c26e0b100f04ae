package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/dragonworld-game/server/internal/dependencies/clock"
	"github.com/dragonworld-game/server/internal/dependencies/random"
	"github.com/dragonworld-game/server/internal/game"
	"github.com/dragonworld-game/server/internal/services/auth"
	"github.com/dragonworld-game/server/internal/services/profile"
	"github.com/dragonworld-game/server/internal/storage"
	"github.com/dragonworld-game/server/internal/storage/memory"
	redisstorage "github.com/dragonworld-game/server/internal/storage/redis"
	"github.com/dragonworld-game/server/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.ProfileStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuthService   *auth.Service
	ProfileWriter *profile.Writer

	// World state
	Registry *game.Registry
	Ledger   *game.Ledger
	Router   *game.Router
	Hub      *ws.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// WriterConfig holds configuration for the profile writer (optional)
	WriterConfig profile.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.ProfileStore
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.TokenTTL == 0 {
		authCfg.TokenTTL = auth.DefaultConfig().TokenTTL
	}

	return newWithDependencies(store, clk, rnd, authCfg, cfg.WriterConfig, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.ProfileStore, clk clock.Clock, rnd random.Random, authCfg auth.Config, writerCfg profile.Config, logger *slog.Logger) *App {
	authService := auth.New(store, clk, authCfg)
	writer := profile.NewWriter(store, clk, logger, writerCfg)

	registry := game.NewRegistry(clk, rnd)
	ledger := game.NewLedger(clk)
	router := game.NewRouter(registry, ledger, authService, writer, authService, logger)
	hub := ws.NewHub(router, logger)

	return &App{
		Storage:       store,
		Clock:         clk,
		Random:        rnd,
		AuthService:   authService,
		ProfileWriter: writer,
		Registry:      registry,
		Ledger:        ledger,
		Router:        router,
		Hub:           hub,
	}
}
