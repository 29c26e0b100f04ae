package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dragonworld-game/server/internal/api"
	"github.com/dragonworld-game/server/internal/config"
	"github.com/dragonworld-game/server/internal/factory"
	"github.com/dragonworld-game/server/internal/services/auth"
	redisstorage "github.com/dragonworld-game/server/internal/storage/redis"
	"github.com/dragonworld-game/server/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, issued tokens will not survive restarts")
	}

	authCfg := auth.DefaultConfig()
	authCfg.Secret = cfg.JWTSecret
	authCfg.TokenTTL = cfg.TokenTTL

	factoryCfg := factory.Config{
		AuthConfig:  authCfg,
		Logger:      logger,
		StorageType: cfg.StorageType,
	}
	if cfg.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drain profile writes in the background
	go app.ProfileWriter.Run(ctx)

	wsCfg := ws.DefaultConfig()
	wsCfg.PongWait = cfg.PongWait
	wsCfg.WriteWait = cfg.WriteWait

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		Router:      app.Router,
		Hub:         app.Hub,
		WsConfig:    wsCfg,
		StaticDir:   staticDir(cfg.StaticDir),
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// staticDir returns the configured static directory if it exists,
// otherwise empty so the file server is disabled.
func staticDir(dir string) string {
	if dir == "" {
		return ""
	}
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}
