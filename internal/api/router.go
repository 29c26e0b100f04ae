package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dragonworld-game/server/internal/api/handler"
	apimiddleware "github.com/dragonworld-game/server/internal/api/middleware"
	"github.com/dragonworld-game/server/internal/game"
	"github.com/dragonworld-game/server/internal/middleware"
	"github.com/dragonworld-game/server/internal/services/auth"
	"github.com/dragonworld-game/server/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Router      *game.Router
	Hub         *ws.Hub
	WsConfig    ws.Config

	// StaticDir serves the game client at /. Empty disables it.
	StaticDir string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	profileHandler := handler.NewProfileHandler(cfg.AuthService)
	worldHandler := handler.NewWorldHandler(cfg.Router.Registry())

	// Create middleware
	authMiddleware := apimiddleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Account routes (no auth required)
	api.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	// Protected profile routes
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/me", profileHandler.GetMe).Methods(http.MethodGet)
	protected.HandleFunc("/update-nickname", profileHandler.UpdateNickname).Methods(http.MethodPost)

	// World routes (no auth: the listing is public presence data)
	api.HandleFunc("/online-users", worldHandler.OnlineUsers).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Websocket endpoint. Not behind the logging middleware: the upgrade
	// hijacks the connection and the wrapped writer would break it.
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWS(cfg.Hub, cfg.Logger, cfg.WsConfig, w, req)
	})

	// Game client
	if cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
