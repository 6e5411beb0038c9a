package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gridfire-go/internal/api/handler"
	"github.com/mcoot/gridfire-go/internal/api/middleware"
	"github.com/mcoot/gridfire-go/internal/api/response"
	basemiddleware "github.com/mcoot/gridfire-go/internal/middleware"
	"github.com/mcoot/gridfire-go/internal/realtime"
	"github.com/mcoot/gridfire-go/internal/registry"
	"github.com/mcoot/gridfire-go/internal/services/auth"
	"github.com/mcoot/gridfire-go/internal/services/game"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	GameController *game.Controller
	Hub            *realtime.Hub
	Sessions       *realtime.SessionManager
	Registry       *registry.Registry
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.AuthService, cfg.Sessions)
	streamHandler := handler.NewStreamHandler(cfg.Hub, cfg.AuthService)

	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := basemiddleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Identity routes (no auth required for creating sessions)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected identity routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)

	// Game routes (all require auth)
	games := api.PathPrefix("/games").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("", gameHandler.Create).Methods(http.MethodPost)
	games.HandleFunc("/{id}", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/{id}", gameHandler.Abandon).Methods(http.MethodDelete)
	games.HandleFunc("/{id}/join", gameHandler.Join).Methods(http.MethodPost)
	games.HandleFunc("/{id}/ships", gameHandler.PlaceShips).Methods(http.MethodPost)
	games.HandleFunc("/{id}/attack", gameHandler.Attack).Methods(http.MethodPost)
	games.HandleFunc("/{id}/pause", gameHandler.Pause).Methods(http.MethodPost)
	games.HandleFunc("/{id}/resume", gameHandler.Resume).Methods(http.MethodPost)
	games.HandleFunc("/{id}/reconnection", gameHandler.Reconnection).Methods(http.MethodGet)

	// Push routes (auth required, long-lived)
	games.HandleFunc("/{id}/events", streamHandler.Events).Methods(http.MethodGet)
	games.HandleFunc("/{id}/ws", streamHandler.WS).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler(cfg.Registry)).Methods(http.MethodGet)

	return r
}

func healthHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.HealthResponse{
			Status: "ok",
			Games:  reg.Len(),
		})
	}
}
