package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gridfire-go/internal/api/middleware"
	"github.com/mcoot/gridfire-go/internal/api/request"
	"github.com/mcoot/gridfire-go/internal/api/response"
	"github.com/mcoot/gridfire-go/internal/model"
	"github.com/mcoot/gridfire-go/internal/realtime"
	"github.com/mcoot/gridfire-go/internal/services/auth"
	"github.com/mcoot/gridfire-go/internal/services/game"
)

// GameHandler handles game lifecycle endpoints
type GameHandler struct {
	gameController *game.Controller
	authService    *auth.Service
	sessions       *realtime.SessionManager
}

// NewGameHandler creates a new game handler
func NewGameHandler(
	gameController *game.Controller,
	authService *auth.Service,
	sessions *realtime.SessionManager,
) *GameHandler {
	return &GameHandler{
		gameController: gameController,
		authService:    authService,
		sessions:       sessions,
	}
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	g, err := h.gameController.CreateGame(r.Context(), session.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	hostID := g.Players[0].ID
	if err := h.authService.BindGame(session.Token, g.ID, hostID); err != nil {
		WriteError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, response.NewGameResponse(g, hostID))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	seat, err := h.authService.GameSeat(session.Token, gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.gameController.GetGame(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, response.NewGameResponse(g, seat))
}

// Join handles POST /api/v1/games/{id}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	var req request.JoinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	name := req.Name
	if name == "" {
		name = session.DisplayName
	}

	player, err := h.gameController.Join(r.Context(), gameID, name)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.authService.BindGame(session.Token, gameID, player.ID); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.gameController.GetGame(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, response.NewGameResponse(g, player.ID))
}

// PlaceShips handles POST /api/v1/games/{id}/ships
func (h *GameHandler) PlaceShips(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	seat, err := h.authService.GameSeat(session.Token, gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.PlaceShipsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if len(req.Ships) == 0 {
		WriteError(w, NewInvalidRequestError("ships are required"))
		return
	}

	if err := h.gameController.PlaceShips(r.Context(), gameID, seat, req.Ships); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.gameController.GetGame(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, response.NewGameResponse(g, seat))
}

// Attack handles POST /api/v1/games/{id}/attack
func (h *GameHandler) Attack(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	seat, err := h.authService.GameSeat(session.Token, gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.AttackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Coordinate == "" {
		WriteError(w, NewInvalidRequestError("coordinate is required"))
		return
	}

	result, err := h.gameController.Attack(r.Context(), gameID, seat, req.Coordinate)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.AttackResponse{
		Outcome:  string(result.Outcome),
		NextTurn: result.NextTurn,
		Finished: result.Finished,
		Winner:   result.Winner,
	}
	if result.SunkShip != nil {
		resp.SunkShip = result.SunkShip.ID
	}
	response.WriteJSON(w, http.StatusOK, resp)
}

// Pause handles POST /api/v1/games/{id}/pause
func (h *GameHandler) Pause(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	seat, err := h.authService.GameSeat(session.Token, gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.gameController.Pause(r.Context(), gameID, model.PauseReasonManual, seat); err != nil {
		WriteError(w, err)
		return
	}

	response.WriteNoContent(w)
}

// Resume handles POST /api/v1/games/{id}/resume
func (h *GameHandler) Resume(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	seat, err := h.authService.GameSeat(session.Token, gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.gameController.Resume(r.Context(), gameID, seat); err != nil {
		WriteError(w, err)
		return
	}

	response.WriteNoContent(w)
}

// Abandon handles DELETE /api/v1/games/{id}
func (h *GameHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	if _, err := h.authService.GameSeat(session.Token, gameID); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.gameController.Abandon(r.Context(), gameID); err != nil {
		WriteError(w, err)
		return
	}

	response.WriteNoContent(w)
}

// Reconnection handles GET /api/v1/games/{id}/reconnection.
// Returns the caller's pending reconnection token, if one exists. The
// token stays valid until redeemed or expired, so a client that lost its
// push connection can fetch it with its identity credential and rejoin
// the stream with session continuity.
func (h *GameHandler) Reconnection(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	seat, err := h.authService.GameSeat(session.Token, gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	pending, ok := h.sessions.Active(gameID, seat)
	if !ok {
		WriteError(w, model.ErrReconnectInvalid)
		return
	}

	response.WriteJSON(w, http.StatusOK, response.ReconnectionResponse{
		Token:     pending.ReconnectToken,
		ExpiresAt: pending.ExpiresAt,
	})
}
