package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/gridfire-go/internal/model"
	"github.com/mcoot/gridfire-go/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeGameFull           = "GAME_FULL"
	CodeDuplicateName      = "DUPLICATE_NAME"
	CodeNotJoinable        = "NOT_JOINABLE"
	CodeWrongPhase         = "WRONG_PHASE"
	CodeGamePaused         = "GAME_PAUSED"
	CodeNotPaused          = "NOT_PAUSED"
	CodeNotYourTurn        = "NOT_YOUR_TURN"
	CodeShipsPlaced        = "SHIPS_ALREADY_PLACED"
	CodeInvalidPlacement   = "INVALID_PLACEMENT"
	CodeInvalidCoordinate  = "INVALID_COORDINATE"
	CodeAlreadyAttacked    = "ALREADY_ATTACKED"
	CodeReconnectInvalid   = "RECONNECT_INVALID"
	CodeNotInGame          = "NOT_IN_GAME"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Not-found
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}

	// State-conflict
	case errors.Is(err, model.ErrGameNotJoinable):
		return &httpError{http.StatusConflict, APIError{CodeNotJoinable, "Game is not accepting players"}}
	case errors.Is(err, model.ErrWrongPhase), errors.Is(err, model.ErrInvalidTransition):
		return &httpError{http.StatusConflict, APIError{CodeWrongPhase, "Operation not valid in current phase"}}
	case errors.Is(err, model.ErrGamePaused):
		return &httpError{http.StatusConflict, APIError{CodeGamePaused, "Game is paused"}}
	case errors.Is(err, model.ErrNotPaused):
		return &httpError{http.StatusConflict, APIError{CodeNotPaused, "Game is not paused"}}
	case errors.Is(err, model.ErrNotPlayerTurn):
		return &httpError{http.StatusForbidden, APIError{CodeNotYourTurn, "Not your turn"}}
	case errors.Is(err, model.ErrShipsAlreadyPlaced):
		return &httpError{http.StatusConflict, APIError{CodeShipsPlaced, "Ships already placed"}}

	// Validation
	case errors.Is(err, model.ErrInvalidCoordinate):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidCoordinate, "Invalid coordinate"}}
	case errors.Is(err, model.ErrAlreadyAttacked):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyAttacked, "Coordinate already attacked"}}
	case errors.Is(err, model.ErrFleetMismatch),
		errors.Is(err, model.ErrShipOutOfBounds),
		errors.Is(err, model.ErrShipOverlap),
		errors.Is(err, model.ErrShipsAdjacent),
		errors.Is(err, model.ErrShipNotContiguous),
		errors.Is(err, model.ErrInvalidShipSpec):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPlacement, err.Error()}}

	// Capacity
	case errors.Is(err, model.ErrGameFull):
		return &httpError{http.StatusConflict, APIError{CodeGameFull, "Game already has two players"}}
	case errors.Is(err, model.ErrDuplicateName):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateName, "Player name already taken in this game"}}

	// Expired-credential
	case errors.Is(err, model.ErrReconnectInvalid):
		return &httpError{http.StatusGone, APIError{CodeReconnectInvalid, "Reconnection token invalid or expired"}}

	// Identity
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrNotInGame):
		return &httpError{http.StatusForbidden, APIError{CodeNotInGame, "Session is not bound to this game"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
