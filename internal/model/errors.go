package model

import "errors"

// Common errors used across the application
var (
	// Not-found errors
	ErrGameNotFound   = errors.New("game not found")
	ErrPlayerNotFound = errors.New("player not found")

	// State-conflict errors
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrGameNotJoinable   = errors.New("game is not accepting players")
	ErrNotPlayerTurn     = errors.New("not this player's turn")
	ErrShipsAlreadyPlaced = errors.New("ships already placed")
	ErrWrongPhase        = errors.New("operation not valid in current phase")
	ErrGamePaused        = errors.New("game is paused")
	ErrNotPaused         = errors.New("game is not paused")

	// Validation errors
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrAlreadyAttacked    = errors.New("coordinate already attacked")
	ErrFleetMismatch      = errors.New("fleet does not match required ship lengths")
	ErrShipOutOfBounds    = errors.New("ship extends outside the board")
	ErrShipOverlap        = errors.New("ships overlap")
	ErrShipsAdjacent      = errors.New("ships are adjacent")
	ErrShipNotContiguous  = errors.New("ship coordinates are not collinear and contiguous")
	ErrInvalidShipSpec    = errors.New("invalid ship specification")

	// Capacity errors
	ErrGameFull      = errors.New("game already has two players")
	ErrDuplicateName = errors.New("player name already taken in this game")

	// Expired-credential errors
	ErrReconnectInvalid = errors.New("reconnection token invalid or expired")

	// Account errors
	ErrAccountNotFound = errors.New("account not found")
)
