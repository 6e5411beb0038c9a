package request

import "github.com/mcoot/gridfire-go/internal/model"

// GuestRequest creates an anonymous session
type GuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest creates a persistent account
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest authenticates against a registered account
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// JoinGameRequest joins an existing game
type JoinGameRequest struct {
	Name string `json:"name"`
}

// PlaceShipsRequest submits a full fleet placement
type PlaceShipsRequest struct {
	Ships []model.ShipSpec `json:"ships"`
}

// AttackRequest fires at a coordinate, e.g. "B7"
type AttackRequest struct {
	Coordinate string `json:"coordinate"`
}
