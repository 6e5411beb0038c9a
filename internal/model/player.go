package model

import "time"

// PlayerID uniquely identifies a player within a game
type PlayerID string

// Player is a participant in a single game
type Player struct {
	ID    PlayerID
	Name  string
	Ready bool // True once the player's fleet is placed
	Board *Board
	Ships []*Ship // Empty until placement
}

// AllShipsSunk returns true if the player has placed ships and every one is sunk
func (p *Player) AllShipsSunk() bool {
	if len(p.Ships) == 0 {
		return false
	}
	for _, ship := range p.Ships {
		if !ship.Sunk {
			return false
		}
	}
	return true
}

// ShipAt returns the ship occupying the coordinate, or nil
func (p *Player) ShipAt(c Coordinate) *Ship {
	for _, ship := range p.Ships {
		if ship.Occupies(c) {
			return ship
		}
	}
	return nil
}

// Board tracks the shots received by a player. Hits and Misses are disjoint.
type Board struct {
	Size   int
	Hits   map[Coordinate]bool
	Misses map[Coordinate]bool
}

// NewBoard creates an empty board of the given size
func NewBoard(size int) *Board {
	return &Board{
		Size:   size,
		Hits:   make(map[Coordinate]bool),
		Misses: make(map[Coordinate]bool),
	}
}

// Attacked returns true if the coordinate has already been shot at
func (b *Board) Attacked(c Coordinate) bool {
	return b.Hits[c] || b.Misses[c]
}

// ShotCount returns the total number of shots received
func (b *Board) ShotCount() int {
	return len(b.Hits) + len(b.Misses)
}

// Account is a registered player account. Accounts carry a persistent
// display name across games; guests exist only for the session's lifetime.
type Account struct {
	Username     string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}
