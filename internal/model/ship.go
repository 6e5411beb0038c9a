package model

// ShipDirection is the orientation of a ship placed by start + direction
type ShipDirection string

const (
	DirectionHorizontal ShipDirection = "horizontal"
	DirectionVertical   ShipDirection = "vertical"
)

// Ship is a placed ship on a player's board
type Ship struct {
	ID        string
	Length    int
	Positions []Coordinate // Ordered, len(Positions) == Length
	Hits      int          // 0..Length
	Sunk      bool         // Set exactly once when Hits reaches Length
}

// Occupies returns true if the ship occupies the given coordinate
func (s *Ship) Occupies(c Coordinate) bool {
	for _, pos := range s.Positions {
		if pos == c {
			return true
		}
	}
	return false
}

// RegisterHit records a hit on the ship and returns true if this hit sank it
func (s *Ship) RegisterHit() bool {
	if s.Sunk {
		return false
	}
	s.Hits++
	if s.Hits >= s.Length {
		s.Sunk = true
		return true
	}
	return false
}

// ShipSpec is the placement input for a single ship. Exactly one encoding
// must be supplied: Start+Direction, or an explicit coordinate list. Both
// are normalized to a coordinate list before validation.
type ShipSpec struct {
	Length    int           `json:"length"`
	Start     string        `json:"start,omitempty"`
	Direction ShipDirection `json:"direction,omitempty"`
	Positions []string      `json:"positions,omitempty"`
}
