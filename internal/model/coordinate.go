package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinate identifies a cell on the board
type Coordinate struct {
	Row int // 0-indexed from top (A = 0)
	Col int // 0-indexed from left (1 = 0)
}

// ParseCoordinate parses battleship notation like "A1" or "J10"
func ParseCoordinate(s string) (Coordinate, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Coordinate{}, ErrInvalidCoordinate
	}

	row := s[0]
	if row < 'A' || row > 'Z' {
		return Coordinate{}, ErrInvalidCoordinate
	}

	col, err := strconv.Atoi(s[1:])
	if err != nil || col < 1 {
		return Coordinate{}, ErrInvalidCoordinate
	}

	return Coordinate{Row: int(row - 'A'), Col: col - 1}, nil
}

// String returns the battleship notation for the coordinate
func (c Coordinate) String() string {
	return fmt.Sprintf("%c%d", rune('A'+c.Row), c.Col+1)
}

// MarshalText implements encoding.TextMarshaler so coordinates can be used
// as JSON map keys
func (c Coordinate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Coordinate) UnmarshalText(text []byte) error {
	parsed, err := ParseCoordinate(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// InBounds returns true if the coordinate is within a square board
func (c Coordinate) InBounds(size int) bool {
	return c.Row >= 0 && c.Row < size && c.Col >= 0 && c.Col < size
}

// Neighbors returns the up to eight surrounding coordinates, including
// diagonals, without bounds filtering
func (c Coordinate) Neighbors() []Coordinate {
	neighbors := make([]Coordinate, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			neighbors = append(neighbors, Coordinate{Row: c.Row + dr, Col: c.Col + dc})
		}
	}
	return neighbors
}
