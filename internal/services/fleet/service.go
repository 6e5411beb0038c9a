package fleet

import (
	"fmt"
	"sort"

	"github.com/mcoot/gridfire-go/internal/model"
)

// DefaultFleet is the standard set of ship lengths each player must place
var DefaultFleet = []int{5, 4, 3, 3, 2}

// Config holds the placement rules for a game
type Config struct {
	// Fleet is the required multiset of ship lengths
	Fleet []int
	// BoardSize is the square board dimension
	BoardSize int
	// AllowAdjacent disables the no-touching rule when true
	AllowAdjacent bool
}

// DefaultConfig returns the standard battleship rules on a 10x10 board
func DefaultConfig() Config {
	return Config{
		Fleet:         DefaultFleet,
		BoardSize:     10,
		AllowAdjacent: false,
	}
}

// Service validates proposed fleet placements
type Service struct {
	cfg Config
}

// New creates a fleet service with the given rules
func New(cfg Config) *Service {
	if len(cfg.Fleet) == 0 {
		cfg.Fleet = DefaultFleet
	}
	if cfg.BoardSize <= 0 {
		cfg.BoardSize = DefaultConfig().BoardSize
	}
	return &Service{cfg: cfg}
}

// Config returns the rules in effect
func (s *Service) Config() Config {
	return s.cfg
}

// BuildFleet validates the proposed placement against the configured rules
// and returns the placed ships. The input order is preserved; ship IDs are
// assigned by position in the list.
func (s *Service) BuildFleet(specs []model.ShipSpec) ([]*model.Ship, error) {
	if err := s.checkLengths(specs); err != nil {
		return nil, err
	}

	ships := make([]*model.Ship, len(specs))
	occupied := make(map[model.Coordinate]int, s.cfg.BoardSize)

	for i, spec := range specs {
		positions, err := NormalizeSpec(spec)
		if err != nil {
			return nil, err
		}

		for _, pos := range positions {
			if !pos.InBounds(s.cfg.BoardSize) {
				return nil, model.ErrShipOutOfBounds
			}
			if _, taken := occupied[pos]; taken {
				return nil, model.ErrShipOverlap
			}
			occupied[pos] = i
		}

		ships[i] = &model.Ship{
			ID:        fmt.Sprintf("ship-%d", i+1),
			Length:    spec.Length,
			Positions: positions,
		}
	}

	if !s.cfg.AllowAdjacent {
		if err := checkAdjacency(ships, occupied); err != nil {
			return nil, err
		}
	}

	return ships, nil
}

// checkLengths verifies the multiset of ship lengths equals the fleet
func (s *Service) checkLengths(specs []model.ShipSpec) error {
	if len(specs) != len(s.cfg.Fleet) {
		return model.ErrFleetMismatch
	}

	required := append([]int(nil), s.cfg.Fleet...)
	proposed := make([]int, len(specs))
	for i, spec := range specs {
		proposed[i] = spec.Length
	}
	sort.Ints(required)
	sort.Ints(proposed)

	for i := range required {
		if required[i] != proposed[i] {
			return model.ErrFleetMismatch
		}
	}
	return nil
}

// checkAdjacency enforces the no-touching rule: no cell of one ship may
// neighbor (including diagonally) a cell of another ship
func checkAdjacency(ships []*model.Ship, occupied map[model.Coordinate]int) error {
	for i, ship := range ships {
		for _, pos := range ship.Positions {
			for _, neighbor := range pos.Neighbors() {
				if owner, taken := occupied[neighbor]; taken && owner != i {
					return model.ErrShipsAdjacent
				}
			}
		}
	}
	return nil
}

// NormalizeSpec converts either placement encoding to a canonical ordered
// coordinate list. Start+Direction and Positions are mutually exclusive.
func NormalizeSpec(spec model.ShipSpec) ([]model.Coordinate, error) {
	if spec.Length < 1 {
		return nil, model.ErrInvalidShipSpec
	}

	hasStart := spec.Start != ""
	hasPositions := len(spec.Positions) > 0
	if hasStart == hasPositions {
		return nil, model.ErrInvalidShipSpec
	}

	if hasStart {
		return expandRun(spec)
	}
	return parsePositions(spec)
}

// expandRun builds the coordinate list from a start cell and direction
func expandRun(spec model.ShipSpec) ([]model.Coordinate, error) {
	start, err := model.ParseCoordinate(spec.Start)
	if err != nil {
		return nil, err
	}

	var dr, dc int
	switch spec.Direction {
	case model.DirectionHorizontal:
		dc = 1
	case model.DirectionVertical:
		dr = 1
	default:
		return nil, model.ErrInvalidShipSpec
	}

	positions := make([]model.Coordinate, spec.Length)
	for i := 0; i < spec.Length; i++ {
		positions[i] = model.Coordinate{Row: start.Row + i*dr, Col: start.Col + i*dc}
	}
	return positions, nil
}

// parsePositions parses an explicit coordinate list and verifies it forms
// a straight, gapless run of the declared length
func parsePositions(spec model.ShipSpec) ([]model.Coordinate, error) {
	if len(spec.Positions) != spec.Length {
		return nil, model.ErrInvalidShipSpec
	}

	positions := make([]model.Coordinate, len(spec.Positions))
	for i, raw := range spec.Positions {
		pos, err := model.ParseCoordinate(raw)
		if err != nil {
			return nil, err
		}
		positions[i] = pos
	}

	if len(positions) == 1 {
		return positions, nil
	}

	dr := positions[1].Row - positions[0].Row
	dc := positions[1].Col - positions[0].Col
	if !((dr == 0 && (dc == 1 || dc == -1)) || (dc == 0 && (dr == 1 || dr == -1))) {
		return nil, model.ErrShipNotContiguous
	}

	for i := 1; i < len(positions); i++ {
		if positions[i].Row-positions[i-1].Row != dr || positions[i].Col-positions[i-1].Col != dc {
			return nil, model.ErrShipNotContiguous
		}
	}
	return positions, nil
}
