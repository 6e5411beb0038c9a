package model

import "time"

// GameID uniquely identifies a game
type GameID string

// MaxPlayers is the number of players in a game
const MaxPlayers = 2

// GamePhase represents the current phase of a game
type GamePhase string

const (
	PhaseWaiting   GamePhase = "waiting"   // Waiting for players to join
	PhaseSetup     GamePhase = "setup"     // At least one player has placed ships
	PhasePlaying   GamePhase = "playing"   // Turns in progress
	PhasePaused    GamePhase = "paused"    // Playing suspended
	PhaseFinished  GamePhase = "finished"  // One player sank the other's fleet
	PhaseAbandoned GamePhase = "abandoned" // Game was cancelled
)

// IsTerminal returns true for phases no game can leave
func (p GamePhase) IsTerminal() bool {
	return p == PhaseFinished || p == PhaseAbandoned
}

// validTransitions is the phase state machine edge table. Any phase may
// additionally transition to abandoned.
var validTransitions = map[GamePhase][]GamePhase{
	PhaseWaiting: {PhaseSetup},
	PhaseSetup:   {PhasePlaying, PhaseWaiting},
	PhasePlaying: {PhasePaused, PhaseFinished},
	PhasePaused:  {PhasePlaying},
}

// CanTransition reports whether the edge from -> to is in the state machine
func CanTransition(from, to GamePhase) bool {
	if to == PhaseAbandoned {
		return !from.IsTerminal()
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PauseReason distinguishes why a game was paused
type PauseReason string

const (
	PauseReasonDisconnect PauseReason = "disconnect"
	PauseReasonManual     PauseReason = "manual"
)

// PauseRecord exists iff the game is currently paused
type PauseRecord struct {
	Reason        PauseReason
	PausedAt      time.Time
	PausedBy      PlayerID // Player who caused the pause, if any
	TurnRemaining time.Duration
}

// Game represents a single battleship session
type Game struct {
	ID      GameID
	Phase   GamePhase
	Players []*Player // Join order, at most MaxPlayers

	CurrentTurn PlayerID // Empty until the game starts
	Winner      PlayerID // Empty until finished
	Pause       *PauseRecord

	CreatedAt    time.Time
	LastActivity time.Time
}

// TransitionTo moves the game to the given phase, failing on invalid edges
func (g *Game) TransitionTo(phase GamePhase) error {
	if !CanTransition(g.Phase, phase) {
		return ErrInvalidTransition
	}
	g.Phase = phase
	return nil
}

// Player returns the player with the given ID, or nil
func (g *Game) Player(id PlayerID) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Opponent returns the other player, or nil if the game is not full
func (g *Game) Opponent(id PlayerID) *Player {
	for _, p := range g.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

// AllPlayersReady returns true if the game is full and every fleet is placed
func (g *Game) AllPlayersReady() bool {
	if len(g.Players) < MaxPlayers {
		return false
	}
	for _, p := range g.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the game, safe to hand outside the
// per-game owner lock
func (g *Game) Clone() *Game {
	clone := *g
	clone.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cp := *p
		if p.Board != nil {
			board := &Board{
				Size:   p.Board.Size,
				Hits:   make(map[Coordinate]bool, len(p.Board.Hits)),
				Misses: make(map[Coordinate]bool, len(p.Board.Misses)),
			}
			for c := range p.Board.Hits {
				board.Hits[c] = true
			}
			for c := range p.Board.Misses {
				board.Misses[c] = true
			}
			cp.Board = board
		}
		cp.Ships = make([]*Ship, len(p.Ships))
		for j, s := range p.Ships {
			cs := *s
			cs.Positions = append([]Coordinate(nil), s.Positions...)
			cp.Ships[j] = &cs
		}
		clone.Players[i] = &cp
	}
	if g.Pause != nil {
		pause := *g.Pause
		clone.Pause = &pause
	}
	return &clone
}
