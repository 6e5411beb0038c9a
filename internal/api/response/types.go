package response

import (
	"time"

	"github.com/mcoot/gridfire-go/internal/model"
)

// SessionResponse is returned on guest/login/register
type SessionResponse struct {
	Token       string    `json:"token"`
	DisplayName string    `json:"display_name"`
	Username    string    `json:"username,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// WhoAmIResponse describes the authenticated session
type WhoAmIResponse struct {
	DisplayName string         `json:"display_name"`
	Username    string         `json:"username,omitempty"`
	GameID      model.GameID   `json:"game_id,omitempty"`
	PlayerID    model.PlayerID `json:"player_id,omitempty"`
}

// ShipView is a ship as seen by its owner
type ShipView struct {
	ID        string             `json:"id"`
	Length    int                `json:"length"`
	Positions []model.Coordinate `json:"positions"`
	Hits      int                `json:"hits"`
	Sunk      bool               `json:"sunk"`
}

// PlayerView is a player as seen by the requesting player
type PlayerView struct {
	ID    model.PlayerID `json:"id"`
	Name  string         `json:"name"`
	Ready bool           `json:"ready"`
	// Ships is only populated for the requesting player's own seat
	Ships     []ShipView         `json:"ships,omitempty"`
	ShipsLeft int                `json:"ships_left"`
	Hits      []model.Coordinate `json:"hits"`
	Misses    []model.Coordinate `json:"misses"`
}

// GameResponse is the requesting player's view of a game
type GameResponse struct {
	ID          model.GameID    `json:"id"`
	Phase       model.GamePhase `json:"phase"`
	BoardSize   int             `json:"board_size"`
	Players     []PlayerView    `json:"players"`
	CurrentTurn model.PlayerID  `json:"current_turn,omitempty"`
	Winner      model.PlayerID  `json:"winner,omitempty"`
	Paused      bool            `json:"paused"`
	PlayerID    model.PlayerID  `json:"player_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AttackResponse is the result of an attack
type AttackResponse struct {
	Outcome  string         `json:"outcome"`
	SunkShip string         `json:"sunk_ship,omitempty"`
	NextTurn model.PlayerID `json:"next_turn,omitempty"`
	Finished bool           `json:"finished"`
	Winner   model.PlayerID `json:"winner,omitempty"`
}

// ReconnectionResponse carries a pending reconnection token
type ReconnectionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
	Games  int    `json:"games"`
}

// NewGameResponse builds the requesting player's view of a game.
// Ship positions are only revealed for the viewer's own seat; for the
// opponent only the remaining-ship count and shot history are exposed.
func NewGameResponse(g *model.Game, viewer model.PlayerID) GameResponse {
	resp := GameResponse{
		ID:        g.ID,
		Phase:     g.Phase,
		Players:   make([]PlayerView, 0, len(g.Players)),
		Paused:    g.Pause != nil,
		PlayerID:  viewer,
		CreatedAt: g.CreatedAt,
	}
	if len(g.Players) > 0 && g.Players[0].Board != nil {
		resp.BoardSize = g.Players[0].Board.Size
	}
	if g.Phase == model.PhasePlaying || g.Phase == model.PhasePaused {
		resp.CurrentTurn = g.CurrentTurn
	}
	if g.Phase == model.PhaseFinished {
		resp.Winner = g.Winner
	}
	for _, p := range g.Players {
		pv := PlayerView{
			ID:     p.ID,
			Name:   p.Name,
			Ready:  p.Ready,
			Hits:   coordinateList(p.Board.Hits),
			Misses: coordinateList(p.Board.Misses),
		}
		for _, s := range p.Ships {
			if !s.Sunk {
				pv.ShipsLeft++
			}
		}
		if p.ID == viewer {
			for _, s := range p.Ships {
				pv.Ships = append(pv.Ships, ShipView{
					ID:        s.ID,
					Length:    s.Length,
					Positions: s.Positions,
					Hits:      s.Hits,
					Sunk:      s.Sunk,
				})
			}
		}
		resp.Players = append(resp.Players, pv)
	}
	return resp
}

func coordinateList(m map[model.Coordinate]bool) []model.Coordinate {
	out := make([]model.Coordinate, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	return out
}
