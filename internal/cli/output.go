package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case SessionResult:
		o.printSession(v)
	case WhoAmI:
		o.printWhoAmI(v)
	case GameState:
		o.printGameState(v)
	case AttackResult:
		o.printAttackResult(v)
	case ReconnectionResult:
		o.printReconnection(v)
	case HealthResult:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// SessionResult response type (matches API)
type SessionResult struct {
	Token       string    `json:"token"`
	DisplayName string    `json:"display_name"`
	Username    string    `json:"username,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// WhoAmI response type
type WhoAmI struct {
	DisplayName string `json:"display_name"`
	Username    string `json:"username,omitempty"`
	GameID      string `json:"game_id,omitempty"`
	PlayerID    string `json:"player_id,omitempty"`
}

// ShipView response type
type ShipView struct {
	ID        string   `json:"id"`
	Length    int      `json:"length"`
	Positions []string `json:"positions"`
	Hits      int      `json:"hits"`
	Sunk      bool     `json:"sunk"`
}

// PlayerView response type
type PlayerView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Ready     bool       `json:"ready"`
	Ships     []ShipView `json:"ships,omitempty"`
	ShipsLeft int        `json:"ships_left"`
	Hits      []string   `json:"hits"`
	Misses    []string   `json:"misses"`
}

// GameState response type
type GameState struct {
	ID          string       `json:"id"`
	Phase       string       `json:"phase"`
	BoardSize   int          `json:"board_size"`
	Players     []PlayerView `json:"players"`
	CurrentTurn string       `json:"current_turn,omitempty"`
	Winner      string       `json:"winner,omitempty"`
	Paused      bool         `json:"paused"`
	PlayerID    string       `json:"player_id,omitempty"`
}

// AttackResult response type
type AttackResult struct {
	Outcome  string `json:"outcome"`
	SunkShip string `json:"sunk_ship,omitempty"`
	NextTurn string `json:"next_turn,omitempty"`
	Finished bool   `json:"finished"`
	Winner   string `json:"winner,omitempty"`
}

// ReconnectionResult response type
type ReconnectionResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
	Games  int    `json:"games"`
}

func (o *Output) printSession(s SessionResult) {
	fmt.Printf("Player: %s\n", s.DisplayName)
	if s.Username != "" {
		fmt.Printf("Username: %s\n", s.Username)
	}
	fmt.Printf("Token: %s\n", s.Token)
	fmt.Printf("Expires: %s\n", s.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printWhoAmI(w WhoAmI) {
	fmt.Printf("Player: %s\n", w.DisplayName)
	if w.Username != "" {
		fmt.Printf("Username: %s\n", w.Username)
	}
	if w.GameID != "" {
		fmt.Printf("Game: %s (seat %s)\n", w.GameID, w.PlayerID)
	}
}

func (o *Output) printGameState(g GameState) {
	fmt.Printf("Game: %s\n", g.ID)
	fmt.Printf("Phase: %s\n", g.Phase)
	if g.Paused {
		fmt.Println("Paused: yes")
	}
	if g.CurrentTurn != "" {
		turn := g.CurrentTurn
		if turn == g.PlayerID {
			turn += " (you)"
		}
		fmt.Printf("Turn: %s\n", turn)
	}
	if g.Winner != "" {
		fmt.Printf("Winner: %s\n", g.Winner)
	}

	for _, p := range g.Players {
		mine := p.ID == g.PlayerID
		label := p.Name
		if mine {
			label += " (you)"
		}
		readyStr := "placing ships"
		if p.Ready {
			readyStr = "ready"
		}
		fmt.Printf("\n%s - %s, %d ships afloat\n", label, readyStr, p.ShipsLeft)
		o.printBoard(g.BoardSize, p, mine)
	}
}

// printBoard renders one player's board. Own ships show as S, incoming
// hits as X and misses as o.
func (o *Output) printBoard(size int, p PlayerView, mine bool) {
	if size == 0 {
		return
	}

	cells := make(map[string]rune)
	if mine {
		for _, ship := range p.Ships {
			for _, pos := range ship.Positions {
				cells[pos] = 'S'
			}
		}
	}
	for _, c := range p.Misses {
		cells[c] = 'o'
	}
	for _, c := range p.Hits {
		cells[c] = 'X'
	}

	fmt.Print("   ")
	for col := 1; col <= size; col++ {
		fmt.Printf("%2d ", col)
	}
	fmt.Println()

	for row := 0; row < size; row++ {
		rowLetter := rune('A' + row)
		fmt.Printf(" %c ", rowLetter)
		for col := 1; col <= size; col++ {
			coord := string(rowLetter) + strconv.Itoa(col)
			cell, ok := cells[coord]
			if !ok {
				cell = '.'
			}
			fmt.Printf(" %c ", cell)
		}
		fmt.Println()
	}
}

func (o *Output) printAttackResult(a AttackResult) {
	switch a.Outcome {
	case "hit":
		fmt.Println("Hit!")
	case "sunk":
		fmt.Printf("Hit and sunk %s!\n", a.SunkShip)
	default:
		fmt.Println("Miss.")
	}

	if a.Finished {
		fmt.Printf("Game over. Winner: %s\n", a.Winner)
	} else if a.NextTurn != "" {
		fmt.Printf("Next turn: %s\n", a.NextTurn)
	}
}

func (o *Output) printReconnection(r ReconnectionResult) {
	fmt.Printf("Reconnect token: %s\n", r.Token)
	fmt.Printf("Expires: %s\n", r.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printHealth(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Active games: %d\n", h.Games)
}
