package game

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/gridfire-go/internal/dependencies/clock"
	"github.com/mcoot/gridfire-go/internal/dependencies/random"
	"github.com/mcoot/gridfire-go/internal/model"
	"github.com/mcoot/gridfire-go/internal/registry"
	"github.com/mcoot/gridfire-go/internal/services/fleet"
	"github.com/mcoot/gridfire-go/internal/services/turnclock"
	"github.com/mcoot/gridfire-go/internal/storage"
)

const (
	gameIDAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	playerIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Publisher fans events out to a game's subscribers. An empty exclude
// delivers to everyone.
type Publisher interface {
	Publish(gameID model.GameID, event model.Event, exclude model.PlayerID)
}

// Outcome is the result of a single attack
type Outcome string

const (
	OutcomeHit  Outcome = "hit"
	OutcomeMiss Outcome = "miss"
	OutcomeSunk Outcome = "sunk"
)

// AttackResult describes a resolved attack
type AttackResult struct {
	Outcome  Outcome
	SunkShip *model.Ship // Non-nil when Outcome is sunk
	NextTurn model.PlayerID
	Finished bool
	Winner   model.PlayerID
}

// Config holds game rules owned by the controller
type Config struct {
	TurnDuration time.Duration
}

// DefaultConfig returns the default game configuration
func DefaultConfig() Config {
	return Config{
		TurnDuration: 60 * time.Second,
	}
}

// Controller is the session engine: it owns the phase state machine, ship
// placement, turn flow and attack resolution. All mutations of a game run
// inside the registry's per-game owner lock, so validation and mutation
// never straddle another request for the same game.
type Controller struct {
	registry  *registry.Registry
	fleet     *fleet.Service
	turnClock *turnclock.Service
	storage   storage.Storage
	publisher Publisher
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
	cfg       Config
}

// NewController creates a new game controller
func NewController(
	reg *registry.Registry,
	fleetService *fleet.Service,
	turnClock *turnclock.Service,
	store storage.Storage,
	publisher Publisher,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	if cfg.TurnDuration == 0 {
		cfg.TurnDuration = DefaultConfig().TurnDuration
	}
	return &Controller{
		registry:  reg,
		fleet:     fleetService,
		turnClock: turnClock,
		storage:   store,
		publisher: publisher,
		clock:     clk,
		random:    rnd,
		logger:    logger.With(slog.String("component", "game")),
		cfg:       cfg,
	}
}

// CreateGame starts a new session with the host as its first player
func (c *Controller) CreateGame(ctx context.Context, hostName string) (*model.Game, error) {
	now := c.clock.Now()
	boardSize := c.fleet.Config().BoardSize

	host := &model.Player{
		ID:    model.PlayerID("p_" + c.random.String(12, playerIDAlphabet)),
		Name:  hostName,
		Board: model.NewBoard(boardSize),
	}

	game := &model.Game{
		ID:           model.GameID(c.random.String(12, gameIDAlphabet)),
		Phase:        model.PhaseWaiting,
		Players:      []*model.Player{host},
		CreatedAt:    now,
		LastActivity: now,
	}

	c.registry.Insert(game)
	c.persistAsync(game)

	c.logger.Info("game created",
		slog.String("game_id", string(game.ID)),
		slog.String("host", hostName),
	)

	return game.Clone(), nil
}

// GetGame returns a point-in-time copy of the game
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	return c.registry.Snapshot(gameID)
}

// TurnRemaining returns the time left on the game's turn timer
func (c *Controller) TurnRemaining(gameID model.GameID) (time.Duration, bool) {
	return c.turnClock.Remaining(gameID)
}

// Join adds a second player to a waiting game
func (c *Controller) Join(ctx context.Context, gameID model.GameID, name string) (*model.Player, error) {
	var joined *model.Player

	err := c.registry.WithGame(gameID, func(g *model.Game) error {
		if g.Phase != model.PhaseWaiting {
			return model.ErrGameNotJoinable
		}
		if len(g.Players) >= model.MaxPlayers {
			return model.ErrGameFull
		}
		for _, p := range g.Players {
			if strings.EqualFold(p.Name, name) {
				return model.ErrDuplicateName
			}
		}

		player := &model.Player{
			ID:    model.PlayerID("p_" + c.random.String(12, playerIDAlphabet)),
			Name:  name,
			Board: model.NewBoard(c.fleet.Config().BoardSize),
		}
		g.Players = append(g.Players, player)
		g.LastActivity = c.clock.Now()

		joined = player
		c.publish(g, model.EventPlayerJoined, model.PlayerJoinedPayload{
			PlayerID: string(player.ID),
			Name:     player.Name,
		}, player.ID)
		c.persistAsync(g)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player joined",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(joined.ID)),
	)

	return joined, nil
}

// PlaceShips validates and records a player's fleet. The first successful
// placement moves the game to setup; once both fleets are down the game
// starts with a randomly chosen first turn.
func (c *Controller) PlaceShips(ctx context.Context, gameID model.GameID, playerID model.PlayerID, specs []model.ShipSpec) error {
	return c.registry.WithGame(gameID, func(g *model.Game) error {
		if g.Phase != model.PhaseWaiting && g.Phase != model.PhaseSetup {
			return model.ErrWrongPhase
		}

		player := g.Player(playerID)
		if player == nil {
			return model.ErrPlayerNotFound
		}
		if len(player.Ships) > 0 {
			return model.ErrShipsAlreadyPlaced
		}

		ships, err := c.fleet.BuildFleet(specs)
		if err != nil {
			return err
		}

		player.Ships = ships
		player.Ready = true
		g.LastActivity = c.clock.Now()

		if g.Phase == model.PhaseWaiting {
			if err := g.TransitionTo(model.PhaseSetup); err != nil {
				return err
			}
		}

		c.publish(g, model.EventShipsPlaced, model.ShipsPlacedPayload{
			PlayerID: string(playerID),
		}, playerID)

		if g.AllPlayersReady() {
			if err := c.startGameLocked(g); err != nil {
				return err
			}
		}

		c.persistAsync(g)
		return nil
	})
}

// startGameLocked transitions setup -> playing, picks the starting player
// at random and arms the first turn timer. Caller holds the game lock.
func (c *Controller) startGameLocked(g *model.Game) error {
	if err := g.TransitionTo(model.PhasePlaying); err != nil {
		return err
	}

	starter := g.Players[c.random.Intn(len(g.Players))]
	g.CurrentTurn = starter.ID

	c.publish(g, model.EventGameStarted, model.GameStartedPayload{
		FirstTurn:    string(starter.ID),
		TurnDuration: c.cfg.TurnDuration.String(),
	}, "")
	c.startTurnTimer(g.ID, c.cfg.TurnDuration)

	c.logger.Info("game started",
		slog.String("game_id", string(g.ID)),
		slog.String("first_turn", string(starter.ID)),
	)
	return nil
}

// Attack resolves a shot by the current-turn player at a coordinate on the
// opponent's board
func (c *Controller) Attack(ctx context.Context, gameID model.GameID, attackerID model.PlayerID, coordinate string) (*AttackResult, error) {
	coord, err := model.ParseCoordinate(coordinate)
	if err != nil {
		return nil, err
	}

	var result *AttackResult
	err = c.registry.WithGame(gameID, func(g *model.Game) error {
		switch g.Phase {
		case model.PhasePaused:
			return model.ErrGamePaused
		case model.PhasePlaying:
			// Proceed
		default:
			return model.ErrWrongPhase
		}

		if g.Player(attackerID) == nil {
			return model.ErrPlayerNotFound
		}
		if g.CurrentTurn != attackerID {
			return model.ErrNotPlayerTurn
		}

		opponent := g.Opponent(attackerID)
		if !coord.InBounds(opponent.Board.Size) {
			return model.ErrInvalidCoordinate
		}
		if opponent.Board.Attacked(coord) {
			return model.ErrAlreadyAttacked
		}

		result = &AttackResult{Outcome: OutcomeMiss}
		if ship := opponent.ShipAt(coord); ship != nil {
			opponent.Board.Hits[coord] = true
			if ship.RegisterHit() {
				result.Outcome = OutcomeSunk
				result.SunkShip = ship
			} else {
				result.Outcome = OutcomeHit
			}
		} else {
			opponent.Board.Misses[coord] = true
		}

		g.LastActivity = c.clock.Now()

		if opponent.AllShipsSunk() {
			return c.finishGameLocked(g, attackerID, coord, result)
		}

		g.CurrentTurn = opponent.ID
		result.NextTurn = opponent.ID

		payload := model.AttackPayload{
			Attacker:   string(attackerID),
			Coordinate: coord.String(),
			Outcome:    string(result.Outcome),
			NextTurn:   string(opponent.ID),
		}
		if result.SunkShip != nil {
			payload.SunkShipID = result.SunkShip.ID
		}
		c.publish(g, model.EventAttackMade, payload, attackerID)
		c.startTurnTimer(g.ID, c.cfg.TurnDuration)
		c.persistAsync(g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// finishGameLocked ends the game with the attacker as winner. Caller holds
// the game lock.
func (c *Controller) finishGameLocked(g *model.Game, winner model.PlayerID, coord model.Coordinate, result *AttackResult) error {
	if err := g.TransitionTo(model.PhaseFinished); err != nil {
		return err
	}
	g.Winner = winner
	g.CurrentTurn = ""
	result.Finished = true
	result.Winner = winner

	c.turnClock.Stop(g.ID)

	payload := model.AttackPayload{
		Attacker:   string(winner),
		Coordinate: coord.String(),
		Outcome:    string(result.Outcome),
	}
	if result.SunkShip != nil {
		payload.SunkShipID = result.SunkShip.ID
	}
	c.publish(g, model.EventAttackMade, payload, winner)
	c.publish(g, model.EventGameFinished, model.GameFinishedPayload{
		Winner: string(winner),
	}, "")
	c.snapshotAsync(g, "finished")

	c.logger.Info("game finished",
		slog.String("game_id", string(g.ID)),
		slog.String("winner", string(winner)),
	)
	return nil
}

// Pause suspends a playing game, capturing the remaining turn budget.
// Pausing a game that is not playing is a no-op.
func (c *Controller) Pause(ctx context.Context, gameID model.GameID, reason model.PauseReason, byPlayerID model.PlayerID) error {
	return c.registry.WithGame(gameID, func(g *model.Game) error {
		return c.pauseLocked(g, reason, byPlayerID)
	})
}

func (c *Controller) pauseLocked(g *model.Game, reason model.PauseReason, byPlayerID model.PlayerID) error {
	if g.Phase != model.PhasePlaying {
		return nil
	}

	remaining, _ := c.turnClock.Stop(g.ID)

	if err := g.TransitionTo(model.PhasePaused); err != nil {
		return err
	}
	g.Pause = &model.PauseRecord{
		Reason:        reason,
		PausedAt:      c.clock.Now(),
		PausedBy:      byPlayerID,
		TurnRemaining: remaining,
	}
	g.LastActivity = c.clock.Now()

	c.publish(g, model.EventGamePaused, model.PresencePayload{
		PlayerID: string(byPlayerID),
		Reason:   string(reason),
	}, "")
	c.persistAsync(g)

	c.logger.Info("game paused",
		slog.String("game_id", string(g.ID)),
		slog.String("reason", string(reason)),
	)
	return nil
}

// Resume restarts a paused game with the turn budget left at pause time
func (c *Controller) Resume(ctx context.Context, gameID model.GameID, byPlayerID model.PlayerID) error {
	return c.registry.WithGame(gameID, func(g *model.Game) error {
		return c.resumeLocked(g, byPlayerID)
	})
}

func (c *Controller) resumeLocked(g *model.Game, byPlayerID model.PlayerID) error {
	if g.Phase != model.PhasePaused {
		return model.ErrNotPaused
	}

	remaining := c.cfg.TurnDuration
	if g.Pause != nil && g.Pause.TurnRemaining > 0 {
		remaining = g.Pause.TurnRemaining
	}
	g.Pause = nil

	if err := g.TransitionTo(model.PhasePlaying); err != nil {
		return err
	}
	g.LastActivity = c.clock.Now()

	c.publish(g, model.EventGameResumed, model.PresencePayload{
		PlayerID: string(byPlayerID),
	}, "")
	c.startTurnTimer(g.ID, remaining)
	c.persistAsync(g)

	c.logger.Info("game resumed", slog.String("game_id", string(g.ID)))
	return nil
}

// OnPlayerDisconnected pauses the game only when the disconnecting player
// holds the active turn. An idle player dropping does not interrupt the
// opponent; that asymmetry is deliberate.
func (c *Controller) OnPlayerDisconnected(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error {
	return c.registry.WithGame(gameID, func(g *model.Game) error {
		if g.Phase != model.PhasePlaying || g.CurrentTurn != playerID {
			return nil
		}
		return c.pauseLocked(g, model.PauseReasonDisconnect, playerID)
	})
}

// OnPlayerReconnected resumes the game only if it was paused by this
// player's own disconnect
func (c *Controller) OnPlayerReconnected(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error {
	return c.registry.WithGame(gameID, func(g *model.Game) error {
		if g.Phase != model.PhasePaused || g.Pause == nil {
			return nil
		}
		if g.Pause.Reason != model.PauseReasonDisconnect || g.Pause.PausedBy != playerID {
			return nil
		}
		return c.resumeLocked(g, playerID)
	})
}

// Abandon ends a game prematurely from any non-terminal phase
func (c *Controller) Abandon(ctx context.Context, gameID model.GameID) error {
	return c.registry.WithGame(gameID, func(g *model.Game) error {
		if g.Phase.IsTerminal() {
			return nil
		}

		c.turnClock.Stop(g.ID)
		if err := g.TransitionTo(model.PhaseAbandoned); err != nil {
			return err
		}
		g.CurrentTurn = ""
		g.Pause = nil
		g.LastActivity = c.clock.Now()

		c.publish(g, model.EventGameFinished, model.GameFinishedPayload{}, "")
		c.snapshotAsync(g, "abandoned")

		c.logger.Info("game abandoned", slog.String("game_id", string(g.ID)))
		return nil
	})
}

// handleTurnTimeout forfeits the expired turn and passes play to the
// opponent with a fresh full timer. Timeouts never end the game.
func (c *Controller) handleTurnTimeout(gameID model.GameID) {
	err := c.registry.WithGame(gameID, func(g *model.Game) error {
		if g.Phase != model.PhasePlaying || g.CurrentTurn == "" {
			return nil
		}

		expired := g.CurrentTurn
		opponent := g.Opponent(expired)
		if opponent == nil {
			// A playing game without two players is an invariant
			// violation; reset to a safe state rather than corrupt play
			c.logger.Error("playing game missing opponent",
				slog.String("game_id", string(g.ID)),
				slog.String("current_turn", string(expired)),
			)
			return g.TransitionTo(model.PhaseAbandoned)
		}

		g.CurrentTurn = opponent.ID
		g.LastActivity = c.clock.Now()

		c.publish(g, model.EventTurnTimeout, model.TurnTimeoutPayload{
			ExpiredPlayer: string(expired),
			NextTurn:      string(opponent.ID),
		}, "")
		c.startTurnTimer(g.ID, c.cfg.TurnDuration)
		c.persistAsync(g)

		c.logger.Info("turn forfeited on timeout",
			slog.String("game_id", string(gameID)),
			slog.String("expired_player", string(expired)),
		)
		return nil
	})
	if err != nil {
		c.logger.Error("turn timeout handling failed",
			slog.String("game_id", string(gameID)),
			slog.String("error", err.Error()),
		)
	}
}

// startTurnTimer arms the turn clock for the game
func (c *Controller) startTurnTimer(gameID model.GameID, duration time.Duration) {
	c.turnClock.Start(gameID, duration, c.handleTurnTimeout)
}

// publish sends an event to the game's subscribers
func (c *Controller) publish(g *model.Game, eventType model.EventType, payload any, exclude model.PlayerID) {
	c.publisher.Publish(g.ID, model.NewEvent(eventType, g.ID, c.clock.Now(), payload), exclude)
}

// persistAsync saves a snapshot of the game without blocking the caller.
// The mutation path never depends on storage succeeding.
func (c *Controller) persistAsync(g *model.Game) {
	snapshot := g.Clone()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.storage.SaveGame(ctx, snapshot); err != nil {
			c.logger.Warn("background save failed",
				slog.String("game_id", string(snapshot.ID)),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// snapshotAsync records a labelled snapshot without blocking the caller
func (c *Controller) snapshotAsync(g *model.Game, reason string) {
	snapshot := g.Clone()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.storage.SaveSnapshot(ctx, snapshot, reason); err != nil {
			c.logger.Warn("background snapshot failed",
				slog.String("game_id", string(snapshot.ID)),
				slog.String("reason", reason),
				slog.String("error", err.Error()),
			)
		}
	}()
	c.persistAsync(g)
}
