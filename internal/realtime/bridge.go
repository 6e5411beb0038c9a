package realtime

import (
	"context"
	"log/slog"

	"github.com/mcoot/gridfire-go/internal/dependencies/clock"
	"github.com/mcoot/gridfire-go/internal/model"
)

// GameNotifier is the engine side of the disconnect/reconnect bridge
type GameNotifier interface {
	OnPlayerDisconnected(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error
	OnPlayerReconnected(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error
}

// Bridge consumes the hub's typed messages and drives the reconnection
// manager and the engine's pause/resume hooks. Routing disconnects and
// reconnects through one consuming loop keeps their handling serialized
// and keeps the hub decoupled from the engine.
type Bridge struct {
	hub      *Hub
	sessions *SessionManager
	engine   GameNotifier
	clock    clock.Clock
	logger   *slog.Logger
}

// NewBridge creates a bridge between the hub and the engine
func NewBridge(hub *Hub, sessions *SessionManager, engine GameNotifier, clk clock.Clock, logger *slog.Logger) *Bridge {
	return &Bridge{
		hub:      hub,
		sessions: sessions,
		engine:   engine,
		clock:    clk,
		logger:   logger.With(slog.String("component", "bridge")),
	}
}

// Run consumes hub messages until the context is cancelled
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case msg := <-b.hub.Notifications():
			b.handle(ctx, msg)
		case <-ctx.Done():
			return
		}
	}
}

// handle dispatches a single hub message
func (b *Bridge) handle(ctx context.Context, msg Message) {
	switch msg.Kind {
	case MessageDisconnected:
		b.handleDisconnect(ctx, msg.Conn)
	case MessageReconnected:
		b.handleReconnect(ctx, msg.Conn)
	}
}

// handleDisconnect records the reconnection window, pauses the game if
// the dropped player held the turn, and tells remaining subscribers
func (b *Bridge) handleDisconnect(ctx context.Context, conn *Connection) {
	record := b.sessions.RecordDisconnect(conn)

	if err := b.engine.OnPlayerDisconnected(ctx, conn.GameID, conn.PlayerID); err != nil {
		b.logger.Error("disconnect hook failed",
			slog.String("game_id", string(conn.GameID)),
			slog.String("player_id", string(conn.PlayerID)),
			slog.String("error", err.Error()),
		)
	}

	now := b.clock.Now()
	b.hub.Publish(conn.GameID, model.NewEvent(model.EventPlayerDisconnected, conn.GameID, now, model.PresencePayload{
		PlayerID: string(conn.PlayerID),
	}), conn.PlayerID)
	b.hub.Publish(conn.GameID, model.NewEvent(model.EventReconnectionAvailable, conn.GameID, now, model.ReconnectionAvailablePayload{
		PlayerID:  string(conn.PlayerID),
		ExpiresAt: record.ExpiresAt,
	}), conn.PlayerID)
}

// handleReconnect resumes the game if this player's disconnect paused it
// and tells the other subscribers the player is back
func (b *Bridge) handleReconnect(ctx context.Context, conn *Connection) {
	if err := b.engine.OnPlayerReconnected(ctx, conn.GameID, conn.PlayerID); err != nil {
		b.logger.Error("reconnect hook failed",
			slog.String("game_id", string(conn.GameID)),
			slog.String("player_id", string(conn.PlayerID)),
			slog.String("error", err.Error()),
		)
	}

	b.hub.Publish(conn.GameID, model.NewEvent(model.EventPlayerReconnected, conn.GameID, b.clock.Now(), model.PresencePayload{
		PlayerID: string(conn.PlayerID),
	}), conn.PlayerID)
}
