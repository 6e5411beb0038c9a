package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/gridfire-go/internal/dependencies/clock"
	"github.com/mcoot/gridfire-go/internal/dependencies/random"
	"github.com/mcoot/gridfire-go/internal/model"
)

const sessionIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Subscriber is the transport side of a push connection. WriteEvent must
// not block indefinitely; a returned error marks the connection dead.
type Subscriber interface {
	WriteEvent(event model.Event) error
	Close()
}

// Connection is one live push channel for a (game, player) pair
type Connection struct {
	GameID     model.GameID
	PlayerID   model.PlayerID
	PlayerName string
	SessionID  string

	transport     Subscriber
	ConnectedAt   time.Time
	LastHeartbeat time.Time
}

// TokenRedeemer consumes reconnection tokens. Implemented by the
// SessionManager.
type TokenRedeemer interface {
	Redeem(gameID model.GameID, playerID model.PlayerID, token string) (*model.DisconnectedSession, bool)
}

// MessageKind identifies a hub notification
type MessageKind string

const (
	MessageDisconnected MessageKind = "disconnected"
	MessageReconnected  MessageKind = "reconnected"
)

// Message is a typed notification emitted by the hub. The bridge consumes
// these instead of the hub calling back into the engine directly.
type Message struct {
	Kind MessageKind
	Conn *Connection
}

// HubConfig holds heartbeat and liveness settings
type HubConfig struct {
	HeartbeatInterval  time.Duration
	StaleSweepInterval time.Duration
	StaleAfter         time.Duration
}

// DefaultHubConfig returns the default liveness settings
func DefaultHubConfig() HubConfig {
	return HubConfig{
		HeartbeatInterval:  30 * time.Second,
		StaleSweepInterval: 60 * time.Second,
		StaleAfter:         90 * time.Second,
	}
}

type connKey struct {
	gameID   model.GameID
	playerID model.PlayerID
}

// Hub holds all live push connections: at most one per (game, player)
// pair, indexed per game for fan-out. A failed write evicts only the
// failing connection; heartbeats keep liveness and a periodic sweep
// evicts connections that stopped acknowledging writes.
type Hub struct {
	mu       sync.RWMutex
	conns    map[connKey]*Connection
	byGame   map[model.GameID]map[model.PlayerID]*Connection
	redeemer TokenRedeemer

	notifications chan Message

	cfg    HubConfig
	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

// NewHub creates a connection hub
func NewHub(redeemer TokenRedeemer, clk clock.Clock, rnd random.Random, cfg HubConfig, logger *slog.Logger) *Hub {
	if cfg.HeartbeatInterval == 0 {
		cfg = DefaultHubConfig()
	}
	return &Hub{
		conns:         make(map[connKey]*Connection),
		byGame:        make(map[model.GameID]map[model.PlayerID]*Connection),
		redeemer:      redeemer,
		notifications: make(chan Message, 64),
		cfg:           cfg,
		clock:         clk,
		random:        rnd,
		logger:        logger.With(slog.String("component", "hub")),
	}
}

// Notifications returns the hub's outbound message channel
func (h *Hub) Notifications() <-chan Message {
	return h.notifications
}

// Subscribe attaches a transport for a (game, player) pair, evicting any
// prior connection for the same pair first. If reconnectToken matches a
// live disconnected session the subscription is a reconnection and the
// prior session ID is restored; otherwise a fresh session is minted.
func (h *Hub) Subscribe(gameID model.GameID, playerID model.PlayerID, playerName string, transport Subscriber, reconnectToken string) (*Connection, bool, error) {
	reconnected := false
	sessionID := ""

	if reconnectToken != "" && h.redeemer != nil {
		if record, ok := h.redeemer.Redeem(gameID, playerID, reconnectToken); ok {
			reconnected = true
			sessionID = record.SessionID
		}
	}
	if sessionID == "" {
		sessionID = "conn_" + h.random.String(16, sessionIDAlphabet)
	}

	now := h.clock.Now()
	conn := &Connection{
		GameID:        gameID,
		PlayerID:      playerID,
		PlayerName:    playerName,
		SessionID:     sessionID,
		transport:     transport,
		ConnectedAt:   now,
		LastHeartbeat: now,
	}

	key := connKey{gameID: gameID, playerID: playerID}

	h.mu.Lock()
	if old, ok := h.conns[key]; ok {
		h.removeLocked(old)
		old.transport.Close()
	}
	h.conns[key] = conn
	if h.byGame[gameID] == nil {
		h.byGame[gameID] = make(map[model.PlayerID]*Connection)
	}
	h.byGame[gameID][playerID] = conn
	h.mu.Unlock()

	established := model.NewEvent(model.EventConnectionEstablished, gameID, now, model.ConnectionEstablishedPayload{
		SessionID:   sessionID,
		PlayerID:    string(playerID),
		Reconnected: reconnected,
	})
	if err := transport.WriteEvent(established); err != nil {
		h.evict(conn, false)
		return nil, false, err
	}

	if reconnected {
		h.notify(Message{Kind: MessageReconnected, Conn: conn})
	}

	h.logger.Info("subscriber attached",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.Bool("reconnected", reconnected),
	)
	return conn, reconnected, nil
}

// Publish writes the event to every live subscriber of the game except
// the excluded player. A write failure evicts that one connection and
// never fails the fan-out as a whole.
func (h *Hub) Publish(gameID model.GameID, event model.Event, exclude model.PlayerID) {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.byGame[gameID]))
	for playerID, conn := range h.byGame[gameID] {
		if playerID == exclude {
			continue
		}
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.transport.WriteEvent(event); err != nil {
			h.logger.Warn("fan-out write failed, evicting connection",
				slog.String("game_id", string(gameID)),
				slog.String("player_id", string(conn.PlayerID)),
				slog.String("error", err.Error()),
			)
			h.evict(conn, true)
		}
	}
}

// Drop detaches a connection whose transport observed closure. The drop
// is treated as a disconnect.
func (h *Hub) Drop(conn *Connection) {
	h.evict(conn, true)
}

// ConnectionCount returns the number of live subscribers for a game
func (h *Hub) ConnectionCount(gameID model.GameID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byGame[gameID])
}

// Run drives the heartbeat and stale-connection sweeps until the context
// is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	heartbeat := time.NewTicker(h.cfg.HeartbeatInterval)
	defer heartbeat.Stop()
	sweep := time.NewTicker(h.cfg.StaleSweepInterval)
	defer sweep.Stop()

	h.logger.Info("hub started")
	for {
		select {
		case <-heartbeat.C:
			h.pushHeartbeats()
		case <-sweep.C:
			h.evictStale()
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("hub stopped")
			return
		}
	}
}

// pushHeartbeats writes a heartbeat event to every connection. A
// successful write refreshes the connection's liveness; a failed one
// evicts it as a disconnect.
func (h *Hub) pushHeartbeats() {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.conns))
	for _, conn := range h.conns {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	now := h.clock.Now()
	for _, conn := range targets {
		event := model.NewEvent(model.EventHeartbeat, conn.GameID, now, nil)
		if err := conn.transport.WriteEvent(event); err != nil {
			h.evict(conn, true)
			continue
		}
		h.mu.Lock()
		if h.conns[connKey{conn.GameID, conn.PlayerID}] == conn {
			conn.LastHeartbeat = now
		}
		h.mu.Unlock()
	}
}

// evictStale drops connections whose last successful heartbeat predates
// the staleness threshold, treating each as a disconnect
func (h *Hub) evictStale() {
	threshold := h.clock.Now().Add(-h.cfg.StaleAfter)

	h.mu.RLock()
	var stale []*Connection
	for _, conn := range h.conns {
		if conn.LastHeartbeat.Before(threshold) {
			stale = append(stale, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range stale {
		h.logger.Info("evicting stale connection",
			slog.String("game_id", string(conn.GameID)),
			slog.String("player_id", string(conn.PlayerID)),
		)
		h.evict(conn, true)
	}
}

// evict removes the connection if it is still the live one for its pair,
// closes its transport, and optionally reports it as a disconnect
func (h *Hub) evict(conn *Connection, asDisconnect bool) {
	key := connKey{conn.GameID, conn.PlayerID}

	h.mu.Lock()
	current, ok := h.conns[key]
	if !ok || current != conn {
		h.mu.Unlock()
		return
	}
	h.removeLocked(conn)
	h.mu.Unlock()

	conn.transport.Close()
	if asDisconnect {
		h.notify(Message{Kind: MessageDisconnected, Conn: conn})
	}
}

// removeLocked deletes the connection from both indexes. Caller holds the
// write lock.
func (h *Hub) removeLocked(conn *Connection) {
	key := connKey{conn.GameID, conn.PlayerID}
	delete(h.conns, key)
	if byPlayer, ok := h.byGame[conn.GameID]; ok {
		delete(byPlayer, conn.PlayerID)
		if len(byPlayer) == 0 {
			delete(h.byGame, conn.GameID)
		}
	}
}

// closeAll tears down every connection without disconnect handling
func (h *Hub) closeAll() {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.conns = make(map[connKey]*Connection)
	h.byGame = make(map[model.GameID]map[model.PlayerID]*Connection)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.transport.Close()
	}
}

// notify emits a message without blocking; the bridge owns draining
func (h *Hub) notify(msg Message) {
	select {
	case h.notifications <- msg:
	default:
		h.logger.Warn("hub notification dropped - channel full",
			slog.String("kind", string(msg.Kind)),
			slog.String("game_id", string(msg.Conn.GameID)),
		)
	}
}
