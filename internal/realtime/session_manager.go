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

const reconnectTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// SessionManagerConfig holds reconnection window settings
type SessionManagerConfig struct {
	Grace         time.Duration
	SweepInterval time.Duration
}

// DefaultSessionManagerConfig returns the default reconnection settings
func DefaultSessionManagerConfig() SessionManagerConfig {
	return SessionManagerConfig{
		Grace:         5 * time.Minute,
		SweepInterval: 2 * time.Minute,
	}
}

// SessionManager tracks disconnected sessions and their single-use
// reconnection tokens. At most one live record exists per (game, player);
// a newer disconnect replaces the older one. Expired records are swept
// silently.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[connKey]*model.DisconnectedSession

	cfg    SessionManagerConfig
	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

// NewSessionManager creates a reconnection session manager
func NewSessionManager(clk clock.Clock, rnd random.Random, cfg SessionManagerConfig, logger *slog.Logger) *SessionManager {
	if cfg.Grace == 0 {
		cfg = DefaultSessionManagerConfig()
	}
	return &SessionManager{
		sessions: make(map[connKey]*model.DisconnectedSession),
		cfg:      cfg,
		clock:    clk,
		random:   rnd,
		logger:   logger.With(slog.String("component", "reconnect")),
	}
}

// Ensure SessionManager satisfies the hub's redemption interface
var _ TokenRedeemer = (*SessionManager)(nil)

// RecordDisconnect mints a reconnection token for the dropped connection,
// replacing any earlier record for the same pair
func (m *SessionManager) RecordDisconnect(conn *Connection) *model.DisconnectedSession {
	now := m.clock.Now()
	record := &model.DisconnectedSession{
		GameID:         conn.GameID,
		PlayerID:       conn.PlayerID,
		SessionID:      conn.SessionID,
		ReconnectToken: "rct_" + m.random.String(32, reconnectTokenAlphabet),
		DisconnectedAt: now,
		ExpiresAt:      now.Add(m.cfg.Grace),
	}

	m.mu.Lock()
	m.sessions[connKey{conn.GameID, conn.PlayerID}] = record
	m.mu.Unlock()

	m.logger.Info("disconnect recorded",
		slog.String("game_id", string(conn.GameID)),
		slog.String("player_id", string(conn.PlayerID)),
		slog.Time("expires_at", record.ExpiresAt),
	)
	return record
}

// Redeem consumes the record for the pair if the token matches and the
// window is still open. Redemption is atomic: a token can never be used
// twice.
func (m *SessionManager) Redeem(gameID model.GameID, playerID model.PlayerID, token string) (*model.DisconnectedSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := connKey{gameID, playerID}
	record, ok := m.sessions[key]
	if !ok || record.ReconnectToken != token || record.Expired(m.clock.Now()) {
		return nil, false
	}

	delete(m.sessions, key)
	return record, true
}

// Active returns the live record for the pair without consuming it
func (m *SessionManager) Active(gameID model.GameID, playerID model.PlayerID) (*model.DisconnectedSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.sessions[connKey{gameID, playerID}]
	if !ok || record.Expired(m.clock.Now()) {
		return nil, false
	}
	return record, true
}

// Count returns the number of live disconnected sessions
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SweepExpired deletes expired records. Expiry is silent: nobody is
// notified, the player is simply no longer reconnectable.
func (m *SessionManager) SweepExpired() int {
	now := m.clock.Now()

	m.mu.Lock()
	removed := 0
	for key, record := range m.sessions {
		if record.Expired(now) {
			delete(m.sessions, key)
			removed++
		}
	}
	m.mu.Unlock()

	if removed > 0 {
		m.logger.Info("expired reconnection sessions swept", slog.Int("count", removed))
	}
	return removed
}

// Run sweeps expired sessions periodically until the context is cancelled
func (m *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.SweepExpired()
		case <-ctx.Done():
			return
		}
	}
}
