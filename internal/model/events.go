package model

import "time"

// EventType identifies the type of a push event
type EventType string

const (
	EventConnectionEstablished EventType = "connection_established"
	EventPlayerJoined          EventType = "player_joined"
	EventShipsPlaced           EventType = "ships_placed"
	EventGameStarted           EventType = "game_started"
	EventAttackMade            EventType = "attack_made"
	EventTurnTimeout           EventType = "turn_timeout"
	EventGameFinished          EventType = "game_finished"
	EventPlayerDisconnected    EventType = "player_disconnected"
	EventPlayerReconnected     EventType = "player_reconnected"
	EventGamePaused            EventType = "game_paused"
	EventGameResumed           EventType = "game_resumed"
	EventHeartbeat             EventType = "heartbeat"
	EventReconnectionAvailable EventType = "reconnection_available"
)

// Event is a single push message delivered to game subscribers.
// Events are delivered in order per connection, at most once.
type Event struct {
	Type      EventType `json:"type"`
	GameID    GameID    `json:"game_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent creates an event stamped with the given time
func NewEvent(eventType EventType, gameID GameID, now time.Time, payload any) Event {
	return Event{
		Type:      eventType,
		GameID:    gameID,
		Timestamp: now,
		Payload:   payload,
	}
}

// ConnectionEstablishedPayload is sent to a subscriber on connect
type ConnectionEstablishedPayload struct {
	SessionID   string `json:"session_id"`
	PlayerID    string `json:"player_id"`
	Reconnected bool   `json:"reconnected"`
}

// PlayerJoinedPayload announces a new player
type PlayerJoinedPayload struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// ShipsPlacedPayload announces a player's fleet is ready
type ShipsPlacedPayload struct {
	PlayerID string `json:"player_id"`
}

// GameStartedPayload announces the transition to playing
type GameStartedPayload struct {
	FirstTurn    string `json:"first_turn"`
	TurnDuration string `json:"turn_duration"`
}

// AttackPayload describes a resolved attack
type AttackPayload struct {
	Attacker   string `json:"attacker"`
	Coordinate string `json:"coordinate"`
	Outcome    string `json:"outcome"` // hit, miss or sunk
	SunkShipID string `json:"sunk_ship_id,omitempty"`
	NextTurn   string `json:"next_turn,omitempty"`
}

// TurnTimeoutPayload announces a forfeited turn
type TurnTimeoutPayload struct {
	ExpiredPlayer string `json:"expired_player"`
	NextTurn      string `json:"next_turn"`
}

// GameFinishedPayload announces the winner
type GameFinishedPayload struct {
	Winner string `json:"winner"`
}

// PresencePayload is used for disconnect/reconnect/pause/resume notices
type PresencePayload struct {
	PlayerID string `json:"player_id"`
	Reason   string `json:"reason,omitempty"`
}

// ReconnectionAvailablePayload tells remaining subscribers a disconnected
// player may still return
type ReconnectionAvailablePayload struct {
	PlayerID  string    `json:"player_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
