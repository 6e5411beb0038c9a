package model

import "time"

// DisconnectedSession is the reconnection window left behind when a
// subscribed player's connection drops. At most one exists per
// (game, player) pair; a newer disconnect replaces the older record.
// Never persisted.
type DisconnectedSession struct {
	GameID         GameID
	PlayerID       PlayerID
	SessionID      string
	ReconnectToken string // Single-use, opaque
	DisconnectedAt time.Time
	ExpiresAt      time.Time
}

// Expired returns true if the reconnection window has closed
func (d *DisconnectedSession) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}
