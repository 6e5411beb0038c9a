package redis

import (
	"fmt"

	"github.com/mcoot/gridfire-go/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "gridfire"

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// snapshotKey returns the Redis key for a labelled game snapshot
func snapshotKey(id model.GameID, reason string) string {
	return fmt.Sprintf("%s:snapshot:%s:%s", keyPrefix, id, reason)
}

// accountKey returns the Redis key for an Account
func accountKey(username string) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, username)
}
