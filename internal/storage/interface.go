package storage

import (
	"context"

	"github.com/mcoot/gridfire-go/internal/model"
)

// Storage is the persistence collaborator. The registry, not storage, is
// authoritative for live games: the engine writes here fire-and-forget
// after each mutation and never blocks a response on the result.
type Storage interface {
	// Game operations
	SaveGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	DeleteGame(ctx context.Context, id model.GameID) error

	// SaveSnapshot records a labelled point-in-time copy of the game,
	// e.g. on finish or abandon
	SaveSnapshot(ctx context.Context, game *model.Game, reason string) error

	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccountByUsername(ctx context.Context, username string) (*model.Account, error)
}
