package registry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/gridfire-go/internal/model"
)

// Registry is the in-memory table of active games. It is the single
// authoritative owner of live Game objects: all reads and mutations go
// through WithGame, which holds a per-game lock for the whole
// validate-and-mutate unit so interleaved requests for the same game
// never act on stale state.
type Registry struct {
	mu     sync.RWMutex
	games  map[model.GameID]*entry
	logger *slog.Logger
}

type entry struct {
	mu   sync.Mutex
	game *model.Game
}

// New creates an empty registry
func New(logger *slog.Logger) *Registry {
	return &Registry{
		games:  make(map[model.GameID]*entry),
		logger: logger.With(slog.String("component", "registry")),
	}
}

// Insert adds a new game. The game must not already exist.
func (r *Registry) Insert(game *model.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[game.ID] = &entry{game: game}
}

// WithGame runs fn while holding the game's owner lock
func (r *Registry) WithGame(id model.GameID, fn func(*model.Game) error) error {
	r.mu.RLock()
	e, ok := r.games[id]
	r.mu.RUnlock()
	if !ok {
		return model.ErrGameNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.game)
}

// Snapshot returns a deep copy of the game, safe to use without the lock
func (r *Registry) Snapshot(id model.GameID) (*model.Game, error) {
	var snapshot *model.Game
	err := r.WithGame(id, func(g *model.Game) error {
		snapshot = g.Clone()
		return nil
	})
	return snapshot, err
}

// Evict removes a game from the registry
func (r *Registry) Evict(id model.GameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, id)
}

// Len returns the number of active games
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// IDs returns the IDs of all active games
func (r *Registry) IDs() []model.GameID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]model.GameID, 0, len(r.games))
	for id := range r.games {
		ids = append(ids, id)
	}
	return ids
}

// EvictTerminatedBefore removes finished and abandoned games whose last
// activity predates the cutoff, returning how many were evicted. Live
// games are never touched.
func (r *Registry) EvictTerminatedBefore(cutoff time.Time) int {
	evicted := 0
	for _, id := range r.IDs() {
		remove := false
		err := r.WithGame(id, func(g *model.Game) error {
			remove = g.Phase.IsTerminal() && g.LastActivity.Before(cutoff)
			return nil
		})
		if err == nil && remove {
			r.Evict(id)
			evicted++
		}
	}
	if evicted > 0 {
		r.logger.Info("evicted terminated games", slog.Int("count", evicted))
	}
	return evicted
}
