package turnclock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/gridfire-go/internal/dependencies/clock"
	"github.com/mcoot/gridfire-go/internal/model"
)

// ExpireFunc is invoked when a turn timer fires
type ExpireFunc func(gameID model.GameID)

// Service schedules per-game turn timers. Each game has at most one armed
// timer; re-arming replaces the old one. Cancellation is idempotent and a
// generation counter guarantees a stale callback never fires after its
// timer was stopped or replaced.
type Service struct {
	mu     sync.Mutex
	timers map[model.GameID]*armedTimer
	gen    uint64
	clock  clock.Clock
	logger *slog.Logger
}

type armedTimer struct {
	timer    *time.Timer
	deadline time.Time
	gen      uint64
}

// New creates a turn clock
func New(clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		timers: make(map[model.GameID]*armedTimer),
		clock:  clk,
		logger: logger.With(slog.String("component", "turnclock")),
	}
}

// Start arms a timer for the game, replacing any existing one. onExpire
// runs in the timer's goroutine once the duration elapses.
func (s *Service) Start(gameID model.GameID, duration time.Duration, onExpire ExpireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[gameID]; ok {
		existing.timer.Stop()
	}

	s.gen++
	gen := s.gen
	s.timers[gameID] = &armedTimer{
		deadline: s.clock.Now().Add(duration),
		gen:      gen,
		timer: time.AfterFunc(duration, func() {
			s.expire(gameID, gen, onExpire)
		}),
	}
}

// expire disarms the timer and invokes the callback, unless the armed
// timer was replaced or stopped since this callback was scheduled
func (s *Service) expire(gameID model.GameID, gen uint64, onExpire ExpireFunc) {
	s.mu.Lock()
	armed, ok := s.timers[gameID]
	if !ok || armed.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, gameID)
	s.mu.Unlock()

	s.logger.Debug("turn timer expired", slog.String("game_id", string(gameID)))
	onExpire(gameID)
}

// Stop disarms the game's timer if one is armed, returning the remaining
// time budget. Stopping an unarmed game is a no-op.
func (s *Service) Stop(gameID model.GameID) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	armed, ok := s.timers[gameID]
	if !ok {
		return 0, false
	}

	armed.timer.Stop()
	delete(s.timers, gameID)

	remaining := armed.deadline.Sub(s.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Remaining returns the time left on the game's timer, or false if none
// is armed
func (s *Service) Remaining(gameID model.GameID) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	armed, ok := s.timers[gameID]
	if !ok {
		return 0, false
	}

	remaining := armed.deadline.Sub(s.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Armed returns true if the game has an outstanding timer
func (s *Service) Armed(gameID model.GameID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[gameID]
	return ok
}
