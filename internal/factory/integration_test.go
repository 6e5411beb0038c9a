package factory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gridfire-go/internal/config"
	"github.com/mcoot/gridfire-go/internal/model"
	"github.com/mcoot/gridfire-go/internal/testutil"
)

// recordingTransport is a push transport that collects delivered events
type recordingTransport struct {
	mu     sync.Mutex
	events []model.Event
	closed bool
}

func (r *recordingTransport) WriteEvent(event model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingTransport) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *recordingTransport) has(t model.EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Type == t {
			return true
		}
	}
	return false
}

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

// startedGame drives a game to the playing phase with Alice first
func (s *IntegrationSuite) startedGame() *model.Game {
	s.app.MockRandom.QueueString("aliceaaaaaaa", "GAME00000001", "bobbbbbbbbbb")

	g, err := s.app.GameController.CreateGame(s.ctx, "Alice")
	s.Require().NoError(err)
	_, err = s.app.GameController.Join(s.ctx, g.ID, "Bob")
	s.Require().NoError(err)

	specs := []model.ShipSpec{
		{Length: 5, Start: "A1", Direction: model.DirectionHorizontal},
		{Length: 4, Start: "C1", Direction: model.DirectionHorizontal},
		{Length: 3, Start: "E1", Direction: model.DirectionHorizontal},
		{Length: 3, Start: "G1", Direction: model.DirectionHorizontal},
		{Length: 2, Start: "I1", Direction: model.DirectionHorizontal},
	}
	s.Require().NoError(s.app.GameController.PlaceShips(s.ctx, g.ID, "p_aliceaaaaaaa", specs))
	s.app.MockRandom.QueueIntn(0)
	s.Require().NoError(s.app.GameController.PlaceShips(s.ctx, g.ID, "p_bobbbbbbbbbb", specs))

	fresh, err := s.app.GameController.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Require().Equal(model.PhasePlaying, fresh.Phase)
	return fresh
}

func (s *IntegrationSuite) TestControllerPublishesThroughHub() {
	g := s.startedGame()

	aliceSub := &recordingTransport{}
	bobSub := &recordingTransport{}
	_, _, err := s.app.Hub.Subscribe(g.ID, "p_aliceaaaaaaa", "Alice", aliceSub, "")
	s.Require().NoError(err)
	_, _, err = s.app.Hub.Subscribe(g.ID, "p_bobbbbbbbbbb", "Bob", bobSub, "")
	s.Require().NoError(err)

	result, err := s.app.GameController.Attack(s.ctx, g.ID, "p_aliceaaaaaaa", "A1")
	s.Require().NoError(err)
	s.Equal("hit", string(result.Outcome))

	s.True(bobSub.has(model.EventAttackMade), "defender hears the shot")
	s.False(aliceSub.has(model.EventAttackMade), "attacker already has the result")
}

func (s *IntegrationSuite) TestDisconnectPausesThroughBridge() {
	g := s.startedGame()

	bridgeCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	go s.app.Bridge.Run(bridgeCtx)

	aliceSub := &recordingTransport{}
	bobSub := &recordingTransport{}
	aliceConn, _, err := s.app.Hub.Subscribe(g.ID, "p_aliceaaaaaaa", "Alice", aliceSub, "")
	s.Require().NoError(err)
	_, _, err = s.app.Hub.Subscribe(g.ID, "p_bobbbbbbbbbb", "Bob", bobSub, "")
	s.Require().NoError(err)

	// Alice holds the turn; her drop pauses the game
	s.app.Hub.Drop(aliceConn)

	s.Eventually(func() bool {
		fresh, err := s.app.GameController.GetGame(s.ctx, g.ID)
		return err == nil && fresh.Phase == model.PhasePaused
	}, time.Second, 5*time.Millisecond)

	s.Eventually(func() bool {
		return bobSub.has(model.EventReconnectionAvailable)
	}, time.Second, 5*time.Millisecond)

	// Redeeming the token resumes the game
	record, ok := s.app.Sessions.Active(g.ID, "p_aliceaaaaaaa")
	s.Require().True(ok)

	fresh := &recordingTransport{}
	_, reconnected, err := s.app.Hub.Subscribe(g.ID, "p_aliceaaaaaaa", "Alice", fresh, record.ReconnectToken)
	s.Require().NoError(err)
	s.Require().True(reconnected)

	s.Eventually(func() bool {
		g2, err := s.app.GameController.GetGame(s.ctx, g.ID)
		return err == nil && g2.Phase == model.PhasePlaying
	}, time.Second, 5*time.Millisecond)

	s.Eventually(func() bool {
		return bobSub.has(model.EventPlayerReconnected)
	}, time.Second, 5*time.Millisecond)
}

func (s *IntegrationSuite) TestRetentionEvictsTerminatedGames() {
	g := s.startedGame()
	s.Require().NoError(s.app.GameController.Abandon(s.ctx, g.ID))

	s.app.MockClock.Advance(2 * time.Hour)
	evicted := s.app.Registry.EvictTerminatedBefore(s.app.MockClock.Now().Add(-time.Hour))

	s.Equal(1, evicted)
	_, err := s.app.GameController.GetGame(s.ctx, g.ID)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *IntegrationSuite) TestProductionFactoryRejectsBadStorage() {
	_, err := New(config.Config{StorageType: "bogus"}, testutil.NopLogger())
	s.Error(err)

	_, err = New(config.Config{StorageType: StorageTypeRedis}, testutil.NopLogger())
	s.Error(err, "redis storage requires a URL")
}
