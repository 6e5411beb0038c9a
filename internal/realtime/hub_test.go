package realtime

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gridfire-go/internal/dependencies/mocks"
	"github.com/mcoot/gridfire-go/internal/model"
	"github.com/mcoot/gridfire-go/internal/testutil"
)

// fakeSubscriber records written events and can be configured to fail
type fakeSubscriber struct {
	mu       sync.Mutex
	events   []model.Event
	writeErr error
	closed   bool
}

func (f *fakeSubscriber) WriteEvent(event model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSubscriber) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSubscriber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSubscriber) eventTypes() []model.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]model.EventType, len(f.events))
	for i, e := range f.events {
		types[i] = e.Type
	}
	return types
}

func (f *fakeSubscriber) lastEvent() model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[len(f.events)-1]
}

type HubSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	sessions *SessionManager
	hub      *Hub
}

func TestHubSuite(t *testing.T) {
	suite.Run(t, new(HubSuite))
}

func (s *HubSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.sessions = NewSessionManager(s.clock, s.random, SessionManagerConfig{
		Grace:         5 * time.Minute,
		SweepInterval: time.Minute,
	}, logger)
	s.hub = NewHub(s.sessions, s.clock, s.random, HubConfig{
		HeartbeatInterval:  30 * time.Second,
		StaleSweepInterval: time.Minute,
		StaleAfter:         90 * time.Second,
	}, logger)
}

const (
	gameID  model.GameID   = "GAMEGAMEGAME"
	aliceID model.PlayerID = "p_alice"
	bobID   model.PlayerID = "p_bob"
)

func (s *HubSuite) subscribe(playerID model.PlayerID) (*Connection, *fakeSubscriber) {
	sub := &fakeSubscriber{}
	conn, reconnected, err := s.hub.Subscribe(gameID, playerID, string(playerID), sub, "")
	s.Require().NoError(err)
	s.Require().False(reconnected)
	return conn, sub
}

// nextNotification drains one hub message without blocking
func (s *HubSuite) nextNotification() (Message, bool) {
	select {
	case msg := <-s.hub.Notifications():
		return msg, true
	default:
		return Message{}, false
	}
}

func (s *HubSuite) TestSubscribeDeliversConnectionEstablished() {
	s.random.QueueString("aaaaaaaaaaaaaaaa")
	conn, sub := s.subscribe(aliceID)

	s.Equal("conn_aaaaaaaaaaaaaaaa", conn.SessionID)
	s.Equal(1, s.hub.ConnectionCount(gameID))

	s.Require().Len(sub.eventTypes(), 1)
	event := sub.lastEvent()
	s.Equal(model.EventConnectionEstablished, event.Type)
	payload := event.Payload.(model.ConnectionEstablishedPayload)
	s.Equal("conn_aaaaaaaaaaaaaaaa", payload.SessionID)
	s.False(payload.Reconnected)

	_, ok := s.nextNotification()
	s.False(ok, "a fresh subscription is not a reconnect")
}

func (s *HubSuite) TestSubscribeReplacesPriorConnection() {
	_, old := s.subscribe(aliceID)
	_, fresh := s.subscribe(aliceID)

	s.True(old.isClosed())
	s.False(fresh.isClosed())
	s.Equal(1, s.hub.ConnectionCount(gameID))

	_, ok := s.nextNotification()
	s.False(ok, "a replaced connection is not a disconnect")
}

func (s *HubSuite) TestSubscribeFailingTransport() {
	sub := &fakeSubscriber{writeErr: errors.New("broken pipe")}

	_, _, err := s.hub.Subscribe(gameID, aliceID, "Alice", sub, "")
	s.Error(err)
	s.Equal(0, s.hub.ConnectionCount(gameID))
}

func (s *HubSuite) TestPublishExcludesPlayer() {
	_, aliceSub := s.subscribe(aliceID)
	_, bobSub := s.subscribe(bobID)

	event := model.NewEvent(model.EventAttackMade, gameID, s.clock.Now(), nil)
	s.hub.Publish(gameID, event, aliceID)

	s.NotContains(aliceSub.eventTypes(), model.EventAttackMade)
	s.Contains(bobSub.eventTypes(), model.EventAttackMade)
}

func (s *HubSuite) TestPublishWriteFailureEvictsOnlyThatConnection() {
	_, aliceSub := s.subscribe(aliceID)
	_, bobSub := s.subscribe(bobID)
	bobSub.writeErr = errors.New("broken pipe")

	s.hub.Publish(gameID, model.NewEvent(model.EventGamePaused, gameID, s.clock.Now(), nil), "")

	s.Contains(aliceSub.eventTypes(), model.EventGamePaused)
	s.True(bobSub.isClosed())
	s.Equal(1, s.hub.ConnectionCount(gameID))

	msg, ok := s.nextNotification()
	s.Require().True(ok)
	s.Equal(MessageDisconnected, msg.Kind)
	s.Equal(bobID, msg.Conn.PlayerID)
}

func (s *HubSuite) TestDropIsIdempotent() {
	conn, sub := s.subscribe(aliceID)

	s.hub.Drop(conn)
	s.True(sub.isClosed())
	s.Equal(0, s.hub.ConnectionCount(gameID))

	msg, ok := s.nextNotification()
	s.Require().True(ok)
	s.Equal(MessageDisconnected, msg.Kind)

	s.hub.Drop(conn)
	_, ok = s.nextNotification()
	s.False(ok, "a second drop of the same connection is a no-op")
}

func (s *HubSuite) TestReconnectRestoresSession() {
	s.random.QueueString("aaaaaaaaaaaaaaaa")
	conn, _ := s.subscribe(aliceID)
	s.hub.Drop(conn)
	_, _ = s.nextNotification()

	s.random.QueueString("tokentokentoken1")
	record := s.sessions.RecordDisconnect(conn)

	sub := &fakeSubscriber{}
	fresh, reconnected, err := s.hub.Subscribe(gameID, aliceID, "Alice", sub, record.ReconnectToken)
	s.Require().NoError(err)
	s.True(reconnected)
	s.Equal("conn_aaaaaaaaaaaaaaaa", fresh.SessionID, "reconnection keeps the original session identity")

	payload := sub.lastEvent().Payload.(model.ConnectionEstablishedPayload)
	s.True(payload.Reconnected)

	msg, ok := s.nextNotification()
	s.Require().True(ok)
	s.Equal(MessageReconnected, msg.Kind)

	_, ok = s.sessions.Active(gameID, aliceID)
	s.False(ok, "redeemed record is consumed")
}

func (s *HubSuite) TestSubscribeWithBadTokenIsFreshConnection() {
	conn, _ := s.subscribe(aliceID)
	s.hub.Drop(conn)
	_, _ = s.nextNotification()
	s.sessions.RecordDisconnect(conn)

	sub := &fakeSubscriber{}
	_, reconnected, err := s.hub.Subscribe(gameID, aliceID, "Alice", sub, "rct_wrong")
	s.Require().NoError(err)
	s.False(reconnected)

	_, ok := s.sessions.Active(gameID, aliceID)
	s.True(ok, "mismatched token leaves the record intact")
}

func (s *HubSuite) TestHeartbeatsRefreshLiveness() {
	conn, sub := s.subscribe(aliceID)

	s.clock.Advance(30 * time.Second)
	s.hub.pushHeartbeats()

	s.Contains(sub.eventTypes(), model.EventHeartbeat)
	s.Equal(s.clock.Now(), conn.LastHeartbeat)
}

func (s *HubSuite) TestHeartbeatFailureEvicts() {
	_, sub := s.subscribe(aliceID)
	sub.writeErr = errors.New("broken pipe")

	s.hub.pushHeartbeats()

	s.Equal(0, s.hub.ConnectionCount(gameID))
	msg, ok := s.nextNotification()
	s.Require().True(ok)
	s.Equal(MessageDisconnected, msg.Kind)
}

func (s *HubSuite) TestStaleConnectionsEvicted() {
	_, aliceSub := s.subscribe(aliceID)

	s.clock.Advance(2 * time.Minute)
	_, bobSub := s.subscribe(bobID)

	s.hub.evictStale()

	s.True(aliceSub.isClosed(), "no heartbeat for two minutes is stale")
	s.False(bobSub.isClosed())
	s.Equal(1, s.hub.ConnectionCount(gameID))
}
