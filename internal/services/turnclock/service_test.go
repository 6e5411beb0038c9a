package turnclock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gridfire-go/internal/dependencies/mocks"
	"github.com/mcoot/gridfire-go/internal/model"
	"github.com/mcoot/gridfire-go/internal/testutil"
)

func newTestService() (*Service, *mocks.MockClock) {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return New(clk, testutil.NopLogger()), clk
}

func TestStartArmsTimer(t *testing.T) {
	svc, _ := newTestService()
	defer svc.Stop("g1")

	svc.Start("g1", time.Minute, func(model.GameID) {})
	assert.True(t, svc.Armed("g1"))
	assert.False(t, svc.Armed("g2"))
}

func TestExpireFiresCallback(t *testing.T) {
	svc, _ := newTestService()

	fired := make(chan model.GameID, 1)
	svc.Start("g1", 10*time.Millisecond, func(id model.GameID) {
		fired <- id
	})

	select {
	case id := <-fired:
		assert.Equal(t, model.GameID("g1"), id)
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.False(t, svc.Armed("g1"))
}

func TestStopReturnsRemainingBudget(t *testing.T) {
	svc, clk := newTestService()

	svc.Start("g1", time.Minute, func(model.GameID) {})
	clk.Advance(40 * time.Second)

	remaining, ok := svc.Stop("g1")
	require.True(t, ok)
	assert.Equal(t, 20*time.Second, remaining)
	assert.False(t, svc.Armed("g1"))
}

func TestStopUnarmedIsNoOp(t *testing.T) {
	svc, _ := newTestService()

	remaining, ok := svc.Stop("g1")
	assert.False(t, ok)
	assert.Zero(t, remaining)
}

func TestRemainingClampsToZero(t *testing.T) {
	svc, clk := newTestService()
	defer svc.Stop("g1")

	// The real timer has not fired yet but the mock clock is past the
	// deadline; remaining must not go negative
	svc.Start("g1", time.Hour, func(model.GameID) {})
	clk.Advance(2 * time.Hour)

	remaining, ok := svc.Remaining("g1")
	require.True(t, ok)
	assert.Zero(t, remaining)
}

func TestStoppedTimerNeverFires(t *testing.T) {
	svc, _ := newTestService()

	var fired atomic.Bool
	svc.Start("g1", 20*time.Millisecond, func(model.GameID) {
		fired.Store(true)
	})
	_, ok := svc.Stop("g1")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestRestartReplacesTimer(t *testing.T) {
	svc, _ := newTestService()

	var first atomic.Bool
	second := make(chan struct{}, 1)

	svc.Start("g1", 20*time.Millisecond, func(model.GameID) {
		first.Store(true)
	})
	svc.Start("g1", 40*time.Millisecond, func(model.GameID) {
		second <- struct{}{}
	})

	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("replacement timer did not fire")
	}
	assert.False(t, first.Load(), "replaced timer must not fire")
}

func TestTimersAreIndependentPerGame(t *testing.T) {
	svc, _ := newTestService()
	defer svc.Stop("g2")

	fired := make(chan struct{}, 1)
	svc.Start("g1", 10*time.Millisecond, func(model.GameID) {
		fired <- struct{}{}
	})
	svc.Start("g2", time.Hour, func(model.GameID) {})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.True(t, svc.Armed("g2"))
}
