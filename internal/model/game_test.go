package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to GamePhase
		want     bool
	}{
		{PhaseWaiting, PhaseSetup, true},
		{PhaseSetup, PhasePlaying, true},
		{PhaseSetup, PhaseWaiting, true},
		{PhasePlaying, PhasePaused, true},
		{PhasePaused, PhasePlaying, true},
		{PhasePlaying, PhaseFinished, true},
		{PhaseWaiting, PhasePlaying, false},
		{PhasePaused, PhaseFinished, false},
		{PhaseFinished, PhasePlaying, false},

		// Any non-terminal phase may be abandoned
		{PhaseWaiting, PhaseAbandoned, true},
		{PhaseSetup, PhaseAbandoned, true},
		{PhasePlaying, PhaseAbandoned, true},
		{PhasePaused, PhaseAbandoned, true},
		{PhaseFinished, PhaseAbandoned, false},
		{PhaseAbandoned, PhaseAbandoned, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionToRejectsInvalidEdge(t *testing.T) {
	g := &Game{Phase: PhaseWaiting}
	err := g.TransitionTo(PhasePlaying)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, PhaseWaiting, g.Phase)

	require.NoError(t, g.TransitionTo(PhaseSetup))
	assert.Equal(t, PhaseSetup, g.Phase)
}

func TestOpponent(t *testing.T) {
	g := &Game{Players: []*Player{
		{ID: "p1"},
		{ID: "p2"},
	}}

	require.NotNil(t, g.Opponent("p1"))
	assert.Equal(t, PlayerID("p2"), g.Opponent("p1").ID)
	assert.Equal(t, PlayerID("p1"), g.Opponent("p2").ID)

	solo := &Game{Players: []*Player{{ID: "p1"}}}
	assert.Nil(t, solo.Opponent("p1"))
}

func TestAllPlayersReady(t *testing.T) {
	g := &Game{Players: []*Player{{ID: "p1", Ready: true}}}
	assert.False(t, g.AllPlayersReady(), "not full")

	g.Players = append(g.Players, &Player{ID: "p2"})
	assert.False(t, g.AllPlayersReady(), "second player not ready")

	g.Players[1].Ready = true
	assert.True(t, g.AllPlayersReady())
}

func TestCloneIsDeep(t *testing.T) {
	g := &Game{
		ID:    "G1",
		Phase: PhasePlaying,
		Players: []*Player{
			{
				ID:    "p1",
				Board: NewBoard(10),
				Ships: []*Ship{{ID: "ship-1", Length: 2, Positions: []Coordinate{{0, 0}, {0, 1}}}},
			},
		},
		Pause: &PauseRecord{Reason: PauseReasonManual},
	}
	g.Players[0].Board.Hits[Coordinate{0, 0}] = true

	clone := g.Clone()

	// Mutating the clone must not leak into the original
	clone.Players[0].Board.Hits[Coordinate{5, 5}] = true
	clone.Players[0].Ships[0].Hits = 2
	clone.Players[0].Ships[0].Positions[0] = Coordinate{9, 9}
	clone.Pause.Reason = PauseReasonDisconnect

	assert.False(t, g.Players[0].Board.Hits[Coordinate{5, 5}])
	assert.Equal(t, 0, g.Players[0].Ships[0].Hits)
	assert.Equal(t, Coordinate{0, 0}, g.Players[0].Ships[0].Positions[0])
	assert.Equal(t, PauseReasonManual, g.Pause.Reason)
}
