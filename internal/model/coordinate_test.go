package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	cases := []struct {
		input   string
		want    Coordinate
		wantErr bool
	}{
		{"A1", Coordinate{Row: 0, Col: 0}, false},
		{"J10", Coordinate{Row: 9, Col: 9}, false},
		{"b7", Coordinate{Row: 1, Col: 6}, false},
		{" C3 ", Coordinate{Row: 2, Col: 2}, false},
		{"", Coordinate{}, true},
		{"A", Coordinate{}, true},
		{"A0", Coordinate{}, true},
		{"1A", Coordinate{}, true},
		{"AA", Coordinate{}, true},
	}

	for _, tc := range cases {
		got, err := ParseCoordinate(tc.input)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidCoordinate, "input %q", tc.input)
			continue
		}
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
	}
}

func TestCoordinateStringRoundTrip(t *testing.T) {
	for _, s := range []string{"A1", "B7", "J10", "E5"} {
		c, err := ParseCoordinate(s)
		require.NoError(t, err)
		assert.Equal(t, s, c.String())
	}
}

func TestCoordinateInBounds(t *testing.T) {
	assert.True(t, Coordinate{Row: 0, Col: 0}.InBounds(10))
	assert.True(t, Coordinate{Row: 9, Col: 9}.InBounds(10))
	assert.False(t, Coordinate{Row: 10, Col: 0}.InBounds(10))
	assert.False(t, Coordinate{Row: 0, Col: 10}.InBounds(10))
	assert.False(t, Coordinate{Row: -1, Col: 0}.InBounds(10))
}

func TestCoordinateNeighborsIncludeDiagonals(t *testing.T) {
	neighbors := Coordinate{Row: 5, Col: 5}.Neighbors()
	require.Len(t, neighbors, 8)
	assert.Contains(t, neighbors, Coordinate{Row: 4, Col: 4})
	assert.Contains(t, neighbors, Coordinate{Row: 6, Col: 6})
	assert.NotContains(t, neighbors, Coordinate{Row: 5, Col: 5})
}
