package grid

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBordersAreWall(t *testing.T) {
	g := New(10, 6)
	for x := 0; x < 10; x++ {
		require.Equal(t, Wall, g.At(Point{X: int32(x), Y: 0}))
		require.Equal(t, Wall, g.At(Point{X: int32(x), Y: 5}))
	}
	for y := 0; y < 6; y++ {
		require.Equal(t, Wall, g.At(Point{X: 0, Y: int32(y)}))
		require.Equal(t, Wall, g.At(Point{X: 9, Y: int32(y)}))
	}
	require.Equal(t, Empty, g.At(Point{X: 5, Y: 3}))
}

func TestPlayerTokenRoundTrip(t *testing.T) {
	tok := PlayerToken(7)
	slot, ok := SlotOf(tok)
	require.True(t, ok)
	require.Equal(t, 7, slot)

	_, ok = SlotOf(Wall)
	require.False(t, ok)
}

func TestRandomEmptyInteriorAvoidsWallsAndOccupied(t *testing.T) {
	g := New(5, 5)
	// Fill every interior cell except (2,2).
	for y := 1; y < 4; y++ {
		for x := 1; x < 4; x++ {
			if x == 2 && y == 2 {
				continue
			}
			g.Set(Point{X: int32(x), Y: int32(y)}, Food)
		}
	}
	rng := rand.New(rand.NewSource(1))
	p, err := RandomEmptyInterior(g, rng)
	require.NoError(t, err)
	require.Equal(t, Point{X: 2, Y: 2}, p)
}

func TestRandomEmptyInteriorFailsClosedWhenFull(t *testing.T) {
	g := New(4, 4)
	for y := 1; y < 3; y++ {
		for x := 1; x < 3; x++ {
			g.Set(Point{X: int32(x), Y: int32(y)}, Food)
		}
	}
	rng := rand.New(rand.NewSource(1))
	_, err := RandomEmptyInterior(g, rng)
	require.ErrorIs(t, err, ErrNoEmptyCell)
}

func TestDirectionOpposite(t *testing.T) {
	require.True(t, Right.IsOpposite(Left))
	require.True(t, Up.IsOpposite(Down))
	require.False(t, Up.IsOpposite(Left))
}
