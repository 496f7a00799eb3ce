package grid

import (
	"errors"
	"math/rand"
)

// Cell is the value stored at one grid position. It is an alias for byte
// (not a distinct defined type) so that a raw shared-memory byte slice can
// be used directly as a []Cell with no copy or unsafe conversion.
type Cell = byte

const (
	Empty Cell = 0
	Wall  Cell = 1
	Food  Cell = 2
	// PlayerBase is added to a slot id to produce that slot's occupancy
	// token. Cell is a byte, so at most 253 slots (ids 0-252) are
	// representable.
	PlayerBase Cell = 3
)

// MaxSlots is the largest slot table PlayerBase-encoded cells can address.
const MaxSlots = 256 - int(PlayerBase)

// PlayerToken returns the occupancy token for slot.
func PlayerToken(slot int) Cell {
	return PlayerBase + Cell(slot)
}

// SlotOf reports the slot id a player-occupancy cell belongs to.
func SlotOf(c Cell) (slot int, ok bool) {
	if c < PlayerBase {
		return 0, false
	}
	return int(c - PlayerBase), true
}

// ErrNoEmptyCell is returned when a bounded random-search for an empty
// interior cell exhausts its attempt budget, rather than retrying forever.
var ErrNoEmptyCell = errors.New("grid: no empty interior cell found")

// Grid is a fixed W×H board of cells, with the border pre-stamped as wall.
type Grid struct {
	Width, Height int
	Cells         []Cell
}

// New allocates a width×height grid with WALL borders and an EMPTY interior.
func New(width, height int) *Grid {
	g := &Grid{Width: width, Height: height, Cells: make([]Cell, width*height)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				g.Set(Point{X: int32(x), Y: int32(y)}, Wall)
			}
		}
	}
	return g
}

// Wrap constructs a Grid view directly over an existing cell buffer (e.g.
// the live byte slice of a shared memory region) without copying it. Any
// mutation made through the returned Grid is visible to every holder of
// the same backing slice.
func Wrap(width, height int, cells []Cell) *Grid {
	return &Grid{Width: width, Height: height, Cells: cells}
}

// InBounds reports whether p lies within the grid.
func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && int(p.X) < g.Width && int(p.Y) < g.Height
}

// InInterior reports whether p lies strictly inside the border.
func (g *Grid) InInterior(p Point) bool {
	return p.X > 0 && p.Y > 0 && int(p.X) < g.Width-1 && int(p.Y) < g.Height-1
}

func (g *Grid) index(p Point) int {
	return int(p.Y)*g.Width + int(p.X)
}

// At returns the cell at p. Caller must ensure InBounds(p).
func (g *Grid) At(p Point) Cell {
	return g.Cells[g.index(p)]
}

// Set writes the cell at p. Caller must ensure InBounds(p).
func (g *Grid) Set(p Point, c Cell) {
	g.Cells[g.index(p)] = c
}

// Snapshot returns a copy of the cell buffer, safe to hand to a caller that
// does not hold the state lock.
func (g *Grid) Snapshot() []Cell {
	out := make([]Cell, len(g.Cells))
	copy(out, g.Cells)
	return out
}

// MaxAdmissionAttempts bounds the random-empty-cell search used both by
// admission and by food respawn.
const MaxAdmissionAttempts = 1000

// RandomEmptyInterior returns a random EMPTY cell strictly inside the
// border, retrying up to MaxAdmissionAttempts times before giving up.
func RandomEmptyInterior(g *Grid, rng *rand.Rand) (Point, error) {
	if g.Width <= 2 || g.Height <= 2 {
		return Point{}, ErrNoEmptyCell
	}
	for attempt := 0; attempt < MaxAdmissionAttempts; attempt++ {
		x := 1 + rng.Intn(g.Width-2)
		y := 1 + rng.Intn(g.Height-2)
		p := Point{X: int32(x), Y: int32(y)}
		if g.At(p) == Empty {
			return p, nil
		}
	}
	return Point{}, ErrNoEmptyCell
}
