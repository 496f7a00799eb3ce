// Package state implements the shared game state envelope: the grid, the
// slot table, and the version counter, all addressed through internal/ipc's
// memory-mapped region so every mutation is visible to every worker and
// the tick process under one lock.
package state

import (
	"math/rand"
	"os"
	"time"

	"github.com/ancillary-agi/snakearena/internal/grid"
	"github.com/ancillary-agi/snakearena/internal/ipc"
)

// State is the authoritative game state, backed by a shared ipc.Region.
// Every exported method except PeekVersion acquires the region lock
// internally; none block the caller other than waiting for the lock.
type State struct {
	Region    *ipc.Region
	FoodCount int

	rng *rand.Rand
}

// New wraps an already-created or already-attached region. Each process
// gets its own rng instance; only mutations under the region lock matter
// for correctness, so an unsynchronized per-process rng is sufficient.
func New(region *ipc.Region, foodCount int) *State {
	return &State{
		Region:    region,
		FoodCount: foodCount,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(os.Getpid()))),
	}
}

func (s *State) slot(i int) slotView {
	return slotView{b: s.Region.SlotBytes(i), bodyCap: s.Region.BodyCap}
}

func (s *State) grid() *grid.Grid {
	return grid.Wrap(s.Region.Width, s.Region.Height, s.Region.GridBytes())
}

// InitBoard stamps the border walls and seeds FoodCount food cells. Called
// exactly once by the supervisor after Create, before any worker or the
// tick process attaches.
func (s *State) InitBoard() {
	s.Region.Lock()
	defer s.Region.Unlock()

	g := s.grid()
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if x == 0 || y == 0 || x == g.Width-1 || y == g.Height-1 {
				g.Set(grid.Point{X: int32(x), Y: int32(y)}, grid.Wall)
			}
		}
	}
	for i := 0; i < s.FoodCount; i++ {
		p, err := grid.RandomEmptyInterior(g, s.rng)
		if err != nil {
			break // board too small/full to seed all requested food; fail closed
		}
		g.Set(p, grid.Food)
	}
}

// PeekVersion does an unlocked atomic read of the version counter, cheap
// enough for a worker to poll every event-loop iteration before deciding
// whether a locked Snapshot is worth taking.
func (s *State) PeekVersion() uint64 {
	return s.Region.Version()
}

// Snapshot returns a copy of the grid together with the version it was
// read at, both under one lock acquisition so the pair is self-consistent.
func (s *State) Snapshot() (cells []grid.Cell, version uint64) {
	s.Region.Lock()
	defer s.Region.Unlock()

	src := s.Region.GridBytes()
	cells = make([]grid.Cell, len(src))
	copy(cells, src)
	version = s.Region.Version()
	return cells, version
}

// SlotActive reports whether slot is currently active, read under the
// lock. The worker's liveness check must call this rather than ever
// reading slot bytes directly, unlocked.
func (s *State) SlotActive(slotID int) bool {
	s.Region.Lock()
	defer s.Region.Unlock()
	return s.slot(slotID).Active()
}

// TryAdmit allocates the first free slot, placing a length-1 snake facing
// RIGHT at a random empty interior cell. It reports ok=false if no slot is
// free or no empty cell can be found within the bounded search.
func (s *State) TryAdmit() (slotID int, ok bool) {
	s.Region.Lock()
	defer s.Region.Unlock()

	g := s.grid()
	for i := 0; i < s.Region.SlotCount; i++ {
		sv := s.slot(i)
		if sv.Active() {
			continue
		}
		p, err := grid.RandomEmptyInterior(g, s.rng)
		if err != nil {
			return 0, false
		}
		sv.reset()
		sv.SetActive(true)
		sv.SetAlive(true)
		sv.SetDir(grid.Right)
		sv.SetPendingDir(grid.Right)
		sv.SetLength(1)
		sv.SetBody(0, p)
		sv.SetScore(0)
		g.Set(p, grid.PlayerToken(i))
		return i, true
	}
	return 0, false
}

// ApplyMove updates slotID's pending direction, refusing the 180-degree
// opposite of its current (not pending) direction. No-op if the slot is
// inactive or dead.
func (s *State) ApplyMove(slotID int, dir grid.Direction) {
	s.Region.Lock()
	defer s.Region.Unlock()

	sv := s.slot(slotID)
	if !sv.Active() || !sv.Alive() {
		return
	}
	if sv.Dir().IsOpposite(dir) {
		return
	}
	sv.SetPendingDir(dir)
}

// Release marks slotID inactive and clears any grid cells still stamped
// with its occupancy token.
func (s *State) Release(slotID int) {
	s.Region.Lock()
	defer s.Region.Unlock()

	sv := s.slot(slotID)
	if sv.Active() {
		g := s.grid()
		token := grid.PlayerToken(slotID)
		length := int(sv.Length())
		for i := 0; i < length; i++ {
			p := sv.Body(i)
			if g.InBounds(p) && g.At(p) == token {
				g.Set(p, grid.Empty)
			}
		}
	}
	sv.reset()
}

// AdvanceTick runs one simulation step: for every active, alive slot in
// ascending order, move/collide/eat, then bump the version. This is the
// only mutator the tick process calls.
func (s *State) AdvanceTick() {
	s.Region.Lock()
	defer s.Region.Unlock()

	g := s.grid()
	for i := 0; i < s.Region.SlotCount; i++ {
		sv := s.slot(i)
		if !sv.Active() || !sv.Alive() {
			continue
		}
		s.stepSlot(g, i, sv)
	}
	s.Region.BumpVersion()
}

func (s *State) stepSlot(g *grid.Grid, slotID int, sv slotView) {
	sv.SetDir(sv.PendingDir())
	dir := sv.Dir()

	length := int(sv.Length())
	head := sv.Body(0)
	tail := sv.Body(length - 1)
	newHead := head.Add(dir.Vector())

	token := grid.PlayerToken(slotID)

	if !g.InBounds(newHead) {
		s.kill(g, slotID, sv)
		return
	}
	dest := g.At(newHead)

	// A snake moving into the cell its own tail is about to vacate is
	// legal: the tail is cleared before the head is written, so this must
	// not be classified as a collision even though the cell currently
	// still carries this slot's own token.
	if newHead == tail && dest == token {
		s.move(g, slotID, sv, newHead, length)
		return
	}

	switch {
	case dest == grid.Wall:
		s.kill(g, slotID, sv)
	case dest >= grid.PlayerBase:
		s.kill(g, slotID, sv)
	case dest == grid.Food:
		s.eat(g, slotID, sv, newHead, length)
	default: // Empty
		s.move(g, slotID, sv, newHead, length)
	}
}

func (s *State) kill(g *grid.Grid, slotID int, sv slotView) {
	sv.SetAlive(false)
	sv.SetActive(false)

	token := grid.PlayerToken(slotID)
	length := int(sv.Length())
	for i := 0; i < length; i++ {
		p := sv.Body(i)
		if g.InBounds(p) && g.At(p) == token {
			g.Set(p, grid.Empty)
		}
	}
}

// move performs a non-eating step: clear the tail, shift the body down by
// one (dropping the old tail), write the new head.
func (s *State) move(g *grid.Grid, slotID int, sv slotView, newHead grid.Point, length int) {
	tail := sv.Body(length - 1)
	g.Set(tail, grid.Empty)

	for i := length - 2; i >= 0; i-- {
		sv.SetBody(i+1, sv.Body(i))
	}
	sv.SetBody(0, newHead)
	g.Set(newHead, grid.PlayerToken(slotID))
}

// eat performs an eating step: grow by one (clamped to BodyCap), shift the
// full body down (retaining the old tail, unless already at BodyCap, in
// which case the old tail is dropped and its cell cleared), write the new
// head, bump score, and respawn one food cell elsewhere.
func (s *State) eat(g *grid.Grid, slotID int, sv slotView, newHead grid.Point, length int) {
	bodyCap := s.Region.BodyCap
	newLength := length + 1
	if newLength > bodyCap {
		newLength = bodyCap
	}

	shiftCount := length
	if shiftCount > bodyCap-1 {
		shiftCount = bodyCap - 1 // at capacity: oldest segment is dropped
		g.Set(sv.Body(length-1), grid.Empty)
	}
	for i := shiftCount - 1; i >= 0; i-- {
		sv.SetBody(i+1, sv.Body(i))
	}
	sv.SetBody(0, newHead)
	sv.SetLength(int32(newLength))
	sv.AddScore(1)
	g.Set(newHead, grid.PlayerToken(slotID))

	if p, err := grid.RandomEmptyInterior(g, s.rng); err == nil {
		g.Set(p, grid.Food)
	}
	// else: the bounded search found no empty cell; this respawn is skipped
	// rather than looping indefinitely, and it is not retried on a later tick.
}
