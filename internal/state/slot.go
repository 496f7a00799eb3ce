package state

import (
	"encoding/binary"

	"github.com/ancillary-agi/snakearena/internal/grid"
)

// slotRecord byte offsets within one fixed-size slot record.
const (
	recActive     = 0 // 1 byte
	recAlive      = 1 // 1 byte
	recDir        = 2 // 1 byte
	recPendingDir = 3 // 1 byte
	recScore      = 4 // 4 bytes, int32 LE
	recLength     = 8 // 4 bytes, int32 LE
	recBody       = 12 // bodyCap * 4 bytes (int16 X, int16 Y per point)
)

// slotView is a thin accessor over one slot's raw bytes. It never copies
// the body into a Go slice; every read/write touches the shared region
// directly, so callers must hold the region lock around any sequence of
// calls that must appear atomic to other processes.
type slotView struct {
	b       []byte
	bodyCap int
}

func (s slotView) Active() bool { return s.b[recActive] != 0 }
func (s slotView) SetActive(v bool) {
	if v {
		s.b[recActive] = 1
	} else {
		s.b[recActive] = 0
	}
}

func (s slotView) Alive() bool { return s.b[recAlive] != 0 }
func (s slotView) SetAlive(v bool) {
	if v {
		s.b[recAlive] = 1
	} else {
		s.b[recAlive] = 0
	}
}

func (s slotView) Dir() grid.Direction        { return grid.Direction(s.b[recDir]) }
func (s slotView) SetDir(d grid.Direction)    { s.b[recDir] = byte(d) }
func (s slotView) PendingDir() grid.Direction { return grid.Direction(s.b[recPendingDir]) }
func (s slotView) SetPendingDir(d grid.Direction) { s.b[recPendingDir] = byte(d) }

func (s slotView) Score() int32 {
	return int32(binary.LittleEndian.Uint32(s.b[recScore : recScore+4]))
}
func (s slotView) SetScore(v int32) {
	binary.LittleEndian.PutUint32(s.b[recScore:recScore+4], uint32(v))
}
func (s slotView) AddScore(delta int32) { s.SetScore(s.Score() + delta) }

func (s slotView) Length() int32 {
	return int32(binary.LittleEndian.Uint32(s.b[recLength : recLength+4]))
}
func (s slotView) SetLength(v int32) {
	binary.LittleEndian.PutUint32(s.b[recLength:recLength+4], uint32(v))
}

// Body returns the point at body index i (0 = head).
func (s slotView) Body(i int) grid.Point {
	off := recBody + i*4
	x := int16(binary.LittleEndian.Uint16(s.b[off : off+2]))
	y := int16(binary.LittleEndian.Uint16(s.b[off+2 : off+4]))
	return grid.Point{X: int32(x), Y: int32(y)}
}

// SetBody writes the point at body index i.
func (s slotView) SetBody(i int, p grid.Point) {
	off := recBody + i*4
	binary.LittleEndian.PutUint16(s.b[off:off+2], uint16(int16(p.X)))
	binary.LittleEndian.PutUint16(s.b[off+2:off+4], uint16(int16(p.Y)))
}

// reset clears the record to its zero (inactive) state.
func (s slotView) reset() {
	for i := range s.b {
		s.b[i] = 0
	}
}
