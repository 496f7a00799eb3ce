//go:build linux

// Package ipc implements the cross-process shared memory region backing
// the game state envelope: an anonymous memfd, mmap'd MAP_SHARED so every
// worker and the tick process observe the same bytes, plus a spinlock
// standing in for a process-shared pthread mutex. Linux-only: memfd_create,
// mmap, and epoll have no portable stdlib equivalent.
package ipc

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Header layout, all offsets fixed and fixed-width (no pointers, slices,
// or strings may ever live in the region — only these byte-addressed
// fields and the grid/slot bytes that follow them).
const (
	offLock   = 0  // 4 bytes: spinlock word
	offVer    = 8  // 8 bytes: version counter (8-byte aligned for atomic ops)
	offWidth  = 16 // 4 bytes
	offHeight = 20 // 4 bytes
	offSlots  = 24 // 4 bytes: slot table capacity (P)
	offBodyCap = 28 // 4 bytes: per-snake body capacity (L)

	HeaderSize = 64 // reserved header, rounded up for future fields
)

// Region is a memory-mapped, fixed-layout byte buffer shared across
// processes via an inherited memfd.
type Region struct {
	fd   int
	data []byte

	Width, Height, SlotCount, BodyCap int
}

// Layout computes the total byte size of a region for the given board and
// slot-table dimensions.
func Layout(width, height, slotCount, bodyCap int) int {
	return HeaderSize + width*height + slotCount*SlotRecordSize(bodyCap)
}

// SlotRecordSize returns the fixed byte width of one slot record: active,
// alive, dir, pendingDir (1 byte each), score, length (4 bytes each), then
// bodyCap points of 2 bytes per axis.
func SlotRecordSize(bodyCap int) int {
	return 1 + 1 + 1 + 1 + 4 + 4 + bodyCap*4
}

// Create allocates a new anonymous shared memory file sized for the given
// dimensions, mmaps it, and writes the header. The returned Region owns fd
// and data; call Close to unmap (Close leaves the fd open; children
// receive dups of it from File, passed down via exec.Cmd.ExtraFiles).
func Create(width, height, slotCount, bodyCap int) (*Region, error) {
	size := Layout(width, height, slotCount, bodyCap)

	fd, err := unix.MemfdCreate("snakearena-state", 0)
	if err != nil {
		return nil, fmt.Errorf("ipc: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ipc: ftruncate: %w", err)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ipc: mmap: %w", err)
	}

	r := &Region{fd: fd, data: data, Width: width, Height: height, SlotCount: slotCount, BodyCap: bodyCap}
	r.putU32(offWidth, uint32(width))
	r.putU32(offHeight, uint32(height))
	r.putU32(offSlots, uint32(slotCount))
	r.putU32(offBodyCap, uint32(bodyCap))
	return r, nil
}

// Attach maps an inherited fd (passed down via exec.Cmd.ExtraFiles) into
// this process, validating the dimensions a child expects to see.
func Attach(f *os.File, wantWidth, wantHeight, wantSlots, wantBodyCap int) (*Region, error) {
	fd := int(f.Fd())
	size := Layout(wantWidth, wantHeight, wantSlots, wantBodyCap)

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("ipc: mmap attach: %w", err)
	}

	r := &Region{fd: fd, data: data, Width: wantWidth, Height: wantHeight, SlotCount: wantSlots, BodyCap: wantBodyCap}
	if got := r.getU32(offWidth); int(got) != wantWidth {
		r.Close()
		return nil, fmt.Errorf("ipc: width mismatch: region has %d, expected %d", got, wantWidth)
	}
	if got := r.getU32(offHeight); int(got) != wantHeight {
		r.Close()
		return nil, fmt.Errorf("ipc: height mismatch: region has %d, expected %d", got, wantHeight)
	}
	if got := r.getU32(offSlots); int(got) != wantSlots {
		r.Close()
		return nil, fmt.Errorf("ipc: slot count mismatch: region has %d, expected %d", got, wantSlots)
	}
	if got := r.getU32(offBodyCap); int(got) != wantBodyCap {
		r.Close()
		return nil, fmt.Errorf("ipc: body cap mismatch: region has %d, expected %d", got, wantBodyCap)
	}
	return r, nil
}

// Close unmaps the region. It does not close the backing fd: the
// supervisor owns fd lifetime since it is shared across processes.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}

// File returns an *os.File wrapping a dup of the region's fd, suitable for
// ExtraFiles on an exec.Cmd destined for a worker or the tick process. The
// dup decouples the returned file's lifetime from the region's own fd: the
// caller (or its garbage collector, via the finalizer os.NewFile installs)
// may close it at any time without affecting the region.
func (r *Region) File() (*os.File, error) {
	dup, err := unix.Dup(r.fd)
	if err != nil {
		return nil, fmt.Errorf("ipc: dup: %w", err)
	}
	return os.NewFile(uintptr(dup), "snakearena-state"), nil
}

// GridBytes returns the mutable grid cell slice (HeaderSize..HeaderSize+W*H).
// Callers must hold the lock before reading or writing.
func (r *Region) GridBytes() []byte {
	n := r.Width * r.Height
	return r.data[HeaderSize : HeaderSize+n]
}

// SlotBytes returns the mutable byte slice for slot i's fixed-size record.
// Callers must hold the lock before reading or writing.
func (r *Region) SlotBytes(i int) []byte {
	recSize := SlotRecordSize(r.BodyCap)
	base := HeaderSize + r.Width*r.Height + i*recSize
	return r.data[base : base+recSize]
}
