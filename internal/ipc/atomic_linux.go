//go:build linux

package ipc

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

func (r *Region) putU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(r.data[off:off+4], v)
}

func (r *Region) getU32(off int) uint32 {
	return binary.LittleEndian.Uint32(r.data[off : off+4])
}

func (r *Region) u32Ptr(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&r.data[off]))
}

func (r *Region) u64Ptr(off int) *uint64 {
	return (*uint64)(unsafe.Pointer(&r.data[off]))
}

// Version returns the current version counter, loaded atomically so a
// worker can poll it without taking the lock.
func (r *Region) Version() uint64 {
	return atomic.LoadUint64(r.u64Ptr(offVer))
}

// BumpVersion atomically increments the version counter. Called only by
// the tick simulator while it holds the lock, but implemented atomically
// anyway since workers read it unlocked.
func (r *Region) BumpVersion() uint64 {
	return atomic.AddUint64(r.u64Ptr(offVer), 1)
}

// Lock acquires the cross-process spinlock embedded at offLock. Not
// robust to holder death: a process that crashes mid-lock wedges every
// other process sharing the region.
func (r *Region) Lock() {
	state := r.u32Ptr(offLock)
	spins := 0
	for !atomic.CompareAndSwapUint32(state, 0, 1) {
		spins++
		if spins > 1000 {
			spinBackoff()
			spins = 0
		}
	}
}

// Unlock releases the spinlock.
func (r *Region) Unlock() {
	atomic.StoreUint32(r.u32Ptr(offLock), 0)
}
