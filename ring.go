// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bcq

import "code.hybscloud.com/atomix"

// ring is the queue core shared by every Sender and Receiver.
//
// Sequences are absolute and never wrap in practice (2^64 publications).
// Sequence s lives in slots[s&mask]. A slot tag of s+1 means sequence s is
// published there; zero means the slot was never written.
//
// Backpressure invariant: claimed - slowest <= capacity, where slowest is
// the minimum cursor among registered receivers (claimed when there are
// none). A sender claims s only after checking s - slowest < capacity,
// so the previous occupant s-capacity has been read by every receiver.
//
// Memory: capacity slots, each padded to a cache line.
type ring[T any] struct {
	_        pad
	claimed  atomix.Uint64 // Next sequence to claim (CAS by senders)
	_        pad
	gating   atomix.Uint64 // Cached lower bound of the slowest cursor
	_        pad
	buffer   []slot[T]
	mask     uint64
	capacity uint64

	readers registry

	data  Event // New publications
	space Event // Receiver progress or teardown

	wait     WaitStrategy
	detached bool

	senders       atomix.Int64 // Open Sender handles
	sendersGone   atomix.Bool
	receiversGone atomix.Bool
}

type slot[T any] struct {
	seq  atomix.Uint64 // Published sequence + 1
	data T
	_    padShort // Pad to cache line
}

func newRing[T any](opts Options) *ring[T] {
	if opts.capacity < 1 {
		panic(invalidCapacity(opts.capacity))
	}
	n := uint64(roundToPow2(opts.capacity))
	wait := opts.wait
	if wait == nil {
		wait = DefaultWait
	}
	r := &ring[T]{
		buffer:   make([]slot[T], n),
		mask:     n - 1,
		capacity: n,
		wait:     wait,
		detached: opts.detached,
	}
	r.readers.init()
	return r
}

// slowest returns min(tail, every registered cursor).
//
// tail must be a value of claimed loaded before this call. Loading it
// first bounds the result for scans that race with a registration, see
// attach.
func (r *ring[T]) slowest(tail uint64) uint64 {
	low := tail
	for _, c := range r.readers.load() {
		if pos := c.pos.Load(); pos < low {
			low = pos
		}
	}
	return low
}

// raiseGating lifts the cached slowest cursor to low if it is higher.
// Every value ever passed here is a valid lower bound for all current and
// future receivers, so the cache only ever moves forward.
func (r *ring[T]) raiseGating(low uint64) {
	for {
		g := r.gating.LoadAcquire()
		if low <= g || r.gating.CompareAndSwapAcqRel(g, low) {
			return
		}
	}
}

// hasSpace reports whether the sequence after tail can be claimed
// without lapping the slowest receiver. It refreshes the gating cache on
// the slow path.
func (r *ring[T]) hasSpace(tail uint64) bool {
	if tail-r.gating.LoadAcquire() < r.capacity {
		return true
	}
	low := r.slowest(tail)
	r.raiseGating(low)
	return tail-low < r.capacity
}

// vacated reports whether the previous occupant of tail's slot has been
// committed. Receivers only move past committed sequences, so this only
// binds for sequences no receiver was registered for: a detached queue
// with nobody listening, or a receiver that attached mid-commit.
func (r *ring[T]) vacated(tail uint64) bool {
	if tail < r.capacity {
		return true
	}
	return r.buffer[tail&r.mask].seq.Load() == tail-r.capacity+1
}

// Cap returns the ring capacity.
func (r *ring[T]) Cap() int {
	return int(r.capacity)
}
