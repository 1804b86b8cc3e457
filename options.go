// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bcq

import "unsafe"

// Options configures queue creation.
type Options struct {
	// Waiting behaviour for blocked senders and receivers
	wait WaitStrategy

	// Keep accepting sends after the last Receiver closes
	detached bool

	// Capacity (rounds up to next power of 2)
	capacity int
}

// Builder creates queues with fluent configuration.
//
// Example:
//
//	// Default: hybrid spin-then-park waiting
//	tx, rx := bcq.Build[Msg](bcq.New(1024))
//
//	// Latency-critical: never park, burn a core instead
//	tx, rx := bcq.Build[Tick](bcq.New(4096).Spin())
//
//	// Fire-and-forget: senders keep going with no receivers
//	tx, rx := bcq.Build[Metric](bcq.New(256).Block().Detached())
type Builder struct {
	opts Options
}

// New creates a queue builder with the given capacity.
//
// Capacity rounds up to the next power of 2.
// For example, capacity=4 results in actual capacity=4, capacity=1000 results
// in actual capacity=1024.
//
// Panics with an error wrapping [ErrInvalidCapacity] if capacity < 1.
func New(capacity int) *Builder {
	if capacity < 1 {
		panic(invalidCapacity(capacity))
	}
	return &Builder{opts: Options{capacity: capacity, wait: DefaultWait}}
}

// Spin selects [SpinWait]: lowest wake latency, one busy core per waiter.
func (b *Builder) Spin() *Builder {
	b.opts.wait = SpinWait{}
	return b
}

// Backoff selects [BackoffWait]: adaptive polling without event parking.
func (b *Builder) Backoff() *Builder {
	b.opts.wait = BackoffWait{}
	return b
}

// Block selects [BlockWait]: waiters park immediately.
func (b *Builder) Block() *Builder {
	b.opts.wait = BlockWait
	return b
}

// Hybrid selects a [HybridWait] with the given spin and yield budgets.
func (b *Builder) Hybrid(spins, yields int) *Builder {
	b.opts.wait = HybridWait{Spins: max(spins, 0), Yields: max(yields, 0)}
	return b
}

// Wait installs a custom [WaitStrategy]. A nil strategy restores the default.
func (b *Builder) Wait(ws WaitStrategy) *Builder {
	if ws == nil {
		ws = DefaultWait
	}
	b.opts.wait = ws
	return b
}

// Detached keeps the queue open for senders after the last Receiver closes.
//
// By default, closing the last Receiver disconnects the queue and senders
// get [ErrDisconnected]. A detached queue instead discards publications
// while nobody listens, and [Sender.Subscribe] can attach new receivers
// at any time.
func (b *Builder) Detached() *Builder {
	b.opts.detached = true
	return b
}

// Build creates a queue and returns its first Sender and Receiver.
// The Receiver is registered before Build returns, so it observes every
// publication.
func Build[T any](b *Builder) (*Sender[T], *Receiver[T]) {
	r := newRing[T](b.opts)
	return newSender(r), newReceiver(r)
}

// NewChannel creates a queue with the default wait strategy.
// Shorthand for Build[T](New(capacity)).
//
// Panics with an error wrapping [ErrInvalidCapacity] if capacity < 1.
func NewChannel[T any](capacity int) (*Sender[T], *Receiver[T]) {
	return Build[T](New(capacity))
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte

// padPtr is padding to fill cache line after pointer-sized field.
type padPtr [64 - ptrSize]byte
