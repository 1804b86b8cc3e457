// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bcq

import (
	"context"
	"time"
)

// Producer is the sending side of a broadcast queue.
//
// The element is passed by pointer to avoid copying large structs. The
// queue stores a copy of the pointed-to value, so the original can be
// modified after the call returns. Every receiver gets its own copy of
// that stored value; pointers inside T are shared, not deep-copied.
type Producer[T any] interface {
	// Send publishes an element, blocking while the ring is full.
	// Returns ErrDisconnected once no receivers remain.
	Send(elem *T) error

	// SendContext is Send bounded by ctx.
	SendContext(ctx context.Context, elem *T) error

	// SendTimeout is Send bounded by a duration. Returns ErrTimeout.
	SendTimeout(elem *T, d time.Duration) error

	// TrySend publishes an element without waiting.
	// Returns ErrWouldBlock if the ring is full.
	TrySend(elem *T) error

	// PollSend publishes an element or returns a wake-up channel
	// together with ErrWouldBlock.
	PollSend(elem *T) (<-chan struct{}, error)

	Close() error
	Cap() int
}

// Consumer is the receiving side of a broadcast queue.
//
// Elements are returned by value (copied from the queue's slot). The slot
// itself is left for the other receivers and reclaimed when a sender
// overwrites it a full ring later.
type Consumer[T any] interface {
	// Recv returns the next element, blocking until one is published.
	// Returns ErrDisconnected once no senders remain and the backlog is
	// drained.
	Recv() (T, error)

	// RecvContext is Recv bounded by ctx.
	RecvContext(ctx context.Context) (T, error)

	// RecvTimeout is Recv bounded by a duration. Returns ErrTimeout.
	RecvTimeout(d time.Duration) (T, error)

	// TryRecv returns the next element without waiting.
	// Returns (zero-value, ErrWouldBlock) if nothing new is published.
	TryRecv() (T, error)

	// PollRecv returns the next element or a wake-up channel together
	// with ErrWouldBlock.
	PollRecv() (T, <-chan struct{}, error)

	Close() error
	Cap() int
}

var (
	_ Producer[int] = (*Sender[int])(nil)
	_ Consumer[int] = (*Receiver[int])(nil)
)
