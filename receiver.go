// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bcq

import (
	"context"
	"errors"
	"time"

	"code.hybscloud.com/atomix"
)

// Receiver observes every element published after it was registered, in
// publication order, independently of other receivers.
//
// A Receiver owns its cursor: it must be used by one goroutine at a time.
// Give each consuming goroutine its own Receiver with Clone.
//
// An open Receiver holds back senders once they are a full ring ahead of
// it. Close receivers that are no longer read.
type Receiver[T any] struct {
	r      *ring[T]
	c      *cursor
	closed atomix.Bool
}

func newReceiver[T any](r *ring[T]) *Receiver[T] {
	rx, err := subscribe(r)
	if err != nil {
		// A fresh ring is never disconnected.
		panic(err)
	}
	return rx
}

func subscribe[T any](r *ring[T]) (*Receiver[T], error) {
	c, err := r.attach()
	if err != nil {
		return nil, err
	}
	return &Receiver[T]{r: r, c: c}, nil
}

// Recv returns the next element, blocking until one is published.
// Returns [ErrDisconnected] once every Sender has been closed and all
// elements published before that have been received.
func (rx *Receiver[T]) Recv() (T, error) {
	return rx.RecvContext(context.Background())
}

// RecvContext is Recv bounded by ctx. If ctx ends first, it returns
// ctx.Err() and the cursor is not advanced.
func (rx *Receiver[T]) RecvContext(ctx context.Context) (T, error) {
	if rx.closed.LoadAcquire() {
		var zero T
		return zero, ErrClosed
	}
	return rx.r.recv(ctx, rx.c)
}

// RecvTimeout is Recv bounded by d. It returns [ErrTimeout] when d elapses.
func (rx *Receiver[T]) RecvTimeout(d time.Duration) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	elem, err := rx.RecvContext(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return elem, ErrTimeout
	}
	return elem, err
}

// TryRecv returns the next element without waiting.
// Returns [ErrWouldBlock] if nothing new is published yet.
func (rx *Receiver[T]) TryRecv() (T, error) {
	if rx.closed.LoadAcquire() {
		var zero T
		return zero, ErrClosed
	}
	return rx.r.tryRecv(rx.c)
}

// PollRecv is the asynchronous form of Recv for event loops.
//
// When an element is available it returns (elem, nil, nil). Otherwise it
// returns a channel and [ErrWouldBlock]; the channel closes after the next
// publication or disconnect, at which point PollRecv should be called
// again. Abandoning the channel is always safe.
func (rx *Receiver[T]) PollRecv() (T, <-chan struct{}, error) {
	if rx.closed.LoadAcquire() {
		var zero T
		return zero, nil, ErrClosed
	}
	return rx.r.pollRecv(rx.c)
}

// Clone registers a new Receiver starting at the current write cursor.
// The clone does not share rx's position: it skips everything published
// before the call, including elements rx has not read yet.
// Panics if rx is already closed.
func (rx *Receiver[T]) Clone() *Receiver[T] {
	if rx.closed.LoadAcquire() {
		panic("bcq: Clone of closed Receiver")
	}
	return newReceiver(rx.r)
}

// Close unregisters the Receiver, releasing any senders it was holding
// back. Closing the last Receiver disconnects the queue for senders
// unless the queue is detached.
// Close is idempotent; the Receiver must not be used concurrently with it.
func (rx *Receiver[T]) Close() error {
	if !rx.closed.CompareAndSwapAcqRel(false, true) {
		return nil
	}
	rx.r.detach(rx.c)
	return nil
}

// Cap returns the queue capacity.
func (rx *Receiver[T]) Cap() int {
	return rx.r.Cap()
}
