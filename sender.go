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

// Sender publishes elements to every Receiver of a queue.
//
// A Sender is safe for concurrent use by multiple goroutines; Clone is only
// needed to give independent owners their own Close. Every Sender must be
// closed for receivers to observe [ErrDisconnected].
type Sender[T any] struct {
	r      *ring[T]
	closed atomix.Bool
}

func newSender[T any](r *ring[T]) *Sender[T] {
	r.senders.AddAcqRel(1)
	return &Sender[T]{r: r}
}

// Send publishes a copy of *elem, blocking while the slowest receiver is a
// full ring behind.
// Returns [ErrDisconnected] once every Receiver has been closed.
func (s *Sender[T]) Send(elem *T) error {
	return s.SendContext(context.Background(), elem)
}

// SendContext is Send bounded by ctx. If ctx ends first, it returns
// ctx.Err() and the queue is left exactly as it was.
func (s *Sender[T]) SendContext(ctx context.Context, elem *T) error {
	if s.closed.LoadAcquire() {
		return ErrClosed
	}
	return s.r.send(ctx, elem)
}

// SendTimeout is Send bounded by d. It returns [ErrTimeout] when d elapses.
func (s *Sender[T]) SendTimeout(elem *T, d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	err := s.SendContext(ctx, elem)
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}

// TrySend publishes a copy of *elem without waiting.
// Returns [ErrWouldBlock] if the ring is full relative to the slowest
// receiver, [ErrDisconnected] if every Receiver has been closed.
func (s *Sender[T]) TrySend(elem *T) error {
	if s.closed.LoadAcquire() {
		return ErrClosed
	}
	return s.r.trySend(elem)
}

// PollSend is the asynchronous form of Send for event loops.
//
// On success it returns (nil, nil). When the ring is full it returns a
// channel and [ErrWouldBlock]; the channel closes after receivers make
// progress, at which point PollSend should be called again. Abandoning the
// channel is always safe.
//
//	for {
//	    ready, err := tx.PollSend(&v)
//	    if !bcq.IsWouldBlock(err) {
//	        return err
//	    }
//	    select {
//	    case <-ready:
//	    case <-ctx.Done():
//	        return ctx.Err()
//	    }
//	}
func (s *Sender[T]) PollSend(elem *T) (<-chan struct{}, error) {
	if s.closed.LoadAcquire() {
		return nil, ErrClosed
	}
	return s.r.pollSend(elem)
}

// Clone returns a new Sender for the same queue.
// Panics if s is already closed.
func (s *Sender[T]) Clone() *Sender[T] {
	if s.closed.LoadAcquire() {
		panic("bcq: Clone of closed Sender")
	}
	return newSender(s.r)
}

// Subscribe registers a new Receiver that observes publications from now on.
// Returns [ErrDisconnected] if the queue lost all receivers and is not
// detached.
func (s *Sender[T]) Subscribe() (*Receiver[T], error) {
	if s.closed.LoadAcquire() {
		return nil, ErrClosed
	}
	return subscribe(s.r)
}

// Receivers returns the number of registered receivers.
func (s *Sender[T]) Receivers() int {
	return s.r.readers.len()
}

// Close releases this Sender. Closing the last Sender lets receivers drain
// what was published and then observe [ErrDisconnected].
// Close is idempotent; the Sender must not be used concurrently with it.
func (s *Sender[T]) Close() error {
	if !s.closed.CompareAndSwapAcqRel(false, true) {
		return nil
	}
	r := s.r
	if r.senders.AddAcqRel(-1) == 0 {
		r.sendersGone.Store(true)
		r.data.Notify()
	}
	return nil
}

// Cap returns the queue capacity.
func (s *Sender[T]) Cap() int {
	return s.r.Cap()
}
