// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bcq

import (
	"context"

	"code.hybscloud.com/spin"
)

// tryClaim reserves the next sequence for a sender.
//
// Space is validated before the CAS, so a failed claim leaves no trace:
// ErrWouldBlock and ErrDisconnected never consume a sequence.
func (r *ring[T]) tryClaim() (uint64, error) {
	sw := spin.Wait{}
	for {
		if r.receiversGone.LoadAcquire() {
			return 0, ErrDisconnected
		}
		tail := r.claimed.LoadAcquire()
		if !r.hasSpace(tail) || !r.vacated(tail) {
			return 0, ErrWouldBlock
		}
		if r.claimed.CompareAndSwapAcqRel(tail, tail+1) {
			return tail, nil
		}
		sw.Once()
	}
}

// commit stores elem at the claimed sequence and publishes it.
//
// The tag store is sequentially consistent rather than release-only: it
// also orders the element before Notify's check for parked receivers.
func (r *ring[T]) commit(seq uint64, elem *T) {
	s := &r.buffer[seq&r.mask]
	s.data = *elem
	s.seq.Store(seq + 1)
	r.data.Notify()
	r.space.Notify()
}

// canClaim is the wake-up condition for blocked senders.
func (r *ring[T]) canClaim() bool {
	if r.receiversGone.Load() {
		return true
	}
	tail := r.claimed.Load()
	return tail-r.slowest(tail) < r.capacity && r.vacated(tail)
}

func (r *ring[T]) trySend(elem *T) error {
	seq, err := r.tryClaim()
	if err != nil {
		return err
	}
	r.commit(seq, elem)
	return nil
}

// send publishes elem, waiting for space with the configured strategy.
func (r *ring[T]) send(ctx context.Context, elem *T) error {
	for {
		err := r.trySend(elem)
		if !IsWouldBlock(err) {
			return err
		}
		if err := r.wait.Wait(ctx, &r.space, r.canClaim); err != nil {
			return err
		}
	}
}

// pollSend publishes elem if possible. Otherwise it returns a channel that
// closes after the next receiver progress, subscribed before the final
// check so that the wake-up cannot be missed.
func (r *ring[T]) pollSend(elem *T) (<-chan struct{}, error) {
	err := r.trySend(elem)
	if !IsWouldBlock(err) {
		return nil, err
	}
	ch := r.space.Listen()
	if !r.canClaim() {
		return ch, ErrWouldBlock
	}
	err = r.trySend(elem)
	if !IsWouldBlock(err) {
		return nil, err
	}
	return ch, ErrWouldBlock
}
