// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bcq

import "context"

// tryRecv reads the element at c's cursor and advances it.
//
// The slot cannot be overwritten during the copy: a sender may only claim
// pos+capacity once every cursor, c's included, has moved past pos.
func (r *ring[T]) tryRecv(c *cursor) (T, error) {
	pos := c.pos.LoadRelaxed()
	s := &r.buffer[pos&r.mask]
	if s.seq.LoadAcquire() != pos+1 {
		var zero T
		if !r.sendersGone.LoadAcquire() {
			return zero, ErrWouldBlock
		}
		// Every publish happened before the last Sender closed.
		if s.seq.LoadAcquire() != pos+1 {
			return zero, ErrDisconnected
		}
	}

	elem := s.data
	c.pos.Store(pos + 1)

	if pos == r.gating.LoadAcquire() {
		// This receiver may have been the slowest one.
		r.raiseGating(r.slowest(r.claimed.LoadAcquire()))
	}
	r.space.Notify()
	return elem, nil
}

// canRecv is the wake-up condition for blocked receivers.
func (r *ring[T]) canRecv(c *cursor) bool {
	pos := c.pos.LoadRelaxed()
	return r.buffer[pos&r.mask].seq.Load() == pos+1 || r.sendersGone.Load()
}

// recv reads the next element, waiting with the configured strategy.
func (r *ring[T]) recv(ctx context.Context, c *cursor) (T, error) {
	ready := func() bool { return r.canRecv(c) }
	for {
		elem, err := r.tryRecv(c)
		if !IsWouldBlock(err) {
			return elem, err
		}
		if err := r.wait.Wait(ctx, &r.data, ready); err != nil {
			var zero T
			return zero, err
		}
	}
}

// pollRecv reads the next element if one is published. Otherwise it returns
// a channel that closes after the next publication or disconnect.
func (r *ring[T]) pollRecv(c *cursor) (T, <-chan struct{}, error) {
	elem, err := r.tryRecv(c)
	if !IsWouldBlock(err) {
		return elem, nil, err
	}
	ch := r.data.Listen()
	if !r.canRecv(c) {
		return elem, ch, ErrWouldBlock
	}
	elem, err = r.tryRecv(c)
	if !IsWouldBlock(err) {
		return elem, nil, err
	}
	return elem, ch, ErrWouldBlock
}
