// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bcq

import (
	"slices"
	"sync"
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// cursor is one receiver's read position: the next sequence it will read.
// Only the owning receiver stores to pos; senders load it for backpressure.
type cursor struct {
	_   pad
	pos atomix.Uint64
	_   padShort
}

// registry tracks the cursors of registered receivers.
//
// Readers (senders computing the slowest cursor) load an immutable
// snapshot without locking. Registration and teardown copy the snapshot
// under mu, so the lock never appears on the publish or read path.
type registry struct {
	mu   sync.Mutex
	snap atomic.Pointer[[]*cursor]
	_    padPtr
}

func (g *registry) init() {
	empty := []*cursor{}
	g.snap.Store(&empty)
}

func (g *registry) load() []*cursor {
	return *g.snap.Load()
}

// len returns the number of registered cursors.
func (g *registry) len() int {
	return len(g.load())
}

// attach registers a cursor positioned at the current claim sequence, so
// the new receiver sees only later publications.
//
// A sender that loaded the old snapshot may still claim the sequence that
// was current when the snapshot was swapped, because it checked space
// without this cursor. Re-reading claimed after the swap places the cursor
// at or past that sequence. Until then the cursor holds the first reading,
// which can only make senders more conservative.
func (r *ring[T]) attach() (*cursor, error) {
	g := &r.readers
	g.mu.Lock()
	defer g.mu.Unlock()

	if r.receiversGone.Load() {
		return nil, ErrDisconnected
	}
	c := &cursor{}
	c.pos.Store(r.claimed.Load())
	next := append(slices.Clone(g.load()), c)
	g.snap.Store(&next)
	c.pos.Store(r.claimed.Load())
	return c, nil
}

// detach removes c and wakes senders that c may have been pinning.
// Detaching the last cursor disconnects the queue unless it is detached.
func (r *ring[T]) detach(c *cursor) {
	g := &r.readers
	g.mu.Lock()
	cur := g.load()
	i := slices.Index(cur, c)
	if i < 0 {
		g.mu.Unlock()
		return
	}
	next := slices.Delete(slices.Clone(cur), i, i+1)
	g.snap.Store(&next)
	if len(next) == 0 && !r.detached {
		r.receiversGone.Store(true)
	}
	g.mu.Unlock()

	r.raiseGating(r.slowest(r.claimed.Load()))
	r.space.Notify()
}
