// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bcq

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// Event is a broadcast wake-up notifier.
//
// Listeners obtain a generation channel with Listen; Notify closes the
// current generation and installs a fresh one, waking every listener at
// once. A listener that stops waiting simply drops its channel, which
// leaves nothing behind in the Event.
//
// Protocol for a waiter:
//
//	for !ready() {
//	    ch := ev.Listen()
//	    if ready() {
//	        break
//	    }
//	    <-ch
//	}
//
// Protocol for a notifier: make ready() true with a sequentially consistent
// store first, then call Notify.
//
// Notify costs one atomic load while nobody is listening, so it is safe to
// call on every publish and every read. The zero value is ready to use.
type Event struct {
	_     pad
	armed atomix.Uint64 // 1 once a listener has subscribed since the last wake
	_     padShort
	gen   atomic.Pointer[chan struct{}]
}

// Listen subscribes to the next Notify and returns a channel that is closed
// when it happens. The caller must re-check its condition after Listen and
// before blocking on the channel.
func (ev *Event) Listen() <-chan struct{} {
	// Load before arming: a Notify that consumes this arm closes ch or an
	// older generation.
	ch := *ev.current()
	ev.armed.Store(1)
	return ch
}

// Notify wakes every current listener.
func (ev *Event) Notify() {
	if ev.armed.Load() == 0 {
		return
	}
	if !ev.armed.CompareAndSwapAcqRel(1, 0) {
		return
	}
	next := make(chan struct{})
	if prev := ev.gen.Swap(&next); prev != nil {
		close(*prev)
	}
}

func (ev *Event) current() *chan struct{} {
	if p := ev.gen.Load(); p != nil {
		return p
	}
	ch := make(chan struct{})
	if ev.gen.CompareAndSwap(nil, &ch) {
		return &ch
	}
	return ev.gen.Load()
}
