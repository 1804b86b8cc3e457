// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bcq provides a bounded lock-free broadcast queue.
//
// Any number of senders publish into a fixed ring; every receiver observes
// every element published after it was registered, exactly once and in
// publication order, independently of the other receivers. Senders are held
// back by the slowest receiver, so an unread element is never overwritten.
//
// # Quick Start
//
//	tx, rx := bcq.NewChannel[Msg](1024)
//
//	go func() {
//	    defer tx.Close()
//	    for ev := range source {
//	        if err := tx.Send(&ev); err != nil {
//	            return // every receiver is gone
//	        }
//	    }
//	}()
//
//	for {
//	    ev, err := rx.Recv()
//	    if bcq.IsDisconnected(err) {
//	        break // senders closed and backlog drained
//	    }
//	    handle(ev)
//	}
//
// Builder API selects the wait strategy and disconnect policy:
//
//	tx, rx := bcq.Build[Msg](bcq.New(1024))                  // hybrid spin-then-park
//	tx, rx := bcq.Build[Msg](bcq.New(1024).Spin())           // busy-spin
//	tx, rx := bcq.Build[Msg](bcq.New(1024).Hybrid(100, 10))  // tuned hybrid
//	tx, rx := bcq.Build[Msg](bcq.New(1024).Block().Detached())
//
// # Fan-out
//
// Each consuming goroutine needs its own Receiver. Clone registers a new
// one at the current write position; it does not replay history:
//
//	audit := rx.Clone()
//	go consume(audit)
//	go consume(rx)
//
// Senders may be shared between goroutines directly, or cloned so that
// independent owners can Close their own handle.
//
// # Operations
//
// Every operation comes in five shapes:
//
//	Send / Recv                 block with the configured WaitStrategy
//	SendContext / RecvContext   block until ctx ends, return ctx.Err()
//	SendTimeout / RecvTimeout   block for a duration, return ErrTimeout
//	TrySend / TryRecv           never block, return ErrWouldBlock
//	PollSend / PollRecv         never block, return a wake-up channel
//
// Bounded and non-blocking calls that fail leave the queue untouched: no
// sequence is claimed and no cursor moves, so a retry behaves identically.
//
// # Algorithm
//
// The ring holds capacity slots, each tagged with the absolute sequence it
// carries. Senders validate space against the slowest receiver cursor,
// then claim the next sequence with a CAS on the shared claim cursor, copy
// the element into the slot and publish it with a sequentially consistent
// store of the tag. Receivers compare the tag of their next slot with their
// own cursor, copy the element out, and advance the cursor, which only
// they write.
//
// The slowest cursor is cached and only recomputed when a sender sees the
// cache as full or the receiver sitting on it moves. The receiver set is a
// copy-on-write snapshot: registration and teardown take a lock, the
// publish and read paths never do.
//
// # Waiting
//
// Blocked callers wait through a [WaitStrategy]:
//
//	SpinWait     lowest latency, burns a core while waiting
//	BackoffWait  adaptive spin-then-sleep via iox.Backoff
//	HybridWait   bounded spin/yield, then parks on an Event (default)
//	BlockWait    parks immediately, lowest CPU, highest wake latency
//
// Parking goes through an [Event], a broadcast notifier: one publication
// wakes every parked receiver, one read wakes every parked sender. Notify
// costs one atomic load when nobody is parked.
//
// # Error Handling
//
//	ErrWouldBlock      transient, retry later (alias of iox.ErrWouldBlock)
//	ErrTimeout         bounded wait expired; wraps ErrWouldBlock
//	ErrDisconnected    terminal, the other side is gone
//	ErrClosed          the handle itself was closed
//	ErrInvalidCapacity construction with capacity < 1 (panics)
//
// # Disconnection
//
// Closing the last Receiver makes Send return [ErrDisconnected], waking
// senders blocked on backpressure. With Detached, senders instead keep
// publishing into the void and Sender.Subscribe may attach receivers
// later.
//
// Closing the last Sender lets every Receiver drain what was already
// published; after that Recv returns [ErrDisconnected].
//
// # Capacity
//
// Capacity rounds up to the next power of 2:
//
//	bcq.NewChannel[int](3)     // Actual capacity: 4
//	bcq.NewChannel[int](1000)  // Actual capacity: 1024
//
// Slots are not cleared after reading because other receivers may still
// need them; an element stays reachable until it is overwritten a full
// ring later.
//
// # Race Detection
//
// Slot payloads are plain memory protected by acquire-release ordering on
// the slot tag. The race detector cannot see that synchronization and may
// report false positives; concurrent tests are skipped when [RaceEnabled].
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors and
// backoff, [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause instructions.
package bcq
