// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bcq

import "testing"

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// TestEventListenAfterConsumedArm covers a listener that subscribes after
// a Notify consumed an earlier listener's arm.
func TestEventListenAfterConsumedArm(t *testing.T) {
	var ev Event
	chA := ev.Listen()
	ev.Notify()
	if !isClosed(chA) {
		t.Fatalf("first listener: got open channel, want closed")
	}

	chB := ev.Listen()
	if got := ev.armed.Load(); got != 1 {
		t.Fatalf("armed after Listen: got %d, want 1", got)
	}
	if isClosed(chB) {
		t.Fatalf("second listener: got closed channel before Notify")
	}
	ev.Notify()
	if !isClosed(chB) {
		t.Fatalf("second listener: got open channel after Notify, want closed")
	}
}

// TestEventNotifyBetweenListenSteps replays Listen one atomic step at a time
// with a Notify landing between the generation load and the arm. The Notify
// consumes the earlier listener's arm and swaps generations.
func TestEventNotifyBetweenListenSteps(t *testing.T) {
	var ev Event
	chA := ev.Listen()

	// Listener B, step 1: load the generation.
	chB := *ev.current()
	// A Notify for the earlier arm runs before B arms.
	ev.Notify()
	// Listener B, step 2: arm.
	ev.armed.Store(1)

	if !isClosed(chA) {
		t.Fatalf("earlier listener: got open channel, want closed")
	}
	// B loaded the generation the Notify closed, so it wakes and re-checks.
	if !isClosed(chB) {
		t.Fatalf("listener: got open channel after intervening Notify, want closed")
	}

	// B re-checks, finds its condition false and listens again. The arm
	// left behind must still be honored by the next Notify.
	chB = ev.Listen()
	if got := ev.armed.Load(); got != 1 {
		t.Fatalf("armed after re-Listen: got %d, want 1", got)
	}
	ev.Notify()
	if !isClosed(chB) {
		t.Fatalf("listener: missed wakeup after re-Listen")
	}
}

// TestEventArmSurvivesConsumedArm checks the ordering where the Notify
// consumes the earlier arm before listener B loads anything.
func TestEventArmSurvivesConsumedArm(t *testing.T) {
	var ev Event
	ev.Listen()

	// The Notify's CAS lands on the earlier arm first.
	if !ev.armed.CompareAndSwapAcqRel(1, 0) {
		t.Fatalf("armed: CAS 1->0 failed")
	}
	// Listener B loads and arms before the Notify swaps generations.
	chB := *ev.current()
	ev.armed.Store(1)
	// The Notify completes its swap and close.
	next := make(chan struct{})
	if prev := ev.gen.Swap(&next); prev != nil {
		close(*prev)
	}

	// B loaded the old generation and is woken by this swap.
	if !isClosed(chB) {
		t.Fatalf("listener: got open channel after swap, want closed")
	}
	if got := ev.armed.Load(); got != 1 {
		t.Fatalf("armed after swap: got %d, want 1", got)
	}
	chB = ev.Listen()
	ev.Notify()
	if !isClosed(chB) {
		t.Fatalf("listener: missed wakeup on next Notify")
	}
}
