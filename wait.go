// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bcq

import (
	"context"
	"runtime"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// WaitStrategy decides how a blocked sender or receiver waits for progress.
//
// Wait returns nil once ready reports true, or ctx.Err() once ctx is done.
// ready may be called any number of times; wake-ups are hints, and every
// implementation re-checks ready after each one. Implementations that park
// must subscribe with ev.Listen before their final ready check.
//
// Trade-off between the provided strategies:
//
//	SpinWait     lowest latency, burns a core while waiting
//	BackoffWait  adaptive spin-then-sleep, never parks on the event
//	HybridWait   bounded spin/yield, then parks until notified (default)
//	BlockWait    parks immediately, lowest CPU, highest wake latency
type WaitStrategy interface {
	Wait(ctx context.Context, ev *Event, ready func() bool) error
}

// spinCheckInterval is how many pause rounds a spinning waiter runs between
// context checks.
const spinCheckInterval = 64

// SpinWait busy-waits with CPU pause instructions.
type SpinWait struct{}

// Wait spins until ready or ctx is done.
func (SpinWait) Wait(ctx context.Context, _ *Event, ready func() bool) error {
	sw := spin.Wait{}
	for i := 0; ; i++ {
		if ready() {
			return nil
		}
		if i%spinCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		sw.Once()
	}
}

// BackoffWait polls with [iox.Backoff]: short spins that grow into sleeps.
// It never subscribes to the event, so notifiers stay on their fast path.
type BackoffWait struct{}

// Wait polls until ready or ctx is done.
func (BackoffWait) Wait(ctx context.Context, _ *Event, ready func() bool) error {
	backoff := iox.Backoff{}
	for {
		if ready() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		backoff.Wait()
	}
}

// HybridWait spins Spins times, yields the processor Yields times, then
// parks on the event until notified.
//
// Zero Spins and zero Yields parks immediately (see [BlockWait]).
type HybridWait struct {
	Spins  int
	Yields int
}

// DefaultWait is the strategy used when none is configured.
var DefaultWait WaitStrategy = HybridWait{Spins: 50}

// BlockWait parks on the event without spinning.
var BlockWait WaitStrategy = HybridWait{}

// Wait spins, yields, then parks until ready or ctx is done.
func (w HybridWait) Wait(ctx context.Context, ev *Event, ready func() bool) error {
	sw := spin.Wait{}
	for range w.Spins {
		if ready() {
			return nil
		}
		sw.Once()
	}
	for range w.Yields {
		if ready() {
			return nil
		}
		runtime.Gosched()
	}
	return park(ctx, ev, ready)
}

// park blocks on ev until ready or ctx is done.
func park(ctx context.Context, ev *Event, ready func() bool) error {
	for {
		if ready() {
			return nil
		}
		ch := ev.Listen()
		if ready() {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			// The condition may have turned true together with cancellation.
			if ready() {
				return nil
			}
			return ctx.Err()
		}
	}
}
