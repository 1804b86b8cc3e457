// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bcq

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For TrySend: the slowest receiver is a full ring behind (backpressure)
// For TryRecv: nothing has been published past the receiver's cursor
//
// ErrWouldBlock is a control flow signal, not a failure. Queue state is
// unchanged: no sequence was claimed and no cursor moved, so a retried
// call behaves identically.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrDisconnected reports that the other side of the queue is permanently gone.
//
// Senders see it once every Receiver has been closed. Receivers see it once
// every Sender has been closed and their own backlog has been drained.
// It is terminal: retrying never succeeds.
var ErrDisconnected = errors.New("bcq: disconnected")

// ErrInvalidCapacity reports a capacity below 1.
// Constructors panic with an error wrapping it.
var ErrInvalidCapacity = errors.New("bcq: invalid capacity")

// ErrClosed reports an operation on a handle after its own Close.
var ErrClosed = errors.New("bcq: handle closed")

// ErrTimeout reports that a bounded wait expired before the operation could
// proceed. It wraps [ErrWouldBlock]: the queue state is unchanged.
var ErrTimeout = fmt.Errorf("bcq: wait timed out: %w", ErrWouldBlock)

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsDisconnected reports whether err is, or wraps, [ErrDisconnected].
func IsDisconnected(err error) bool {
	return errors.Is(err, ErrDisconnected)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrMore.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

func invalidCapacity(capacity int) error {
	return fmt.Errorf("%w: %d (must be >= 1)", ErrInvalidCapacity, capacity)
}
