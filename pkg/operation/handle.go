package operation

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// 🎫 Handle is the one-shot completion bridge for a submitted operation.
//
// Exactly one resolution ever takes effect; a second attempt (for example the
// worker finishing an operation a caller canceled an instant earlier) is
// ignored and logged at debug level. Abandoning a handle without waiting is
// always safe: resolution stores a value and closes a channel, nothing more.
type Handle[T any] struct {
	op      *task
	once    sync.Once
	done    chan struct{}
	outcome atomic.Int32
	value   T
	err     error
}

// Wait blocks until the operation reaches a terminal state or ctx is done.
// On cancellation of the operation it returns ErrCanceled (wrapped); on
// failure it returns the body's error verbatim.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-h.done:
		return h.value, h.err
	}
}

// Done returns a channel closed once the operation is terminal.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Outcome polls the terminal outcome without blocking. It reports
// OutcomePending until the handle resolves.
func (h *Handle[T]) Outcome() Outcome {
	return Outcome(h.outcome.Load())
}

// Err returns the terminal error, or nil if pending or completed.
func (h *Handle[T]) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Cancel requests cancellation of the operation.
//
// If the operation is still queued, it is guaranteed never to execute and the
// handle resolves to OutcomeCanceled immediately. If it is already running,
// the body's context is canceled and the outcome depends on whether the body
// cooperates. Canceling an already-terminal operation is a no-op: the
// delivered result stands.
func (h *Handle[T]) Cancel() {
	t := h.op
	t.cancel()
	if t.tryCancelQueued() {
		t.onCanceled()
		t.deliver(OutcomeCanceled, ErrCanceled)
	}
}

// resolve writes the terminal state exactly once.
func (h *Handle[T]) resolve(logger *zerolog.Logger, name string, outcome Outcome, err error) {
	resolved := false
	h.once.Do(func() {
		h.err = err
		h.outcome.Store(int32(outcome))
		close(h.done)
		resolved = true
	})
	if !resolved && logger != nil {
		logger.Debug().
			Str("operation", name).
			Stringer("late_outcome", outcome).
			Msg("handle already resolved, dropping duplicate resolution")
	}
}
