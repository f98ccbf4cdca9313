package operation

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 Outcome is the terminal result classification of an operation.
type Outcome int32

const (
	OutcomePending   Outcome = iota // not yet resolved
	OutcomeCompleted                // body ran and returned a value
	OutcomeCanceled                 // canceled before or during execution
	OutcomeFailed                   // body returned an error, panicked, or the dispatcher refused it
)

// String returns a string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCanceled:
		return "canceled"
	case OutcomeFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Internal lifecycle states. An operation moves Queued → Running → terminal,
// or Queued → terminal when canceled or refused before the worker reaches it.
// Every transition is a CAS on task.state, so exactly one side of any race
// (worker starting vs. caller canceling) wins.
const (
	stateQueued int32 = iota
	stateRunning
	stateCompleted
	stateCanceled
	stateFailed
)

// 🎯 task is the type-erased unit of work the dispatcher queues and runs.
// The result type lives only in the generic Submit wrapper and its Handle;
// the queue itself never sees an untyped payload.
type task struct {
	name       string
	state      atomic.Int32
	ctx        context.Context // canceled by Handle.Cancel for in-flight cooperation
	cancel     context.CancelFunc
	enqueuedAt time.Time

	// run executes the caller's body and stores the typed value into the
	// handle on success. Invoked only by the worker, only once.
	run func(ctx context.Context) error

	// deliver resolves the handle. Safe to call from either the worker or a
	// canceling caller; only the first call takes effect.
	deliver func(outcome Outcome, err error)

	// onCanceled bumps the dispatcher's canceled counter. Called only by the
	// winner of the Queued → Canceled CAS, so it fires at most once.
	onCanceled func()
}

// tryStart claims the Queued → Running transition. The worker calls this
// before invoking the body; losing means a caller canceled first.
func (t *task) tryStart() bool {
	return t.state.CompareAndSwap(stateQueued, stateRunning)
}

// tryCancelQueued claims the Queued → Canceled transition. Winning guarantees
// the body will never run.
func (t *task) tryCancelQueued() bool {
	return t.state.CompareAndSwap(stateQueued, stateCanceled)
}

// finish records the terminal state after the body ran and resolves the handle.
func (t *task) finish(outcome Outcome, err error) {
	switch outcome {
	case OutcomeCompleted:
		t.state.Store(stateCompleted)
	case OutcomeCanceled:
		t.state.Store(stateCanceled)
	default:
		t.state.Store(stateFailed)
	}
	t.cancel()
	t.deliver(outcome, err)
}

// refuse resolves a task that will never run (closed or dead dispatcher).
func (t *task) refuse(err error) {
	if !t.tryCancelQueued() {
		return
	}
	t.state.Store(stateFailed)
	t.cancel()
	t.deliver(OutcomeFailed, err)
}

// 🚀 Submit wraps body into an operation, appends it to the dispatcher's
// queue, and returns a typed handle immediately. It never blocks on
// execution: queue depth only costs the caller the append itself.
//
// If the dispatcher is closed or its worker has died, the returned handle is
// already resolved to a failure carrying ErrClosed or ErrUnavailable; Submit
// never returns nil and never silently drops work.
func Submit[T any](d *Dispatcher, name string, body func(ctx context.Context) (T, error)) *Handle[T] {
	h := &Handle[T]{done: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{
		name:       name,
		ctx:        ctx,
		cancel:     cancel,
		enqueuedAt: time.Now(),
	}
	t.run = func(ctx context.Context) error {
		v, err := body(ctx)
		if err != nil {
			return err
		}
		h.value = v
		return nil
	}
	t.deliver = func(outcome Outcome, err error) {
		h.resolve(d.logger(), name, outcome, err)
	}
	t.onCanceled = func() {
		d.stats.canceled.Add(1)
	}
	h.op = t

	if err := d.enqueue(t); err != nil {
		t.state.Store(stateFailed)
		cancel()
		h.resolve(d.logger(), name, OutcomeFailed, errors.Errorf("submitting %s: %w", name, err))
	}
	return h
}

// logCtx attaches per-operation fields to a logger event.
func (t *task) logCtx(e *zerolog.Event) *zerolog.Event {
	return e.Str("operation", t.name).Dur("queued_for", time.Since(t.enqueuedAt))
}
