// Copyright 2026 caltus
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🏃 Dispatcher serializes operations onto one worker goroutine.
//
// The worker is the only goroutine that ever touches the underlying archive
// handle; producers on any goroutine submit and walk away. Operations run in
// strict submission order, one at a time, and a failure in one body never
// stops the worker from processing the next.
type Dispatcher struct {
	name string
	log  zerolog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	pending []*task
	closed  bool
	dead    bool

	workerDone chan struct{}
	closeOnce  sync.Once

	drainTimeout time.Duration

	stats stats
}

// ⚙️ Option configures a Dispatcher
type Option func(*Dispatcher)

// WithDrainTimeout bounds how long Close waits for the in-flight operation to
// finish. When the bound is exceeded Close returns and leaves the worker to
// run out in the background; the straggler's handle still resolves whenever
// its body returns. Zero means wait indefinitely.
func WithDrainTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.drainTimeout = timeout
	}
}

type stats struct {
	submitted atomic.Int64
	completed atomic.Int64
	canceled  atomic.Int64
	failed    atomic.Int64
}

// 📈 Stats is a point-in-time snapshot of dispatcher counters.
type Stats struct {
	Submitted int64
	Completed int64
	Canceled  int64
	Failed    int64
	Depth     int
}

// 🏭 NewDispatcher starts a dispatcher and its worker goroutine. The logger
// is taken from ctx, so callers wire logging the same way as everywhere else
// in this codebase.
func NewDispatcher(ctx context.Context, name string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		name:       name,
		log:        zerolog.Ctx(ctx).With().Str("dispatcher", name).Logger(),
		workerDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cond = sync.NewCond(&d.mu)
	go d.worker()
	return d
}

// Name returns the dispatcher's name.
func (d *Dispatcher) Name() string {
	return d.name
}

// Stats returns a snapshot of the dispatcher's counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	depth := len(d.pending)
	d.mu.Unlock()
	return Stats{
		Submitted: d.stats.submitted.Load(),
		Completed: d.stats.completed.Load(),
		Canceled:  d.stats.canceled.Load(),
		Failed:    d.stats.failed.Load(),
		Depth:     depth,
	}
}

// enqueue appends to the tail of the queue. The append is the only cost the
// producer pays; execution happens later on the worker.
func (d *Dispatcher) enqueue(t *task) error {
	d.mu.Lock()
	if d.dead {
		d.mu.Unlock()
		return ErrUnavailable
	}
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.pending = append(d.pending, t)
	d.stats.submitted.Add(1)
	d.cond.Signal()
	d.mu.Unlock()

	t.logCtx(d.log.Debug()).Msg("operation queued")
	return nil
}

// next blocks the worker until an operation is available or the dispatcher
// closes. Returns false when the worker should exit.
func (d *Dispatcher) next() (*task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.pending) == 0 && !d.closed {
		d.cond.Wait()
	}
	if len(d.pending) == 0 {
		return nil, false
	}
	t := d.pending[0]
	d.pending = d.pending[1:]
	return t, true
}

// worker is the single consumer loop. It must survive anything an operation
// body does; a fault in the loop itself marks the dispatcher dead and fails
// everything still queued rather than letting callers hang.
func (d *Dispatcher) worker() {
	defer close(d.workerDone)
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Msg("dispatcher worker died")
			d.abandon(errors.Errorf("dispatcher %s worker died: %v: %w", d.name, r, ErrUnavailable))
		}
	}()
	for {
		t, ok := d.next()
		if !ok {
			d.log.Debug().Msg("dispatcher worker exiting")
			return
		}
		d.runOne(t)
	}
}

// runOne executes a single operation and resolves its handle. The Queued →
// Running CAS is the cancel/start race arbiter: losing it means a caller
// canceled while the operation was queued, and its handle is already
// resolved.
func (d *Dispatcher) runOne(t *task) {
	if !t.tryStart() {
		// Canceled while queued; the canceling side already resolved it.
		t.logCtx(d.log.Debug()).Msg("skipping canceled operation")
		return
	}

	t.logCtx(d.log.Debug()).Msg("operation running")
	start := time.Now()
	err := d.invoke(t)

	switch {
	case err == nil:
		d.stats.completed.Add(1)
		d.log.Debug().Str("operation", t.name).Dur("took", time.Since(start)).Msg("operation completed")
		t.finish(OutcomeCompleted, nil)
	case t.ctx.Err() != nil && errors.Is(err, context.Canceled):
		// The body cooperated with a mid-flight cancellation.
		d.stats.canceled.Add(1)
		d.log.Debug().Str("operation", t.name).Msg("operation canceled mid-flight")
		t.finish(OutcomeCanceled, errors.Errorf("%s: %w", t.name, ErrCanceled))
	default:
		d.stats.failed.Add(1)
		d.log.Warn().Err(err).Str("operation", t.name).Msg("operation failed")
		t.finish(OutcomeFailed, err)
	}
}

// invoke runs the body with panic isolation so one bad operation can never
// take down the worker loop.
func (d *Dispatcher) invoke(t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("operation %s panicked: %v", t.name, r)
		}
	}()
	return t.run(t.ctx)
}

// Close shuts the dispatcher down: new submissions are refused with
// ErrClosed, every still-queued operation is mass-canceled (its body never
// runs), the in-flight operation is allowed to finish, and the worker exits.
// Close blocks until the worker has stopped — or, when a drain timeout is
// configured, at most that long — and is safe to call more than once.
//
// Mass-cancel was chosen over drain-to-completion: this queue fronts an
// archive handle owned by an interactive session, and closing the session
// should release the file promptly instead of grinding through stale reads.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		rest := d.pending
		d.pending = nil
		d.cond.Signal()
		d.mu.Unlock()

		for _, t := range rest {
			if t.tryCancelQueued() {
				t.onCanceled()
				t.cancel()
				t.deliver(OutcomeCanceled, errors.Errorf("%s: dispatcher closing: %w", t.name, ErrCanceled))
			}
		}

		if d.drainTimeout > 0 {
			select {
			case <-d.workerDone:
			case <-time.After(d.drainTimeout):
				d.log.Warn().Dur("timeout", d.drainTimeout).Msg("in-flight operation exceeded drain timeout; worker left to finish in background")
				return
			}
		} else {
			<-d.workerDone
		}
		d.log.Debug().Msg("dispatcher closed")
	})
}

// abandon fails everything still queued after a worker fault and refuses all
// future submissions.
func (d *Dispatcher) abandon(cause error) {
	d.mu.Lock()
	d.dead = true
	rest := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, t := range rest {
		d.stats.failed.Add(1)
		t.refuse(cause)
	}
}

func (d *Dispatcher) logger() *zerolog.Logger {
	return &d.log
}
