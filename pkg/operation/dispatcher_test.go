package operation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

// gate submits an operation whose body blocks until release is closed,
// keeping the worker busy so later submissions stay queued deterministically.
func gate(t *testing.T, d *Dispatcher) (started <-chan struct{}, release chan<- struct{}, h *Handle[struct{}]) {
	t.Helper()
	startedCh := make(chan struct{})
	releaseCh := make(chan struct{})
	h = Submit(d, "gate", func(ctx context.Context) (struct{}, error) {
		close(startedCh)
		<-releaseCh
		return struct{}{}, nil
	})
	return startedCh, releaseCh, h
}

func TestSubmissionOrderIsExecutionOrder(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	defer d.Close()

	var order []string
	mkBody := func(name string) func(context.Context) (string, error) {
		return func(ctx context.Context) (string, error) {
			// Bodies run only on the worker goroutine, so no lock is needed
			order = append(order, name)
			return name, nil
		}
	}

	ha := Submit(d, "a", mkBody("a"))
	hb := Submit(d, "b", mkBody("b"))
	hc := Submit(d, "c", mkBody("c"))

	va, err := ha.Wait(ctx)
	require.NoError(t, err)
	vb, err := hb.Wait(ctx)
	require.NoError(t, err)
	vc, err := hc.Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, "a", va)
	assert.Equal(t, "b", vb)
	assert.Equal(t, "c", vc)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestAtMostOneOperationRuns(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	defer d.Close()

	var running atomic.Int32
	var overlapped atomic.Bool

	var g errgroup.Group
	handles := make(chan *Handle[int], 64)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 8; j++ {
				handles <- Submit(d, "tick", func(ctx context.Context) (int, error) {
					if running.Add(1) > 1 {
						overlapped.Store(true)
					}
					time.Sleep(100 * time.Microsecond)
					running.Add(-1)
					return 0, nil
				})
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(handles)

	for h := range handles {
		_, err := h.Wait(ctx)
		require.NoError(t, err)
	}
	assert.False(t, overlapped.Load(), "two operation bodies overlapped")
}

func TestCancelBeforeStartNeverRunsBody(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	defer d.Close()

	started, release, _ := gate(t, d)
	<-started

	var ran atomic.Bool
	h := Submit(d, "doomed", func(ctx context.Context) (int, error) {
		ran.Store(true)
		return 42, nil
	})
	h.Cancel()

	// Canceling a queued operation resolves the handle immediately
	_, err := h.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCanceled))
	assert.Equal(t, OutcomeCanceled, h.Outcome())

	close(release)

	// Let the worker drain past the canceled entry, then confirm no side effect
	done := Submit(d, "after", func(ctx context.Context) (int, error) { return 1, nil })
	_, err = done.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, ran.Load(), "canceled operation's body ran")
}

func TestCancelAfterCompletionIsNoOp(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	defer d.Close()

	h := Submit(d, "quick", func(ctx context.Context) (int, error) { return 7, nil })
	v, err := h.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, v)

	h.Cancel()

	v, err = h.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, OutcomeCompleted, h.Outcome())
}

func TestCooperativeCancelMidFlight(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	defer d.Close()

	started := make(chan struct{})
	h := Submit(d, "long", func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	<-started
	h.Cancel()

	_, err := h.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCanceled))
	assert.Equal(t, OutcomeCanceled, h.Outcome())
}

func TestUncooperativeBodyRunsToCompletion(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	defer d.Close()

	started := make(chan struct{})
	canceled := make(chan struct{})
	h := Submit(d, "stubborn", func(ctx context.Context) (int, error) {
		close(started)
		<-canceled // ignores ctx entirely
		return 99, nil
	})

	<-started
	h.Cancel()
	close(canceled)

	// The body never checked its context, so the completion stands
	v, err := h.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 99, v)
	assert.Equal(t, OutcomeCompleted, h.Outcome())
}

func TestBodyErrorDeliveredVerbatim(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	defer d.Close()

	errBoom := errors.New("boom")
	ha := Submit(d, "failing", func(ctx context.Context) (int, error) {
		return 0, errors.Errorf("reading chunk: %w", errBoom)
	})
	hb := Submit(d, "next", func(ctx context.Context) (int, error) { return 2, nil })

	_, err := ha.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom), "body error identity was lost")
	assert.Equal(t, OutcomeFailed, ha.Outcome())

	// The worker survives the failure and keeps processing
	v, err := hb.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestBodyPanicIsIsolated(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	defer d.Close()

	ha := Submit(d, "panicking", func(ctx context.Context) (int, error) {
		panic("ouch")
	})
	hb := Submit(d, "next", func(ctx context.Context) (int, error) { return 3, nil })

	_, err := ha.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, OutcomeFailed, ha.Outcome())

	v, err := hb.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestCloseMassCancelsQueued(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")

	started, release, gh := gate(t, d)
	<-started

	hb := Submit(d, "b", func(ctx context.Context) (int, error) { return 1, nil })
	hc := Submit(d, "c", func(ctx context.Context) (int, error) { return 2, nil })

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()

	// Queued operations resolve canceled without waiting for the worker
	_, err := hb.Wait(ctx)
	assert.True(t, errors.Is(err, ErrCanceled))
	_, err = hc.Wait(ctx)
	assert.True(t, errors.Is(err, ErrCanceled))

	// The in-flight operation is allowed to finish
	close(release)
	_, err = gh.Wait(ctx)
	require.NoError(t, err)

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
}

func TestSubmitAfterCloseFailsFast(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	d.Close()

	h := Submit(d, "late", func(ctx context.Context) (int, error) { return 1, nil })

	// Resolved already; Wait must not hang even with an expired context
	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, err := h.Wait(waitCtx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrClosed))
	assert.Equal(t, OutcomeFailed, h.Outcome())
}

func TestCloseIsIdempotent(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	d.Close()
	d.Close()
}

func TestCloseDrainTimeoutBoundsWait(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test", WithDrainTimeout(50*time.Millisecond))

	started, release, h := gate(t, d)
	<-started

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()

	// Close must give up on the stuck body once the timeout expires.
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return within the drain timeout")
	}

	// The straggler still resolves once its body finally returns.
	close(release)
	_, err := h.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, h.Outcome())
}

func TestAbandonedHandleDoesNotBlockWorker(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	defer d.Close()

	// Nobody ever waits on these
	for i := 0; i < 100; i++ {
		Submit(d, "ignored", func(ctx context.Context) ([]byte, error) {
			return make([]byte, 1024), nil
		})
	}

	h := Submit(d, "observed", func(ctx context.Context) (int, error) { return 5, nil })
	v, err := h.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestEveryOperationReachesOneTerminalState(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")

	started, release, gh := gate(t, d)
	<-started

	var handles []*Handle[int]
	for i := 0; i < 50; i++ {
		i := i
		handles = append(handles, Submit(d, "op", func(ctx context.Context) (int, error) {
			if i%7 == 0 {
				return 0, errors.New("unlucky")
			}
			return i, nil
		}))
	}
	// Cancel a few while queued
	for i := 0; i < 50; i += 5 {
		handles[i].Cancel()
	}

	close(release)
	_, err := gh.Wait(ctx)
	require.NoError(t, err)

	for i, h := range handles {
		<-h.Done()
		outcome := h.Outcome()
		assert.NotEqual(t, OutcomePending, outcome, "operation %d never resolved", i)
	}

	d.Close()
	stats := d.Stats()
	assert.Equal(t, stats.Submitted, stats.Completed+stats.Canceled+stats.Failed,
		"counters must account for every submission (gate included)")
}

func TestStatsSnapshot(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	defer d.Close()

	h := Submit(d, "one", func(ctx context.Context) (int, error) { return 1, nil })
	_, err := h.Wait(ctx)
	require.NoError(t, err)

	stats := d.Stats()
	assert.Equal(t, int64(1), stats.Submitted)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, 0, stats.Depth)
}

func TestConcurrentSubmittersAllResolve(t *testing.T) {
	ctx := testContext(t)
	d := NewDispatcher(ctx, "test")
	defer d.Close()

	var wg sync.WaitGroup
	results := make(chan error, 200)
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				h := Submit(d, "concurrent", func(ctx context.Context) (int, error) { return i, nil })
				_, err := h.Wait(ctx)
				results <- err
			}
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		assert.NoError(t, err)
	}
}
