package commands

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/caltus/ggpk-explorer-sub001/cmd/ggpk-explorer/opts"
	"github.com/caltus/ggpk-explorer-sub001/pkg/log"
	"github.com/caltus/ggpk-explorer-sub001/pkg/operation"
	"github.com/caltus/ggpk-explorer-sub001/pkg/session"
	"github.com/caltus/ggpk-explorer-sub001/pkg/status"
)

// verifyWindow caps how much of the archive is read up front as the
// verification reference.
const verifyWindow = 4 << 20

// NewBenchCmd creates a new bench command
func NewBenchCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		count   int
		workers int
		chunk   int64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Exercise the operation queue with concurrent submitters",
		Long: `Bench submits many small reads from several producer goroutines at
once. All of them funnel through the one dispatcher worker, so this is a
direct measurement of queue throughput against a real archive handle.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sess, err := session.Open(ctx, opts.SessionOptions())
			if err != nil {
				return errors.Errorf("opening session: %w", err)
			}
			defer sess.Close()

			info, err := sess.Stat(ctx)
			if err != nil {
				return errors.Errorf("statting archive: %w", err)
			}
			if info.Size < chunk {
				return errors.Errorf("archive smaller than chunk size %d", chunk)
			}

			opLog := log.FromContext(ctx)

			// Every submitted offset stays inside this window, and the window
			// is read up front so each completed read can be checked against
			// the bytes it was supposed to return.
			window := info.Size
			if window > verifyWindow {
				window = verifyWindow
			}
			if window < chunk {
				window = chunk
			}
			reference, err := sess.Read(ctx, 0, window)
			if err != nil {
				return errors.Errorf("reading reference window: %w", err)
			}

			tracker := status.NewTracker(zerolog.Ctx(ctx))
			tracker.StartBatch(ctx, count)
			reporter := status.NewReporter(ctx)

			spinner, _ := pterm.DefaultSpinner.Start("submitting operations")
			start := time.Now()

			handles := make([]*operation.Handle[[]byte], count)
			offsets := make([]int64, count)
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(workers)
			for i := 0; i < count; i++ {
				i := i
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					off := (int64(i) * chunk) % (window - chunk + 1)
					offsets[i] = off
					handles[i] = sess.ReadAsync(off, chunk)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				spinner.Fail("submission aborted")
				return errors.Errorf("submitting reads: %w", err)
			}

			queueName := sess.Dispatcher().Name()
			for i, h := range handles {
				name := fmt.Sprintf("read-%d", i)
				data, err := h.Wait(ctx)
				if err != nil && h.Outcome() == operation.OutcomeFailed {
					spinner.Fail("operation failed")
					reporter.ReportOutcome(name, h.Outcome(), err)
					opLog.LogOperation(ctx, log.OperationEvent{
						Queue:   queueName,
						Name:    name,
						Outcome: h.Outcome().String(),
						Err:     err,
					})
					return errors.Errorf("%s: %w", name, err)
				}
				if h.Outcome() == operation.OutcomeCompleted {
					off := offsets[i]
					if !bytes.Equal(data, reference[off:off+chunk]) {
						spinner.Fail("read verification failed")
						return errors.Errorf("%s: bytes at offset %d do not match archive contents", name, off)
					}
				} else {
					// Completed reads are summarized; anything else gets its own line
					reporter.ReportOutcome(name, h.Outcome(), h.Err())
					opLog.LogOperation(ctx, log.OperationEvent{
						Queue:   queueName,
						Name:    name,
						Outcome: h.Outcome().String(),
						Err:     h.Err(),
					})
				}
				tracker.Record(ctx, name, queueName, h.Outcome())
			}
			elapsed := time.Since(start)
			spinner.Success("batch resolved and verified")

			tracker.FinishBatch(ctx)
			reporter.ReportBatch(tracker)

			stats := sess.Dispatcher().Stats()
			pterm.Info.Printfln("%d operations in %s (%.0f op/s), dispatcher counters: %d completed, %d canceled, %d failed",
				count, elapsed.Round(time.Millisecond),
				float64(count)/elapsed.Seconds(),
				stats.Completed, stats.Canceled, stats.Failed)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "n", 1000, "number of reads to submit")
	cmd.Flags().IntVar(&workers, "workers", 4, "number of producer goroutines")
	cmd.Flags().Int64Var(&chunk, "chunk", 4096, "bytes per read")

	return cmd
}
