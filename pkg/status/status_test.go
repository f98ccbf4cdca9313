package status

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caltus/ggpk-explorer-sub001/pkg/operation"
)

func testLogger(t *testing.T) *zerolog.Logger {
	t.Helper()
	l := zerolog.New(zerolog.NewTestWriter(t))
	return &l
}

func TestTracker(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(testLogger(t))

	tracker.StartBatch(ctx, 3)
	tracker.Record(ctx, "read-0", "main", operation.OutcomeCompleted)
	tracker.Record(ctx, "read-1", "main", operation.OutcomeCanceled)
	tracker.Record(ctx, "read-2", "main", operation.OutcomeFailed)
	tracker.FinishBatch(ctx)

	processed, total := tracker.Progress()
	assert.Equal(t, 3, processed)
	assert.Equal(t, 3, total)

	outcomes := tracker.Outcomes()
	assert.Equal(t, 1, outcomes[operation.OutcomeCompleted])
	assert.Equal(t, 1, outcomes[operation.OutcomeCanceled])
	assert.Equal(t, 1, outcomes[operation.OutcomeFailed])
}

func TestStartBatchResetsState(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(testLogger(t))

	tracker.StartBatch(ctx, 2)
	tracker.Record(ctx, "read-0", "main", operation.OutcomeCompleted)

	tracker.StartBatch(ctx, 5)
	processed, total := tracker.Progress()
	assert.Equal(t, 0, processed)
	assert.Equal(t, 5, total)
	assert.Empty(t, tracker.Outcomes())
}

func TestOutcomesReturnsCopy(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(testLogger(t))
	tracker.StartBatch(ctx, 1)
	tracker.Record(ctx, "read-0", "main", operation.OutcomeCompleted)

	outcomes := tracker.Outcomes()
	outcomes[operation.OutcomeCompleted] = 99

	require.Equal(t, 1, tracker.Outcomes()[operation.OutcomeCompleted])
}

func TestDefaultFormatter(t *testing.T) {
	f := NewDefaultFormatter()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "completed", got: f.FormatOperation("read", "main", "completed"), want: "✨ Completed read (main)"},
		{name: "canceled", got: f.FormatOperation("read", "main", "canceled"), want: "⏭️  Canceled read (main)"},
		{name: "failed", got: f.FormatOperation("read", "main", "failed"), want: "❌ Failed read (main)"},
		{name: "pending", got: f.FormatOperation("read", "main", "pending"), want: "⏳ Pending read (main)"},
		{name: "progress_partial", got: f.FormatProgress(1, 4), want: "⏳ Progress: 1/4 (25%)"},
		{name: "progress_done", got: f.FormatProgress(4, 4), want: "✅ Progress: 4/4 (100%)"},
		{name: "progress_zero_total", got: f.FormatProgress(0, 0), want: "✅ Progress: 0/0 (0%)"},
		{name: "error", got: f.FormatError(assert.AnError), want: "❌ Error: " + assert.AnError.Error()},
		{name: "nil_error", got: f.FormatError(nil), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestReporterReportOutcome(t *testing.T) {
	tests := []struct {
		name    string
		outcome operation.Outcome
		err     error
		want    []string
	}{
		{name: "completed", outcome: operation.OutcomeCompleted, want: []string{"read-0 completed"}},
		{name: "canceled", outcome: operation.OutcomeCanceled, want: []string{"read-0 canceled"}},
		{name: "failed", outcome: operation.OutcomeFailed, err: assert.AnError, want: []string{"read-0 failed", assert.AnError.Error()}},
		{name: "pending", outcome: operation.OutcomePending, want: []string{"read-0 pending"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := zerolog.New(&buf).WithContext(context.Background())
			r := NewReporter(ctx)
			r.ReportOutcome("read-0", tt.outcome, tt.err)
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}
