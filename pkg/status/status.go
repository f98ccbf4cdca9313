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

package status

import (
	"context"
	"sync"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/caltus/ggpk-explorer-sub001/pkg/operation"
)

// 🔧 Tracker records operation outcomes for a batch and reports progress
type Tracker struct {
	logger    *zerolog.Logger
	formatter Formatter

	mu        sync.Mutex
	total     int
	processed int
	outcomes  map[operation.Outcome]int
}

// 🏭 NewTracker creates a new batch tracker
func NewTracker(logger *zerolog.Logger) *Tracker {
	return &Tracker{
		logger:    logger,
		formatter: NewDefaultFormatter(),
		outcomes:  map[operation.Outcome]int{},
	}
}

// StartBatch begins tracking a batch of operations
func (t *Tracker) StartBatch(ctx context.Context, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total = total
	t.processed = 0
	t.outcomes = map[operation.Outcome]int{}
	t.logger.Info().Int("total", total).Msg(t.formatter.FormatProgress(0, total))
}

// Record records one resolved operation
func (t *Tracker) Record(ctx context.Context, name, queue string, outcome operation.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.processed++
	t.outcomes[outcome]++
	t.logger.Info().
		Str("operation", name).
		Stringer("outcome", outcome).
		Msg(t.formatter.FormatOperation(name, queue, outcome.String()))
}

// Progress returns the processed and total counts
func (t *Tracker) Progress() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.processed, t.total
}

// Outcomes returns a copy of the per-outcome tallies
func (t *Tracker) Outcomes() map[operation.Outcome]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[operation.Outcome]int, len(t.outcomes))
	for k, v := range t.outcomes {
		out[k] = v
	}
	return out
}

// FinishBatch reports the final tally
func (t *Tracker) FinishBatch(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.logger.Info().
		Int("processed", t.processed).
		Int("total", t.total).
		Msg(t.formatter.FormatProgress(t.processed, t.total))
}

// 📢 Reporter provides user-friendly terminal feedback for batch runs
type Reporter struct {
	log zerolog.Logger
}

// 🎯 NewReporter creates a new terminal reporter
func NewReporter(ctx context.Context) *Reporter {
	return &Reporter{log: *zerolog.Ctx(ctx)}
}

// ReportOutcome prints one operation outcome with an appropriate printer
func (r *Reporter) ReportOutcome(name string, outcome operation.Outcome, err error) {
	var printer *pterm.PrefixPrinter
	switch outcome {
	case operation.OutcomeCompleted:
		printer = pterm.Success.WithPrefix(pterm.Prefix{Text: "✨"})
	case operation.OutcomeCanceled:
		printer = pterm.Warning.WithPrefix(pterm.Prefix{Text: "⏭️"})
	case operation.OutcomeFailed:
		printer = pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"})
	default:
		printer = pterm.Debug.WithPrefix(pterm.Prefix{Text: "⏳"})
	}

	msg := name + " " + outcome.String()
	if err != nil {
		printer.Println(msg)
		pterm.Error.Println(err)
		r.log.Error().Err(err).Msg(msg)
		return
	}
	printer.Println(msg)
	r.log.Info().Msg(msg)
}

// ReportBatch prints a batch summary
func (r *Reporter) ReportBatch(tracker *Tracker) {
	processed, total := tracker.Progress()
	pterm.Info.WithPrefix(pterm.Prefix{Text: "📦"}).
		Printfln("%d/%d operations resolved", processed, total)
	for outcome, n := range tracker.Outcomes() {
		pterm.Info.Printfln("  %s: %d", outcome, n)
	}
}
