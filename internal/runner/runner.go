// Package runner schedules test cases across a bounded pool of workers and
// collects their results in input order.
package runner

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/wattwdl/watt/internal/compare"
	"github.com/wattwdl/watt/internal/engine"
	"github.com/wattwdl/watt/internal/logging"
	"github.com/wattwdl/watt/internal/output"
	"github.com/wattwdl/watt/internal/testcase"
)

const (
	// minWorkers keeps SetLimit from blocking every task when the caller
	// passes zero or a negative count.
	minWorkers = 1

	// maxWorkers caps the pool. Each worker holds a JVM, so values beyond
	// this are almost certainly typos.
	maxWorkers = 256
)

// Options configures a run.
type Options struct {
	// Workers is the number of tests run concurrently. Values below one
	// run sequentially.
	Workers int

	// Filter selects the cases to run. The zero value runs all of them.
	Filter testcase.Filter
}

// Entry is the result of one test case.
type Entry struct {
	Index    int // position in the filtered input
	Case     testcase.TestCase
	Result   compare.Result
	Duration time.Duration
}

// Passed reports whether the test passed.
func (e Entry) Passed() bool {
	return e.Result.Passed()
}

// Summary holds every result in input order.
type Summary struct {
	Entries []Entry
	Passed  bool
}

// Failed returns the entries that did not pass, in order.
func (s Summary) Failed() []Entry {
	var failed []Entry
	for _, e := range s.Entries {
		if !e.Passed() {
			failed = append(failed, e)
		}
	}
	return failed
}

// Runner runs test cases through an engine and a comparator.
type Runner struct {
	engine     engine.Engine
	comparator *compare.Comparator
	progress   *output.Writer
	logger     *log.Logger
}

// New creates a Runner. Live progress goes to progress; its lines from
// concurrent tests interleave.
func New(eng engine.Engine, comparator *compare.Comparator, progress *output.Writer) *Runner {
	return &Runner{
		engine:     eng,
		comparator: comparator,
		progress:   progress,
		logger:     logging.New("runner"),
	}
}

// Run filters cases, runs every selected case exactly once and returns the
// results in the filtered input order. A failing test never stops the
// others. Cancelling ctx makes in-flight and pending runs fail.
func (r *Runner) Run(ctx context.Context, cases []testcase.TestCase, opts Options) Summary {
	selected := opts.Filter.Apply(cases)
	workers := clampWorkers(opts.Workers)

	r.progress.Log("", 0, "Collecting set of tests to run...")
	names := make([]string, len(selected))
	for i, tc := range selected {
		names[i] = tc.ID()
	}
	r.progress.Log("", 0, "Running tests: %s...", strings.Join(names, ", "))
	r.logger.Debug("starting run", "tests", len(selected), "workers", workers)

	entries := make([]Entry, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, tc := range selected {
		g.Go(func() error {
			if workers == 1 {
				r.progress.Separator()
			}
			entries[i] = r.runOne(gctx, i, tc)
			return nil
		})
	}
	// Tasks never return an error, so Wait only waits.
	_ = g.Wait()

	summary := Summary{Entries: entries, Passed: true}
	for _, e := range entries {
		if !e.Passed() {
			summary.Passed = false
			break
		}
	}
	r.logger.Debug("run finished", "tests", len(entries), "passed", summary.Passed)
	return summary
}

func (r *Runner) runOne(ctx context.Context, index int, tc testcase.TestCase) Entry {
	prefix := tc.ID()
	expected := tc.ExpectedOutputsPath
	if testcase.ExpectsFailure(tc.Expect) {
		expected = "none (run is expected to fail)"
	}

	r.progress.Log(prefix, 2, "Starting test %s for workflow %s...", tc.TestName, tc.WorkflowName)
	r.progress.Log(prefix, 4, "Workflow path: %s", tc.WorkflowPath)
	r.progress.Log(prefix, 4, "Test inputs: %s", tc.InputsPath)
	r.progress.Log(prefix, 4, "Expected outputs: %s", expected)
	r.progress.Log(prefix, 2, "Running test for %s and workflow %s...", tc.TestName, tc.WorkflowName)

	start := time.Now()
	outcome := r.engine.Run(ctx, engine.JobFor(tc))
	if failed, ok := outcome.(engine.Failed); ok {
		r.logger.Debug("engine run failed", "test", prefix, "reason", failed.Reason)
	}
	result := r.comparator.Compare(tc.Expect, outcome)
	elapsed := time.Since(start)

	r.logger.Debug("test finished", "test", prefix, "result", result.Kind, "passed", result.Passed(), "duration", elapsed)

	r.progress.Log(prefix, 2, "Result:")
	if result.Passed() {
		r.progress.Log(prefix, 4, "Success")
	} else {
		r.progress.Log(prefix, 4, "Failure")
	}

	return Entry{Index: index, Case: tc, Result: result, Duration: elapsed}
}

func clampWorkers(n int) int {
	return min(max(n, minWorkers), maxWorkers)
}
