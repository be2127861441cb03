// Package report renders a run summary for humans and derives the process
// exit code from it.
package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wattwdl/watt/internal/compare"
	watterrors "github.com/wattwdl/watt/internal/errors"
	"github.com/wattwdl/watt/internal/output"
	"github.com/wattwdl/watt/internal/runner"
)

// Header introduces the per-test summary.
const Header = "Final Test Summary (Workflow Name / Test Name: Result)"

const (
	testLevel   = 2
	resultLevel = 4
	reasonLevel = 6
)

// Render writes the ordered per-test blocks and a totals line to w.
func Render(w *output.Writer, s runner.Summary) {
	w.Separator()
	w.Line(0, "")
	w.SummaryHeader(Header)
	for _, e := range s.Entries {
		renderEntry(w, e)
	}
	w.Line(0, "%s", Totals(s))
}

func renderEntry(w *output.Writer, e runner.Entry) {
	r := e.Result
	w.Line(testLevel, "%s", e.Case.ID())

	switch {
	case r.Kind == compare.ExpectedFailureSucceeded:
		w.SummaryPassed(resultLevel, "Success (expected no outputs)")
	case r.Kind == compare.UnexpectedFailure:
		w.SummaryFailed(resultLevel, "Failure (engine failed to finish unexpectedly)")
	case r.ExpectedFailure:
		w.SummaryFailed(resultLevel, "Failure (did not match expectation of failed run)")
		renderKeys(w, r)
	default:
		renderKeys(w, r)
	}
	w.Line(0, "")
}

func renderKeys(w *output.Writer, r compare.Result) {
	keyLine(w, "Keys unique to expected output", r.UniqueToExpected)
	keyLine(w, "Keys unique to actual output", r.UniqueToActual)
	w.Line(resultLevel, "Matches: %d", r.Matches)
	keyLine(w, "Mismatches", r.MismatchKeys())
	for _, m := range r.Mismatches {
		w.Line(reasonLevel, "%s: %s", m.Key, m.Reason)
	}
	keyLine(w, "ArrayShapeMismatches", r.ArrayShapeMismatches)
	keyLine(w, "FileTypeMismatches", r.FileTypeMismatches)
}

// KeyLine formats a labelled key count, listing the keys when there are any.
func KeyLine(label string, keys []string) string {
	if len(keys) == 0 {
		return fmt.Sprintf("%s: 0", label)
	}
	return fmt.Sprintf("%s: %d -- %s do not match", label, len(keys), strings.Join(keys, " "))
}

func keyLine(w *output.Writer, label string, keys []string) {
	text := KeyLine(label, keys)
	if len(keys) == 0 {
		w.Line(resultLevel, "%s", text)
		return
	}
	w.SummaryFailed(resultLevel, text)
}

// Totals returns a one-line count of passed and failed tests broken down by
// result kind, e.g. "Ran 3 tests: 2 passed, 1 failed (Evaluated: 2, Unexpected Failure: 1)".
func Totals(s runner.Summary) string {
	failed := len(s.Failed())
	counts := map[compare.Kind]int{}
	for _, e := range s.Entries {
		counts[e.Result.Kind]++
	}

	title := cases.Title(language.English)
	var kinds []string
	for _, k := range []compare.Kind{compare.Evaluated, compare.ExpectedFailureSucceeded, compare.UnexpectedFailure} {
		if counts[k] > 0 {
			kinds = append(kinds, fmt.Sprintf("%s: %d", title.String(k.String()), counts[k]))
		}
	}

	noun := "tests"
	if len(s.Entries) == 1 {
		noun = "test"
	}
	line := fmt.Sprintf("Ran %d %s: %d passed, %d failed", len(s.Entries), noun, len(s.Entries)-failed, failed)
	if len(kinds) > 0 {
		line += " (" + strings.Join(kinds, ", ") + ")"
	}
	return line
}

// Conclude writes the closing message for s to w.
func Conclude(w *output.Writer, s runner.Summary) {
	if s.Passed {
		w.FinalSuccess("Finished!")
		return
	}
	w.FinalFailure("Some tests failed. See logs for full summary.")
}

// ExitCode returns the process exit code for s.
func ExitCode(s runner.Summary) int {
	if s.Passed {
		return watterrors.ExitSuccess
	}
	return watterrors.ExitRuntimeError
}
