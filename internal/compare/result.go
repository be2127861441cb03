package compare

import "sort"

// Kind classifies the overall comparison of one test.
type Kind int

const (
	// Evaluated means outputs were compared key by key.
	Evaluated Kind = iota
	// ExpectedFailureSucceeded means the test expected the run to fail and it did.
	ExpectedFailureSucceeded
	// UnexpectedFailure means outputs were expected but the run failed.
	UnexpectedFailure
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Evaluated:
		return "evaluated"
	case ExpectedFailureSucceeded:
		return "expected failure succeeded"
	case UnexpectedFailure:
		return "unexpected failure"
	default:
		return "unknown"
	}
}

// KeyMismatch names an output key whose values differ.
type KeyMismatch struct {
	Key    string
	Reason string
}

// Result is the comparison of one test's expectation against its run.
// The key lists are only populated for Evaluated results and are sorted.
type Result struct {
	Kind Kind

	// ExpectedFailure is set when the test expected a failed run but the
	// run succeeded; every actual key is then unique to actual.
	ExpectedFailure bool

	Matches              int
	Mismatches           []KeyMismatch
	UniqueToExpected     []string
	UniqueToActual       []string
	ArrayShapeMismatches []string
	FileTypeMismatches   []string
}

// Passed reports whether the test passed.
func (r Result) Passed() bool {
	switch r.Kind {
	case ExpectedFailureSucceeded:
		return true
	case Evaluated:
		return !r.ExpectedFailure &&
			len(r.Mismatches) == 0 &&
			len(r.UniqueToExpected) == 0 &&
			len(r.UniqueToActual) == 0 &&
			len(r.ArrayShapeMismatches) == 0 &&
			len(r.FileTypeMismatches) == 0
	default:
		return false
	}
}

// MismatchKeys returns the keys of r.Mismatches in order.
func (r Result) MismatchKeys() []string {
	keys := make([]string, len(r.Mismatches))
	for i, m := range r.Mismatches {
		keys[i] = m.Key
	}
	return keys
}

func (r *Result) sortKeys() {
	sort.Strings(r.UniqueToExpected)
	sort.Strings(r.UniqueToActual)
	sort.Strings(r.ArrayShapeMismatches)
	sort.Strings(r.FileTypeMismatches)
	sort.Slice(r.Mismatches, func(i, j int) bool {
		return r.Mismatches[i].Key < r.Mismatches[j].Key
	})
}
