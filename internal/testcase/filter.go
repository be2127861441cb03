package testcase

import (
	"github.com/bmatcuk/doublestar/v4"
)

// Filter selects test cases by workflow name and test name.
//
// Within a field the entries are alternatives; across fields all must hold.
// An empty field selects everything. Entries are doublestar patterns, so
// plain names match exactly and "align*" matches by prefix.
type Filter struct {
	Workflows []string
	Tests     []string
}

// Empty reports whether the filter selects every test case.
func (f Filter) Empty() bool {
	return len(f.Workflows) == 0 && len(f.Tests) == 0
}

// Match reports whether tc is selected.
func (f Filter) Match(tc TestCase) bool {
	return matchAny(f.Workflows, tc.WorkflowName) && matchAny(f.Tests, tc.TestName)
}

// Apply returns the selected test cases, preserving order.
func (f Filter) Apply(cases []TestCase) []TestCase {
	if f.Empty() {
		return cases
	}
	selected := make([]TestCase, 0, len(cases))
	for _, tc := range cases {
		if f.Match(tc) {
			selected = append(selected, tc)
		}
	}
	return selected
}

// Unmatched returns the workflow entries that match no workflow and the test
// entries that match no test within the selected workflows.
func (f Filter) Unmatched(cases []TestCase) (workflows, tests []string) {
	for _, pattern := range f.Workflows {
		if !anyCase(cases, func(tc TestCase) bool { return matchName(pattern, tc.WorkflowName) }) {
			workflows = append(workflows, pattern)
		}
	}
	for _, pattern := range f.Tests {
		if !anyCase(cases, func(tc TestCase) bool {
			return matchName(pattern, tc.TestName) && matchAny(f.Workflows, tc.WorkflowName)
		}) {
			tests = append(tests, pattern)
		}
	}
	return workflows, tests
}

func anyCase(cases []TestCase, pred func(TestCase) bool) bool {
	for _, tc := range cases {
		if pred(tc) {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if matchName(p, name) {
			return true
		}
	}
	return false
}

// matchName treats malformed patterns as literal names.
func matchName(pattern, name string) bool {
	if pattern == name {
		return true
	}
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
