// Package testcase defines WDL test cases, their expectations and the
// selection filter applied before scheduling.
package testcase

import "fmt"

// TestCase is one workflow run with its inputs and expected result.
type TestCase struct {
	WorkflowName string
	TestName     string
	WorkflowPath string // WDL file handed to the engine
	InputsPath   string // JSON inputs file handed to the engine

	// ExpectedOutputsPath is the file Expect was loaded from; empty for
	// expect-failure tests.
	ExpectedOutputsPath string
	Expect              Expectation
}

// Key identifies a test case; it is unique across a loaded configuration.
type Key struct {
	Workflow string
	Test     string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Workflow, k.Test)
}

// Key returns the identity key of the test case.
func (tc TestCase) Key() Key {
	return Key{Workflow: tc.WorkflowName, Test: tc.TestName}
}

// ID returns the "workflow/test" display identifier.
func (tc TestCase) ID() string {
	return tc.Key().String()
}

// Expectation is what a test expects from the engine run. It is either
// ExpectOutputs or ExpectFailure; the unexported method seals the set.
type Expectation interface {
	expectation()
}

// ExpectOutputs expects a successful run whose outputs match Outputs.
// Keys are fully qualified output names ("workflow.output").
type ExpectOutputs struct {
	Outputs map[string]any
}

// ExpectFailure expects the engine run to fail.
type ExpectFailure struct{}

func (ExpectOutputs) expectation() {}
func (ExpectFailure) expectation() {}

// ExpectsFailure reports whether e is an ExpectFailure.
func ExpectsFailure(e Expectation) bool {
	_, ok := e.(ExpectFailure)
	return ok
}
