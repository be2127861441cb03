// Package engine runs WDL workflows on an external execution engine and
// reduces every run to a binary outcome: succeeded with outputs, or failed.
package engine

import (
	"context"

	"github.com/wattwdl/watt/internal/testcase"
)

// Job is a single workflow run request.
type Job struct {
	WorkflowName string
	TestName     string
	WorkflowPath string
	InputsPath   string
}

// JobFor builds the run request for a test case.
func JobFor(tc testcase.TestCase) Job {
	return Job{
		WorkflowName: tc.WorkflowName,
		TestName:     tc.TestName,
		WorkflowPath: tc.WorkflowPath,
		InputsPath:   tc.InputsPath,
	}
}

// ID returns the "workflow/test" identifier of the job.
func (j Job) ID() string {
	return j.WorkflowName + "/" + j.TestName
}

// Outcome is the result of a run: Succeeded or Failed.
type Outcome interface {
	outcome()
}

// Succeeded is a completed run. Outputs maps fully qualified output names
// ("workflow.output") to JSON values.
type Succeeded struct {
	Outputs map[string]any
}

// Failed is a run that did not produce usable outputs. Reason is for humans
// only; callers must not branch on it.
type Failed struct {
	Reason string
}

func (Succeeded) outcome() {}
func (Failed) outcome()    {}

// Engine runs workflows. Run blocks until the run finishes and makes exactly
// one attempt. Implementations report every problem, including timeouts and
// cancellation, as Failed.
type Engine interface {
	Run(ctx context.Context, job Job) Outcome
}

// Func adapts an ordinary function to the Engine interface.
type Func func(ctx context.Context, job Job) Outcome

// Run calls f(ctx, job).
func (f Func) Run(ctx context.Context, job Job) Outcome {
	return f(ctx, job)
}
