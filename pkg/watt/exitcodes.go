// Package watt provides public constants for external tools integrating
// with watt.
package watt

// Exit codes returned by the watt CLI.
// These constants allow CI scripts and wrappers to check exit codes
// symbolically rather than using magic numbers.
const (
	// ExitSuccess indicates every selected test passed.
	ExitSuccess = 0

	// ExitFailure indicates at least one test failed.
	ExitFailure = 1

	// ExitConfigError indicates a configuration error (invalid test config,
	// missing referenced files, filters that select nothing).
	ExitConfigError = 2

	// ExitEnvError indicates an environment error (Cromwell jar or java missing).
	ExitEnvError = 3
)
