package executor

import "errors"

var (
	// ErrShutdown is returned when submitting to an executor that has
	// been shut down and the rail's rejection class has no reserved
	// reason to surface it with.
	ErrShutdown = errors.New("executor: executor is shut down")

	// ErrMissingOutcome is returned when a rail's result class lacks one
	// of the conventional success/error/timeout outcomes a submission
	// needs.
	ErrMissingOutcome = errors.New("executor: rail result class is missing a required outcome")

	// ErrActionPanic wraps a recovered panic from a submitted action.
	ErrActionPanic = errors.New("executor: action panicked")
)
