package timeout

import "errors"

var (
	// ErrTimeout is the error payload delivered when a deadline fires
	// before the guarded work completes.
	ErrTimeout = errors.New("timeout: operation timed out")

	// ErrNotRunning is returned when scheduling against a service that
	// has not been started or has been shut down.
	ErrNotRunning = errors.New("timeout: service is not running")

	// ErrAlreadyStarted is returned by Start on a service that is running
	// or has been shut down.
	ErrAlreadyStarted = errors.New("timeout: service already started")
)
