package rail

import (
	"errors"

	"github.com/jonwraymond/guardrail/result"
)

// RejectedError is the structured denial returned from an acquire. It
// carries the rejecting gate's reason, not a string.
type RejectedError struct {
	// Reason identifies why admission was denied.
	Reason result.Reason
}

func (e *RejectedError) Error() string {
	return "rail: rejected: " + e.Reason.Name()
}

// Rejected unwraps err as a *RejectedError, reporting ok=false for any
// other error.
func Rejected(err error) (*RejectedError, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
