package result

import (
	"fmt"
	"strings"
)

// InvalidResultError reports an outcome that is not part of a class. It
// is raised synchronously at the call that supplied the outcome.
type InvalidResultError struct {
	// Name is the offending outcome name.
	Name string

	// Valid lists the class's outcome names.
	Valid []string
}

func (e *InvalidResultError) Error() string {
	return fmt.Sprintf("Invalid result '%s'; Valid results are [%s]", e.Name, strings.Join(e.Valid, ", "))
}

// InvalidReasonError reports a rejection reason that is not part of a
// class.
type InvalidReasonError struct {
	// Name is the offending reason name.
	Name string

	// Valid lists the class's reason names.
	Valid []string
}

func (e *InvalidReasonError) Error() string {
	return fmt.Sprintf("Invalid reason '%s'; Valid reasons are [%s]", e.Name, strings.Join(e.Valid, ", "))
}
