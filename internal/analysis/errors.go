package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// MissingColumnError lists every required column absent from the input.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("the following columns are missing: %s", strings.Join(e.Columns, ", "))
}

// EmptyCriteriaError is returned when neither a URL path nor any keyword
// was supplied.
type EmptyCriteriaError struct{}

func (e *EmptyCriteriaError) Error() string {
	return "both URL path and keywords are empty: provide at least one"
}

// ErrEmptyCriteria is the shared EmptyCriteriaError value.
var ErrEmptyCriteria error = &EmptyCriteriaError{}

// ColumnConflictError is returned when a required column uses a name that
// the classifier reserves for its derived output.
type ColumnConflictError struct {
	Column string
}

func (e *ColumnConflictError) Error() string {
	return fmt.Sprintf("column %q is reserved for classifier output; rename it in the input", e.Column)
}

// UnparsableURLError records a row whose URL could not be decomposed. It is
// recovered locally: the row is left out of the path aggregates.
type UnparsableURLError struct {
	Line int
	URL  string
	Err  error
}

func (e *UnparsableURLError) Error() string {
	return fmt.Sprintf("row %d: unparsable URL %q: %v", e.Line, e.URL, e.Err)
}

func (e *UnparsableURLError) Unwrap() error { return e.Err }

// IsInputError reports whether err is caused by the caller's input or
// parameters rather than by the environment.
func IsInputError(err error) bool {
	var mc *MissingColumnError
	var cc *ColumnConflictError
	return errors.As(err, &mc) || errors.As(err, &cc) || errors.Is(err, ErrEmptyCriteria)
}
