package sheets

import "fmt"

// Op identifies which source operation failed.
type Op string

const (
	// OpFetch is a whole-sheet read.
	OpFetch Op = "fetch"

	// OpAppend is a row append.
	OpAppend Op = "append"
)

// SourceError wraps a Sheets API failure. Any of network, auth or quota
// errors surface as this type; callers treat them uniformly as
// "source unavailable".
type SourceError struct {
	Op  Op
	Err error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("sheets %s: %v", e.Op, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *SourceError) Unwrap() error {
	return e.Err
}
