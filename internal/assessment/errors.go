package assessment

import "errors"

// Engine errors. All are recoverable by the caller: a failed operation
// leaves the session untouched.
var (
	// ErrInvalidConfiguration is returned when a session is created with an
	// empty question set or a non-positive duration.
	ErrInvalidConfiguration = errors.New("assessment: invalid configuration")

	// ErrInvalidState is returned when an operation is attempted on a
	// finalized (or never initialized) session, e.g. submitting twice.
	ErrInvalidState = errors.New("assessment: invalid session state")

	// ErrIndexOutOfRange is returned when a navigation target falls outside
	// the question set bounds.
	ErrIndexOutOfRange = errors.New("assessment: index out of range")
)
