package events

import (
	"errors"
	"fmt"
)

// Rejection signals that a record was examined and deliberately skipped.
// It is control flow, not a failure: callers log the reason at debug level
// and keep going.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	return "event not relevant: " + r.Reason
}

// Rejectf builds a Rejection with a formatted reason.
func Rejectf(format string, args ...interface{}) *Rejection {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

// IsRejection reports whether err is an admission or relevance rejection.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

// StructuralError reports a record that passed admission but is missing a
// field the jobs framework always sets. Unlike a Rejection this indicates a
// broken record: callers log it at error level with the raw payload.
type StructuralError struct {
	Field  string // the label or status field that was absent
	Detail string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("malformed pod record: %s (field %q)", e.Detail, e.Field)
}

// IsStructural reports whether err is a structural classification error.
func IsStructural(err error) bool {
	var s *StructuralError
	return errors.As(err, &s)
}
