package reports

import (
	"errors"
	"fmt"
)

// ErrReportNotFound is returned when no report exists for the requested id.
var ErrReportNotFound = errors.New("report not found")

// ErrUnsupportedType is returned when generation dispatches to a report type
// that has no registered strategy (inventory_levels, or anything outside the
// registry). Always wrapped with the offending type.
var ErrUnsupportedType = errors.New("unsupported report type")

// ValidationError rejects a request before any record is persisted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a pre-persistence rejection,
// so handlers can map it to a 400 rather than a 500.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
