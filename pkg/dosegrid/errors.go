package dosegrid

import (
	"fmt"
)

// MalformedGridError reports an input that cannot yield the slices the
// analysis needs: a short file, ragged rows, non-numeric labels or cells.
type MalformedGridError struct {
	// Line is the 1-based input line, or 0 when the problem is not tied to one
	Line   int
	Reason string
	Err    error
}

func (e *MalformedGridError) Error() string {
	msg := "malformed dose grid"
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedGridError) Unwrap() error {
	return e.Err
}

func malformed(line int, err error, format string, args ...interface{}) *MalformedGridError {
	return &MalformedGridError{
		Line:   line,
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
}
