package recording

import (
	"errors"
	"fmt"
)

// ErrFinalizeInProgress is returned when Finalize is called while another finalize is still encoding.
var ErrFinalizeInProgress = errors.New("finalize already in progress")

// IOFailureError reports that the output container could not be opened, written or closed.
type IOFailureError struct {
	Op   string // "open", "write" or "close"
	Path string
	Err  error
}

func (e *IOFailureError) Error() string {
	return fmt.Sprintf("recording %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOFailureError) Unwrap() error {
	return e.Err
}

// IsIOFailureError checks if an error is an IOFailureError
func IsIOFailureError(err error) bool {
	var ioErr *IOFailureError
	return errors.As(err, &ioErr)
}
