package capture

import (
	"errors"
	"fmt"
)

// VerificationError reports a finished recording whose container does not hold the
// frames that were written to it.
type VerificationError struct {
	Path     string
	Expected int
	Actual   int
	Err      error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to verify %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("recording %s holds %d frames, expected %d", e.Path, e.Actual, e.Expected)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

func IsVerificationError(err error) bool {
	var verificationErr *VerificationError
	return errors.As(err, &verificationErr)
}
