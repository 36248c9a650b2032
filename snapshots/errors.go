package snapshots

import (
	"errors"
	"fmt"
)

// ErrInvalidInterval is returned when the sampling interval is not positive.
var ErrInvalidInterval = errors.New("sampling interval must be positive")

// SourceUnavailableError reports a video source that could not be opened for decoding:
// missing file, unsupported container or a stream without decodable video.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("video source %s unavailable: %v", e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// IsSourceUnavailableError checks if an error is a SourceUnavailableError
func IsSourceUnavailableError(err error) bool {
	var srcErr *SourceUnavailableError
	return errors.As(err, &srcErr)
}

// DecodeError reports a failure while decoding the frame at Index.
type DecodeError struct {
	Path  string
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode frame %d of %s: %v", e.Index, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError checks if an error is a DecodeError
func IsDecodeError(err error) bool {
	var decErr *DecodeError
	return errors.As(err, &decErr)
}

// SnapshotWriteError reports a snapshot image that could not be written.
type SnapshotWriteError struct {
	Path string
	Err  error
}

func (e *SnapshotWriteError) Error() string {
	return fmt.Sprintf("failed to write snapshot %s: %v", e.Path, e.Err)
}

func (e *SnapshotWriteError) Unwrap() error {
	return e.Err
}

// IsSnapshotWriteError checks if an error is a SnapshotWriteError
func IsSnapshotWriteError(err error) bool {
	var writeErr *SnapshotWriteError
	return errors.As(err, &writeErr)
}
