package snapshots

import (
	"context"

	"github.com/yeti47/clipshot/frames"
)

// VideoSource decodes a video sequentially, one frame per Read.
type VideoSource interface {
	// FrameRate returns the native rate reported by the container; it may be 0 or NaN.
	FrameRate() float64
	// Read decodes the next frame. It returns io.EOF once the stream is exhausted.
	Read() (frames.Frame, error)
	Close() error
}

// SourceOpener opens a file for sequential decoding.
type SourceOpener interface {
	Open(path string) (VideoSource, error)
}

// SourceOpenerFunc adapts a function to SourceOpener.
type SourceOpenerFunc func(path string) (VideoSource, error)

func (f SourceOpenerFunc) Open(path string) (VideoSource, error) {
	return f(path)
}

// RateProbe reads the frame rate from the container metadata, bypassing the decoder.
type RateProbe interface {
	ProbeFrameRate(ctx context.Context, path string) (float64, error)
}

// ImageWriter persists one snapshot as a JPEG file.
type ImageWriter interface {
	WriteJPEG(path string, frame frames.Frame) error
}
