package recording

import (
	"github.com/yeti47/clipshot/frames"
)

// VideoWriter encodes frames into an open container file.
type VideoWriter interface {
	Write(frame frames.Frame) error
	Close() error
}

// WriterFactory opens a container at path for frames of width x height at fps.
type WriterFactory interface {
	Open(path string, codec string, fps float64, width, height int) (VideoWriter, error)
}

// WriterFactoryFunc adapts a function to WriterFactory.
type WriterFactoryFunc func(path string, codec string, fps float64, width, height int) (VideoWriter, error)

func (f WriterFactoryFunc) Open(path string, codec string, fps float64, width, height int) (VideoWriter, error) {
	return f(path, codec, fps, width, height)
}
