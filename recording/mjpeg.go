package recording

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"math"

	"github.com/icza/mjpeg"
	"github.com/yeti47/clipshot/frames"
)

// DefaultMJPEGQuality is the JPEG quality used for MJPEG frames when none is configured.
const DefaultMJPEGQuality = 85

// MJPEGWriterFactory writes Motion-JPEG in an AVI container without cgo.
// The codec argument is ignored; the container is always MJPG/AVI.
type MJPEGWriterFactory struct {
	Quality int
}

func (f MJPEGWriterFactory) Open(path string, codec string, fps float64, width, height int) (VideoWriter, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	rate := int32(math.Round(fps))
	if rate < 1 {
		rate = 1
	}

	aw, err := mjpeg.New(path, int32(width), int32(height), rate)
	if err != nil {
		return nil, fmt.Errorf("failed to create avi writer: %w", err)
	}

	quality := f.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultMJPEGQuality
	}

	return &mjpegWriter{aw: aw, width: width, height: height, quality: quality}, nil
}

type mjpegWriter struct {
	aw      mjpeg.AviWriter
	width   int
	height  int
	quality int
	buf     bytes.Buffer
}

func (w *mjpegWriter) Write(frame frames.Frame) error {
	if frame.Width != w.width || frame.Height != w.height {
		return fmt.Errorf("frame size %dx%d does not match %dx%d", frame.Width, frame.Height, w.width, w.height)
	}

	w.buf.Reset()
	if err := jpeg.Encode(&w.buf, frame.Image(), &jpeg.Options{Quality: w.quality}); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return w.aw.AddFrame(w.buf.Bytes())
}

func (w *mjpegWriter) Close() error {
	return w.aw.Close()
}
