// Package video adapts OpenCV (gocv) capture, decoding and encoding to the frame,
// recording and snapshot ports.
package video

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/yeti47/clipshot/frames"
	"github.com/yeti47/clipshot/logging"
	"github.com/yeti47/clipshot/recording"
	"github.com/yeti47/clipshot/resolution"
	"github.com/yeti47/clipshot/snapshots"
	"gocv.io/x/gocv"
)

// toMat copies a frame into a new BGR Mat. The caller must Close it.
func toMat(frame frames.Frame) (gocv.Mat, error) {
	if err := frame.Validate(); err != nil {
		return gocv.Mat{}, err
	}
	return gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pix)
}

// fromMat converts a Mat with 1, 3 or 4 channels into a BGR frame.
func fromMat(mat gocv.Mat) (frames.Frame, error) {
	if mat.Empty() {
		return frames.Frame{}, errors.New("empty mat")
	}

	src := mat
	switch mat.Channels() {
	case 3:
	case 1:
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(mat, &bgr, gocv.ColorGrayToBGR)
		src = bgr
	case 4:
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(mat, &bgr, gocv.ColorBGRAToBGR)
		src = bgr
	default:
		return frames.Frame{}, fmt.Errorf("unsupported channel count %d", mat.Channels())
	}

	if src.Type() != gocv.MatTypeCV8UC3 {
		return frames.Frame{}, fmt.Errorf("unsupported mat type %v", src.Type())
	}

	return frames.Frame{
		Width:  src.Cols(),
		Height: src.Rows(),
		Pix:    src.ToBytes(),
	}, nil
}

// GoCVWriterFactory opens containers with OpenCV's VideoWriter (MPEG-4 "mp4v" by default).
type GoCVWriterFactory struct {
	Logger logging.Logger
}

func (f GoCVWriterFactory) Open(path string, codec string, fps float64, width, height int) (recording.VideoWriter, error) {
	writer, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create video writer: %w", err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("video writer for %s with codec %s could not be opened", path, codec)
	}
	return &gocvWriter{writer: writer, path: path, logger: logging.OrNop(f.Logger)}, nil
}

type gocvWriter struct {
	writer *gocv.VideoWriter
	path   string
	logger logging.Logger
}

func (w *gocvWriter) Write(frame frames.Frame) error {
	mat, err := toMat(frame)
	if err != nil {
		return err
	}
	defer mat.Close()

	return w.writer.Write(mat)
}

func (w *gocvWriter) Close() error {
	w.logger.Debug("Closing video writer", "path", w.path)
	return w.writer.Close()
}

// GoCVSourceOpener decodes files with OpenCV's VideoCapture.
type GoCVSourceOpener struct{}

func (GoCVSourceOpener) Open(path string) (snapshots.VideoSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &snapshots.SourceUnavailableError{Path: path, Err: err}
	}

	capture, err := gocv.OpenVideoCaptureWithAPI(path, gocv.VideoCaptureAny)
	if err != nil {
		return nil, &snapshots.SourceUnavailableError{Path: path, Err: err}
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, &snapshots.SourceUnavailableError{Path: path, Err: errors.New("no decodable video stream")}
	}

	return &gocvSource{capture: capture, mat: gocv.NewMat()}, nil
}

type gocvSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

func (s *gocvSource) FrameRate() float64 {
	return s.capture.Get(gocv.VideoCaptureFPS)
}

// Read returns io.EOF when OpenCV reports no further frame. Empty frames are skipped.
func (s *gocvSource) Read() (frames.Frame, error) {
	for {
		if ok := s.capture.Read(&s.mat); !ok {
			return frames.Frame{}, io.EOF
		}
		if s.mat.Empty() {
			continue
		}
		return fromMat(s.mat)
	}
}

func (s *gocvSource) Close() error {
	s.mat.Close()
	return s.capture.Close()
}

// GoCVImageWriter writes snapshots with OpenCV's JPEG encoder.
type GoCVImageWriter struct {
	Quality int
	MaxSize resolution.Resolution
}

func (w GoCVImageWriter) WriteJPEG(path string, frame frames.Frame) error {
	mat, err := toMat(frame)
	if err != nil {
		return err
	}
	defer mat.Close()

	out := mat
	if target := w.MaxSize.Fit(frame.Width, frame.Height); target.Width != frame.Width || target.Height != frame.Height {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(mat, &resized, image.Point{X: target.Width, Y: target.Height}, 0, 0, gocv.InterpolationArea)
		out = resized
	}

	quality := w.Quality
	if quality < 1 || quality > 100 {
		quality = snapshots.DefaultJPEGQuality
	}

	if ok := gocv.IMWriteWithParams(path, out, []int{int(gocv.IMWriteJpegQuality), quality}); !ok {
		return fmt.Errorf("OpenCV could not write %s", path)
	}
	return nil
}
