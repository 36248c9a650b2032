package capture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yeti47/clipshot/frames"
	"github.com/yeti47/clipshot/logging"
	"github.com/yeti47/clipshot/snapshots"
)

// PreviewSink keeps a JPEG of the live capture up to date, for a viewer that reloads the file.
// It writes every n-th frame it receives and never fails the capture.
type PreviewSink struct {
	writer snapshots.ImageWriter
	path   string
	every  int
	seen   int
	logger logging.Logger
}

func NewPreviewSink(writer snapshots.ImageWriter, path string, every int, logger logging.Logger) *PreviewSink {
	if every < 1 {
		every = 1
	}
	return &PreviewSink{
		writer: writer,
		path:   path,
		every:  every,
		logger: logging.OrNop(logger),
	}
}

// Recv implements frames.Sink. The frame is returned unchanged.
func (p *PreviewSink) Recv(frame frames.Frame) frames.Frame {
	p.seen++
	if (p.seen-1)%p.every != 0 {
		return frame
	}
	if err := p.write(frame); err != nil {
		p.logger.Warn("Failed to update preview", "path", p.path, "error", err)
	}
	return frame
}

// write goes through a temporary file so a viewer never sees a half written image
func (p *PreviewSink) write(frame frames.Frame) error {
	tmp := filepath.Join(filepath.Dir(p.path), "."+filepath.Base(p.path)+".tmp.jpg")
	if err := p.writer.WriteJPEG(tmp, frame); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace preview: %w", err)
	}
	return nil
}
