package snapshots

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"github.com/yeti47/clipshot/frames"
	"github.com/yeti47/clipshot/resolution"
	"golang.org/x/image/draw"
)

// DefaultJPEGQuality is used when a writer is configured without a quality.
const DefaultJPEGQuality = 95

// JPEGWriter encodes snapshots in pure Go. Frames larger than MaxSize are
// scaled down, keeping their aspect ratio.
type JPEGWriter struct {
	Quality int
	MaxSize resolution.Resolution
}

// WriteJPEG implements ImageWriter
func (w JPEGWriter) WriteJPEG(path string, frame frames.Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}

	img := w.resize(frame.Image())

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(file)
	if err := jpeg.Encode(bw, img, &jpeg.Options{Quality: w.quality()}); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("encode JPEG: %w", err)
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}

func (w JPEGWriter) quality() int {
	if w.Quality < 1 || w.Quality > 100 {
		return DefaultJPEGQuality
	}
	return w.Quality
}

// resize scales img into MaxSize, or returns it unchanged when it already fits
func (w JPEGWriter) resize(img image.Image) image.Image {
	b := img.Bounds()
	target := w.MaxSize.Fit(b.Dx(), b.Dy())
	if target.Width == b.Dx() && target.Height == b.Dy() {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, target.Width, target.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
