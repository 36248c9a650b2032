// Package frames holds the decoded video frame shared by the recorder, the sampler and the video backends.
package frames

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// Channels is the number of 8-bit channels per pixel (B, G, R).
const Channels = 3

var ErrInvalidFrame = errors.New("invalid frame")

// Frame is a packed BGR24 pixel grid, row-major, without padding.
type Frame struct {
	Width     int
	Height    int
	Pix       []byte
	Timestamp time.Time
}

// New allocates a black frame of the given size.
func New(width, height int) Frame {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*Channels),
	}
}

// Empty reports whether the frame has no pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) == 0
}

// Validate checks that the pixel buffer matches the dimensions.
func (f Frame) Validate() error {
	if f.Empty() {
		return fmt.Errorf("%w: empty", ErrInvalidFrame)
	}
	if want := f.Width * f.Height * Channels; len(f.Pix) != want {
		return fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrInvalidFrame, f.Width, f.Height, want, len(f.Pix))
	}
	return nil
}

// Clone returns a deep copy, so the caller may reuse its pixel buffer.
func (f Frame) Clone() Frame {
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	f.Pix = pix
	return f
}

// At returns the B, G, R values of the pixel at (x, y).
func (f Frame) At(x, y int) (b, g, r byte) {
	i := (y*f.Width + x) * Channels
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Set writes the B, G, R values of the pixel at (x, y).
func (f Frame) Set(x, y int, b, g, r byte) {
	i := (y*f.Width + x) * Channels
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = b, g, r
}

// Image converts the frame to an RGBA image for the image/* encoders.
func (f Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	n := f.Width * f.Height
	for i := 0; i < n && i*Channels+2 < len(f.Pix); i++ {
		src := f.Pix[i*Channels : i*Channels+Channels]
		dst := img.Pix[i*4 : i*4+4]
		dst[0] = src[2]
		dst[1] = src[1]
		dst[2] = src[0]
		dst[3] = 0xff
	}
	return img
}
