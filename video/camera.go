package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/yeti47/clipshot/frames"
	"github.com/yeti47/clipshot/logging"
	"github.com/yeti47/clipshot/resolution"
	"gocv.io/x/gocv"
)

const (
	readRetryDelay             = 67 * time.Millisecond
	maxConsecutiveReadFailures = 30
)

var ErrCameraStalled = errors.New("camera stopped delivering frames")

// Camera streams frames from a capture device, a stream URL or a video file.
type Camera struct {
	device     string // Device identifier, e.g. "/dev/video0", "0" or "rtsp://..."
	resolution resolution.Resolution
	logger     logging.Logger
}

func NewCamera(device string, res resolution.Resolution, logger logging.Logger) *Camera {
	return &Camera{
		device:     device,
		resolution: res,
		logger:     logging.OrNop(logger),
	}
}

// isFile reports whether the device is a regular file, which ends instead of stalling.
func (c *Camera) isFile() bool {
	info, err := os.Stat(c.device)
	return err == nil && info.Mode().IsRegular()
}

func (c *Camera) open() (*gocv.VideoCapture, error) {
	var device interface{} = c.device
	if c.device == "" {
		device = 0
	} else if id, err := strconv.Atoi(c.device); err == nil {
		device = id
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %q: %w", c.device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("camera %q could not be opened", c.device)
	}

	if !c.resolution.IsEmpty() {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(c.resolution.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(c.resolution.Height))
	}

	return capture, nil
}

// Stream pushes every decoded frame into sink until ctx is cancelled, a file source ends,
// or the device stops delivering frames. It returns the number of frames delivered.
func (c *Camera) Stream(ctx context.Context, sink frames.Sink) (int, error) {
	capture, err := c.open()
	if err != nil {
		return 0, err
	}
	defer func() {
		c.logger.Info("Closing camera", "device", c.device)
		capture.Close()
	}()

	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	c.logger.Info("Camera opened",
		"device", c.device,
		"resolution", fmt.Sprintf("%dx%d", width, height),
		"fps", capture.Get(gocv.VideoCaptureFPS))

	img := gocv.NewMat()
	defer img.Close()

	file := c.isFile()
	delivered := 0
	failures := 0

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Capture stopped", "device", c.device, "frames", delivered)
			return delivered, nil
		default:
		}

		if ok := capture.Read(&img); !ok {
			if file {
				c.logger.Info("End of input file", "device", c.device, "frames", delivered)
				return delivered, nil
			}
			failures++
			c.logger.Warn("Failed to read frame from camera", "device", c.device, "failures", failures)
			if failures >= maxConsecutiveReadFailures {
				return delivered, ErrCameraStalled
			}
			select {
			case <-ctx.Done():
			case <-time.After(readRetryDelay):
			}
			continue
		}
		failures = 0

		if img.Empty() {
			continue
		}

		frame, err := fromMat(img)
		if err != nil {
			c.logger.Warn("Skipping undecodable frame", "error", err)
			continue
		}
		frame.Timestamp = time.Now()

		sink.Recv(frame)
		delivered++
	}
}
