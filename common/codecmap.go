package common

import (
	"fmt"
	"maps"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/yeti47/clipshot/logging"
)

// CodecFallbackMap defines fallback chains for video codecs
var CodecFallbackMap = map[string][]string{
	// H.264 codecs in preference order
	"libx264":      {"libx264", "libopenh264", "h264_vaapi", "h264_qsv", "h264_v4l2m2m"},
	"libopenh264":  {"libopenh264", "libx264", "h264_vaapi", "h264_qsv", "h264_v4l2m2m"},
	"h264_vaapi":   {"h264_vaapi", "libx264", "libopenh264", "h264_qsv", "h264_v4l2m2m"},
	"h264_qsv":     {"h264_qsv", "libx264", "libopenh264", "h264_vaapi", "h264_v4l2m2m"},
	"h264_v4l2m2m": {"h264_v4l2m2m", "libx264", "libopenh264", "h264_vaapi", "h264_qsv"},

	// H.265 falls back to H.264 codecs
	"libx265": {"libx265", "libx264", "libopenh264", "h264_vaapi", "h264_qsv", "h264_v4l2m2m"},

	// MPEG-4 part 2 is what OpenCV writes by default
	"mpeg4": {"mpeg4", "libx264", "libopenh264"},
}

// CodecProvider interface for managing codec availability and fallbacks
type CodecProvider interface {
	IsCodecAvailable(codec string) bool
	GetFallbackCodec(requestedCodec string) (string, error)
	GetAvailableCodecs() map[string]bool
}

// EncoderLister returns the raw output of `ffmpeg -encoders`.
type EncoderLister func() ([]byte, error)

// FFmpegEncoders runs the ffmpeg binary found on PATH.
func FFmpegEncoders() ([]byte, error) {
	return exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
}

// Pattern matches lines like: " V....D libopenh264          OpenH264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)"
var codecPattern = regexp.MustCompile(`^ ([VA][.SFXBD]{5})\s+([a-zA-Z0-9_-]+)\s+`)

// FFmpegCodecProvider implements CodecProvider using FFmpeg.
// The encoder list is queried lazily, once.
type FFmpegCodecProvider struct {
	list            EncoderLister
	logger          logging.Logger
	once            sync.Once
	availableCodecs map[string]bool
}

// NewFFmpegCodecProvider creates a new FFmpeg-based codec provider.
// A nil lister queries the ffmpeg binary.
func NewFFmpegCodecProvider(list EncoderLister, logger logging.Logger) *FFmpegCodecProvider {
	if list == nil {
		list = FFmpegEncoders
	}
	return &FFmpegCodecProvider{
		list:   list,
		logger: logging.OrNop(logger),
	}
}

// IsCodecAvailable checks if a codec is available by querying FFmpeg
func (c *FFmpegCodecProvider) IsCodecAvailable(codec string) bool {
	c.once.Do(c.loadAvailableCodecs)
	return c.availableCodecs[codec]
}

// GetAvailableCodecs returns a copy of all available codecs
func (c *FFmpegCodecProvider) GetAvailableCodecs() map[string]bool {
	c.once.Do(c.loadAvailableCodecs)
	result := make(map[string]bool, len(c.availableCodecs))
	maps.Copy(result, c.availableCodecs)
	return result
}

func (c *FFmpegCodecProvider) loadAvailableCodecs() {
	c.availableCodecs = make(map[string]bool)

	output, err := c.list()
	if err != nil {
		c.logger.Warn("Failed to query FFmpeg encoders", "error", err)
		return
	}

	for _, line := range strings.Split(string(output), "\n") {
		// Skip legend lines such as " V..... = Video"
		if strings.Contains(line, " = ") {
			continue
		}

		matches := codecPattern.FindStringSubmatch(line)
		if len(matches) >= 3 {
			c.availableCodecs[matches[2]] = true
		}
	}

	c.logger.Debug("Loaded available codecs from FFmpeg", "count", len(c.availableCodecs))
}

// GetFallbackCodec finds the first available codec from the fallback chain
func (c *FFmpegCodecProvider) GetFallbackCodec(requestedCodec string) (string, error) {
	if c.IsCodecAvailable(requestedCodec) {
		return requestedCodec, nil
	}

	fallbackChain, exists := CodecFallbackMap[requestedCodec]
	if !exists {
		return "", fmt.Errorf("codec '%s' is not available and no fallback is defined", requestedCodec)
	}

	for _, codec := range fallbackChain {
		if c.IsCodecAvailable(codec) {
			c.logger.Info("Using fallback codec", "requested", requestedCodec, "codec", codec)
			return codec, nil
		}
	}

	return "", fmt.Errorf("no suitable codec available from fallback chain: %v", fallbackChain)
}
