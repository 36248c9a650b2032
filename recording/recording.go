package recording

import (
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/yeti47/clipshot/common"
)

// Recording describes a finished, playable recording on disk
type Recording struct {
	Path      string
	Codec     string
	Timestamp time.Time // session start, UTC
	Frames    int
	FrameRate float64
	Width     int
	Height    int
}

// Duration is the nominal playback length, frames divided by the output rate.
func (r *Recording) Duration() time.Duration {
	if r.FrameRate <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(r.Frames) * float64(time.Second) / r.FrameRate))
}

func (r *Recording) FileExtension() string {
	if ext := filepath.Ext(r.Path); ext != "" {
		return strings.TrimLeft(ext, ".")
	}
	// Fallback to codec-based extension
	return strings.TrimLeft(common.CodecToFileExtension(r.Codec), ".")
}

func (r *Recording) MimeType() string {
	return common.VideoFormatToMimeType(r.FileExtension())
}
