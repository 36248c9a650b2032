package postprocessing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xfrr/goffmpeg/models"
	"github.com/xfrr/goffmpeg/transcoder"
	"github.com/yeti47/clipshot/logging"
)

var errNoVideoStream = errors.New("no video stream")

// FfprobeRateProbe reads the average frame rate of the first video stream with ffprobe.
type FfprobeRateProbe struct {
	logger logging.Logger
}

func NewFfprobeRateProbe(logger logging.Logger) *FfprobeRateProbe {
	return &FfprobeRateProbe{logger: logging.OrNop(logger)}
}

func (p *FfprobeRateProbe) ProbeFrameRate(ctx context.Context, path string) (float64, error) {
	type result struct {
		metadata models.Metadata
		err      error
	}
	ch := make(chan result, 1)

	go func() {
		trans := new(transcoder.Transcoder)
		if err := trans.Initialize(path, ""); err != nil {
			ch <- result{err: fmt.Errorf("failed to probe %s: %w", path, err)}
			return
		}
		ch <- result{metadata: trans.MediaFile().Metadata()}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return 0, r.err
		}
		fps, err := rateFromStreams(r.metadata.Streams)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		p.logger.Debug("Probed frame rate", "path", path, "fps", fps)
		return fps, nil
	}
}

func rateFromStreams(streams []models.Streams) (float64, error) {
	for _, stream := range streams {
		if stream.CodecType != "video" {
			continue
		}
		return parseFrameRate(stream.AvgFrameRate)
	}
	return 0, errNoVideoStream
}

// parseFrameRate accepts ffprobe rationals ("30000/1001") and plain numbers ("25").
func parseFrameRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty frame rate")
	}

	num, den, isRational := strings.Cut(s, "/")
	if !isRational {
		return strconv.ParseFloat(num, 64)
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q: %w", s, err)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q: %w", s, err)
	}
	if d == 0 {
		return 0, fmt.Errorf("invalid frame rate %q: zero denominator", s)
	}
	return n / d, nil
}
