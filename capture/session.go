// Package capture wires a frame source, the recorder, post-processing and the snapshot
// sampler into the record and snapshot workflows used by the CLI.
package capture

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yeti47/clipshot/frames"
	"github.com/yeti47/clipshot/inspect"
	"github.com/yeti47/clipshot/logging"
	"github.com/yeti47/clipshot/metrics"
	"github.com/yeti47/clipshot/postprocessing"
	"github.com/yeti47/clipshot/recording"
)

const defaultFinalizeTimeout = 2 * time.Minute

// FrameSource delivers decoded frames to sink until ctx is cancelled or the source ends.
type FrameSource interface {
	Stream(ctx context.Context, sink frames.Sink) (int, error)
}

// ContainerProbe reads container metadata of a finished recording.
type ContainerProbe func(path string) (*inspect.ContainerInfo, error)

type SessionOptions struct {
	// MaxDuration stops capturing after this long; zero captures until ctx is cancelled.
	MaxDuration time.Duration
	// FinalizeTimeout bounds encoding once capture has stopped.
	FinalizeTimeout time.Duration
	// Verify checks the sample count of MP4 output against the frames written.
	Verify      bool
	PostProcess bool
	// Preview, when set, sees every frame after the recorder
	Preview frames.Sink
}

// SessionResult is what a record session produced. Recording is nil for an empty session.
type SessionResult struct {
	Captured  int
	Recording *recording.Recording
	Container *inspect.ContainerInfo
	Clip      *postprocessing.VideoClip
}

// Session runs one capture session from start to a finished file.
type Session struct {
	source        FrameSource
	recorder      recording.Recorder
	postProcessor postprocessing.PostProcessor
	probe         ContainerProbe
	options       SessionOptions
	logger        logging.Logger
}

// NewSession creates a record session. postProcessor may be nil when post-processing
// is disabled.
func NewSession(source FrameSource, recorder recording.Recorder, postProcessor postprocessing.PostProcessor, options SessionOptions, logger logging.Logger) *Session {
	if options.FinalizeTimeout <= 0 {
		options.FinalizeTimeout = defaultFinalizeTimeout
	}

	return &Session{
		source:        source,
		recorder:      recorder,
		postProcessor: postProcessor,
		probe:         inspect.ProbeFile,
		options:       options,
		logger:        logging.OrNop(logger),
	}
}

// Record streams frames into the recorder until ctx ends, the source ends or the
// maximum duration elapses, then finalizes the session.
//
// Finalize runs on a fresh context bounded by FinalizeTimeout, since ctx is usually
// already cancelled by then. A capture error does not discard buffered frames: they are
// still written and the error is returned alongside the result. Verification and
// post-processing failures are returned the same way, with the written recording intact.
func (s *Session) Record(ctx context.Context) (*SessionResult, error) {
	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	streamCtx := ctx
	if s.options.MaxDuration > 0 {
		var cancel context.CancelFunc
		streamCtx, cancel = context.WithTimeout(ctx, s.options.MaxDuration)
		defer cancel()
	}

	started := time.Now()
	s.logger.Info("Starting capture", "maxDuration", s.options.MaxDuration)

	captured, streamErr := s.source.Stream(streamCtx, frames.Tee(s.recorder, s.options.Preview))
	metrics.StageDuration.WithLabelValues("capture").Observe(time.Since(started).Seconds())
	if streamErr != nil {
		s.logger.Warn("Capture ended with error, finalizing buffered frames",
			"error", streamErr,
			"pending", s.recorder.Pending())
		streamErr = fmt.Errorf("capture failed: %w", streamErr)
	}

	result := &SessionResult{Captured: captured}

	finalizeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.options.FinalizeTimeout)
	defer cancel()

	rec, err := s.recorder.Finalize(finalizeCtx)
	if err != nil {
		return nil, errors.Join(streamErr, fmt.Errorf("failed to finalize recording: %w", err))
	}
	if rec == nil {
		s.logger.Info("Capture produced no frames, nothing recorded", "captured", captured)
		return nil, streamErr
	}
	result.Recording = rec

	if s.options.Verify && isMP4(rec.Path) {
		info, err := s.verify(rec)
		result.Container = info
		if err != nil {
			return result, errors.Join(streamErr, err)
		}
	}

	if s.options.PostProcess && s.postProcessor != nil {
		clip, err := s.postProcessor.ProcessRecording(context.WithoutCancel(ctx), rec)
		if err != nil {
			return result, errors.Join(streamErr, fmt.Errorf("failed to post-process %s: %w", rec.Path, err))
		}
		result.Clip = clip
	}

	return result, streamErr
}

func (s *Session) verify(rec *recording.Recording) (*inspect.ContainerInfo, error) {
	info, err := s.probe(rec.Path)
	if err != nil {
		return nil, &VerificationError{Path: rec.Path, Expected: rec.Frames, Err: err}
	}
	if info.SampleCount != rec.Frames {
		return info, &VerificationError{Path: rec.Path, Expected: rec.Frames, Actual: info.SampleCount}
	}

	s.logger.Debug("Recording verified",
		"path", rec.Path,
		"codec", info.Codec,
		"samples", info.SampleCount,
		"duration", info.Duration)
	return info, nil
}

func isMP4(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mp4")
}
