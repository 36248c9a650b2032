package recording

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yeti47/clipshot/config"
	"github.com/yeti47/clipshot/filemanagement"
	"github.com/yeti47/clipshot/frames"
	"github.com/yeti47/clipshot/logging"
	"github.com/yeti47/clipshot/metrics"
)

// Recorder buffers the frames of one capture session and encodes them into a single file on demand.
type Recorder interface {
	frames.Sink
	// Ingest appends a frame to the current session
	Ingest(frame frames.Frame)
	// Finalize encodes the session; it returns (nil, nil) when no frames were buffered
	Finalize(ctx context.Context) (*Recording, error)
	// Pending returns the number of buffered frames
	Pending() int
	// Discard drops the current session and returns how many frames it held
	Discard() int
}

// FrameRecorder keeps the whole session in memory. Frames are encoded at the configured
// output rate regardless of how fast they were captured.
type FrameRecorder struct {
	writers          WriterFactory
	settingsProvider config.SettingsProvider[RecordingSettings]
	tracker          filemanagement.FileTracker
	logger           logging.Logger
	now              func() time.Time

	mu           sync.Mutex
	buffer       []frames.Frame
	sessionStart time.Time
	finalizing   bool
	dropped      int
}

// NewFrameRecorder creates a recorder that encodes through writers.
// A nil provider uses DefaultRecordingSettings, a nil tracker the local filesystem.
func NewFrameRecorder(writers WriterFactory, provider config.SettingsProvider[RecordingSettings], tracker filemanagement.FileTracker, logger logging.Logger) *FrameRecorder {
	logger = logging.OrNop(logger)
	if provider == nil {
		provider = config.NewStaticSettingsProvider(DefaultRecordingSettings)
	}
	if tracker == nil {
		tracker = filemanagement.NewLocalFileTracker(logger)
	}

	return &FrameRecorder{
		writers:          writers,
		settingsProvider: provider,
		tracker:          tracker,
		logger:           logger,
		now:              time.Now,
	}
}

// Ingest appends frame to the current session, starting a new session if none is active.
// The recorder takes ownership of frame.Pix. Empty frames are skipped and frames that
// arrive while a finalize is encoding are dropped.
func (r *FrameRecorder) Ingest(frame frames.Frame) {
	if frame.Empty() {
		r.logger.Debug("Skipping empty frame")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalizing {
		r.dropped++
		metrics.FramesDroppedTotal.Inc()
		r.logger.Debug("Dropping frame delivered during finalize", "dropped", r.dropped)
		return
	}

	if len(r.buffer) == 0 {
		r.sessionStart = r.now()
		r.logger.Info("Recording session started", "start", r.sessionStart)
	}
	// the caller keeps its buffer, display code may draw on it after Recv
	r.buffer = append(r.buffer, frame.Clone())
	metrics.FramesIngestedTotal.Inc()
}

// Recv implements frames.Sink. The frame is buffered and returned unchanged.
func (r *FrameRecorder) Recv(frame frames.Frame) frames.Frame {
	r.Ingest(frame)
	return frame
}

func (r *FrameRecorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

// Dropped returns how many frames were dropped because they arrived during a finalize.
func (r *FrameRecorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// SessionStart returns the start of the current session, or the zero time if none is active.
func (r *FrameRecorder) SessionStart() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionStart
}

func (r *FrameRecorder) Discard() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.buffer)
	r.buffer = nil
	r.sessionStart = time.Time{}
	if n > 0 {
		r.logger.Info("Discarded recording session", "frames", n)
	}
	return n
}

// Finalize encodes every buffered frame, in ingestion order, into a new file named after
// the session start. The buffer observed at the start of the call is the one encoded.
//
// With nothing buffered it returns (nil, nil), also on repeated calls. On failure the partial
// file is removed, the frames are put back so the call can be retried, and the error is an
// *IOFailureError.
func (r *FrameRecorder) Finalize(ctx context.Context) (*Recording, error) {
	r.mu.Lock()
	if r.finalizing {
		r.mu.Unlock()
		return nil, ErrFinalizeInProgress
	}
	if len(r.buffer) == 0 {
		r.mu.Unlock()
		metrics.RecordingsFinalizedTotal.WithLabelValues("empty").Inc()
		r.logger.Debug("Finalize called on empty session, nothing to save")
		return nil, nil
	}

	buffered := r.buffer
	start := r.sessionStart
	r.buffer = nil
	r.sessionStart = time.Time{}
	r.finalizing = true
	r.mu.Unlock()

	settings := r.settingsProvider.GetSettings().withDefaults()
	encodeStart := time.Now()

	rec, err := r.encode(ctx, buffered, start, settings)

	r.mu.Lock()
	if err != nil {
		// frames that arrived meanwhile were dropped, so the buffer is empty
		r.buffer = buffered
		r.sessionStart = start
	}
	r.finalizing = false
	r.mu.Unlock()

	if err != nil {
		metrics.RecordingsFinalizedTotal.WithLabelValues("failed").Inc()
		r.logger.Error("Failed to finalize recording", "frames", len(buffered), "error", err)
		return nil, err
	}

	metrics.RecordingsFinalizedTotal.WithLabelValues("written").Inc()
	metrics.FramesEncodedTotal.Add(float64(rec.Frames))
	metrics.StageDuration.WithLabelValues("finalize").Observe(time.Since(encodeStart).Seconds())

	r.logger.Info("Recording finalized",
		"path", rec.Path,
		"frames", rec.Frames,
		"resolution", fmt.Sprintf("%dx%d", rec.Width, rec.Height),
		"duration", rec.Duration(),
		"elapsed", time.Since(encodeStart))

	return rec, nil
}

func (r *FrameRecorder) encode(ctx context.Context, buffered []frames.Frame, start time.Time, settings RecordingSettings) (*Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, &IOFailureError{Op: "open", Path: settings.Directory, Err: err}
	}

	width, height := buffered[0].Width, buffered[0].Height

	if err := r.tracker.EnsureDirectory(settings.Directory); err != nil {
		return nil, &IOFailureError{Op: "open", Path: settings.Directory, Err: err}
	}

	path, err := uniquePath(settings.Directory, start, settings.Format)
	if err != nil {
		return nil, &IOFailureError{Op: "open", Path: settings.Directory, Err: err}
	}

	r.logger.Info("Encoding recording",
		"path", path,
		"codec", settings.Codec,
		"fps", settings.FrameRate,
		"frames", len(buffered),
		"resolution", fmt.Sprintf("%dx%d", width, height))

	writer, err := r.writers.Open(path, settings.Codec, settings.FrameRate, width, height)
	if err != nil {
		r.tracker.DeleteFile(path)
		return nil, &IOFailureError{Op: "open", Path: path, Err: err}
	}

	fail := func(op string, cause error) (*Recording, error) {
		writer.Close()
		r.tracker.DeleteFile(path)
		return nil, &IOFailureError{Op: op, Path: path, Err: cause}
	}

	for i, frame := range buffered {
		if err := ctx.Err(); err != nil {
			return fail("write", err)
		}
		if err := writer.Write(frame); err != nil {
			return fail("write", fmt.Errorf("frame %d: %w", i, err))
		}
	}

	if err := writer.Close(); err != nil {
		r.tracker.DeleteFile(path)
		return nil, &IOFailureError{Op: "close", Path: path, Err: err}
	}

	return &Recording{
		Path:      path,
		Codec:     settings.Codec,
		Timestamp: start.UTC(),
		Frames:    len(buffered),
		FrameRate: settings.FrameRate,
		Width:     width,
		Height:    height,
	}, nil
}
