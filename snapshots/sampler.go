package snapshots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/yeti47/clipshot/config"
	"github.com/yeti47/clipshot/filemanagement"
	"github.com/yeti47/clipshot/frames"
	"github.com/yeti47/clipshot/logging"
	"github.com/yeti47/clipshot/metrics"
)

// FilePrefix starts the name of every snapshot file.
const FilePrefix = "snapshot_"

// SnapshotFileName returns the file name of the k-th snapshot.
func SnapshotFileName(k int) string {
	return fmt.Sprintf("%s%d.jpg", FilePrefix, k)
}

// SnapshotSet is the result of one extraction.
type SnapshotSet struct {
	Source         string
	Directory      string
	Paths          []string // snapshot_0.jpg, snapshot_1.jpg, ... in order
	Indices        []int    // source frame index of each snapshot
	Stride         int
	FrameRate      float64 // rate the stride was computed from, 0 when degenerate
	FramesRead     int
	DegenerateRate bool // no usable rate was found and every frame is its own window
}

func (s *SnapshotSet) Len() int {
	return len(s.Paths)
}

// SnapshotSampler extracts one JPEG per fixed time window from a video file.
type SnapshotSampler struct {
	opener           SourceOpener
	images           ImageWriter
	probe            RateProbe
	settingsProvider config.SettingsProvider[SamplingSettings]
	tracker          filemanagement.FileTracker
	logger           logging.Logger
	locks            dirLocks
}

// NewSnapshotSampler creates a sampler. probe may be nil, in which case a degenerate
// native rate falls back to a stride of 1 directly.
func NewSnapshotSampler(opener SourceOpener, images ImageWriter, probe RateProbe, provider config.SettingsProvider[SamplingSettings], tracker filemanagement.FileTracker, logger logging.Logger) *SnapshotSampler {
	logger = logging.OrNop(logger)
	if provider == nil {
		provider = config.NewStaticSettingsProvider(DefaultSamplingSettings)
	}
	if tracker == nil {
		tracker = filemanagement.NewLocalFileTracker(logger)
	}

	return &SnapshotSampler{
		opener:           opener,
		images:           images,
		probe:            probe,
		settingsProvider: provider,
		tracker:          tracker,
		logger:           logger,
	}
}

// Extract writes snapshots of sourcePath into the configured snapshot directory.
func (s *SnapshotSampler) Extract(ctx context.Context, sourcePath string, interval time.Duration) (*SnapshotSet, error) {
	return s.ExtractTo(ctx, sourcePath, s.settingsProvider.GetSettings().Directory, interval)
}

// ExtractIsolated writes snapshots into a fresh sub directory of the configured snapshot
// directory, so concurrent extractions never share files.
func (s *SnapshotSampler) ExtractIsolated(ctx context.Context, sourcePath string, interval time.Duration) (*SnapshotSet, error) {
	dir := filepath.Join(s.settingsProvider.GetSettings().Directory, uuid.NewString())

	set, err := s.ExtractTo(ctx, sourcePath, dir, interval)
	if err != nil {
		// only succeeds if the failed extraction left the directory empty
		os.Remove(dir)
		return nil, err
	}
	return set, nil
}

// ExtractTo walks sourcePath once from the first frame. Frame k*stride is kept as the
// candidate for window k and written as snapshot_<k>.jpg once the window is complete,
// so T frames yield floor(T/stride) snapshots and a trailing partial window yields none.
//
// An unopenable source returns *SourceUnavailableError and writes nothing. A decode
// error, write error or cancellation removes the snapshots written by this call.
// An empty SnapshotSet is a valid result.
func (s *SnapshotSampler) ExtractTo(ctx context.Context, sourcePath, dir string, interval time.Duration) (*SnapshotSet, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()

	src, err := s.opener.Open(sourcePath)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("unavailable").Inc()
		s.logger.Warn("Video source unavailable", "source", sourcePath, "error", err)
		if IsSourceUnavailableError(err) {
			return nil, err
		}
		return nil, &SourceUnavailableError{Path: sourcePath, Err: err}
	}
	defer src.Close()

	unlock := s.locks.lock(dir)
	defer unlock()

	fps, stride, degenerate := s.resolveStride(ctx, sourcePath, src.FrameRate(), interval)

	if err := s.tracker.EnsureDirectory(dir); err != nil {
		metrics.ExtractionsTotal.WithLabelValues("failed").Inc()
		return nil, &SnapshotWriteError{Path: dir, Err: err}
	}

	set := &SnapshotSet{
		Source:         sourcePath,
		Directory:      dir,
		Stride:         stride,
		FrameRate:      fps,
		DegenerateRate: degenerate,
	}

	s.logger.Info("Extracting snapshots",
		"source", sourcePath,
		"dir", dir,
		"interval", interval,
		"fps", fps,
		"stride", stride)

	if err := s.walk(ctx, src, set); err != nil {
		if cleanupErr := s.tracker.DeleteFiles(set.Paths); cleanupErr != nil {
			s.logger.Error("Failed to remove partial snapshots", "dir", dir, "error", cleanupErr)
		}
		set.Paths, set.Indices = nil, nil
		metrics.ExtractionsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("Snapshot extraction failed", "source", sourcePath, "frames_read", set.FramesRead, "error", err)
		return nil, err
	}

	outcome := "completed"
	if set.Len() == 0 {
		outcome = "empty"
	}
	metrics.ExtractionsTotal.WithLabelValues(outcome).Inc()
	metrics.SnapshotsWrittenTotal.Add(float64(set.Len()))
	metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(started).Seconds())

	s.logger.Info("Snapshot extraction finished",
		"source", sourcePath,
		"snapshots", set.Len(),
		"frames_read", set.FramesRead,
		"elapsed", time.Since(started))

	return set, nil
}

// resolveStride picks the rate to sample with, asking the probe when the decoder reports none.
func (s *SnapshotSampler) resolveStride(ctx context.Context, sourcePath string, fps float64, interval time.Duration) (float64, int, bool) {
	if !ValidRate(fps) && s.probe != nil {
		probed, err := s.probe.ProbeFrameRate(ctx, sourcePath)
		switch {
		case err != nil:
			s.logger.Warn("Frame rate probe failed", "source", sourcePath, "error", err)
		case ValidRate(probed):
			s.logger.Info("Decoder reported no frame rate, using probed rate", "source", sourcePath, "fps", probed)
			fps = probed
		}
	}

	stride, ok := ComputeStride(fps, interval)
	if !ok {
		s.logger.Warn("Degenerate frame rate, sampling every frame", "source", sourcePath, "reported_fps", fps)
		return 0, stride, true
	}
	return fps, stride, false
}

// walk reads src to the end, appending written snapshots to set as it goes.
func (s *SnapshotSampler) walk(ctx context.Context, src VideoSource, set *SnapshotSet) error {
	stride := set.Stride

	var candidate frames.Frame
	candidateIndex := -1

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("snapshot extraction cancelled: %w", err)
		}

		frame, err := src.Read()
		if errors.Is(err, io.EOF) {
			if candidateIndex >= 0 {
				s.logger.Debug("Discarding partial trailing window", "candidate", candidateIndex, "frames_read", set.FramesRead)
			}
			return nil
		}
		if err != nil {
			return &DecodeError{Path: set.Source, Index: index, Err: err}
		}
		set.FramesRead++

		if index%stride == 0 {
			candidate = frame
			candidateIndex = index
		}

		// window [k*stride, (k+1)*stride) is complete
		if (index+1)%stride == 0 && candidateIndex >= 0 {
			k := index / stride
			path := filepath.Join(set.Directory, SnapshotFileName(k))
			if err := s.images.WriteJPEG(path, candidate); err != nil {
				set.Paths = append(set.Paths, path) // remove any partial file too
				return &SnapshotWriteError{Path: path, Err: err}
			}
			set.Paths = append(set.Paths, path)
			set.Indices = append(set.Indices, candidateIndex)
			s.logger.Debug("Wrote snapshot", "path", path, "frame", candidateIndex)

			candidate = frames.Frame{}
			candidateIndex = -1
		}
	}
}
