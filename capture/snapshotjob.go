package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yeti47/clipshot/logging"
	"github.com/yeti47/clipshot/snapshots"
)

// Extractor is the part of the snapshot sampler a job needs.
type Extractor interface {
	Extract(ctx context.Context, sourcePath string, interval time.Duration) (*snapshots.SnapshotSet, error)
	ExtractIsolated(ctx context.Context, sourcePath string, interval time.Duration) (*snapshots.SnapshotSet, error)
}

// SnapshotJob extracts snapshots from finished videos, for example files handed over by
// an upload.
type SnapshotJob struct {
	extractor Extractor
	isolated  bool
	logger    logging.Logger
}

// NewSnapshotJob creates a job. With isolated set every source gets its own sub directory.
func NewSnapshotJob(extractor Extractor, isolated bool, logger logging.Logger) *SnapshotJob {
	return &SnapshotJob{
		extractor: extractor,
		isolated:  isolated,
		logger:    logging.OrNop(logger),
	}
}

func (j *SnapshotJob) Run(ctx context.Context, source string, interval time.Duration) (*snapshots.SnapshotSet, error) {
	return j.run(ctx, source, interval, j.isolated)
}

func (j *SnapshotJob) run(ctx context.Context, source string, interval time.Duration, isolated bool) (*snapshots.SnapshotSet, error) {
	var (
		set *snapshots.SnapshotSet
		err error
	)
	if isolated {
		set, err = j.extractor.ExtractIsolated(ctx, source, interval)
	} else {
		set, err = j.extractor.Extract(ctx, source, interval)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to extract snapshots from %s: %w", source, err)
	}

	if set.Len() == 0 {
		j.logger.Info("Video shorter than one interval, no snapshots written",
			"source", source,
			"interval", interval,
			"frames", set.FramesRead)
	} else {
		j.logger.Info("Snapshots written",
			"source", source,
			"count", set.Len(),
			"directory", set.Directory)
	}
	return set, nil
}

// RunAll extracts from every source concurrently. Results keep the order of sources;
// a failed source leaves a nil entry and its error is joined into the returned error.
// More than one source always runs isolated, since snapshot names restart at zero per source.
func (j *SnapshotJob) RunAll(ctx context.Context, sources []string, interval time.Duration) ([]*snapshots.SnapshotSet, error) {
	results := make([]*snapshots.SnapshotSet, len(sources))
	errs := make([]error, len(sources))
	isolated := j.isolated || len(sources) > 1

	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = j.run(ctx, source, interval, isolated)
		}()
	}
	wg.Wait()

	return results, errors.Join(errs...)
}
