package capture

import (
	"context"
	"sync"
	"time"

	"github.com/yeti47/clipshot/logging"
	"github.com/yeti47/clipshot/snapshots"
)

// SnapshotRequest is a finished video handed over for snapshot extraction
type SnapshotRequest struct {
	Source   string
	Interval time.Duration
	Queued   time.Time
}

// SnapshotDone is called once per processed request; set is nil when err is set.
type SnapshotDone func(req SnapshotRequest, set *snapshots.SnapshotSet, err error)

// SnapshotQueue buffers extraction requests and runs them one at a time on a worker.
type SnapshotQueue struct {
	job          *SnapshotJob
	requests     chan SnapshotRequest
	drainTimeout time.Duration
	logger       logging.Logger
}

func NewSnapshotQueue(job *SnapshotJob, bufferSize int, drainTimeout time.Duration, logger logging.Logger) *SnapshotQueue {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &SnapshotQueue{
		job:          job,
		requests:     make(chan SnapshotRequest, bufferSize),
		drainTimeout: drainTimeout,
		logger:       logging.OrNop(logger),
	}
}

// Queue adds a request without blocking and reports whether it was accepted.
func (q *SnapshotQueue) Queue(req SnapshotRequest) bool {
	if req.Queued.IsZero() {
		req.Queued = time.Now()
	}

	select {
	case q.requests <- req:
		q.logger.Debug("Queued video for snapshots", "source", req.Source)
		return true
	default:
		q.logger.Warn("Snapshot queue full, dropping video", "source", req.Source)
		return false
	}
}

// Start processes requests until ctx is cancelled, then works through what is still
// queued for at most the drain timeout. It calls wg.Done when it returns.
func (q *SnapshotQueue) Start(ctx context.Context, wg *sync.WaitGroup, done SnapshotDone) {
	defer wg.Done()

	for {
		select {
		case req := <-q.requests:
			if ctx.Err() != nil {
				// picked after cancellation, hand it to the drain
				q.drain(ctx, done, req)
				return
			}
			q.process(ctx, req, done)
		case <-ctx.Done():
			q.drain(ctx, done)
			return
		}
	}
}

func (q *SnapshotQueue) drain(ctx context.Context, done SnapshotDone, pending ...SnapshotRequest) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.drainTimeout)
	defer cancel()

	for _, req := range pending {
		q.process(drainCtx, req, done)
	}

	for {
		select {
		case req := <-q.requests:
			q.process(drainCtx, req, done)
		case <-drainCtx.Done():
			q.logger.Warn("Snapshot queue drain timeout, dropping remaining videos", "remaining", len(q.requests))
			return
		default:
			return
		}
	}
}

func (q *SnapshotQueue) process(ctx context.Context, req SnapshotRequest, done SnapshotDone) {
	q.logger.Debug("Processing queued video", "source", req.Source, "waited", time.Since(req.Queued))

	set, err := q.job.Run(ctx, req.Source, req.Interval)
	if err != nil {
		q.logger.Error("Snapshot extraction failed", "source", req.Source, "error", err)
	}
	if done != nil {
		done(req, set, err)
	}
}
