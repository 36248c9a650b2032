package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yeti47/clipshot/common"
	"github.com/yeti47/clipshot/logging"
)

// Inbox finds finished videos dropped into a directory, for example by an upload handler.
// A file counts as finished once it has not been modified for the settle period.
type Inbox struct {
	dir    string
	settle time.Duration
	seen   map[string]time.Time // path -> modification time when it was handed out
	now    func() time.Time
}

func NewInbox(dir string, settle time.Duration) *Inbox {
	return &Inbox{
		dir:    dir,
		settle: settle,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Poll returns the videos that became ready since the last poll, in name order.
// A file that is modified again after it was returned is returned once more.
func (i *Inbox) Poll() ([]string, error) {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox %s: %w", i.dir, err)
	}

	now := i.now()
	var ready []string
	for _, entry := range entries {
		if entry.IsDir() || !common.IsVideoFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}

		path := filepath.Join(i.dir, entry.Name())
		modified := info.ModTime()
		if now.Sub(modified) < i.settle {
			continue
		}
		if seenAt, ok := i.seen[path]; ok && seenAt.Equal(modified) {
			continue
		}

		i.seen[path] = modified
		ready = append(ready, path)
	}
	return ready, nil
}

// Forget makes path eligible again on the next poll.
func (i *Inbox) Forget(path string) {
	delete(i.seen, path)
}

// Watch polls inbox every pollInterval and queues each ready video until ctx is cancelled.
// Videos the queue cannot take are retried on the next poll.
func Watch(ctx context.Context, inbox *Inbox, queue *SnapshotQueue, interval, pollInterval time.Duration, logger logging.Logger) error {
	if pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", pollInterval)
	}

	logger = logging.OrNop(logger)
	logger.Info("Watching inbox", "directory", inbox.dir, "pollInterval", pollInterval)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ready, err := inbox.Poll()
		if err != nil {
			return err
		}
		for _, path := range ready {
			if !queue.Queue(SnapshotRequest{Source: path, Interval: interval}) {
				inbox.Forget(path)
			}
		}

		select {
		case <-ctx.Done():
			logger.Info("Stopped watching inbox", "directory", inbox.dir)
			return nil
		case <-ticker.C:
		}
	}
}
