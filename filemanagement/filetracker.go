package filemanagement

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yeti47/clipshot/logging"
)

// FileTracker manages output directories and cleanup of partial output
type FileTracker interface {
	// EnsureDirectory creates the directory (and parents) if it doesn't exist
	EnsureDirectory(dir string) error

	// DeleteFile removes a file from disk. Missing files are not an error.
	DeleteFile(filePath string) error

	// DeleteFiles removes every given file and returns the joined errors
	DeleteFiles(filePaths []string) error

	// CleanupDirectory removes files in dir whose names start with prefix and returns how many were removed
	CleanupDirectory(dir, prefix string) (int, error)
}

// LocalFileTracker implements FileTracker for local filesystem
type LocalFileTracker struct {
	logger logging.Logger
	mu     sync.Mutex
}

// NewLocalFileTracker creates a new local file tracker
func NewLocalFileTracker(logger logging.Logger) *LocalFileTracker {
	return &LocalFileTracker{
		logger: logging.OrNop(logger),
	}
}

// EnsureDirectory creates the directory if it doesn't exist
func (t *LocalFileTracker) EnsureDirectory(dir string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// DeleteFile removes a file from disk
func (t *LocalFileTracker) DeleteFile(filePath string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.deleteFile(filePath)
}

func (t *LocalFileTracker) deleteFile(filePath string) error {
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		t.logger.Error("Failed to remove file", "path", filePath, "error", err)
		return err
	}
	t.logger.Debug("Deleted file", "path", filePath)
	return nil
}

// DeleteFiles removes all given files, continuing past failures
func (t *LocalFileTracker) DeleteFiles(filePaths []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for _, p := range filePaths {
		if err := t.deleteFile(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CleanupDirectory removes all regular files in dir that start with prefix
func (t *LocalFileTracker) CleanupDirectory(dir, prefix string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		filePath := filepath.Join(dir, entry.Name())
		if err := t.deleteFile(filePath); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		t.logger.Info("Cleaned up directory", "dir", dir, "prefix", prefix, "removed", removed)
	}
	return removed, errors.Join(errs...)
}
