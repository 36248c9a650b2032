package recording

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yeti47/clipshot/common"
)

const (
	filePrefix      = "recorded_"
	timestampLayout = "20060102_150405"
	maxNameAttempts = 1000
)

// FileName derives the output name from the session start, e.g. recorded_20240301_101502_123456.mp4
func FileName(start time.Time, format string) string {
	return baseName(start) + common.NormalizeExtension(format)
}

func baseName(start time.Time) string {
	return fmt.Sprintf("%s%s_%06d", filePrefix, start.Format(timestampLayout), start.Nanosecond()/1000)
}

// uniquePath returns a path in dir that does not exist yet, adding _1, _2, ... when needed.
func uniquePath(dir string, start time.Time, format string) (string, error) {
	base := baseName(start)
	ext := common.NormalizeExtension(format)

	candidate := filepath.Join(dir, base+ext)
	for i := 1; i <= maxNameAttempts; i++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
	}
	return "", fmt.Errorf("no free file name for %s%s after %d attempts", base, ext, maxNameAttempts)
}
