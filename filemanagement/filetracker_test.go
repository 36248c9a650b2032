package filemanagement

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
}

func TestLocalFileTracker_EnsureDirectory(t *testing.T) {
	tracker := NewLocalFileTracker(nil)
	dir := filepath.Join(t.TempDir(), "a", "b")

	if err := tracker.EnsureDirectory(dir); err != nil {
		t.Fatalf("EnsureDirectory failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}

	// idempotent
	if err := tracker.EnsureDirectory(dir); err != nil {
		t.Errorf("second EnsureDirectory failed: %v", err)
	}
}

func TestLocalFileTracker_EnsureDirectory_FileInTheWay(t *testing.T) {
	tracker := NewLocalFileTracker(nil)
	blocker := filepath.Join(t.TempDir(), "blocker")
	touch(t, blocker)

	if err := tracker.EnsureDirectory(filepath.Join(blocker, "sub")); err == nil {
		t.Error("expected error when a file blocks the directory path")
	}
}

func TestLocalFileTracker_DeleteFile(t *testing.T) {
	tracker := NewLocalFileTracker(nil)
	path := filepath.Join(t.TempDir(), "clip.mp4")
	touch(t, path)

	if err := tracker.DeleteFile(path); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists")
	}

	// missing files are fine
	if err := tracker.DeleteFile(path); err != nil {
		t.Errorf("DeleteFile on missing file returned %v", err)
	}
}

func TestLocalFileTracker_DeleteFiles(t *testing.T) {
	tracker := NewLocalFileTracker(nil)
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.jpg"), filepath.Join(dir, "missing.jpg")}
	touch(t, paths[0])
	touch(t, paths[1])

	if err := tracker.DeleteFiles(paths); err != nil {
		t.Fatalf("DeleteFiles failed: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty directory, found %d entries", len(entries))
	}
}

func TestLocalFileTracker_CleanupDirectory(t *testing.T) {
	tracker := NewLocalFileTracker(nil)
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "snapshot_0.jpg"))
	touch(t, filepath.Join(dir, "snapshot_1.jpg"))
	touch(t, filepath.Join(dir, "keep.txt"))
	if err := os.Mkdir(filepath.Join(dir, "snapshot_dir"), 0755); err != nil {
		t.Fatal(err)
	}

	removed, err := tracker.CleanupDirectory(dir, "snapshot_")
	if err != nil {
		t.Fatalf("CleanupDirectory failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 files removed, got %d", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.txt")); err != nil {
		t.Error("unrelated file was removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "snapshot_dir")); err != nil {
		t.Error("directories must not be removed")
	}
}

func TestLocalFileTracker_CleanupDirectory_Missing(t *testing.T) {
	tracker := NewLocalFileTracker(nil)

	removed, err := tracker.CleanupDirectory(filepath.Join(t.TempDir(), "nope"), "")
	if err != nil || removed != 0 {
		t.Errorf("expected (0, nil) for missing directory, got (%d, %v)", removed, err)
	}
}
