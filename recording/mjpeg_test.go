package recording

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/yeti47/clipshot/config"
	"github.com/yeti47/clipshot/frames"
)

func TestMJPEGWriterFactory_WritesAVI(t *testing.T) {
	dir := t.TempDir()
	settings := RecordingSettings{Directory: dir, Codec: "MJPG", Format: "avi", FrameRate: 20}
	r := NewFrameRecorder(MJPEGWriterFactory{Quality: 80}, config.NewStaticSettingsProvider(settings), nil, nil)

	for i := 0; i < 3; i++ {
		f := frames.New(32, 24)
		for j := range f.Pix {
			f.Pix[j] = byte(i * 40)
		}
		r.Ingest(f)
	}

	rec, err := r.Finalize(context.Background())
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if filepath.Ext(rec.Path) != ".avi" {
		t.Errorf("expected .avi output, got %s", rec.Path)
	}

	data, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("AVI ")) {
		t.Fatalf("output is not a RIFF/AVI file")
	}
	if n := bytes.Count(data, []byte{0xFF, 0xD8, 0xFF}); n < 3 {
		t.Errorf("expected at least 3 JPEG frames in the container, found %d", n)
	}
}

func TestMJPEGWriter_RejectsMismatchedFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.avi")
	w, err := MJPEGWriterFactory{}.Open(path, "MJPG", 20, 16, 16)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer w.Close()

	if err := w.Write(frames.New(8, 8)); err == nil {
		t.Error("expected error for mismatched frame size")
	}
}

func TestMJPEGWriterFactory_InvalidSize(t *testing.T) {
	if _, err := (MJPEGWriterFactory{}).Open(filepath.Join(t.TempDir(), "x.avi"), "MJPG", 20, 0, 10); err == nil {
		t.Error("expected error for zero width")
	}
}
