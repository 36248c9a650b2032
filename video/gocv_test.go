package video

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/yeti47/clipshot/config"
	"github.com/yeti47/clipshot/frames"
	"github.com/yeti47/clipshot/recording"
	"github.com/yeti47/clipshot/resolution"
	"github.com/yeti47/clipshot/snapshots"
	"gocv.io/x/gocv"
)

func TestMatRoundTrip(t *testing.T) {
	f := frames.New(5, 3)
	f.Set(4, 2, 10, 20, 30)

	mat, err := toMat(f)
	if err != nil {
		t.Fatalf("toMat failed: %v", err)
	}
	defer mat.Close()

	if mat.Cols() != 5 || mat.Rows() != 3 || mat.Channels() != 3 {
		t.Fatalf("unexpected mat %dx%dx%d", mat.Cols(), mat.Rows(), mat.Channels())
	}

	back, err := fromMat(mat)
	if err != nil {
		t.Fatalf("fromMat failed: %v", err)
	}
	if b, g, r := back.At(4, 2); b != 10 || g != 20 || r != 30 {
		t.Errorf("pixel changed to %d,%d,%d", b, g, r)
	}
}

func TestFromMat_Gray(t *testing.T) {
	gray := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8U)
	defer gray.Close()
	gray.SetUCharAt(1, 1, 200)

	f, err := fromMat(gray)
	if err != nil {
		t.Fatalf("fromMat failed: %v", err)
	}
	if b, g, r := f.At(1, 1); b != 200 || g != 200 || r != 200 {
		t.Errorf("gray pixel converted to %d,%d,%d", b, g, r)
	}
}

func TestToMat_InvalidFrame(t *testing.T) {
	if _, err := toMat(frames.Frame{Width: 2, Height: 2}); err == nil {
		t.Error("expected error for frame without pixels")
	}
}

func TestGoCVSourceOpener_MissingFile(t *testing.T) {
	_, err := GoCVSourceOpener{}.Open(filepath.Join(t.TempDir(), "missing.mp4"))
	if !snapshots.IsSourceUnavailableError(err) {
		t.Fatalf("expected SourceUnavailableError, got %v", err)
	}
}

func TestGoCVImageWriter_Downscales(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot_0.jpg")
	writer := GoCVImageWriter{Quality: 90, MaxSize: resolution.Resolution{Width: 32, Height: 32}}

	if err := writer.WriteJPEG(path, frames.New(64, 32)); err != nil {
		t.Fatalf("WriteJPEG failed: %v", err)
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Cols() != 32 || img.Rows() != 16 {
		t.Errorf("expected 32x16, got %dx%d", img.Cols(), img.Rows())
	}
}

// Writes a short MJPG/AVI with OpenCV and samples it back.
func TestGoCV_WriteThenSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.avi")

	w, err := GoCVWriterFactory{}.Open(path, "MJPG", 10, 32, 24)
	if err != nil {
		t.Skipf("OpenCV writer unavailable: %v", err)
	}
	for i := 0; i < 20; i++ {
		f := frames.New(32, 24)
		for j := range f.Pix {
			f.Pix[j] = byte(i * 10)
		}
		if err := w.Write(f); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	sampler := snapshots.NewSnapshotSampler(GoCVSourceOpener{}, GoCVImageWriter{}, nil, nil, nil, nil)
	set, err := sampler.ExtractTo(context.Background(), path, filepath.Join(dir, "snapshots"), time.Second)
	if err != nil {
		t.Fatalf("ExtractTo failed: %v", err)
	}
	if set.FramesRead != 20 || set.Len() != set.FramesRead/set.Stride {
		t.Errorf("unexpected snapshot set: %+v", set)
	}
}

// A finalized recording decodes back to exactly the frames that were ingested.
func TestFrameRecorder_GoCVRecordingHoldsEveryFrame(t *testing.T) {
	const n = 17
	settings := recording.RecordingSettings{Directory: t.TempDir(), Codec: "MJPG", Format: "avi", FrameRate: 10}
	recorder := recording.NewFrameRecorder(GoCVWriterFactory{}, config.NewStaticSettingsProvider(settings), nil, nil)

	for i := 0; i < n; i++ {
		f := frames.New(32, 24)
		for j := range f.Pix {
			f.Pix[j] = byte(i * 12)
		}
		recorder.Ingest(f)
	}

	rec, err := recorder.Finalize(context.Background())
	if err != nil {
		t.Skipf("OpenCV writer unavailable: %v", err)
	}
	if rec.Frames != n {
		t.Fatalf("recording reports %d frames, want %d", rec.Frames, n)
	}

	src, err := GoCVSourceOpener{}.Open(rec.Path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	decoded := 0
	for {
		f, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Read failed after %d frames: %v", decoded, err)
		}
		if f.Width != 32 || f.Height != 24 {
			t.Fatalf("frame %d decoded as %dx%d", decoded, f.Width, f.Height)
		}
		decoded++
	}
	if decoded != n {
		t.Errorf("decoded %d frames, want %d", decoded, n)
	}
}
