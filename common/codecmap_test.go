package common

import (
	"errors"
	"testing"
)

const sampleEncoders = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libopenh264          OpenH264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
 V....D mpeg4                MPEG-4 part 2
 V..... mjpeg                MJPEG (Motion JPEG)
 A....D aac                  AAC (Advanced Audio Coding)
`

func staticEncoders(out string) EncoderLister {
	return func() ([]byte, error) { return []byte(out), nil }
}

func TestFFmpegCodecProvider_ParsesEncoderList(t *testing.T) {
	provider := NewFFmpegCodecProvider(staticEncoders(sampleEncoders), nil)

	for _, codec := range []string{"libopenh264", "mpeg4", "mjpeg", "aac"} {
		if !provider.IsCodecAvailable(codec) {
			t.Errorf("expected %s to be available", codec)
		}
	}
	if provider.IsCodecAvailable("libx264") {
		t.Error("libx264 should not be available")
	}
	if provider.IsCodecAvailable("Video") {
		t.Error("legend lines must not be parsed as codecs")
	}
}

func TestGetAvailableCodecs_ReturnsCopy(t *testing.T) {
	provider := NewFFmpegCodecProvider(staticEncoders(sampleEncoders), nil)

	codecs1 := provider.GetAvailableCodecs()
	codecs1["modification_test"] = true

	codecs2 := provider.GetAvailableCodecs()
	if _, exists := codecs2["modification_test"]; exists {
		t.Error("GetAvailableCodecs() doesn't return independent copies")
	}
	if len(codecs2) != 4 {
		t.Errorf("expected 4 codecs, got %d", len(codecs2))
	}
}

func TestGetFallbackCodec(t *testing.T) {
	provider := NewFFmpegCodecProvider(staticEncoders(sampleEncoders), nil)

	tests := []struct {
		name      string
		requested string
		want      string
		wantErr   bool
	}{
		{"available codec returns itself", "mpeg4", "mpeg4", false},
		{"libx264 falls back to openh264", "libx264", "libopenh264", false},
		{"libx265 falls back to openh264", "libx265", "libopenh264", false},
		{"unknown codec without chain", "definitely_nonexistent_codec", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := provider.GetFallbackCodec(tt.requested)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetFallbackCodec(%q) error = %v, wantErr %v", tt.requested, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GetFallbackCodec(%q) = %q, want %q", tt.requested, got, tt.want)
			}
		})
	}
}

func TestGetFallbackCodec_ExhaustedChain(t *testing.T) {
	provider := NewFFmpegCodecProvider(staticEncoders(" V..... mjpeg   MJPEG\n"), nil)

	if _, err := provider.GetFallbackCodec("libx264"); err == nil {
		t.Error("expected error when no codec in the chain is available")
	}
}

func TestFFmpegCodecProvider_ListerFailure(t *testing.T) {
	calls := 0
	provider := NewFFmpegCodecProvider(func() ([]byte, error) {
		calls++
		return nil, errors.New("ffmpeg not found")
	}, nil)

	if provider.IsCodecAvailable("libx264") {
		t.Error("no codec should be available when ffmpeg cannot be queried")
	}
	provider.GetAvailableCodecs()
	if calls != 1 {
		t.Errorf("expected encoders to be queried once, got %d", calls)
	}
}

func TestCodecToFileExtension(t *testing.T) {
	tests := map[string]string{
		"mp4v": ".mp4",
		"MJPG": ".avi",
		"avc1": ".mp4",
		"VP90": ".webm",
		"XVID": ".avi",
	}
	for codec, want := range tests {
		if got := CodecToFileExtension(codec); got != want {
			t.Errorf("CodecToFileExtension(%q) = %q, want %q", codec, got, want)
		}
	}
}

func TestNormalizeExtension(t *testing.T) {
	tests := map[string]string{
		"mp4":   ".mp4",
		".MP4":  ".mp4",
		"..avi": ".avi",
		"":      "",
	}
	for in, want := range tests {
		if got := NormalizeExtension(in); got != want {
			t.Errorf("NormalizeExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVideoFormatToMimeType(t *testing.T) {
	if got := VideoFormatToMimeType(".avi"); got != "video/x-msvideo" {
		t.Errorf("got %q", got)
	}
	if got := VideoFormatToMimeType("unknown"); got != "video/mp4" {
		t.Errorf("got %q", got)
	}
}

func TestIsVideoFile(t *testing.T) {
	tests := map[string]bool{
		"inbox/clip.mp4":     true,
		"CLIP.AVI":           true,
		"clip.webm":          true,
		"notes.txt":          false,
		"clip.mp4.part":      false,
		"archive.d/snapshot": false,
		"mp4":                false,
	}
	for path, want := range tests {
		if got := IsVideoFile(path); got != want {
			t.Errorf("IsVideoFile(%q) = %v, want %v", path, got, want)
		}
	}
}
