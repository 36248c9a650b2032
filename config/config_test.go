package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Recording.Directory != "recordings" || cfg.Snapshots.Directory != "snapshots" {
		t.Errorf("unexpected default directories: %q, %q", cfg.Recording.Directory, cfg.Snapshots.Directory)
	}
	if cfg.Recording.FrameRate != 20 {
		t.Errorf("expected default frame rate 20, got %v", cfg.Recording.FrameRate)
	}
	if cfg.Recording.Codec != "mp4v" || cfg.Recording.Format != "mp4" {
		t.Errorf("unexpected default codec/format: %q/%q", cfg.Recording.Codec, cfg.Recording.Format)
	}
}

func TestLoadConfig_JSONPartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, "clipshot.json", `{"recording": {"directory": "/data/rec", "frame_rate": 25}}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Recording.Directory != "/data/rec" || cfg.Recording.FrameRate != 25 {
		t.Errorf("file values not applied: %+v", cfg.Recording)
	}
	if cfg.Recording.Codec != "mp4v" {
		t.Errorf("expected default codec to survive, got %q", cfg.Recording.Codec)
	}
	if cfg.Snapshots.Quality != 95 {
		t.Errorf("expected default quality, got %d", cfg.Snapshots.Quality)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "clipshot.yaml", `
snapshots:
  directory: stills
  interval_seconds: 2.5
  isolated: true
camera:
  device: /dev/video2
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Snapshots.Directory != "stills" || cfg.Snapshots.IntervalSeconds != 2.5 || !cfg.Snapshots.Isolated {
		t.Errorf("yaml values not applied: %+v", cfg.Snapshots)
	}
	if cfg.Camera.Device != "/dev/video2" {
		t.Errorf("camera device = %q", cfg.Camera.Device)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := writeFile(t, "broken.json", `{"recording": `)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeFile(t, "clipshot.json", `{"recording": {"directory": "from-file", "frame_rate": 10}, "snapshots": {"quality": 50}}`)

	t.Setenv("CLIPSHOT_RECORDING_DIRECTORY", "from-env")
	t.Setenv("CLIPSHOT_SNAPSHOTS_QUALITY", "70")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Recording.Directory != "from-env" {
		t.Errorf("env should override file, got %q", cfg.Recording.Directory)
	}
	if cfg.Recording.FrameRate != 10 {
		t.Errorf("file value without env should remain, got %v", cfg.Recording.FrameRate)
	}
	if cfg.Snapshots.Quality != 70 {
		t.Errorf("env quality not applied, got %d", cfg.Snapshots.Quality)
	}

	dir := "from-flag"
	cfg.Override(ConfigOverrides{RecordingDirectory: &dir})
	if cfg.Recording.Directory != "from-flag" {
		t.Errorf("flag should override env, got %q", cfg.Recording.Directory)
	}
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	t.Setenv("CLIPSHOT_RECORDING_FRAME_RATE", "fast")

	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for unparsable environment value")
	}
}

func TestConfig_Override_IgnoresEmptyValues(t *testing.T) {
	cfg := DefaultConfig()
	empty := ""
	zero := 0.0
	cfg.Override(ConfigOverrides{
		RecordingDirectory: &empty,
		FrameRate:          &zero,
	})

	if cfg.Recording.Directory != "recordings" || cfg.Recording.FrameRate != 20 {
		t.Errorf("empty overrides must not clear values: %+v", cfg.Recording)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"negative frame rate", func(c *Config) { c.Recording.FrameRate = -1 }, "frame_rate"},
		{"bad codec", func(c *Config) { c.Recording.Codec = "h264x" }, "codec"},
		{"zero interval", func(c *Config) { c.Snapshots.IntervalSeconds = 0 }, "interval_seconds"},
		{"quality too high", func(c *Config) { c.Snapshots.Quality = 101 }, "quality"},
		{"unknown recording backend", func(c *Config) { c.Recording.Backend = "vlc" }, "recording.backend"},
		{"unknown snapshot backend", func(c *Config) { c.Snapshots.Backend = "png" }, "snapshots.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSaveConfig_LoadsBack(t *testing.T) {
	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := DefaultConfig()
			cfg.Snapshots.MaxSize = "1280x720"

			if err := SaveConfig(path, cfg); err != nil {
				t.Fatalf("SaveConfig failed: %v", err)
			}
			loaded, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if loaded.Snapshots.MaxSize != "1280x720" {
				t.Errorf("max size lost: %q", loaded.Snapshots.MaxSize)
			}
		})
	}
}

func TestFileSettingsProvider_AppliesOverrides(t *testing.T) {
	path := writeFile(t, "clipshot.json", `{"snapshots": {"directory": "from-file"}}`)
	dir := "from-flag"

	provider, err := NewFileSettingsProvider(path, ConfigOverrides{SnapshotDirectory: &dir}, -1, nil)
	if err != nil {
		t.Fatalf("NewFileSettingsProvider failed: %v", err)
	}
	if got := provider.GetSettings().Snapshots.Directory; got != "from-flag" {
		t.Errorf("expected override to win, got %q", got)
	}
}

func TestFileSettingsProvider_InitialLoadFailure(t *testing.T) {
	_, err := newFileSettingsProvider("x", ConfigOverrides{}, 0, nil, func(string) (*Config, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected initial load failure to be returned")
	}
}

func TestFileSettingsProvider_ReloadsWhenStale(t *testing.T) {
	var loads atomic.Int32
	load := func(string) (*Config, error) {
		n := loads.Add(1)
		cfg := DefaultConfig()
		if n > 1 {
			cfg.Recording.Directory = "reloaded"
		}
		return cfg, nil
	}

	provider, err := newFileSettingsProvider("x", ConfigOverrides{}, time.Millisecond, nil, load)
	if err != nil {
		t.Fatalf("newFileSettingsProvider failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	// first call returns the stale copy and triggers a reload
	if got := provider.GetSettings().Recording.Directory; got != "recordings" {
		t.Errorf("expected stale settings first, got %q", got)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if provider.GetSettings().Recording.Directory == "reloaded" {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("settings were not reloaded")
}

func TestFileSettingsProvider_KeepsSettingsOnReloadError(t *testing.T) {
	var loads atomic.Int32
	load := func(string) (*Config, error) {
		if loads.Add(1) > 1 {
			return nil, errors.New("disk gone")
		}
		return DefaultConfig(), nil
	}

	provider, err := newFileSettingsProvider("x", ConfigOverrides{}, time.Millisecond, nil, load)
	if err != nil {
		t.Fatalf("newFileSettingsProvider failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	provider.GetSettings()

	deadline := time.Now().Add(time.Second)
	for loads.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if got := provider.GetSettings().Recording.Directory; got != "recordings" {
		t.Errorf("expected previous settings after failed reload, got %q", got)
	}
}

func TestStaticAndFuncProviders(t *testing.T) {
	static := NewStaticSettingsProvider(42)
	if static.GetSettings() != 42 {
		t.Error("static provider returned wrong value")
	}

	derived := SettingsProviderFunc[string](func() string { return DefaultConfig().Recording.Codec })
	if derived.GetSettings() != "mp4v" {
		t.Error("func provider returned wrong value")
	}
}
