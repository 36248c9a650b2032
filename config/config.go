package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable read by LoadConfig.
const EnvPrefix = "CLIPSHOT_"

// Config holds the application configuration
type Config struct {
	LogLevel    string `json:"log_level" yaml:"log_level" env:"LOG_LEVEL"`
	LogDir      string `json:"log_dir" yaml:"log_dir" env:"LOG_DIR"`          // empty logs to the console
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr" env:"METRICS_ADDR"` // empty disables the metrics endpoint

	Camera         CameraConfig         `json:"camera" yaml:"camera" envPrefix:"CAMERA_"`
	Recording      RecordingConfig      `json:"recording" yaml:"recording" envPrefix:"RECORDING_"`
	Snapshots      SnapshotConfig       `json:"snapshots" yaml:"snapshots" envPrefix:"SNAPSHOTS_"`
	PostProcessing PostProcessingConfig `json:"post_processing" yaml:"post_processing" envPrefix:"POSTPROCESSING_"`
}

type CameraConfig struct {
	Device     string `json:"device" yaml:"device" env:"DEVICE"`             // device index, path or stream URL
	Resolution string `json:"resolution" yaml:"resolution" env:"RESOLUTION"` // requested capture size, e.g. "1280x720"; empty keeps the driver default
}

type RecordingConfig struct {
	Directory              string  `json:"directory" yaml:"directory" env:"DIRECTORY"`
	Codec                  string  `json:"codec" yaml:"codec" env:"CODEC"`    // fourcc
	Format                 string  `json:"format" yaml:"format" env:"FORMAT"` // container extension
	FrameRate              float64 `json:"frame_rate" yaml:"frame_rate" env:"FRAME_RATE"`
	Backend                string  `json:"backend" yaml:"backend" env:"BACKEND"` // "gocv" or "mjpeg"
	MaxDurationSeconds     int     `json:"max_duration_seconds" yaml:"max_duration_seconds" env:"MAX_DURATION_SECONDS"` // 0 records until interrupted
	FinalizeTimeoutSeconds int     `json:"finalize_timeout_seconds" yaml:"finalize_timeout_seconds" env:"FINALIZE_TIMEOUT_SECONDS"`
	Verify                 bool    `json:"verify" yaml:"verify" env:"VERIFY"` // inspect finished MP4 recordings
}

type SnapshotConfig struct {
	Directory       string  `json:"directory" yaml:"directory" env:"DIRECTORY"`
	IntervalSeconds float64 `json:"interval_seconds" yaml:"interval_seconds" env:"INTERVAL_SECONDS"`
	Quality         int     `json:"quality" yaml:"quality" env:"QUALITY"`       // JPEG quality 1-100
	MaxSize         string  `json:"max_size" yaml:"max_size" env:"MAX_SIZE"`    // bounding box, e.g. "1280x720"; empty keeps the source size
	Backend         string  `json:"backend" yaml:"backend" env:"BACKEND"`       // "gocv" or "jpeg"
	Isolated        bool    `json:"isolated" yaml:"isolated" env:"ISOLATED"`    // write each extraction into its own sub directory
	ProbeRate       bool    `json:"probe_rate" yaml:"probe_rate" env:"PROBE_RATE"` // ask ffprobe when the decoder reports no frame rate
}

type PostProcessingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled" env:"ENABLED"`
	OutputCodec    string `json:"output_codec" yaml:"output_codec" env:"OUTPUT_CODEC"`
	OutputFormat   string `json:"output_format" yaml:"output_format" env:"OUTPUT_FORMAT"`
	VideoBitRate   string `json:"video_bit_rate" yaml:"video_bit_rate" env:"VIDEO_BIT_RATE"`
	Grayscale      bool   `json:"grayscale" yaml:"grayscale" env:"GRAYSCALE"`
	Resolution     string `json:"resolution" yaml:"resolution" env:"RESOLUTION"`
	DeleteOriginal bool   `json:"delete_original" yaml:"delete_original" env:"DELETE_ORIGINAL"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Camera: CameraConfig{
			Device: "0",
		},
		Recording: RecordingConfig{
			Directory:              "recordings",
			Codec:                  "mp4v",
			Format:                 "mp4",
			FrameRate:              20,
			Backend:                "gocv",
			FinalizeTimeoutSeconds: 120,
			Verify:                 true,
		},
		Snapshots: SnapshotConfig{
			Directory:       "snapshots",
			IntervalSeconds: 5,
			Quality:         95,
			Backend:         "gocv",
			ProbeRate:       true,
		},
		PostProcessing: PostProcessingConfig{
			Enabled:      false,
			OutputCodec:  "libx264",
			OutputFormat: "mp4",
			VideoBitRate: "1000k",
		},
	}
}

// LoadConfig loads configuration from a JSON or YAML file (chosen by extension),
// then applies CLIPSHOT_* environment variables.
// A missing file yields the defaults; an empty filename skips the file entirely.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := unmarshal(filename, data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

func unmarshal(filename string, data []byte, config *Config) error {
	if isYAML(filename) {
		return yaml.Unmarshal(data, config)
	}
	return json.Unmarshal(data, config)
}

// applyDefaults fills in zero values that a partial config file left behind
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.Camera.Device == "" {
		c.Camera.Device = defaults.Camera.Device
	}
	if c.Recording.Directory == "" {
		c.Recording.Directory = defaults.Recording.Directory
	}
	if c.Recording.Codec == "" {
		c.Recording.Codec = defaults.Recording.Codec
	}
	if c.Recording.Format == "" {
		c.Recording.Format = defaults.Recording.Format
	}
	if c.Recording.FrameRate == 0 {
		c.Recording.FrameRate = defaults.Recording.FrameRate
	}
	if c.Recording.Backend == "" {
		c.Recording.Backend = defaults.Recording.Backend
	}
	if c.Recording.FinalizeTimeoutSeconds == 0 {
		c.Recording.FinalizeTimeoutSeconds = defaults.Recording.FinalizeTimeoutSeconds
	}
	if c.Snapshots.Directory == "" {
		c.Snapshots.Directory = defaults.Snapshots.Directory
	}
	if c.Snapshots.IntervalSeconds == 0 {
		c.Snapshots.IntervalSeconds = defaults.Snapshots.IntervalSeconds
	}
	if c.Snapshots.Quality == 0 {
		c.Snapshots.Quality = defaults.Snapshots.Quality
	}
	if c.Snapshots.Backend == "" {
		c.Snapshots.Backend = defaults.Snapshots.Backend
	}
	if c.PostProcessing.OutputCodec == "" {
		c.PostProcessing.OutputCodec = defaults.PostProcessing.OutputCodec
	}
	if c.PostProcessing.OutputFormat == "" {
		c.PostProcessing.OutputFormat = defaults.PostProcessing.OutputFormat
	}
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	var errs []error

	if c.Recording.FrameRate <= 0 || c.Recording.FrameRate > 240 {
		errs = append(errs, fmt.Errorf("recording.frame_rate must be in (0, 240], got %v", c.Recording.FrameRate))
	}
	if len(c.Recording.Codec) != 4 {
		errs = append(errs, fmt.Errorf("recording.codec must be a four character code, got %q", c.Recording.Codec))
	}
	if c.Recording.MaxDurationSeconds < 0 {
		errs = append(errs, fmt.Errorf("recording.max_duration_seconds must not be negative"))
	}
	if c.Recording.FinalizeTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("recording.finalize_timeout_seconds must not be negative"))
	}
	switch c.Recording.Backend {
	case "gocv", "mjpeg":
	default:
		errs = append(errs, fmt.Errorf("recording.backend must be gocv or mjpeg, got %q", c.Recording.Backend))
	}

	if c.Snapshots.IntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("snapshots.interval_seconds must be positive, got %v", c.Snapshots.IntervalSeconds))
	}
	if c.Snapshots.Quality < 1 || c.Snapshots.Quality > 100 {
		errs = append(errs, fmt.Errorf("snapshots.quality must be in [1, 100], got %d", c.Snapshots.Quality))
	}
	switch c.Snapshots.Backend {
	case "gocv", "jpeg":
	default:
		errs = append(errs, fmt.Errorf("snapshots.backend must be gocv or jpeg, got %q", c.Snapshots.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ConfigOverrides holds potential override values for configuration
type ConfigOverrides struct {
	LogLevel           *string
	LogDir             *string
	MetricsAddr        *string
	CameraDevice       *string
	CameraResolution   *string
	RecordingDirectory *string
	RecordingBackend   *string
	FrameRate          *float64
	MaxDurationSeconds *int
	SnapshotDirectory  *string
	SnapshotInterval   *float64
	SnapshotQuality    *int
	SnapshotBackend    *string
	Isolated           *bool
	PostProcess        *bool
}

// Override allows overriding specific configuration values using ConfigOverrides struct
func (c *Config) Override(overrides ConfigOverrides) {
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		c.LogLevel = *overrides.LogLevel
	}
	if overrides.LogDir != nil && *overrides.LogDir != "" {
		c.LogDir = *overrides.LogDir
	}
	if overrides.MetricsAddr != nil && *overrides.MetricsAddr != "" {
		c.MetricsAddr = *overrides.MetricsAddr
	}
	if overrides.CameraDevice != nil && *overrides.CameraDevice != "" {
		c.Camera.Device = *overrides.CameraDevice
	}
	if overrides.CameraResolution != nil && *overrides.CameraResolution != "" {
		c.Camera.Resolution = *overrides.CameraResolution
	}
	if overrides.RecordingDirectory != nil && *overrides.RecordingDirectory != "" {
		c.Recording.Directory = *overrides.RecordingDirectory
	}
	if overrides.RecordingBackend != nil && *overrides.RecordingBackend != "" {
		c.Recording.Backend = *overrides.RecordingBackend
	}
	if overrides.FrameRate != nil && *overrides.FrameRate > 0 {
		c.Recording.FrameRate = *overrides.FrameRate
	}
	if overrides.MaxDurationSeconds != nil && *overrides.MaxDurationSeconds > 0 {
		c.Recording.MaxDurationSeconds = *overrides.MaxDurationSeconds
	}
	if overrides.SnapshotDirectory != nil && *overrides.SnapshotDirectory != "" {
		c.Snapshots.Directory = *overrides.SnapshotDirectory
	}
	if overrides.SnapshotInterval != nil && *overrides.SnapshotInterval > 0 {
		c.Snapshots.IntervalSeconds = *overrides.SnapshotInterval
	}
	if overrides.SnapshotQuality != nil && *overrides.SnapshotQuality > 0 {
		c.Snapshots.Quality = *overrides.SnapshotQuality
	}
	if overrides.SnapshotBackend != nil && *overrides.SnapshotBackend != "" {
		c.Snapshots.Backend = *overrides.SnapshotBackend
	}
	if overrides.Isolated != nil {
		c.Snapshots.Isolated = *overrides.Isolated
	}
	if overrides.PostProcess != nil {
		c.PostProcessing.Enabled = *overrides.PostProcess
	}
}

// SaveConfig writes a configuration as JSON or YAML, depending on the file extension
func SaveConfig(filename string, config *Config) error {
	var data []byte
	var err error
	if isYAML(filename) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
