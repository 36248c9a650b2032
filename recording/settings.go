package recording

import (
	"github.com/yeti47/clipshot/config"
)

type RecordingSettings struct {
	Directory string  // Directory recordings are written to
	Codec     string  // Four character code passed to the writer (e.g., "mp4v", "MJPG")
	Format    string  // Container extension without dot (e.g., "mp4", "avi")
	FrameRate float64 // Output frame rate, independent of the capture cadence
}

var DefaultRecordingSettings = RecordingSettings{
	Directory: "recordings",
	Codec:     "mp4v",
	Format:    "mp4",
	FrameRate: 20.0,
}

// withDefaults fills zero fields from DefaultRecordingSettings
func (s RecordingSettings) withDefaults() RecordingSettings {
	if s.Directory == "" {
		s.Directory = DefaultRecordingSettings.Directory
	}
	if s.Codec == "" {
		s.Codec = DefaultRecordingSettings.Codec
	}
	if s.Format == "" {
		s.Format = DefaultRecordingSettings.Format
	}
	if s.FrameRate <= 0 {
		s.FrameRate = DefaultRecordingSettings.FrameRate
	}
	return s
}

// RecordingSettingsProvider implements SettingsProvider for RecordingSettings
type RecordingSettingsProvider struct {
	configProvider config.SettingsProvider[config.Config]
}

// NewRecordingSettingsProvider creates a new RecordingSettingsProvider
func NewRecordingSettingsProvider(configProvider config.SettingsProvider[config.Config]) *RecordingSettingsProvider {
	return &RecordingSettingsProvider{
		configProvider: configProvider,
	}
}

// GetSettings returns the current recording settings mapped from the application config
func (p *RecordingSettingsProvider) GetSettings() RecordingSettings {
	cfg := p.configProvider.GetSettings()

	settings := RecordingSettings{
		Directory: cfg.Recording.Directory,
		Codec:     cfg.Recording.Codec,
		Format:    cfg.Recording.Format,
		FrameRate: cfg.Recording.FrameRate,
	}

	// the pure-Go backend only writes Motion-JPEG in AVI
	if cfg.Recording.Backend == "mjpeg" {
		settings.Codec = "MJPG"
		settings.Format = "avi"
	}

	return settings.withDefaults()
}
