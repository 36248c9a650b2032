package snapshots

import (
	"github.com/yeti47/clipshot/config"
)

type SamplingSettings struct {
	Directory string // Directory snapshots are written to by Extract and ExtractIsolated
}

var DefaultSamplingSettings = SamplingSettings{
	Directory: "snapshots",
}

// SamplingSettingsProvider implements SettingsProvider for SamplingSettings
type SamplingSettingsProvider struct {
	configProvider config.SettingsProvider[config.Config]
}

// NewSamplingSettingsProvider creates a new SamplingSettingsProvider
func NewSamplingSettingsProvider(configProvider config.SettingsProvider[config.Config]) *SamplingSettingsProvider {
	return &SamplingSettingsProvider{
		configProvider: configProvider,
	}
}

// GetSettings returns the current sampling settings mapped from the application config
func (p *SamplingSettingsProvider) GetSettings() SamplingSettings {
	cfg := p.configProvider.GetSettings()

	settings := SamplingSettings{
		Directory: cfg.Snapshots.Directory,
	}
	if settings.Directory == "" {
		settings.Directory = DefaultSamplingSettings.Directory
	}
	return settings
}
