package postprocessing

import (
	"github.com/yeti47/clipshot/config"
	"github.com/yeti47/clipshot/resolution"
)

type PostProcessingSettings struct {
	OutputFormat        string                // Output container format (e.g., "mp4", "webm")
	OutputCodec         string                // ffmpeg encoder to use (e.g., "libx264")
	VideoBitRate        string                // Bitrate for video compression (e.g., "1000k")
	Grayscale           bool                  // Whether to convert video to grayscale
	DownscaleResolution resolution.Resolution // Resolution to downscale video to (e.g., "1280x720")
	DeleteOriginal      bool                  // Remove the source recording after a successful transcode
}

// PostProcessingSettingsProvider implements SettingsProvider for PostProcessingSettings
type PostProcessingSettingsProvider struct {
	configProvider config.SettingsProvider[config.Config]
}

// NewPostProcessingSettingsProvider creates a new PostProcessingSettingsProvider
func NewPostProcessingSettingsProvider(configProvider config.SettingsProvider[config.Config]) *PostProcessingSettingsProvider {
	return &PostProcessingSettingsProvider{
		configProvider: configProvider,
	}
}

// GetSettings returns the current post-processing settings mapped from the application config
func (p *PostProcessingSettingsProvider) GetSettings() PostProcessingSettings {
	cfg := p.configProvider.GetSettings().PostProcessing

	// Parse the downscale resolution string, fallback to empty resolution if parsing fails
	downscaleRes := resolution.EmptyResolution()
	if parsedRes, err := resolution.Parse(cfg.Resolution); err == nil {
		downscaleRes = parsedRes
	}

	return PostProcessingSettings{
		OutputFormat:        cfg.OutputFormat,
		OutputCodec:         cfg.OutputCodec,
		VideoBitRate:        cfg.VideoBitRate,
		Grayscale:           cfg.Grayscale,
		DownscaleResolution: downscaleRes,
		DeleteOriginal:      cfg.DeleteOriginal,
	}
}
