package postprocessing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xfrr/goffmpeg/transcoder"
	"github.com/yeti47/clipshot/common"
	"github.com/yeti47/clipshot/config"
	"github.com/yeti47/clipshot/logging"
	"github.com/yeti47/clipshot/metrics"
	"github.com/yeti47/clipshot/recording"
)

const processedSuffix = "_processed"

type PostProcessor interface {
	// ProcessRecording transcodes a finished recording and returns the new clip.
	ProcessRecording(ctx context.Context, rec *recording.Recording) (*VideoClip, error)
}

type FfmpegPostProcessor struct {
	settingsProvider config.SettingsProvider[PostProcessingSettings]
	codecProvider    common.CodecProvider
	logger           logging.Logger
}

// NewFfmpegPostProcessor creates a post processor. codecProvider may be nil, in which
// case the configured codec is used as is.
func NewFfmpegPostProcessor(settingsProvider config.SettingsProvider[PostProcessingSettings], codecProvider common.CodecProvider, logger logging.Logger) *FfmpegPostProcessor {
	return &FfmpegPostProcessor{
		settingsProvider: settingsProvider,
		codecProvider:    codecProvider,
		logger:           logging.OrNop(logger),
	}
}

func (p *FfmpegPostProcessor) ProcessRecording(ctx context.Context, rec *recording.Recording) (*VideoClip, error) {
	// Get the latest settings for this operation.
	settings := p.settingsProvider.GetSettings()
	started := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	codec, err := p.resolveCodec(settings.OutputCodec)
	if err != nil {
		return nil, err
	}

	outputPath := outputPathFor(rec.Path, settings.OutputFormat)

	trans := new(transcoder.Transcoder)
	if err := trans.Initialize(rec.Path, outputPath); err != nil {
		return nil, fmt.Errorf("failed to initialize transcoder: %w", err)
	}

	// video only, no audio
	trans.MediaFile().SetVideoCodec(codec)
	trans.MediaFile().SetOutputFormat(strings.TrimLeft(settings.OutputFormat, "."))
	trans.MediaFile().SetSkipAudio(true)

	if filter := buildFilterChain(settings); filter != "" {
		trans.MediaFile().SetVideoFilter(filter)
	}
	if settings.VideoBitRate != "" {
		trans.MediaFile().SetVideoBitRate(settings.VideoBitRate)
	}

	p.logger.Info("Post-processing recording",
		"source", rec.Path,
		"output", outputPath,
		"codec", codec)

	// Duration comes from the probe done during Initialize
	duration, err := parseDuration(trans.MediaFile().Metadata().Format.Duration)
	if err != nil {
		duration = rec.Duration()
	}

	done := trans.Run(false)
	select {
	case err = <-done:
	case <-ctx.Done():
		// ffmpeg keeps running until it finishes; its output is discarded
		go func() {
			<-done
			os.Remove(outputPath)
		}()
		return nil, fmt.Errorf("post-processing cancelled: %w", ctx.Err())
	}
	if err != nil {
		os.Remove(outputPath)
		return nil, fmt.Errorf("failed to process video: %w", err)
	}

	metrics.StageDuration.WithLabelValues("postprocess").Observe(time.Since(started).Seconds())

	if settings.DeleteOriginal {
		if err := os.Remove(rec.Path); err != nil {
			p.logger.Warn("Failed to remove original recording", "path", rec.Path, "error", err)
		}
	}

	return &VideoClip{
		Path:      outputPath,
		Source:    rec.Path,
		Codec:     codec,
		Format:    strings.TrimLeft(settings.OutputFormat, "."),
		Timestamp: rec.Timestamp,
		Duration:  duration,
	}, nil
}

func (p *FfmpegPostProcessor) resolveCodec(requested string) (string, error) {
	if p.codecProvider == nil || requested == "" {
		return requested, nil
	}
	codec, err := p.codecProvider.GetFallbackCodec(requested)
	if err != nil {
		return "", fmt.Errorf("no usable encoder for %s: %w", requested, err)
	}
	return codec, nil
}

// outputPathFor places the processed file next to the source: recorded_x.mp4 -> recorded_x_processed.mp4
func outputPathFor(sourcePath, format string) string {
	ext := common.NormalizeExtension(format)
	if ext == "" {
		ext = filepath.Ext(sourcePath)
	}
	return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + processedSuffix + ext
}

func buildFilterChain(settings PostProcessingSettings) string {
	var filters []string

	if settings.Grayscale {
		filters = append(filters, "format=gray")
	}
	if !settings.DownscaleResolution.IsEmpty() {
		filters = append(filters, "scale="+settings.DownscaleResolution.Format("w:h"))
	}

	return strings.Join(filters, ",")
}

func parseDuration(durationStr string) (time.Duration, error) {
	if durationStr == "" {
		return 0, fmt.Errorf("empty duration in video metadata")
	}

	durationSeconds, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration '%s': %w", durationStr, err)
	}

	if durationSeconds <= 0 {
		return 0, fmt.Errorf("invalid or zero duration: %f seconds", durationSeconds)
	}

	return time.Duration(durationSeconds * float64(time.Second)), nil
}
