package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/yeti47/clipshot/capture"
	"github.com/yeti47/clipshot/common"
	"github.com/yeti47/clipshot/config"
	"github.com/yeti47/clipshot/filemanagement"
	"github.com/yeti47/clipshot/frames"
	"github.com/yeti47/clipshot/inspect"
	"github.com/yeti47/clipshot/logging"
	"github.com/yeti47/clipshot/metrics"
	"github.com/yeti47/clipshot/postprocessing"
	"github.com/yeti47/clipshot/recording"
	"github.com/yeti47/clipshot/resolution"
	"github.com/yeti47/clipshot/snapshots"
	"github.com/yeti47/clipshot/video"
	"gopkg.in/yaml.v3"
)

// application holds what every command needs: the configuration and a logger built from it
type application struct {
	settings *config.FileSettingsProvider
	logger   logging.Logger
	tracker  filemanagement.FileTracker
}

func newApplication(c *cli.Context, overrides config.ConfigOverrides) (*application, error) {
	overrides.LogLevel = stringFlag(c, "log-level")
	overrides.LogDir = stringFlag(c, "log-dir")
	overrides.MetricsAddr = stringFlag(c, "metrics-addr")

	settings, err := config.NewFileSettingsProvider(c.String("config"), overrides, config.DefaultSettingsCacheTimeout, nil)
	if err != nil {
		return nil, err
	}

	cfg := settings.GetSettings()
	logger := newLogger(cfg)
	logger.Debug("Configuration loaded", "file", c.String("config"))

	return &application{
		settings: settings,
		logger:   logger,
		tracker:  filemanagement.NewLocalFileTracker(logger),
	}, nil
}

func newLogger(cfg config.Config) logging.Logger {
	level := logging.ParseLogLevel(cfg.LogLevel)
	if cfg.LogDir != "" {
		return logging.CreateLogger(level, cfg.LogDir, "clipshot")
	}
	return logging.NewConsoleLogger(level)
}

func (a *application) startMetrics(ctx context.Context) {
	if addr := a.settings.GetSettings().MetricsAddr; addr != "" {
		metrics.StartMetricsServer(ctx, addr, a.logger)
	}
}

func runRecord(c *cli.Context) error {
	overrides := config.ConfigOverrides{
		CameraDevice:       stringFlag(c, "device"),
		CameraResolution:   stringFlag(c, "resolution"),
		RecordingDirectory: stringFlag(c, "output-dir"),
		RecordingBackend:   stringFlag(c, "backend"),
		FrameRate:          float64Flag(c, "frame-rate"),
		MaxDurationSeconds: intFlag(c, "duration"),
		PostProcess:        boolFlag(c, "post-process"),
	}

	app, err := newApplication(c, overrides)
	if err != nil {
		return err
	}
	app.startMetrics(c.Context)

	cfg := app.settings.GetSettings()

	captureResolution, err := resolution.Parse(cfg.Camera.Resolution)
	if err != nil {
		return fmt.Errorf("invalid camera resolution: %w", err)
	}

	camera := video.NewCamera(cfg.Camera.Device, captureResolution, app.logger)
	recorder := recording.NewFrameRecorder(
		newWriterFactory(cfg, app.logger),
		recording.NewRecordingSettingsProvider(app.settings),
		app.tracker,
		app.logger,
	)

	var postProcessor postprocessing.PostProcessor
	if cfg.PostProcessing.Enabled {
		postProcessor = postprocessing.NewFfmpegPostProcessor(
			postprocessing.NewPostProcessingSettingsProvider(app.settings),
			common.NewFFmpegCodecProvider(common.FFmpegEncoders, app.logger),
			app.logger,
		)
	}

	session := capture.NewSession(camera, recorder, postProcessor, capture.SessionOptions{
		MaxDuration:     time.Duration(cfg.Recording.MaxDurationSeconds) * time.Second,
		FinalizeTimeout: time.Duration(cfg.Recording.FinalizeTimeoutSeconds) * time.Second,
		Verify:          cfg.Recording.Verify,
		PostProcess:     cfg.PostProcessing.Enabled,
		Preview:         newPreview(c, cfg, app.logger),
	}, app.logger)

	result, err := session.Record(c.Context)
	if result != nil {
		printRecording(c, result)
	} else if err == nil {
		fmt.Fprintln(c.App.Writer, "no frames captured, nothing recorded")
	}
	return err
}

// newPreview returns nil unless --preview was given
func newPreview(c *cli.Context, cfg config.Config, logger logging.Logger) frames.Sink {
	path := c.String("preview")
	if path == "" {
		return nil
	}
	every := int(cfg.Recording.FrameRate)
	if c.IsSet("preview-every") {
		every = c.Int("preview-every")
	}
	return capture.NewPreviewSink(newImageWriter(cfg, resolution.Resolution{}), path, every, logger)
}

func newWriterFactory(cfg config.Config, logger logging.Logger) recording.WriterFactory {
	if cfg.Recording.Backend == "mjpeg" {
		return recording.MJPEGWriterFactory{Quality: cfg.Snapshots.Quality}
	}
	return video.GoCVWriterFactory{Logger: logger}
}

func printRecording(c *cli.Context, result *capture.SessionResult) {
	rec := result.Recording
	fmt.Fprintf(c.App.Writer, "%s\t%s\t%d frames\t%dx%d\t%v\n", rec.Path, rec.MimeType(), rec.Frames, rec.Width, rec.Height, rec.Duration())
	if result.Clip != nil {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%v\n", result.Clip.Path, result.Clip.Codec, result.Clip.Duration)
	}
}

func runSnapshots(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("snapshots needs at least one video file")
	}

	overrides := config.ConfigOverrides{
		SnapshotDirectory: stringFlag(c, "output-dir"),
		SnapshotInterval:  float64Flag(c, "interval"),
		SnapshotQuality:   intFlag(c, "quality"),
		SnapshotBackend:   stringFlag(c, "backend"),
		Isolated:          boolFlag(c, "isolated"),
	}

	app, err := newApplication(c, overrides)
	if err != nil {
		return err
	}
	app.startMetrics(c.Context)

	cfg := app.settings.GetSettings()

	if c.Bool("clean") {
		removed, err := app.tracker.CleanupDirectory(cfg.Snapshots.Directory, snapshots.FilePrefix)
		if err != nil {
			return fmt.Errorf("failed to clean snapshot directory: %w", err)
		}
		app.logger.Info("Removed previous snapshots", "directory", cfg.Snapshots.Directory, "count", removed)
	}

	sampler, err := app.newSampler(cfg)
	if err != nil {
		return err
	}
	job := capture.NewSnapshotJob(sampler, cfg.Snapshots.Isolated, app.logger)
	interval := snapshotInterval(cfg)

	sets, err := job.RunAll(c.Context, c.Args().Slice(), interval)
	for _, set := range sets {
		if set == nil {
			continue
		}
		for _, path := range set.Paths {
			fmt.Fprintln(c.App.Writer, path)
		}
		if set.DegenerateRate {
			fmt.Fprintf(c.App.ErrWriter, "%s: no usable frame rate, every frame was treated as one interval\n", set.Source)
		}
	}
	return err
}

func (a *application) newSampler(cfg config.Config) (*snapshots.SnapshotSampler, error) {
	maxSize, err := resolution.Parse(cfg.Snapshots.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot max size: %w", err)
	}

	var probe snapshots.RateProbe
	if cfg.Snapshots.ProbeRate {
		probe = postprocessing.NewFfprobeRateProbe(a.logger)
	}

	return snapshots.NewSnapshotSampler(
		video.GoCVSourceOpener{},
		newImageWriter(cfg, maxSize),
		probe,
		snapshots.NewSamplingSettingsProvider(a.settings),
		a.tracker,
		a.logger,
	), nil
}

func snapshotInterval(cfg config.Config) time.Duration {
	return time.Duration(math.Round(cfg.Snapshots.IntervalSeconds * float64(time.Second)))
}

func runWatch(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("watch needs exactly one inbox directory")
	}
	inboxDir := c.Args().First()
	if c.Duration("poll") <= 0 {
		return fmt.Errorf("--poll must be positive, got %s", c.Duration("poll"))
	}
	if c.Duration("settle") < 0 {
		return fmt.Errorf("--settle must not be negative, got %s", c.Duration("settle"))
	}

	overrides := config.ConfigOverrides{
		SnapshotDirectory: stringFlag(c, "output-dir"),
		SnapshotInterval:  float64Flag(c, "interval"),
	}

	app, err := newApplication(c, overrides)
	if err != nil {
		return err
	}
	app.startMetrics(c.Context)

	cfg := app.settings.GetSettings()
	if err := app.tracker.EnsureDirectory(inboxDir); err != nil {
		return err
	}

	sampler, err := app.newSampler(cfg)
	if err != nil {
		return err
	}

	// every video gets its own directory, names restart at zero per source
	job := capture.NewSnapshotJob(sampler, true, app.logger)
	queue := capture.NewSnapshotQueue(job, c.Int("queue-size"), c.Duration("drain-timeout"), app.logger)
	deleteSource := c.Bool("delete-source")

	var wg sync.WaitGroup
	wg.Add(1)
	go queue.Start(c.Context, &wg, func(req capture.SnapshotRequest, set *snapshots.SnapshotSet, err error) {
		if err != nil {
			return
		}
		fmt.Fprintf(c.App.Writer, "%s\t%d snapshots\t%s\n", req.Source, set.Len(), set.Directory)
		if deleteSource {
			if err := app.tracker.DeleteFile(req.Source); err != nil {
				app.logger.Warn("Failed to remove processed video", "source", req.Source, "error", err)
			}
		}
	})

	err = capture.Watch(c.Context, capture.NewInbox(inboxDir, c.Duration("settle")), queue, snapshotInterval(cfg), c.Duration("poll"), app.logger)
	wg.Wait()
	return err
}

func newImageWriter(cfg config.Config, maxSize resolution.Resolution) snapshots.ImageWriter {
	if cfg.Snapshots.Backend == "jpeg" {
		return snapshots.JPEGWriter{Quality: cfg.Snapshots.Quality, MaxSize: maxSize}
	}
	return video.GoCVImageWriter{Quality: cfg.Snapshots.Quality, MaxSize: maxSize}
}

func runInspect(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("inspect needs at least one mp4 file")
	}

	var errs []error
	for _, path := range c.Args().Slice() {
		info, err := inspect.ProbeFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		layout := "progressive"
		if info.Fragmented {
			layout = "fragmented"
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%dx%d\t%d frames\t%v\t%.2f fps\t%s\n",
			path, info.Codec, info.Width, info.Height, info.SampleCount, info.Duration, info.FrameRate(), layout)
	}
	return errors.Join(errs...)
}

func runConfigInit(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = c.String("config")
	}

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote default configuration to %s\n", path)
	return nil
}

func runConfigShow(c *cli.Context) error {
	app, err := newApplication(c, config.ConfigOverrides{})
	if err != nil {
		return err
	}

	cfg := app.settings.GetSettings()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = c.App.Writer.Write(data)
	return err
}

// The flag helpers return nil for flags that were not given, so the config value stays.

func stringFlag(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

func intFlag(c *cli.Context, name string) *int {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Int(name)
	return &v
}

func float64Flag(c *cli.Context, name string) *float64 {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Float64(name)
	return &v
}

func boolFlag(c *cli.Context, name string) *bool {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Bool(name)
	return &v
}

func runCodecs(c *cli.Context) error {
	app, err := newApplication(c, config.ConfigOverrides{})
	if err != nil {
		return err
	}
	cfg := app.settings.GetSettings()
	return printCodecs(c.App.Writer, common.NewFFmpegCodecProvider(common.FFmpegEncoders, app.logger), cfg.PostProcessing.OutputCodec)
}

// printCodecs lists the ffmpeg encoders and the one post-processing would use for requested.
func printCodecs(w io.Writer, provider common.CodecProvider, requested string) error {
	available := provider.GetAvailableCodecs()
	if len(available) == 0 {
		return errors.New("no ffmpeg encoders found, is ffmpeg on PATH?")
	}
	for _, name := range slices.Sorted(maps.Keys(available)) {
		fmt.Fprintln(w, name)
	}

	codec, err := provider.GetFallbackCodec(requested)
	if err != nil {
		fmt.Fprintf(w, "post-processing codec %s: unavailable (%v)\n", requested, err)
		return nil
	}
	fmt.Fprintf(w, "post-processing codec %s: using %s\n", requested, codec)
	return nil
}
