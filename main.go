package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/yeti47/clipshot/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCLI().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "clipshot: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "clipshot",
		Usage: "record camera sessions to video files and sample JPEG snapshots from videos",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "clipshot.json",
				Usage:   "configuration file (.json, .yaml or .yml); missing files use the defaults",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides config)"},
			&cli.StringFlag{Name: "log-dir", Usage: "write daily log files to this directory instead of the console (overrides config)"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve /metrics and /healthz on this address, e.g. :9090 (overrides config)"},
		},
		Commands: []*cli.Command{
			recordCommand(),
			snapshotsCommand(),
			watchCommand(),
			inspectCommand(),
			codecsCommand(),
			configCommand(),
		},
	}
}

func recordCommand() *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "capture from a camera, stream URL or video file until interrupted and write one recording",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "device index, file path or stream URL (overrides config)"},
			&cli.StringFlag{Name: "resolution", Usage: "requested capture size, e.g. 1280x720 or 720p (overrides config)"},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "recordings directory (overrides config)"},
			&cli.StringFlag{Name: "backend", Usage: "gocv or mjpeg (overrides config)"},
			&cli.Float64Flag{Name: "frame-rate", Usage: "output frame rate (overrides config)"},
			&cli.IntFlag{Name: "duration", Usage: "stop after this many seconds (overrides config)"},
			&cli.BoolFlag{Name: "post-process", Usage: "transcode the recording with ffmpeg when it is finished (overrides config)"},
			&cli.StringFlag{Name: "preview", Usage: "keep this JPEG updated with the live capture"},
			&cli.IntFlag{Name: "preview-every", Usage: "update the preview every n frames (default: once per second of output)"},
		},
		Action: runRecord,
	}
}

func snapshotsCommand() *cli.Command {
	return &cli.Command{
		Name:      "snapshots",
		Usage:     "write one JPEG per interval from one or more video files",
		ArgsUsage: "<video> [video...]",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "interval", Aliases: []string{"i"}, Usage: "seconds between snapshots (overrides config)"},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "snapshots directory (overrides config)"},
			&cli.IntFlag{Name: "quality", Usage: "JPEG quality 1-100 (overrides config)"},
			&cli.StringFlag{Name: "backend", Usage: "gocv or jpeg (overrides config)"},
			&cli.BoolFlag{Name: "isolated", Usage: "write into a fresh sub directory per video (overrides config)"},
			&cli.BoolFlag{Name: "clean", Usage: "remove existing snapshot files from the output directory first"},
		},
		Action: runSnapshots,
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "extract snapshots from every finished video dropped into a directory until interrupted",
		ArgsUsage: "<inbox>",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "interval", Aliases: []string{"i"}, Usage: "seconds between snapshots (overrides config)"},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "snapshots directory (overrides config)"},
			&cli.DurationFlag{Name: "poll", Value: 2 * time.Second, Usage: "how often the inbox is scanned"},
			&cli.DurationFlag{Name: "settle", Value: 5 * time.Second, Usage: "a video counts as finished once unmodified for this long"},
			&cli.IntFlag{Name: "queue-size", Value: 16, Usage: "videos waiting for extraction before new ones are deferred"},
			&cli.DurationFlag{Name: "drain-timeout", Value: time.Minute, Usage: "time allowed for queued videos after an interrupt"},
			&cli.BoolFlag{Name: "delete-source", Usage: "remove a video once its snapshots are written"},
		},
		Action: runWatch,
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "print the video track of MP4 files",
		ArgsUsage: "<mp4> [mp4...]",
		Action:    runInspect,
	}
}

func codecsCommand() *cli.Command {
	return &cli.Command{
		Name:   "codecs",
		Usage:  "list the ffmpeg encoders available for post-processing",
		Action: runCodecs,
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "manage the configuration file",
		Subcommands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "write the default configuration",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite an existing file"},
				},
				Action: runConfigInit,
			},
			{
				Name:   "show",
				Usage:  "print the effective configuration after env and flag overrides",
				Action: runConfigShow,
			},
		},
	}
}
