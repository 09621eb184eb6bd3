package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"transfercode/internal/config"
	"transfercode/internal/domain"
	"transfercode/internal/engine"
	"transfercode/internal/lock"
	"transfercode/internal/logger"
	"transfercode/internal/mapper"
	"transfercode/internal/scheduler"
	"transfercode/internal/tags"
	"transfercode/internal/transfer"
)

// Sentinel errors mapped to process exit codes by main.
var (
	errPartialFailure = errors.New("some files failed to transfer")
	errCancelled      = errors.New("run cancelled")
)

func newRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "transfercode SOURCE DESTINATION",
		Short: "Mirror a music library, transcoding lossless files on the way",
		Long: `transfercode mirrors the directory tree at SOURCE into DESTINATION.
Files in the transcode formats are re-encoded to the target format;
everything else is copied as-is. Repeat runs only touch files whose
source has changed.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			cfg.Source = args[0]
			cfg.Destination = args[1]
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceP("transcode-formats", "i", config.Default().TranscodeFormats,
		"extensions that trigger transcoding")
	flags.StringP("target-format", "o", config.Default().TargetFormat,
		"output extension for transcoded files")
	flags.StringP("encoder-options", "E", "",
		"encoder flags passed to ffmpeg, overriding the per-format defaults")
	flags.IntP("jobs", "j", config.Default().Jobs,
		"parallel transcode jobs, 0 for fully sequential operation")
	flags.BoolP("force", "f", false,
		"transfer every file even when the destination is up to date")
	flags.BoolP("dry-run", "n", false,
		"log what would happen without touching any file")
	flags.BoolP("delete", "D", false,
		"delete destination files with no corresponding source file")
	flags.BoolP("no-checksum-tags", "k", false,
		"skip checksum tags and rely on modification times alone")
	flags.StringP("temp-dir", "t", "",
		"parent directory for the per-run transcode staging area")
	flags.BoolP("include-hidden", "z", false,
		"also transfer hidden files and directories")
	flags.BoolP("quiet", "q", false, "only log warnings and errors")
	flags.BoolP("verbose", "v", false, "log debug detail")
	flags.String("ffmpeg-path", config.Default().FFmpegPath, "ffmpeg executable")
	flags.String("ffprobe-path", config.Default().FFprobePath, "ffprobe executable")
	flags.String("rsync-path", config.Default().RsyncPath,
		"rsync executable, blank to always use plain copies")
	flags.String("log-file", "", "also write logs to this file, with rotation")
	flags.String("log-format", config.Default().LogFormat, "log format: text or json")
	flags.StringVarP(&cfgFile, "config", "c", "", "configuration file path")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Shutdown()
	log = log.With("run_id", uuid.NewString())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.DryRun {
		if !engine.TestExecutable(cfg.FFmpegPath, "-version") {
			return fmt.Errorf("%w: ffmpeg not runnable at %q", domain.ErrConfigInvalid, cfg.FFmpegPath)
		}
		if !engine.TestExecutable(cfg.FFprobePath, "-version") {
			return fmt.Errorf("%w: ffprobe not runnable at %q", domain.ErrConfigInvalid, cfg.FFprobePath)
		}

		runLock, err := lock.Acquire(cfg.Destination)
		if err != nil {
			return err
		}
		defer func() {
			if err := runLock.Release(); err != nil {
				log.Warn("failed to release run lock", "error", err)
			}
		}()
	}

	env := &transfer.Env{
		Engine: engine.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath, log),
		Copier: engine.NewRsyncCopier(cfg.RsyncPath, log),
		Tags:   tags.NewManager(tags.NewFFmpegEditor(cfg.FFmpegPath, cfg.FFprobePath, log), log),
		Log:    log,
	}

	m, err := mapper.New(cfg.Source, cfg.Destination, cfg.TranscodeFormats, cfg.TargetFormat, cfg.IncludeHidden)
	if err != nil {
		return err
	}

	sched := scheduler.New(m, env, log, newReporter(cfg.Quiet))
	res, err := sched.Run(ctx, scheduler.Options{
		Force:          cfg.Force,
		DryRun:         cfg.DryRun,
		DeleteOrphans:  cfg.Delete,
		Jobs:           cfg.Jobs,
		TempDir:        cfg.TempDir,
		EncoderOptions: cfg.ResolveEncoderOptions(),
		UseChecksum:    cfg.UseChecksum(),
	})
	if err != nil {
		return err
	}

	printSummary(os.Stdout, res)
	switch {
	case res.Cancelled:
		return errCancelled
	case len(res.Failed) > 0:
		return errPartialFailure
	}
	return nil
}

func newLogger(cfg *config.Config) (logger.Logger, error) {
	level := logger.LevelInfo
	switch {
	case cfg.Verbose:
		level = logger.LevelDebug
	case cfg.Quiet:
		level = logger.LevelWarn
	}
	return logger.New(logger.Config{
		Level:  level,
		Format: logger.ParseFormat(cfg.LogFormat),
		Writer: os.Stderr,
		File: logger.FileConfig{
			Enabled:    cfg.LogFile != "",
			Path:       cfg.LogFile,
			MaxSizeMB:  20,
			MaxAgeDays: 14,
			MaxBackups: 5,
			Compress:   true,
		},
	})
}
