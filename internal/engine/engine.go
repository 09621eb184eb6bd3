// Package engine drives the external transcoding and copy tools.
package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"transfercode/internal/domain"
	"transfercode/internal/logger"
	"transfercode/internal/probe"
)

// Transcoder converts one audio file into another format
type Transcoder interface {
	// Identify fails fast when path cannot be parsed as a media file
	// with at least one audio stream
	Identify(ctx context.Context, path string) error

	// Transcode converts src into dest using the given encoder flags.
	// Callers must check for dest's existence themselves: an engine
	// exiting zero without producing output is a distinct failure.
	Transcode(ctx context.Context, src, dest string, encoderArgs []string) error
}

// FFmpeg implements Transcoder by invoking the ffmpeg binary
type FFmpeg struct {
	path   string
	prober *probe.Prober
	log    logger.Logger
}

// NewFFmpeg creates a Transcoder. Empty paths default to "ffmpeg" and
// "ffprobe" on $PATH.
func NewFFmpeg(ffmpegPath, ffprobePath string, log logger.Logger) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FFmpeg{
		path:   ffmpegPath,
		prober: probe.New(ffprobePath),
		log:    log,
	}
}

// Identify probes path and verifies it carries an audio stream
func (f *FFmpeg) Identify(ctx context.Context, path string) error {
	result, err := f.prober.Probe(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrNotMediaFile, path, err)
	}
	if !result.HasAudio() {
		return fmt.Errorf("%w: %s: no audio stream", domain.ErrNotMediaFile, path)
	}
	return nil
}

// Transcode runs ffmpeg with video streams disabled. Stderr is
// captured and attached to the error on failure.
func (f *FFmpeg) Transcode(ctx context.Context, src, dest string, encoderArgs []string) error {
	args := []string{"-y", "-nostdin", "-i", src, "-vn"}
	args = append(args, encoderArgs...)
	args = append(args, dest)

	f.log.Debug("transcode command", "binary", f.path, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, f.path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %q -> %q: %w: %s", src, dest, err, outputTail(out))
	}
	return nil
}

// TestExecutable reports whether exe can be run at all, by invoking it
// with probeArgs against the null device
func TestExecutable(exe string, probeArgs ...string) bool {
	if exe == "" {
		return false
	}
	if len(probeArgs) == 0 {
		probeArgs = []string{"--help"}
	}
	cmd := exec.Command(exe, probeArgs...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}

// outputTail returns the last few lines of subprocess output
func outputTail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return "(no output)"
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, "; ")
}

// statIsFile reports whether path exists and is a regular file
func statIsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
