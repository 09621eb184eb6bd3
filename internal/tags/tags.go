// Package tags reads and writes music-file metadata through ffprobe
// and ffmpeg stream-copy rewrites. It exposes a narrow dict-like
// capability interface with regexp blacklist filtering, plus the
// custom checksum field used for staleness detection.
package tags

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"transfercode/internal/fileutil"
	"transfercode/internal/logger"
	"transfercode/internal/probe"
)

// ChecksumKey is the custom metadata field holding the source content
// fingerprint. ffmpeg maps it to a TXXX frame for MP3 containers and a
// freeform atom for MP4 containers on its own.
const ChecksumKey = "TRANSFERCODE_SRC_CHECKSUM"

// Editor is the capability interface over one file's metadata
type Editor interface {
	// Read returns all tags of the file at path
	Read(ctx context.Context, path string) (map[string]string, error)

	// Rewrite sets and deletes tags in a single pass. Tags the
	// destination format cannot represent are skipped, not failed.
	Rewrite(ctx context.Context, path string, set map[string]string, del []string) error
}

// FFmpegEditor implements Editor with ffprobe reads and ffmpeg
// container rewrites
type FFmpegEditor struct {
	ffmpegPath string
	prober     *probe.Prober
	log        logger.Logger
}

// NewFFmpegEditor creates an editor using the given binaries. Empty
// paths default to "ffmpeg" and "ffprobe" on $PATH.
func NewFFmpegEditor(ffmpegPath, ffprobePath string, log logger.Logger) *FFmpegEditor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FFmpegEditor{
		ffmpegPath: ffmpegPath,
		prober:     probe.New(ffprobePath),
		log:        log,
	}
}

// Read returns the merged container and audio-stream tags of path
func (e *FFmpegEditor) Read(ctx context.Context, path string) (map[string]string, error) {
	result, err := e.prober.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	return result.Tags(), nil
}

// Rewrite rewrites the container with -c copy, applying the given tag
// updates and deletions, then renames the result over the original.
// The audio bytes are never re-encoded.
func (e *FFmpegEditor) Rewrite(ctx context.Context, path string, set map[string]string, del []string) error {
	if len(set) == 0 && len(del) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	base, ext := fileutil.SplitExt(filepath.Base(path))

	pattern := strings.TrimSuffix(base, ".") + ".tagedit-*"
	if ext != "" {
		pattern += "." + ext
	}
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("create tag rewrite temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	args := []string{"-y", "-nostdin", "-i", path, "-map", "0", "-c", "copy"}
	// Deletions first so a key present in both lists ends up set
	for _, k := range sortedKeys(del) {
		args = append(args, "-metadata", k+"=")
	}
	for _, k := range sortedMapKeys(set) {
		args = append(args, "-metadata", k+"="+set[k])
	}
	args = append(args, tmpPath)

	e.log.Debug("rewriting tags", "path", path, "set", len(set), "del", len(del))

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ffmpeg tag rewrite of %q: %w: %s", path, err, tail(out))
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %q with rewritten file: %w", path, err)
	}
	return nil
}

func sortedKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}

func sortedMapKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// tail returns the last few lines of subprocess output for error context
func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	lines := strings.Split(s, "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, "; ")
}
