// Package config holds the run configuration, merged from built-in
// defaults, an optional config file, environment variables, and CLI
// flags.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"transfercode/internal/domain"
	"transfercode/internal/engine"
)

// Config is the complete configuration of one run
type Config struct {
	// Source and Destination are the positional directory arguments
	Source      string `mapstructure:"source"`
	Destination string `mapstructure:"destination"`

	// TranscodeFormats are the extensions that trigger transcoding
	TranscodeFormats []string `mapstructure:"transcode_formats"`

	// TargetFormat is the output extension for transcoded files
	TargetFormat string `mapstructure:"target_format"`

	// EncoderOptions overrides all encoder defaults when set
	EncoderOptions string `mapstructure:"encoder_options"`

	// EncoderDefaults maps target formats to encoder flags, layered
	// over the compiled-in table
	EncoderDefaults map[string]string `mapstructure:"encoder_defaults"`

	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
	RsyncPath   string `mapstructure:"rsync_path"`

	// Jobs is the parallel transcode count; 0 forces fully
	// sequential operation
	Jobs int `mapstructure:"jobs"`

	Force          bool `mapstructure:"force"`
	DryRun         bool `mapstructure:"dry_run"`
	Delete         bool `mapstructure:"delete"`
	IncludeHidden  bool `mapstructure:"include_hidden"`
	NoChecksumTags bool `mapstructure:"no_checksum_tags"`

	// TempDir holds per-run work directories; empty means the
	// system temp directory
	TempDir string `mapstructure:"temp_dir"`

	Quiet     bool   `mapstructure:"quiet"`
	Verbose   bool   `mapstructure:"verbose"`
	LogFile   string `mapstructure:"log_file"`
	LogFormat string `mapstructure:"log_format"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		TranscodeFormats: []string{"flac", "wv", "wav", "ape", "fla"},
		TargetFormat:     "ogg",
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		RsyncPath:        "rsync",
		Jobs:             runtime.NumCPU(),
		LogFormat:        "text",
	}
}

// Validate checks the configuration before any file is touched
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("%w: source directory is required", domain.ErrConfigInvalid)
	}
	info, err := os.Stat(c.Source)
	if err != nil {
		return fmt.Errorf("%w: source directory %s: %v", domain.ErrConfigInvalid, c.Source, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrNotDirectory, c.Source)
	}

	if c.Destination == "" {
		return fmt.Errorf("%w: destination directory is required", domain.ErrConfigInvalid)
	}

	target := normalizeExt(c.TargetFormat)
	if target == "" {
		return fmt.Errorf("%w: target format is required", domain.ErrConfigInvalid)
	}
	for _, f := range c.TranscodeFormats {
		if normalizeExt(f) == target {
			return fmt.Errorf("%w: %q", domain.ErrTargetInTranscodeSet, target)
		}
	}

	if c.Jobs < 0 {
		return fmt.Errorf("%w: jobs must be non-negative", domain.ErrConfigInvalid)
	}

	if c.TempDir != "" {
		info, err := os.Stat(c.TempDir)
		if err != nil {
			return fmt.Errorf("%w: temp directory %s: %v", domain.ErrConfigInvalid, c.TempDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s", domain.ErrNotDirectory, c.TempDir)
		}
	}

	if c.Quiet && c.Verbose {
		return fmt.Errorf("%w: --quiet and --verbose are mutually exclusive", domain.ErrConfigInvalid)
	}
	return nil
}

// UseChecksum reports whether checksum-tag staleness detection is on
func (c *Config) UseChecksum() bool { return !c.NoChecksumTags }

// ResolveEncoderOptions returns the encoder flags for the target
// format: the explicit override, then the config-file table, then the
// compiled-in defaults, then empty (the engine's own defaults apply).
func (c *Config) ResolveEncoderOptions() string {
	if c.EncoderOptions != "" {
		return c.EncoderOptions
	}
	target := normalizeExt(c.TargetFormat)
	if opts, ok := c.EncoderDefaults[target]; ok {
		return opts
	}
	return engine.DefaultEncoderOptions(target)
}

func normalizeExt(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
}
