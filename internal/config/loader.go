package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"transfercode/internal/domain"
)

// flagKeys maps config keys to the CLI flag that overrides them.
var flagKeys = map[string]string{
	"transcode_formats": "transcode-formats",
	"target_format":     "target-format",
	"encoder_options":   "encoder-options",
	"ffmpeg_path":       "ffmpeg-path",
	"ffprobe_path":      "ffprobe-path",
	"rsync_path":        "rsync-path",
	"jobs":              "jobs",
	"force":             "force",
	"dry_run":           "dry-run",
	"delete":            "delete",
	"include_hidden":    "include-hidden",
	"no_checksum_tags":  "no-checksum-tags",
	"temp_dir":          "temp-dir",
	"quiet":             "quiet",
	"verbose":           "verbose",
	"log_file":          "log-file",
	"log_format":        "log-format",
}

// Load builds the configuration from defaults, an optional config
// file, TRANSFERCODE_* environment variables, and the given flag set,
// in increasing priority.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defs := Default()
	v.SetDefault("transcode_formats", defs.TranscodeFormats)
	v.SetDefault("target_format", defs.TargetFormat)
	v.SetDefault("ffmpeg_path", defs.FFmpegPath)
	v.SetDefault("ffprobe_path", defs.FFprobePath)
	v.SetDefault("rsync_path", defs.RsyncPath)
	v.SetDefault("jobs", defs.Jobs)
	v.SetDefault("log_format", defs.LogFormat)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("transfercode")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homeConfigDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix("TRANSFERCODE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing default config file is fine; an explicitly
		// named one is not.
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config: %v", domain.ErrConfigInvalid, err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("%w: binding flag %s: %v", domain.ErrConfigInvalid, name, err)
			}
		}
	}

	cfg := defs
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config: %v", domain.ErrConfigInvalid, err)
	}
	return &cfg, nil
}

func homeConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "transfercode"), nil
}
