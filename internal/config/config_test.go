package config

import (
	"errors"
	"path/filepath"
	"testing"

	"transfercode/internal/domain"
	"transfercode/internal/testutil"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := Default()
	cfg.Source = t.TempDir()
	cfg.Destination = filepath.Join(t.TempDir(), "mirror")
	return &cfg
}

func TestValidateOK(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateMissingSource(t *testing.T) {
	cfg := validConfig(t)
	cfg.Source = ""
	if err := cfg.Validate(); !errors.Is(err, domain.ErrConfigInvalid) {
		t.Errorf("err = %v, want ErrConfigInvalid", err)
	}

	cfg = validConfig(t)
	cfg.Source = filepath.Join(t.TempDir(), "nope")
	if err := cfg.Validate(); !errors.Is(err, domain.ErrConfigInvalid) {
		t.Errorf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestValidateSourceIsFile(t *testing.T) {
	cfg := validConfig(t)
	cfg.Source = testutil.CreateTestFile(t, t.TempDir(), "file.txt", nil)
	if err := cfg.Validate(); !errors.Is(err, domain.ErrNotDirectory) {
		t.Errorf("err = %v, want ErrNotDirectory", err)
	}
}

func TestValidateTargetInTranscodeSet(t *testing.T) {
	cfg := validConfig(t)
	cfg.TargetFormat = "flac"
	if err := cfg.Validate(); !errors.Is(err, domain.ErrTargetInTranscodeSet) {
		t.Errorf("err = %v, want ErrTargetInTranscodeSet", err)
	}

	// Normalization: dots and case must not defeat the check
	cfg = validConfig(t)
	cfg.TargetFormat = ".FLAC"
	if err := cfg.Validate(); !errors.Is(err, domain.ErrTargetInTranscodeSet) {
		t.Errorf("err = %v, want ErrTargetInTranscodeSet", err)
	}
}

func TestValidateNegativeJobs(t *testing.T) {
	cfg := validConfig(t)
	cfg.Jobs = -1
	if err := cfg.Validate(); !errors.Is(err, domain.ErrConfigInvalid) {
		t.Errorf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestValidateQuietVerboseConflict(t *testing.T) {
	cfg := validConfig(t)
	cfg.Quiet = true
	cfg.Verbose = true
	if err := cfg.Validate(); !errors.Is(err, domain.ErrConfigInvalid) {
		t.Errorf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestResolveEncoderOptions(t *testing.T) {
	cfg := Default()
	cfg.TargetFormat = "ogg"

	// Built-in default
	if got := cfg.ResolveEncoderOptions(); got == "" {
		t.Error("no built-in encoder options for ogg")
	}

	// Config table overrides the built-in entry
	cfg.EncoderDefaults = map[string]string{"ogg": "-q:a 9"}
	if got := cfg.ResolveEncoderOptions(); got != "-q:a 9" {
		t.Errorf("table entry not used: %q", got)
	}

	// The explicit flag overrides everything
	cfg.EncoderOptions = "-b:a 320k"
	if got := cfg.ResolveEncoderOptions(); got != "-b:a 320k" {
		t.Errorf("explicit options not used: %q", got)
	}
}

func TestResolveEncoderOptionsUnknownFormat(t *testing.T) {
	cfg := Default()
	cfg.TargetFormat = "wma"
	if got := cfg.ResolveEncoderOptions(); got != "" {
		t.Errorf("unknown format resolved to %q, want empty", got)
	}
}

func TestUseChecksum(t *testing.T) {
	cfg := Default()
	if !cfg.UseChecksum() {
		t.Error("checksums should default to on")
	}
	cfg.NoChecksumTags = true
	if cfg.UseChecksum() {
		t.Error("NoChecksumTags did not disable checksums")
	}
}
