package config

import (
	"testing"

	"github.com/spf13/pflag"

	"transfercode/internal/testutil"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TargetFormat != "ogg" {
		t.Errorf("target format = %q, want ogg", cfg.TargetFormat)
	}
	if len(cfg.TranscodeFormats) == 0 {
		t.Error("no default transcode formats")
	}
	if cfg.Jobs <= 0 {
		t.Errorf("default jobs = %d, want > 0", cfg.Jobs)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := testutil.CreateTestFile(t, t.TempDir(), "transfercode.yaml", []byte(`
target_format: opus
jobs: 2
encoder_defaults:
  opus: "-b:a 128k"
`))

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TargetFormat != "opus" {
		t.Errorf("target format = %q, want opus", cfg.TargetFormat)
	}
	if cfg.Jobs != 2 {
		t.Errorf("jobs = %d, want 2", cfg.Jobs)
	}
	if cfg.EncoderDefaults["opus"] != "-b:a 128k" {
		t.Errorf("encoder defaults = %v", cfg.EncoderDefaults)
	}
	if cfg.ResolveEncoderOptions() != "-b:a 128k" {
		t.Errorf("resolved options = %q", cfg.ResolveEncoderOptions())
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load("/nonexistent/transfercode.yaml", nil); err == nil {
		t.Error("expected error for an explicitly named missing config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TRANSFERCODE_TARGET_FORMAT", "mp3")
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TargetFormat != "mp3" {
		t.Errorf("target format = %q, want env override mp3", cfg.TargetFormat)
	}
}

func TestLoadFlagOverride(t *testing.T) {
	path := testutil.CreateTestFile(t, t.TempDir(), "transfercode.yaml", []byte("jobs: 2\n"))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.IntP("jobs", "j", Default().Jobs, "")
	if err := fs.Parse([]string{"--jobs", "7"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, fs)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Jobs != 7 {
		t.Errorf("jobs = %d, want the flag override 7", cfg.Jobs)
	}
}

func TestLoadUnsetFlagYieldsToConfigFile(t *testing.T) {
	path := testutil.CreateTestFile(t, t.TempDir(), "transfercode.yaml", []byte("jobs: 2\n"))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.IntP("jobs", "j", Default().Jobs, "")
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, fs)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Jobs != 2 {
		t.Errorf("jobs = %d, want the config file value 2", cfg.Jobs)
	}
}
