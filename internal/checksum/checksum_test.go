package checksum

import (
	"context"
	"strings"
	"testing"

	"transfercode/internal/testutil"
)

func TestReaderDeterministic(t *testing.T) {
	ctx := context.Background()

	a, err := Reader(ctx, strings.NewReader("audio bytes"), "-q:a 5")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Reader(ctx, strings.NewReader("audio bytes"), "-q:a 5")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same input produced different fingerprints: %q vs %q", a, b)
	}
	if len(a) != DigestLen {
		t.Errorf("fingerprint length = %d, want %d", len(a), DigestLen)
	}
}

func TestReaderEncoderOptionsChangeFingerprint(t *testing.T) {
	ctx := context.Background()

	a, err := Reader(ctx, strings.NewReader("audio bytes"), "-q:a 5")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Reader(ctx, strings.NewReader("audio bytes"), "-q:a 7")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("different encoder options produced the same fingerprint")
	}
}

func TestReaderContentChangesFingerprint(t *testing.T) {
	ctx := context.Background()

	a, err := Reader(ctx, strings.NewReader("audio bytes"), "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Reader(ctx, strings.NewReader("other bytes"), "")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("different content produced the same fingerprint")
	}
}

func TestReaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Reader(ctx, strings.NewReader("data"), ""); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestSourceMatchesReader(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := testutil.CreateTestFile(t, dir, "track.flac", []byte("flac payload"))

	fromFile, err := Source(ctx, path, "-opts")
	if err != nil {
		t.Fatal(err)
	}
	fromReader, err := Reader(ctx, strings.NewReader("flac payload"), "-opts")
	if err != nil {
		t.Fatal(err)
	}
	if fromFile != fromReader {
		t.Errorf("Source = %q, Reader = %q", fromFile, fromReader)
	}
}

func TestSourceMissingFile(t *testing.T) {
	if _, err := Source(context.Background(), "/nonexistent/file", ""); err == nil {
		t.Error("expected error for missing file")
	}
}
