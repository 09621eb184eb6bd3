package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"transfercode/internal/testutil"
)

func TestRsyncCopierFallback(t *testing.T) {
	// An empty tool path forces the plain-copy fallback
	c := NewRsyncCopier("", nil)

	dir := t.TempDir()
	src := testutil.CreateTestFile(t, dir, "src.mp3", []byte("mp3 bytes"))
	if err := os.Chmod(src, 0640); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "dest.mp3")

	if err := c.Copy(context.Background(), src, dest); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if got := testutil.ReadFile(t, dest); string(got) != "mp3 bytes" {
		t.Errorf("copied content = %q", got)
	}
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("dest mode = %o, want 640", info.Mode().Perm())
	}
}

func TestRsyncCopierUnrunnableTool(t *testing.T) {
	// A nonexistent tool is detected at construction and never used
	c := NewRsyncCopier("/nonexistent/rsync", nil)
	if c.available {
		t.Fatal("nonexistent tool reported available")
	}

	dir := t.TempDir()
	src := testutil.CreateTestFile(t, dir, "a.txt", []byte("data"))
	dest := filepath.Join(dir, "b.txt")
	if err := c.Copy(context.Background(), src, dest); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if !testutil.Exists(dest) {
		t.Error("fallback copy produced no file")
	}
}

func TestTestExecutable(t *testing.T) {
	if TestExecutable("") {
		t.Error("empty path reported runnable")
	}
	if TestExecutable("/nonexistent/binary") {
		t.Error("nonexistent binary reported runnable")
	}
	if !TestExecutable("/bin/sh", "-c", "true") {
		t.Skip("no /bin/sh available")
	}
}
