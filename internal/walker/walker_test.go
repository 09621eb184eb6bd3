package walker

import (
	"path/filepath"
	"sort"
	"testing"

	"transfercode/internal/testutil"
)

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, rel)
	}
	sort.Strings(out)
	return out
}

func TestFilesSkipsHidden(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "a.flac", nil)
	testutil.CreateTestFile(t, dir, "album/b.mp3", nil)
	testutil.CreateTestFile(t, dir, ".hidden.flac", nil)
	testutil.CreateTestFile(t, dir, ".hiddendir/c.flac", nil)
	testutil.CreateTestFile(t, dir, "album/.nested-hidden", nil)

	files, err := Files(dir, false)
	if err != nil {
		t.Fatal(err)
	}

	got := relAll(t, dir, files)
	want := []string{"a.flac", filepath.Join("album", "b.mp3")}
	if len(got) != len(want) {
		t.Fatalf("Files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Files[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFilesIncludeHidden(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "a.flac", nil)
	testutil.CreateTestFile(t, dir, ".hidden.flac", nil)
	testutil.CreateTestFile(t, dir, ".hiddendir/c.flac", nil)

	files, err := Files(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Errorf("Files with hidden = %d entries, want 3", len(files))
	}
}

func TestFilesHiddenRootStillWalked(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, ".library")
	testutil.CreateTestFile(t, root, "a.flac", nil)

	files, err := Files(root, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("hidden root yielded %d files, want 1", len(files))
	}
}

func TestFilesReusable(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "a.flac", nil)

	first, err := Files(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Files(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("repeated walks differ: %v vs %v", first, second)
	}
}

func TestFilesMissingRoot(t *testing.T) {
	if _, err := Files(filepath.Join(t.TempDir(), "nope"), false); err == nil {
		t.Error("expected error for missing root")
	}
}
