package fileutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CopyFile streams src to dst. The destination is written through a
// sibling temp file and renamed into place so a failed copy never
// leaves a truncated dst behind.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, in)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// CopyMode copies the permission bits of src onto dst
func CopyMode(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode().Perm())
}

// SplitExt splits path into base and extension. The extension is the
// text after the last dot of the final path element, without the dot;
// the dot stays with the base. A name with no dot has an empty
// extension.
func SplitExt(path string) (base, ext string) {
	ext = filepath.Ext(path)
	base = strings.TrimSuffix(path, ext)
	if ext != "" && (base == "" || strings.HasSuffix(base, "/") || strings.HasSuffix(base, string(filepath.Separator))) {
		// Dotfiles like ".flacrc": the dot belongs to the name, not an extension
		return path, ""
	}
	if ext != "" {
		base += "."
		ext = ext[1:]
	}
	return base, ext
}

// Ext returns the lower-cased extension of path without the dot
func Ext(path string) string {
	_, ext := SplitExt(path)
	return strings.ToLower(ext)
}
