// Package walker enumerates regular files under a directory tree.
package walker

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Files returns the paths of all non-directory files under root, in
// lexical walk order. The returned paths start with root, so an
// absolute root yields absolute paths.
//
// Unless includeHidden is set, dot-prefixed files are skipped and
// dot-prefixed directories are not descended into. The result is a
// materialized slice, never a one-shot iterator: callers may reuse it
// or request a fresh walk at any time.
func Files(root string, includeHidden bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !includeHidden && path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
