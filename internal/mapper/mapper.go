// Package mapper derives destination paths from source paths and
// enumerates the transfer units of a run.
package mapper

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"transfercode/internal/domain"
	"transfercode/internal/fileutil"
	"transfercode/internal/transfer"
	"transfercode/internal/walker"
)

// Mapper converts source paths to destination paths. Files whose
// extension is in the transcode set map to the target extension; all
// other files keep their name.
type Mapper struct {
	srcRoot       string
	destRoot      string
	transcodeExts map[string]struct{}
	targetExt     string
	includeHidden bool
}

// New creates a Mapper. Both roots are made absolute; the source root
// must exist.
func New(srcRoot, destRoot string, transcodeFormats []string, targetFormat string, includeHidden bool) (*Mapper, error) {
	absSrc, err := canonicalize(srcRoot)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	absDest, err := canonicalize(destRoot)
	if err != nil {
		return nil, fmt.Errorf("destination directory: %w", err)
	}

	exts := make(map[string]struct{}, len(transcodeFormats))
	for _, e := range transcodeFormats {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts[e] = struct{}{}
		}
	}

	return &Mapper{
		srcRoot:       absSrc,
		destRoot:      absDest,
		transcodeExts: exts,
		targetExt:     strings.ToLower(strings.TrimPrefix(targetFormat, ".")),
		includeHidden: includeHidden,
	}, nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	// Nonexistent paths (a destination created later) stay as-is
	return abs, nil
}

// SourceRoot returns the canonicalized source root
func (m *Mapper) SourceRoot() string { return m.srcRoot }

// DestRoot returns the canonicalized destination root
func (m *Mapper) DestRoot() string { return m.destRoot }

// Map returns the absolute destination path for a source path. A
// relative source is taken as relative to the source root; either way
// the path must resolve to somewhere inside it.
func (m *Mapper) Map(src string) (string, error) {
	abs := src
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(m.srcRoot, abs)
	}
	rel, err := filepath.Rel(m.srcRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathOutsideRoot, src)
	}

	base, ext := fileutil.SplitExt(rel)
	if _, ok := m.transcodeExts[strings.ToLower(ext)]; ok {
		rel = base + m.targetExt
	}
	return filepath.Join(m.destRoot, rel), nil
}

// SourceFiles walks the source tree. Each call performs a fresh walk
// and returns a materialized slice.
func (m *Mapper) SourceFiles() ([]string, error) {
	return walker.Files(m.srcRoot, m.includeHidden)
}

// Units pairs every source file with its mapped destination,
// producing one transfer unit per file in walk order
func (m *Mapper) Units(env *transfer.Env, encoderOptions string, useChecksum bool) ([]*transfer.Unit, error) {
	sources, err := m.SourceFiles()
	if err != nil {
		return nil, fmt.Errorf("walk source tree: %w", err)
	}

	units := make([]*transfer.Unit, 0, len(sources))
	for _, src := range sources {
		dest, err := m.Map(src)
		if err != nil {
			return nil, err
		}
		units = append(units, transfer.New(env, src, dest, encoderOptions, useChecksum))
	}
	return units, nil
}

// ExtraDestFiles returns destination-tree files that are not the
// mapped target of any current source file, sorted ascending. These
// are the files orphan cleanup would delete. Both trees are
// re-walked on every call; nothing here holds one-shot iteration
// state.
func (m *Mapper) ExtraDestFiles() ([]string, error) {
	sources, err := m.SourceFiles()
	if err != nil {
		return nil, fmt.Errorf("walk source tree: %w", err)
	}
	targets := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		dest, err := m.Map(src)
		if err != nil {
			return nil, err
		}
		targets[dest] = struct{}{}
	}

	existing, err := walker.Files(m.destRoot, m.includeHidden)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("walk destination tree: %w", err)
	}

	var extra []string
	for _, f := range existing {
		if _, ok := targets[f]; !ok {
			extra = append(extra, f)
		}
	}
	sort.Strings(extra)
	return extra, nil
}
