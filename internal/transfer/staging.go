package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"transfercode/internal/fileutil"
)

// StageToTempdir transcodes the unit into a uniquely-named temp file
// inside tempDir and returns a staged unit whose source is that file
// and whose destination is the original final destination. The staged
// unit always reports needing its transfer and deletes the temp file
// exactly once after transferring, success or failure.
//
// The original unit is returned unchanged when staging does not apply:
// dry-run, copy-only units, already-staged units, and units not
// needing an update.
func (u *Unit) StageToTempdir(ctx context.Context, tempDir string, force, dryRun bool) (*Unit, error) {
	if dryRun || !u.NeedsTranscode() || u.removeSourceAfter {
		return u, nil
	}

	need := u.alwaysUpdate || force
	if !need {
		var err error
		need, err = u.NeedsUpdate(ctx)
		if err != nil {
			return nil, err
		}
	}
	if !need {
		return u, nil
	}

	tmpPath, err := allocTempFile(tempDir, filepath.Base(u.Dest))
	if err != nil {
		return nil, err
	}

	// The transcode subprocess runs here, writing only to the private
	// temp file. The checksum tag lands in the temp file too and the
	// final byte copy carries it along.
	inner := New(u.env, u.Source, tmpPath, u.EncoderOptions, u.UseChecksum)
	if err := inner.Transfer(ctx, true, false, ""); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	staged := New(u.env, tmpPath, u.Dest, u.EncoderOptions, false)
	staged.alwaysUpdate = true
	staged.removeSourceAfter = true
	return staged, nil
}

// allocTempFile creates a collision-free temp file whose name derives
// from the destination's base name and keeps its extension, so the
// engine can infer the output container.
func allocTempFile(tempDir, destBase string) (string, error) {
	stem, ext := fileutil.SplitExt(destBase)
	pattern := strings.TrimSuffix(stem, ".") + "_*"
	if ext != "" {
		pattern += "." + ext
	}
	f, err := os.CreateTemp(tempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("allocate staging file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
