// Package transfer implements the per-file transfer unit: the
// staleness decision, the transcode and copy actions, and the
// temp-staged variant that keeps half-written files out of the
// destination tree.
package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/shlex"

	"transfercode/internal/checksum"
	"transfercode/internal/domain"
	"transfercode/internal/engine"
	"transfercode/internal/fileutil"
	"transfercode/internal/logger"
	"transfercode/internal/tags"
)

// Env holds the external collaborators shared by all units of a run
type Env struct {
	Engine engine.Transcoder
	Copier engine.Copier
	Tags   *tags.Manager
	Log    logger.Logger
}

// Unit is one source-to-destination file mapping plus its policy.
// Paths are absolute. A unit is consumed exactly once by the transfer
// pipeline; only its memoization caches mutate.
type Unit struct {
	Source string
	Dest   string

	// Lower-cased extensions without the leading dot. Differing
	// extensions mean the unit transcodes instead of copying.
	SourceExt string
	DestExt   string

	// EncoderOptions is passed through to the engine, shell-tokenized
	EncoderOptions string

	// UseChecksum enables checksum-tag staleness detection for
	// transcoded units
	UseChecksum bool

	env *Env

	// Staged-wrapper behavior flags (set by StageToTempdir): the
	// wrapper always needs its transfer and owns a temp source file
	// that must be deleted exactly once afterwards.
	alwaysUpdate      bool
	removeSourceAfter bool
	removedSource     bool

	needKnown bool
	needValue bool

	srcSum        string
	savedSum      string
	savedSumKnown bool
}

// New constructs a unit for the given pair
func New(env *Env, src, dest, encoderOptions string, useChecksum bool) *Unit {
	if env.Log == nil {
		env.Log = logger.Nop()
	}
	return &Unit{
		Source:         src,
		Dest:           dest,
		SourceExt:      fileutil.Ext(src),
		DestExt:        fileutil.Ext(dest),
		EncoderOptions: encoderOptions,
		UseChecksum:    useChecksum,
		env:            env,
	}
}

// NeedsTranscode reports whether source and destination formats differ
func (u *Unit) NeedsTranscode() bool {
	return u.SourceExt != u.DestExt
}

// SourceChecksum returns the memoized content fingerprint of the
// source file combined with the encoder options
func (u *Unit) SourceChecksum(ctx context.Context) (string, error) {
	if u.srcSum == "" {
		sum, err := checksum.Source(ctx, u.Source, u.EncoderOptions)
		if err != nil {
			return "", err
		}
		u.srcSum = sum
	}
	return u.srcSum, nil
}

// SavedChecksum returns the memoized checksum tag of the destination,
// or "" when the destination is missing, unreadable, or untagged
func (u *Unit) SavedChecksum(ctx context.Context) string {
	if !u.savedSumKnown {
		u.savedSum = u.env.Tags.ReadChecksum(ctx, u.Dest)
		u.savedSumKnown = true
	}
	return u.savedSum
}

// NeedsUpdate decides whether the destination needs (re)creation. The
// verdict is memoized: the scheduler evaluates it once during planning
// and the later Transfer call reuses it.
//
// Order matters: a missing destination always needs work; transcoded
// destinations prefer the checksum tag when policy allows and the tag
// exists; everything else falls back to modification times.
func (u *Unit) NeedsUpdate(ctx context.Context) (bool, error) {
	if u.needKnown {
		return u.needValue, nil
	}

	destInfo, err := os.Stat(u.Dest)
	if err != nil {
		if os.IsNotExist(err) {
			u.setNeed(true)
			return true, nil
		}
		return false, fmt.Errorf("stat destination %s: %w", u.Dest, err)
	}

	if u.NeedsTranscode() && u.UseChecksum {
		if saved := u.SavedChecksum(ctx); saved != "" {
			srcSum, err := u.SourceChecksum(ctx)
			if err != nil {
				return false, err
			}
			u.setNeed(saved != srcSum)
			return u.needValue, nil
		}
		u.env.Log.Warn("no checksum found in destination file, falling back to timestamp check",
			"dest", u.Dest)
	}

	srcInfo, err := os.Stat(u.Source)
	if err != nil {
		return false, fmt.Errorf("stat source %s: %w", u.Source, err)
	}
	u.setNeed(srcInfo.ModTime().After(destInfo.ModTime()))
	return u.needValue, nil
}

func (u *Unit) setNeed(v bool) {
	u.needKnown = true
	u.needValue = v
}

// invalidateDest resets the destination-derived caches after the
// destination has been rewritten
func (u *Unit) invalidateDest() {
	u.savedSum = ""
	u.savedSumKnown = false
	u.needKnown = false
}

// Check validates the transfer preconditions. Called immediately
// before any real transfer action, never during dry-run.
func (u *Unit) Check() error {
	info, err := os.Stat(u.Source)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", domain.ErrMissingInput, u.Source)
	}
	destDir := filepath.Dir(u.Dest)
	info, err = os.Stat(destDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrMissingOutputDir, destDir)
	}
	return nil
}

// Transcode converts the source into the destination via the engine,
// then copies tags, saves the checksum tag when policy enables it, and
// best-effort copies the source's permission bits.
func (u *Unit) Transcode(ctx context.Context, dryRun bool) error {
	u.env.Log.Info("transcoding", "src", u.Source, "dest", u.Dest)
	if dryRun {
		return nil
	}

	// Identify before invoking the engine so an unreadable source
	// fails fast instead of after a wasted transcode
	if err := u.env.Engine.Identify(ctx, u.Source); err != nil {
		return err
	}

	u.invalidateDest()

	encoderArgs, err := shlex.Split(u.EncoderOptions)
	if err != nil {
		return fmt.Errorf("parse encoder options %q: %w", u.EncoderOptions, err)
	}

	if err := u.env.Engine.Transcode(ctx, u.Source, u.Dest, encoderArgs); err != nil {
		return err
	}
	if info, statErr := os.Stat(u.Dest); statErr != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", domain.ErrNoEngineOutput, u.Dest)
	}

	if err := u.env.Tags.CopyTags(ctx, u.Source, u.Dest); err != nil {
		return fmt.Errorf("copy tags to %s: %w", u.Dest, err)
	}

	if u.UseChecksum {
		sum, err := u.SourceChecksum(ctx)
		if err != nil {
			return err
		}
		u.env.Log.Debug("saving checksum to destination file", "dest", u.Dest, "checksum", sum)
		if err := u.env.Tags.WriteChecksum(ctx, u.Dest, sum); err != nil {
			u.env.Log.Warn("could not write checksum tag", "dest", u.Dest, "error", err)
		}
	}

	if err := fileutil.CopyMode(u.Source, u.Dest); err != nil {
		// Mode bits are best effort
		u.env.Log.Debug("could not copy mode bits", "dest", u.Dest, "error", err)
	}
	return nil
}

// Copy transfers the source byte-for-byte
func (u *Unit) Copy(ctx context.Context, dryRun bool) error {
	u.env.Log.Info("copying", "src", u.Source, "dest", u.Dest)
	if dryRun {
		return nil
	}
	u.invalidateDest()
	return u.env.Copier.Copy(ctx, u.Source, u.Dest)
}

// Transfer copies or transcodes the source into the destination. When
// tempDir is non-empty and a transcode is needed, the work is staged
// through a private temp file so the real destination never holds a
// half-transcoded result.
func (u *Unit) Transfer(ctx context.Context, force, dryRun bool, tempDir string) error {
	if u.removeSourceAfter {
		defer u.removeStagedSource()
	}

	need := u.alwaysUpdate || force
	if !need {
		var err error
		need, err = u.NeedsUpdate(ctx)
		if err != nil {
			return err
		}
	}

	if need {
		if !dryRun {
			if err := u.Check(); err != nil {
				return err
			}
		}
		switch {
		case u.NeedsTranscode() && tempDir != "":
			staged, err := u.StageToTempdir(ctx, tempDir, force, dryRun)
			if err != nil {
				return err
			}
			return staged.Transfer(ctx, force, dryRun, "")
		case u.NeedsTranscode():
			return u.Transcode(ctx, dryRun)
		default:
			return u.Copy(ctx, dryRun)
		}
	}

	if u.NeedsTranscode() && u.UseChecksum && u.SavedChecksum(ctx) == "" {
		// Legacy destination predating checksum tags: repair the tag
		// without paying for a re-transcode
		sum, err := u.SourceChecksum(ctx)
		if err != nil {
			return err
		}
		u.env.Log.Info("saving checksum to destination file", "dest", u.Dest)
		if !dryRun {
			if err := u.env.Tags.WriteChecksum(ctx, u.Dest, sum); err != nil {
				u.env.Log.Warn("could not write checksum tag", "dest", u.Dest, "error", err)
			}
			u.invalidateDest()
		}
		return nil
	}

	u.env.Log.Debug("skipping", "src", u.Source, "dest", u.Dest)
	return nil
}

func (u *Unit) removeStagedSource() {
	if u.removedSource {
		return
	}
	u.removedSource = true
	if err := os.Remove(u.Source); err != nil && !os.IsNotExist(err) {
		u.env.Log.Warn("could not remove staged temp file", "path", u.Source, "error", err)
	}
}
