package engine

import (
	"context"
	"os/exec"

	"transfercode/internal/fileutil"
	"transfercode/internal/logger"
)

// Copier transfers a file byte-for-byte, preserving permission bits
type Copier interface {
	Copy(ctx context.Context, src, dest string) error
}

// RsyncCopier prefers an rsync-like tool and falls back to a plain
// byte copy plus mode-bit copy when the tool fails for any reason,
// including not being installed.
type RsyncCopier struct {
	path      string
	available bool
	log       logger.Logger
}

// NewRsyncCopier probes the tool once. An empty path disables the
// fast path entirely and every copy uses the fallback.
func NewRsyncCopier(rsyncPath string, log logger.Logger) *RsyncCopier {
	if log == nil {
		log = logger.Nop()
	}
	available := rsyncPath != "" && TestExecutable(rsyncPath, "--version")
	if rsyncPath != "" && !available {
		log.Debug("fast-copy tool unavailable, using plain copies", "path", rsyncPath)
	}
	return &RsyncCopier{path: rsyncPath, available: available, log: log}
}

// Copy transfers src to dest
func (c *RsyncCopier) Copy(ctx context.Context, src, dest string) error {
	if c.available {
		cmd := exec.CommandContext(ctx, c.path, "-q", "-p", src, dest)
		if err := cmd.Run(); err == nil && statIsFile(dest) {
			return nil
		} else if err != nil {
			c.log.Debug("fast copy failed, falling back to plain copy",
				"src", src, "dest", dest, "error", err)
		}
	}

	if err := fileutil.CopyFile(src, dest); err != nil {
		return err
	}
	if err := fileutil.CopyMode(src, dest); err != nil {
		return err
	}
	return nil
}
