// Package scheduler orchestrates a full mirror run: planning,
// parallel transcoding into a shared work directory, strictly
// sequential transfer into place, orphan cleanup, and interrupt
// handling.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"transfercode/internal/lock"
	"transfercode/internal/logger"
	"transfercode/internal/mapper"
	"transfercode/internal/progress"
	"transfercode/internal/transfer"
)

// Options configures one run
type Options struct {
	// Force performs every transfer even when no update is needed
	Force bool

	// DryRun performs all decision logic and logging with zero
	// filesystem or subprocess side effects
	DryRun bool

	// DeleteOrphans removes destination files with no mapped source
	DeleteOrphans bool

	// Jobs is the transcode worker count. 0 means fully sequential:
	// transcode and transfer interleave in one loop per unit.
	Jobs int

	// TempDir is the parent for the per-run work directory.
	// Empty means the system temp directory.
	TempDir string

	// EncoderOptions is the resolved encoder flag string
	EncoderOptions string

	// UseChecksum enables checksum-tag staleness detection
	UseChecksum bool
}

// Result summarizes a finished run
type Result struct {
	Total      int
	Updated    int
	Transcoded int
	Copied     int
	Skipped    int
	Deleted    int
	Bytes      int64
	Failed     []string
	Cancelled  bool
	DryRun     bool
}

// Scheduler drives runs over a mapper and a shared unit environment
type Scheduler struct {
	mapper   *mapper.Mapper
	env      *transfer.Env
	log      logger.Logger
	reporter progress.Reporter
}

// New creates a Scheduler. A nil reporter discards progress.
func New(m *mapper.Mapper, env *transfer.Env, log logger.Logger, reporter progress.Reporter) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	if reporter == nil {
		reporter = progress.NullReporter{}
	}
	return &Scheduler{mapper: m, env: env, log: log, reporter: reporter}
}

// plannedUnit carries the needs-update verdict evaluated once during
// planning; the unit memoizes it so Transfer reuses the same answer
type plannedUnit struct {
	unit *transfer.Unit
	need bool
}

// Run executes one full mirror pass. Per-unit failures are collected
// in the result, never propagated; only run-level problems (source
// enumeration, work dir creation) return an error.
func (s *Scheduler) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{DryRun: opts.DryRun}

	units, err := s.mapper.Units(s.env, opts.EncoderOptions, opts.UseChecksum)
	if err != nil {
		return nil, err
	}
	res.Total = len(units)

	planned, anyTranscode := s.plan(ctx, res, units, opts)
	if res.Cancelled {
		return res, nil
	}

	jobs := opts.Jobs
	if jobs > 0 && opts.DryRun {
		s.log.Debug("switching to sequential mode for dry-run")
		jobs = 0
	}
	if jobs > 0 && !anyTranscode {
		s.log.Debug("switching to sequential mode because no transcodes are required")
		jobs = 0
	}

	workDir := ""
	if !opts.DryRun {
		parent := opts.TempDir
		if parent == "" {
			parent = os.TempDir()
		}
		workDir, err = os.MkdirTemp(parent, "transfercode_")
		if err != nil {
			return nil, fmt.Errorf("create work directory: %w", err)
		}
		defer func() {
			s.log.Debug("deleting work directory", "path", workDir)
			os.RemoveAll(workDir)
		}()

		s.createDestDirs(planned)
	}

	s.reporter.SetTotal(len(planned))

	if jobs == 0 {
		s.log.Debug("running in sequential mode")
		s.runSequential(ctx, res, planned, workDir, opts)
	} else {
		s.log.Debug("running transcode jobs in parallel with one transfer job", "jobs", jobs)
		s.runParallel(ctx, res, planned, workDir, opts, jobs)
	}

	// Cancellation suppresses orphan deletion
	if opts.DeleteOrphans && !res.Cancelled {
		s.deleteOrphans(res, opts.DryRun)
	}

	return res, nil
}

// plan evaluates every unit's needs-update verdict exactly once.
// Units whose verdict cannot be computed are recorded as failed and
// dropped from the run.
func (s *Scheduler) plan(ctx context.Context, res *Result, units []*transfer.Unit, opts Options) ([]plannedUnit, bool) {
	planned := make([]plannedUnit, 0, len(units))
	anyTranscode := false

	for _, u := range units {
		if ctx.Err() != nil {
			res.Cancelled = true
			return planned, anyTranscode
		}
		need := opts.Force
		if !need {
			var err error
			need, err = u.NeedsUpdate(ctx)
			if err != nil {
				s.unitFailed(res, u.Source, "planning", err)
				continue
			}
		}
		if need && u.NeedsTranscode() {
			anyTranscode = true
		}
		planned = append(planned, plannedUnit{unit: u, need: need})
	}
	return planned, anyTranscode
}

// createDestDirs pre-creates all destination parent directories.
// Failures are left for the per-unit precondition check to surface.
func (s *Scheduler) createDestDirs(planned []plannedUnit) {
	dirs := make(map[string]struct{})
	for _, p := range planned {
		dirs[filepath.Dir(p.unit.Dest)] = struct{}{}
	}
	for dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			s.log.Warn("could not create destination directory", "path", dir, "error", err)
		}
	}
}

// runSequential processes units one at a time, transcode then
// transfer per unit
func (s *Scheduler) runSequential(ctx context.Context, res *Result, planned []plannedUnit, workDir string, opts Options) {
	lastDest := ""
	for _, p := range planned {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		u := p.unit

		staged, err := u.StageToTempdir(ctx, workDir, opts.Force, opts.DryRun)
		if err != nil {
			if ctx.Err() != nil {
				res.Cancelled = true
				break
			}
			s.unitFailed(res, u.Source, "transcoding", err)
			continue
		}

		s.reporter.Start(u.Source)
		if p.need && !opts.DryRun {
			lastDest = u.Dest
		}
		if err := staged.Transfer(ctx, opts.Force, opts.DryRun, ""); err != nil {
			if ctx.Err() != nil {
				res.Cancelled = true
				break
			}
			s.unitFailed(res, u.Source, "transferring", err)
			lastDest = ""
			continue
		}
		lastDest = ""
		s.unitDone(res, p)
	}

	if res.Cancelled {
		s.cleanupIncomplete(lastDest)
	}
}

// stagedResult is the tagged outcome of one worker's staging step: a
// unit ready for transfer, or the error that stopped it. Errors travel
// as values so the pool keeps making progress.
type stagedResult struct {
	unit *transfer.Unit
	plan plannedUnit
	err  error
}

// runParallel fans units out to a bounded transcode pool and consumes
// staged results in completion order on the single transfer path
func (s *Scheduler) runParallel(ctx context.Context, res *Result, planned []plannedUnit, workDir string, opts Options, jobs int) {
	// Copy-only units first: they stage instantly, so the sequential
	// transfer phase starts without waiting on a transcode
	ordered := append([]plannedUnit(nil), planned...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !ordered[i].unit.NeedsTranscode() && ordered[j].unit.NeedsTranscode()
	})

	results := make(chan stagedResult, len(ordered))
	workers := pool.New().WithMaxGoroutines(jobs)

	go func() {
		for _, p := range ordered {
			if ctx.Err() != nil {
				break
			}
			p := p
			workers.Go(func() {
				staged, err := p.unit.StageToTempdir(ctx, workDir, opts.Force, false)
				results <- stagedResult{unit: staged, plan: p, err: err}
			})
		}
		workers.Wait()
		close(results)
	}()

	lastDest := ""
	for r := range results {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		src := r.plan.unit.Source
		if r.err != nil {
			s.unitFailed(res, src, "transcoding", r.err)
			continue
		}

		s.reporter.Start(src)
		if r.plan.need {
			lastDest = r.unit.Dest
		}
		if err := r.unit.Transfer(ctx, opts.Force, false, ""); err != nil {
			if ctx.Err() != nil {
				res.Cancelled = true
				break
			}
			s.unitFailed(res, src, "transferring", err)
			lastDest = ""
			continue
		}
		lastDest = ""
		s.unitDone(res, r.plan)
	}

	if res.Cancelled {
		// Discard remaining staged results. The canceled context has
		// already killed in-flight engine processes, so the pool winds
		// down immediately; the work directory removal sweeps any
		// temp files the abandoned results still own.
		for range results {
		}
		s.cleanupIncomplete(lastDest)
	}
}

func (s *Scheduler) unitDone(res *Result, p plannedUnit) {
	if p.need {
		res.Updated++
		if p.unit.NeedsTranscode() {
			res.Transcoded++
		} else {
			res.Copied++
		}
		if info, err := os.Stat(p.unit.Source); err == nil {
			res.Bytes += info.Size()
		}
	} else {
		res.Skipped++
	}
	s.reporter.Complete(p.unit.Source)
}

func (s *Scheduler) unitFailed(res *Result, src, phase string, err error) {
	s.log.Error("unit failed", "phase", phase, "src", src, "error", err)
	res.Failed = append(res.Failed, src)
	s.reporter.Error(src, err)
}

// cleanupIncomplete removes a destination file whose transfer was cut
// short by cancellation
func (s *Scheduler) cleanupIncomplete(dest string) {
	if dest == "" {
		return
	}
	if _, err := os.Stat(dest); err != nil {
		return
	}
	s.log.Info("cleaning incomplete transfer", "path", dest)
	if err := os.Remove(dest); err != nil {
		s.log.Warn("could not remove incomplete transfer", "path", dest, "error", err)
	}
}

func (s *Scheduler) deleteOrphans(res *Result, dryRun bool) {
	extra, err := s.mapper.ExtraDestFiles()
	if err != nil {
		s.log.Error("could not enumerate orphaned destination files", "error", err)
		return
	}
	for _, f := range extra {
		if filepath.Base(f) == lock.LockFileName {
			continue
		}
		s.log.Info("deleting orphaned destination file", "path", f)
		if !dryRun {
			if err := os.Remove(f); err != nil {
				s.log.Warn("could not delete orphaned file", "path", f, "error", err)
				continue
			}
		}
		res.Deleted++
	}
}
