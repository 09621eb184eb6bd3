package domain

import "errors"

// Configuration errors - fail the run before any file is touched
var (
	// ErrConfigInvalid indicates the run configuration is malformed
	ErrConfigInvalid = errors.New("invalid config")

	// ErrNotDirectory indicates expected a directory but got a file
	ErrNotDirectory = errors.New("not a directory")

	// ErrTargetInTranscodeSet indicates the target format is also a
	// transcode trigger format, which would make the mapping circular
	ErrTargetInTranscodeSet = errors.New("target format must not be one of the transcode formats")
)

// Mapping errors
var (
	// ErrPathOutsideRoot indicates a source path that does not fall
	// under the configured source root
	ErrPathOutsideRoot = errors.New("path outside source root")
)

// Per-unit precondition errors - abort only that unit's transfer
var (
	// ErrMissingInput indicates the source file is absent
	ErrMissingInput = errors.New("missing input file")

	// ErrMissingOutputDir indicates the destination parent directory is absent
	ErrMissingOutputDir = errors.New("missing output directory")
)

// Per-unit engine errors
var (
	// ErrNotMediaFile indicates the source could not be identified as
	// a media file before transcoding
	ErrNotMediaFile = errors.New("unable to identify media file")

	// ErrNoEngineOutput indicates the transcoding engine exited
	// successfully but produced no output file
	ErrNoEngineOutput = errors.New("transcoding engine produced no output file")
)

// Run-level errors
var (
	// ErrLockHeld indicates another run already holds the destination lock
	ErrLockHeld = errors.New("destination is locked by another run")
)
