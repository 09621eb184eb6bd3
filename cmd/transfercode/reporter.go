package main

import (
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"transfercode/internal/progress"
)

// newReporter returns a terminal progress bar, or the silent reporter
// when output is not a terminal or the user asked for quiet.
func newReporter(quiet bool) progress.Reporter {
	if quiet || !isatty.IsTerminal(os.Stderr.Fd()) {
		return progress.NullReporter{}
	}
	return &barReporter{}
}

// barReporter renders run progress on stderr. The scheduler calls it
// from its single transfer goroutine only.
type barReporter struct {
	bar *progressbar.ProgressBar
}

func (r *barReporter) SetTotal(totalFiles int) {
	r.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("transferring"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)
}

func (r *barReporter) Start(sourcePath string) {
	if r.bar != nil {
		r.bar.Describe(filepath.Base(sourcePath))
	}
}

func (r *barReporter) Complete(sourcePath string) {
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

func (r *barReporter) Error(sourcePath string, err error) {
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}
