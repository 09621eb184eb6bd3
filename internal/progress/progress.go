// Package progress defines the progress reporting hook for the
// sequential transfer phase.
package progress

// Reporter receives transfer progress. Implementations are called
// only from the single sequential transfer path, never concurrently.
type Reporter interface {
	// SetTotal announces how many units the run will process
	SetTotal(totalFiles int)

	// Start marks the beginning of one unit's transfer
	Start(sourcePath string)

	// Complete marks one unit's transfer as finished
	Complete(sourcePath string)

	// Error marks one unit's transfer as failed
	Error(sourcePath string, err error)
}

// NullReporter discards all progress updates
type NullReporter struct{}

func (NullReporter) SetTotal(totalFiles int)            {}
func (NullReporter) Start(sourcePath string)            {}
func (NullReporter) Complete(sourcePath string)         {}
func (NullReporter) Error(sourcePath string, err error) {}
