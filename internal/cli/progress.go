package cli

import (
	"time"

	"github.com/schollz/progressbar/v3"
)

// newIndexProgressBar builds the progress callback passed as
// engine.Dependencies.OnIndexProgress, the same progressbar/v3 options
// the teacher's CLIProgressReporter uses for its file-indexing bar
// (internal/cli/progress.go). total is unknown until the first call,
// so the bar is built lazily on first progress report.
func newIndexProgressBar(quiet bool) func(processed, total int) {
	if quiet {
		return func(processed, total int) {}
	}

	var bar *progressbar.ProgressBar
	return func(processed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Indexing files"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("files/s"),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionShowElapsedTimeOnFinish(),
			)
		}
		bar.Set(processed)
	}
}
