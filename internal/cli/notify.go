package cli

import (
	"fmt"
	"os"
)

// consoleNotifier implements collab.NotificationService by printing
// to stderr, the same destination the teacher's CLI commands print
// startup/progress lines to (internal/cli/mcp.go, internal/cli/index.go).
type consoleNotifier struct {
	quiet bool
}

func (n consoleNotifier) Info(message string) {
	if n.quiet {
		return
	}
	fmt.Fprintln(os.Stderr, message)
}

func (n consoleNotifier) Warn(message string) {
	fmt.Fprintln(os.Stderr, "warning:", message)
}
