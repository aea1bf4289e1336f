// Package cli implements the gridbooth command-line interface.
//
// This package provides commands for composing captured photos into
// print-ready grid composites, inspecting the layout catalog, running the
// kiosk HTTP API and managing the composition cache. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - compose: Compose photo files or a manifest into a grid composite
//   - layouts: List the layout catalog and resolve grid shapes
//   - serve: Run the kiosk HTTP API
//   - session: Inspect and clean the session store
//   - cache: Manage the composition cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// lives on the CLI struct and is handed to the pipeline runner and the
// HTTP server.
//
// # Example
//
//	import "github.com/gridbooth/gridbooth/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Purged expired sessions (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
