// Package cli implements the linkroute command-line interface.
//
// # Commands
//
//   - route: route a scenario and write the result JSON
//   - dot: draw a routed scenario or result as DOT, SVG, PNG or PDF
//   - inspect: browse the trees of a pass
//   - grid: show node locations and the occupancy pattern of a scenario
//   - serve: run the HTTP API
//   - snapshots: list, show and delete saved results
//   - cache: clear or locate the result cache
//
// # Configuration
//
// Persistent flags mirror the keys of the config package. A flag given on
// the command line beats LINKROUTE_* environment variables, which beat
// linkroute.toml.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Routed 12 links (4ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
