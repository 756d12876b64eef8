// Package cli implements the kabelplan command-line interface.
//
// The commands load a topology from a file or from NetBox, lay it out,
// route the cables and write the diagram, serve the same pipeline over
// HTTP, or open an interactive terminal view of it. The CLI is built on
// cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - render: draw a JSON or YAML topology file as SVG, PNG or PDF
//   - fetch: dump NetBox graph data for a site as JSON
//   - sites: list the sites, locations and racks NetBox knows about
//   - serve: start the HTTP server
//   - view: pan and zoom a diagram in the terminal
//   - cache: inspect or clear the response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is also attached to the command context.
package cli

import (
	"context"
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

// progress measures one CLI step and logs its completion.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with keyvals and the elapsed time, rounded
// to the millisecond, under "duration".
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "duration", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey struct{}

// withLogger returns a copy of ctx carrying l.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
