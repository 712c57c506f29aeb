// Package slog provides log/slog decorators for selectql services.
package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/selectql"
)

// Ensure LoggingRunner implements selectql.Runner.
var _ selectql.Runner = (*LoggingRunner)(nil)

// LoggingRunner wraps a Runner with logging of every template run.
type LoggingRunner struct {
	next   selectql.Runner
	logger *slog.Logger
}

// NewLoggingRunner creates a new LoggingRunner.
func NewLoggingRunner(next selectql.Runner, logger *slog.Logger) *LoggingRunner {
	return &LoggingRunner{next: next, logger: logger}
}

// Run delegates to the wrapped runner and logs the outcome.
// Named queries skipped for an unrecognized type are logged as a warning.
func (r *LoggingRunner) Run(req *selectql.Request) (result any, err error) {
	shape, queries := "(none)", 0
	if req.Template != nil {
		shape, queries = req.Template.Shape(), req.Template.Queries()
		if len(req.Template.Skipped) > 0 {
			r.logger.Warn("skipped template queries",
				"names", req.Template.Skipped,
				"reason", "unrecognized type",
			)
		}
	}

	defer func(begin time.Time) {
		r.logger.Info("template run",
			"shape", shape,
			"queries", queries,
			"bytes", len(req.HTML),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Run(req)
}
