package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	selectqlhttp "github.com/fwojciec/selectql/http"
)

// Run executes the serve command until interrupted.
func (c *ServeCmd) Run(deps *Dependencies) error {
	opts := []selectqlhttp.Option{
		selectqlhttp.WithLogger(deps.Logger),
		selectqlhttp.WithToken(c.Token),
		selectqlhttp.WithMaxBodyBytes(int64(c.MaxBodyMB) << 20),
		selectqlhttp.WithRateLimit(c.RateLimit, c.Burst),
	}
	if deps.Metrics != nil {
		opts = append(opts, selectqlhttp.WithMetrics(deps.Metrics))
	}
	if c.Token == "" {
		deps.Logger.Warn("authentication disabled", "hint", "set PARSER_TOKEN to require a token")
	}

	ctx, stop := signal.NotifyContext(deps.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := selectqlhttp.NewServer(deps.Runner, opts...)
	if err := srv.ListenAndServe(ctx, fmt.Sprintf(":%d", c.Port)); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}
