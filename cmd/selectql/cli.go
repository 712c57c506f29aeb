package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/selectql"
	"github.com/prometheus/client_golang/prometheus"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Runner selectql.Runner

	// Metrics is served on /metrics by "serve". Nil disables the endpoint.
	Metrics prometheus.Gatherer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose       bool `help:"Enable debug logging"`
	ParseNoscript bool `help:"Parse <noscript> content as markup so templates can select inside it"`

	Serve ServeCmd `cmd:"" help:"Serve the extraction API over HTTP"`
	Run   RunCmd   `cmd:"" help:"Apply a template to HTML files or URLs"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Port      int     `env:"PORT" default:"3000" help:"Port to listen on"`
	Token     string  `env:"PARSER_TOKEN" help:"Token required in the X-Parser-Token header (empty disables auth)"`
	MaxBodyMB int     `name:"max-body-mb" default:"8" help:"Request body limit in MiB"`
	RateLimit float64 `default:"0" help:"Requests per second allowed per client IP (0 disables)"`
	Burst     int     `default:"10" help:"Rate limit burst size"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Template     string            `short:"t" required:"" type:"existingfile" help:"Template file (.json, .yaml or .yml)"`
	Vars         string            `type:"existingfile" help:"Variables file (.json, .yaml or .yml)"`
	Var          map[string]string `short:"v" help:"Set a string variable as key=value (repeatable)"`
	Concurrency  int               `short:"c" default:"4" help:"Inputs processed concurrently"`
	FetchTimeout time.Duration     `default:"10s" help:"Timeout for fetching URL inputs"`
	FetchRPS     float64           `name:"fetch-rps" default:"1" help:"Requests per second to each host (0 disables)"`
	FetchRetries int               `default:"2" help:"Retries for transient fetch failures"`
	UserAgent    string            `default:"selectql/1.0" help:"User-Agent sent when fetching URL inputs"`
	Files        []string          `arg:"" help:"HTML files or http(s) URLs to extract from ('-' reads stdin)"`
}
