package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/selectql"
	"github.com/fwojciec/selectql/engine"
	"github.com/fwojciec/selectql/goquery"
	selectqlprometheus "github.com/fwojciec/selectql/prometheus"
	selectqlslog "github.com/fwojciec/selectql/slog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	ctx := context.Background()

	gin.SetMode(gin.ReleaseMode)
	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Stdin is read by "run" for the "-" file argument.
	Stdin io.Reader
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Stdin: os.Stdin}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  m.Stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("selectql"),
		kong.Description("Extract structured data from HTML with declarative templates"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'selectql --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	serving := strings.HasPrefix(kongCtx.Command(), "serve")

	// The service logs every request; one-shot runs only report problems.
	level := slog.LevelWarn
	if serving {
		level = slog.LevelInfo
	}
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	var runner selectql.Runner = engine.NewEngine(goquery.NewParser(goquery.WithScripting(!cli.ParseNoscript)))
	runner = selectqlslog.NewLoggingRunner(runner, deps.Logger)

	if serving {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		runner = selectqlprometheus.NewMetricsRunner(runner, reg)
		deps.Metrics = reg
	}
	deps.Runner = runner

	return kongCtx.Run(deps)
}
