package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/selectql"
	selectqlhttp "github.com/fwojciec/selectql/http"
	selectqlslog "github.com/fwojciec/selectql/slog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// fileResult is one line of "run" output.
type fileResult struct {
	File   string `json:"file"`
	Result any    `json:"result"`
}

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	tmpl, err := loadTemplate(c.Template)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", message(err))
		return err
	}

	vars, err := loadVars(c.Vars, c.Var)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", message(err))
		return err
	}

	var fetcher selectql.Fetcher
	if slices.ContainsFunc(c.Files, selectql.IsURL) {
		f := selectqlhttp.NewFetcher(
			selectqlhttp.WithTimeout(c.FetchTimeout),
			selectqlhttp.WithHostRateLimit(c.FetchRPS),
			selectqlhttp.WithUserAgent(c.UserAgent),
			selectqlhttp.WithRetries(c.FetchRetries, time.Second),
		)
		defer f.Close()
		fetcher = selectqlslog.NewLoggingFetcher(f, deps.Logger)
	}

	results := make([]any, len(c.Files))
	g, ctx := errgroup.WithContext(deps.Ctx)
	g.SetLimit(max(c.Concurrency, 1))
	for i, file := range c.Files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			html, err := readInput(ctx, file, deps.Stdin, fetcher)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			res, err := deps.Runner.Run(&selectql.Request{HTML: html, Vars: vars, Template: tmpl})
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", message(err))
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetEscapeHTML(false)
	for i, file := range c.Files {
		if err := enc.Encode(fileResult{File: file, Result: results[i]}); err != nil {
			return err
		}
	}
	return nil
}

func loadTemplate(path string) (*selectql.Template, error) {
	var raw any
	if err := decodeFile(path, &raw); err != nil {
		return nil, err
	}
	tmpl, err := selectql.NewTemplate(raw)
	if err != nil {
		return nil, selectql.Errorf(selectql.EINVALID, "template %s: %s", path, selectql.ErrorMessage(err))
	}
	return tmpl, nil
}

// loadVars reads the optional variables file and overlays the key=value
// pairs given on the command line.
func loadVars(path string, overrides map[string]string) (selectql.Variables, error) {
	vars := selectql.Variables{}
	if path != "" {
		if err := decodeFile(path, &vars); err != nil {
			return nil, err
		}
	}
	for k, v := range overrides {
		vars[k] = v
	}
	return vars, nil
}

// decodeFile decodes a JSON or YAML file into v. YAML goes through a JSON
// round trip so that both formats produce identical values.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return selectql.Errorf(selectql.EINVALID, "%s: invalid YAML: %v", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return selectql.Errorf(selectql.EINVALID, "%s: unsupported YAML value: %v", path, err)
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return selectql.Errorf(selectql.EINVALID, "%s: invalid JSON: %v", path, err)
	}
	return nil
}

// readInput returns the HTML of one input: stdin for "-", a fetched
// document for URLs, otherwise a local file.
func readInput(ctx context.Context, file string, stdin io.Reader, fetcher selectql.Fetcher) (string, error) {
	if selectql.IsURL(file) {
		return fetcher.Fetch(ctx, file)
	}
	if file == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(file)
	return string(data), err
}

// message returns the application message of err, keeping any context
// that was added around it.
func message(err error) string {
	var e *selectql.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	return strings.Replace(err.Error(), e.Error(), e.Message, 1)
}
