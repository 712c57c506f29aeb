// Package engine evaluates compiled selectql templates against parsed
// documents. It depends only on the interfaces of the root package, so any
// Parser implementation can back it.
package engine

import "github.com/fwojciec/selectql"

var _ selectql.Runner = (*Engine)(nil)

// Engine implements selectql.Runner on top of a selectql.Parser.
// It holds no per-request state and is safe for concurrent use as long as
// the Parser is.
type Engine struct {
	parser selectql.Parser
}

// NewEngine creates an Engine that parses documents with parser.
func NewEngine(parser selectql.Parser) *Engine {
	return &Engine{parser: parser}
}

// Run validates every selector in the template, parses the HTML, and
// evaluates the template against the resulting document.
func (e *Engine) Run(req *selectql.Request) (any, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	for _, sel := range req.Template.Selectors() {
		if err := e.parser.ValidateSelector(sel); err != nil {
			return nil, err
		}
	}

	doc, err := e.parser.Parse(req.HTML)
	if err != nil {
		return nil, err
	}

	return Execute(req.Template, doc, req.Vars)
}

// Execute evaluates a compiled template against doc.
//
// A legacy single-query template returns that query's result directly.
// A named template returns a map from query name to result; entries listed
// in Template.Skipped produce no key.
func Execute(t *selectql.Template, doc selectql.Document, vars selectql.Variables) (any, error) {
	if t.Single != nil {
		return Select(t.Single, doc, vars)
	}
	if t.Selects == nil {
		return nil, selectql.Errorf(selectql.EINVALID, "template must include selects, selectOne or selectAll")
	}

	out := make(map[string]any, len(t.Selects))
	for name, q := range t.Selects {
		res, err := Select(q, doc, vars)
		if err != nil {
			return nil, err
		}
		out[name] = res
	}
	return out, nil
}
