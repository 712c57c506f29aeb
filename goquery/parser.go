// Package goquery implements the selectql document model on top of
// github.com/PuerkitoBio/goquery, with selectors compiled by cascadia.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/selectql"
	"golang.org/x/net/html"
)

var _ selectql.Parser = (*Parser)(nil)

// Parser builds selectql documents from HTML text.
type Parser struct {
	scripting bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithScripting controls how <noscript> content is parsed. With scripting
// enabled (the default, as in browsers) it is kept as raw text; disabled,
// it is parsed as markup and becomes queryable.
func WithScripting(enabled bool) Option {
	return func(p *Parser) {
		p.scripting = enabled
	}
}

// NewParser creates a new Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{scripting: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds a Document from HTML text. Like browsers, the HTML parser
// recovers from malformed markup, so errors are rare.
func (p *Parser) Parse(src string) (selectql.Document, error) {
	root, err := html.ParseWithOptions(strings.NewReader(src), html.ParseOptionEnableScripting(p.scripting))
	if err != nil {
		return nil, selectql.Errorf(selectql.EINVALID, "failed to parse HTML: %v", err)
	}
	return newDocument(goquery.NewDocumentFromNode(root)), nil
}

// ValidateSelector returns EINVALID if selector is not valid CSS.
func (p *Parser) ValidateSelector(selector string) error {
	if _, err := cascadia.Compile(selector); err != nil {
		return selectql.Errorf(selectql.EINVALID, "invalid selector %q: %v", selector, err)
	}
	return nil
}
