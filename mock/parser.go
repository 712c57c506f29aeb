package mock

import "github.com/fwojciec/selectql"

var (
	_ selectql.Parser   = (*Parser)(nil)
	_ selectql.Document = (*Document)(nil)
	_ selectql.Node     = (*Node)(nil)
)

// Parser is a mock implementation of selectql.Parser.
type Parser struct {
	ParseFn            func(html string) (selectql.Document, error)
	ValidateSelectorFn func(selector string) error
}

func (p *Parser) Parse(html string) (selectql.Document, error) {
	return p.ParseFn(html)
}

func (p *Parser) ValidateSelector(selector string) error {
	return p.ValidateSelectorFn(selector)
}

// Document is a mock implementation of selectql.Document.
type Document struct {
	QueryFn func(selector string) []selectql.Node
}

func (d *Document) Query(selector string) []selectql.Node {
	return d.QueryFn(selector)
}

// Node is a mock implementation of selectql.Node.
type Node struct {
	QueryFn   func(selector string) []selectql.Node
	MatchesFn func(selector string) bool
	TextFn    func() string
	HTMLFn    func() (string, error)
	AttrFn    func(name string) (string, bool)
}

func (n *Node) Query(selector string) []selectql.Node {
	return n.QueryFn(selector)
}

func (n *Node) Matches(selector string) bool {
	return n.MatchesFn(selector)
}

func (n *Node) Text() string {
	return n.TextFn()
}

func (n *Node) HTML() (string, error) {
	return n.HTMLFn()
}

func (n *Node) Attr(name string) (string, bool) {
	return n.AttrFn(name)
}
