package goquery

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/selectql"
)

var (
	_ selectql.Document = (*Document)(nil)
	_ selectql.Node     = (*Node)(nil)
)

// Document wraps a goquery document. Compiled selectors are cached per
// document, which is owned by a single request, so no locking is needed.
type Document struct {
	doc      *goquery.Document
	matchers map[string]goquery.Matcher
}

func newDocument(doc *goquery.Document) *Document {
	return &Document{
		doc:      doc,
		matchers: make(map[string]goquery.Matcher),
	}
}

// Query returns all elements matching selector, in document order.
// An invalid selector matches nothing.
func (d *Document) Query(selector string) []selectql.Node {
	return d.find(d.doc.Selection, selector)
}

func (d *Document) find(sel *goquery.Selection, selector string) []selectql.Node {
	m := d.matcher(selector)
	if m == nil {
		return nil
	}
	found := sel.FindMatcher(m)
	nodes := make([]selectql.Node, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &Node{sel: s, doc: d})
	})
	return nodes
}

func (d *Document) matcher(selector string) goquery.Matcher {
	if m, ok := d.matchers[selector]; ok {
		return m
	}
	var m goquery.Matcher
	if compiled, err := cascadia.Compile(selector); err == nil {
		m = compiled
	}
	d.matchers[selector] = m
	return m
}

// Node is a single element of a Document.
type Node struct {
	sel *goquery.Selection
	doc *Document
}

// Query returns descendants matching selector, in document order.
func (n *Node) Query(selector string) []selectql.Node {
	return n.doc.find(n.sel, selector)
}

// Matches reports whether the node itself matches selector.
func (n *Node) Matches(selector string) bool {
	m := n.doc.matcher(selector)
	if m == nil {
		return false
	}
	return n.sel.IsMatcher(m)
}

// Text returns the combined text of the node and its descendants, untrimmed.
func (n *Node) Text() string {
	return n.sel.Text()
}

// HTML returns the outer HTML of the node.
func (n *Node) HTML() (string, error) {
	return goquery.OuterHtml(n.sel)
}

// Attr returns the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}
