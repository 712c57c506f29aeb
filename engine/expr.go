package engine

import (
	"strings"

	"github.com/fwojciec/selectql"
)

// Evaluate resolves e relative to scope.
//
// Selector-based expressions only look at scope and its descendants and use
// the first match in document order; they yield nil when nothing matches.
// A var expression yields the variable value as-is, or nil when absent.
func Evaluate(e selectql.Expr, scope selectql.Node, vars selectql.Variables) (any, error) {
	switch e := e.(type) {
	case *selectql.VarExpr:
		return vars[e.Name], nil
	case *selectql.TextExpr:
		n := first(scope, e.Selector)
		if n == nil {
			return nil, nil
		}
		return strings.TrimSpace(n.Text()), nil
	case *selectql.HTMLExpr:
		n := first(scope, e.Selector)
		if n == nil {
			return nil, nil
		}
		html, err := n.HTML()
		if err != nil {
			return nil, selectql.Errorf(selectql.EINTERNAL, "failed to render HTML: %v", err)
		}
		return html, nil
	case *selectql.AttrExpr:
		n := first(scope, e.Selector)
		if n == nil {
			return nil, nil
		}
		if v, ok := n.Attr(e.Name); ok {
			return v, nil
		}
		return nil, nil
	case *selectql.NullExpr, nil:
		return nil, nil
	default:
		return nil, selectql.Errorf(selectql.EINTERNAL, "unsupported expression %T", e)
	}
}

// Test reports whether scope satisfies w. A nil Where always holds.
func Test(w selectql.Where, scope selectql.Node, vars selectql.Variables) (bool, error) {
	switch w := w.(type) {
	case nil:
		return true, nil
	case *selectql.EqWhere:
		a, err := Evaluate(w.Left, scope, vars)
		if err != nil {
			return false, err
		}
		b, err := Evaluate(w.Right, scope, vars)
		if err != nil {
			return false, err
		}
		return stringify(a) == stringify(b), nil
	default:
		return false, selectql.Errorf(selectql.EINVALID, "where supports only eq")
	}
}

// Project builds one record by evaluating every return expression against scope.
func Project(ret map[string]selectql.Expr, scope selectql.Node, vars selectql.Variables) (selectql.Record, error) {
	if ret == nil {
		return nil, selectql.Errorf(selectql.EINVALID, "return mapping required")
	}
	rec := make(selectql.Record, len(ret))
	for field, e := range ret {
		v, err := Evaluate(e, scope, vars)
		if err != nil {
			return nil, err
		}
		rec[field] = v
	}
	return rec, nil
}

// first returns the first descendant-or-self of scope matching selector.
// An empty selector addresses scope itself.
func first(scope selectql.Node, selector string) selectql.Node {
	if selector == "" || scope.Matches(selector) {
		return scope
	}
	if nodes := scope.Query(selector); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}
