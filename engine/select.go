package engine

import (
	"cmp"
	"slices"
	"strings"

	"github.com/fwojciec/selectql"
)

// row pairs a projected record with the node it came from, so that
// selector-based exclusion can inspect the node after projection.
type row struct {
	node selectql.Node
	rec  selectql.Record
}

// Select runs a single query against doc.
//
// In ModeOne it returns the first projected record or nil, and the post
// pipeline is not applied. In ModeAll it returns a non-nil []selectql.Record
// in document order after the post pipeline ran.
func Select(q *selectql.Query, doc selectql.Document, vars selectql.Variables) (any, error) {
	if q.From == "" {
		return nil, selectql.Errorf(selectql.EINVALID, "from selector required")
	}

	var kept []selectql.Node
	for _, n := range doc.Query(q.From) {
		ok, err := Test(q.Where, n, vars)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, n)
		}
	}

	switch q.Mode {
	case selectql.ModeOne:
		if len(kept) == 0 {
			return nil, nil
		}
		return Project(q.Return, kept[0], vars)

	case selectql.ModeAll:
		rows := make([]row, 0, len(kept))
		for _, n := range kept {
			rec, err := Project(q.Return, n, vars)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row{node: n, rec: rec})
		}

		rows, err := applyPost(q.Post, rows)
		if err != nil {
			return nil, err
		}

		out := make([]selectql.Record, len(rows))
		for i, r := range rows {
			out[i] = r.rec
		}
		return out, nil

	default:
		return nil, selectql.Errorf(selectql.EINVALID, "unknown query mode %q", q.Mode)
	}
}

// applyPost runs the post stages in their fixed order:
// notEmpty, exclude by selector, exclude by value, drop.
func applyPost(stages []selectql.Stage, rows []row) ([]row, error) {
	ordered := slices.Clone(stages)
	slices.SortStableFunc(ordered, func(a, b selectql.Stage) int {
		return cmp.Compare(stageRank(a), stageRank(b))
	})

	for _, s := range ordered {
		switch s := s.(type) {
		case *selectql.NotEmptyStage:
			rows = filterRows(rows, func(r row) bool {
				return notEmpty(r.rec, s.Fields)
			})
		case *selectql.ExcludeSelectorStage:
			rows = filterRows(rows, func(r row) bool {
				return !containsAny(r.node, s.Selectors)
			})
		case *selectql.ExcludeValuesStage:
			set := newValueSet(s.Values)
			rows = filterRows(rows, func(r row) bool {
				v, ok := r.rec[s.Field]
				return !ok || !set.has(v)
			})
		case *selectql.DropStage:
			rows = drop(rows, s.Head, s.Tail)
		default:
			return nil, selectql.Errorf(selectql.EINTERNAL, "unsupported post stage %T", s)
		}
	}
	return rows, nil
}

func stageRank(s selectql.Stage) int {
	switch s.(type) {
	case *selectql.NotEmptyStage:
		return 0
	case *selectql.ExcludeSelectorStage:
		return 1
	case *selectql.ExcludeValuesStage:
		return 2
	case *selectql.DropStage:
		return 3
	}
	return 4
}

func filterRows(rows []row, keep func(row) bool) []row {
	out := rows[:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// notEmpty reports whether every field is present and non-blank once stringified.
func notEmpty(rec selectql.Record, fields []string) bool {
	for _, f := range fields {
		v, ok := rec[f]
		if !ok || v == nil || strings.TrimSpace(stringify(v)) == "" {
			return false
		}
	}
	return true
}

// containsAny reports whether n, or any of its descendants, matches one of selectors.
func containsAny(n selectql.Node, selectors []string) bool {
	for _, sel := range selectors {
		if n.Matches(sel) || len(n.Query(sel)) > 0 {
			return true
		}
	}
	return false
}

// drop keeps rows[head : len-tail], or nothing when head+tail covers the list.
func drop(rows []row, head, tail int) []row {
	head, tail = max(head, 0), max(tail, 0)
	n := len(rows)
	if head+tail >= n {
		return rows[:0]
	}
	return rows[head : n-tail]
}
