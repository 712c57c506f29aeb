package selectql

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
)

// ParseTemplate decodes a JSON template and compiles it.
// Returns EINVALID if the template has no recognizable shape.
func ParseTemplate(data []byte) (*Template, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, Errorf(EINVALID, "invalid template JSON: %v", err)
	}
	return NewTemplate(v)
}

// UnmarshalJSON compiles a JSON template into t.
func (t *Template) UnmarshalJSON(data []byte) error {
	tmpl, err := ParseTemplate(data)
	if err != nil {
		return err
	}
	*t = *tmpl
	return nil
}

// NewTemplate compiles an already decoded template value, as produced by
// encoding/json decoding into an any. All shape checks happen here so that
// evaluation never has to re-inspect the template.
func NewTemplate(v any) (*Template, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, Errorf(EINVALID, "template must be an object")
	}

	if raw, ok := obj["selects"]; ok && raw != nil {
		return compileSelects(raw)
	}

	// selectOne wins when both legacy keys are present.
	for _, mode := range []Mode{ModeOne, ModeAll} {
		if raw := obj[string(mode)]; truthy(raw) {
			q, err := compileQuery(string(mode), raw, mode)
			if err != nil {
				return nil, err
			}
			return &Template{Single: q}, nil
		}
	}

	return nil, Errorf(EINVALID, "template must include selects, selectOne or selectAll")
}

func compileSelects(raw any) (*Template, error) {
	entries, ok := raw.(map[string]any)
	if !ok {
		return nil, Errorf(EINVALID, "selects must be an object of named queries")
	}

	t := &Template{Selects: make(map[string]*Query, len(entries))}
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		entry, ok := entries[name].(map[string]any)
		if !ok {
			return nil, Errorf(EINVALID, "query %q must be an object", name)
		}

		typ, _ := entry["type"].(string)
		switch mode := Mode(typ); mode {
		case ModeOne, ModeAll:
			q, err := compileQuery(name, entry, mode)
			if err != nil {
				return nil, err
			}
			t.Selects[name] = q
		default:
			t.Skipped = append(t.Skipped, name)
		}
	}
	return t, nil
}

func compileQuery(name string, raw any, mode Mode) (*Query, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, Errorf(EINVALID, "query %q must be an object", name)
	}

	from, _ := obj["from"].(string)
	if from == "" {
		return nil, Errorf(EINVALID, "query %q: from selector required", name)
	}
	q := &Query{Mode: mode, From: from}

	if raw := obj["where"]; truthy(raw) {
		w, err := compileWhere(name, raw)
		if err != nil {
			return nil, err
		}
		q.Where = w
	}

	ret, ok := obj["return"].(map[string]any)
	if !ok {
		return nil, Errorf(EINVALID, "query %q: return mapping required", name)
	}
	q.Return = make(map[string]Expr, len(ret))
	for field, raw := range ret {
		e, err := compileExpr(raw)
		if err != nil {
			return nil, Errorf(EINVALID, "query %q: return field %q: %s", name, field, ErrorMessage(err))
		}
		q.Return[field] = e
	}

	if raw := obj["post"]; truthy(raw) {
		stages, err := compilePost(name, raw)
		if err != nil {
			return nil, err
		}
		q.Post = stages
	}

	return q, nil
}

func compileWhere(name string, raw any) (Where, error) {
	obj, _ := raw.(map[string]any)
	operands, ok := obj["eq"]
	if !ok || !truthy(operands) {
		return nil, Errorf(EINVALID, "query %q: where supports only eq", name)
	}
	list, ok := operands.([]any)
	if !ok {
		return nil, Errorf(EINVALID, "query %q: where.eq must be an array of two expressions", name)
	}

	exprs := [2]Expr{&NullExpr{}, &NullExpr{}}
	for i := 0; i < len(list) && i < len(exprs); i++ {
		e, err := compileExpr(list[i])
		if err != nil {
			return nil, Errorf(EINVALID, "query %q: where.eq: %s", name, ErrorMessage(err))
		}
		exprs[i] = e
	}
	return &EqWhere{Left: exprs[0], Right: exprs[1]}, nil
}

func compileExpr(raw any) (Expr, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return &NullExpr{}, nil
	}

	if v := obj["var"]; truthy(v) {
		name, ok := v.(string)
		if !ok {
			return nil, Errorf(EINVALID, "var name must be a string")
		}
		return &VarExpr{Name: name}, nil
	}

	if v := obj["text"]; truthy(v) {
		sel, err := exprSelector("text", v)
		if err != nil {
			return nil, err
		}
		return &TextExpr{Selector: sel}, nil
	}

	if v := obj["html"]; truthy(v) {
		sel, err := exprSelector("html", v)
		if err != nil {
			return nil, err
		}
		return &HTMLExpr{Selector: sel}, nil
	}

	if v := obj["attr"]; truthy(v) {
		args, ok := v.(map[string]any)
		if !ok {
			return nil, Errorf(EINVALID, "attr must be an object with selector and name")
		}
		sel, err := exprSelector("attr", args)
		if err != nil {
			return nil, err
		}
		attr, _ := args["name"].(string)
		if attr == "" {
			return nil, Errorf(EINVALID, "attr name required")
		}
		return &AttrExpr{Selector: sel, Name: attr}, nil
	}

	return &NullExpr{}, nil
}

// exprSelector accepts either a bare selector string or an object with an
// optional "selector" key. An empty selector addresses the scope node.
func exprSelector(kind string, v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case map[string]any:
		switch sel := v["selector"].(type) {
		case nil:
			return "", nil
		case string:
			return sel, nil
		}
	}
	return "", Errorf(EINVALID, "%s selector must be a string", kind)
}

func compilePost(name string, raw any) ([]Stage, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, Errorf(EINVALID, "query %q: post must be an object", name)
	}

	var stages []Stage

	if v := obj["notEmpty"]; truthy(v) {
		fields, err := stringList(v)
		if err != nil {
			return nil, Errorf(EINVALID, "query %q: post.notEmpty: %s", name, ErrorMessage(err))
		}
		stages = append(stages, &NotEmptyStage{Fields: fields})
	}

	if v := obj["exclude"]; truthy(v) {
		ex, ok := v.(map[string]any)
		if !ok {
			return nil, Errorf(EINVALID, "query %q: post.exclude must be an object", name)
		}
		if sel := ex["selector"]; truthy(sel) {
			sels, err := stringList(sel)
			if err != nil {
				return nil, Errorf(EINVALID, "query %q: post.exclude.selector: %s", name, ErrorMessage(err))
			}
			stages = append(stages, &ExcludeSelectorStage{Selectors: sels})
		}
		// field/values is inert unless both are usable.
		field, _ := ex["field"].(string)
		values, ok := ex["values"].([]any)
		if field != "" && ok {
			stages = append(stages, &ExcludeValuesStage{Field: field, Values: values})
		}
	}

	if v := obj["drop"]; truthy(v) {
		d, ok := v.(map[string]any)
		if !ok {
			return nil, Errorf(EINVALID, "query %q: post.drop must be an object", name)
		}
		head, tail := count(d["head"]), count(d["tail"])
		if head > 0 || tail > 0 {
			stages = append(stages, &DropStage{Head: head, Tail: tail})
		}
	}

	return stages, nil
}

func stringList(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, Errorf(EINVALID, "expected a string or an array of strings")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, Errorf(EINVALID, "expected a string or an array of strings")
}

// count converts a drop count. Anything that is not a non-negative number is 0.
func count(v any) int {
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// truthy reports whether a decoded JSON value counts as present.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0 && !math.IsNaN(v)
	case int:
		return v != 0
	}
	return true
}
