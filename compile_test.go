package selectql_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/selectql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, src string) *selectql.Template {
	t.Helper()

	tmpl, err := selectql.ParseTemplate([]byte(src))
	require.NoError(t, err)
	return tmpl
}

func compileErr(t *testing.T, src string) string {
	t.Helper()

	_, err := selectql.ParseTemplate([]byte(src))
	require.Error(t, err)
	assert.Equal(t, selectql.EINVALID, selectql.ErrorCode(err))
	return selectql.ErrorMessage(err)
}

func TestParseTemplate_Shapes(t *testing.T) {
	t.Parallel()

	t.Run("legacy selectAll", func(t *testing.T) {
		t.Parallel()

		tmpl := mustCompile(t, `{"selectAll":{"from":"li","return":{"v":{"text":{}}}}}`)

		require.NotNil(t, tmpl.Single)
		assert.Equal(t, selectql.ModeAll, tmpl.Single.Mode)
		assert.Equal(t, "selectAll", tmpl.Shape())
		assert.Equal(t, 1, tmpl.Queries())
	})

	t.Run("selectOne wins over selectAll", func(t *testing.T) {
		t.Parallel()

		tmpl := mustCompile(t, `{
			"selectAll":{"from":"li","return":{"v":{"text":{}}}},
			"selectOne":{"from":"h1","return":{"v":{"text":{}}}}
		}`)

		assert.Equal(t, selectql.ModeOne, tmpl.Single.Mode)
		assert.Equal(t, "h1", tmpl.Single.From)
	})

	t.Run("named selects take precedence over legacy keys", func(t *testing.T) {
		t.Parallel()

		tmpl := mustCompile(t, `{
			"selects":{"a":{"type":"selectOne","from":"h1","return":{"v":{"text":{}}}}},
			"selectAll":{"from":"li","return":{"v":{"text":{}}}}
		}`)

		assert.Nil(t, tmpl.Single)
		assert.Equal(t, "selects", tmpl.Shape())
		require.Contains(t, tmpl.Selects, "a")
		assert.Equal(t, selectql.ModeOne, tmpl.Selects["a"].Mode)
	})

	t.Run("unknown named types are skipped", func(t *testing.T) {
		t.Parallel()

		tmpl := mustCompile(t, `{"selects":{
			"b":{"type":"count"},
			"a":{"type":"selectAll","from":"li","return":{"v":{"text":{}}}},
			"c":{"from":"li"}
		}}`)

		assert.Equal(t, []string{"b", "c"}, tmpl.Skipped)
		assert.Len(t, tmpl.Selects, 1)
		assert.Equal(t, 1, tmpl.Queries())
	})

	t.Run("decodes through encoding/json", func(t *testing.T) {
		t.Parallel()

		var req struct {
			Template selectql.Template `json:"template"`
		}

		err := json.Unmarshal([]byte(`{"template":{"selectOne":{"from":"p","return":{"v":{"var":"x"}}}}}`), &req)

		require.NoError(t, err)
		require.NotNil(t, req.Template.Single)
		assert.Equal(t, &selectql.VarExpr{Name: "x"}, req.Template.Single.Return["v"])
	})
}

func TestParseTemplate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"invalid JSON", `{`, "invalid template JSON"},
		{"not an object", `[]`, "template must be an object"},
		{"no recognizable shape", `{"select":{}}`, "template must include selects, selectOne or selectAll"},
		{"falsy legacy keys", `{"selectOne":null,"selectAll":false}`, "template must include selects, selectOne or selectAll"},
		{"selects not an object", `{"selects":[]}`, "selects must be an object of named queries"},
		{"named query not an object", `{"selects":{"a":1}}`, `query "a" must be an object`},
		{"missing from", `{"selectAll":{"return":{"v":{"text":{}}}}}`, `query "selectAll": from selector required`},
		{"missing return", `{"selectOne":{"from":"li"}}`, `query "selectOne": return mapping required`},
		{"return not an object", `{"selectOne":{"from":"li","return":[]}}`, `query "selectOne": return mapping required`},
		{"where without eq", `{"selectAll":{"from":"li","where":{"ne":[]},"return":{}}}`, `query "selectAll": where supports only eq`},
		{"where eq not an array", `{"selectAll":{"from":"li","where":{"eq":"x"},"return":{}}}`, "where.eq must be an array"},
		{"attr without name", `{"selectAll":{"from":"li","return":{"v":{"attr":{"selector":"a"}}}}}`, "attr name required"},
		{"attr not an object", `{"selectAll":{"from":"li","return":{"v":{"attr":"href"}}}}`, "attr must be an object"},
		{"var not a string", `{"selectAll":{"from":"li","return":{"v":{"var":3}}}}`, "var name must be a string"},
		{"text selector not a string", `{"selectAll":{"from":"li","return":{"v":{"text":{"selector":1}}}}}`, "text selector must be a string"},
		{"notEmpty with non-strings", `{"selectAll":{"from":"li","return":{},"post":{"notEmpty":[1]}}}`, "post.notEmpty"},
		{"post not an object", `{"selectAll":{"from":"li","return":{},"post":"drop"}}`, "post must be an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Contains(t, compileErr(t, tt.src), tt.want)
		})
	}
}

func TestParseTemplate_Expressions(t *testing.T) {
	t.Parallel()

	tmpl := mustCompile(t, `{"selectOne":{"from":"li","return":{
		"var":    {"var":"x"},
		"text":   {"text":{"selector":"b"}},
		"short":  {"text":"i"},
		"self":   {"text":{}},
		"html":   {"html":{"selector":"p"}},
		"attr":   {"attr":{"selector":"a","name":"href"}},
		"own":    {"attr":{"name":"id"}},
		"first":  {"var":"x","text":{}},
		"empty":  {},
		"scalar": 3,
		"blank":  {"var":""}
	}}}`)

	assert.Equal(t, map[string]selectql.Expr{
		"var":    &selectql.VarExpr{Name: "x"},
		"text":   &selectql.TextExpr{Selector: "b"},
		"short":  &selectql.TextExpr{Selector: "i"},
		"self":   &selectql.TextExpr{},
		"html":   &selectql.HTMLExpr{Selector: "p"},
		"attr":   &selectql.AttrExpr{Selector: "a", Name: "href"},
		"own":    &selectql.AttrExpr{Name: "id"},
		"first":  &selectql.VarExpr{Name: "x"},
		"empty":  &selectql.NullExpr{},
		"scalar": &selectql.NullExpr{},
		"blank":  &selectql.NullExpr{},
	}, tmpl.Single.Return)
}

func TestParseTemplate_Where(t *testing.T) {
	t.Parallel()

	t.Run("compiles eq operands", func(t *testing.T) {
		t.Parallel()

		tmpl := mustCompile(t, `{"selectAll":{"from":"li","where":{"eq":[{"text":".k"},{"var":"k"}]},"return":{}}}`)

		assert.Equal(t, &selectql.EqWhere{
			Left:  &selectql.TextExpr{Selector: ".k"},
			Right: &selectql.VarExpr{Name: "k"},
		}, tmpl.Single.Where)
	})

	t.Run("missing operands compile to null", func(t *testing.T) {
		t.Parallel()

		tmpl := mustCompile(t, `{"selectAll":{"from":"li","where":{"eq":[{"var":"k"}]},"return":{}}}`)

		assert.Equal(t, &selectql.EqWhere{
			Left:  &selectql.VarExpr{Name: "k"},
			Right: &selectql.NullExpr{},
		}, tmpl.Single.Where)
	})

	t.Run("null where is absent", func(t *testing.T) {
		t.Parallel()

		tmpl := mustCompile(t, `{"selectAll":{"from":"li","where":null,"return":{}}}`)

		assert.Nil(t, tmpl.Single.Where)
	})
}

func TestParseTemplate_Post(t *testing.T) {
	t.Parallel()

	t.Run("compiles every stage", func(t *testing.T) {
		t.Parallel()

		tmpl := mustCompile(t, `{"selectAll":{"from":"li","return":{},"post":{
			"notEmpty":["a","b"],
			"exclude":{"selector":".ad","field":"a","values":["x",1,null]},
			"drop":{"head":1,"tail":2.7}
		}}}`)

		assert.Equal(t, []selectql.Stage{
			&selectql.NotEmptyStage{Fields: []string{"a", "b"}},
			&selectql.ExcludeSelectorStage{Selectors: []string{".ad"}},
			&selectql.ExcludeValuesStage{Field: "a", Values: []any{"x", float64(1), nil}},
			&selectql.DropStage{Head: 1, Tail: 2},
		}, tmpl.Single.Post)
	})

	t.Run("exclude values without a field is inert", func(t *testing.T) {
		t.Parallel()

		tmpl := mustCompile(t, `{"selectAll":{"from":"li","return":{},"post":{"exclude":{"values":["x"]}}}}`)

		assert.Empty(t, tmpl.Single.Post)
	})

	t.Run("exclude field without a values array is inert", func(t *testing.T) {
		t.Parallel()

		tmpl := mustCompile(t, `{"selectAll":{"from":"li","return":{},"post":{"exclude":{"field":"a","values":"x"}}}}`)

		assert.Empty(t, tmpl.Single.Post)
	})

	t.Run("invalid drop counts are zero", func(t *testing.T) {
		t.Parallel()

		tmpl := mustCompile(t, `{"selectAll":{"from":"li","return":{},"post":{"drop":{"head":-1,"tail":"2"}}}}`)

		assert.Empty(t, tmpl.Single.Post)
	})
}

func TestTemplate_Selectors(t *testing.T) {
	t.Parallel()

	tmpl := mustCompile(t, `{"selectAll":{
		"from":"tr",
		"where":{"eq":[{"text":".k"},{"var":"k"}]},
		"return":{"v":{"attr":{"name":"id"}}},
		"post":{"exclude":{"selector":[".ad",".promo"]}}
	}}`)

	assert.ElementsMatch(t, []string{"tr", ".k", ".ad", ".promo"}, tmpl.Selectors())
}
