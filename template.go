package selectql

// Mode determines how a query's matches are turned into a result.
type Mode string

// Query modes, named after the template keywords that select them.
const (
	// ModeOne returns the first projected record, or nil when nothing matched.
	ModeOne Mode = "selectOne"

	// ModeAll returns every projected record after the post pipeline ran.
	ModeAll Mode = "selectAll"
)

// Template is a compiled extraction template. Exactly one of Selects or
// Single is set.
type Template struct {
	// Selects holds the named queries of a {"selects": {...}} template.
	Selects map[string]*Query

	// Single is the query of a legacy {"selectOne": ...} or
	// {"selectAll": ...} template. Its result is returned unwrapped.
	Single *Query

	// Skipped lists named entries whose declared type was not recognized.
	// They produce no entry in the result.
	Skipped []string
}

// Shape describes the top-level form of the template for logs and metrics.
func (t *Template) Shape() string {
	if t.Single != nil {
		return string(t.Single.Mode)
	}
	return "selects"
}

// Queries returns the number of queries the template will run.
func (t *Template) Queries() int {
	if t.Single != nil {
		return 1
	}
	return len(t.Selects)
}

// Selectors returns every CSS selector referenced by the template.
// Empty selectors (the scope node itself) are not included.
func (t *Template) Selectors() []string {
	var out []string
	add := func(s string) {
		if s != "" {
			out = append(out, s)
		}
	}
	addExpr := func(e Expr) {
		switch e := e.(type) {
		case *TextExpr:
			add(e.Selector)
		case *HTMLExpr:
			add(e.Selector)
		case *AttrExpr:
			add(e.Selector)
		}
	}

	queries := make([]*Query, 0, t.Queries())
	if t.Single != nil {
		queries = append(queries, t.Single)
	}
	for _, q := range t.Selects {
		queries = append(queries, q)
	}

	for _, q := range queries {
		add(q.From)
		if eq, ok := q.Where.(*EqWhere); ok {
			addExpr(eq.Left)
			addExpr(eq.Right)
		}
		for _, e := range q.Return {
			addExpr(e)
		}
		for _, s := range q.Post {
			if ex, ok := s.(*ExcludeSelectorStage); ok {
				for _, sel := range ex.Selectors {
					add(sel)
				}
			}
		}
	}
	return out
}

// Query is one selection: which elements to select, how to filter them, and
// how to project each survivor into a record.
type Query struct {
	Mode Mode

	// From is the document-wide CSS selector producing candidate nodes.
	From string

	// Where filters candidates. Nil keeps every candidate.
	Where Where

	// Return maps output field names to expressions.
	Return map[string]Expr

	// Post is applied in order, and only in ModeAll.
	Post []Stage
}

// Expr is an expression evaluated against a scope node.
// Implemented by VarExpr, TextExpr, HTMLExpr, AttrExpr and NullExpr.
type Expr interface {
	expr()
}

// VarExpr looks up an input variable by exact name.
type VarExpr struct {
	Name string
}

// TextExpr yields the trimmed text of the first descendant-or-self match.
type TextExpr struct {
	Selector string
}

// HTMLExpr yields the outer HTML of the first descendant-or-self match.
type HTMLExpr struct {
	Selector string
}

// AttrExpr yields an attribute of the first descendant-or-self match.
type AttrExpr struct {
	Selector string
	Name     string
}

// NullExpr always yields nil. Unrecognized expression shapes compile to it.
type NullExpr struct{}

func (*VarExpr) expr()  {}
func (*TextExpr) expr() {}
func (*HTMLExpr) expr() {}
func (*AttrExpr) expr() {}
func (*NullExpr) expr() {}

// Where is a predicate over a scope node. Implemented by EqWhere.
type Where interface {
	where()
}

// EqWhere holds when both expressions have the same string form.
// Nil values compare as the empty string.
type EqWhere struct {
	Left  Expr
	Right Expr
}

func (*EqWhere) where() {}

// Stage is one step of the post pipeline. Implemented by NotEmptyStage,
// ExcludeSelectorStage, ExcludeValuesStage and DropStage.
type Stage interface {
	stage()
}

// NotEmptyStage keeps rows whose named fields are all non-blank.
type NotEmptyStage struct {
	Fields []string
}

// ExcludeSelectorStage drops rows whose matched node is, or contains, an
// element matching any of the selectors.
type ExcludeSelectorStage struct {
	Selectors []string
}

// ExcludeValuesStage drops rows whose raw Field value is one of Values.
type ExcludeValuesStage struct {
	Field  string
	Values []any
}

// DropStage removes Head rows from the front and Tail rows from the back.
type DropStage struct {
	Head int
	Tail int
}

func (*NotEmptyStage) stage()        {}
func (*ExcludeSelectorStage) stage() {}
func (*ExcludeValuesStage) stage()   {}
func (*DropStage) stage()            {}
