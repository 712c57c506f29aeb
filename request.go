package selectql

// Variables maps input variable names to arbitrary JSON values.
// Lookups of absent names yield nil.
type Variables map[string]any

// Record is one projected output row, keyed by return field name.
type Record map[string]any

// Request is a single extraction job.
type Request struct {
	// HTML is the raw document to extract from.
	HTML string

	// Vars are the input variables referenced by var expressions.
	Vars Variables

	// Template describes what to extract.
	Template *Template
}

// Validate returns an error if the request cannot be run.
func (r *Request) Validate() error {
	if r.HTML == "" {
		return Errorf(EINVALID, "missing html")
	}
	if r.Template == nil {
		return Errorf(EINVALID, "missing template")
	}
	return nil
}

// Runner evaluates templates against HTML documents.
type Runner interface {
	// Run parses the request HTML and evaluates the template against it.
	// The result is a Record or nil (selectOne), a []Record (selectAll), or
	// a map of query name to one of those for named templates.
	// Returns EINVALID for malformed templates or selectors.
	Run(req *Request) (any, error)
}

// Parser turns raw HTML into a queryable Document.
type Parser interface {
	// Parse builds a Document from HTML text.
	Parse(html string) (Document, error)

	// ValidateSelector returns EINVALID if selector is not valid CSS.
	ValidateSelector(selector string) error
}

// Document is a parsed HTML tree owned by a single request.
type Document interface {
	// Query returns all elements matching selector, in document order.
	Query(selector string) []Node
}

// Node is an element of a Document. Its lifetime is bound to the Document.
type Node interface {
	// Query returns descendants matching selector, in document order.
	// The node itself is never included.
	Query(selector string) []Node

	// Matches reports whether the node itself matches selector.
	Matches(selector string) bool

	// Text returns the combined text of the node and its descendants.
	Text() string

	// HTML returns the outer HTML of the node.
	HTML() (string, error)

	// Attr returns the named attribute and whether it is present.
	Attr(name string) (string, bool)
}
