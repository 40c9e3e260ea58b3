package form

// TemplateField is a form field found in a template
type TemplateField struct {
	Name string
	Kind FieldKind
}

// FieldValue is one value to write into a named field
type FieldValue struct {
	Name    string
	Kind    FieldKind
	Text    string
	Checked bool
}

// PageSize is a page's media box size in points
type PageSize struct {
	Width  float64
	Height float64
}

// Engine is the PDF backend used by provisioning, filling and the overlay.
// All operations take and return whole documents so callers stay free of
// file handling.
type Engine interface {
	// ListFields returns the named text and checkbox fields of pdf.
	ListFields(pdf []byte) ([]TemplateField, error)
	// AddFields creates the schema's fields on top of base.
	AddFields(base []byte, schema Schema) ([]byte, error)
	// Fill writes values into matching fields and locks them.
	Fill(pdf []byte, values []FieldValue) ([]byte, error)
	// Flatten turns the form into static page content.
	Flatten(pdf []byte) ([]byte, error)
	// PageSizes returns the size of every page.
	PageSizes(pdf []byte) ([]PageSize, error)
	// AppendBlankPages adds n pages sized like the last page.
	AppendBlankPages(pdf []byte, n int) ([]byte, error)
	// Stamp paints text placements, keyed by 1-based page number.
	Stamp(pdf []byte, placements map[int][]Placement) ([]byte, error)
}
