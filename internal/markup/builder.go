// Package markup renders cases as HTML documents for the headless printer.
package markup

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/a3tai/casedocs/internal/casefile"
)

// Builder renders case and batch reports
type Builder struct {
	table casefile.AliasTable
	now   func() time.Time
}

// Option configures a Builder
type Option func(*Builder)

// WithClock sets the clock used for the generated-at stamp
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a builder labelling fields from table
func NewBuilder(table casefile.AliasTable, opts ...Option) *Builder {
	b := &Builder{table: table, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type pair struct {
	Label string
	Value string
}

type caseContext struct {
	Title      string
	ID         string
	Summary    []pair
	Tables     []casefile.Table
	Checklist  []casefile.ChecklistItem
	Narratives []pair
}

type documentContext struct {
	Title       string
	GeneratedAt string
	Summary     [][]string
	Columns     []string
	Cases       []*caseContext
	Batch       bool
	ListOnly    bool
}

// summary groups shown as key/value rows, in order
var summaryGroups = [][]string{
	casefile.IdentityFields,
	casefile.AddressFields,
	casefile.ReferralFields,
	casefile.ProgramFields,
	casefile.FamilyFields,
	casefile.CivilStatusFields,
}

func (b *Builder) caseContext(c casefile.Case, v casefile.View) *caseContext {
	ctx := &caseContext{
		Title:     c.Label(v),
		ID:        c.ID,
		Tables:    c.Tables(),
		Checklist: c.Checklist,
	}
	for _, group := range summaryGroups {
		for _, name := range group {
			if v.Has(name) {
				ctx.Summary = append(ctx.Summary, pair{Label: b.table.Label(name), Value: v.Text(name)})
			}
		}
	}
	for _, name := range casefile.NarrativeFields {
		if v.Has(name) {
			ctx.Narratives = append(ctx.Narratives, pair{Label: b.table.Label(name), Value: v.Text(name)})
		}
	}
	return ctx
}

func (b *Builder) generatedAt() string {
	return b.now().Format("2006-01-02 15:04 MST")
}

// Case renders a single case report
func (b *Builder) Case(c casefile.Case, v casefile.View) ([]byte, error) {
	return b.render(&documentContext{
		Title:       "Case Report",
		GeneratedAt: b.generatedAt(),
		Cases:       []*caseContext{b.caseContext(c, v)},
	})
}

// Batch renders a summary table followed by one section per case. With
// listOnly the per-case sections are left out.
func (b *Builder) Batch(items []casefile.Item, listOnly bool) ([]byte, error) {
	doc := &documentContext{
		Title:       "Case Summary Report",
		GeneratedAt: b.generatedAt(),
		Columns:     casefile.SummaryColumns,
		Batch:       true,
		ListOnly:    listOnly,
	}
	for _, it := range items {
		doc.Summary = append(doc.Summary, it.SummaryRow())
		if !listOnly {
			doc.Cases = append(doc.Cases, b.caseContext(it.Case, it.View))
		}
	}
	return b.render(doc)
}

func (b *Builder) render(doc *documentContext) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := reportTemplate.Execute(buf, doc); err != nil {
		return nil, fmt.Errorf("render report markup: %w", err)
	}
	return buf.Bytes(), nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>{{.Title}}</title>
	<style type="text/css">
	body {
		font-family: Helvetica, Arial, sans-serif;
		font-size: 10pt;
		color: #222;
	}
	.title-bar {
		background: #1f3b5a;
		color: #fff;
		padding: 10px 14px;
	}
	.title-bar h1 {
		margin: 0;
		font-size: 16pt;
	}
	.generated {
		font-size: 8pt;
	}
	table {
		width: 100%;
		border-collapse: collapse;
		margin-bottom: 12px;
	}
	th, td {
		border: 1px solid #bbb;
		padding: 3px 5px;
		text-align: left;
		vertical-align: top;
	}
	th {
		background: #e8eef4;
	}
	.kv td.label {
		width: 35%;
		font-weight: bold;
	}
	.case {
		page-break-before: always;
	}
	.empty {
		color: #888;
		font-style: italic;
	}
	.narrative p {
		white-space: pre-wrap;
	}
	</style>
</head>
<body>
	<div class="title-bar">
		<h1>{{.Title}}</h1>
		<div class="generated">Generated {{.GeneratedAt}}</div>
	</div>
{{if .Batch}}
	<h2>Summary</h2>
	<table class="summary">
		<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
		{{range .Summary}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
		{{else}}<tr><td class="empty" colspan="{{len .Columns}}">No records</td></tr>
		{{end}}
	</table>
{{end}}
{{range .Cases}}
	<div class="{{if $.Batch}}case{{else}}single{{end}}">
		<h2>{{.Title}}</h2>
		{{with .Summary}}
		<table class="kv">
			{{range .}}<tr><td class="label">{{.Label}}</td><td>{{.Value}}</td></tr>
			{{end}}
		</table>
		{{end}}
		{{range .Tables}}
		<h3>{{.Title}}</h3>
		<table>
			<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
			{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
			{{else}}<tr><td class="empty" colspan="{{len .Columns}}">No records</td></tr>
			{{end}}
		</table>
		{{end}}
		<h3>Checklist</h3>
		<table>
			<tr><th>Item</th><th>Completed</th></tr>
			{{range .Checklist}}<tr><td>{{.Text}}</td><td>{{.Timestamp}}</td></tr>
			{{else}}<tr><td class="empty" colspan="2">No records</td></tr>
			{{end}}
		</table>
		{{with .Narratives}}
		<div class="narrative">
			{{range .}}<h3>{{.Label}}</h3>
			<p>{{.Value}}</p>
			{{end}}
		</div>
		{{end}}
	</div>
{{end}}
</body>
</html>
`))
