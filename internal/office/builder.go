package office

import (
	"strings"
	"time"

	"github.com/a3tai/casedocs/internal/casefile"
)

// Placeholder is printed for every labelled slot without a value, so the
// document reads as a form to be completed by hand.
var Placeholder = strings.Repeat("_", 32)

const (
	checkedGlyph   = "☑"
	uncheckedGlyph = "☐"
)

// Builder writes intake forms and batch summaries as .docx documents
type Builder struct {
	table casefile.AliasTable
	now   func() time.Time
}

// NewBuilder creates a builder labelling fields from table
func NewBuilder(table casefile.AliasTable, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{table: table, now: now}
}

type section struct {
	title  string
	fields []string
}

var formSections = []section{
	{"Identifying Information", casefile.IdentityFields},
	{"Address", casefile.AddressFields},
	{"Referral", casefile.ReferralFields},
	{"Program", casefile.ProgramFields},
	{"Parents / Guardian", casefile.FamilyFields},
}

// IntakeForm renders one case as an intake form. Values come from the
// normalized view first and from the raw record otherwise.
func (b *Builder) IntakeForm(c casefile.Case, v casefile.View) ([]byte, error) {
	w, err := newDocWriter()
	if err != nil {
		return nil, err
	}
	w.title("Client Intake Form")
	w.paragraph("Prepared " + b.now().Format("January 2, 2006"))
	b.writeCase(w, c, v)
	writeSignatures(w)
	return w.pack()
}

// Batch renders a summary table followed by one section per case, each on a
// new page. With listOnly only the summary is written.
func (b *Builder) Batch(items []casefile.Item, listOnly bool) ([]byte, error) {
	w, err := newDocWriter()
	if err != nil {
		return nil, err
	}
	w.title("Case Summary")
	w.paragraph("Prepared " + b.now().Format("January 2, 2006"))

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		row := it.SummaryRow()
		for i := range row {
			if row[i] == "" {
				row[i] = "-"
			}
		}
		rows = append(rows, row)
	}
	w.grid(casefile.SummaryColumns, rows)

	if !listOnly {
		for _, it := range items {
			w.pageBreak()
			w.heading(it.Case.Label(it.View))
			b.writeCase(w, it.Case, it.View)
		}
	}
	return w.pack()
}

func (b *Builder) writeCase(w *docWriter, c casefile.Case, v casefile.View) {
	for _, s := range formSections {
		w.heading(s.title)
		rows := make([][2]string, 0, len(s.fields))
		for _, name := range s.fields {
			rows = append(rows, [2]string{b.table.Label(name), b.value(c, v, name)})
		}
		w.labelRows(rows)
	}

	w.heading("Civil Status of Parents")
	w.paragraph(b.civilStatusLine(c, v))

	for _, t := range c.Tables() {
		w.heading(t.Title)
		w.grid(t.Columns, t.Padded())
	}

	checklist := casefile.Table{Columns: []string{"Item", "Completed"}, MinRows: casefile.DefaultMinRows}
	for _, item := range c.Checklist {
		checklist.Rows = append(checklist.Rows, []string{item.Text, item.Timestamp})
	}
	w.heading("Checklist")
	w.grid(checklist.Columns, checklist.Padded())

	for _, name := range casefile.NarrativeFields {
		w.heading(b.table.Label(name))
		w.paragraph(b.value(c, v, name))
	}
}

// value resolves a slot: normalized value, else the raw record, else the
// placeholder rule.
func (b *Builder) value(c casefile.Case, v casefile.View, name string) string {
	if s := v.Text(name); s != "" {
		return s
	}
	if spec, ok := b.table.Lookup(name); ok {
		if s := strings.TrimSpace(casefile.ResolveString(c.Fields, spec.Aliases...)); s != "" {
			return s
		}
	}
	return Placeholder
}

func (b *Builder) civilStatusLine(c casefile.Case, v casefile.View) string {
	parts := make([]string, 0, len(casefile.CivilStatusFields))
	for _, name := range casefile.CivilStatusFields {
		glyph := uncheckedGlyph
		if v.Flag(name) == casefile.TriYes {
			glyph = checkedGlyph
		}
		parts = append(parts, glyph+" "+b.table.Label(name))
	}
	return strings.Join(parts, "    ")
}

// writeSignatures writes the two-column signature block
func writeSignatures(w *docWriter) {
	w.heading("Signatures")
	rows := []struct {
		left, right string
		bold        bool
	}{
		{Placeholder, Placeholder, false},
		{"Signature of Client / Guardian", "Signature of Social Worker", true},
		{"Date: " + Placeholder, "Date: " + Placeholder, false},
	}
	table := w.doc.AddTable()
	for _, r := range rows {
		row := table.AddRow()
		cell(row, r.left, r.bold)
		cell(row, r.right, r.bold)
	}
}
