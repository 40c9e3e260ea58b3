// Package office builds word-processor documents and converts them to PDF.
package office

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

// ContentType is the MIME type of the documents this package writes
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// gridStyle is the bordered table style of the default template
const gridStyle = "TableGrid"

// docWriter appends content to a document started from the library's
// default template
type docWriter struct {
	doc *docx.RootDoc
}

func newDocWriter() (*docWriter, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return &docWriter{doc: doc}, nil
}

// paragraph writes text; each line becomes its own paragraph
func (w *docWriter) paragraph(text string) {
	for _, line := range strings.Split(text, "\n") {
		w.doc.AddParagraph(line)
	}
}

func (w *docWriter) title(text string) {
	w.doc.AddHeading(text, 0)
}

func (w *docWriter) heading(text string) {
	w.doc.AddHeading(text, 2)
}

func (w *docWriter) pageBreak() {
	w.doc.AddPageBreak()
}

func cell(row *docx.Row, text string, bold bool) {
	p := row.AddCell().AddParagraph("")
	p.AddText(text).Bold(bold)
}

// labelRows writes borderless two-cell rows with a bold label
func (w *docWriter) labelRows(rows [][2]string) {
	if len(rows) == 0 {
		return
	}
	table := w.doc.AddTable()
	for _, r := range rows {
		row := table.AddRow()
		cell(row, r[0], true)
		cell(row, r[1], false)
	}
	w.doc.AddParagraph("")
}

// grid writes a bordered table with a bold header row
func (w *docWriter) grid(columns []string, rows [][]string) {
	table := w.doc.AddTable()
	table.Style(gridStyle)
	header := table.AddRow()
	for _, c := range columns {
		cell(header, c, true)
	}
	for _, values := range rows {
		row := table.AddRow()
		for i := range columns {
			text := ""
			if i < len(values) {
				text = values[i]
			}
			cell(row, text, false)
		}
	}
	w.doc.AddParagraph("")
}

// pack saves the document and returns the .docx bytes
func (w *docWriter) pack() ([]byte, error) {
	dir, err := os.MkdirTemp("", "casedocs-docx-")
	if err != nil {
		return nil, fmt.Errorf("create document directory: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "document.docx")
	if err := w.doc.SaveTo(path); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}
