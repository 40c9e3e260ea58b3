package form

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/casefile"
	"github.com/a3tai/casedocs/internal/logging"
)

// Placement is one line of text painted at an absolute position (PDF points,
// origin lower-left) on a 1-based page.
type Placement struct {
	Page int
	X    float64
	Y    float64
	Text string
	Size int
	Bold bool
}

// Measure returns the width of text at a font size in points
type Measure func(text string, size int) float64

// Geometry describes the overlay grid
type Geometry struct {
	PageWidth    float64
	PageHeight   float64
	TopMargin    float64
	BottomMargin float64
	LeftX        float64
	RightX       float64
	Step         float64
	FontSize     int
}

// DefaultGeometry is the US Letter grid used when the base template has no
// usable form fields.
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:    612,
		PageHeight:   792,
		TopMargin:    60,
		BottomMargin: 50,
		LeftX:        40,
		RightX:       310,
		Step:         14,
		FontSize:     9,
	}
}

// ContentWidth is the width available to full-width text
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - 2*g.LeftX
}

func (g Geometry) columnWidth() float64 {
	return g.RightX - g.LeftX - 10
}

type overlaySection struct {
	title     string
	fields    []string
	narrative bool
}

func overlaySections() []overlaySection {
	return []overlaySection{
		{title: "Identifying Information", fields: casefile.IdentityFields},
		{title: "Address", fields: casefile.AddressFields},
		{title: "Referral", fields: casefile.ReferralFields},
		{title: "Program", fields: casefile.ProgramFields},
		{title: "Parents / Guardian", fields: casefile.FamilyFields},
		{title: "Civil Status of Parents", fields: casefile.CivilStatusFields},
		{title: "Narrative", fields: casefile.NarrativeFields, narrative: true},
	}
}

// Wrap breaks text into lines no wider than width using greedy word wrap.
// A word wider than width is broken across lines.
func Wrap(text string, width float64, size int, measure Measure) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		line := ""
		for _, w := range strings.Fields(paragraph) {
			if line != "" {
				if candidate := line + " " + w; measure(candidate, size) <= width {
					line = candidate
					continue
				}
				lines = append(lines, line)
			}
			pieces := breakWord(w, width, size, measure)
			lines = append(lines, pieces[:len(pieces)-1]...)
			line = pieces[len(pieces)-1]
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// breakWord splits word at rune boundaries into pieces no wider than width.
// Every piece holds at least one rune.
func breakWord(word string, width float64, size int, measure Measure) []string {
	if measure(word, size) <= width {
		return []string{word}
	}
	runes := []rune(word)
	var pieces []string
	start := 0
	for i := start + 2; i <= len(runes); i++ {
		if measure(string(runes[start:i]), size) > width {
			pieces = append(pieces, string(runes[start:i-1]))
			start = i - 1
		}
	}
	return append(pieces, string(runes[start:]))
}

type cursor struct {
	geo  Geometry
	page int
	y    float64
}

func (c *cursor) top() float64 {
	return c.geo.PageHeight - c.geo.TopMargin
}

// reserve moves to a new page when n lines would cross the bottom margin
func (c *cursor) reserve(n int) {
	if c.y-float64(n-1)*c.geo.Step < c.geo.BottomMargin {
		c.page++
		c.y = c.top()
	}
}

func (c *cursor) advance(n int) {
	c.y -= float64(n) * c.geo.Step
}

// LayoutOverlay lays the view out as label/value text on a two-column grid.
// Empty values and sections with no values are skipped; narratives span the
// content width. It is a pure function of its inputs.
func LayoutOverlay(view casefile.View, table casefile.AliasTable, geo Geometry, measure Measure) []Placement {
	c := &cursor{geo: geo, page: 1}
	c.y = c.top()
	size := geo.FontSize
	var out []Placement

	for _, section := range overlaySections() {
		var present []string
		for _, name := range section.fields {
			if view.Has(name) {
				present = append(present, name)
			}
		}
		if len(present) == 0 {
			continue
		}

		c.reserve(2)
		out = append(out, Placement{Page: c.page, X: geo.LeftX, Y: c.y, Text: section.title, Size: size + 1, Bold: true})
		c.advance(1)

		if section.narrative {
			for _, name := range present {
				c.reserve(2)
				out = append(out, Placement{Page: c.page, X: geo.LeftX, Y: c.y, Text: table.Label(name), Size: size, Bold: true})
				c.advance(1)
				for _, line := range Wrap(view.Text(name), geo.ContentWidth(), size, measure) {
					c.reserve(1)
					out = append(out, Placement{Page: c.page, X: geo.LeftX, Y: c.y, Text: line, Size: size})
					c.advance(1)
				}
			}
			c.advance(1)
			continue
		}

		for i := 0; i < len(present); i += 2 {
			left := Wrap(cellText(table, view, present[i]), geo.columnWidth(), size, measure)
			var right []string
			if i+1 < len(present) {
				right = Wrap(cellText(table, view, present[i+1]), geo.columnWidth(), size, measure)
			}
			rows := max(len(left), len(right))
			c.reserve(rows)
			for j, line := range left {
				out = append(out, Placement{Page: c.page, X: geo.LeftX, Y: c.y - float64(j)*geo.Step, Text: line, Size: size})
			}
			for j, line := range right {
				out = append(out, Placement{Page: c.page, X: geo.RightX, Y: c.y - float64(j)*geo.Step, Text: line, Size: size})
			}
			c.advance(rows)
		}
		c.advance(1)
	}
	return out
}

func cellText(table casefile.AliasTable, view casefile.View, name string) string {
	return table.Label(name) + ": " + view.Text(name)
}

// Overlay paints a view onto a base document as plain text
type Overlay struct {
	engine  Engine
	table   casefile.AliasTable
	measure Measure
	logger  *zap.Logger
}

// NewOverlay creates an overlay renderer
func NewOverlay(engine Engine, table casefile.AliasTable, measure Measure, logger *zap.Logger) *Overlay {
	return &Overlay{engine: engine, table: table, measure: measure, logger: logging.OrNop(logger)}
}

// Render lays the view out on base, appending blank pages when the layout
// runs past the pages base already has.
func (o *Overlay) Render(ctx context.Context, view casefile.View, base []byte) ([]byte, error) {
	geo := DefaultGeometry()
	sizes, err := o.engine.PageSizes(base)
	if err != nil {
		return nil, fmt.Errorf("read base page sizes: %w", err)
	}
	if len(sizes) > 0 && sizes[0].Width > 0 && sizes[0].Height > 0 {
		geo.PageWidth = sizes[0].Width
		geo.PageHeight = sizes[0].Height
	}

	placements := LayoutOverlay(view, o.table, geo, o.measure)
	if len(placements) == 0 {
		return base, nil
	}

	byPage := make(map[int][]Placement)
	pages := 0
	for _, p := range placements {
		byPage[p.Page] = append(byPage[p.Page], p)
		pages = max(pages, p.Page)
	}

	doc := base
	if missing := pages - len(sizes); missing > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err = o.engine.AppendBlankPages(doc, missing)
		if err != nil {
			return nil, fmt.Errorf("extend base document: %w", err)
		}
	}

	o.logger.Debug("painting overlay",
		zap.Int("placements", len(placements)),
		zap.Int("pages", pages))
	return o.engine.Stamp(doc, byPage)
}
