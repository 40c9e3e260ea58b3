package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/logging"
)

const (
	fieldFontName = "Helvetica"
	fieldFontSize = 9
)

// PDFCPUEngine implements Engine with the pdfcpu library
type PDFCPUEngine struct {
	logger *zap.Logger
}

// NewPDFCPUEngine creates a new pdfcpu-backed engine
func NewPDFCPUEngine(logger *zap.Logger) *PDFCPUEngine {
	return &PDFCPUEngine{logger: logging.OrNop(logger)}
}

func relaxedConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func (e *PDFCPUEngine) readContext(pdf []byte) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(pdf), relaxedConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

// ListFields walks the AcroForm field tree and returns text and checkbox
// fields. Other field types are ignored.
func (e *PDFCPUEngine) ListFields(pdf []byte) ([]TemplateField, error) {
	ctx, err := e.readContext(pdf)
	if err != nil {
		return nil, err
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return nil, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	var fields []TemplateField
	for _, fieldRef := range fieldsArray {
		fields = e.collectField(ctx, fieldRef, "", "", fields)
	}
	return fields, nil
}

// collectField appends the terminal fields below fieldObj. Names of nested
// fields are joined with dots; the field type is inherited from parents.
func (e *PDFCPUEngine) collectField(ctx *model.Context, fieldObj types.Object, parentName, parentType string, out []TemplateField) []TemplateField {
	fieldDict, err := ctx.DereferenceDict(fieldObj)
	if err != nil || fieldDict == nil {
		e.logger.Debug("skipping unreadable form field", zap.Error(err))
		return out
	}

	name := parentName
	if nameObj, found := fieldDict.Find("T"); found {
		if partial, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil && partial != "" {
			if name != "" {
				name += "."
			}
			name += partial
		}
	}

	fieldType := parentType
	if ftObj, found := fieldDict.Find("FT"); found {
		if ft, err := ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
			fieldType = ft.Value()
		}
	}

	// Kids carrying their own names are child fields; unnamed kids are just
	// widget annotations of this field.
	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kids, err := ctx.DereferenceArray(kidsObj); err == nil && hasNamedKid(ctx, kids) {
			for _, kid := range kids {
				out = e.collectField(ctx, kid, name, fieldType, out)
			}
			return out
		}
	}

	if name == "" {
		return out
	}
	switch fieldType {
	case "Tx":
		return append(out, TemplateField{Name: name, Kind: FieldText})
	case "Btn":
		if isPlainCheckbox(ctx, fieldDict) {
			return append(out, TemplateField{Name: name, Kind: FieldCheckbox})
		}
	}
	return out
}

func hasNamedKid(ctx *model.Context, kids types.Array) bool {
	for _, kid := range kids {
		d, err := ctx.DereferenceDict(kid)
		if err != nil || d == nil {
			continue
		}
		if _, found := d.Find("T"); found {
			return true
		}
	}
	return false
}

// isPlainCheckbox excludes radio groups (bit 16) and push buttons (bit 17)
func isPlainCheckbox(ctx *model.Context, fieldDict types.Dict) bool {
	flagsObj, found := fieldDict.Find("Ff")
	if !found {
		return true
	}
	flags, err := ctx.DereferenceInteger(flagsObj)
	if err != nil || flags == nil {
		return true
	}
	return (*flags)&(1<<15) == 0 && (*flags)&(1<<16) == 0
}

// pdfcpu create JSON: fields are added to the pages of an existing document.
type createDocument struct {
	Origin string                `json:"origin"`
	Pages  map[string]createPage `json:"pages"`
}

type createPage struct {
	Content createContent `json:"content"`
}

type createContent struct {
	TextFields []createTextField `json:"textfield,omitempty"`
	CheckBoxes []createCheckBox  `json:"checkbox,omitempty"`
}

type fontRef struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type createTextField struct {
	ID        string     `json:"id"`
	Value     string     `json:"value"`
	Pos       [2]float64 `json:"pos"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height,omitempty"`
	Multiline bool       `json:"multiline,omitempty"`
	Font      fontRef    `json:"font"`
}

type createCheckBox struct {
	ID    string     `json:"id"`
	Value bool       `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Width float64    `json:"width"`
}

func buildCreateDocument(schema Schema) createDocument {
	doc := createDocument{Origin: "LowerLeft", Pages: map[string]createPage{}}
	for _, f := range schema {
		key := fmt.Sprintf("%d", f.Page)
		page := doc.Pages[key]
		ref := fontRef{Name: fieldFontName, Size: fieldFontSize}
		switch f.Kind {
		case FieldCheckbox:
			page.Content.CheckBoxes = append(page.Content.CheckBoxes, createCheckBox{
				ID: f.Name, Pos: [2]float64{f.X, f.Y}, Width: f.Width,
			})
		default:
			page.Content.TextFields = append(page.Content.TextFields, createTextField{
				ID: f.Name, Pos: [2]float64{f.X, f.Y}, Width: f.Width, Height: f.Height,
				Multiline: f.Multiline, Font: ref,
			})
		}
		doc.Pages[key] = page
	}
	return doc
}

// AddFields creates the schema's fields on top of base
func (e *PDFCPUEngine) AddFields(base []byte, schema Schema) ([]byte, error) {
	spec, err := json.Marshal(buildCreateDocument(schema))
	if err != nil {
		return nil, fmt.Errorf("encode field layout: %w", err)
	}
	var out bytes.Buffer
	if err := api.Create(bytes.NewReader(base), bytes.NewReader(spec), &out, relaxedConfiguration()); err != nil {
		return nil, fmt.Errorf("create form fields: %w", err)
	}
	return out.Bytes(), nil
}

// pdfcpu fill JSON
type fillDocument struct {
	Forms []fillForm `json:"forms"`
}

type fillForm struct {
	TextFields []fillTextField `json:"textfield,omitempty"`
	CheckBoxes []fillCheckBox  `json:"checkbox,omitempty"`
}

type fillTextField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

type fillCheckBox struct {
	Name   string `json:"name"`
	Value  bool   `json:"value"`
	Locked bool   `json:"locked"`
}

func buildFillDocument(values []FieldValue) fillDocument {
	var f fillForm
	for _, v := range values {
		if v.Kind == FieldCheckbox {
			f.CheckBoxes = append(f.CheckBoxes, fillCheckBox{Name: v.Name, Value: v.Checked, Locked: true})
			continue
		}
		f.TextFields = append(f.TextFields, fillTextField{Name: v.Name, Value: v.Text, Locked: true})
	}
	return fillDocument{Forms: []fillForm{f}}
}

// Fill writes values into matching fields and locks them
func (e *PDFCPUEngine) Fill(pdf []byte, values []FieldValue) ([]byte, error) {
	if len(values) == 0 {
		return pdf, nil
	}
	data, err := json.Marshal(buildFillDocument(values))
	if err != nil {
		return nil, fmt.Errorf("encode form values: %w", err)
	}
	var out bytes.Buffer
	if err := api.FillForm(bytes.NewReader(pdf), bytes.NewReader(data), &out, relaxedConfiguration()); err != nil {
		return nil, fmt.Errorf("fill form: %w", err)
	}
	return out.Bytes(), nil
}

// Flatten drops the AcroForm so the filled widgets remain only as printed
// appearances; the fields are no longer interactive.
func (e *PDFCPUEngine) Flatten(pdf []byte) ([]byte, error) {
	ctx, err := e.readContext(pdf)
	if err != nil {
		return nil, err
	}
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	rootDict.Delete("AcroForm")

	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("validate flattened document: %w", err)
	}
	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("write flattened document: %w", err)
	}
	return out.Bytes(), nil
}

// PageSizes returns the size of every page
func (e *PDFCPUEngine) PageSizes(pdf []byte) ([]PageSize, error) {
	dims, err := api.PageDims(bytes.NewReader(pdf), relaxedConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read page dimensions: %w", err)
	}
	sizes := make([]PageSize, 0, len(dims))
	for _, d := range dims {
		sizes = append(sizes, PageSize{Width: d.Width, Height: d.Height})
	}
	return sizes, nil
}

// AppendBlankPages adds n pages after the last page
func (e *PDFCPUEngine) AppendBlankPages(pdf []byte, n int) ([]byte, error) {
	current := pdf
	for i := 0; i < n; i++ {
		var out bytes.Buffer
		if err := api.InsertPages(bytes.NewReader(current), &out, []string{"l"}, false, nil, relaxedConfiguration()); err != nil {
			return nil, fmt.Errorf("append blank page: %w", err)
		}
		current = out.Bytes()
	}
	return current, nil
}

// pdfcpu expands %p and %P in stamp text to page numbers
var stampTextEscaper = strings.NewReplacer("%p", "% p", "%P", "% P", "\n", " ", "\r", " ")

// Stamp paints text placements as absolute-positioned text stamps
func (e *PDFCPUEngine) Stamp(pdf []byte, placements map[int][]Placement) ([]byte, error) {
	if len(placements) == 0 {
		return pdf, nil
	}
	stamps := make(map[int][]*model.Watermark, len(placements))
	for page, list := range placements {
		for _, p := range list {
			fontName := fieldFontName
			if p.Bold {
				fontName = "Helvetica-Bold"
			}
			desc := fmt.Sprintf("font:%s, points:%d, pos:bl, off:%.2f %.2f, scale:1 abs, rot:0, fillcolor:#000000",
				fontName, p.Size, p.X, p.Y)
			wm, err := api.TextWatermark(stampTextEscaper.Replace(p.Text), desc, true, false, types.POINTS)
			if err != nil {
				return nil, fmt.Errorf("build stamp for page %d: %w", page, err)
			}
			stamps[page] = append(stamps[page], wm)
		}
	}
	var out bytes.Buffer
	if err := api.AddWatermarksSliceMap(bytes.NewReader(pdf), &out, stamps, relaxedConfiguration()); err != nil {
		return nil, fmt.Errorf("apply stamps: %w", err)
	}
	return out.Bytes(), nil
}

// HelveticaWidth measures text in the core Helvetica font
func HelveticaWidth(text string, size int) float64 {
	return font.TextWidth(text, fieldFontName, size)
}
