package form

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/casefile"
	"github.com/a3tai/casedocs/internal/errors"
	"github.com/a3tai/casedocs/internal/logging"
)

// FillMode tells how a document was produced
type FillMode string

const (
	ModeForm    FillMode = "form"
	ModeOverlay FillMode = "overlay"
)

// FillResult is a rendered intake form
type FillResult struct {
	PDF      []byte
	Mode     FillMode
	Written  int
	Failures errors.FieldFailures
}

// Filler writes a normalized view into the intake template
type Filler struct {
	engine  Engine
	schema  Schema
	overlay *Overlay
	logger  *zap.Logger
}

// NewFiller creates a filler that falls back to overlay when the template has
// no usable fields.
func NewFiller(engine Engine, schema Schema, overlay *Overlay, logger *zap.Logger) *Filler {
	return &Filler{engine: engine, schema: schema, overlay: overlay, logger: logging.OrNop(logger)}
}

// Fill renders the view onto template. Fields that cannot be written are
// recorded in the result and skipped.
func (f *Filler) Fill(ctx context.Context, view casefile.View, template []byte) (*FillResult, error) {
	fields, err := f.engine.ListFields(template)
	if err != nil {
		f.logger.Warn("could not list template fields, using overlay", zap.Error(err))
		fields = nil
	}

	available := make(map[string]FieldKind, len(fields))
	for _, tf := range fields {
		if _, declared := f.schema.Lookup(tf.Name); declared {
			available[tf.Name] = tf.Kind
		}
	}

	if len(available) == 0 {
		pdf, err := f.overlay.Render(ctx, view, template)
		if err != nil {
			return nil, fmt.Errorf("overlay render: %w", err)
		}
		return &FillResult{PDF: pdf, Mode: ModeOverlay}, nil
	}

	result := &FillResult{Mode: ModeForm}
	values := f.collectValues(view, available, &result.Failures)

	filled, err := f.engine.Fill(template, values)
	result.Written = len(values)
	if err != nil {
		f.logger.Debug("bulk fill failed, filling field by field", zap.Error(err))
		filled, result.Written, err = f.fillEach(ctx, template, values, &result.Failures)
		if err != nil {
			return nil, err
		}
	}

	flat, err := f.engine.Flatten(filled)
	if err != nil {
		f.logger.Warn("flatten failed, returning locked form", zap.Error(err))
		flat = filled
	}
	result.PDF = flat

	if n := result.Failures.Count(); n > 0 {
		f.logger.Warn("some fields were skipped",
			zap.Int("skipped", n),
			zap.Strings("fields", result.Failures.Fields()))
	}
	return result, nil
}

// collectValues maps non-empty view values onto fields present in the
// template. A kind mismatch between schema and template is a field failure.
func (f *Filler) collectValues(view casefile.View, available map[string]FieldKind, failures *errors.FieldFailures) []FieldValue {
	var values []FieldValue
	for _, spec := range f.schema {
		kind, ok := available[spec.Name]
		if !ok || !view.Has(spec.Name) {
			continue
		}
		if kind != spec.Kind {
			failures.Add(spec.Name, fmt.Errorf("template field is %s, expected %s", kind, spec.Kind))
			continue
		}
		v := FieldValue{Name: spec.Name, Kind: spec.Kind}
		if spec.Kind == FieldCheckbox {
			v.Checked = view.Flag(spec.Name) == casefile.TriYes
		} else {
			v.Text = view.Text(spec.Name)
		}
		values = append(values, v)
	}
	return values
}

func (f *Filler) fillEach(ctx context.Context, template []byte, values []FieldValue, failures *errors.FieldFailures) ([]byte, int, error) {
	doc := template
	written := 0
	for _, v := range values {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		next, err := f.engine.Fill(doc, []FieldValue{v})
		if err != nil {
			failures.Add(v.Name, err)
			continue
		}
		doc = next
		written++
	}
	return doc, written, nil
}
