// Package render turns case records into documents: the filled intake form,
// PDF reports, Word documents and the batch summary spreadsheet.
package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/batch"
	"github.com/a3tai/casedocs/internal/casefile"
	"github.com/a3tai/casedocs/internal/errors"
	"github.com/a3tai/casedocs/internal/headless"
	"github.com/a3tai/casedocs/internal/logging"
	"github.com/a3tai/casedocs/internal/markup"
	"github.com/a3tai/casedocs/internal/office"
	"github.com/a3tai/casedocs/internal/pdf/form"
	"github.com/a3tai/casedocs/internal/sheet"
)

// Templates provides the intake template
type Templates interface {
	Ensure(ctx context.Context) (form.ProvisionResult, error)
	Load() ([]byte, error)
	FillablePath() string
}

// FormFiller writes a normalized case into a template
type FormFiller interface {
	Fill(ctx context.Context, view casefile.View, template []byte) (*form.FillResult, error)
}

// Printer prints markup to PDF
type Printer interface {
	Render(ctx context.Context, markup []byte, opts headless.PageOptions) ([]byte, error)
}

// Converter turns DOCX into PDF
type Converter interface {
	Convert(ctx context.Context, docx []byte) ([]byte, error)
}

// Components are the collaborators of a Service
type Components struct {
	Store            batch.Fetcher
	StoreKind        string
	Normalizer       *casefile.Normalizer
	Templates        Templates
	Filler           FormFiller
	Printer          Printer
	Converter        Converter
	FetchConcurrency int
	PageFormat       string
}

// Service handles document rendering by orchestrating the pipeline stages:
// fetch, normalize, build and print or convert.
type Service struct {
	store      batch.Fetcher
	storeKind  string
	normalizer *casefile.Normalizer
	templates  Templates
	filler     FormFiller
	printer    Printer
	converter  Converter
	aggregator *batch.Aggregator
	reports    *markup.Builder
	documents  *office.Builder
	pageFormat string
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock sets the clock used for filenames and generation stamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(logger) }
}

// NewService creates a render service from its components
func NewService(c Components, opts ...Option) *Service {
	s := &Service{
		store:      c.Store,
		storeKind:  c.StoreKind,
		normalizer: c.Normalizer,
		templates:  c.Templates,
		filler:     c.Filler,
		printer:    c.Printer,
		converter:  c.Converter,
		pageFormat: c.PageFormat,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = casefile.NewNormalizer()
	}
	if s.pageFormat == "" {
		s.pageFormat = headless.DefaultPageOptions().Format
	}

	table := s.normalizer.Table()
	s.aggregator = batch.NewAggregator(c.Store, c.FetchConcurrency, s.logger)
	s.reports = markup.NewBuilder(table, markup.WithClock(s.now))
	s.documents = office.NewBuilder(table, s.now)
	return s
}

// CaseForm renders the case onto the intake template
func (s *Service) CaseForm(ctx context.Context, req CaseRequest) (*FormResult, error) {
	c, err := s.resolveCase(ctx, req)
	if err != nil {
		return nil, err
	}
	view := s.normalizer.Normalize(c.Fields)

	if res, err := s.templates.Ensure(ctx); err != nil {
		s.logger.Warn("template provisioning failed, rendering with base template", zap.Error(err))
	} else if res == form.ProvisionCreated {
		s.logger.Info("fillable template created on first use")
	}
	template, err := s.templates.Load()
	if err != nil {
		return nil, err
	}

	filled, err := s.filler.Fill(ctx, view, template)
	if err != nil {
		return nil, err
	}
	if filled.Failures.Count() > 0 {
		s.logger.Warn("some form fields were not written",
			zap.String("case_id", c.ID),
			zap.Strings("fields", filled.Failures.Fields()))
	}

	return &FormResult{
		Document: Document{
			Name:        s.filename(KindIntakeForm, c.ID, "pdf"),
			ContentType: ContentTypePDF,
			Data:        filled.PDF,
		},
		Mode:    filled.Mode,
		Written: filled.Written,
		Skipped: filled.Failures.Fields(),
	}, nil
}

// CaseReport renders the case as a printed report
func (s *Service) CaseReport(ctx context.Context, req CaseRequest) (*Document, error) {
	opts, err := s.pageOptions(req.Format, req.Landscape, "", false)
	if err != nil {
		return nil, err
	}
	c, err := s.resolveCase(ctx, req)
	if err != nil {
		return nil, err
	}
	item := casefile.NewItem(s.normalizer, c)

	html, err := s.reports.Case(item.Case, item.View)
	if err != nil {
		return nil, fmt.Errorf("build case report: %w", err)
	}
	pdf, err := s.print(ctx, html, opts)
	if err != nil {
		return nil, err
	}
	return &Document{
		Name:        s.filename(KindCaseReport, c.ID, "pdf"),
		ContentType: ContentTypePDF,
		Data:        pdf,
	}, nil
}

// CaseDocument renders the case as a Word intake document, converted to PDF
// when output asks for it.
func (s *Service) CaseDocument(ctx context.Context, req CaseRequest, output OfficeOutput) (*Document, error) {
	if err := validOutput(output); err != nil {
		return nil, err
	}
	c, err := s.resolveCase(ctx, req)
	if err != nil {
		return nil, err
	}
	item := casefile.NewItem(s.normalizer, c)

	docx, err := s.documents.IntakeForm(item.Case, item.View)
	if err != nil {
		return nil, fmt.Errorf("build intake document: %w", err)
	}
	return s.officeDocument(ctx, docx, output, s.filename(KindIntakeDocument, c.ID, string(output)))
}

// BatchReport renders several cases as one printed report
func (s *Service) BatchReport(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	opts, err := s.pageOptions(req.Format, req.Landscape, "Case Summary Report", true)
	if err != nil {
		return nil, err
	}
	items, err := s.resolveBatch(ctx, req)
	if err != nil {
		return nil, err
	}

	html, err := s.reports.Batch(items, req.ListOnly)
	if err != nil {
		return nil, fmt.Errorf("build batch report: %w", err)
	}
	pdf, err := s.print(ctx, html, opts)
	if err != nil {
		return nil, err
	}
	return &BatchResult{
		Document: Document{
			Name:        s.filename(KindBatchReport, "", "pdf"),
			ContentType: ContentTypePDF,
			Data:        pdf,
		},
		Cases: len(items),
	}, nil
}

// BatchDocument renders several cases as one Word document
func (s *Service) BatchDocument(ctx context.Context, req BatchRequest, output OfficeOutput) (*BatchResult, error) {
	if err := validOutput(output); err != nil {
		return nil, err
	}
	items, err := s.resolveBatch(ctx, req)
	if err != nil {
		return nil, err
	}

	docx, err := s.documents.Batch(items, req.ListOnly)
	if err != nil {
		return nil, fmt.Errorf("build batch document: %w", err)
	}
	doc, err := s.officeDocument(ctx, docx, output, s.filename(KindBatchDocument, "", string(output)))
	if err != nil {
		return nil, err
	}
	return &BatchResult{Document: *doc, Cases: len(items)}, nil
}

// BatchSummary writes the batch as a spreadsheet
func (s *Service) BatchSummary(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	items, err := s.resolveBatch(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := sheet.Summary(items)
	if err != nil {
		return nil, fmt.Errorf("build batch summary: %w", err)
	}
	return &BatchResult{
		Document: Document{
			Name:        s.filename(KindBatchSummary, "", "xlsx"),
			ContentType: ContentTypeXLSX,
			Data:        data,
		},
		Cases: len(items),
	}, nil
}

// ProvisionTemplate derives the fillable template when it is missing
func (s *Service) ProvisionTemplate(ctx context.Context) (*ProvisionResult, error) {
	res, err := s.templates.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	return &ProvisionResult{Status: res.String(), FillablePath: s.templates.FillablePath()}, nil
}

// resolveCase uses the payload when one is given and fetches by id otherwise
func (s *Service) resolveCase(ctx context.Context, req CaseRequest) (casefile.Case, error) {
	if len(req.Payload) > 0 {
		return casefile.DecodeCase(req.Payload), nil
	}
	id := strings.TrimSpace(req.CaseID)
	if id == "" {
		return casefile.Case{}, errors.New(errors.ErrorTypeInvalidInput, "case_id or payload is required")
	}
	if s.store == nil {
		return casefile.Case{}, errors.New(errors.ErrorTypeInvalidInput, "no case store configured").WithContext("id " + id)
	}

	requestID := uuid.NewString()
	s.logger.Debug("fetching case", zap.String("case_id", id), zap.String("request_id", requestID))
	c, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Info("case fetch failed",
			zap.String("case_id", id),
			zap.String("request_id", requestID),
			zap.Error(err))
		return casefile.Case{}, err
	}
	return c, nil
}

func (s *Service) resolveBatch(ctx context.Context, req BatchRequest) ([]casefile.Item, error) {
	var b batch.Batch
	switch {
	case len(req.Payloads) > 0 && len(req.CaseIDs) > 0:
		return nil, errors.New(errors.ErrorTypeInvalidInput, "provide case_ids or payloads, not both")
	case len(req.Payloads) > 0:
		b = batch.Batch{Cases: batch.FromPayloads(req.Payloads), ListOnly: req.ListOnly}
	case len(req.CaseIDs) > 0:
		if s.store == nil {
			return nil, errors.New(errors.ErrorTypeInvalidInput, "no case store configured")
		}
		cases, err := s.aggregator.Collect(ctx, req.CaseIDs)
		if err != nil {
			return nil, err
		}
		b = batch.Batch{Cases: cases, ListOnly: req.ListOnly}
	default:
		return nil, errors.New(errors.ErrorTypeInvalidInput, "case_ids or payloads are required")
	}
	return b.Items(s.normalizer), nil
}

func (s *Service) print(ctx context.Context, html []byte, opts headless.PageOptions) ([]byte, error) {
	if s.printer == nil {
		return nil, errors.New(errors.ErrorTypeRenderEngineUnavailable, "no headless renderer configured")
	}
	return s.printer.Render(ctx, html, opts)
}

func (s *Service) officeDocument(ctx context.Context, docx []byte, output OfficeOutput, name string) (*Document, error) {
	if output == OutputDOCX {
		return &Document{Name: name, ContentType: ContentTypeDOCX, Data: docx}, nil
	}
	if s.converter == nil {
		return nil, errors.New(errors.ErrorTypeConversionFailed, "no office converter configured")
	}
	pdf, err := s.converter.Convert(ctx, docx)
	if err != nil {
		return nil, err
	}
	return &Document{Name: name, ContentType: ContentTypePDF, Data: pdf}, nil
}

func (s *Service) pageOptions(format string, landscape bool, title string, chrome bool) (headless.PageOptions, error) {
	opts := headless.DefaultPageOptions()
	opts.Format = s.pageFormat
	if format != "" {
		if !headless.ValidFormat(format) {
			return opts, errors.New(errors.ErrorTypeInvalidInput, "unsupported page format").
				WithContext(format + " (must be one of: letter, a4, legal)")
		}
		opts.Format = strings.ToLower(format)
	}
	opts.Landscape = landscape
	opts.Title = title
	opts.ShowChrome = chrome
	return opts, nil
}

func validOutput(output OfficeOutput) error {
	switch output {
	case OutputDOCX, OutputPDF:
		return nil
	}
	return errors.New(errors.ErrorTypeInvalidInput, "unsupported output").
		WithContext(string(output) + " (must be docx or pdf)")
}

// filename returns <kind>-<case id or today's date>.<ext>
func (s *Service) filename(kind, caseID, ext string) string {
	suffix := sanitizeID(caseID)
	if suffix == "" {
		suffix = s.now().Format("2006-01-02")
	}
	return fmt.Sprintf("%s-%s.%s", kind, suffix, ext)
}

func sanitizeID(id string) string {
	return strings.Trim(strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(id)), "-")
}
