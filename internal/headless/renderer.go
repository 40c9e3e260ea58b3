// Package headless prints HTML documents to PDF with a headless Chromium.
package headless

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/errors"
	"github.com/a3tai/casedocs/internal/logging"
)

// Paper sizes in inches, as the DevTools protocol expects them.
var paperSizes = map[string][2]float64{
	"letter": {8.5, 11},
	"a4":     {8.27, 11.69},
	"legal":  {8.5, 14},
}

// Margins are page margins in inches
type Margins struct {
	Top, Right, Bottom, Left float64
}

// PageOptions controls pagination
type PageOptions struct {
	Format     string
	Landscape  bool
	Margins    Margins
	ShowChrome bool
	Title      string
}

// DefaultPageOptions returns letter portrait with half-inch margins
func DefaultPageOptions() PageOptions {
	return PageOptions{
		Format:  "letter",
		Margins: Margins{Top: 0.5, Right: 0.5, Bottom: 0.5, Left: 0.5},
	}
}

// ValidFormat reports whether format names a supported paper size
func ValidFormat(format string) bool {
	_, ok := paperSizes[strings.ToLower(format)]
	return ok
}

// Renderer starts one browser per document. Browsers are never pooled.
type Renderer struct {
	browserBin string
	noSandbox  bool
	timeout    time.Duration
	logger     *zap.Logger
}

// NewRenderer creates a renderer. An empty browserBin lets rod locate or
// download a browser.
func NewRenderer(browserBin string, noSandbox bool, timeout time.Duration, logger *zap.Logger) *Renderer {
	return &Renderer{
		browserBin: browserBin,
		noSandbox:  noSandbox,
		timeout:    timeout,
		logger:     logging.OrNop(logger),
	}
}

// Render loads markup into a fresh page and prints it
func (r *Renderer) Render(ctx context.Context, markup []byte, opts PageOptions) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := time.Now()

	l := launcher.New().
		Context(ctx).
		Headless(true).
		Leakless(false).
		NoSandbox(r.noSandbox)
	if r.browserBin != "" {
		l = l.Bin(r.browserBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, r.classify(ctx, errors.ErrorTypeRenderEngineUnavailable, "failed to launch browser", err)
	}
	// Cleanup waits for the process to exit, so it must follow Kill.
	defer func() {
		l.Kill()
		l.Cleanup()
	}()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, r.classify(ctx, errors.ErrorTypeRenderEngineUnavailable, "failed to connect to browser", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			r.logger.Debug("browser close failed", zap.Error(err))
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, r.classify(ctx, errors.ErrorTypeRenderEngineUnavailable, "failed to open page", err)
	}
	if err := page.SetDocumentContent(string(markup)); err != nil {
		return nil, r.classify(ctx, errors.ErrorTypeRenderEngineUnavailable, "failed to load document", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, r.classify(ctx, errors.ErrorTypeRenderEngineUnavailable, "document did not finish loading", err)
	}

	stream, err := page.PDF(PrintRequest(opts))
	if err != nil {
		return nil, r.classify(ctx, errors.ErrorTypeRenderEngineUnavailable, "failed to print document", err)
	}
	pdf, err := io.ReadAll(stream)
	if err != nil {
		return nil, r.classify(ctx, errors.ErrorTypeRenderEngineUnavailable, "failed to read printed document", err)
	}

	r.logger.Debug("printed document",
		zap.String("format", opts.Format),
		zap.Bool("landscape", opts.Landscape),
		zap.Int("bytes", len(pdf)),
		zap.Duration("elapsed", time.Since(start)))
	return pdf, nil
}

// classify reports an expired deadline as a timeout regardless of which step
// noticed it.
func (r *Renderer) classify(ctx context.Context, t errors.ErrorType, msg string, err error) error {
	if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrorTypeRenderTimeout, fmt.Sprintf("rendering exceeded %s", r.timeout), err)
	}
	return errors.Wrap(t, msg, err)
}

// PrintRequest maps page options onto a DevTools print request. Unknown
// formats fall back to letter.
func PrintRequest(opts PageOptions) *proto.PagePrintToPDF {
	size, ok := paperSizes[strings.ToLower(opts.Format)]
	if !ok {
		size = paperSizes["letter"]
	}
	width, height := size[0], size[1]
	m := opts.Margins

	req := &proto.PagePrintToPDF{
		Landscape:       opts.Landscape,
		PrintBackground: true,
		PaperWidth:      &width,
		PaperHeight:     &height,
		MarginTop:       &m.Top,
		MarginRight:     &m.Right,
		MarginBottom:    &m.Bottom,
		MarginLeft:      &m.Left,
	}
	if opts.ShowChrome {
		req.DisplayHeaderFooter = true
		req.HeaderTemplate = headerTemplate(opts.Title)
		req.FooterTemplate = footerTemplate
	}
	return req
}

const footerTemplate = `<div style="font-size:8px;width:100%;text-align:center;">` +
	`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`

func headerTemplate(title string) string {
	return `<div style="font-size:8px;width:100%;padding:0 0.5in;">` + html.EscapeString(title) + `</div>`
}
