package catalogue

import (
	"context"
	"time"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	infra "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// DocumentCompositor turns composed markup into one paginated PDF whose
// first page is the cover. Results are never cached.
type DocumentCompositor struct {
	renderer infra.PDFRenderer
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDocumentCompositor creates a new DocumentCompositor. A zero timeout
// leaves the renderer default in place.
func NewDocumentCompositor(renderer infra.PDFRenderer, timeout time.Duration, logger *zap.Logger) *DocumentCompositor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentCompositor{
		renderer: renderer,
		timeout:  timeout,
		logger:   logger,
	}
}

// Composite renders cover and body into a document named filename.
// Any renderer error is returned as RenderFailure and is not retried.
func (c *DocumentCompositor) Composite(ctx context.Context, cover, body Markup, cfg catalogue.RenderConfig, filename string) (*catalogue.GeneratedDocument, error) {
	coverFragment := cover.Fragment()
	req := &infra.RenderRequest{
		Body:                  body.Fragment(),
		PaperSize:             cfg.Layout.PaperSize,
		Orientation:           cfg.Layout.Orientation,
		Margins:               effectiveMargins(cfg.Layout),
		Title:                 cfg.CoverTitle,
		HeaderHTML:            body.HeaderHTML,
		FooterHTML:            body.FooterHTML,
		EnableLocalFileAccess: true,
		Timeout:               c.timeout,
	}
	if !coverFragment.IsBlank() {
		req.Cover = &coverFragment
	}
	if req.Title == "" {
		req.Title = body.Title
	}

	result, err := c.renderer.Render(ctx, req)
	if err != nil {
		c.logger.Error("catalogue rendering failed",
			zap.String("filename", filename),
			zap.Error(err))
		return nil, catalogue.NewRenderFailure(err)
	}
	if result == nil || len(result.PDFData) == 0 {
		return nil, catalogue.NewRenderFailure(infra.NewRenderError(infra.ErrCodeRenderFailed, "renderer returned an empty document", nil))
	}

	c.logger.Debug("catalogue rendered",
		zap.String("filename", filename),
		zap.Int("pages", result.PageCount),
		zap.Int("size", len(result.PDFData)),
		zap.Duration("duration", result.RenderDuration))

	return &catalogue.GeneratedDocument{
		Filename:    filename,
		Data:        result.PDFData,
		ContentType: catalogue.ContentTypePDF,
		PageCount:   result.PageCount,
	}, nil
}
