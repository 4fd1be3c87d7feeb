package catalogue

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/shared"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/logger"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/metrics"
	infra "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/printing"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const shareKeyPrefix = "catalogue:share:"

// CatalogueService runs the generation pipeline: resolve, project, compose,
// composite, deliver. Each call is synchronous and request-scoped; the
// settings snapshot is taken once per call and passed down explicitly.
type CatalogueService struct {
	settings    catalogue.SettingsStore
	source      catalogue.CatalogSource
	images      catalogue.ImageResolver
	resolver    *SelectionResolver
	projector   *ItemProjector
	composer    *TemplateComposer
	compositor  *DocumentCompositor
	dispatcher  *DeliveryDispatcher
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	metrics     *metrics.CatalogueMetrics
	now         func() time.Time
	logger      *zap.Logger
}

// ServiceOption configures optional service collaborators
type ServiceOption func(*CatalogueService)

// WithMetrics records generation metrics
func WithMetrics(m *metrics.CatalogueMetrics) ServiceOption {
	return func(s *CatalogueService) {
		s.metrics = m
	}
}

// WithIdempotency de-duplicates share requests that carry a key
func WithIdempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) ServiceOption {
	return func(s *CatalogueService) {
		s.idempotency = store
		s.idemConfig = cfg
	}
}

// WithClock overrides the clock used for cover dates and bulk filenames
func WithClock(now func() time.Time) ServiceOption {
	return func(s *CatalogueService) {
		s.now = now
	}
}

// WithRenderTimeout bounds each renderer invocation
func WithRenderTimeout(d time.Duration) ServiceOption {
	return func(s *CatalogueService) {
		s.compositor.timeout = d
	}
}

// NewCatalogueService creates a new CatalogueService
func NewCatalogueService(
	settings catalogue.SettingsStore,
	source catalogue.CatalogSource,
	images catalogue.ImageResolver,
	templateEngine *infra.TemplateEngine,
	pdfRenderer infra.PDFRenderer,
	mailer Mailer,
	spool Spool,
	log *zap.Logger,
	opts ...ServiceOption,
) *CatalogueService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &CatalogueService{
		settings:   settings,
		source:     source,
		images:     images,
		resolver:   NewSelectionResolver(source, log),
		projector:  NewItemProjector(source, images, log),
		composer:   NewTemplateComposer(templateEngine),
		compositor: NewDocumentCompositor(pdfRenderer, 0, log),
		dispatcher: NewDeliveryDispatcher(mailer, spool, log),
		idemConfig: shared.DefaultIdempotencyConfig(),
		now:        time.Now,
		logger:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Pipeline
// =============================================================================

// rendered is a document together with the items it lists
type rendered struct {
	doc   *catalogue.GeneratedDocument
	items []catalogue.CatalogItem
}

// snapshot reads the settings once for the current request
func (s *CatalogueService) snapshot() (catalogue.RenderConfig, error) {
	cfg := s.settings.Snapshot().WithDefaults()
	if err := cfg.Validate(); err != nil {
		return catalogue.RenderConfig{}, shared.WrapDomainError(catalogue.CodeRenderFailure, catalogue.MsgSettingsUnreadable, err)
	}
	return cfg, nil
}

// render is the compositing path shared by every output operation
func (s *CatalogueService) render(ctx context.Context, req catalogue.GenerationRequest, kind catalogue.DocumentKind, cfg catalogue.RenderConfig) (out *rendered, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalogue", "render",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentKind, string(kind)))
	defer span.End()

	start := time.Now()
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
			telemetry.SetAttribute(span, telemetry.SpanAttrErrorCode, errorCode(err))
			s.metrics.ObserveFailure(string(kind), errorCode(err))
			return
		}
		s.metrics.ObserveDocument(string(kind), len(out.items), out.doc.Size(), time.Since(start))
	}()

	selection, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if selection.IsEmpty() {
		return nil, catalogue.ErrEmptySelection
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrSelectionSize, len(selection))

	items, err := s.projector.Project(ctx, selection, cfg)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrItemCount, len(items))

	now := s.now()
	cfg.CoverImageRef = s.resolveCoverImage(ctx, cfg.CoverImageRef)

	cover, err := s.composer.ComposeCover(cfg, now)
	if err != nil {
		return nil, catalogue.NewRenderFailure(err)
	}
	body, err := s.composer.ComposeBody(items, cfg)
	if err != nil {
		return nil, catalogue.NewRenderFailure(err)
	}

	filename := catalogue.BulkFilename(cfg.FilenamePrefix, now)
	if kind == catalogue.DocumentSingle {
		filename = catalogue.SingleFilename(cfg.FilenamePrefix, selection[0])
	}

	doc, err := s.compositor.Composite(ctx, cover, body, cfg, filename)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrDocumentBytes, doc.Size())

	logger.WithLogger(ctx, s.logger).Info("catalogue generated",
		zap.String("kind", string(kind)),
		zap.String("filename", doc.Filename),
		zap.Int("items", len(items)),
		zap.Int("pages", doc.PageCount),
		zap.Int("size", doc.Size()))

	return &rendered{doc: doc, items: items}, nil
}

func (s *CatalogueService) resolveCoverImage(ctx context.Context, ref string) string {
	if ref == "" || s.images == nil {
		return ""
	}
	resolved, ok := s.images.Resolve(ctx, ref)
	if !ok {
		logger.WithLogger(ctx, s.logger).Warn("cover image could not be resolved", zap.String("ref", ref))
		return ""
	}
	return resolved
}

// RenderToBytes runs the pipeline and returns the document in memory
func (s *CatalogueService) RenderToBytes(ctx context.Context, req catalogue.GenerationRequest, kind catalogue.DocumentKind) (*catalogue.GeneratedDocument, error) {
	cfg, err := s.snapshot()
	if err != nil {
		s.metrics.ObserveFailure(string(kind), errorCode(err))
		return nil, err
	}
	out, err := s.render(ctx, req, kind, cfg)
	if err != nil {
		return nil, err
	}
	return out.doc, nil
}

// RenderToStream runs the pipeline and writes the document as the complete
// response. On error nothing has been written to w.
func (s *CatalogueService) RenderToStream(ctx context.Context, w http.ResponseWriter, req catalogue.GenerationRequest, kind catalogue.DocumentKind) error {
	doc, err := s.RenderToBytes(ctx, req, kind)
	if err != nil {
		return err
	}
	return s.dispatcher.Stream(w, doc, true)
}

// =============================================================================
// Operations
// =============================================================================

// bulkRequest converts the form input. A blank ID list defers to categories.
func bulkRequest(req BulkRequest) catalogue.GenerationRequest {
	return catalogue.GenerationRequest{
		ExplicitIDs: catalogue.ParseIDList(req.ProductIDs),
		CategoryIDs: req.CategoryIDs,
	}
}

// singleRequest validates one product ID
func singleRequest(productID string) (catalogue.GenerationRequest, int64, error) {
	id, ok := catalogue.CoercePositiveID(productID)
	if !ok {
		return catalogue.GenerationRequest{}, 0, catalogue.NewInvalidRequest(catalogue.MsgInvalidProductID)
	}
	return catalogue.ExplicitRequest(id), id, nil
}

// GenerateBulk builds the bulk catalogue for explicit IDs or categories
func (s *CatalogueService) GenerateBulk(ctx context.Context, req BulkRequest) (*catalogue.GeneratedDocument, error) {
	return s.RenderToBytes(ctx, bulkRequest(req), catalogue.DocumentBulk)
}

// StreamBulk builds the bulk catalogue and streams it as a download
func (s *CatalogueService) StreamBulk(ctx context.Context, w http.ResponseWriter, req BulkRequest) error {
	return s.RenderToStream(ctx, w, bulkRequest(req), catalogue.DocumentBulk)
}

// GenerateSingle builds the catalogue for one product
func (s *CatalogueService) GenerateSingle(ctx context.Context, productID string) (*catalogue.GeneratedDocument, error) {
	genReq, _, err := singleRequest(productID)
	if err != nil {
		return nil, err
	}
	return s.RenderToBytes(ctx, genReq, catalogue.DocumentSingle)
}

// StreamSingle builds the catalogue for one product and streams it
func (s *CatalogueService) StreamSingle(ctx context.Context, w http.ResponseWriter, productID string) error {
	genReq, _, err := singleRequest(productID)
	if err != nil {
		return err
	}
	return s.RenderToStream(ctx, w, genReq, catalogue.DocumentSingle)
}

// ShareViaEmail emails the catalogue of one product. A non-empty
// idempotencyKey suppresses repeats of a share that already succeeded.
func (s *CatalogueService) ShareViaEmail(ctx context.Context, req ShareRequest, idempotencyKey string) (resp *ShareResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalogue", "share",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
			s.metrics.ObserveEmail(metrics.OutcomeFailure, 0)
		}
	}()

	genReq, productID, err := singleRequest(req.ProductID)
	if err != nil {
		return nil, catalogue.NewInvalidRequest(catalogue.MsgInvalidShare)
	}

	// reject bad recipient lists before paying for a render
	valid, _ := s.dispatcher.SplitRecipients(req.Recipients)
	if len(valid) == 0 {
		return nil, catalogue.ErrInvalidRecipients
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrRecipientCount, len(valid))

	if key := s.shareKey(idempotencyKey); key != "" {
		first, markErr := s.idempotency.MarkProcessed(ctx, key, s.idemConfig.TTL)
		if markErr != nil {
			logger.WithLogger(ctx, s.logger).Warn("idempotency check failed, sending anyway", zap.Error(markErr))
		} else if !first {
			logger.WithLogger(ctx, s.logger).Info("duplicate share suppressed",
				zap.Int64("product_id", productID),
				zap.String("idempotency_key", idempotencyKey))
			return &ShareResponse{Success: true, Message: catalogue.MsgEmailSent, Duplicate: true}, nil
		}
		defer func() {
			if err == nil {
				return
			}
			// let the caller retry a share that did not go out
			if releaseErr := s.idempotency.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
				s.logger.Warn("failed to release idempotency key", zap.Error(releaseErr))
			}
		}()
	}

	cfg, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	out, err := s.render(ctx, genReq, catalogue.DocumentSingle, cfg)
	if err != nil {
		return nil, err
	}

	subjectName := ""
	if len(out.items) == 1 {
		subjectName = out.items[0].Name
	}

	report, err := s.dispatcher.DeliverViaEmail(ctx, out.doc, EmailEnvelope{
		Recipients: req.Recipients,
		Subject:    req.Subject,
		Message:    req.Message,
	}, cfg, subjectName)
	if err != nil {
		logger.WithLogger(ctx, s.logger).Error("catalogue share failed",
			zap.Int64("product_id", productID),
			zap.Error(err))
		return nil, err
	}

	s.metrics.ObserveEmail(metrics.OutcomeSuccess, len(report.Rejected))
	logger.WithLogger(ctx, s.logger).Info("catalogue shared",
		zap.Int64("product_id", productID),
		zap.Int("recipients", len(report.Accepted)),
		zap.Int("rejected", len(report.Rejected)))

	return &ShareResponse{
		Success:  true,
		Message:  catalogue.MsgEmailSent,
		Accepted: report.Accepted,
		Rejected: report.Rejected,
	}, nil
}

func (s *CatalogueService) shareKey(idempotencyKey string) string {
	if s.idempotency == nil || !s.idemConfig.Enabled || idempotencyKey == "" {
		return ""
	}
	return shareKeyPrefix + idempotencyKey
}

// ButtonState evaluates which catalogue buttons a product page shows.
// showShare, when non-nil, overrides the configured share toggle.
func (s *CatalogueService) ButtonState(ctx context.Context, productID string, showShare *bool) (*catalogue.ButtonState, error) {
	id, ok := catalogue.CoercePositiveID(productID)
	if !ok {
		return nil, catalogue.NewInvalidRequest(catalogue.MsgInvalidProductID)
	}

	existing, err := s.source.FilterExisting(ctx, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("failed to check product existence: %w", err)
	}
	if len(existing) == 0 {
		return nil, catalogue.ErrEmptySelection
	}

	categoryIDs, err := s.source.FindCategoryIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load product categories: %w", err)
	}

	cfg := s.settings.Snapshot().WithDefaults()
	state := cfg.Buttons.Evaluate(categoryIDs, showShare)
	return &state, nil
}

func errorCode(err error) string {
	if code := shared.CodeOf(err); code != "" {
		return code
	}
	return "INTERNAL"
}
