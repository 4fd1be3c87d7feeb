package catalogue_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	app "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/application/catalogue"
	domain "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/shared"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/mail"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/metrics"
	infra "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/printing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 4, 9, 30, 0, 0, time.UTC)

type serviceFixture struct {
	service  *app.CatalogueService
	source   *MockCatalogSource
	renderer *MockPDFRenderer
	mailer   *MockMailer
	spool    *infra.AttachmentSpool
	idem     *MemoryIdempotencyStore
	registry *prometheus.Registry
	settings *StaticSettings
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		source:   new(MockCatalogSource),
		renderer: new(MockPDFRenderer),
		mailer:   new(MockMailer),
		spool:    newTestSpool(t),
		idem:     NewMemoryIdempotencyStore(),
		registry: prometheus.NewRegistry(),
		settings: &StaticSettings{Config: domain.DefaultRenderConfig()},
	}
	f.service = app.NewCatalogueService(
		f.settings,
		f.source,
		nil,
		newTestEngine(t),
		f.renderer,
		f.mailer,
		f.spool,
		nil,
		app.WithClock(func() time.Time { return fixedNow }),
		app.WithMetrics(metrics.NewCatalogueMetrics(f.registry)),
		app.WithIdempotency(f.idem, shared.DefaultIdempotencyConfig()),
	)
	return f
}

// expectRender captures every render request and answers with a small PDF
func (f *serviceFixture) expectRender() *[]*infra.RenderRequest {
	var captured []*infra.RenderRequest
	f.renderer.On("Render", mock.Anything, mock.AnythingOfType("*printing.RenderRequest")).
		Run(func(args mock.Arguments) {
			captured = append(captured, args.Get(1).(*infra.RenderRequest))
		}).
		Return(&infra.RenderResult{PDFData: []byte("%PDF-1.4 catalogue"), PageCount: 2}, nil)
	return &captured
}

func (f *serviceFixture) expectProducts(ids ...int64) {
	byID := make(map[int64]domain.ProductRecord)
	for _, rec := range sampleRecords() {
		byID[rec.ID] = rec
	}
	records := make([]domain.ProductRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			records = append(records, rec)
		}
	}
	f.source.On("FilterExisting", mock.Anything, ids).Return(ids, nil)
	f.source.On("FindByIDs", mock.Anything, ids).Return(records, nil)
}

func TestCatalogueService_GenerateBulkExplicitIDs(t *testing.T) {
	f := newServiceFixture(t)
	f.expectProducts(101, 102)
	captured := f.expectRender()

	doc, err := f.service.GenerateBulk(context.Background(), app.BulkRequest{ProductIDs: "101, 102"})
	require.NoError(t, err)

	assert.Equal(t, "woocommerce-catalog-bulk-2026-03-04.pdf", doc.Filename)
	assert.Equal(t, domain.ContentTypePDF, doc.ContentType)
	assert.Equal(t, []byte("%PDF-1.4 catalogue"), doc.Data)

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	require.NotNil(t, req.Cover)
	assert.Contains(t, req.Cover.Content, "March 4, 2026")
	assert.Equal(t, 2, strings.Count(req.Body.Content, `class="product-item"`))
	assert.Less(t,
		strings.Index(req.Body.Content, `data-product-id="101"`),
		strings.Index(req.Body.Content, `data-product-id="102"`))
	assert.Equal(t, domain.PaperSizeA4, req.PaperSize)
	assert.Equal(t, domain.DefaultMargins(), req.Margins)
	assert.Contains(t, req.FooterHTML, "pageNumber")

	count, err := testutil.GatherAndCount(f.registry, "catalogue_documents_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	f.source.AssertNotCalled(t, "FindIDsByCategories", mock.Anything, mock.Anything)
}

func TestCatalogueService_GenerateBulkByCategory(t *testing.T) {
	f := newServiceFixture(t)
	f.source.On("FindIDsByCategories", mock.Anything, []int64{3}).Return([]int64{102, 101}, nil)
	f.source.On("FindByIDs", mock.Anything, []int64{102, 101}).Return(sampleRecords(), nil)
	captured := f.expectRender()

	_, err := f.service.GenerateBulk(context.Background(), app.BulkRequest{CategoryIDs: []int64{3}})
	require.NoError(t, err)

	body := (*captured)[0].Body.Content
	assert.Less(t,
		strings.Index(body, `data-product-id="102"`),
		strings.Index(body, `data-product-id="101"`))
}

func TestCatalogueService_GenerateBulkEmptySelection(t *testing.T) {
	f := newServiceFixture(t)
	f.source.On("FilterExisting", mock.Anything, []int64{999}).Return([]int64{}, nil)

	_, err := f.service.GenerateBulk(context.Background(), app.BulkRequest{ProductIDs: "999"})

	assert.ErrorIs(t, err, domain.ErrEmptySelection)
	f.renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
	count, gatherErr := testutil.GatherAndCount(f.registry, "catalogue_errors_total")
	require.NoError(t, gatherErr)
	assert.Equal(t, 1, count)
}

func TestCatalogueService_GenerateBulkBlankRequest(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.GenerateBulk(context.Background(), app.BulkRequest{ProductIDs: "   "})

	assert.True(t, domain.IsKind(err, domain.CodeInvalidRequest))
	f.renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

func TestCatalogueService_RenderFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.expectProducts(101)
	rendererErr := infra.NewRenderError(infra.ErrCodeRenderTimeout, "rendering timed out", context.DeadlineExceeded)
	f.renderer.On("Render", mock.Anything, mock.Anything).Return(nil, rendererErr)

	_, err := f.service.GenerateSingle(context.Background(), "101")

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.CodeRenderFailure))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCatalogueService_InvalidSettings(t *testing.T) {
	f := newServiceFixture(t)
	f.settings.Config.PrimaryColor = "red"

	_, err := f.service.GenerateBulk(context.Background(), app.BulkRequest{ProductIDs: "101"})

	assert.True(t, domain.IsKind(err, domain.CodeRenderFailure))
	f.source.AssertNotCalled(t, "FilterExisting", mock.Anything, mock.Anything)
}

func TestCatalogueService_GenerateSingle(t *testing.T) {
	f := newServiceFixture(t)
	f.expectProducts(102)
	f.expectRender()

	doc, err := f.service.GenerateSingle(context.Background(), "102")
	require.NoError(t, err)
	assert.Equal(t, "woocommerce-catalog-product-102.pdf", doc.Filename)
}

func TestCatalogueService_GenerateSingleInvalidID(t *testing.T) {
	f := newServiceFixture(t)

	for _, id := range []string{"", "abc", "0", "-3"} {
		_, err := f.service.GenerateSingle(context.Background(), id)
		assert.True(t, domain.IsKind(err, domain.CodeInvalidRequest), "id %q", id)
	}
}

func TestCatalogueService_StreamSingle(t *testing.T) {
	f := newServiceFixture(t)
	f.expectProducts(101)
	f.expectRender()
	rec := httptest.NewRecorder()

	require.NoError(t, f.service.StreamSingle(context.Background(), rec, "101"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=woocommerce-catalog-product-101.pdf", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 catalogue", rec.Body.String())
}

func TestCatalogueService_StreamWritesNothingOnError(t *testing.T) {
	f := newServiceFixture(t)
	f.source.On("FilterExisting", mock.Anything, []int64{5}).Return([]int64{}, nil)
	rec := httptest.NewRecorder()

	err := f.service.StreamBulk(context.Background(), rec, app.BulkRequest{ProductIDs: "5"})

	assert.ErrorIs(t, err, domain.ErrEmptySelection)
	assert.Zero(t, rec.Body.Len())
	assert.Empty(t, rec.Header().Get("Content-Type"))
}

func TestCatalogueService_ShareViaEmail(t *testing.T) {
	f := newServiceFixture(t)
	f.expectProducts(101)
	f.expectRender()
	var sent *mail.Message
	f.mailer.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*mail.Message) }).
		Return(nil)

	resp, err := f.service.ShareViaEmail(context.Background(), app.ShareRequest{
		ProductID:  "101",
		Recipients: "a@x.com, bad",
	}, "")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, domain.MsgEmailSent, resp.Message)
	assert.Equal(t, []string{"a@x.com"}, resp.Accepted)
	assert.Equal(t, []string{"bad"}, resp.Rejected)
	assert.False(t, resp.Duplicate)

	require.NotNil(t, sent)
	assert.Equal(t, "Product Catalog for Walnut Desk", sent.Subject)
	assert.Equal(t, "woocommerce-catalog-product-101.pdf", sent.Attachments[0].Filename)
	assert.Empty(t, spoolEntries(t, f.spool))
}

func TestCatalogueService_ShareViaEmailInvalidInput(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.ShareViaEmail(context.Background(), app.ShareRequest{ProductID: "x", Recipients: "a@x.com"}, "")
	assert.True(t, domain.IsKind(err, domain.CodeInvalidRequest))

	_, err = f.service.ShareViaEmail(context.Background(), app.ShareRequest{ProductID: "101", Recipients: "nope"}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidRecipients)

	f.renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestCatalogueService_ShareViaEmailIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	f.expectProducts(101)
	captured := f.expectRender()
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	req := app.ShareRequest{ProductID: "101", Recipients: "a@x.com"}
	first, err := f.service.ShareViaEmail(context.Background(), req, "key-1")
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := f.service.ShareViaEmail(context.Background(), req, "key-1")
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.True(t, second.Duplicate)

	assert.Len(t, *captured, 1)
	f.mailer.AssertNumberOfCalls(t, "Send", 1)
}

func TestCatalogueService_ShareFailureReleasesKey(t *testing.T) {
	f := newServiceFixture(t)
	f.expectProducts(101)
	f.expectRender()
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	req := app.ShareRequest{ProductID: "101", Recipients: "a@x.com"}
	_, err := f.service.ShareViaEmail(context.Background(), req, "key-2")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.CodeDeliveryFailure))
	assert.Equal(t, []string{"catalogue:share:key-2"}, f.idem.released)

	resp, err := f.service.ShareViaEmail(context.Background(), req, "key-2")
	require.NoError(t, err)
	assert.False(t, resp.Duplicate)
	f.mailer.AssertNumberOfCalls(t, "Send", 2)
}

func TestCatalogueService_ButtonState(t *testing.T) {
	f := newServiceFixture(t)
	f.settings.Config.Buttons = domain.ButtonPolicy{
		SingleProductEnabled:    true,
		ConditionalLogicEnabled: true,
		ConditionalCategories:   []int64{4},
		ShareEnabled:            true,
	}
	f.source.On("FilterExisting", mock.Anything, []int64{101}).Return([]int64{101}, nil)
	f.source.On("FindCategoryIDs", mock.Anything, int64(101)).Return([]int64{3, 4}, nil)
	f.source.On("FilterExisting", mock.Anything, []int64{102}).Return([]int64{102}, nil)
	f.source.On("FindCategoryIDs", mock.Anything, int64(102)).Return([]int64{3}, nil)

	state, err := f.service.ButtonState(context.Background(), "101", nil)
	require.NoError(t, err)
	assert.True(t, state.ShowDownload)
	assert.True(t, state.ShowShare)
	assert.Equal(t, domain.DefaultDownloadText, state.DownloadText)

	hide := false
	state, err = f.service.ButtonState(context.Background(), "101", &hide)
	require.NoError(t, err)
	assert.True(t, state.ShowDownload)
	assert.False(t, state.ShowShare)

	state, err = f.service.ButtonState(context.Background(), "102", nil)
	require.NoError(t, err)
	assert.False(t, state.ShowDownload)
	assert.False(t, state.ShowShare)
}

func TestCatalogueService_ButtonStateUnknownProduct(t *testing.T) {
	f := newServiceFixture(t)
	f.source.On("FilterExisting", mock.Anything, []int64{7}).Return([]int64{}, nil)

	_, err := f.service.ButtonState(context.Background(), "7", nil)
	assert.ErrorIs(t, err, domain.ErrEmptySelection)

	_, err = f.service.ButtonState(context.Background(), "seven", nil)
	assert.True(t, domain.IsKind(err, domain.CodeInvalidRequest))
}
