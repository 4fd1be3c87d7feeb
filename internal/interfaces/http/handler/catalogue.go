package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	catalogueapp "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/application/catalogue"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/logger"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader lets a client retry a share without sending twice
const IdempotencyKeyHeader = "X-Idempotency-Key"

// CatalogueService is the part of the application service the handler uses
type CatalogueService interface {
	StreamBulk(ctx context.Context, w http.ResponseWriter, req catalogueapp.BulkRequest) error
	StreamSingle(ctx context.Context, w http.ResponseWriter, productID string) error
	ShareViaEmail(ctx context.Context, req catalogueapp.ShareRequest, idempotencyKey string) (*catalogueapp.ShareResponse, error)
	ButtonState(ctx context.Context, productID string, showShare *bool) (*catalogue.ButtonState, error)
}

// CatalogueHandler handles catalogue generation and sharing endpoints
type CatalogueHandler struct {
	BaseHandler
	service CatalogueService
}

// NewCatalogueHandler creates a new CatalogueHandler
func NewCatalogueHandler(service CatalogueService, log *zap.Logger) *CatalogueHandler {
	return &CatalogueHandler{
		BaseHandler: BaseHandler{Logger: log},
		service:     service,
	}
}

// withOperation tags the request context for logs further down the pipeline
func withOperation(c *gin.Context, op string) context.Context {
	ctx := logger.WithOperation(c.Request.Context(), op)
	c.Request = c.Request.WithContext(ctx)
	return ctx
}

// GenerateBulk godoc
//
//	@ID				generateBulkCatalogue
//	@Summary		Generate a bulk catalogue
//	@Description	Builds one PDF for explicit product IDs or for every product in the given categories
//	@Tags			catalogue
//	@Accept			json,x-www-form-urlencoded
//	@Produce		application/pdf,json
//	@Param			request	body		dto.BulkCatalogueRequest	true	"Product selection"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Router			/catalogue/bulk [post]
func (h *CatalogueHandler) GenerateBulk(c *gin.Context) {
	var req dto.BulkCatalogueRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}

	ctx := withOperation(c, "bulk")
	err := h.service.StreamBulk(ctx, c.Writer, catalogueapp.BulkRequest{
		ProductIDs:  req.ProductIDs,
		CategoryIDs: req.CategoryIDs,
	})
	h.finishStream(c, err)
}

// GenerateSingle godoc
//
//	@ID				generateProductCatalogue
//	@Summary		Generate a single product catalogue
//	@Tags			catalogue
//	@Produce		application/pdf,json
//	@Param			id	path		int	true	"Product ID"
//	@Success		200	{file}		binary
//	@Failure		400	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		500	{object}	dto.Response
//	@Router			/catalogue/products/{id}/pdf [get]
func (h *CatalogueHandler) GenerateSingle(c *gin.Context) {
	ctx := withOperation(c, "single")
	err := h.service.StreamSingle(ctx, c.Writer, c.Param("id"))
	h.finishStream(c, err)
}

// finishStream reports a pipeline error. Once the document has started
// going out the status line is sent, so the error is only logged.
func (h *CatalogueHandler) finishStream(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if c.Writer.Written() {
		h.log(c).Warn("catalogue stream interrupted", zap.Error(err))
		_ = c.Error(err)
		return
	}
	h.HandleError(c, err)
}

// Share godoc
//
//	@ID				shareProductCatalogue
//	@Summary		Email a product catalogue
//	@Description	Renders the product catalogue and mails it as an attachment. Invalid addresses are skipped.
//	@Tags			catalogue
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			id					path		int							true	"Product ID"
//	@Param			X-Idempotency-Key	header		string						false	"Suppresses repeated sends"
//	@Param			request				body		dto.ShareCatalogueRequest	true	"Recipients and message"
//	@Success		200					{object}	dto.ShareCatalogueResponse
//	@Failure		400					{object}	dto.Response
//	@Failure		404					{object}	dto.Response
//	@Failure		502					{object}	dto.Response
//	@Router			/catalogue/products/{id}/share [post]
func (h *CatalogueHandler) Share(c *gin.Context) {
	var req dto.ShareCatalogueRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BindError(c, err)
		return
	}

	ctx := withOperation(c, "share")
	result, err := h.service.ShareViaEmail(ctx, catalogueapp.ShareRequest{
		ProductID:  c.Param("id"),
		Recipients: req.Recipients,
		Subject:    req.Subject,
		Message:    req.Message,
	}, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := dto.ShareCatalogueResponse{
		Success:   result.Success,
		Message:   result.Message,
		Accepted:  result.Accepted,
		Rejected:  result.Rejected,
		Duplicate: result.Duplicate,
	}
	if resp.Accepted == nil {
		resp.Accepted = []string{}
	}
	if resp.Rejected == nil {
		resp.Rejected = []string{}
	}
	c.JSON(http.StatusOK, resp)
}

// ButtonState godoc
//
//	@ID				getProductCatalogueButtons
//	@Summary		Catalogue buttons for a product page
//	@Tags			catalogue
//	@Produce		json
//	@Param			id			path		int		true	"Product ID"
//	@Param			show_share	query		bool	false	"Overrides the share toggle"
//	@Success		200			{object}	dto.ButtonStateResponse
//	@Failure		400			{object}	dto.Response
//	@Failure		404			{object}	dto.Response
//	@Router			/catalogue/products/{id}/buttons [get]
func (h *CatalogueHandler) ButtonState(c *gin.Context) {
	var query dto.ButtonStateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "show_share must be a boolean")
		return
	}

	ctx := withOperation(c, "buttons")
	state, err := h.service.ButtonState(ctx, c.Param("id"), query.ShowShare)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	productID, _ := catalogue.CoercePositiveID(c.Param("id"))
	c.JSON(http.StatusOK, dto.ButtonStateResponse{
		ProductID:    productID,
		ShowDownload: state.ShowDownload,
		DownloadText: state.DownloadText,
		ShowShare:    state.ShowShare,
		ShareText:    state.ShareText,
	})
}
