package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinventory "github.com/retailops/backend/internal/application/inventory"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/interfaces/http/dto"
)

// InventoryHandler serves stock views and bulk adjustments
type InventoryHandler struct {
	BaseHandler
	inventory *appinventory.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventory *appinventory.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// List handles GET /inventory
//
// @Summary      List stock per product
// @Tags         inventory
// @Produce      json
// @Param        page query int false "Page number" minimum(1)
// @Param        pageSize query int false "Page size" minimum(1) maximum(100)
// @Success      200 {object} dto.Response{data=[]appinventory.StockView,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.inventory.ListStock(c.Request.Context(), p, pageFilter(q))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}

// Get handles GET /inventory/:productId
//
// @Summary      Get stock of one product
// @Tags         inventory
// @Produce      json
// @Param        productId path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=appinventory.StockView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/{productId} [get]
func (h *InventoryHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	productID, ok := h.pathID(c, "productId")
	if !ok {
		return
	}
	view, err := h.inventory.GetStock(c.Request.Context(), p, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ListMovements handles GET /inventory/movements?productId=&type=
//
// @Summary      List inventory movements
// @Tags         inventory
// @Produce      json
// @Param        productId query string false "Product ID" format(uuid)
// @Param        type query string false "Movement type"
// @Param        page query int false "Page number" minimum(1)
// @Param        pageSize query int false "Page size" minimum(1) maximum(100)
// @Success      200 {object} dto.Response{data=[]inventory.Movement,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q dto.MovementListQuery
	if !bindQuery(c, &q) {
		return
	}

	query := appinventory.MovementQuery{Page: q.Page, PageSize: q.PageSize}
	if q.ProductID != "" {
		id := uuid.MustParse(q.ProductID)
		query.ProductID = &id
	}
	if q.Type != "" {
		t := inventory.MovementType(q.Type)
		if !t.IsValid() {
			h.HandleError(c, shared.NewValidationError("invalid movement type %q", q.Type))
			return
		}
		query.Type = &t
	}

	page, err := h.inventory.ListMovements(c.Request.Context(), p, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}

// Adjust handles POST /inventory/adjustments. The batch applies atomically.
//
// @Summary      Adjust bucket counters
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body dto.AdjustStockRequest true "Adjustment lines"
// @Success      200 {object} dto.Response{data=[]appinventory.AdjustmentResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	lines := make([]appinventory.AdjustmentLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = appinventory.AdjustmentLine{
			ProductID: l.ProductID,
			Field:     inventory.BucketField(l.Field),
			Delta:     l.Delta,
			Reason:    l.Reason,
		}
	}

	results, err := h.inventory.Adjust(c.Request.Context(), p, lines)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}
