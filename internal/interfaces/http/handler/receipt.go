package handler

import (
	"github.com/gin-gonic/gin"
	appinventory "github.com/retailops/backend/internal/application/inventory"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/interfaces/http/dto"
)

// ReceiptHandler serves the stock receipt workflow
type ReceiptHandler struct {
	BaseHandler
	receipts *appinventory.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receipts *appinventory.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// Submit handles POST /stock-receipts. The receipt starts PENDING and no
// stock moves until it is verified.
//
// @Summary      Submit a stock receipt
// @Tags         stock-receipts
// @Accept       json
// @Produce      json
// @Param        request body dto.SubmitReceiptRequest true "Receipt details"
// @Success      201 {object} dto.Response{data=inventory.StockReceipt}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock-receipts [post]
func (h *ReceiptHandler) Submit(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req dto.SubmitReceiptRequest
	if !bindJSON(c, &req) {
		return
	}

	receipt, err := h.receipts.Submit(c.Request.Context(), p, appinventory.SubmitReceiptInput{
		ProductID:        req.ProductID,
		ReceivedQuantity: req.ReceivedQuantity,
		SupplierName:     req.SupplierName,
		BatchNumber:      req.BatchNumber,
		ExpiryDate:       req.ExpiryDate.Ptr(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

// List handles GET /stock-receipts?status=
//
// @Summary      List stock receipts
// @Tags         stock-receipts
// @Produce      json
// @Param        status query string false "PENDING, APPROVED or REJECTED"
// @Param        page query int false "Page number" minimum(1)
// @Param        pageSize query int false "Page size" minimum(1) maximum(100)
// @Success      200 {object} dto.Response{data=[]inventory.StockReceipt,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock-receipts [get]
func (h *ReceiptHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q dto.ReceiptListQuery
	if !bindQuery(c, &q) {
		return
	}

	var status *inventory.ReceiptStatus
	if q.Status != "" {
		st, err := inventory.ParseReceiptStatus(q.Status)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		status = &st
	}

	page, err := h.receipts.List(c.Request.Context(), p, status, pageFilter(q.PageQuery))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}

// Get handles GET /stock-receipts/:id
//
// @Summary      Get a stock receipt
// @Tags         stock-receipts
// @Produce      json
// @Param        id path string true "Record ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventory.StockReceipt}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock-receipts/{id} [get]
func (h *ReceiptHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	receipt, err := h.receipts.Get(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// Verify handles PUT /stock-receipts/:id/verify
//
// @Summary      Approve or reject a pending receipt
// @Tags         stock-receipts
// @Accept       json
// @Produce      json
// @Param        id path string true "Record ID" format(uuid)
// @Param        request body dto.VerifyReceiptRequest true "Decision"
// @Success      200 {object} dto.Response{data=appinventory.DecisionResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock-receipts/{id}/verify [put]
func (h *ReceiptHandler) Verify(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.VerifyReceiptRequest
	if !bindJSON(c, &req) {
		return
	}
	decision, err := inventory.ParseDecision(req.Decision)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.receipts.Decide(c.Request.Context(), p, id, appinventory.DecideReceiptInput{
		Decision:          decision,
		VerifiedQuantity:  req.VerifiedQuantity,
		DiscrepancyReason: req.DiscrepancyReason,
		PurchasePrice:     req.PurchasePrice,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
