package handler

import (
	"github.com/gin-gonic/gin"
	appdistribution "github.com/retailops/backend/internal/application/distribution"
	"github.com/retailops/backend/internal/domain/distribution"
	"github.com/retailops/backend/internal/interfaces/http/dto"
)

// DistributionHandler serves retailer-to-shop distributions
type DistributionHandler struct {
	BaseHandler
	distributions *appdistribution.DistributionService
}

// NewDistributionHandler creates a new DistributionHandler
func NewDistributionHandler(distributions *appdistribution.DistributionService) *DistributionHandler {
	return &DistributionHandler{distributions: distributions}
}

// Distribute handles POST /distributions. Either every line is allocated
// or nothing is.
//
// @Summary      Allocate stock to a shop
// @Tags         distributions
// @Accept       json
// @Produce      json
// @Param        request body dto.DistributeRequest true "Distribution lines"
// @Success      201 {object} dto.Response{data=appdistribution.DistributeResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /distributions [post]
func (h *DistributionHandler) Distribute(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req dto.DistributeRequest
	if !bindJSON(c, &req) {
		return
	}

	lines := make([]appdistribution.DistributeLine, len(req.Distributions))
	for i, l := range req.Distributions {
		lines[i] = appdistribution.DistributeLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}

	result, err := h.distributions.Distribute(c.Request.Context(), p, appdistribution.DistributeInput{
		ShopID: req.ShopID,
		Lines:  lines,
		Notes:  req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List handles GET /distributions?deliveryStatus=&paymentStatus=
//
// @Summary      List distributions
// @Tags         distributions
// @Produce      json
// @Param        deliveryStatus query string false "Delivery status"
// @Param        paymentStatus query string false "Payment status"
// @Param        page query int false "Page number" minimum(1)
// @Param        pageSize query int false "Page size" minimum(1) maximum(100)
// @Success      200 {object} dto.Response{data=[]distribution.ShopDistribution,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /distributions [get]
func (h *DistributionHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q dto.DistributionListQuery
	if !bindQuery(c, &q) {
		return
	}

	query := appdistribution.ListQuery{Page: q.Page, PageSize: q.PageSize}
	if q.DeliveryStatus != "" {
		st, err := distribution.ParseDeliveryStatus(q.DeliveryStatus)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		query.DeliveryStatus = &st
	}
	if q.PaymentStatus != "" {
		st, err := distribution.ParsePaymentStatus(q.PaymentStatus)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		query.PaymentStatus = &st
	}

	page, err := h.distributions.List(c.Request.Context(), p, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}

// Get handles GET /distributions/:id
//
// @Summary      Get a distribution
// @Tags         distributions
// @Produce      json
// @Param        id path string true "Record ID" format(uuid)
// @Success      200 {object} dto.Response{data=distribution.ShopDistribution}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /distributions/{id} [get]
func (h *DistributionHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	d, err := h.distributions.Get(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// UpdateDeliveryStatus handles PUT /distributions/:id/delivery-status
//
// @Summary      Move a distribution through delivery
// @Tags         distributions
// @Accept       json
// @Produce      json
// @Param        id path string true "Record ID" format(uuid)
// @Param        request body dto.DeliveryStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=distribution.ShopDistribution}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /distributions/{id}/delivery-status [put]
func (h *DistributionHandler) UpdateDeliveryStatus(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.DeliveryStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := distribution.ParseDeliveryStatus(req.DeliveryStatus)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	d, err := h.distributions.UpdateDeliveryStatus(c.Request.Context(), p, id, appdistribution.DeliveryInput{
		Status:         status,
		TrackingNumber: req.TrackingNumber,
		DeliveredAt:    req.DeliveredAt.Ptr(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// UpdatePaymentStatus handles PUT /distributions/:id/payment-status
//
// @Summary      Set the payment status of a distribution
// @Tags         distributions
// @Accept       json
// @Produce      json
// @Param        id path string true "Record ID" format(uuid)
// @Param        request body dto.PaymentStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=distribution.ShopDistribution}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /distributions/{id}/payment-status [put]
func (h *DistributionHandler) UpdatePaymentStatus(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := distribution.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	d, err := h.distributions.UpdatePaymentStatus(c.Request.Context(), p, id, status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// Ledger handles GET /distributions/ledger
//
// @Summary      Distribution ledger
// @Tags         distributions
// @Produce      json
// @Param        page query int false "Page number" minimum(1)
// @Param        pageSize query int false "Page size" minimum(1) maximum(100)
// @Success      200 {object} dto.Response{data=[]distribution.LedgerEntry,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /distributions/ledger [get]
func (h *DistributionHandler) Ledger(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.distributions.Ledger(c.Request.Context(), p, q.Page, q.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}
