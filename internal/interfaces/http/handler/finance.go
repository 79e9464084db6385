package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	appfinance "github.com/retailops/backend/internal/application/finance"
	"github.com/retailops/backend/internal/domain/finance"
	"github.com/retailops/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader lets clients retry a payment safely
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// FinanceHandler serves invoices, payments and gift cards
type FinanceHandler struct {
	BaseHandler
	payments  *appfinance.PaymentService
	invoices  *appfinance.InvoiceService
	giftCards *appfinance.GiftCardService
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(
	payments *appfinance.PaymentService,
	invoices *appfinance.InvoiceService,
	giftCards *appfinance.GiftCardService,
) *FinanceHandler {
	return &FinanceHandler{payments: payments, invoices: invoices, giftCards: giftCards}
}

// RecordPayment handles POST /payments. A repeated Idempotency-Key is
// answered with 409 DUPLICATE_REQUEST instead of a second debit.
//
// @Summary      Record a payment against an invoice
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Retry key"
// @Param        request body dto.RecordPaymentRequest true "Payment"
// @Success      200 {object} dto.Response{data=appfinance.InvoiceWithTransactions}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments [post]
func (h *FinanceHandler) RecordPayment(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	idempotencyKey := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(idempotencyKey) > maxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key is too long")
		return
	}
	var req dto.RecordPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	method, err := finance.ParsePaymentMethod(req.PaymentMethod, req.GiftCardCode)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.payments.RecordPayment(c.Request.Context(), p, appfinance.RecordPaymentInput{
		InvoiceID:      req.InvoiceID,
		Amount:         req.Amount,
		Method:         method,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CreateInvoice handles POST /invoices
//
// @Summary      Create an invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response{data=finance.Invoice}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *FinanceHandler) CreateInvoice(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req dto.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.invoices.Create(c.Request.Context(), p, req.TotalAmount, req.Reference)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// GetInvoice handles GET /invoices/:id
//
// @Summary      Get an invoice with its transactions
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Record ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfinance.InvoiceWithTransactions}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *FinanceHandler) GetInvoice(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.Get(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// IssueGiftCard handles POST /gift-cards
//
// @Summary      Issue a gift card
// @Tags         gift-cards
// @Accept       json
// @Produce      json
// @Param        request body dto.IssueGiftCardRequest true "Gift card"
// @Success      201 {object} dto.Response{data=finance.GiftCardAccount}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /gift-cards [post]
func (h *FinanceHandler) IssueGiftCard(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req dto.IssueGiftCardRequest
	if !bindJSON(c, &req) {
		return
	}
	card, err := h.giftCards.Issue(c.Request.Context(), p, req.Code, req.Balance)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, card)
}

// GetGiftCard handles GET /gift-cards/:code
//
// @Summary      Get a gift card
// @Tags         gift-cards
// @Produce      json
// @Param        code path string true "Gift card code"
// @Success      200 {object} dto.Response{data=finance.GiftCardAccount}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /gift-cards/{code} [get]
func (h *FinanceHandler) GetGiftCard(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	card, err := h.giftCards.Get(c.Request.Context(), p, c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, card)
}
