package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubmitReceiptRequest struct {
	ProductID        uuid.UUID `json:"productId" binding:"required"`
	ReceivedQuantity int64     `json:"receivedQuantity" binding:"required,gt=0"`
	SupplierName     string    `json:"supplierName" binding:"max=200"`
	BatchNumber      string    `json:"batchNumber" binding:"max=100"`
	ExpiryDate       *Date     `json:"expiryDate"`
}

type VerifyReceiptRequest struct {
	Decision          string           `json:"decision" binding:"required"`
	VerifiedQuantity  *int64           `json:"verifiedQuantity" binding:"omitempty,gte=0"`
	DiscrepancyReason string           `json:"discrepancyReason" binding:"max=500"`
	PurchasePrice     *decimal.Decimal `json:"purchasePrice"`
}

type DistributionLineRequest struct {
	ProductID uuid.UUID       `json:"retailerProductId" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice" binding:"nonnegative_decimal"`
}

type DistributeRequest struct {
	ShopID        uuid.UUID                 `json:"retailerShopId" binding:"required"`
	Distributions []DistributionLineRequest `json:"distributions" binding:"required,min=1,dive"`
	Notes         string                    `json:"notes" binding:"max=500"`
}

type DeliveryStatusRequest struct {
	DeliveryStatus string `json:"deliveryStatus" binding:"required"`
	TrackingNumber string `json:"trackingNumber" binding:"max=100"`
	DeliveredAt    *Date  `json:"deliveredAt"`
}

type PaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}

type RecordPaymentRequest struct {
	InvoiceID     uuid.UUID       `json:"invoiceId" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"positive_decimal"`
	PaymentMethod string          `json:"paymentMethod" binding:"required"`
	GiftCardCode  string          `json:"giftCardCode" binding:"max=50"`
}

type CreateProductRequest struct {
	Name    string          `json:"name" binding:"required,max=200"`
	SKU     string          `json:"sku" binding:"required,max=64"`
	Barcode string          `json:"barcode" binding:"max=64"`
	Price   decimal.Decimal `json:"price" binding:"nonnegative_decimal"`
}

type AdjustmentLineRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Field     string    `json:"field" binding:"required,oneof=AVAILABLE ALLOCATED"`
	Delta     int64     `json:"delta" binding:"required"`
	Reason    string    `json:"reason" binding:"max=255"`
}

type AdjustStockRequest struct {
	Lines []AdjustmentLineRequest `json:"lines" binding:"required,min=1,max=100,dive"`
}

type CreateInvoiceRequest struct {
	TotalAmount decimal.Decimal `json:"totalAmount" binding:"positive_decimal"`
	Reference   string          `json:"reference" binding:"max=100"`
}

type IssueGiftCardRequest struct {
	Code    string          `json:"code" binding:"required,max=50"`
	Balance decimal.Decimal `json:"balance" binding:"nonnegative_decimal"`
}

// PageQuery is the common page/pageSize query string.
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

type ReceiptListQuery struct {
	PageQuery
	Status string `form:"status"`
}

type DistributionListQuery struct {
	PageQuery
	DeliveryStatus string `form:"deliveryStatus"`
	PaymentStatus  string `form:"paymentStatus"`
}

type MovementListQuery struct {
	PageQuery
	ProductID string `form:"productId" binding:"omitempty,uuid"`
	Type      string `form:"type"`
}
