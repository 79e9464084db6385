package catalog

import "github.com/shopspring/decimal"

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name    string
	SKU     string
	Barcode string
	Price   decimal.Decimal
}
