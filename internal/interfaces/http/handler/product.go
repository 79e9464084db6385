package handler

import (
	"github.com/gin-gonic/gin"
	appcatalog "github.com/retailops/backend/internal/application/catalog"
	"github.com/retailops/backend/internal/interfaces/http/dto"
)

// ProductHandler serves the shared product catalog
type ProductHandler struct {
	BaseHandler
	products *appcatalog.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *appcatalog.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// Create handles POST /products
//
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateProductRequest true "Product"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	if _, ok := h.principal(c); !ok {
		return
	}
	var req dto.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.products.Create(c.Request.Context(), appcatalog.CreateProductRequest{
		Name:    req.Name,
		SKU:     req.SKU,
		Barcode: req.Barcode,
		Price:   req.Price,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetByID handles GET /products/:id
//
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Record ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	if _, ok := h.principal(c); !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
