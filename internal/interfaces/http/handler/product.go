package handler

import (
	"context"

	ledgerapp "github.com/erp/bullion/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductService is the product surface served by ProductHandler
type ProductService interface {
	CreateProducts(ctx context.Context, req ledgerapp.CreateProductsRequest) ([]ledgerapp.ProductResponse, error)
	MoveProduct(ctx context.Context, id uuid.UUID, req ledgerapp.MoveProductRequest) (*ledgerapp.ProductResponse, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	GetProduct(ctx context.Context, id uuid.UUID) (*ledgerapp.ProductResponse, error)
	ListAvailableProducts(ctx context.Context, f ledgerapp.ProductListFilter) ([]ledgerapp.ProductResponse, error)
	ListPendingManufacturerOrder(ctx context.Context) ([]ledgerapp.ProductResponse, error)
	ListProductsByStore(ctx context.Context, storeID uuid.UUID) ([]ledgerapp.ProductResponse, error)
	GetStatusInfo(ctx context.Context, req ledgerapp.StatusInfoRequest) ([]ledgerapp.StatusInfoResponse, error)
}

// ProductHandler handles product API endpoints
type ProductHandler struct {
	BaseHandler
	service ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(service ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// Create godoc
// @ID           createProducts
// @Summary      Register shelf units
// @Description  Create available units outside of any ledger entry
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.CreateProductsRequest true "Register shelf units request"
// @Success      201 {object} APIResponse[[]ledgerapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req ledgerapp.CreateProductsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	products, err := h.service.CreateProducts(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, products)
}

// GetByID godoc
// @ID           getProductById
// @Summary      Get a product
// @Description  Retrieve one product unit
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id", "product")
	if !ok {
		return
	}
	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ListAvailable godoc
// @ID           listAvailableProducts
// @Summary      List shelf units
// @Description  Retrieve available units, optionally narrowed to a store and type
// @Tags         products
// @Produce      json
// @Param        store_id query string false "Store ID" format(uuid)
// @Param        type query string false "Product type"
// @Success      200 {object} APIResponse[[]ledgerapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /products/available [get]
func (h *ProductHandler) ListAvailable(c *gin.Context) {
	filter := ledgerapp.ProductListFilter{Type: c.Query("type")}
	if raw := c.Query("store_id"); raw != "" {
		storeID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid store ID format")
			return
		}
		filter.StoreID = &storeID
	}
	products, err := h.service.ListAvailableProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// ListPendingManufacturer godoc
// @ID           listPendingManufacturerProducts
// @Summary      List units awaiting a manufacturer order
// @Description  Retrieve sold units not yet ordered from the manufacturer
// @Tags         products
// @Produce      json
// @Success      200 {object} APIResponse[[]ledgerapp.ProductResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /products/pending-manufacturer [get]
func (h *ProductHandler) ListPendingManufacturer(c *gin.Context) {
	products, err := h.service.ListPendingManufacturerOrder(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// ListByStore godoc
// @ID           listProductsByStore
// @Summary      List a store's products
// @Description  Retrieve every product unit of one store
// @Tags         products
// @Produce      json
// @Param        id path string true "Store ID" format(uuid)
// @Success      200 {object} APIResponse[[]ledgerapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /products/store/{id} [get]
func (h *ProductHandler) ListByStore(c *gin.Context) {
	id, ok := h.parseID(c, "id", "store")
	if !ok {
		return
	}
	products, err := h.service.ListProductsByStore(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// StatusInfo godoc
// @ID           getProductStatusInfo
// @Summary      Project product status
// @Description  Effective status of several products with the sale, buyback or swap that explains it
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.StatusInfoRequest true "Project product status request"
// @Success      200 {object} APIResponse[[]ledgerapp.StatusInfoResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /products/status-info [post]
func (h *ProductHandler) StatusInfo(c *gin.Context) {
	var req ledgerapp.StatusInfoRequest
	if !h.bindJSON(c, &req) {
		return
	}
	info, err := h.service.GetStatusInfo(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// Move godoc
// @ID           moveProduct
// @Summary      Move a product
// @Description  Reassign an available unit to another store
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body ledgerapp.MoveProductRequest true "Move a product request"
// @Success      200 {object} APIResponse[ledgerapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /products/{id}/move [post]
func (h *ProductHandler) Move(c *gin.Context) {
	id, ok := h.parseID(c, "id", "product")
	if !ok {
		return
	}
	var req ledgerapp.MoveProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.service.MoveProduct(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete godoc
// @ID           deleteProduct
// @Summary      Delete a product
// @Description  Remove a unit that no ledger entry references
// @Tags         products
// @Param        id path string true "Product ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id", "product")
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
