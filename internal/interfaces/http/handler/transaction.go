package handler

import (
	"context"

	ledgerapp "github.com/erp/bullion/internal/application/ledger"
	"github.com/erp/bullion/internal/domain/shared"
	"github.com/erp/bullion/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionService is the ledger surface served by TransactionHandler
type TransactionService interface {
	CreateOrder(ctx context.Context, req ledgerapp.CreateOrderRequest) (*ledgerapp.TransactionResponse, error)
	CreateManufacturerOrder(ctx context.Context, req ledgerapp.CreateManufacturerOrderRequest) (*ledgerapp.TransactionResponse, error)
	CreateBuyback(ctx context.Context, req ledgerapp.CreateBuybackRequest) (*ledgerapp.TransactionResponse, error)
	CreateFulfillment(ctx context.Context, req ledgerapp.CreateFulfillmentRequest) (*ledgerapp.TransactionResponse, error)
	CreateSellBack(ctx context.Context, req ledgerapp.CreateSellBackRequest) (*ledgerapp.TransactionResponse, error)
	CreateManufacturerReceive(ctx context.Context, req ledgerapp.CreateManufacturerReceiveRequest) (*ledgerapp.TransactionResponse, error)
	CreateSwap(ctx context.Context, req ledgerapp.CreateSwapRequest) (*ledgerapp.TransactionResponse, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, req ledgerapp.UpdateOrderRequest) (*ledgerapp.TransactionResponse, error)
	UpdateManufacturerOrder(ctx context.Context, id uuid.UUID, req ledgerapp.UpdateManufacturerOrderRequest) (*ledgerapp.TransactionResponse, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (*ledgerapp.TransactionResponse, error)
	ListTransactions(ctx context.Context, f ledgerapp.TransactionListFilter) (*shared.Paginated[ledgerapp.TransactionResponse], error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, typ string) ([]ledgerapp.TransactionResponse, error)
	GetStats(ctx context.Context, f ledgerapp.PeriodFilter) (*ledgerapp.StatsResponse, error)
	GetFinancialStats(ctx context.Context, f ledgerapp.PeriodFilter) (*ledgerapp.FinancialStatsResponse, error)
}

// TransactionHandler handles ledger entry API endpoints
type TransactionHandler struct {
	BaseHandler
	service TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(service TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// recorded answers a write: 201 for a new entry, 200 with the replay
// header when an idempotency key matched an earlier one
func (h *TransactionHandler) recorded(c *gin.Context, tx *ledgerapp.TransactionResponse, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if tx.Replayed {
		c.Header(middleware.IdempotentReplayedHeader, "true")
		h.Success(c, tx)
		return
	}
	h.Created(c, tx)
}

// CreateOrder godoc
// @ID           createOrder
// @Summary      Record a sale
// @Description  Sell existing, free-picked or brand new units to a customer
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param        request body ledgerapp.CreateOrderRequest true "Record a sale request"
// @Success      201 {object} APIResponse[ledgerapp.TransactionResponse]
// @Success      200 {object} APIResponse[ledgerapp.TransactionResponse] "Replayed for a repeated Idempotency-Key"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/order [post]
func (h *TransactionHandler) CreateOrder(c *gin.Context) {
	var req ledgerapp.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.service.CreateOrder(c.Request.Context(), req)
	h.recorded(c, tx, err)
}

// CreateManufacturerOrder godoc
// @ID           createManufacturerOrder
// @Summary      Order from the manufacturer
// @Description  Order pending customer units and new shelf units in one entry
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param        request body ledgerapp.CreateManufacturerOrderRequest true "Order from the manufacturer request"
// @Success      201 {object} APIResponse[ledgerapp.TransactionResponse]
// @Success      200 {object} APIResponse[ledgerapp.TransactionResponse] "Replayed for a repeated Idempotency-Key"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/manufacturer-order [post]
func (h *TransactionHandler) CreateManufacturerOrder(c *gin.Context) {
	var req ledgerapp.CreateManufacturerOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.service.CreateManufacturerOrder(c.Request.Context(), req)
	h.recorded(c, tx, err)
}

// CreateBuyback godoc
// @ID           createBuyback
// @Summary      Buy units back
// @Description  Take units of a sale back from the customer into inventory
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param        request body ledgerapp.CreateBuybackRequest true "Buy units back request"
// @Success      201 {object} APIResponse[ledgerapp.TransactionResponse]
// @Success      200 {object} APIResponse[ledgerapp.TransactionResponse] "Replayed for a repeated Idempotency-Key"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/buyback [post]
func (h *TransactionHandler) CreateBuyback(c *gin.Context) {
	var req ledgerapp.CreateBuybackRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.service.CreateBuyback(c.Request.Context(), req)
	h.recorded(c, tx, err)
}

// CreateFulfillment godoc
// @ID           createFulfillment
// @Summary      Fulfill a sale
// @Description  Record the physical handover of sold units
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param        request body ledgerapp.CreateFulfillmentRequest true "Fulfill a sale request"
// @Success      201 {object} APIResponse[ledgerapp.TransactionResponse]
// @Success      200 {object} APIResponse[ledgerapp.TransactionResponse] "Replayed for a repeated Idempotency-Key"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/fulfillment [post]
func (h *TransactionHandler) CreateFulfillment(c *gin.Context) {
	var req ledgerapp.CreateFulfillmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.service.CreateFulfillment(c.Request.Context(), req)
	h.recorded(c, tx, err)
}

// CreateSellBack godoc
// @ID           createSellBack
// @Summary      Sell units back to the manufacturer
// @Description  Return units of a manufacturer order
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param        request body ledgerapp.CreateSellBackRequest true "Sell units back to the manufacturer request"
// @Success      201 {object} APIResponse[ledgerapp.TransactionResponse]
// @Success      200 {object} APIResponse[ledgerapp.TransactionResponse] "Replayed for a repeated Idempotency-Key"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/sell-back [post]
func (h *TransactionHandler) CreateSellBack(c *gin.Context) {
	var req ledgerapp.CreateSellBackRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.service.CreateSellBack(c.Request.Context(), req)
	h.recorded(c, tx, err)
}

// CreateManufacturerReceive godoc
// @ID           createManufacturerReceive
// @Summary      Receive from the manufacturer
// @Description  Confirm delivery of units of a manufacturer order
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param        request body ledgerapp.CreateManufacturerReceiveRequest true "Receive from the manufacturer request"
// @Success      201 {object} APIResponse[ledgerapp.TransactionResponse]
// @Success      200 {object} APIResponse[ledgerapp.TransactionResponse] "Replayed for a repeated Idempotency-Key"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/manufacturer-receive [post]
func (h *TransactionHandler) CreateManufacturerReceive(c *gin.Context) {
	var req ledgerapp.CreateManufacturerReceiveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.service.CreateManufacturerReceive(c.Request.Context(), req)
	h.recorded(c, tx, err)
}

// CreateSwap godoc
// @ID           createSwap
// @Summary      Swap units
// @Description  Exchange two groups of units, rewriting the affected sale items in place
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param        request body ledgerapp.CreateSwapRequest true "Swap units request"
// @Success      201 {object} APIResponse[ledgerapp.TransactionResponse]
// @Success      200 {object} APIResponse[ledgerapp.TransactionResponse] "Replayed for a repeated Idempotency-Key"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/swap [post]
func (h *TransactionHandler) CreateSwap(c *gin.Context) {
	var req ledgerapp.CreateSwapRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.service.CreateSwap(c.Request.Context(), req)
	h.recorded(c, tx, err)
}

// UpdateOrder godoc
// @ID           updateOrder
// @Summary      Update a sale header
// @Description  Edit store, customer, date or payment of a sale; items and code never change
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Param        request body ledgerapp.UpdateOrderRequest true "Update a sale header request"
// @Success      200 {object} APIResponse[ledgerapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/order/{id} [put]
func (h *TransactionHandler) UpdateOrder(c *gin.Context) {
	id, ok := h.parseID(c, "id", "transaction")
	if !ok {
		return
	}
	var req ledgerapp.UpdateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.service.UpdateOrder(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// UpdateManufacturerOrder godoc
// @ID           updateManufacturerOrder
// @Summary      Update a manufacturer order header
// @Description  Edit store, manufacturer code or date of a manufacturer order
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Param        request body ledgerapp.UpdateManufacturerOrderRequest true "Update a manufacturer order header request"
// @Success      200 {object} APIResponse[ledgerapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/manufacturer-order/{id} [put]
func (h *TransactionHandler) UpdateManufacturerOrder(c *gin.Context) {
	id, ok := h.parseID(c, "id", "transaction")
	if !ok {
		return
	}
	var req ledgerapp.UpdateManufacturerOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.service.UpdateManufacturerOrder(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// GetByID godoc
// @ID           getTransactionById
// @Summary      Get a ledger entry
// @Description  Retrieve one ledger entry with its items
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/{id} [get]
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id", "transaction")
	if !ok {
		return
	}
	tx, err := h.service.GetTransaction(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// List godoc
// @ID           listTransactions
// @Summary      List ledger entries
// @Description  Retrieve a paginated list of ledger entries, newest first by default
// @Tags         transactions
// @Produce      json
// @Param        type query string false "Transaction type" Enums(SALE, MANUFACTURER_ORDER, BUYBACK, FULFILLMENT, SELL_BACK, MANUFACTURER_RECEIVE, SWAP)
// @Param        from query string false "Start of the period (RFC3339)"
// @Param        to query string false "End of the period (RFC3339)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(500)
// @Param        sort_by query string false "Sort field" default(created_at)
// @Param        sort_order query string false "Sort order" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]ledgerapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	var filter ledgerapp.TransactionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.service.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListByCustomer godoc
// @ID           listTransactionsByCustomer
// @Summary      List a customer's ledger entries
// @Description  Retrieve every ledger entry of one customer
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        type query string false "Transaction type"
// @Success      200 {object} APIResponse[[]ledgerapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/customer/{id} [get]
func (h *TransactionHandler) ListByCustomer(c *gin.Context) {
	id, ok := h.parseID(c, "id", "customer")
	if !ok {
		return
	}
	txs, err := h.service.ListByCustomer(c.Request.Context(), id, c.Query("type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txs)
}

// GetStats godoc
// @ID           getTransactionStats
// @Summary      Sales statistics
// @Description  Aggregate order counts, revenue and units sold per type
// @Tags         transactions
// @Produce      json
// @Param        from query string false "Start of the period (RFC3339)"
// @Param        to query string false "End of the period (RFC3339)"
// @Success      200 {object} APIResponse[ledgerapp.StatsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/stats [get]
func (h *TransactionHandler) GetStats(c *gin.Context) {
	var filter ledgerapp.PeriodFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	stats, err := h.service.GetStats(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// GetFinancialStats godoc
// @ID           getFinancialStats
// @Summary      Financial statistics
// @Description  Aggregate money in and out by cash and bank transfer
// @Tags         transactions
// @Produce      json
// @Param        from query string false "Start of the period (RFC3339)"
// @Param        to query string false "End of the period (RFC3339)"
// @Success      200 {object} APIResponse[ledgerapp.FinancialStatsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /transactions/financial-stats [get]
func (h *TransactionHandler) GetFinancialStats(c *gin.Context) {
	var filter ledgerapp.PeriodFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	stats, err := h.service.GetFinancialStats(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
