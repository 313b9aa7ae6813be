package router

import (
	"github.com/erp/bullion/internal/interfaces/http/handler"
	"github.com/erp/bullion/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the handlers served by the ledger API
type Handlers struct {
	Transactions *handler.TransactionHandler
	Products     *handler.ProductHandler
	System       *handler.SystemHandler
}

// TransactionRoutes maps the ledger entry endpoints. Writes accept an
// Idempotency-Key header.
func TransactionRoutes(h *handler.TransactionHandler) *DomainGroup {
	write := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{middleware.Idempotency(), fn}
	}

	g := NewDomainGroup("transactions", "/transactions")
	g.POST("/order", write(h.CreateOrder)...)
	g.POST("/manufacturer-order", write(h.CreateManufacturerOrder)...)
	g.POST("/buyback", write(h.CreateBuyback)...)
	g.POST("/fulfillment", write(h.CreateFulfillment)...)
	g.POST("/sell-back", write(h.CreateSellBack)...)
	g.POST("/manufacturer-receive", write(h.CreateManufacturerReceive)...)
	g.POST("/swap", write(h.CreateSwap)...)
	g.PUT("/order/:id", h.UpdateOrder)
	g.PUT("/manufacturer-order/:id", h.UpdateManufacturerOrder)

	g.GET("", h.List)
	g.GET("/stats", h.GetStats)
	g.GET("/financial-stats", h.GetFinancialStats)
	g.GET("/customer/:id", h.ListByCustomer)
	g.GET("/:id", h.GetByID)
	return g
}

// ProductRoutes maps the product endpoints
func ProductRoutes(h *handler.ProductHandler) *DomainGroup {
	g := NewDomainGroup("products", "/products")
	g.POST("", h.Create)
	g.POST("/status-info", h.StatusInfo)
	g.POST("/:id/move", h.Move)
	g.DELETE("/:id", h.Delete)

	g.GET("/available", h.ListAvailable)
	g.GET("/pending-manufacturer", h.ListPendingManufacturer)
	g.GET("/store/:id", h.ListByStore)
	g.GET("/:id", h.GetByID)
	return g
}

// SetupLedgerAPI mounts GET /health and the /api/v1 ledger routes on engine
func SetupLedgerAPI(engine *gin.Engine, h Handlers, apiMiddleware ...gin.HandlerFunc) {
	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}

	r := NewRouter(engine, WithAPIVersion("v1")).Use(apiMiddleware...)
	r.Register(TransactionRoutes(h.Transactions)).
		Register(ProductRoutes(h.Products))
	r.Setup()
}
