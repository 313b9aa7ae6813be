package handler

import (
	"net/http"
	"testing"

	ledgerapp "github.com/erp/bullion/internal/application/ledger"
	"github.com/erp/bullion/internal/domain/shared"
	"github.com/erp/bullion/internal/interfaces/http/dto"
	"github.com/erp/bullion/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newProductEngine(svc *MockLedgerService) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	h := NewProductHandler(svc)

	g := engine.Group("/api/v1/products")
	g.POST("", h.Create)
	g.POST("/status-info", h.StatusInfo)
	g.POST("/:id/move", h.Move)
	g.DELETE("/:id", h.Delete)
	g.GET("/available", h.ListAvailable)
	g.GET("/pending-manufacturer", h.ListPendingManufacturer)
	g.GET("/store/:id", h.ListByStore)
	g.GET("/:id", h.GetByID)
	return engine
}

func sampleProduct(status string) ledgerapp.ProductResponse {
	return ledgerapp.ProductResponse{
		ID:        uuid.New(),
		Code:      "L1-20240501-00001",
		Type:      "LUONG_1",
		TypeLabel: "1 lượng",
		Status:    status,
		LastPrice: decimal.NewFromInt(2500000),
		StoreID:   uuid.New(),
		Version:   1,
	}
}

func TestProductHandler_Create(t *testing.T) {
	store := uuid.New()

	t.Run("registers units", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("CreateProducts", mock.Anything, mock.MatchedBy(func(req ledgerapp.CreateProductsRequest) bool {
			return req.StoreID == store && req.Type == "1 kg" && req.Quantity == 2 && req.Price.Equal(decimal.NewFromInt(90000000))
		})).Return([]ledgerapp.ProductResponse{sampleProduct("AVAILABLE"), sampleProduct("AVAILABLE")}, nil)

		w := perform(t, newProductEngine(svc), http.MethodPost, "/api/v1/products", map[string]any{
			"store_id": store, "type": "1 kg", "quantity": 2, "price": 90000000,
		})

		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Len(t, decode(t, w).Data, 2)
		svc.AssertExpectations(t)
	})

	t.Run("quantity bounds", func(t *testing.T) {
		svc := new(MockLedgerService)

		w := perform(t, newProductEngine(svc), http.MethodPost, "/api/v1/products", map[string]any{
			"store_id": store, "type": "LUONG_5", "quantity": 1001,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "quantity", resp.Error.Details[0].Field)
		assert.Equal(t, "Must be at most 1000", resp.Error.Details[0].Message)
	})

	t.Run("unknown store", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("CreateProducts", mock.Anything, mock.Anything).Return(nil, shared.NotFoundf("store %s not found", store))

		w := perform(t, newProductEngine(svc), http.MethodPost, "/api/v1/products", map[string]any{
			"store_id": store, "type": "LUONG_1", "quantity": 1,
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProductHandler_Reads(t *testing.T) {
	id := uuid.New()

	t.Run("get by id", func(t *testing.T) {
		svc := new(MockLedgerService)
		p := sampleProduct("SOLD")
		p.ID = id
		p.CustomerName = "Nguyễn Văn A"
		svc.On("GetProduct", mock.Anything, id).Return(&p, nil)

		w := perform(t, newProductEngine(svc), http.MethodGet, "/api/v1/products/"+id.String(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := dataMap(t, decode(t, w))
		assert.Equal(t, "L1-20240501-00001", data["product_code"])
		assert.Equal(t, "Nguyễn Văn A", data["customer_name"])
		assert.Equal(t, "2500000", data["last_price"])
	})

	t.Run("available by store and type", func(t *testing.T) {
		svc := new(MockLedgerService)
		store := uuid.New()
		svc.On("ListAvailableProducts", mock.Anything, mock.MatchedBy(func(f ledgerapp.ProductListFilter) bool {
			return f.StoreID != nil && *f.StoreID == store && f.Type == "LUONG_1"
		})).Return([]ledgerapp.ProductResponse{sampleProduct("AVAILABLE")}, nil)

		w := perform(t, newProductEngine(svc), http.MethodGet,
			"/api/v1/products/available?store_id="+store.String()+"&type=LUONG_1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("available without filters", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("ListAvailableProducts", mock.Anything, ledgerapp.ProductListFilter{}).Return([]ledgerapp.ProductResponse{}, nil)

		w := perform(t, newProductEngine(svc), http.MethodGet, "/api/v1/products/available", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("available with a bad store id", func(t *testing.T) {
		svc := new(MockLedgerService)
		w := perform(t, newProductEngine(svc), http.MethodGet, "/api/v1/products/available?store_id=main", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid store ID format", decode(t, w).Error.Message)
	})

	t.Run("pending manufacturer order and by store", func(t *testing.T) {
		svc := new(MockLedgerService)
		store := uuid.New()
		svc.On("ListPendingManufacturerOrder", mock.Anything).Return([]ledgerapp.ProductResponse{sampleProduct("SOLD")}, nil)
		svc.On("ListProductsByStore", mock.Anything, store).Return(nil, shared.NotFoundf("store %s not found", store))
		engine := newProductEngine(svc)

		w := perform(t, engine, http.MethodGet, "/api/v1/products/pending-manufacturer", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w).Data, 1)

		w = perform(t, engine, http.MethodGet, "/api/v1/products/store/"+store.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestProductHandler_StatusInfo(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	svc := new(MockLedgerService)
	svc.On("GetStatusInfo", mock.Anything, ledgerapp.StatusInfoRequest{ProductIDs: ids}).Return([]ledgerapp.StatusInfoResponse{
		{ProductID: ids[0], ProductCode: "L1-20240501-00001", Status: "SOLD"},
		{ProductID: ids[1], ProductCode: "L1-20240501-00002", Status: "AVAILABLE"},
	}, nil)
	engine := newProductEngine(svc)

	w := perform(t, engine, http.MethodPost, "/api/v1/products/status-info", map[string]any{"product_ids": ids})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode(t, w).Data, 2)

	w = perform(t, engine, http.MethodPost, "/api/v1/products/status-info", map[string]any{"product_ids": []uuid.UUID{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Must contain at least 1 items", decode(t, w).Error.Details[0].Message)
	svc.AssertExpectations(t)
}

func TestProductHandler_Move(t *testing.T) {
	id, store := uuid.New(), uuid.New()

	t.Run("moves an available unit", func(t *testing.T) {
		svc := new(MockLedgerService)
		p := sampleProduct("AVAILABLE")
		p.StoreID = store
		svc.On("MoveProduct", mock.Anything, id, ledgerapp.MoveProductRequest{StoreID: store}).Return(&p, nil)

		w := perform(t, newProductEngine(svc), http.MethodPost, "/api/v1/products/"+id.String()+"/move", map[string]any{"store_id": store})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, store.String(), dataMap(t, decode(t, w))["store_id"])
	})

	t.Run("sold units stay put", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("MoveProduct", mock.Anything, id, mock.Anything).
			Return(nil, shared.InvalidStatef("product L1-20240501-00001 is SOLD, expected AVAILABLE"))

		w := perform(t, newProductEngine(svc), http.MethodPost, "/api/v1/products/"+id.String()+"/move", map[string]any{"store_id": store})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestProductHandler_Delete(t *testing.T) {
	id := uuid.New()

	t.Run("unreferenced", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("DeleteProduct", mock.Anything, id).Return(nil)

		w := perform(t, newProductEngine(svc), http.MethodDelete, "/api/v1/products/"+id.String(), nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("referenced by a transaction", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("DeleteProduct", mock.Anything, id).
			Return(shared.InvalidStatef("product L1-20240501-00001 is referenced by 2 transaction items"))

		w := perform(t, newProductEngine(svc), http.MethodDelete, "/api/v1/products/"+id.String(), nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, decode(t, w).Error.Code)
	})
}
