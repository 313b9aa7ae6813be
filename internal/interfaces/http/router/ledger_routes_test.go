package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ledgerapp "github.com/erp/bullion/internal/application/ledger"
	"github.com/erp/bullion/internal/domain/shared"
	"github.com/erp/bullion/internal/interfaces/http/dto"
	"github.com/erp/bullion/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// missingLedger answers every lookup with NOT_FOUND so routing can be
// told apart from gin's own 404
type missingLedger struct{}

func (missingLedger) err() error { return shared.NotFoundf("missing") }

func (m missingLedger) CreateOrder(context.Context, ledgerapp.CreateOrderRequest) (*ledgerapp.TransactionResponse, error) {
	return nil, m.err()
}

func (m missingLedger) CreateManufacturerOrder(context.Context, ledgerapp.CreateManufacturerOrderRequest) (*ledgerapp.TransactionResponse, error) {
	return nil, m.err()
}

func (m missingLedger) CreateBuyback(context.Context, ledgerapp.CreateBuybackRequest) (*ledgerapp.TransactionResponse, error) {
	return nil, m.err()
}

func (m missingLedger) CreateFulfillment(context.Context, ledgerapp.CreateFulfillmentRequest) (*ledgerapp.TransactionResponse, error) {
	return nil, m.err()
}

func (m missingLedger) CreateSellBack(context.Context, ledgerapp.CreateSellBackRequest) (*ledgerapp.TransactionResponse, error) {
	return nil, m.err()
}

func (m missingLedger) CreateManufacturerReceive(context.Context, ledgerapp.CreateManufacturerReceiveRequest) (*ledgerapp.TransactionResponse, error) {
	return nil, m.err()
}

func (m missingLedger) CreateSwap(context.Context, ledgerapp.CreateSwapRequest) (*ledgerapp.TransactionResponse, error) {
	return nil, m.err()
}

func (m missingLedger) UpdateOrder(context.Context, uuid.UUID, ledgerapp.UpdateOrderRequest) (*ledgerapp.TransactionResponse, error) {
	return nil, m.err()
}

func (m missingLedger) UpdateManufacturerOrder(context.Context, uuid.UUID, ledgerapp.UpdateManufacturerOrderRequest) (*ledgerapp.TransactionResponse, error) {
	return nil, m.err()
}

func (m missingLedger) GetTransaction(context.Context, uuid.UUID) (*ledgerapp.TransactionResponse, error) {
	return nil, m.err()
}

func (m missingLedger) ListTransactions(context.Context, ledgerapp.TransactionListFilter) (*shared.Paginated[ledgerapp.TransactionResponse], error) {
	return nil, m.err()
}

func (m missingLedger) ListByCustomer(context.Context, uuid.UUID, string) ([]ledgerapp.TransactionResponse, error) {
	return nil, m.err()
}

func (m missingLedger) GetStats(context.Context, ledgerapp.PeriodFilter) (*ledgerapp.StatsResponse, error) {
	return nil, m.err()
}

func (m missingLedger) GetFinancialStats(context.Context, ledgerapp.PeriodFilter) (*ledgerapp.FinancialStatsResponse, error) {
	return nil, m.err()
}

func (m missingLedger) CreateProducts(context.Context, ledgerapp.CreateProductsRequest) ([]ledgerapp.ProductResponse, error) {
	return nil, m.err()
}

func (m missingLedger) MoveProduct(context.Context, uuid.UUID, ledgerapp.MoveProductRequest) (*ledgerapp.ProductResponse, error) {
	return nil, m.err()
}

func (m missingLedger) DeleteProduct(context.Context, uuid.UUID) error { return m.err() }

func (m missingLedger) GetProduct(context.Context, uuid.UUID) (*ledgerapp.ProductResponse, error) {
	return nil, m.err()
}

func (m missingLedger) ListAvailableProducts(context.Context, ledgerapp.ProductListFilter) ([]ledgerapp.ProductResponse, error) {
	return nil, m.err()
}

func (m missingLedger) ListPendingManufacturerOrder(context.Context) ([]ledgerapp.ProductResponse, error) {
	return nil, m.err()
}

func (m missingLedger) ListProductsByStore(context.Context, uuid.UUID) ([]ledgerapp.ProductResponse, error) {
	return nil, m.err()
}

func (m missingLedger) GetStatusInfo(context.Context, ledgerapp.StatusInfoRequest) ([]ledgerapp.StatusInfoResponse, error) {
	return nil, m.err()
}

func newLedgerEngine(apiMiddleware ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	svc := missingLedger{}
	SetupLedgerAPI(engine, Handlers{
		Transactions: handler.NewTransactionHandler(svc),
		Products:     handler.NewProductHandler(svc),
		System:       handler.NewSystemHandler(nil, "test"),
	}, apiMiddleware...)
	return engine
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestSetupLedgerAPI_ReadRoutes(t *testing.T) {
	engine := newLedgerEngine()
	id := uuid.NewString()

	for _, path := range []string{
		"/api/v1/transactions",
		"/api/v1/transactions/stats",
		"/api/v1/transactions/financial-stats",
		"/api/v1/transactions/customer/" + id,
		"/api/v1/transactions/" + id,
		"/api/v1/products/available",
		"/api/v1/products/pending-manufacturer",
		"/api/v1/products/store/" + id,
		"/api/v1/products/" + id,
	} {
		t.Run(path, func(t *testing.T) {
			w := serve(engine, http.MethodGet, path)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
		})
	}
}

func TestSetupLedgerAPI_Health(t *testing.T) {
	engine := newLedgerEngine(func(c *gin.Context) { c.AbortWithStatus(http.StatusTeapot) })

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusTeapot, serve(engine, http.MethodGet, "/api/v1/transactions").Code)
}

func TestSetupLedgerAPI_IdempotencyOnWrites(t *testing.T) {
	engine := newLedgerEngine()
	id := uuid.NewString()

	send := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "has spaces")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	for _, path := range []string{
		"/api/v1/transactions/order",
		"/api/v1/transactions/manufacturer-order",
		"/api/v1/transactions/buyback",
		"/api/v1/transactions/fulfillment",
		"/api/v1/transactions/sell-back",
		"/api/v1/transactions/manufacturer-receive",
		"/api/v1/transactions/swap",
	} {
		w := send(http.MethodPost, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, dto.ErrCodeIdempotencyKey, errorCode(t, w), path)
	}

	// updates are keyed by the entry id, not the header
	w := send(http.MethodPut, "/api/v1/transactions/order/"+id)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
}

func TestSetupLedgerAPI_ProductWrites(t *testing.T) {
	engine := newLedgerEngine()
	id := uuid.NewString()

	w := serve(engine, http.MethodDelete, "/api/v1/products/"+id)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+id+"/move",
		strings.NewReader(`{"store_id":"`+uuid.NewString()+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, rec))
}

var (
	_ handler.TransactionService = missingLedger{}
	_ handler.ProductService     = missingLedger{}
)
