package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	ledgerapp "github.com/erp/bullion/internal/application/ledger"
	"github.com/erp/bullion/internal/domain/shared"
	"github.com/erp/bullion/internal/interfaces/http/dto"
	"github.com/erp/bullion/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// MockLedgerService implements TransactionService and ProductService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) tx(args mock.Arguments) (*ledgerapp.TransactionResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.TransactionResponse), args.Error(1)
}

func (m *MockLedgerService) products(args mock.Arguments) ([]ledgerapp.ProductResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledgerapp.ProductResponse), args.Error(1)
}

func (m *MockLedgerService) CreateOrder(ctx context.Context, req ledgerapp.CreateOrderRequest) (*ledgerapp.TransactionResponse, error) {
	return m.tx(m.Called(ctx, req))
}

func (m *MockLedgerService) CreateManufacturerOrder(ctx context.Context, req ledgerapp.CreateManufacturerOrderRequest) (*ledgerapp.TransactionResponse, error) {
	return m.tx(m.Called(ctx, req))
}

func (m *MockLedgerService) CreateBuyback(ctx context.Context, req ledgerapp.CreateBuybackRequest) (*ledgerapp.TransactionResponse, error) {
	return m.tx(m.Called(ctx, req))
}

func (m *MockLedgerService) CreateFulfillment(ctx context.Context, req ledgerapp.CreateFulfillmentRequest) (*ledgerapp.TransactionResponse, error) {
	return m.tx(m.Called(ctx, req))
}

func (m *MockLedgerService) CreateSellBack(ctx context.Context, req ledgerapp.CreateSellBackRequest) (*ledgerapp.TransactionResponse, error) {
	return m.tx(m.Called(ctx, req))
}

func (m *MockLedgerService) CreateManufacturerReceive(ctx context.Context, req ledgerapp.CreateManufacturerReceiveRequest) (*ledgerapp.TransactionResponse, error) {
	return m.tx(m.Called(ctx, req))
}

func (m *MockLedgerService) CreateSwap(ctx context.Context, req ledgerapp.CreateSwapRequest) (*ledgerapp.TransactionResponse, error) {
	return m.tx(m.Called(ctx, req))
}

func (m *MockLedgerService) UpdateOrder(ctx context.Context, id uuid.UUID, req ledgerapp.UpdateOrderRequest) (*ledgerapp.TransactionResponse, error) {
	return m.tx(m.Called(ctx, id, req))
}

func (m *MockLedgerService) UpdateManufacturerOrder(ctx context.Context, id uuid.UUID, req ledgerapp.UpdateManufacturerOrderRequest) (*ledgerapp.TransactionResponse, error) {
	return m.tx(m.Called(ctx, id, req))
}

func (m *MockLedgerService) GetTransaction(ctx context.Context, id uuid.UUID) (*ledgerapp.TransactionResponse, error) {
	return m.tx(m.Called(ctx, id))
}

func (m *MockLedgerService) ListTransactions(ctx context.Context, f ledgerapp.TransactionListFilter) (*shared.Paginated[ledgerapp.TransactionResponse], error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[ledgerapp.TransactionResponse]), args.Error(1)
}

func (m *MockLedgerService) ListByCustomer(ctx context.Context, customerID uuid.UUID, typ string) ([]ledgerapp.TransactionResponse, error) {
	args := m.Called(ctx, customerID, typ)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledgerapp.TransactionResponse), args.Error(1)
}

func (m *MockLedgerService) GetStats(ctx context.Context, f ledgerapp.PeriodFilter) (*ledgerapp.StatsResponse, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.StatsResponse), args.Error(1)
}

func (m *MockLedgerService) GetFinancialStats(ctx context.Context, f ledgerapp.PeriodFilter) (*ledgerapp.FinancialStatsResponse, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.FinancialStatsResponse), args.Error(1)
}

func (m *MockLedgerService) CreateProducts(ctx context.Context, req ledgerapp.CreateProductsRequest) ([]ledgerapp.ProductResponse, error) {
	return m.products(m.Called(ctx, req))
}

func (m *MockLedgerService) MoveProduct(ctx context.Context, id uuid.UUID, req ledgerapp.MoveProductRequest) (*ledgerapp.ProductResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.ProductResponse), args.Error(1)
}

func (m *MockLedgerService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLedgerService) GetProduct(ctx context.Context, id uuid.UUID) (*ledgerapp.ProductResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.ProductResponse), args.Error(1)
}

func (m *MockLedgerService) ListAvailableProducts(ctx context.Context, f ledgerapp.ProductListFilter) ([]ledgerapp.ProductResponse, error) {
	return m.products(m.Called(ctx, f))
}

func (m *MockLedgerService) ListPendingManufacturerOrder(ctx context.Context) ([]ledgerapp.ProductResponse, error) {
	return m.products(m.Called(ctx))
}

func (m *MockLedgerService) ListProductsByStore(ctx context.Context, storeID uuid.UUID) ([]ledgerapp.ProductResponse, error) {
	return m.products(m.Called(ctx, storeID))
}

func (m *MockLedgerService) GetStatusInfo(ctx context.Context, req ledgerapp.StatusInfoRequest) ([]ledgerapp.StatusInfoResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledgerapp.StatusInfoResponse), args.Error(1)
}

var (
	_ TransactionService = (*MockLedgerService)(nil)
	_ ProductService     = (*MockLedgerService)(nil)
	_ TransactionService = (*ledgerapp.LedgerService)(nil)
	_ ProductService     = (*ledgerapp.LedgerService)(nil)
)

// perform sends a request through engine; body is JSON encoded unless it
// already is a string
func perform(t *testing.T, engine *gin.Engine, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func dataMap(t *testing.T, resp dto.Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data should be an object, got %T", resp.Data)
	return m
}
