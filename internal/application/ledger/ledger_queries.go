package ledger

import (
	"context"
	"errors"

	"github.com/erp/bullion/internal/domain/ledger"
	"github.com/erp/bullion/internal/domain/shared"
	"github.com/google/uuid"
)

// GetTransaction returns one ledger entry with its items
func (s *LedgerService) GetTransaction(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	tx, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundf("transaction %s not found", id)
		}
		return nil, err
	}
	responses, err := s.withLinkedStatus(ctx, []ledger.Transaction{*tx})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// ListTransactions lists ledger entries, newest first unless the filter
// asks for another order. Origins carry the
// type of the derived entry linking to them.
func (s *LedgerService) ListTransactions(ctx context.Context, f TransactionListFilter) (*shared.Paginated[TransactionResponse], error) {
	period := shared.DateRange{From: f.From, To: f.To}
	if err := checkPeriod(period); err != nil {
		return nil, err
	}
	filter := ledger.TransactionFilter{
		Filter:    shared.Filter{Page: f.Page, PageSize: f.PageSize, OrderBy: f.SortBy, OrderDir: f.SortOrder}.Normalize(),
		DateRange: period,
	}
	if f.Type != "" {
		typ := ledger.TransactionType(f.Type)
		if !typ.IsValid() {
			return nil, shared.InvalidInputf("unknown transaction type %q", f.Type)
		}
		filter.Type = &typ
	}

	rows, total, err := s.transactions.FindMany(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := s.withLinkedStatus(ctx, rows)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListByCustomer lists a customer's ledger entries newest first
func (s *LedgerService) ListByCustomer(ctx context.Context, customerID uuid.UUID, typ string) ([]TransactionResponse, error) {
	ok, err := s.directory.CustomerExists(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.NotFoundf("customer %s not found", customerID)
	}
	var filter *ledger.TransactionType
	if typ != "" {
		t := ledger.TransactionType(typ)
		if !t.IsValid() {
			return nil, shared.InvalidInputf("unknown transaction type %q", typ)
		}
		filter = &t
	}
	rows, err := s.transactions.FindByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, err
	}
	return s.withLinkedStatus(ctx, rows)
}

func (s *LedgerService) withLinkedStatus(ctx context.Context, rows []ledger.Transaction) ([]TransactionResponse, error) {
	var origins []uuid.UUID
	for _, tx := range rows {
		if _, derived := tx.Type.OriginType(); !derived {
			origins = append(origins, tx.ID)
		}
	}
	linked := map[uuid.UUID]ledger.TransactionType{}
	if len(origins) > 0 {
		var err error
		if linked, err = s.transactions.GetLinkedStatuses(ctx, origins); err != nil {
			return nil, err
		}
	}
	out := make([]TransactionResponse, len(rows))
	for i := range rows {
		out[i] = ToTransactionResponse(&rows[i])
		if st, ok := linked[rows[i].ID]; ok {
			out[i].LinkedStatus = st.String()
		}
	}
	return out, nil
}

// GetProduct returns one product with its latest customer and receipt date
func (s *LedgerService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundf("product %s not found", id)
		}
		return nil, err
	}
	out, err := s.enrichProducts(ctx, []ledger.Product{*p})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// ListAvailableProducts lists shelf units, optionally by store and type
func (s *LedgerService) ListAvailableProducts(ctx context.Context, f ProductListFilter) ([]ProductResponse, error) {
	filter := ledger.ProductFilter{StoreID: f.StoreID}
	if f.Type != "" {
		typ, err := ledger.ParseProductType(f.Type)
		if err != nil {
			return nil, err
		}
		filter.Type = &typ
	}
	rows, err := s.products.ListAvailable(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.enrichProducts(ctx, rows)
}

// ListPendingManufacturerOrder lists sold units not yet ordered from the manufacturer
func (s *LedgerService) ListPendingManufacturerOrder(ctx context.Context) ([]ProductResponse, error) {
	rows, err := s.products.ListPendingManufacturerOrder(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrichProducts(ctx, rows)
}

// ListProductsByStore lists every product a store owns
func (s *LedgerService) ListProductsByStore(ctx context.Context, storeID uuid.UUID) ([]ProductResponse, error) {
	ok, err := s.directory.StoreExists(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.NotFoundf("store %s not found", storeID)
	}
	rows, err := s.products.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return s.enrichProducts(ctx, rows)
}

func (s *LedgerService) enrichProducts(ctx context.Context, rows []ledger.Product) ([]ProductResponse, error) {
	out := make([]ProductResponse, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	names, err := s.reports.GetProductCustomerNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	received, err := s.reports.GetProductReceivedDates(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		out[i] = ToProductResponse(&rows[i])
		out[i].CustomerName = names[rows[i].ID]
		if at, ok := received[rows[i].ID]; ok {
			out[i].ReceivedAt = &at
		}
	}
	return out, nil
}

// GetStatusInfo projects the effective status of each product together
// with the sale, buyback and swap that explain it
func (s *LedgerService) GetStatusInfo(ctx context.Context, req StatusInfoRequest) ([]StatusInfoResponse, error) {
	ids := uniqueIDs(req.ProductIDs)
	if len(ids) == 0 {
		return nil, shared.InvalidInputf("at least one product id is required")
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[uuid.UUID]ledger.Product, len(products))
	for _, p := range products {
		found[p.ID] = p
	}
	ordered := make([]ledger.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := found[id]
		if !ok {
			return nil, shared.NotFoundf("product %s not found", id)
		}
		ordered = append(ordered, p)
	}

	history, err := s.reports.ProductHistory(ctx, ids)
	if err != nil {
		return nil, err
	}
	infos := ledger.ProjectStatuses(ordered, history)
	out := make([]StatusInfoResponse, len(infos))
	for i, info := range infos {
		out[i] = StatusInfoResponse{
			ProductID:   info.ProductID,
			ProductCode: info.ProductCode,
			Status:      info.Status.String(),
			Sale:        toEventContext(info.Sale),
			Buyback:     toEventContext(info.Buyback),
			SwapReturn:  toEventContext(info.SwapReturn),
		}
	}
	return out, nil
}

// GetStats aggregates sales over a period
func (s *LedgerService) GetStats(ctx context.Context, f PeriodFilter) (*StatsResponse, error) {
	period := f.dateRange()
	if err := checkPeriod(period); err != nil {
		return nil, err
	}
	stats, err := s.reports.GetStats(ctx, period)
	if err != nil {
		return nil, err
	}
	return toStatsResponse(stats), nil
}

// GetFinancialStats aggregates money in and out over a period
func (s *LedgerService) GetFinancialStats(ctx context.Context, f PeriodFilter) (*FinancialStatsResponse, error) {
	period := f.dateRange()
	if err := checkPeriod(period); err != nil {
		return nil, err
	}
	fs, err := s.reports.GetFinancialStats(ctx, period)
	if err != nil {
		return nil, err
	}
	return &FinancialStatsResponse{
		MoneyIn:     fs.MoneyIn,
		MoneyInCash: fs.MoneyInCash,
		MoneyInBank: fs.MoneyInBank,
		MoneyOut:    fs.MoneyOut,
		Net:         fs.Net,
	}, nil
}

func checkPeriod(p shared.DateRange) error {
	if p.From != nil && p.To != nil && p.From.After(*p.To) {
		return shared.InvalidInputf("period start %s is after its end %s", p.From.Format("2006-01-02"), p.To.Format("2006-01-02"))
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
