package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the units a single request line may ask for
const MaxLineQuantity = 1000

// Engine performs every ledger write. Each operation runs against the unit
// of work it is given; the caller commits or rolls it back.
type Engine struct {
	loc *time.Location
	now func() time.Time
}

// NewEngine creates an engine that dates codes in loc
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		loc: loc,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Location returns the business time zone
func (e *Engine) Location() *time.Location {
	return e.loc
}

func (e *Engine) at(requested *time.Time) time.Time {
	if requested != nil && !requested.IsZero() {
		return requested.UTC()
	}
	return e.now()
}

// CreateOrder records a sale. New units are created Sold; existing units
// must be Available.
func (e *Engine) CreateOrder(ctx context.Context, uow UnitOfWork, cmd CreateOrderCommand) (*Transaction, error) {
	if len(cmd.Lines) == 0 {
		return nil, shared.InvalidInputf("an order needs at least one line")
	}
	if cmd.CustomerID == uuid.Nil {
		return nil, shared.InvalidInputf("an order needs a customer")
	}
	if err := e.checkRefs(ctx, uow.Directory(), cmd.StoreID, cmd.StaffID, &cmd.CustomerID); err != nil {
		return nil, err
	}

	at := e.at(cmd.CreatedAt)
	tx, err := e.newTransaction(ctx, uow, TransactionTypeSale, cmd.StaffID, cmd.StoreID, at)
	if err != nil {
		return nil, err
	}
	customerID := cmd.CustomerID
	tx.CustomerID = &customerID

	products := uow.Products()
	for i, line := range cmd.Lines {
		if line.Price.IsNegative() {
			return nil, shared.InvalidInputf("line %d: price cannot be negative", i+1)
		}
		qty, err := lineQuantity(i, line.Quantity)
		if err != nil {
			return nil, err
		}
		price := line.Price

		switch {
		case line.ProductID != nil:
			if qty != 1 {
				return nil, shared.InvalidInputf("line %d: a line naming product %s must have quantity 1", i+1, *line.ProductID)
			}
			p, err := products.FindByIDForUpdate(ctx, *line.ProductID)
			if err != nil {
				return nil, productLookupErr(err, *line.ProductID)
			}
			if err := e.transition(ctx, products, p, OpSale, &price); err != nil {
				return nil, err
			}
			tx.AddItem(p.ID, price)

		case line.IsNew:
			if !line.Type.IsValid() {
				return nil, shared.InvalidInputf("line %d: unknown product type %q", i+1, line.Type)
			}
			for n := 0; n < qty; n++ {
				p, err := e.createProduct(ctx, uow, line.Type, StatusSold, price, cmd.StoreID, false, at)
				if err != nil {
					return nil, err
				}
				tx.AddItem(p.ID, price)
			}

		default:
			if !line.Type.IsValid() {
				return nil, shared.InvalidInputf("line %d: unknown product type %q", i+1, line.Type)
			}
			for n := 0; n < qty; n++ {
				p, err := products.FindAvailableForUpdate(ctx, cmd.StoreID, line.Type)
				if err != nil {
					if errors.Is(err, shared.ErrNotFound) {
						return nil, shared.InvalidStatef("line %d: no available %s product left in store %s", i+1, line.Type.Label(), cmd.StoreID)
					}
					return nil, err
				}
				if err := e.transition(ctx, products, p, OpSale, &price); err != nil {
					return nil, err
				}
				tx.AddItem(p.ID, price)
			}
		}
	}

	if err := tx.ApplyPayment(cmd.PaymentMethod, cmd.CashAmount); err != nil {
		return nil, err
	}
	if err := uow.Transactions().Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// CreateManufacturerOrder orders pending customer units and new shelf units
// from the manufacturer in one entry.
func (e *Engine) CreateManufacturerOrder(ctx context.Context, uow UnitOfWork, cmd ManufacturerOrderCommand) (*Transaction, error) {
	if len(cmd.Existing) == 0 && len(cmd.NewUnits) == 0 {
		return nil, shared.InvalidInputf("a manufacturer order needs at least one line")
	}
	if err := e.checkRefs(ctx, uow.Directory(), cmd.StoreID, cmd.StaffID, nil); err != nil {
		return nil, err
	}
	if err := rejectDuplicates(pricedIDs(cmd.Existing)); err != nil {
		return nil, err
	}

	at := e.at(cmd.CreatedAt)
	tx, err := e.newTransaction(ctx, uow, TransactionTypeManufacturerOrder, cmd.StaffID, cmd.StoreID, at)
	if err != nil {
		return nil, err
	}
	tx.ManufacturerCode = cmd.ManufacturerCode

	products := uow.Products()
	for _, line := range cmd.Existing {
		if line.Price.IsNegative() {
			return nil, shared.InvalidInputf("price for product %s cannot be negative", line.ProductID)
		}
		p, err := products.FindByIDForUpdate(ctx, line.ProductID)
		if err != nil {
			return nil, productLookupErr(err, line.ProductID)
		}
		if p.IsOrdered {
			return nil, shared.AlreadyProcessedf("product %s (%s) already has a manufacturer order", p.ID, p.Code)
		}
		if err := e.transition(ctx, products, p, OpManufacturerOrder, nil); err != nil {
			return nil, err
		}
		tx.AddItem(p.ID, line.Price)
	}

	for i, line := range cmd.NewUnits {
		if !line.Type.IsValid() {
			return nil, shared.InvalidInputf("new unit line %d: unknown product type %q", i+1, line.Type)
		}
		if line.Price.IsNegative() {
			return nil, shared.InvalidInputf("new unit line %d: price cannot be negative", i+1)
		}
		qty, err := lineQuantity(i, line.Quantity)
		if err != nil {
			return nil, err
		}
		for n := 0; n < qty; n++ {
			p, err := e.createProduct(ctx, uow, line.Type, StatusAvailable, line.Price, cmd.StoreID, true, at)
			if err != nil {
				return nil, err
			}
			tx.AddItem(p.ID, line.Price)
		}
	}

	if err := uow.Transactions().Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// CreateStock registers new shelf units without a ledger entry
func (e *Engine) CreateStock(ctx context.Context, uow UnitOfWork, cmd StockIntakeCommand) ([]*Product, error) {
	if !cmd.Type.IsValid() {
		return nil, shared.InvalidInputf("unknown product type %q", cmd.Type)
	}
	if cmd.Price.IsNegative() {
		return nil, shared.InvalidInputf("price cannot be negative")
	}
	qty, err := lineQuantity(0, cmd.Quantity)
	if err != nil {
		return nil, err
	}
	if err := requireExists(ctx, uow.Directory().StoreExists, "store", cmd.StoreID); err != nil {
		return nil, err
	}

	at := e.at(cmd.CreatedAt)
	out := make([]*Product, 0, qty)
	for n := 0; n < qty; n++ {
		p, err := e.createProduct(ctx, uow, cmd.Type, StatusAvailable, cmd.Price, cmd.StoreID, false, at)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (e *Engine) newTransaction(ctx context.Context, uow UnitOfWork, typ TransactionType, staffID, storeID uuid.UUID, at time.Time) (*Transaction, error) {
	code, err := uow.Sequencer().Next(ctx, TransactionCodePrefix(at, e.loc))
	if err != nil {
		return nil, err
	}
	return NewTransaction(typ, code, staffID, storeID, at)
}

func (e *Engine) createProduct(ctx context.Context, uow UnitOfWork, typ ProductType, status ProductStatus, price decimal.Decimal, storeID uuid.UUID, isOrdered bool, at time.Time) (*Product, error) {
	code, err := uow.Sequencer().Next(ctx, ProductCodePrefix(typ, at, e.loc))
	if err != nil {
		return nil, err
	}
	p, err := NewProduct(code, typ, status, price, storeID, isOrdered)
	if err != nil {
		return nil, err
	}
	if err := uow.Products().Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// transition applies op to p and saves it
func (e *Engine) transition(ctx context.Context, products ProductRepository, p *Product, op Operation, price *decimal.Decimal) error {
	if err := p.Apply(op, price); err != nil {
		return err
	}
	return products.Update(ctx, p)
}

func (e *Engine) checkRefs(ctx context.Context, dir Directory, storeID, staffID uuid.UUID, customerID *uuid.UUID) error {
	if err := requireExists(ctx, dir.StoreExists, "store", storeID); err != nil {
		return err
	}
	if err := requireExists(ctx, dir.StaffExists, "staff", staffID); err != nil {
		return err
	}
	if customerID != nil {
		if err := requireExists(ctx, dir.CustomerExists, "customer", *customerID); err != nil {
			return err
		}
	}
	return nil
}

func requireExists(ctx context.Context, exists func(context.Context, uuid.UUID) (bool, error), what string, id uuid.UUID) error {
	if id == uuid.Nil {
		return shared.InvalidInputf("%s is required", what)
	}
	ok, err := exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NotFoundf("%s %s not found", what, id)
	}
	return nil
}

func lineQuantity(i, q int) (int, error) {
	if q == 0 {
		return 1, nil
	}
	if q < 0 || q > MaxLineQuantity {
		return 0, shared.InvalidInputf("line %d: quantity must be between 1 and %d", i+1, MaxLineQuantity)
	}
	return q, nil
}

func productLookupErr(err error, id uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFoundf("product %s not found", id)
	}
	return err
}

func rejectDuplicates(ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return shared.InvalidInputf("product %s is listed more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func pricedIDs(lines []PricedProduct) []uuid.UUID {
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	return ids
}
