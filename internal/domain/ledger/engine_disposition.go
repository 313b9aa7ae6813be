package ledger

import (
	"context"
	"errors"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/google/uuid"
)

// CreateBuyback takes units of a sale back into inventory. A sale accepts
// one buyback or one fulfillment, never both.
func (e *Engine) CreateBuyback(ctx context.Context, uow UnitOfWork, cmd BuybackCommand) (*Transaction, error) {
	if len(cmd.Lines) == 0 {
		return nil, shared.InvalidInputf("a buyback needs at least one product")
	}
	if err := rejectDuplicates(pricedIDs(cmd.Lines)); err != nil {
		return nil, err
	}
	origin, tx, err := e.openDisposition(ctx, uow, TransactionTypeBuyback, cmd.DerivedHeader)
	if err != nil {
		return nil, err
	}

	products := uow.Products()
	for _, line := range cmd.Lines {
		p, err := e.loadOriginProduct(ctx, products, origin, line.ProductID)
		if err != nil {
			return nil, err
		}
		price := line.Price
		if err := e.transition(ctx, products, p, OpBuyback, &price); err != nil {
			return nil, err
		}
		tx.AddItem(p.ID, price)
	}

	if err := tx.ApplyPayment(cmd.PaymentMethod, cmd.CashAmount); err != nil {
		return nil, err
	}
	return tx, uow.Transactions().Create(ctx, tx)
}

// CreateFulfillment records the physical handover of sold units. Each item
// carries the unit's last price.
func (e *Engine) CreateFulfillment(ctx context.Context, uow UnitOfWork, cmd FulfillmentCommand) (*Transaction, error) {
	if len(cmd.ProductIDs) == 0 {
		return nil, shared.InvalidInputf("a fulfillment needs at least one product")
	}
	if err := rejectDuplicates(cmd.ProductIDs); err != nil {
		return nil, err
	}
	origin, tx, err := e.openDisposition(ctx, uow, TransactionTypeFulfillment, cmd.DerivedHeader)
	if err != nil {
		return nil, err
	}

	products := uow.Products()
	for _, id := range cmd.ProductIDs {
		p, err := e.loadOriginProduct(ctx, products, origin, id)
		if err != nil {
			return nil, err
		}
		if err := e.transition(ctx, products, p, OpFulfillment, nil); err != nil {
			return nil, err
		}
		tx.AddItem(p.ID, p.LastPrice)
	}

	return tx, uow.Transactions().Create(ctx, tx)
}

// CreateSellBack returns units of a manufacturer order to the manufacturer.
// Each unit can be sold back once.
func (e *Engine) CreateSellBack(ctx context.Context, uow UnitOfWork, cmd SellBackCommand) (*Transaction, error) {
	if len(cmd.Lines) == 0 {
		return nil, shared.InvalidInputf("a sell-back needs at least one product")
	}
	if err := rejectDuplicates(pricedIDs(cmd.Lines)); err != nil {
		return nil, err
	}
	origin, tx, err := e.openDisposition(ctx, uow, TransactionTypeSellBack, cmd.DerivedHeader)
	if err != nil {
		return nil, err
	}

	products := uow.Products()
	for _, line := range cmd.Lines {
		p, err := e.loadOriginProduct(ctx, products, origin, line.ProductID)
		if err != nil {
			return nil, err
		}
		if p.Status == StatusSoldBackToManufacturer {
			return nil, shared.AlreadyProcessedf("product %s (%s) was already sold back to the manufacturer", p.ID, p.Code)
		}
		price := line.Price
		if err := e.transition(ctx, products, p, OpSellBack, &price); err != nil {
			return nil, err
		}
		tx.AddItem(p.ID, price)
	}

	if err := tx.ApplyPayment(cmd.PaymentMethod, cmd.CashAmount); err != nil {
		return nil, err
	}
	return tx, uow.Transactions().Create(ctx, tx)
}

// CreateManufacturerReceive confirms delivery of ordered units. Each unit
// can be received once.
func (e *Engine) CreateManufacturerReceive(ctx context.Context, uow UnitOfWork, cmd ManufacturerReceiveCommand) (*Transaction, error) {
	if len(cmd.Lines) == 0 {
		return nil, shared.InvalidInputf("a manufacturer receipt needs at least one product")
	}
	ids := make([]uuid.UUID, len(cmd.Lines))
	for i, l := range cmd.Lines {
		ids[i] = l.ProductID
	}
	if err := rejectDuplicates(ids); err != nil {
		return nil, err
	}
	origin, tx, err := e.openDisposition(ctx, uow, TransactionTypeManufacturerReceived, cmd.DerivedHeader)
	if err != nil {
		return nil, err
	}

	products := uow.Products()
	for _, line := range cmd.Lines {
		p, err := e.loadOriginProduct(ctx, products, origin, line.ProductID)
		if err != nil {
			return nil, err
		}
		if p.IsDelivered {
			return nil, shared.AlreadyProcessedf("product %s (%s) was already received from the manufacturer", p.ID, p.Code)
		}
		if err := e.transition(ctx, products, p, OpManufacturerReceive, line.Price); err != nil {
			return nil, err
		}
		tx.AddItem(p.ID, p.LastPrice)
	}

	return tx, uow.Transactions().Create(ctx, tx)
}

// openDisposition locks and checks the origin of a derived entry and
// builds the entry header
func (e *Engine) openDisposition(ctx context.Context, uow UnitOfWork, typ TransactionType, h DerivedHeader) (*Transaction, *Transaction, error) {
	want, _ := typ.OriginType()
	// Lock order for every write: the day's code row, sale headers, units.
	at := e.at(h.CreatedAt)
	code, err := uow.Sequencer().Next(ctx, TransactionCodePrefix(at, e.loc))
	if err != nil {
		return nil, nil, err
	}
	origin, err := uow.Transactions().FindByIDForUpdate(ctx, h.OriginID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NotFoundf("origin transaction %s not found", h.OriginID)
		}
		return nil, nil, err
	}
	if origin.Type != want {
		return nil, nil, shared.InvalidStatef("transaction %s is %s; %s requires a %s", origin.Code, origin.Type, typ, want)
	}

	if typ.IsTerminalDisposition() {
		linked, err := uow.Transactions().GetLinkedStatuses(ctx, []uuid.UUID{origin.ID})
		if err != nil {
			return nil, nil, err
		}
		if existing, ok := linked[origin.ID]; ok {
			return nil, nil, shared.AlreadyProcessedf("sale %s already has a %s transaction", origin.Code, existing)
		}
	}

	storeID := origin.StoreID
	if h.StoreID != nil {
		storeID = *h.StoreID
	}
	if err := e.checkRefs(ctx, uow.Directory(), storeID, h.StaffID, nil); err != nil {
		return nil, nil, err
	}

	tx, err := NewTransaction(typ, code, h.StaffID, storeID, at)
	if err != nil {
		return nil, nil, err
	}
	tx.CustomerID = origin.CustomerID
	if err := tx.LinkTo(origin); err != nil {
		return nil, nil, err
	}
	return origin, tx, nil
}

func (e *Engine) loadOriginProduct(ctx context.Context, products ProductRepository, origin *Transaction, id uuid.UUID) (*Product, error) {
	if !origin.HasProduct(id) {
		return nil, shared.InvalidStatef("product %s is not part of transaction %s", id, origin.Code)
	}
	p, err := products.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, productLookupErr(err, id)
	}
	return p, nil
}
