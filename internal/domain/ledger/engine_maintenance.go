package ledger

import (
	"context"
	"errors"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/google/uuid"
)

// UpdateOrder edits the header of a sale and recomputes its payment split.
// The transaction code and items never change here.
func (e *Engine) UpdateOrder(ctx context.Context, uow UnitOfWork, cmd UpdateOrderCommand) (*Transaction, error) {
	tx, err := e.lockHeader(ctx, uow, cmd.TransactionID, TransactionTypeSale)
	if err != nil {
		return nil, err
	}
	dir := uow.Directory()

	if cmd.StoreID != nil {
		if err := requireExists(ctx, dir.StoreExists, "store", *cmd.StoreID); err != nil {
			return nil, err
		}
		tx.StoreID = *cmd.StoreID
	}
	if cmd.CustomerID != nil {
		if err := requireExists(ctx, dir.CustomerExists, "customer", *cmd.CustomerID); err != nil {
			return nil, err
		}
		id := *cmd.CustomerID
		tx.CustomerID = &id
	}
	if cmd.CreatedAt != nil && !cmd.CreatedAt.IsZero() {
		tx.CreatedAt = cmd.CreatedAt.UTC()
	}

	method := tx.PaymentMethod
	if cmd.PaymentMethod != nil {
		method = *cmd.PaymentMethod
	}
	cash := tx.CashAmount
	if cmd.CashAmount != nil {
		cash = *cmd.CashAmount
	}
	if err := tx.ApplyPayment(method, cash); err != nil {
		return nil, err
	}

	tx.Touch()
	if err := uow.Transactions().UpdateHeader(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// UpdateManufacturerOrder edits the header of a manufacturer order
func (e *Engine) UpdateManufacturerOrder(ctx context.Context, uow UnitOfWork, cmd UpdateManufacturerOrderCommand) (*Transaction, error) {
	tx, err := e.lockHeader(ctx, uow, cmd.TransactionID, TransactionTypeManufacturerOrder)
	if err != nil {
		return nil, err
	}
	if cmd.StoreID != nil {
		if err := requireExists(ctx, uow.Directory().StoreExists, "store", *cmd.StoreID); err != nil {
			return nil, err
		}
		tx.StoreID = *cmd.StoreID
	}
	if cmd.ManufacturerCode != nil {
		tx.ManufacturerCode = *cmd.ManufacturerCode
	}
	if cmd.CreatedAt != nil && !cmd.CreatedAt.IsZero() {
		tx.CreatedAt = cmd.CreatedAt.UTC()
	}

	tx.Touch()
	if err := uow.Transactions().UpdateHeader(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// MoveProduct moves a shelf unit to another store
func (e *Engine) MoveProduct(ctx context.Context, uow UnitOfWork, productID, storeID uuid.UUID) (*Product, error) {
	if err := requireExists(ctx, uow.Directory().StoreExists, "store", storeID); err != nil {
		return nil, err
	}
	products := uow.Products()
	p, err := products.FindByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, productLookupErr(err, productID)
	}
	before := p.Version
	if err := p.MoveTo(storeID); err != nil {
		return nil, err
	}
	if p.Version == before {
		return p, nil
	}
	if err := products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a unit that no ledger entry references
func (e *Engine) DeleteProduct(ctx context.Context, uow UnitOfWork, productID uuid.UUID) error {
	products := uow.Products()
	p, err := products.FindByIDForUpdate(ctx, productID)
	if err != nil {
		return productLookupErr(err, productID)
	}
	referenced, err := products.IsReferenced(ctx, p.ID)
	if err != nil {
		return err
	}
	if referenced {
		return shared.InvalidStatef("product %s (%s) is referenced by ledger entries and cannot be deleted", p.ID, p.Code)
	}
	return products.Delete(ctx, p.ID)
}

func (e *Engine) lockHeader(ctx context.Context, uow UnitOfWork, id uuid.UUID, want TransactionType) (*Transaction, error) {
	tx, err := uow.Transactions().FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundf("transaction %s not found", id)
		}
		return nil, err
	}
	if tx.Type != want {
		return nil, shared.InvalidStatef("transaction %s is %s, not %s", tx.Code, tx.Type, want)
	}
	return tx, nil
}
