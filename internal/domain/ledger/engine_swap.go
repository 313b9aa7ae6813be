package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/google/uuid"
)

// CreateSwap exchanges two groups of units. Sale items of the customer side
// are rewritten in place so the sale keeps its identity and prices while
// pointing at the units the customer now holds.
func (e *Engine) CreateSwap(ctx context.Context, uow UnitOfWork, cmd SwapCommand) (*Transaction, error) {
	if len(cmd.Group1) == 0 || len(cmd.Group2) == 0 {
		return nil, shared.InvalidInputf("both swap groups need at least one product")
	}
	if err := requireExists(ctx, uow.Directory().StaffExists, "staff", cmd.StaffID); err != nil {
		return nil, err
	}

	// Lock order: the day's code row, sale headers, units.
	at := e.at(cmd.CreatedAt)
	code, err := uow.Sequencer().Next(ctx, TransactionCodePrefix(at, e.loc))
	if err != nil {
		return nil, err
	}

	ids := append(append([]uuid.UUID{}, cmd.Group1...), cmd.Group2...)
	sales, err := e.lockSalesOf(ctx, uow, ids)
	if err != nil {
		return nil, err
	}
	locked, err := e.lockProducts(ctx, uow.Products(), ids)
	if err != nil {
		return nil, err
	}
	group1 := pick(locked, cmd.Group1)
	group2 := pick(locked, cmd.Group2)

	sides, err := ClassifySwap(group1, group2)
	if err != nil {
		return nil, err
	}

	// Locate every sale item before rewriting any of them.
	soldUnits := sides.Sold
	if sides.Kind == SwapCustomerToCustomer {
		soldUnits = append(append([]*Product{}, sides.Sold...), sides.Other...)
	}
	ledgerRepo := uow.Transactions()
	saleItems := make(map[uuid.UUID]TransactionItem, len(soldUnits))
	for _, p := range soldUnits {
		item, err := ledgerRepo.LatestSaleItem(ctx, p.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NotFoundf("no sale record found for sold product %s (%s)", p.ID, p.Code)
			}
			return nil, err
		}
		if _, ok := sales[item.TransactionID]; !ok {
			return nil, shared.NewDomainError(shared.CodeConcurrencyConflict,
				fmt.Sprintf("sale of product %s changed while the swap was locking it", p.Code))
		}
		saleItems[p.ID] = *item
	}

	rewrites := []struct{ out, in []*Product }{{sides.Sold, sides.Other}}
	if sides.Kind == SwapCustomerToCustomer {
		rewrites = append(rewrites, struct{ out, in []*Product }{sides.Other, sides.Sold})
	}
	for _, rw := range rewrites {
		plan, err := PlanSaleRewrite(rw.out, rw.in, saleItems)
		if err != nil {
			return nil, err
		}
		if err := applySaleRewrite(ctx, ledgerRepo, plan); err != nil {
			return nil, err
		}
		for _, id := range plan.Repriced {
			if err := repriceSale(ctx, ledgerRepo, id); err != nil {
				return nil, err
			}
		}
	}

	customerStore := sides.Sold[0].StoreID
	if sides.Kind == SwapCustomerToInventory {
		shelfStore := sides.Other[0].StoreID
		products := uow.Products()
		for _, p := range sides.Sold {
			if err := p.Apply(OpSwapReturn, nil); err != nil {
				return nil, err
			}
			p.reassignStore(shelfStore)
			if err := products.Update(ctx, p); err != nil {
				return nil, err
			}
		}
		for _, p := range sides.Other {
			if err := p.Apply(OpSwapIssue, nil); err != nil {
				return nil, err
			}
			p.reassignStore(customerStore)
			if err := products.Update(ctx, p); err != nil {
				return nil, err
			}
		}
	}

	storeID := customerStore
	if cmd.StoreID != nil {
		storeID = *cmd.StoreID
	}
	if err := requireExists(ctx, uow.Directory().StoreExists, "store", storeID); err != nil {
		return nil, err
	}

	// With two customers the entry links to group 1's sale.
	sale := sales[saleItems[sides.Sold[0].ID].TransactionID]

	tx, err := NewTransaction(TransactionTypeSwap, code, cmd.StaffID, storeID, at)
	if err != nil {
		return nil, err
	}
	tx.CustomerID = sale.CustomerID
	if err := tx.LinkTo(sale); err != nil {
		return nil, err
	}
	for _, p := range append(append([]*Product{}, group1...), group2...) {
		tx.AddItem(p.ID, p.LastPrice)
	}
	if err := ledgerRepo.Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// lockProducts locks the rows in id order so concurrent swaps over
// overlapping units cannot deadlock
func (e *Engine) lockProducts(ctx context.Context, products ProductRepository, ids []uuid.UUID) (map[uuid.UUID]*Product, error) {
	sorted := append([]uuid.UUID{}, ids...)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i][:], sorted[j][:]) < 0 })

	out := make(map[uuid.UUID]*Product, len(sorted))
	for _, id := range sorted {
		if _, ok := out[id]; ok {
			continue
		}
		p, err := products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, productLookupErr(err, id)
		}
		out[id] = p
	}
	return out, nil
}

// lockSalesOf locks, in id order, the latest sale of every unit that reads as
// sold. The read is unlocked; callers recheck against the result once the
// units themselves are locked.
func (e *Engine) lockSalesOf(ctx context.Context, uow UnitOfWork, ids []uuid.UUID) (map[uuid.UUID]*Transaction, error) {
	units, err := uow.Products().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	var saleIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, p := range units {
		if p.Status != StatusSold {
			continue
		}
		item, err := uow.Transactions().LatestSaleItem(ctx, p.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if !seen[item.TransactionID] {
			seen[item.TransactionID] = true
			saleIDs = append(saleIDs, item.TransactionID)
		}
	}
	sort.Slice(saleIDs, func(i, j int) bool { return bytes.Compare(saleIDs[i][:], saleIDs[j][:]) < 0 })

	out := make(map[uuid.UUID]*Transaction, len(saleIDs))
	for _, id := range saleIDs {
		sale, err := uow.Transactions().FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = sale
	}
	return out, nil
}

// repriceSale recomputes the payment split after a swap changed the items
// of a sale. A mixed cash share larger than the new total is capped
// at the total.
func repriceSale(ctx context.Context, repo TransactionRepository, id uuid.UUID) error {
	sale, err := repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	cash := sale.CashAmount
	if total := sale.Total(); cash.GreaterThan(total) {
		cash = total
	}
	if err := sale.ApplyPayment(sale.PaymentMethod, cash); err != nil {
		return err
	}
	sale.Touch()
	return repo.UpdateHeader(ctx, sale)
}

func pick(locked map[uuid.UUID]*Product, ids []uuid.UUID) []*Product {
	out := make([]*Product, len(ids))
	for i, id := range ids {
		out[i] = locked[id]
	}
	return out
}

func applySaleRewrite(ctx context.Context, repo TransactionRepository, plan SaleRewrite) error {
	for i := range plan.Updated {
		if err := repo.UpdateItem(ctx, &plan.Updated[i]); err != nil {
			return err
		}
	}
	for _, id := range plan.Deleted {
		if err := repo.DeleteItem(ctx, id); err != nil {
			return err
		}
	}
	for i := range plan.Added {
		if err := repo.AddItem(ctx, &plan.Added[i]); err != nil {
			return err
		}
	}
	return nil
}
