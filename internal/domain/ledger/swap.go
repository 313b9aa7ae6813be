package ledger

import (
	"github.com/erp/bullion/internal/domain/shared"
	"github.com/google/uuid"
)

// SwapKind tells which parties exchange units
type SwapKind int

const (
	// SwapCustomerToCustomer exchanges units between two customers' sales
	SwapCustomerToCustomer SwapKind = iota + 1
	// SwapCustomerToInventory exchanges a customer's units with shelf stock
	SwapCustomerToInventory
)

// String returns the swap kind name
func (k SwapKind) String() string {
	switch k {
	case SwapCustomerToCustomer:
		return "customer-customer"
	case SwapCustomerToInventory:
		return "customer-inventory"
	}
	return "unknown"
}

// SwapSides is the classified input of a swap
type SwapSides struct {
	Kind SwapKind
	// Sold is the customer side. In a customer-customer swap it is group 1.
	Sold []*Product
	// Other is group 2 in a customer-customer swap, the shelf units otherwise
	Other []*Product
}

// ClassifySwap validates two groups and tells which kind of swap they form.
// Each group must be all Sold or all Available, and at least one group
// must be Sold.
func ClassifySwap(group1, group2 []*Product) (SwapSides, error) {
	if len(group1) == 0 || len(group2) == 0 {
		return SwapSides{}, shared.InvalidInputf("both swap groups need at least one product")
	}
	seen := make(map[uuid.UUID]struct{}, len(group1)+len(group2))
	for _, p := range append(append([]*Product{}, group1...), group2...) {
		if _, dup := seen[p.ID]; dup {
			return SwapSides{}, shared.InvalidInputf("product %s appears more than once in the swap", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	s1, err := groupStatus(group1, 1)
	if err != nil {
		return SwapSides{}, err
	}
	s2, err := groupStatus(group2, 2)
	if err != nil {
		return SwapSides{}, err
	}

	switch {
	case s1 == StatusSold && s2 == StatusSold:
		return SwapSides{Kind: SwapCustomerToCustomer, Sold: group1, Other: group2}, nil
	case s1 == StatusSold:
		return SwapSides{Kind: SwapCustomerToInventory, Sold: group1, Other: group2}, nil
	case s2 == StatusSold:
		return SwapSides{Kind: SwapCustomerToInventory, Sold: group2, Other: group1}, nil
	}
	return SwapSides{}, shared.InvalidStatef("swapping two groups of available products records nothing; one side must be sold")
}

func groupStatus(group []*Product, n int) (ProductStatus, error) {
	status := group[0].Status
	for _, p := range group {
		if p.Status != StatusSold && p.Status != StatusAvailable {
			return "", shared.InvalidStatef("product %s in group %d is %s; swaps accept only sold or available products", p.ID, n, p.Status)
		}
		if p.Status != status {
			return "", shared.InvalidStatef("group %d mixes %s and %s products (product %s)", n, status, p.Status, p.ID)
		}
	}
	return status, nil
}

// SaleRewrite is the item-level change of one Sale caused by a swap
type SaleRewrite struct {
	Updated []TransactionItem
	Deleted []uuid.UUID
	Added   []TransactionItem
	// Repriced lists the sales whose item set, and so total, changed
	Repriced []uuid.UUID
}

func (r *SaleRewrite) reprice(saleID uuid.UUID) {
	for _, id := range r.Repriced {
		if id == saleID {
			return
		}
	}
	r.Repriced = append(r.Repriced, saleID)
}

// PlanSaleRewrite redirects the sale items of outgoing units to incoming
// units, index-aligned. saleItems maps each outgoing product to the item of
// its latest Sale.
//
// Excess outgoing items are deleted. Excess incoming units get new items on
// the Sale of the first outgoing unit, recording that first unit as their
// original product.
func PlanSaleRewrite(outgoing, incoming []*Product, saleItems map[uuid.UUID]TransactionItem) (SaleRewrite, error) {
	var plan SaleRewrite
	for _, p := range outgoing {
		if _, ok := saleItems[p.ID]; !ok {
			return plan, shared.NotFoundf("no sale record found for sold product %s", p.ID)
		}
	}

	n := min(len(outgoing), len(incoming))
	for i := 0; i < n; i++ {
		item := saleItems[outgoing[i].ID]
		item.RewriteForSwap(incoming[i].ID)
		plan.Updated = append(plan.Updated, item)
	}
	for _, p := range outgoing[n:] {
		plan.Deleted = append(plan.Deleted, saleItems[p.ID].ID)
		plan.reprice(saleItems[p.ID].TransactionID)
	}
	if len(incoming) > n {
		anchor := saleItems[outgoing[0].ID]
		original := outgoing[0].ID
		plan.reprice(anchor.TransactionID)
		for _, p := range incoming[n:] {
			orig := original
			plan.Added = append(plan.Added, TransactionItem{
				ID:                uuid.New(),
				TransactionID:     anchor.TransactionID,
				ProductID:         p.ID,
				PriceAtTime:       p.LastPrice,
				Swapped:           true,
				OriginalProductID: &orig,
			})
		}
	}
	return plan, nil
}
