package ledger

import (
	"time"

	"github.com/google/uuid"
)

// EventContext describes one transaction in a product's history
type EventContext struct {
	TransactionID   uuid.UUID
	TransactionCode string
	CreatedAt       time.Time
	CustomerID      *uuid.UUID
	CustomerName    string
}

// StatusInfo is the effective status of a product with the context a clerk
// needs to explain it
type StatusInfo struct {
	ProductID   uuid.UUID
	ProductCode string
	Status      ProductStatus
	Sale        *EventContext
	Buyback     *EventContext
	SwapReturn  *EventContext
}

// ProjectStatus computes the StatusInfo of product from its history.
// Entries for other products are ignored.
func ProjectStatus(product Product, history []HistoryEntry) StatusInfo {
	info := StatusInfo{
		ProductID:   product.ID,
		ProductCode: product.Code,
		Status:      product.Status,
	}

	var sale, buyback, swap, swapReturn *HistoryEntry
	for i := range history {
		h := &history[i]
		if h.ProductID != product.ID {
			continue
		}
		switch h.Kind {
		case HistorySale:
			sale = latest(sale, h)
		case HistoryBuyback:
			buyback = latest(buyback, h)
		case HistorySwap:
			swap = latest(swap, h)
		case HistorySwapReturn:
			swapReturn = latest(swapReturn, h)
		}
	}

	if sale != nil {
		info.Sale = toContext(sale)
	}
	if buyback != nil && buybackIsCurrent(product.Status, buyback, sale, swap) {
		info.Buyback = toContext(buyback)
	}
	if swapReturn != nil && swapReturnIsCurrent(product.Status, swapReturn, sale, buyback) {
		info.SwapReturn = toContext(swapReturn)
	}
	return info
}

// ProjectStatuses runs ProjectStatus for every product
func ProjectStatuses(products []Product, history []HistoryEntry) []StatusInfo {
	byProduct := make(map[uuid.UUID][]HistoryEntry, len(products))
	for _, h := range history {
		byProduct[h.ProductID] = append(byProduct[h.ProductID], h)
	}
	out := make([]StatusInfo, 0, len(products))
	for _, p := range products {
		out = append(out, ProjectStatus(p, byProduct[p.ID]))
	}
	return out
}

// A buyback stops being current once the unit is sold again or swapped
// after it.
func buybackIsCurrent(status ProductStatus, buyback, sale, swap *HistoryEntry) bool {
	if status == StatusSold {
		return false
	}
	if sale != nil && after(sale, buyback) {
		return false
	}
	if swap != nil && after(swap, buyback) {
		return false
	}
	return true
}

// A swap return is only the story of an available unit until a later sale
// or buyback replaces it.
func swapReturnIsCurrent(status ProductStatus, swapReturn, sale, buyback *HistoryEntry) bool {
	if status != StatusAvailable {
		return false
	}
	if sale != nil && after(sale, swapReturn) {
		return false
	}
	if buyback != nil && after(buyback, swapReturn) {
		return false
	}
	return true
}

func latest(cur, candidate *HistoryEntry) *HistoryEntry {
	if cur == nil || after(candidate, cur) {
		return candidate
	}
	return cur
}

// after orders by creation time, then by transaction code
func after(a, b *HistoryEntry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.TransactionCode > b.TransactionCode
}

func toContext(h *HistoryEntry) *EventContext {
	return &EventContext{
		TransactionID:   h.TransactionID,
		TransactionCode: h.TransactionCode,
		CreatedAt:       h.CreatedAt,
		CustomerID:      h.CustomerID,
		CustomerName:    h.CustomerName,
	}
}
