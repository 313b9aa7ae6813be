package ledger

import "strings"

// Operation is a product-level state change issued by the engine.
// Each operation carries its own allowed source statuses and target.
type Operation int

const (
	OpSale Operation = iota + 1
	OpManufacturerOrder
	OpBuyback
	OpFulfillment
	OpSellBack
	OpManufacturerReceive
	// OpSwapReturn takes a customer's unit back into inventory during a swap
	OpSwapReturn
	// OpSwapIssue hands an inventory unit to a customer during a swap
	OpSwapIssue
)

type transition struct {
	name    string
	from    []ProductStatus // nil means any status
	to      ProductStatus
	guard   func(p *Product) bool
	guardOn string
}

var customerHeld = []ProductStatus{
	StatusSold,
	StatusOrdered,
	StatusInTransit,
	StatusReceivedFromManufacturer,
}

var transitions = map[Operation]transition{
	OpSale: {
		name: "sale",
		from: []ProductStatus{StatusAvailable},
		to:   StatusSold,
	},
	OpManufacturerOrder: {
		name:    "manufacturer order",
		to:      StatusOrdered,
		guard:   func(p *Product) bool { return !p.IsOrdered },
		guardOn: "no open manufacturer order",
	},
	OpBuyback: {
		name: "buyback",
		from: customerHeld,
		to:   StatusAvailable,
	},
	OpFulfillment: {
		name: "fulfillment",
		from: customerHeld,
		to:   StatusFulfilled,
	},
	OpSellBack: {
		name: "sell-back",
		from: []ProductStatus{
			StatusAvailable,
			StatusOrdered,
			StatusInTransit,
			StatusReceivedFromManufacturer,
			StatusSold,
		},
		to: StatusSoldBackToManufacturer,
	},
	OpManufacturerReceive: {
		name: "manufacturer receive",
		from: []ProductStatus{
			StatusOrdered,
			StatusSold,
			StatusAvailable,
			StatusInTransit,
		},
		to:      StatusReceivedFromManufacturer,
		guard:   func(p *Product) bool { return p.IsOrdered && !p.IsDelivered },
		guardOn: "an open, undelivered manufacturer order",
	},
	OpSwapReturn: {
		name: "swap return",
		from: []ProductStatus{StatusSold},
		to:   StatusAvailable,
	},
	OpSwapIssue: {
		name: "swap issue",
		from: []ProductStatus{StatusAvailable},
		to:   StatusSold,
	},
}

// String returns the operation name
func (o Operation) String() string {
	if t, ok := transitions[o]; ok {
		return t.name
	}
	return "unknown operation"
}

// Allows reports whether p may undergo the operation
func (o Operation) Allows(p *Product) bool {
	t, ok := transitions[o]
	if !ok {
		return false
	}
	if t.guard != nil && !t.guard(p) {
		return false
	}
	if t.from == nil {
		return true
	}
	for _, s := range t.from {
		if s == p.Status {
			return true
		}
	}
	return false
}

// Target returns the status a product ends in after the operation
func (o Operation) Target(current ProductStatus) ProductStatus {
	if t, ok := transitions[o]; ok {
		return t.to
	}
	return current
}

// Sources lists the allowed source statuses; nil means any
func (o Operation) Sources() []ProductStatus {
	return transitions[o].from
}

func (o Operation) describeSources() string {
	t := transitions[o]
	var parts []string
	if t.from == nil {
		parts = append(parts, "any status")
	} else {
		names := make([]string, len(t.from))
		for i, s := range t.from {
			names[i] = string(s)
		}
		parts = append(parts, "status "+strings.Join(names, "|"))
	}
	if t.guardOn != "" {
		parts = append(parts, t.guardOn)
	}
	return strings.Join(parts, " and ")
}
