package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Inventory accumulates currency positions by exact decimal summation.
type Inventory struct {
	positions map[string]decimal.Decimal
}

// NewInventory returns an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{positions: map[string]decimal.Decimal{}}
}

// Add sums an amount into the inventory.
func (inv *Inventory) Add(a Amount) {
	inv.positions[a.Currency] = inv.positions[a.Currency].Add(a.Number)
}

// AddInventory merges every position of other into the inventory.
func (inv *Inventory) AddInventory(other *Inventory) {
	for cur, n := range other.positions {
		inv.positions[cur] = inv.positions[cur].Add(n)
	}
}

// IsEmpty reports whether every position nets to exactly zero.
func (inv *Inventory) IsEmpty() bool {
	for _, n := range inv.positions {
		if !n.IsZero() {
			return false
		}
	}
	return true
}

// Amounts returns the non-zero positions sorted by currency.
func (inv *Inventory) Amounts() []Amount {
	out := make([]Amount, 0, len(inv.positions))
	for cur, n := range inv.positions {
		if n.IsZero() {
			continue
		}
		out = append(out, Amount{Number: n, Currency: cur})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
