package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type pricePoint struct {
	when time.Time
	rate decimal.Decimal
}

// PriceIndex holds historical market rates extracted from Price directives
// and answers as-of rate lookups for currency conversion.
type PriceIndex struct {
	series map[[2]string][]pricePoint
}

// BuildPriceIndex collects every Price directive into a per-pair series
// sorted by date.
func BuildPriceIndex(entries []Directive) *PriceIndex {
	idx := &PriceIndex{series: map[[2]string][]pricePoint{}}
	for _, entry := range entries {
		p, ok := entry.(*Price)
		if !ok {
			continue
		}
		key := [2]string{p.Commodity, p.Rate.Currency}
		idx.series[key] = append(idx.series[key], pricePoint{when: p.When, rate: p.Rate.Number})
	}
	for key := range idx.series {
		s := idx.series[key]
		sort.Slice(s, func(i, j int) bool { return s[i].when.Before(s[j].when) })
	}
	return idx
}

// Rate returns the latest rate from one currency to another on or before
// asOf (zero asOf means the latest known rate). When no direct series
// exists, the inverse series is tried. ok is false when no rate is known.
func (idx *PriceIndex) Rate(from, to string, asOf time.Time) (decimal.Decimal, bool) {
	if rate, ok := idx.lookup(from, to, asOf); ok {
		return rate, true
	}
	if inv, ok := idx.lookup(to, from, asOf); ok && !inv.IsZero() {
		return decimal.NewFromInt(1).DivRound(inv, 12), true
	}
	return decimal.Decimal{}, false
}

func (idx *PriceIndex) lookup(from, to string, asOf time.Time) (decimal.Decimal, bool) {
	series := idx.series[[2]string{from, to}]
	var rate decimal.Decimal
	found := false
	for _, p := range series {
		if !asOf.IsZero() && p.when.After(asOf) {
			break
		}
		rate = p.rate
		found = true
	}
	return rate, found
}

// Convert converts each inventory position into target as of the given
// date. Positions with no known rate are passed through unchanged, so a
// partially convertible inventory still yields a complete answer.
func (idx *PriceIndex) Convert(inv *Inventory, target string, asOf time.Time) []Amount {
	if target == "" {
		return inv.Amounts()
	}
	converted := NewInventory()
	for _, a := range inv.Amounts() {
		if a.Currency == target {
			converted.Add(a)
			continue
		}
		rate, ok := idx.Rate(a.Currency, target, asOf)
		if !ok {
			converted.Add(a)
			continue
		}
		converted.Add(Amount{Number: a.Number.Mul(rate), Currency: target})
	}
	return converted.Amounts()
}
