package ledger

import (
	"sort"
	"strings"
	"time"

	"beanbook/internal/domain"
)

// Balance sums postings inside the requested date window into per-account
// inventories plus a grand total, optionally restricted to account prefixes
// and converted to a target currency as of the window's end (or as-of)
// date. The Rollup flag is reserved and currently has no effect.
func (m *Manager) Balance(req BalanceRequest) (*BalanceResult, error) {
	snap, err := m.Snapshot(false)
	if err != nil {
		return nil, err
	}

	balances := map[string]*domain.Inventory{}
	total := domain.NewInventory()

	for _, entry := range filterByDate(snap.Entries, req.StartDate, req.EndDate, req.AtDate) {
		txn, ok := entry.(*domain.Transaction)
		if !ok {
			continue
		}
		for _, post := range txn.Postings {
			if len(req.Accounts) > 0 && !accountMatches(post.Account, req.Accounts, req.IncludeChildren) {
				continue
			}
			if balances[post.Account] == nil {
				balances[post.Account] = domain.NewInventory()
			}
			balances[post.Account].Add(post.Units)
			total.Add(post.Units)
		}
	}

	asOf := req.EndDate
	if asOf.IsZero() {
		asOf = req.AtDate
	}

	names := make([]string, 0, len(balances))
	for name := range balances {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &BalanceResult{Balances: make([]AccountBalance, 0, len(names))}
	for _, name := range names {
		result.Balances = append(result.Balances, AccountBalance{
			Account: name,
			Balance: toAmountValues(snap.Prices.Convert(balances[name], req.ConvertTo, asOf)),
		})
	}
	result.Total = toAmountValues(snap.Prices.Convert(total, req.ConvertTo, asOf))
	if !asOf.IsZero() {
		result.AsOf = asOf.Format(domain.DateFormat)
	}
	return result, nil
}

// IncomeSheet sums postings under the canonical Income: and Expenses:
// roots over a mandatory date window. Income positions are conventionally
// negative and expenses positive; Net is their arithmetic sum.
func (m *Manager) IncomeSheet(req IncomeSheetRequest) (*IncomeSheetResult, error) {
	snap, err := m.Snapshot(false)
	if err != nil {
		return nil, err
	}

	income := map[string]*domain.Inventory{}
	expenses := map[string]*domain.Inventory{}

	for _, entry := range filterByDate(snap.Entries, req.StartDate, req.EndDate, time.Time{}) {
		txn, ok := entry.(*domain.Transaction)
		if !ok {
			continue
		}
		for _, post := range txn.Postings {
			switch {
			case strings.HasPrefix(post.Account, "Income:"):
				if income[post.Account] == nil {
					income[post.Account] = domain.NewInventory()
				}
				income[post.Account].Add(post.Units)
			case strings.HasPrefix(post.Account, "Expenses:"):
				if expenses[post.Account] == nil {
					expenses[post.Account] = domain.NewInventory()
				}
				expenses[post.Account].Add(post.Units)
			}
		}
	}

	net := domain.NewInventory()
	result := &IncomeSheetResult{
		Income:   categorize(income, snap.Prices, req.ConvertTo, req.EndDate, net),
		Expenses: categorize(expenses, snap.Prices, req.ConvertTo, req.EndDate, net),
	}
	result.Net = toAmountValues(snap.Prices.Convert(net, req.ConvertTo, req.EndDate))
	return result, nil
}

// categorize flattens per-account inventories into sorted categories and
// merges every position into net along the way.
func categorize(byAccount map[string]*domain.Inventory, prices *domain.PriceIndex, convertTo string, asOf time.Time, net *domain.Inventory) []IncomeCategory {
	names := make([]string, 0, len(byAccount))
	for name := range byAccount {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]IncomeCategory, 0, len(names))
	for _, name := range names {
		net.AddInventory(byAccount[name])
		out = append(out, IncomeCategory{
			Account: name,
			Amount:  toAmountValues(prices.Convert(byAccount[name], convertTo, asOf)),
		})
	}
	return out
}

// filterByDate keeps directives inside the inclusive start/end window. The
// at date applies only when end is absent; undated directives pass through.
func filterByDate(entries []domain.Directive, start, end, at time.Time) []domain.Directive {
	out := make([]domain.Directive, 0, len(entries))
	for _, entry := range entries {
		when := entry.Date()
		if !when.IsZero() {
			if !start.IsZero() && when.Before(start) {
				continue
			}
			if !end.IsZero() && when.After(end) {
				continue
			}
			if end.IsZero() && !at.IsZero() && when.After(at) {
				continue
			}
		}
		out = append(out, entry)
	}
	return out
}

func toAmountValues(amounts []domain.Amount) []AmountValue {
	out := make([]AmountValue, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, AmountValue{Number: domain.FormatDecimal(a.Number), Currency: a.Currency})
	}
	return out
}
