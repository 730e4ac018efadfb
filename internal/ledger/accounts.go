package ledger

import (
	"sort"
	"strings"

	"beanbook/internal/domain"
)

// ListAccounts scans the snapshot once and builds one entry per account:
// open/close dates, declared plus observed currencies, booking method and
// cleaned metadata. Closed accounts are excluded unless requested. Output
// is sorted by account name.
func (m *Manager) ListAccounts(includeClosed bool) (*AccountsResult, error) {
	snap, err := m.Snapshot(false)
	if err != nil {
		return nil, err
	}

	opens := map[string]*domain.Open{}
	closes := map[string]*domain.Close{}
	currencies := map[string]map[string]bool{}

	addCurrency := func(account, cur string) {
		if currencies[account] == nil {
			currencies[account] = map[string]bool{}
		}
		currencies[account][cur] = true
	}

	for _, entry := range snap.Entries {
		switch d := entry.(type) {
		case *domain.Open:
			opens[d.Account] = d
			for _, cur := range d.Currencies {
				addCurrency(d.Account, cur)
			}
		case *domain.Close:
			closes[d.Account] = d
		case *domain.Transaction:
			for _, post := range d.Postings {
				addCurrency(post.Account, post.Units.Currency)
			}
		}
	}

	names := map[string]bool{}
	for name := range opens {
		names[name] = true
	}
	for name := range closes {
		names[name] = true
	}
	for name := range currencies {
		names[name] = true
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	infos := make([]AccountInfo, 0, len(sorted))
	for _, name := range sorted {
		closeEntry, closed := closes[name]
		if closed && !includeClosed {
			continue
		}
		info := AccountInfo{
			Name: name,
			Type: accountType(name),
			Meta: map[string]string{},
		}
		if open := opens[name]; open != nil {
			info.OpenDate = open.When.Format(domain.DateFormat)
			info.Booking = open.Booking
			info.Meta = domain.CleanMeta(open.Meta)
		}
		if closed {
			info.CloseDate = closeEntry.When.Format(domain.DateFormat)
		}
		curs := make([]string, 0, len(currencies[name]))
		for cur := range currencies[name] {
			curs = append(curs, cur)
		}
		sort.Strings(curs)
		info.Currencies = curs
		infos = append(infos, info)
	}

	return &AccountsResult{Accounts: infos, Errors: snap.ErrorMessages()}, nil
}

// accountType is the account's root component (Assets, Liabilities,
// Income, Expenses, Equity, ...).
func accountType(name string) string {
	if i := strings.Index(name, ":"); i > 0 {
		return name[:i]
	}
	return name
}

// accountMatches reports whether account equals one of the prefixes, or is
// a descendant of one when includeChildren is set.
func accountMatches(account string, prefixes []string, includeChildren bool) bool {
	for _, prefix := range prefixes {
		if account == prefix {
			return true
		}
		if includeChildren && strings.HasPrefix(account, prefix+":") {
			return true
		}
	}
	return false
}
