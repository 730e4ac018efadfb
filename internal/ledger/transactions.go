package ledger

import (
	"fmt"
	"sort"
	"strings"

	"beanbook/internal/domain"
)

// ListTransactions filters the snapshot's transactions by date window,
// case-insensitive payee/narration substrings, required tags, exact
// metadata values and account prefixes (descendants always included), then
// paginates. Total reflects all matches regardless of pagination.
func (m *Manager) ListTransactions(req ListTransactionsRequest) (*ListTransactionsResult, error) {
	snap, err := m.Snapshot(false)
	if err != nil {
		return nil, err
	}

	var matches []*domain.Transaction
	for _, entry := range snap.Entries {
		txn, ok := entry.(*domain.Transaction)
		if !ok {
			continue
		}
		if !req.StartDate.IsZero() && txn.When.Before(req.StartDate) {
			continue
		}
		if !req.EndDate.IsZero() && txn.When.After(req.EndDate) {
			continue
		}
		if req.Payee != "" && !strings.Contains(strings.ToLower(txn.Payee), strings.ToLower(req.Payee)) {
			continue
		}
		if req.Narration != "" && !strings.Contains(strings.ToLower(txn.Narration), strings.ToLower(req.Narration)) {
			continue
		}
		if len(req.Tags) > 0 && !tagsSubset(req.Tags, txn.Tags) {
			continue
		}
		if len(req.Metadata) > 0 && !metadataMatches(txn.Meta, req.Metadata) {
			continue
		}
		if len(req.Accounts) > 0 && !anyPostingMatches(txn.Postings, req.Accounts) {
			continue
		}
		matches = append(matches, txn)
	}

	total := len(matches)
	start := req.Offset
	if start > total {
		start = total
	}
	selected := matches[start:]
	if req.Limit != nil && *req.Limit < len(selected) {
		selected = selected[:*req.Limit]
	}

	views := make([]TransactionView, 0, len(selected))
	for _, txn := range selected {
		views = append(views, toTransactionView(txn, req.IncludePostings))
	}
	return &ListTransactionsResult{Total: total, Transactions: views}, nil
}

// FindTransaction resolves a txn_id to exactly one transaction. Zero
// matches is ErrTxnNotFound; more than one is a data-integrity fault that
// the mutation invariants should make impossible.
func (m *Manager) FindTransaction(txnID string) (*TransactionView, error) {
	snap, err := m.Snapshot(false)
	if err != nil {
		return nil, err
	}
	txn, err := findTxn(snap.Entries, txnID)
	if err != nil {
		return nil, err
	}
	view := toTransactionView(txn, true)
	return &view, nil
}

func findTxn(entries []domain.Directive, txnID string) (*domain.Transaction, error) {
	var matches []*domain.Transaction
	for _, entry := range entries {
		if txn, ok := entry.(*domain.Transaction); ok && txn.TxnID() == txnID {
			matches = append(matches, txn)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: txn_id %q", ErrTxnNotFound, txnID)
	case 1:
		return matches[0], nil
	default:
		return nil, &TxnValidationError{Reason: fmt.Sprintf("multiple transactions share txn_id %q", txnID)}
	}
}

func txnExists(entries []domain.Directive, txnID string) bool {
	for _, entry := range entries {
		if txn, ok := entry.(*domain.Transaction); ok && txn.TxnID() == txnID {
			return true
		}
	}
	return false
}

func tagsSubset(required, have []string) bool {
	set := map[string]bool{}
	for _, tag := range have {
		set[tag] = true
	}
	for _, tag := range required {
		if !set[tag] {
			return false
		}
	}
	return true
}

func metadataMatches(meta, expected map[string]string) bool {
	for key, want := range expected {
		if meta[key] != want {
			return false
		}
	}
	return true
}

func anyPostingMatches(postings []domain.Posting, prefixes []string) bool {
	for _, post := range postings {
		if accountMatches(post.Account, prefixes, true) {
			return true
		}
	}
	return false
}

func toTransactionView(txn *domain.Transaction, includePostings bool) TransactionView {
	tags := append([]string(nil), txn.Tags...)
	sort.Strings(tags)
	if tags == nil {
		tags = []string{}
	}
	view := TransactionView{
		TxnID:     txn.TxnID(),
		Date:      txn.When.Format(domain.DateFormat),
		Flag:      txn.Flag,
		Payee:     txn.Payee,
		Narration: txn.Narration,
		Tags:      tags,
		Meta:      domain.CleanMeta(txn.Meta),
	}
	if !includePostings {
		return view
	}
	for _, post := range txn.Postings {
		pv := PostingView{
			Account: post.Account,
			Units:   AmountValue{Number: domain.FormatDecimal(post.Units.Number), Currency: post.Units.Currency},
			Meta:    domain.CleanMeta(post.Meta),
		}
		if post.Cost != nil {
			pv.Cost = &CostView{
				Number:   domain.FormatDecimal(post.Cost.Number),
				Currency: post.Cost.Currency,
				Date:     post.Cost.Date,
				Label:    post.Cost.Label,
			}
		}
		if post.PriceAnno != nil {
			pv.Price = &AmountValue{Number: domain.FormatDecimal(post.PriceAnno.Number), Currency: post.PriceAnno.Currency}
		}
		view.Postings = append(view.Postings, pv)
	}
	return view
}
