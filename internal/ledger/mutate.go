package ledger

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"

	"beanbook/internal/adapters/beanparse"
	"beanbook/internal/domain"
)

// InsertTransaction appends a transaction to the ledger following the
// build → render → verify → commit protocol. All validation happens before
// any filesystem effect; dry-run executes everything except the commit.
func (m *Manager) InsertTransaction(req InsertTransactionRequest) (*MutationResult, error) {
	snap, err := m.Snapshot(false)
	if err != nil {
		return nil, err
	}
	dryRun := m.cfg.Ledger.DryRunDefault
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}

	txnID := req.TxnID
	if txnID == "" {
		txnID = uuid.NewString()
	}
	if txnExists(snap.Entries, txnID) {
		return nil, &TxnValidationError{Reason: fmt.Sprintf("transaction with txn_id %q already exists", txnID)}
	}

	txn, err := buildTransaction(req, txnID)
	if err != nil {
		return nil, err
	}

	rendered := beanparse.FormatTransaction(txn)
	candidate := appendEntry(snap.Text, rendered)
	if err := m.validateText(candidate); err != nil {
		return nil, err
	}

	diff := unifiedDiff(snap.Text, candidate, filepath.Base(m.cfg.Ledger.Path))
	if dryRun {
		return &MutationResult{TxnID: txnID, DryRun: true, Diff: diff}, nil
	}

	if err := m.commit(candidate); err != nil {
		return nil, err
	}
	m.log.WithField("txn_id", txnID).Info("transaction inserted")
	return &MutationResult{TxnID: txnID, DryRun: false, Diff: diff}, nil
}

// RemoveTransaction deletes a transaction's textual block by its recorded
// source line, then re-validates and commits like InsertTransaction.
func (m *Manager) RemoveTransaction(req RemoveTransactionRequest) (*MutationResult, error) {
	snap, err := m.Snapshot(false)
	if err != nil {
		return nil, err
	}
	dryRun := m.cfg.Ledger.DryRunDefault
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}

	txn, err := findTxn(snap.Entries, req.TxnID)
	if err != nil {
		return nil, err
	}
	candidate, err := removeEntry(snap.Text, txn)
	if err != nil {
		return nil, err
	}
	if err := m.validateText(candidate); err != nil {
		return nil, err
	}

	diff := unifiedDiff(snap.Text, candidate, filepath.Base(m.cfg.Ledger.Path))
	if dryRun {
		return &MutationResult{TxnID: req.TxnID, DryRun: true, Diff: diff}, nil
	}

	if err := m.commit(candidate); err != nil {
		return nil, err
	}
	m.log.WithField("txn_id", req.TxnID).Info("transaction removed")
	return &MutationResult{TxnID: req.TxnID, DryRun: false, Diff: diff}, nil
}

// buildTransaction turns an insert request into a structured transaction,
// rejecting malformed amounts and postings whose raw units do not net to
// zero per currency. Cost and price annotations do not relax the check.
func buildTransaction(req InsertTransactionRequest, txnID string) (*domain.Transaction, error) {
	if req.Date.IsZero() {
		return nil, &TxnValidationError{Reason: "transaction date is required"}
	}
	if len(req.Postings) == 0 {
		return nil, &TxnValidationError{Reason: "transaction requires at least one posting"}
	}

	postings := make([]domain.Posting, 0, len(req.Postings))
	residual := domain.NewInventory()
	for _, input := range req.Postings {
		units, err := domain.NewAmount(input.Amount, input.Currency)
		if err != nil {
			return nil, &TxnValidationError{Reason: fmt.Sprintf("posting for %s: %v", input.Account, err)}
		}
		post := domain.Posting{
			Account: input.Account,
			Units:   units,
			Meta:    domain.CleanMeta(input.Meta),
		}
		if input.CostAmount != "" && input.CostCurrency != "" {
			cost, err := domain.NewAmount(input.CostAmount, input.CostCurrency)
			if err != nil {
				return nil, &TxnValidationError{Reason: fmt.Sprintf("posting cost for %s: %v", input.Account, err)}
			}
			post.Cost = &domain.Cost{
				Number:   cost.Number,
				Currency: cost.Currency,
				Date:     input.CostDate,
				Label:    input.CostLabel,
			}
		}
		if input.PriceAmount != "" && input.PriceCurrency != "" {
			price, err := domain.NewAmount(input.PriceAmount, input.PriceCurrency)
			if err != nil {
				return nil, &TxnValidationError{Reason: fmt.Sprintf("posting price for %s: %v", input.Account, err)}
			}
			post.PriceAnno = &price
		}
		residual.Add(post.Units)
		postings = append(postings, post)
	}
	if !residual.IsEmpty() {
		return nil, &TxnValidationError{Reason: "transaction postings must balance"}
	}

	meta := domain.CleanMeta(req.Meta)
	meta[domain.MetaTxnID] = txnID

	flag := req.Flag
	if flag == "" {
		flag = "*"
	}
	return &domain.Transaction{
		DirectiveBase: domain.DirectiveBase{When: req.Date},
		Flag:          flag,
		Payee:         req.Payee,
		Narration:     req.Narration,
		Tags:          append([]string(nil), req.Tags...),
		Meta:          meta,
		Postings:      postings,
	}, nil
}

// validateText re-parses candidate ledger text; any validation problem is
// fatal to the mutation that produced it.
func (m *Manager) validateText(text string) error {
	_, parseErrs, err := m.parser.Parse(text)
	if err != nil {
		return &LoadError{Path: m.cfg.Ledger.Path, Err: err}
	}
	if len(parseErrs) > 0 {
		problems := make([]string, 0, len(parseErrs))
		for _, pe := range parseErrs {
			problems = append(problems, pe.String())
		}
		return &ValidationError{Problems: problems}
	}
	return nil
}

// appendEntry adds rendered entry text to the ledger with exactly one
// separating blank line, keeping a single trailing newline.
func appendEntry(original, entry string) string {
	stripped := strings.TrimRight(original, " \t\n")
	if stripped == "" {
		return entry + "\n"
	}
	return stripped + "\n\n" + entry + "\n"
}

// removeEntry deletes the transaction's textual block: its first line, all
// following non-blank lines, and the blank separator lines after them. The
// file's original trailing-newline count is preserved.
func removeEntry(original string, txn *domain.Transaction) (string, error) {
	start := txn.SourceLine()
	if start <= 0 {
		return "", &TxnValidationError{Reason: "transaction is missing line metadata; cannot remove safely"}
	}

	trailing := len(original) - len(strings.TrimRight(original, "\n"))
	if trailing <= 0 {
		trailing = 1
	}
	lines := strings.Split(strings.TrimRight(original, "\n"), "\n")

	index := start - 1
	if index >= len(lines) {
		return "", &LoadError{Err: fmt.Errorf("transaction line %d is out of range", start)}
	}
	end := index
	for end < len(lines) && strings.TrimSpace(lines[end]) != "" {
		end++
	}
	for end < len(lines) && strings.TrimSpace(lines[end]) == "" {
		end++
	}

	kept := append(append([]string{}, lines[:index]...), lines[end:]...)
	body := strings.TrimRight(strings.Join(kept, "\n"), "\n")
	return body + strings.Repeat("\n", trailing), nil
}

// unifiedDiff renders a human-auditable diff between the prior and
// candidate ledger texts.
func unifiedDiff(before, after, name string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: name + " (before)",
		ToFile:   name + " (after)",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return strings.TrimRight(text, "\n")
}
