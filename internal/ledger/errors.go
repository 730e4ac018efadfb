package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrTxnNotFound means no transaction carries the requested txn_id.
	ErrTxnNotFound = errors.New("transaction not found")
	// ErrTxnInvalid marks transaction-level validation failures: unbalanced
	// postings, duplicate ids, missing line metadata.
	ErrTxnInvalid = errors.New("invalid transaction")
	// ErrLedgerInvalid marks candidate ledger text that fails re-validation.
	ErrLedgerInvalid = errors.New("ledger validation failed")
)

// LoadError reports that the ledger file could not be read or parsed at
// all. A previously loaded snapshot, if any, stays authoritative.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading ledger %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// TxnValidationError rejects a single mutation request before any
// filesystem effect.
type TxnValidationError struct {
	Reason string
}

func (e *TxnValidationError) Error() string { return e.Reason }

func (e *TxnValidationError) Is(target error) bool { return target == ErrTxnInvalid }

// ValidationError reports that a candidate ledger text failed the
// pre-commit re-parse. The mutation that produced the text is aborted.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger validation failed: %s", joinProblems(e.Problems))
}

func (e *ValidationError) Is(target error) bool { return target == ErrLedgerInvalid }

func joinProblems(problems []string) string {
	out := ""
	for i, p := range problems {
		if i > 0 {
			out += "; "
		}
		out += p
	}
	return out
}
