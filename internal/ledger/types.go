package ledger

import "time"

// AmountValue is a monetary value in transport-neutral form: a decimal
// string plus a currency code. Never a binary float.
type AmountValue struct {
	Number   string `json:"number"`
	Currency string `json:"currency"`
}

// AccountInfo describes one account for listing purposes.
type AccountInfo struct {
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	OpenDate   string            `json:"open_date,omitempty"`
	CloseDate  string            `json:"close_date,omitempty"`
	Currencies []string          `json:"currencies"`
	Booking    string            `json:"booking,omitempty"`
	Meta       map[string]string `json:"meta"`
}

// AccountsResult is the outcome of listing accounts. Errors carries the
// snapshot's validation problems as data, not as a failure.
type AccountsResult struct {
	Accounts []AccountInfo `json:"accounts"`
	Errors   []string      `json:"errors"`
}

// BalanceRequest selects and shapes a balance computation. AtDate and the
// start/end window are mutually exclusive; AtDate applies only when EndDate
// is absent. Rollup is accepted but currently reserved with no effect.
type BalanceRequest struct {
	Accounts        []string
	IncludeChildren bool
	StartDate       time.Time
	EndDate         time.Time
	AtDate          time.Time
	ConvertTo       string
	Rollup          bool
}

// AccountBalance is one account's converted positions.
type AccountBalance struct {
	Account string        `json:"account"`
	Balance []AmountValue `json:"balance"`
}

// BalanceResult is the outcome of a balance computation.
type BalanceResult struct {
	Balances []AccountBalance `json:"balances"`
	Total    []AmountValue    `json:"total"`
	AsOf     string           `json:"as_of,omitempty"`
}

// IncomeSheetRequest selects a mandatory date window for an income sheet.
type IncomeSheetRequest struct {
	StartDate time.Time
	EndDate   time.Time
	ConvertTo string
}

// IncomeCategory is one income or expense account's summed positions.
type IncomeCategory struct {
	Account string        `json:"account"`
	Amount  []AmountValue `json:"amount"`
}

// IncomeSheetResult is the outcome of an income sheet computation. Income
// positions are conventionally negative and expenses positive; Net is
// their arithmetic sum.
type IncomeSheetResult struct {
	Income   []IncomeCategory `json:"income"`
	Expenses []IncomeCategory `json:"expenses"`
	Net      []AmountValue    `json:"net"`
}

// ListTransactionsRequest filters and paginates the transaction listing.
// A nil Limit returns all matches after Offset.
type ListTransactionsRequest struct {
	StartDate       time.Time
	EndDate         time.Time
	Accounts        []string
	Payee           string
	Narration       string
	Tags            []string
	Metadata        map[string]string
	Limit           *int
	Offset          int
	IncludePostings bool
}

// PostingView is one posting in transport-neutral form.
type PostingView struct {
	Account string            `json:"account"`
	Units   AmountValue       `json:"units"`
	Cost    *CostView         `json:"cost,omitempty"`
	Price   *AmountValue      `json:"price,omitempty"`
	Meta    map[string]string `json:"meta"`
}

// CostView is a posting's cost basis in transport-neutral form.
type CostView struct {
	Number   string `json:"number"`
	Currency string `json:"currency"`
	Date     string `json:"date,omitempty"`
	Label    string `json:"label,omitempty"`
}

// TransactionView is one transaction in transport-neutral form.
type TransactionView struct {
	TxnID     string            `json:"txn_id,omitempty"`
	Date      string            `json:"date"`
	Flag      string            `json:"flag,omitempty"`
	Payee     string            `json:"payee,omitempty"`
	Narration string            `json:"narration,omitempty"`
	Tags      []string          `json:"tags"`
	Meta      map[string]string `json:"meta"`
	Postings  []PostingView     `json:"postings,omitempty"`
}

// ListTransactionsResult carries the total match count independent of
// pagination plus the selected page.
type ListTransactionsResult struct {
	Total        int               `json:"total"`
	Transactions []TransactionView `json:"transactions"`
}

// PostingInput is one posting leg of an insert request. Amounts are decimal
// strings.
type PostingInput struct {
	Account       string            `json:"account"`
	Amount        string            `json:"amount"`
	Currency      string            `json:"currency"`
	CostAmount    string            `json:"cost_amount,omitempty"`
	CostCurrency  string            `json:"cost_currency,omitempty"`
	CostDate      string            `json:"cost_date,omitempty"`
	CostLabel     string            `json:"cost_label,omitempty"`
	PriceAmount   string            `json:"price_amount,omitempty"`
	PriceCurrency string            `json:"price_currency,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// InsertTransactionRequest describes a transaction to append to the ledger.
// A nil DryRun falls back to the configured default.
type InsertTransactionRequest struct {
	Date      time.Time
	Flag      string
	Payee     string
	Narration string
	Postings  []PostingInput
	Tags      []string
	Meta      map[string]string
	TxnID     string
	DryRun    *bool
}

// MutationResult is the outcome of an insert or remove: the affected
// txn_id, whether the filesystem was touched, and a unified diff of the
// textual change.
type MutationResult struct {
	TxnID  string `json:"txn_id"`
	DryRun bool   `json:"dry_run"`
	Diff   string `json:"diff"`
}

// RemoveTransactionRequest identifies a transaction to delete from the
// ledger text.
type RemoveTransactionRequest struct {
	TxnID  string
	DryRun *bool
}

// QueryResult is a tabular query outcome with transport-neutral cells.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NLResult is a natural-language query outcome, including the query the
// question was translated to.
type NLResult struct {
	Query   string   `json:"query"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}
