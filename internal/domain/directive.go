package domain

import "time"

// Directive is one parsed statement from the ledger file. The concrete
// variants are Open, Close, Transaction, Price and Other; consumers switch
// exhaustively over that closed set.
type Directive interface {
	// Date is the directive's effective date at day granularity.
	Date() time.Time
	// SourceLine is the 1-based line where the directive starts,
	// or 0 when the directive was built in memory.
	SourceLine() int
}

// DirectiveBase carries the fields shared by every directive variant.
type DirectiveBase struct {
	When time.Time
	Line int
}

func (b DirectiveBase) Date() time.Time { return b.When }
func (b DirectiveBase) SourceLine() int { return b.Line }

// Open declares an account, optionally constraining its currencies.
type Open struct {
	DirectiveBase
	Account    string
	Currencies []string
	Booking    string
	Meta       map[string]string
}

// Close marks an account as closed from its date onward.
type Close struct {
	DirectiveBase
	Account string
}

// Price records a market rate: one unit of Commodity costs Rate.
type Price struct {
	DirectiveBase
	Commodity string
	Rate      Amount
}

// Transaction is a dated double-entry record with its postings.
type Transaction struct {
	DirectiveBase
	Flag      string
	Payee     string
	Narration string
	Tags      []string
	Meta      map[string]string
	Postings  []Posting
}

// Other is any directive this system does not interpret (option, plugin,
// balance assertions, ...). The raw line is kept so nothing is lost.
type Other struct {
	DirectiveBase
	Raw string
}

// Posting is one account leg of a transaction.
type Posting struct {
	Account   string
	Units     Amount
	Cost      *Cost
	PriceAnno *Amount
	Meta      map[string]string
}

// Weight is the value a posting contributes when checking that a
// transaction balances: cost conversion when a cost basis is attached,
// price conversion when a price annotation is attached, the raw units
// otherwise.
func (p Posting) Weight() Amount {
	if p.Cost != nil {
		return Amount{Number: p.Units.Number.Mul(p.Cost.Number), Currency: p.Cost.Currency}
	}
	if p.PriceAnno != nil {
		return Amount{Number: p.Units.Number.Mul(p.PriceAnno.Number), Currency: p.PriceAnno.Currency}
	}
	return p.Units
}

// MetaTxnID is the metadata key holding a transaction's stable identifier.
const MetaTxnID = "txn_id"

// Internal bookkeeping metadata keys, stripped from all outputs.
const (
	MetaFilename = "filename"
	MetaLineno   = "lineno"
)

// TxnID returns the transaction's stable identifier, or "" when absent.
func (t *Transaction) TxnID() string {
	return t.Meta[MetaTxnID]
}

// CleanMeta copies a metadata map with internal bookkeeping keys removed.
func CleanMeta(meta map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range meta {
		if k == MetaFilename || k == MetaLineno {
			continue
		}
		out[k] = v
	}
	return out
}
