package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DateFormat is the ISO-8601 day format used throughout the ledger.
const DateFormat = "2006-01-02"

// Amount is a monetary value: an exact decimal number and a currency code.
type Amount struct {
	Number   decimal.Decimal
	Currency string
}

// NewAmount creates an Amount from a decimal string, rejecting malformed input.
func NewAmount(number, currency string) (Amount, error) {
	n, err := decimal.NewFromString(number)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid decimal value %q: %w", number, err)
	}
	return Amount{Number: n, Currency: currency}, nil
}

// FormatDecimal renders d preserving its scale, so a parsed "3000.00"
// stays "3000.00". Never scientific notation.
func FormatDecimal(d decimal.Decimal) string {
	if d.Exponent() < 0 {
		return d.StringFixed(-d.Exponent())
	}
	return d.String()
}

// String renders the amount as "NUMBER CURRENCY", preserving scale.
func (a Amount) String() string {
	return FormatDecimal(a.Number) + " " + a.Currency
}

// Neg returns the negated amount.
func (a Amount) Neg() Amount {
	return Amount{Number: a.Number.Neg(), Currency: a.Currency}
}

// Cost is an optional cost basis attached to a posting.
type Cost struct {
	Number   decimal.Decimal
	Currency string
	Date     string // ISO-8601 or empty
	Label    string
}
