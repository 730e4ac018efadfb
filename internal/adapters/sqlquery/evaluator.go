// Package sqlquery implements the ports.QueryEvaluator contract on SQLite:
// a snapshot's postings are loaded into an in-memory table and queried with
// read-only SELECT statements. A custom dsum aggregate sums decimal strings
// exactly, so monetary results never pass through binary floating point.
package sqlquery

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"beanbook/internal/domain"
	"beanbook/internal/ports"
)

const driverName = "sqlite3_beanbook"

var registerDriver sync.Once

// dsum is an exact-decimal SUM over TEXT amounts.
type dsum struct {
	total decimal.Decimal
}

func (d *dsum) Step(number string) {
	n, err := decimal.NewFromString(number)
	if err != nil {
		return
	}
	d.total = d.total.Add(n)
}

func (d *dsum) Done() string { return domain.FormatDecimal(d.total) }

// Evaluator runs SQL queries over a snapshot's postings.
type Evaluator struct{}

// New returns a ready evaluator.
func New() *Evaluator {
	registerDriver.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterAggregator("dsum", func() *dsum { return &dsum{} }, true)
			},
		})
	})
	return &Evaluator{}
}

var _ ports.QueryEvaluator = (*Evaluator)(nil)

const schema = `
CREATE TABLE postings (
	txn_id    TEXT,
	date      TEXT NOT NULL,
	flag      TEXT,
	payee     TEXT,
	narration TEXT,
	account   TEXT NOT NULL,
	number    TEXT NOT NULL,
	currency  TEXT NOT NULL,
	tags      TEXT
);
CREATE INDEX idx_postings_account ON postings(account);
CREATE INDEX idx_postings_date ON postings(date);
`

// Evaluate loads the directives' postings into a fresh in-memory database
// and runs the query. Only single SELECT statements are accepted.
func (e *Evaluator) Evaluate(entries []domain.Directive, query string) ([]string, [][]any, error) {
	if !isSelect(query) {
		return nil, nil, fmt.Errorf("only SELECT queries are supported")
	}

	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, nil, fmt.Errorf("opening query database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return nil, nil, fmt.Errorf("preparing query schema: %w", err)
	}
	if err := loadPostings(db, entries); err != nil {
		return nil, nil, err
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]any
	for rows.Next() {
		cells := make([]any, len(columns))
		scan := make([]any, len(columns))
		for i := range cells {
			scan[i] = &cells[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, nil, err
		}
		out = append(out, cells)
	}
	return columns, out, rows.Err()
}

func loadPostings(db *sql.DB, entries []domain.Directive) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO postings
		(txn_id, date, flag, payee, narration, account, number, currency, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, entry := range entries {
		txn, ok := entry.(*domain.Transaction)
		if !ok {
			continue
		}
		tags := strings.Join(txn.Tags, " ")
		for _, post := range txn.Postings {
			_, err := stmt.Exec(
				txn.TxnID(),
				txn.When.Format(domain.DateFormat),
				txn.Flag,
				txn.Payee,
				txn.Narration,
				post.Account,
				domain.FormatDecimal(post.Units.Number),
				post.Units.Currency,
				tags,
			)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("loading postings: %w", err)
			}
		}
	}
	return tx.Commit()
}

func isSelect(query string) bool {
	trimmed := strings.TrimSpace(query)
	if i := strings.IndexAny(trimmed, " \t\n"); i > 0 {
		trimmed = trimmed[:i]
	}
	return strings.EqualFold(trimmed, "SELECT")
}
