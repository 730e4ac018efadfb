package ledger

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beanbook/internal/adapters/beanparse"
	"beanbook/internal/adapters/sqlquery"
	"beanbook/internal/config"
	"beanbook/internal/domain"
	"beanbook/internal/ports"
)

// countingParser counts Parse calls so cache behavior is observable.
type countingParser struct {
	inner ports.Parser
	calls int
}

func (p *countingParser) Parse(text string) ([]domain.Directive, []ports.ParseError, error) {
	p.calls++
	return p.inner.Parse(text)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfigText(t *testing.T, text string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.beancount")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	cfg := &config.Config{}
	cfg.Ledger.Path = path
	cfg.Ledger.BackupDir = filepath.Join(dir, ".backups")
	cfg.Ledger.BackupRetention = 10
	cfg.Ledger.LockTimeout = 5
	cfg.NL.Enabled = true
	return cfg
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	data, err := os.ReadFile("testdata/example.beancount")
	require.NoError(t, err)
	return testConfigText(t, string(data))
}

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	return NewManager(cfg, beanparse.New(), sqlquery.New(), quietLogger())
}

func date(t *testing.T, value string) time.Time {
	t.Helper()
	when, err := time.Parse(domain.DateFormat, value)
	require.NoError(t, err)
	return when
}

func boolPtr(v bool) *bool { return &v }

func TestSnapshot_ReusesCacheUntilFileChanges(t *testing.T) {
	cfg := testConfig(t)
	parser := &countingParser{inner: beanparse.New()}
	mgr := NewManager(cfg, parser, nil, quietLogger())

	first, err := mgr.Snapshot(false)
	require.NoError(t, err)
	second, err := mgr.Snapshot(false)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, parser.calls)

	_, err = mgr.Snapshot(true)
	require.NoError(t, err)
	assert.Equal(t, 2, parser.calls)

	// Appending a comment changes (mtime, size), invalidating the cache.
	extended := first.Text + "\n; touched\n"
	require.NoError(t, os.WriteFile(cfg.Ledger.Path, []byte(extended), 0o644))
	third, err := mgr.Snapshot(false)
	require.NoError(t, err)
	assert.Equal(t, 3, parser.calls)
	assert.Equal(t, extended, third.Text)
}

func TestSnapshot_MissingFile(t *testing.T) {
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)
	require.NoError(t, os.Remove(cfg.Ledger.Path))

	_, err := mgr.Snapshot(false)
	require.Error(t, err)
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestSnapshot_CarriesValidationProblemsAsData(t *testing.T) {
	cfg := testConfigText(t, "2020-01-01 open Assets:Cash USD\n\n"+
		"2020-02-01 * \"oops\"\n"+
		"  Assets:Cash  5 USD\n")
	mgr := newTestManager(t, cfg)

	snap, err := mgr.Snapshot(false)
	require.NoError(t, err)
	require.NotEmpty(t, snap.Errors)
	assert.Contains(t, snap.ErrorMessages()[0], "does not balance")
}

func TestListAccounts(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	result, err := mgr.ListAccounts(false)
	require.NoError(t, err)
	require.Len(t, result.Accounts, 5)
	assert.Empty(t, result.Errors)

	first := result.Accounts[0]
	assert.Equal(t, "Assets:Bank:Checking", first.Name)
	assert.Equal(t, "Assets", first.Type)
	assert.Equal(t, "2020-01-01", first.OpenDate)
	assert.Equal(t, []string{"USD"}, first.Currencies)
}

func TestListAccounts_ClosedExcludedByDefault(t *testing.T) {
	cfg := testConfigText(t, "2020-01-01 open Assets:Cash USD\n"+
		"2020-01-01 open Assets:Old USD\n"+
		"2020-06-30 close Assets:Old\n")
	mgr := newTestManager(t, cfg)

	open, err := mgr.ListAccounts(false)
	require.NoError(t, err)
	require.Len(t, open.Accounts, 1)
	assert.Equal(t, "Assets:Cash", open.Accounts[0].Name)

	all, err := mgr.ListAccounts(true)
	require.NoError(t, err)
	require.Len(t, all.Accounts, 2)
	assert.Equal(t, "2020-06-30", all.Accounts[1].CloseDate)
}

func TestBalance_SingleAccountAsOfDate(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	result, err := mgr.Balance(BalanceRequest{
		Accounts:        []string{"Assets:Bank:Checking"},
		IncludeChildren: true,
		AtDate:          date(t, "2020-01-31"),
	})
	require.NoError(t, err)
	require.Len(t, result.Balances, 1)
	assert.Equal(t, "Assets:Bank:Checking", result.Balances[0].Account)
	require.Len(t, result.Total, 1)
	assert.Equal(t, AmountValue{Number: "1649.75", Currency: "USD"}, result.Total[0])
	assert.Equal(t, "2020-01-31", result.AsOf)
}

func TestBalance_AtDateExcludesLaterPostings(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	result, err := mgr.Balance(BalanceRequest{
		Accounts: []string{"Assets:Bank:Checking"},
		AtDate:   date(t, "2020-01-09"),
	})
	require.NoError(t, err)
	require.Len(t, result.Total, 1)
	assert.Equal(t, "3000.00", result.Total[0].Number)
}

func TestBalance_AccountPrefixMatching(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	children, err := mgr.Balance(BalanceRequest{Accounts: []string{"Expenses"}, IncludeChildren: true})
	require.NoError(t, err)
	assert.Len(t, children.Balances, 2)

	exact, err := mgr.Balance(BalanceRequest{Accounts: []string{"Expenses"}, IncludeChildren: false})
	require.NoError(t, err)
	assert.Empty(t, exact.Balances)
}

func TestBalance_WholeLedgerNetsToZero(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	result, err := mgr.Balance(BalanceRequest{})
	require.NoError(t, err)
	assert.Empty(t, result.Total)
}

func TestBalance_CurrencyConversion(t *testing.T) {
	cfg := testConfigText(t, "2020-01-01 open Assets:Cash USD,EUR\n"+
		"2020-01-01 open Equity:Opening-Balances USD,EUR\n"+
		"2020-01-02 price EUR 1.25 USD\n\n"+
		"2020-01-03 * \"seed\"\n"+
		"  Assets:Cash  100 EUR\n"+
		"  Equity:Opening-Balances  -100 EUR\n")
	mgr := newTestManager(t, cfg)

	result, err := mgr.Balance(BalanceRequest{
		Accounts:  []string{"Assets:Cash"},
		ConvertTo: "USD",
		AtDate:    date(t, "2020-01-31"),
	})
	require.NoError(t, err)
	require.Len(t, result.Total, 1)
	assert.Equal(t, AmountValue{Number: "125.00", Currency: "USD"}, result.Total[0])
}

func TestIncomeSheet(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	result, err := mgr.IncomeSheet(IncomeSheetRequest{
		StartDate: date(t, "2020-01-01"),
		EndDate:   date(t, "2020-01-31"),
	})
	require.NoError(t, err)

	require.Len(t, result.Income, 1)
	assert.Equal(t, "Income:Salary", result.Income[0].Account)
	assert.Equal(t, AmountValue{Number: "-3000.00", Currency: "USD"}, result.Income[0].Amount[0])

	require.Len(t, result.Expenses, 2)
	assert.Equal(t, "Expenses:Food", result.Expenses[0].Account)
	assert.Equal(t, "150.25", result.Expenses[0].Amount[0].Number)
	assert.Equal(t, "Expenses:Rent", result.Expenses[1].Account)
	assert.Equal(t, "1200.00", result.Expenses[1].Amount[0].Number)

	require.Len(t, result.Net, 1)
	assert.Equal(t, AmountValue{Number: "-1649.75", Currency: "USD"}, result.Net[0])
}

func TestIncomeSheet_WindowExcludesOutsideTransactions(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	result, err := mgr.IncomeSheet(IncomeSheetRequest{
		StartDate: date(t, "2020-01-06"),
		EndDate:   date(t, "2020-01-31"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Income)
	assert.Len(t, result.Expenses, 2)
}

func TestListTransactions_PayeeFilterIsCaseInsensitive(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	result, err := mgr.ListTransactions(ListTransactionsRequest{
		Payee:           "landlord",
		IncludePostings: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Transactions, 1)

	txn := result.Transactions[0]
	assert.Equal(t, "Landlord", txn.Payee)
	assert.Equal(t, "2020-01-10", txn.Date)
	require.Len(t, txn.Postings, 2)
	assert.Equal(t, "Expenses:Rent", txn.Postings[0].Account)
	assert.Equal(t, "1200.00", txn.Postings[0].Units.Number)
}

func TestListTransactions_TagAndAccountFilters(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	byTag, err := mgr.ListTransactions(ListTransactionsRequest{Tags: []string{"food"}})
	require.NoError(t, err)
	require.Equal(t, 1, byTag.Total)
	assert.Equal(t, "Grocer", byTag.Transactions[0].Payee)

	byAccount, err := mgr.ListTransactions(ListTransactionsRequest{Accounts: []string{"Expenses"}})
	require.NoError(t, err)
	assert.Equal(t, 2, byAccount.Total)
}

func TestListTransactions_Pagination(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	limit := 1
	result, err := mgr.ListTransactions(ListTransactionsRequest{Limit: &limit, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "Landlord", result.Transactions[0].Payee)

	past, err := mgr.ListTransactions(ListTransactionsRequest{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, past.Total)
	assert.Empty(t, past.Transactions)
}

func insertRequest(txnID string) InsertTransactionRequest {
	return InsertTransactionRequest{
		Date:      time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
		Payee:     "Grocer",
		Narration: "more groceries",
		TxnID:     txnID,
		Postings: []PostingInput{
			{Account: "Expenses:Food", Amount: "42.00", Currency: "USD"},
			{Account: "Assets:Bank:Checking", Amount: "-42.00", Currency: "USD"},
		},
	}
}

func TestInsertTransaction_DryRunLeavesFileUntouched(t *testing.T) {
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)
	before, err := os.ReadFile(cfg.Ledger.Path)
	require.NoError(t, err)

	req := insertRequest("dry-1")
	req.DryRun = boolPtr(true)
	result, err := mgr.InsertTransaction(req)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, "dry-1", result.TxnID)
	assert.Contains(t, result.Diff, "+2020-02-01 * \"Grocer\" \"more groceries\"")

	after, err := os.ReadFile(cfg.Ledger.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = os.Stat(cfg.Ledger.BackupDir)
	assert.True(t, os.IsNotExist(err))
}

func TestInsertTransaction_DryRunDefaultFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger.DryRunDefault = true
	mgr := newTestManager(t, cfg)

	result, err := mgr.InsertTransaction(insertRequest("dry-2"))
	require.NoError(t, err)
	assert.True(t, result.DryRun)
}

func TestInsertThenRemove_RestoresOriginalText(t *testing.T) {
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)
	original, err := os.ReadFile(cfg.Ledger.Path)
	require.NoError(t, err)

	inserted, err := mgr.InsertTransaction(insertRequest("round-1"))
	require.NoError(t, err)
	assert.False(t, inserted.DryRun)

	mutated, err := os.ReadFile(cfg.Ledger.Path)
	require.NoError(t, err)
	assert.NotEqual(t, string(original), string(mutated))
	assert.Contains(t, string(mutated), `txn_id: "round-1"`)

	view, err := mgr.FindTransaction("round-1")
	require.NoError(t, err)
	assert.Equal(t, "more groceries", view.Narration)

	removed, err := mgr.RemoveTransaction(RemoveTransactionRequest{TxnID: "round-1"})
	require.NoError(t, err)
	assert.False(t, removed.DryRun)
	assert.NotEmpty(t, removed.Diff)

	restored, err := os.ReadFile(cfg.Ledger.Path)
	require.NoError(t, err)
	assert.Equal(t, string(original), string(restored))

	_, err = mgr.FindTransaction("round-1")
	assert.ErrorIs(t, err, ErrTxnNotFound)
}

func TestInsertTransaction_GeneratesTxnID(t *testing.T) {
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)

	result, err := mgr.InsertTransaction(insertRequest(""))
	require.NoError(t, err)
	require.NotEmpty(t, result.TxnID)

	view, err := mgr.FindTransaction(result.TxnID)
	require.NoError(t, err)
	assert.Equal(t, result.TxnID, view.TxnID)
}

func TestInsertTransaction_RejectsUnbalancedPostings(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	req := insertRequest("bad-1")
	req.Postings[1].Amount = "-40.00"
	_, err := mgr.InsertTransaction(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTxnInvalid)
	assert.Contains(t, err.Error(), "must balance")
}

func TestInsertTransaction_CostDoesNotRelaxBalanceCheck(t *testing.T) {
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)
	before, err := os.ReadFile(cfg.Ledger.Path)
	require.NoError(t, err)

	// Weights net to zero (10 * 150 == 1500) but raw units do not.
	req := insertRequest("cost-1")
	req.Postings = []PostingInput{
		{Account: "Assets:Bank:Checking", Amount: "10", Currency: "HOOL", CostAmount: "150.00", CostCurrency: "USD"},
		{Account: "Assets:Bank:Checking", Amount: "-1500.00", Currency: "USD"},
	}
	_, err = mgr.InsertTransaction(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTxnInvalid)
	assert.Contains(t, err.Error(), "must balance")

	after, err := os.ReadFile(cfg.Ledger.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInsertTransaction_QuotedNarrationSurvivesRoundTrip(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	req := insertRequest("quote-1")
	req.Payee = `Store "Deluxe"`
	req.Narration = `the "special" one`
	result, err := mgr.InsertTransaction(req)
	require.NoError(t, err)
	assert.False(t, result.DryRun)

	view, err := mgr.FindTransaction("quote-1")
	require.NoError(t, err)
	assert.Equal(t, `Store "Deluxe"`, view.Payee)
	assert.Equal(t, `the "special" one`, view.Narration)
}

func TestInsertTransaction_RejectsDuplicateTxnID(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	_, err := mgr.InsertTransaction(insertRequest("dup-1"))
	require.NoError(t, err)

	_, err = mgr.InsertTransaction(insertRequest("dup-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTxnInvalid)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInsertTransaction_RejectsUnknownAccount(t *testing.T) {
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)
	before, err := os.ReadFile(cfg.Ledger.Path)
	require.NoError(t, err)

	req := insertRequest("bad-2")
	req.Postings[0].Account = "Expenses:Nonexistent"
	_, err = mgr.InsertTransaction(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLedgerInvalid)

	after, err := os.ReadFile(cfg.Ledger.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInsertTransaction_RequiresDateAndPostings(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	req := insertRequest("bad-3")
	req.Date = time.Time{}
	_, err := mgr.InsertTransaction(req)
	assert.ErrorIs(t, err, ErrTxnInvalid)

	req = insertRequest("bad-4")
	req.Postings = nil
	_, err = mgr.InsertTransaction(req)
	assert.ErrorIs(t, err, ErrTxnInvalid)
}

func TestRemoveTransaction_NotFound(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	_, err := mgr.RemoveTransaction(RemoveTransactionRequest{TxnID: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTxnNotFound)
}

func TestFindTransaction_DuplicateTxnID(t *testing.T) {
	cfg := testConfigText(t, "2020-01-01 open Assets:Cash USD\n"+
		"2020-01-01 open Expenses:Misc USD\n\n"+
		"2020-02-01 * \"first\"\n"+
		"  txn_id: \"dup\"\n"+
		"  Expenses:Misc  5 USD\n"+
		"  Assets:Cash  -5 USD\n\n"+
		"2020-02-02 * \"second\"\n"+
		"  txn_id: \"dup\"\n"+
		"  Expenses:Misc  7 USD\n"+
		"  Assets:Cash  -7 USD\n")
	mgr := newTestManager(t, cfg)

	_, err := mgr.FindTransaction("dup")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTxnInvalid)
	assert.Contains(t, err.Error(), "multiple transactions share")

	_, err = mgr.RemoveTransaction(RemoveTransactionRequest{TxnID: "dup"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTxnInvalid)
}

func TestRemoveTransaction_DryRun(t *testing.T) {
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)

	_, err := mgr.InsertTransaction(insertRequest("keep-1"))
	require.NoError(t, err)
	before, err := os.ReadFile(cfg.Ledger.Path)
	require.NoError(t, err)

	result, err := mgr.RemoveTransaction(RemoveTransactionRequest{TxnID: "keep-1", DryRun: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, result.DryRun)

	after, err := os.ReadFile(cfg.Ledger.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = mgr.FindTransaction("keep-1")
	assert.NoError(t, err)
}

func countBackups(t *testing.T, cfg *config.Config) int {
	t.Helper()
	entries, err := os.ReadDir(cfg.Ledger.BackupDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0
	}
	require.NoError(t, err)
	count := 0
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".bak") {
			count++
		}
	}
	return count
}

func TestCommit_WritesBackups(t *testing.T) {
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)

	_, err := mgr.InsertTransaction(insertRequest("bk-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, countBackups(t, cfg))

	_, err = mgr.InsertTransaction(insertRequest("bk-2"))
	require.NoError(t, err)
	assert.Equal(t, 2, countBackups(t, cfg))
}

func TestCommit_PrunesBackupsBeyondRetention(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger.BackupRetention = 2
	mgr := newTestManager(t, cfg)

	for _, id := range []string{"pr-1", "pr-2", "pr-3"} {
		_, err := mgr.InsertTransaction(insertRequest(id))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, countBackups(t, cfg))
}

func TestRunQuery(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	result, err := mgr.RunQuery("SELECT account, dsum(number) AS total, currency FROM postings " +
		"WHERE account = 'Assets:Bank:Checking' GROUP BY account, currency")
	require.NoError(t, err)
	assert.Equal(t, []string{"account", "total", "currency"}, result.Columns)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Assets:Bank:Checking", result.Rows[0][0])
	assert.Equal(t, "1649.75", result.Rows[0][1])
	assert.Equal(t, "USD", result.Rows[0][2])
}

func TestRunQuery_WithoutEvaluator(t *testing.T) {
	mgr := NewManager(testConfig(t), beanparse.New(), nil, quietLogger())

	_, err := mgr.RunQuery("SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestNaturalLanguageQuery(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	result, err := mgr.NaturalLanguageQuery("total spending in 2020-01")
	require.NoError(t, err)
	assert.Contains(t, result.Query, "Expenses:%")
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "1350.25", result.Rows[0][0])
	assert.Equal(t, "USD", result.Rows[0][1])
}

func TestNaturalLanguageQuery_Disabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.NL.Enabled = false
	mgr := newTestManager(t, cfg)

	_, err := mgr.NaturalLanguageQuery("total spending")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}
