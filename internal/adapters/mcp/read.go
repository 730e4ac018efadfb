// Package mcp exposes the ledger engine as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"beanbook/internal/domain"
	"beanbook/internal/ledger"
)

// RegisterReadTools adds all read-only ledger tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, mgr *ledger.Manager) {
	s.AddTool(listAccountsTool(), listAccountsHandler(mgr))
	s.AddTool(balanceTool(), balanceHandler(mgr))
	s.AddTool(incomeSheetTool(), incomeSheetHandler(mgr))
	s.AddTool(listTransactionsTool(), listTransactionsHandler(mgr))
	s.AddTool(queryTool(), queryHandler(mgr))
	s.AddTool(naturalLanguageQueryTool(), naturalLanguageQueryHandler(mgr))
}

// --- list_accounts ---

func listAccountsTool() mcp.Tool {
	return mcp.NewTool("list_accounts",
		mcp.WithDescription("List ledger accounts with their open/close dates, currencies and metadata."),
		mcp.WithBoolean("include_closed",
			mcp.Description("Include accounts that have a close directive."),
		),
	)
}

func listAccountsHandler(mgr *ledger.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := mgr.ListAccounts(req.GetBool("include_closed", false))
		if err != nil {
			return toolError(err)
		}
		return jsonResult(result)
	}
}

// --- balance ---

func balanceTool() mcp.Tool {
	return mcp.NewTool("balance",
		mcp.WithDescription("Compute per-account balances and a grand total over a date window, with optional currency conversion."),
		mcp.WithArray("accounts",
			mcp.Description("Account name prefixes to restrict the balance to."),
		),
		mcp.WithBoolean("include_children",
			mcp.Description("Match descendant accounts of each prefix (default true)."),
		),
		mcp.WithString("start_date", mcp.Description("Inclusive window start (YYYY-MM-DD).")),
		mcp.WithString("end_date", mcp.Description("Inclusive window end (YYYY-MM-DD).")),
		mcp.WithString("at_date", mcp.Description("As-of date; applies only when end_date is absent.")),
		mcp.WithString("convert_to", mcp.Description("Target currency for conversion.")),
		mcp.WithBoolean("rollup", mcp.Description("Reserved; currently no effect.")),
	)
}

func balanceHandler(mgr *ledger.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		breq := ledger.BalanceRequest{
			Accounts:        req.GetStringSlice("accounts", nil),
			IncludeChildren: req.GetBool("include_children", true),
			ConvertTo:       req.GetString("convert_to", ""),
			Rollup:          req.GetBool("rollup", false),
		}
		var err error
		if breq.StartDate, err = parseDateArg(req, "start_date"); err != nil {
			return toolError(err)
		}
		if breq.EndDate, err = parseDateArg(req, "end_date"); err != nil {
			return toolError(err)
		}
		if breq.AtDate, err = parseDateArg(req, "at_date"); err != nil {
			return toolError(err)
		}
		result, err := mgr.Balance(breq)
		if err != nil {
			return toolError(err)
		}
		return jsonResult(result)
	}
}

// --- income_sheet ---

func incomeSheetTool() mcp.Tool {
	return mcp.NewTool("income_sheet",
		mcp.WithDescription("Summarize Income: and Expenses: accounts over a date window, with net total."),
		mcp.WithString("start_date",
			mcp.Description("Inclusive window start (YYYY-MM-DD)."),
			mcp.Required(),
		),
		mcp.WithString("end_date",
			mcp.Description("Inclusive window end (YYYY-MM-DD)."),
			mcp.Required(),
		),
		mcp.WithString("convert_to", mcp.Description("Target currency for conversion.")),
	)
}

func incomeSheetHandler(mgr *ledger.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ireq := ledger.IncomeSheetRequest{ConvertTo: req.GetString("convert_to", "")}
		var err error
		if ireq.StartDate, err = parseDateArg(req, "start_date"); err != nil {
			return toolError(err)
		}
		if ireq.EndDate, err = parseDateArg(req, "end_date"); err != nil {
			return toolError(err)
		}
		if ireq.StartDate.IsZero() || ireq.EndDate.IsZero() {
			return toolError(fmt.Errorf("start_date and end_date are required"))
		}
		result, err := mgr.IncomeSheet(ireq)
		if err != nil {
			return toolError(err)
		}
		return jsonResult(result)
	}
}

// --- list_transactions ---

func listTransactionsTool() mcp.Tool {
	return mcp.NewTool("list_transactions",
		mcp.WithDescription("List transactions filtered by date window, payee/narration substring, tags, metadata and account prefixes."),
		mcp.WithString("start_date", mcp.Description("Inclusive window start (YYYY-MM-DD).")),
		mcp.WithString("end_date", mcp.Description("Inclusive window end (YYYY-MM-DD).")),
		mcp.WithArray("accounts", mcp.Description("Account prefixes; a transaction matches when any posting matches.")),
		mcp.WithString("payee", mcp.Description("Case-insensitive payee substring.")),
		mcp.WithString("narration", mcp.Description("Case-insensitive narration substring.")),
		mcp.WithArray("tags", mcp.Description("Tags that must all be present.")),
		mcp.WithObject("metadata", mcp.Description("Metadata key/value pairs that must match exactly.")),
		mcp.WithNumber("limit", mcp.Description("Page size; omit for all matches after offset.")),
		mcp.WithNumber("offset", mcp.Description("Matches to skip before the page starts.")),
		mcp.WithBoolean("include_postings", mcp.Description("Include each transaction's postings (default true).")),
	)
}

func listTransactionsHandler(mgr *ledger.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		lreq := ledger.ListTransactionsRequest{
			Accounts:        req.GetStringSlice("accounts", nil),
			Payee:           req.GetString("payee", ""),
			Narration:       req.GetString("narration", ""),
			Tags:            req.GetStringSlice("tags", nil),
			Offset:          req.GetInt("offset", 0),
			IncludePostings: req.GetBool("include_postings", true),
		}
		var err error
		if lreq.StartDate, err = parseDateArg(req, "start_date"); err != nil {
			return toolError(err)
		}
		if lreq.EndDate, err = parseDateArg(req, "end_date"); err != nil {
			return toolError(err)
		}
		if limit := req.GetInt("limit", -1); limit >= 0 {
			lreq.Limit = &limit
		}
		if raw := req.GetArguments()["metadata"]; raw != nil {
			if obj, ok := raw.(map[string]any); ok {
				lreq.Metadata = map[string]string{}
				for k, v := range obj {
					lreq.Metadata[k] = fmt.Sprint(v)
				}
			}
		}
		result, err := mgr.ListTransactions(lreq)
		if err != nil {
			return toolError(err)
		}
		return jsonResult(result)
	}
}

// --- query ---

func queryTool() mcp.Tool {
	return mcp.NewTool("query",
		mcp.WithDescription("Run a read-only SELECT query over the ledger's postings table."),
		mcp.WithString("query",
			mcp.Description("SQL SELECT statement over postings(txn_id, date, flag, payee, narration, account, number, currency, tags). Use dsum(number) for exact decimal sums."),
			mcp.Required(),
		),
	)
}

func queryHandler(mgr *ledger.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return toolError(fmt.Errorf("query is required"))
		}
		result, err := mgr.RunQuery(query)
		if err != nil {
			return toolError(err)
		}
		return jsonResult(result)
	}
}

// --- natural_language_query ---

func naturalLanguageQueryTool() mcp.Tool {
	return mcp.NewTool("natural_language_query",
		mcp.WithDescription("Answer a restricted set of question templates: 'balance of <Account> [as of DATE]', 'total spending [in PERIOD]', 'spending by category [in PERIOD]'."),
		mcp.WithString("question",
			mcp.Description("The question to answer."),
			mcp.Required(),
		),
	)
}

func naturalLanguageQueryHandler(mgr *ledger.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := req.GetString("question", "")
		if question == "" {
			return toolError(fmt.Errorf("question is required"))
		}
		result, err := mgr.NaturalLanguageQuery(question)
		if err != nil {
			return toolError(err)
		}
		return jsonResult(result)
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func parseDateArg(req mcp.CallToolRequest, name string) (time.Time, error) {
	value := req.GetString(name, "")
	if value == "" {
		return time.Time{}, nil
	}
	when, err := time.Parse(domain.DateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", name, value)
	}
	return when, nil
}
