package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"beanbook/internal/ledger"
)

// RegisterWriteTools adds the mutating ledger tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, mgr *ledger.Manager) {
	s.AddTool(insertTransactionTool(), insertTransactionHandler(mgr))
	s.AddTool(removeTransactionTool(), removeTransactionHandler(mgr))
}

// --- insert_transaction ---

// insertArgs mirrors the tool's JSON argument shape.
type insertArgs struct {
	Date      string                `json:"date"`
	Flag      string                `json:"flag,omitempty"`
	Payee     string                `json:"payee,omitempty"`
	Narration string                `json:"narration,omitempty"`
	Postings  []ledger.PostingInput `json:"postings"`
	Tags      []string              `json:"tags,omitempty"`
	Meta      map[string]string     `json:"meta,omitempty"`
	TxnID     string                `json:"txn_id,omitempty"`
	DryRun    *bool                 `json:"dry_run,omitempty"`
}

func insertTransactionTool() mcp.Tool {
	return mcp.NewTool("insert_transaction",
		mcp.WithDescription("Insert a balanced transaction into the ledger. Validates, re-parses the candidate text, then commits atomically with a backup. Returns the txn_id and a unified diff."),
		mcp.WithString("date",
			mcp.Description("Transaction date (YYYY-MM-DD)."),
			mcp.Required(),
		),
		mcp.WithString("flag", mcp.Description("Transaction flag, default '*'.")),
		mcp.WithString("payee", mcp.Description("Payee string.")),
		mcp.WithString("narration", mcp.Description("Narration string.")),
		mcp.WithArray("postings",
			mcp.Description("Postings as objects: {account, amount, currency, cost_amount?, cost_currency?, cost_date?, cost_label?, price_amount?, price_currency?, meta?}. Amounts are decimal strings and must net to zero per currency."),
			mcp.Required(),
		),
		mcp.WithArray("tags", mcp.Description("Tags without the leading '#'.")),
		mcp.WithObject("meta", mcp.Description("Transaction metadata key/value pairs.")),
		mcp.WithString("txn_id", mcp.Description("Stable identifier; generated when omitted.")),
		mcp.WithBoolean("dry_run", mcp.Description("Validate and return the diff without writing.")),
	)
}

func insertTransactionHandler(mgr *ledger.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args insertArgs
		if err := req.BindArguments(&args); err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err))
		}
		when, err := parseDateArg(req, "date")
		if err != nil {
			return toolError(err)
		}
		result, err := mgr.InsertTransaction(ledger.InsertTransactionRequest{
			Date:      when,
			Flag:      args.Flag,
			Payee:     args.Payee,
			Narration: args.Narration,
			Postings:  args.Postings,
			Tags:      args.Tags,
			Meta:      args.Meta,
			TxnID:     args.TxnID,
			DryRun:    args.DryRun,
		})
		if err != nil {
			return toolError(err)
		}
		return jsonResult(result)
	}
}

// --- remove_transaction ---

func removeTransactionTool() mcp.Tool {
	return mcp.NewTool("remove_transaction",
		mcp.WithDescription("Remove a transaction by its txn_id. Deletes the textual block, re-validates the remaining text, then commits atomically with a backup."),
		mcp.WithString("txn_id",
			mcp.Description("Stable identifier of the transaction to remove."),
			mcp.Required(),
		),
		mcp.WithBoolean("dry_run", mcp.Description("Validate and return the diff without writing.")),
	)
}

func removeTransactionHandler(mgr *ledger.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		txnID := req.GetString("txn_id", "")
		if txnID == "" {
			return toolError(fmt.Errorf("txn_id is required"))
		}
		rreq := ledger.RemoveTransactionRequest{TxnID: txnID}
		if raw := req.GetArguments()["dry_run"]; raw != nil {
			dryRun := req.GetBool("dry_run", false)
			rreq.DryRun = &dryRun
		}
		result, err := mgr.RemoveTransaction(rreq)
		if err != nil {
			return toolError(err)
		}
		return jsonResult(result)
	}
}
