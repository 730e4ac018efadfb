package cmd

import (
	"github.com/spf13/cobra"

	"beanbook/internal/ledger"
)

var (
	txnsStart      string
	txnsEnd        string
	txnsAccounts   []string
	txnsPayee      string
	txnsNarration  string
	txnsTags       []string
	txnsLimit      int
	txnsOffset     int
	txnsNoPostings bool
)

var txnsCmd = &cobra.Command{
	Use:   "txns",
	Short: "List transactions matching filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := ledger.ListTransactionsRequest{
			Accounts:        txnsAccounts,
			Payee:           txnsPayee,
			Narration:       txnsNarration,
			Tags:            txnsTags,
			Offset:          txnsOffset,
			IncludePostings: !txnsNoPostings,
		}
		var err error
		if req.StartDate, err = parseDateFlag(txnsStart, "start"); err != nil {
			return err
		}
		if req.EndDate, err = parseDateFlag(txnsEnd, "end"); err != nil {
			return err
		}
		if txnsLimit >= 0 {
			req.Limit = &txnsLimit
		}
		result, err := manager.ListTransactions(req)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	txnsCmd.Flags().StringVar(&txnsStart, "start", "", "inclusive window start (YYYY-MM-DD)")
	txnsCmd.Flags().StringVar(&txnsEnd, "end", "", "inclusive window end (YYYY-MM-DD)")
	txnsCmd.Flags().StringSliceVarP(&txnsAccounts, "account", "a", nil, "account prefix to match (repeatable)")
	txnsCmd.Flags().StringVar(&txnsPayee, "payee", "", "case-insensitive payee substring")
	txnsCmd.Flags().StringVar(&txnsNarration, "narration", "", "case-insensitive narration substring")
	txnsCmd.Flags().StringSliceVar(&txnsTags, "tag", nil, "tag that must be present (repeatable)")
	txnsCmd.Flags().IntVar(&txnsLimit, "limit", -1, "page size, -1 for all matches")
	txnsCmd.Flags().IntVar(&txnsOffset, "offset", 0, "matches to skip")
	txnsCmd.Flags().BoolVar(&txnsNoPostings, "no-postings", false, "omit postings from the output")
	rootCmd.AddCommand(txnsCmd)
}
