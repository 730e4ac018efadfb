package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"beanbook/internal/ledger"
)

var (
	insertDate      string
	insertFlag      string
	insertPayee     string
	insertNarration string
	insertPostings  []string
	insertTags      []string
	insertTxnID     string
	insertDryRun    bool
)

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Insert a balanced transaction into the ledger",
	Long: `Insert a transaction. Each --posting flag is "Account AMOUNT CURRENCY",
e.g. --posting "Expenses:Food 5.00 USD" --posting "Assets:Bank:Checking -5.00 USD".
Posting amounts must net to zero per currency.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		when, err := parseDateFlag(insertDate, "date")
		if err != nil {
			return err
		}
		postings := make([]ledger.PostingInput, 0, len(insertPostings))
		for _, raw := range insertPostings {
			fields := strings.Fields(raw)
			if len(fields) != 3 {
				return fmt.Errorf("invalid --posting %q: expected \"Account AMOUNT CURRENCY\"", raw)
			}
			postings = append(postings, ledger.PostingInput{
				Account:  fields[0],
				Amount:   fields[1],
				Currency: fields[2],
			})
		}
		result, err := manager.InsertTransaction(ledger.InsertTransactionRequest{
			Date:      when,
			Flag:      insertFlag,
			Payee:     insertPayee,
			Narration: insertNarration,
			Postings:  postings,
			Tags:      insertTags,
			TxnID:     insertTxnID,
			DryRun:    &insertDryRun,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	insertCmd.Flags().StringVar(&insertDate, "date", "", "transaction date (YYYY-MM-DD)")
	insertCmd.Flags().StringVar(&insertFlag, "flag", "", "transaction flag, default '*'")
	insertCmd.Flags().StringVar(&insertPayee, "payee", "", "payee")
	insertCmd.Flags().StringVar(&insertNarration, "narration", "", "narration")
	insertCmd.Flags().StringArrayVarP(&insertPostings, "posting", "p", nil, `posting as "Account AMOUNT CURRENCY" (repeatable)`)
	insertCmd.Flags().StringSliceVar(&insertTags, "tag", nil, "tag without the leading '#' (repeatable)")
	insertCmd.Flags().StringVar(&insertTxnID, "txn-id", "", "stable identifier; generated when omitted")
	insertCmd.Flags().BoolVar(&insertDryRun, "dry-run", false, "validate and show the diff without writing")
	insertCmd.MarkFlagRequired("date")
	insertCmd.MarkFlagRequired("posting")
	rootCmd.AddCommand(insertCmd)
}
