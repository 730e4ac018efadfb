package cmd

import (
	"github.com/spf13/cobra"

	"beanbook/internal/ledger"
)

var removeDryRun bool

var removeCmd = &cobra.Command{
	Use:   "remove <txn-id>",
	Short: "Remove a transaction by its txn_id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := manager.RemoveTransaction(ledger.RemoveTransactionRequest{
			TxnID:  args[0],
			DryRun: &removeDryRun,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	removeCmd.Flags().BoolVar(&removeDryRun, "dry-run", false, "validate and show the diff without writing")
	rootCmd.AddCommand(removeCmd)
}
