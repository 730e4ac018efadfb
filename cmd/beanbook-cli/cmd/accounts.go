package cmd

import (
	"github.com/spf13/cobra"
)

var includeClosed bool

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List ledger accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := manager.ListAccounts(includeClosed)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	accountsCmd.Flags().BoolVar(&includeClosed, "include-closed", false, "include closed accounts")
	rootCmd.AddCommand(accountsCmd)
}
