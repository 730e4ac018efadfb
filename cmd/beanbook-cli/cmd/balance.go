package cmd

import (
	"github.com/spf13/cobra"

	"beanbook/internal/ledger"
)

var (
	balanceAccounts   []string
	balanceNoChildren bool
	balanceStart      string
	balanceEnd        string
	balanceAt         string
	balanceConvert    string
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Compute account balances over a date window",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := ledger.BalanceRequest{
			Accounts:        balanceAccounts,
			IncludeChildren: !balanceNoChildren,
			ConvertTo:       balanceConvert,
		}
		var err error
		if req.StartDate, err = parseDateFlag(balanceStart, "start"); err != nil {
			return err
		}
		if req.EndDate, err = parseDateFlag(balanceEnd, "end"); err != nil {
			return err
		}
		if req.AtDate, err = parseDateFlag(balanceAt, "at"); err != nil {
			return err
		}
		result, err := manager.Balance(req)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	balanceCmd.Flags().StringSliceVarP(&balanceAccounts, "account", "a", nil, "account prefix to include (repeatable)")
	balanceCmd.Flags().BoolVar(&balanceNoChildren, "no-children", false, "match account prefixes exactly, without descendants")
	balanceCmd.Flags().StringVar(&balanceStart, "start", "", "inclusive window start (YYYY-MM-DD)")
	balanceCmd.Flags().StringVar(&balanceEnd, "end", "", "inclusive window end (YYYY-MM-DD)")
	balanceCmd.Flags().StringVar(&balanceAt, "at", "", "as-of date, used when --end is absent")
	balanceCmd.Flags().StringVar(&balanceConvert, "convert-to", "", "target currency for conversion")
	rootCmd.AddCommand(balanceCmd)
}
