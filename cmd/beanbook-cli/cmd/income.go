package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"beanbook/internal/ledger"
)

var (
	incomeStart   string
	incomeEnd     string
	incomeConvert string
)

var incomeCmd = &cobra.Command{
	Use:   "income",
	Short: "Summarize income and expenses over a date window",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := ledger.IncomeSheetRequest{ConvertTo: incomeConvert}
		var err error
		if req.StartDate, err = parseDateFlag(incomeStart, "start"); err != nil {
			return err
		}
		if req.EndDate, err = parseDateFlag(incomeEnd, "end"); err != nil {
			return err
		}
		if req.StartDate.IsZero() || req.EndDate.IsZero() {
			return fmt.Errorf("--start and --end are required")
		}
		result, err := manager.IncomeSheet(req)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	incomeCmd.Flags().StringVar(&incomeStart, "start", "", "inclusive window start (YYYY-MM-DD)")
	incomeCmd.Flags().StringVar(&incomeEnd, "end", "", "inclusive window end (YYYY-MM-DD)")
	incomeCmd.Flags().StringVar(&incomeConvert, "convert-to", "", "target currency for conversion")
	rootCmd.AddCommand(incomeCmd)
}
