package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a read-only SELECT query over the ledger's postings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := manager.RunQuery(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a natural-language question about the ledger",
	Long: `Answer a restricted set of question templates:
  balance of <Account> [as of YYYY-MM-DD]
  total spending [in PERIOD]
  spending by category [in PERIOD]
PERIOD is YYYY, YYYY-MM, YYYY-MM-DD or "<start> to <end>".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := manager.NaturalLanguageQuery(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(askCmd)
}
