package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"beanbook/internal/adapters/beanparse"
	"beanbook/internal/adapters/sqlquery"
	"beanbook/internal/config"
	"beanbook/internal/domain"
	"beanbook/internal/ledger"
	"beanbook/internal/logging"
)

var (
	configFile string
	ledgerFile string
	manager    *ledger.Manager
)

var rootCmd = &cobra.Command{
	Use:   "beanbook-cli",
	Short: "CLI for querying and mutating a plain-text double-entry ledger",
	Long: `beanbook-cli operates on a plain-text double-entry ledger file:
account listings, balances, income sheets, transaction search, SQL
queries, and safe insert/remove mutations with backups and dry-run
previews.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		if ledgerFile != "" {
			os.Setenv("BEANBOOK_LEDGER_PATH", ledgerFile)
		}
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		logger := logging.Configure(cfg.Log.Level, cfg.Log.Format)
		manager = ledger.NewManager(cfg, beanparse.New(), sqlquery.New(), logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to the config file")
	rootCmd.PersistentFlags().StringVarP(&ledgerFile, "ledger", "l", "", "path to the ledger file (overrides config)")
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}

// parseDateFlag parses an optional YYYY-MM-DD flag value.
func parseDateFlag(value, name string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	when, err := time.Parse(domain.DateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", name, value)
	}
	return when, nil
}
