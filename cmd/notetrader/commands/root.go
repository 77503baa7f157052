package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	env          string
	verbose      bool
	dryRun       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notetrader",
	Short: "Secondary-market note trader",
	Long: `notetrader picks owned notes to list for sale and inventory notes to buy.

Each run filters notes on their summary data first, then loads the loan
detail of the survivors and applies the strategy's detail rules.

Usage:
  go run ./cmd/notetrader [command]

Examples:
  go run ./cmd/notetrader sell --dry-run
  go run ./cmd/notetrader buy --strategy config/strategy/notetrader.yaml
  go run ./cmd/notetrader refresh --days 3
  go run ./cmd/notetrader probtable
  go run ./cmd/notetrader test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it under ctx.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default is $STRATEGY_FILE or the built-in strategy)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "decide but do not submit orders")
}
