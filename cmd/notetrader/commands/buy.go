package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/notetrader/internal/pipeline"
	"github.com/wonny/notetrader/internal/strategy"
)

// buyCmd represents the buy command
var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Pick inventory notes to buy",
	Long: `Runs the configured buy strategy over the trading inventory.

Cash above the strategy's reserve is the budget. Notes are visited in the
strategy's sort order; loans already held and notes priced above the
remaining budget are skipped.

Example:
  go run ./cmd/notetrader buy --dry-run`,
	RunE: runBuy,
}

func init() {
	rootCmd.AddCommand(buyCmd)
}

func runBuy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	d, err := initDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	s, err := strategy.NewBuy(d.strategy, d.eval)
	if err != nil {
		return err
	}
	p, err := d.pipeline(ctx)
	if err != nil {
		return err
	}

	started := time.Now()
	res, err := p.RunBuyStrategy(ctx, s)
	if errors.Is(err, pipeline.ErrBudgetExhausted) {
		PrintWarning(err.Error())
		return nil
	}
	if err != nil {
		return fmt.Errorf("buy run failed: %w", err)
	}

	printBuyResult(res, d.snapshot.ConfigHash, started)

	if dryRun {
		PrintInfo("Dry run: no buy orders submitted")
		return nil
	}
	if err := p.ExecuteBuy(ctx, res); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("%d buy orders submitted", len(res.Notes)))
	return nil
}

func printBuyResult(res *pipeline.BuyResult, configHash string, started time.Time) {
	PrintRunHeader(RunMetadata{
		RunID:      res.RunID,
		Kind:       pipeline.KindBuy,
		Strategy:   res.Strategy,
		ConfigHash: configHash,
		Timestamp:  started,
	})
	PrintKeyValue("Budget", res.Budget.StringFixed(2), 10)
	PrintKeyValue("Remaining", res.Remaining.StringFixed(2), 10)
	PrintKeyValue("Examined", fmt.Sprintf("%d", res.Examined), 10)
	PrintKeyValue("Accepted", fmt.Sprintf("%d", len(res.Notes)), 10)

	if len(res.Notes) > 0 {
		fmt.Println()
		widths := []int{10, 10, 10, 8, 8}
		PrintTableHeader([]string{"Note", "Loan", "Ask", "Markup", "Rate"}, widths)
		for _, n := range res.Notes {
			ask := "-"
			if n.AskPrice != nil {
				ask = n.AskPrice.StringFixed(2)
			}
			PrintTableRow([]string{
				fmt.Sprintf("%d", n.NoteID),
				fmt.Sprintf("%d", n.LoanID),
				ask,
				fmt.Sprintf("%.3f", n.Markup()),
				fmt.Sprintf("%.2f%%", n.InterestRate*100),
			}, widths)
		}
	}

	PrintReasons(res.Reasons)
	PrintDoubleSeparator()
}
