package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/notetrader/internal/pipeline"
	"github.com/wonny/notetrader/internal/strategy"
)

var (
	sellMarkup   float64
	sellFraction float64
)

// sellCmd represents the sell command
var sellCmd = &cobra.Command{
	Use:   "sell",
	Short: "Pick owned notes to list for sale",
	Long: `Runs the configured sell strategy over the owned notes.

The stalest fraction of sellable notes gets its loan detail refreshed and
checked; accepted notes are priced by the market model when one is
configured, otherwise at par times the fixed markup.

Example:
  go run ./cmd/notetrader sell --dry-run
  go run ./cmd/notetrader sell --fraction 0.25 --markup 1.01`,
	RunE: runSell,
}

func init() {
	rootCmd.AddCommand(sellCmd)
	sellCmd.Flags().Float64Var(&sellMarkup, "markup", 0, "fixed markup over par (default from strategy)")
	sellCmd.Flags().Float64Var(&sellFraction, "fraction", 0, "share of sellable notes to examine (default from strategy)")
}

func runSell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	d, err := initDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	s, err := strategy.NewSell(d.strategy, d.eval)
	if err != nil {
		return err
	}
	p, err := d.pipeline(ctx)
	if err != nil {
		return err
	}

	markup := d.strategy.Sell.Markup
	if cmd.Flags().Changed("markup") {
		markup = sellMarkup
	}
	fraction := d.strategy.Sell.Fraction
	if cmd.Flags().Changed("fraction") {
		fraction = sellFraction
	}

	started := time.Now()
	res, err := p.RunSellStrategy(ctx, s, markup, fraction)
	if err != nil {
		return fmt.Errorf("sell run failed: %w", err)
	}

	printSellResult(res, d.snapshot.ConfigHash, started)

	if dryRun {
		PrintInfo("Dry run: no sell orders submitted")
		return nil
	}
	if err := p.ExecuteSell(ctx, res); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("%d sell orders submitted", len(res.Orders)))
	return nil
}

func printSellResult(res *pipeline.SellResult, configHash string, started time.Time) {
	PrintRunHeader(RunMetadata{
		RunID:      res.RunID,
		Kind:       pipeline.KindSell,
		Strategy:   res.Strategy,
		ConfigHash: configHash,
		Timestamp:  started,
	})
	PrintKeyValue("Candidates", fmt.Sprintf("%d", res.Candidates), 10)
	PrintKeyValue("Examined", fmt.Sprintf("%d", res.Examined), 10)
	PrintKeyValue("Accepted", fmt.Sprintf("%d", len(res.Orders)), 10)

	if len(res.Orders) > 0 {
		fmt.Println()
		widths := []int{10, 10, 10, 10, 8, 30}
		PrintTableHeader([]string{"Note", "Loan", "Par", "Ask", "Markup", "Reasons"}, widths)
		for _, o := range res.Orders {
			par := o.Note.ParValue()
			markup := "-"
			if par.IsPositive() {
				markup = o.Price.Div(par).StringFixed(3)
			}
			PrintTableRow([]string{
				fmt.Sprintf("%d", o.Note.NoteID),
				fmt.Sprintf("%d", o.Note.LoanID),
				par.StringFixed(2),
				o.Price.StringFixed(2),
				markup,
				formatReasons(o.Reasons),
			}, widths)
		}
	}

	PrintReasons(res.Reasons)
	PrintDoubleSeparator()
}
