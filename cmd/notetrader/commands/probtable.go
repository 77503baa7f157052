package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/notetrader/internal/external/lendingclub"
	"github.com/wonny/notetrader/internal/timing"
)

// probtableCmd represents the probtable command
var probtableCmd = &cobra.Command{
	Use:   "probtable",
	Short: "Build settlement delay shares from stored payment history",
	Long: `Reads the stored loan details of the owned notes and counts, per due
weekday, how many days holiday-affected payments took to complete.
The shares are the raw material of the holiday probability table.

Only details already in the document store are used; run "refresh" first
to download missing ones.

Example:
  go run ./cmd/notetrader probtable`,
	RunE: runProbTable,
}

func init() {
	rootCmd.AddCommand(probtableCmd)
}

func runProbTable(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	d, err := initDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	notes, err := d.client.LoadActiveNotes(ctx)
	if err != nil {
		return err
	}

	stats := timing.NewStats(d.eval.Timing().Holidays())
	var loaded, missing, payments int
	for _, n := range notes {
		detail, err := d.client.LoadDetail(ctx, n)
		if errors.Is(err, lendingclub.ErrNotCached) {
			missing++
			continue
		}
		if err != nil {
			d.log.WithError(err).WithField("note_id", n.NoteID).Warn("Unreadable detail")
			continue
		}
		loaded++
		for _, p := range detail.PaymentHistory {
			if p.Completed == nil {
				continue
			}
			stats.Observe(p.Due, *p.Completed)
			payments++
		}
	}

	PrintKeyValue("Details", fmt.Sprintf("%d loaded, %d not stored", loaded, missing), 10)
	PrintKeyValue("Payments", fmt.Sprintf("%d completed, %d outside calendar", payments, stats.Skipped()), 10)
	fmt.Println()

	table := stats.Table()
	widths := []int{9, 7, 40}
	PrintTableHeader([]string{"Due day", "Samples", "Delay shares"}, widths)
	for wd := range table {
		steps := make([]string, 0, len(table[wd]))
		for _, s := range table[wd] {
			steps = append(steps, fmt.Sprintf("%dd=%.4f", s.Delay, s.Prob))
		}
		// weekday 0 is Monday
		PrintTableRow([]string{
			time.Weekday((wd + 1) % 7).String(),
			fmt.Sprintf("%d", stats.Count(wd)),
			strings.Join(steps, " "),
		}, widths)
	}
	return nil
}
