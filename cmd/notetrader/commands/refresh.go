package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/notetrader/internal/note"
	"github.com/wonny/notetrader/internal/pipeline"
)

var refreshDays int

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh loan details whose next payment has probably posted",
	Long: `Downloads the loan detail of every owned note whose next payment has
probably settled by today plus --days, so the next sell run sees it.
Notes already listed for sale and notes in the "Bad" portfolio are left alone.

Example:
  go run ./cmd/notetrader refresh
  go run ./cmd/notetrader refresh --days 3`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().IntVar(&refreshDays, "days", 0, "look-ahead in days")
}

func runRefresh(cmd *cobra.Command, args []string) error {
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
	selling, err := d.client.AlreadySellingIDs(ctx)
	if err != nil {
		return err
	}
	notes = unlisted(notes, selling)

	pacer := pipeline.NewPacer(d.strategy.Pacing.RequestDelay)
	var wanted, fetched, failed int
	for _, n := range notes {
		want, err := d.eval.WantUpdate(n, refreshDays)
		if err != nil {
			d.log.WithError(err).Warn("Skipping note outside the holiday calendar")
			continue
		}
		if !want {
			continue
		}
		wanted++
		if dryRun {
			continue
		}

		if err := pacer.Wait(ctx); err != nil {
			return err
		}
		if err := d.client.FetchDetail(ctx, n); err != nil {
			if ctx.Err() != nil {
				return err
			}
			d.log.WithError(err).WithField("note_id", n.NoteID).Warn("Detail refresh failed")
			failed++
			continue
		}
		fetched++
	}

	PrintKeyValue("Unlisted", fmt.Sprintf("%d", len(notes)), 12)
	PrintKeyValue("Due update", fmt.Sprintf("%d", wanted), 12)
	if dryRun {
		PrintInfo("Dry run: no details fetched")
		return nil
	}
	PrintKeyValue("Fetched", fmt.Sprintf("%d", fetched), 12)
	if failed > 0 {
		PrintWarning(fmt.Sprintf("%d detail downloads failed", failed))
	}
	return nil
}

// unlisted drops the notes already offered for sale
func unlisted(notes []*note.Note, selling map[int64]struct{}) []*note.Note {
	out := make([]*note.Note, 0, len(notes))
	for _, n := range notes {
		if _, ok := selling[n.NoteID]; ok {
			continue
		}
		out = append(out, n)
	}
	return out
}
