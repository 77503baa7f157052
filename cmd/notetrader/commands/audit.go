package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/notetrader/internal/audit"
	"github.com/wonny/notetrader/pkg/database"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect recorded sell and buy runs",
	Long: `Every run is recorded in the audit schema when DATABASE_URL is set.

Commands:
  runs       List recent runs with their decision counts
  decisions  List the notes accepted by one run`,
}

var (
	runsLimit   int
	auditOutput string
)

var auditRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs",
	Long: `Lists the most recent runs, newest first.

Example:
  go run ./cmd/notetrader audit runs
  go run ./cmd/notetrader audit runs --limit 5 --output json`,
	RunE: runAuditRuns,
}

var auditDecisionsCmd = &cobra.Command{
	Use:   "decisions <run-id>",
	Short: "List the notes accepted by a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditDecisions,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditRunsCmd)
	auditCmd.AddCommand(auditDecisionsCmd)

	auditRunsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to show")
	auditCmd.PersistentFlags().StringVar(&auditOutput, "output", "text", "output format (text, json)")
}

// initAuditDeps opens the audit database. Auditing is optional for trading
// commands but required here.
func initAuditDeps() (*database.DB, *audit.Repository, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Database.Enabled() {
		return nil, nil, fmt.Errorf("❌ DATABASE_URL is not set: %w", database.ErrNotConfigured)
	}
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	return db, audit.NewRepository(db.Pool), nil
}

func runAuditRuns(cmd *cobra.Command, args []string) error {
	db, repo, err := initAuditDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repo.RecentRuns(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}

	if auditOutput == "json" {
		jsonData, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(jsonData))
		return nil
	}

	if len(runs) == 0 {
		PrintInfo("No runs recorded")
		return nil
	}

	widths := []int{36, 4, 16, 20, 8, 8}
	PrintTableHeader([]string{"Run", "Kind", "Strategy", "Started", "Examined", "Accepted"}, widths)
	for _, r := range runs {
		PrintTableRow([]string{
			r.RunID,
			r.Kind,
			r.Strategy,
			r.StartedAt.Local().Format(time.DateTime),
			fmt.Sprintf("%d", r.Examined),
			fmt.Sprintf("%d", r.Accepted),
		}, widths)
	}
	return nil
}

func runAuditDecisions(cmd *cobra.Command, args []string) error {
	db, repo, err := initAuditDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	decisions, err := repo.RunDecisions(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if auditOutput == "json" {
		jsonData, err := json.MarshalIndent(decisions, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(jsonData))
		return nil
	}

	if len(decisions) == 0 {
		PrintInfo(fmt.Sprintf("Run %s accepted no notes", args[0]))
		return nil
	}

	widths := []int{10, 10, 10, 30}
	PrintTableHeader([]string{"Note", "Loan", "Price", "Reasons"}, widths)
	for _, dec := range decisions {
		price := "-"
		if !dec.Price.IsZero() {
			price = dec.Price.StringFixed(2)
		}
		PrintTableRow([]string{
			fmt.Sprintf("%d", dec.NoteID),
			fmt.Sprintf("%d", dec.LoanID),
			price,
			formatReasons(dec.Reasons),
		}, widths)
	}
	return nil
}
