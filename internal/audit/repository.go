// Package audit keeps a record of every decision run in PostgreSQL.
// The note service remains the source of truth; these rows are diagnostics.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/ledger"
	"github.com/wonny/notetrader/internal/pipeline"
)

// Repository handles audit data persistence
// ⭐ SSOT: run audit rows are written and read only here
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new audit repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the audit tables when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// SaveRun stores a run with its reason counts and decisions in one transaction
func (r *Repository) SaveRun(ctx context.Context, rec *pipeline.RunRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO audit.runs (
			run_id, kind, strategy, config_hash, started_at, finished_at, examined, accepted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		rec.RunID, rec.Kind, rec.Strategy, rec.ConfigHash,
		rec.StartedAt, rec.FinishedAt, rec.Examined, len(rec.Decisions),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, e := range rec.Reasons {
		batch.Queue(`
			INSERT INTO audit.run_reasons (run_id, reason, count) VALUES ($1, $2, $3)
		`, rec.RunID, e.Reason, e.Count)
	}
	for _, d := range rec.Decisions {
		batch.Queue(`
			INSERT INTO audit.run_decisions (run_id, note_id, loan_id, price, reasons)
			VALUES ($1, $2, $3, $4::numeric, $5)
		`, rec.RunID, d.NoteID, d.LoanID, d.Price.StringFixed(2), nonNil(d.Reasons))
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save run details: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// RunSummary is one stored run without its decisions
type RunSummary struct {
	RunID      string
	Kind       string
	Strategy   string
	ConfigHash string
	StartedAt  time.Time
	FinishedAt time.Time
	Examined   int
	Accepted   int
	Reasons    []ledger.Entry
}

// RecentRuns returns the latest runs, newest first
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
		SELECT run_id::text, kind, strategy, config_hash, started_at, finished_at, examined, accepted
		FROM audit.runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(
			&s.RunID, &s.Kind, &s.Strategy, &s.ConfigHash,
			&s.StartedAt, &s.FinishedAt, &s.Examined, &s.Accepted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	for i := range runs {
		reasons, err := r.runReasons(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Reasons = reasons
	}
	return runs, nil
}

func (r *Repository) runReasons(ctx context.Context, runID string) ([]ledger.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT reason, count FROM audit.run_reasons
		WHERE run_id = $1
		ORDER BY count DESC, reason
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run reasons: %w", err)
	}
	defer rows.Close()

	entries := make([]ledger.Entry, 0)
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.Reason, &e.Count); err != nil {
			return nil, fmt.Errorf("failed to scan run reason: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RunDecisions returns the accepted notes of one run
func (r *Repository) RunDecisions(ctx context.Context, runID string) ([]pipeline.Decision, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT note_id, loan_id, price::text, reasons FROM audit.run_decisions
		WHERE run_id = $1
		ORDER BY note_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run decisions: %w", err)
	}
	defer rows.Close()

	decisions := make([]pipeline.Decision, 0)
	for rows.Next() {
		var d pipeline.Decision
		var price string
		if err := rows.Scan(&d.NoteID, &d.LoanID, &price, &d.Reasons); err != nil {
			return nil, fmt.Errorf("failed to scan run decision: %w", err)
		}
		if d.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid stored price %q: %w", price, err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return decisions, nil
}

// nonNil keeps a missing reason list from being stored as NULL
func nonNil(reasons []string) []string {
	if reasons == nil {
		return []string{}
	}
	return reasons
}
