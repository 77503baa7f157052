package audit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/notetrader/internal/ledger"
	"github.com/wonny/notetrader/internal/pipeline"
	"github.com/wonny/notetrader/pkg/config"
	"github.com/wonny/notetrader/pkg/database"
)

var _ pipeline.Recorder = (*Repository)(nil)

func openTestRepository(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("AUDIT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("AUDIT_TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := database.New(&config.Config{
		Database: config.DatabaseConfig{
			URL:             url,
			MaxConns:        2,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: time.Minute,
		},
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo := NewRepository(db.Pool)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestSaveRunRoundTrip(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Second)
	rec := &pipeline.RunRecord{
		RunID:      uuid.NewString(),
		Kind:       pipeline.KindBuy,
		Strategy:   "buy_conservative",
		ConfigHash: "deadbeef",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Examined:   4,
		Decisions: []pipeline.Decision{
			{NoteID: 1, LoanID: 10, Price: decimal.RequireFromString("20.00"), Reasons: []string{"late payment", "credit drop >80"}},
			{NoteID: 2, LoanID: 20, Price: decimal.RequireFromString("15.25")},
		},
		Reasons: []ledger.Entry{
			{Reason: ledger.Accepted, Count: 2},
			{Reason: "markup exceeds ceiling", Count: 1},
		},
	}
	require.NoError(t, repo.SaveRun(ctx, rec))

	runs, err := repo.RecentRuns(ctx, 50)
	require.NoError(t, err)

	var found *RunSummary
	for i := range runs {
		if runs[i].RunID == rec.RunID {
			found = &runs[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 2, found.Accepted)
	assert.Equal(t, 4, found.Examined)
	assert.Equal(t, rec.Reasons, found.Reasons)

	decisions, err := repo.RunDecisions(ctx, rec.RunID)
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, []string{"late payment", "credit drop >80"}, decisions[0].Reasons)
	assert.True(t, decisions[1].Price.Equal(decimal.RequireFromString("15.25")))
	assert.Empty(t, decisions[1].Reasons)
}

func TestSaveRunDuplicateIsRejected(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	rec := &pipeline.RunRecord{
		RunID:      uuid.NewString(),
		Kind:       pipeline.KindSell,
		Strategy:   "sell_imperfect",
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}
	require.NoError(t, repo.SaveRun(ctx, rec))
	assert.Error(t, repo.SaveRun(ctx, rec))
}
