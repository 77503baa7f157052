package pipeline

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/ledger"
)

// Run kinds
const (
	KindSell = "sell"
	KindBuy  = "buy"
)

// RunRecord is the audit view of one finished run
type RunRecord struct {
	RunID      string
	Kind       string
	Strategy   string
	ConfigHash string
	StartedAt  time.Time
	FinishedAt time.Time
	Examined   int
	Decisions  []Decision
	Reasons    []ledger.Entry
}

// Decision is one accepted note and the price it was accepted at.
// Sell decisions carry the note's sell reasons.
type Decision struct {
	NoteID  int64
	LoanID  int64
	Price   decimal.Decimal
	Reasons []string
}

// Recorder persists run records
type Recorder interface {
	SaveRun(ctx context.Context, rec *RunRecord) error
}
