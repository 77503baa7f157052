package pipeline

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/note"
	"github.com/wonny/notetrader/internal/strategy"
)

// SellOrder is an accepted sale at its asking price.
// Reasons are the note's sell reasons at acceptance time.
type SellOrder struct {
	Note    *note.Note
	Price   decimal.Decimal
	Reasons []string
}

// Session is the note service as seen by a run. Loaders return summary-only
// notes; FetchDetail refreshes the cached detail document that LoadDetail parses.
// Nothing is committed to the service except through ExecuteSell and ExecuteBuy.
type Session interface {
	LoadActiveNotes(ctx context.Context) ([]*note.Note, error)
	LoadTradingInventory(ctx context.Context, opts strategy.SearchOptions) ([]*note.Note, error)

	FetchDetail(ctx context.Context, n *note.Note) error
	LoadDetail(ctx context.Context, n *note.Note) (*note.Detail, error)
	// DetailFetchedAt reports when the cached detail was last refreshed
	DetailFetchedAt(ctx context.Context, n *note.Note) (time.Time, bool, error)

	AvailableCash(ctx context.Context) (decimal.Decimal, error)
	AlreadySellingIDs(ctx context.Context) (map[int64]struct{}, error)
	OwnedLoanIDs(ctx context.Context) (map[int64]struct{}, error)

	ExecuteSell(ctx context.Context, orders []SellOrder) error
	ExecuteBuy(ctx context.Context, notes []*note.Note) error
}
