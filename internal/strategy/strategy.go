// Package strategy defines the pluggable sell and buy policies.
package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/ledger"
	"github.com/wonny/notetrader/internal/note"
)

// Strategy is a two-phase filter. InitialFilter sees summary fields only and
// must be cheap; DetailsFilter runs after the note's history is attached.
// Both record rejection reasons in the run's ledger.
type Strategy interface {
	Name() string
	InitialFilter(n *note.Note, l *ledger.Ledger) bool
	DetailsFilter(n *note.Note, l *ledger.Ledger) (bool, error)
}

// SearchOptions narrow the trading inventory download
type SearchOptions struct {
	MinRate     float64
	MaxRate     float64 // 0 = no limit
	MaxMarkup   float64 // 0 = no limit
	NeverLate   bool
	Statuses    []string
	MaxAskPrice decimal.Decimal // zero = no limit
}

// BuyStrategy adds the buy run's configuration to Strategy
type BuyStrategy interface {
	Strategy
	SearchOptions() SearchOptions
	ReserveCash() decimal.Decimal
	// SortKey orders the inventory; lower keys are considered first
	SortKey(n *note.Note) float64
}

// BuyDefaults supplies the optional BuyStrategy methods. Embed it and
// override only what differs.
type BuyDefaults struct{}

// SearchOptions returns an unrestricted search
func (BuyDefaults) SearchOptions() SearchOptions {
	return SearchOptions{}
}

// ReserveCash keeps nothing back
func (BuyDefaults) ReserveCash() decimal.Decimal {
	return decimal.Zero
}

// SortKey puts the cheapest notes relative to par first
func (BuyDefaults) SortKey(n *note.Note) float64 {
	return n.Markup()
}
