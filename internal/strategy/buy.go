package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/ledger"
	"github.com/wonny/notetrader/internal/note"
	"github.com/wonny/notetrader/internal/rules"
)

// SortBy selects the inventory ordering of BuyConservative
type SortBy string

const (
	SortByMarkup SortBy = "markup" // ascending ask / par
	SortByRate   SortBy = "rate"   // descending interest rate
	SortByPrice  SortBy = "price"  // ascending ask
)

// BuyConservative buys current notes that pass every admission check and that
// the sell predicates would not immediately flag.
type BuyConservative struct {
	BuyDefaults

	eval    *rules.Evaluator
	opts    rules.BuyOptions
	search  SearchOptions
	reserve decimal.Decimal
	sortBy  SortBy
}

// BuyConfig configures BuyConservative
type BuyConfig struct {
	Options rules.BuyOptions
	Search  SearchOptions
	Reserve decimal.Decimal
	SortBy  SortBy
}

// NewBuyConservative creates the default buy strategy
func NewBuyConservative(eval *rules.Evaluator, cfg BuyConfig) *BuyConservative {
	return &BuyConservative{
		eval:    eval,
		opts:    cfg.Options,
		search:  cfg.Search,
		reserve: cfg.Reserve,
		sortBy:  cfg.SortBy,
	}
}

func (b *BuyConservative) Name() string { return "buy_conservative" }

func (b *BuyConservative) InitialFilter(n *note.Note, l *ledger.Ledger) bool {
	return b.eval.WantBuyNoDetails(n, b.opts, l)
}

func (b *BuyConservative) DetailsFilter(n *note.Note, l *ledger.Ledger) (bool, error) {
	return b.eval.WantBuy(n, b.opts, l)
}

// Options returns the admission thresholds
func (b *BuyConservative) Options() rules.BuyOptions {
	return b.opts
}

func (b *BuyConservative) SearchOptions() SearchOptions {
	return b.search
}

func (b *BuyConservative) ReserveCash() decimal.Decimal {
	return b.reserve
}

func (b *BuyConservative) SortKey(n *note.Note) float64 {
	switch b.sortBy {
	case SortByRate:
		return -n.InterestRate
	case SortByPrice:
		if n.AskPrice == nil {
			return n.Markup()
		}
		return n.AskPrice.InexactFloat64()
	}
	return b.BuyDefaults.SortKey(n)
}
