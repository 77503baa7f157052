package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/rules"
	"github.com/wonny/notetrader/internal/strategyconfig"
)

// NewSell builds the sell strategy named in the configuration
func NewSell(cfg *strategyconfig.Config, eval *rules.Evaluator) (Strategy, error) {
	switch cfg.Sell.Strategy {
	case strategyconfig.SellImperfect:
		return NewSellImperfect(eval), nil
	case strategyconfig.SellFlagged:
		return NewSellFlagged(eval), nil
	}
	return nil, fmt.Errorf("unknown sell strategy %q", cfg.Sell.Strategy)
}

// NewBuy builds the buy strategy named in the configuration
func NewBuy(cfg *strategyconfig.Config, eval *rules.Evaluator) (BuyStrategy, error) {
	if cfg.Buy.Strategy != strategyconfig.BuyConservative {
		return nil, fmt.Errorf("unknown buy strategy %q", cfg.Buy.Strategy)
	}

	b := cfg.Buy
	return NewBuyConservative(eval, BuyConfig{
		Options: rules.BuyOptions{
			MaxMarkup:               b.MaxMarkup,
			MaxPrice:                decimal.NewFromFloat(b.MaxPrice),
			FromRate:                b.FromRate,
			ToRate:                  b.ToRate,
			MaxDaysSinceLastPayment: b.MaxDaysSinceLastPayment,
			MinPaymentsReceived:     b.MinPaymentsReceived,
			MinCreditDelta:          b.MinCreditDelta,
			PaymentWindowDays:       b.PaymentWindowDays,
		},
		Search: SearchOptions{
			MinRate:     b.Search.MinRate,
			MaxRate:     b.Search.MaxRate,
			MaxMarkup:   b.Search.MaxMarkup,
			NeverLate:   b.Search.NeverLate,
			Statuses:    append([]string(nil), b.Search.Statuses...),
			MaxAskPrice: decimal.NewFromFloat(b.Search.MaxAskPrice),
		},
		Reserve: decimal.NewFromFloat(b.ReserveCash),
		SortBy:  SortBy(b.SortBy),
	}), nil
}
