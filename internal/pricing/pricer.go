package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/note"
)

// Params are the price search settings of a sell run
type Params struct {
	Confidence float64
	MinMarkup  float64
	MaxMarkup  float64
	Step       float64
}

// Pricer prices sales. The estimator is optional; without one every note is
// priced at the fixed markup.
type Pricer struct {
	est    Estimator
	params Params
}

// NewPricer creates a pricer. est may be nil.
func NewPricer(est Estimator, params Params) *Pricer {
	return &Pricer{est: est, params: params}
}

// HasEstimator reports whether prices come from a search
func (p *Pricer) HasEstimator() bool {
	return p != nil && p.est != nil
}

// FixedPrice is par × markup, rounded to cents
func FixedPrice(n *note.Note, markup float64) decimal.Decimal {
	return n.ParValue().Mul(decimal.NewFromFloat(markup)).Round(2)
}

// SalePrice returns the asking price for n. A note whose features are
// incomplete is priced at the fixed markup.
func (p *Pricer) SalePrice(n *note.Note, markup float64) (decimal.Decimal, error) {
	if !p.HasEstimator() {
		return FixedPrice(n, markup), nil
	}

	f, err := FeaturesFromNote(n)
	if errors.Is(err, ErrIncompleteFeatures) {
		return FixedPrice(n, markup), nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return SearchSalePrice(p.est, f, p.params.Confidence, p.params.MinMarkup, p.params.MaxMarkup, p.params.Step)
}
