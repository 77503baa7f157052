package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidBounds is returned when the markup range is empty after rounding
	ErrInvalidBounds = errors.New("invalid price bounds")

	// ErrNoEstimator is returned when a search is attempted without an estimator
	ErrNoEstimator = errors.New("no sell-probability estimator")
)

// Estimator predicts the probability that a listing sells at the price in f
type Estimator interface {
	SellProbability(f Features) (float64, error)
}

var cent = decimal.New(1, -2)

// Bounds converts a markup range into cent-rounded prices on par. A bound
// pushed outside its markup limit by rounding moves one cent inward.
func Bounds(par decimal.Decimal, minMarkup, maxMarkup float64) (decimal.Decimal, decimal.Decimal, error) {
	if !par.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("par value %s: %w", par, ErrInvalidBounds)
	}

	minM := decimal.NewFromFloat(minMarkup)
	maxM := decimal.NewFromFloat(maxMarkup)

	lo := par.Mul(minM).Round(2)
	if lo.Div(par).LessThan(minM) {
		lo = lo.Add(cent)
	}
	hi := par.Mul(maxM).Round(2)
	if hi.Div(par).GreaterThan(maxM) {
		hi = hi.Sub(cent)
	}

	if lo.GreaterThan(hi) {
		return lo, hi, fmt.Errorf("[%s, %s]: %w", lo, hi, ErrInvalidBounds)
	}
	return lo, hi, nil
}

// SearchSalePrice walks upward from the minimum price in increments of step
// while the estimator stays at or above confidence, and returns the last price
// that held. The minimum is returned when the first probe already fails, and
// the maximum when every probe passes. The result is always within Bounds.
func SearchSalePrice(est Estimator, f Features, confidence, minMarkup, maxMarkup, step float64) (decimal.Decimal, error) {
	if est == nil {
		return decimal.Zero, ErrNoEstimator
	}
	if step <= 0 {
		return decimal.Zero, fmt.Errorf("step %v: %w", step, ErrInvalidBounds)
	}

	par := decimal.NewFromFloat(f[FeaturePrincipalPlusInterest])
	lo, hi, err := Bounds(par, minMarkup, maxMarkup)
	if err != nil {
		return decimal.Zero, err
	}

	passes := func(p decimal.Decimal) (bool, error) {
		prob, err := est.SellProbability(f.WithPrice(p))
		if err != nil {
			return false, fmt.Errorf("estimate at %s: %w", p, err)
		}
		return prob >= confidence, nil
	}

	stepD := decimal.NewFromFloat(step)
	best := lo
	for p := lo; p.LessThanOrEqual(hi); p = p.Add(stepD) {
		ok, err := passes(p)
		if err != nil {
			return decimal.Zero, err
		}
		if !ok {
			return best, nil
		}
		best = p
	}

	// The last step can land short of hi.
	if best.LessThan(hi) {
		ok, err := passes(hi)
		if err != nil {
			return decimal.Zero, err
		}
		if ok {
			best = hi
		}
	}
	return best, nil
}
