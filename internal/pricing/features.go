// Package pricing searches for the highest asking price a sell-probability
// estimator still accepts.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/note"
)

// ErrIncompleteFeatures is returned when a note lacks a field the estimator needs
var ErrIncompleteFeatures = errors.New("incomplete feature vector")

// Feature indexes, in the estimator's column order
const (
	FeatureAskPrice = iota
	FeatureCreditScoreTrend
	FeatureDaysSinceLastPayment
	FeatureFICOEndLow
	FeatureInterestRate
	FeatureMarkupDiscount
	FeatureNeverLate
	FeaturePrincipalPlusInterest
	FeatureRemainingPayments
	FeatureStatus

	NumFeatures
)

// FeatureNames maps each index to the column name used in model files
var FeatureNames = [NumFeatures]string{
	"AskPrice",
	"CreditScoreTrend",
	"DaysSinceLastPayment",
	"FICOEndRange",
	"InterestRate",
	"MarkupDiscount",
	"NeverLate",
	"PrincipalPlusInterest",
	"RemainingPayments",
	"Status",
}

var statusCodes = map[note.Status]float64{
	note.StatusIssued:        0,
	note.StatusCurrent:       1,
	note.StatusInGracePeriod: 2,
	note.StatusLate16To30:    3,
	note.StatusLate31To120:   4,
}

var trendCodes = map[note.CreditTrend]float64{
	note.TrendDown: -1,
	note.TrendFlat: 0,
	note.TrendUp:   1,
}

// Features is one estimator input row
type Features [NumFeatures]float64

// FeaturesFromNote builds the input row of n. Fields missing from the summary
// are derived from the loaded detail where possible.
func FeaturesFromNote(n *note.Note) (Features, error) {
	var f Features

	par := n.ParValue()
	if !par.IsPositive() {
		return f, fmt.Errorf("note %d: par value %s: %w", n.NoteID, par, ErrIncompleteFeatures)
	}
	status, ok := statusCodes[n.Status]
	if !ok {
		return f, fmt.Errorf("note %d: status %q: %w", n.NoteID, n.Status, ErrIncompleteFeatures)
	}

	d := n.Detail()

	fico, ok := ficoEndLow(n, d)
	if !ok {
		return f, fmt.Errorf("note %d: fico: %w", n.NoteID, ErrIncompleteFeatures)
	}
	remaining, ok := remainingPayments(n, d)
	if !ok {
		return f, fmt.Errorf("note %d: remaining payments: %w", n.NoteID, ErrIncompleteFeatures)
	}

	f[FeatureStatus] = status
	f[FeatureCreditScoreTrend] = trendCodes[n.CreditTrend]
	f[FeatureDaysSinceLastPayment] = -1
	if n.DaysSinceLastPayment != nil {
		f[FeatureDaysSinceLastPayment] = float64(*n.DaysSinceLastPayment)
	}
	f[FeatureFICOEndLow] = float64(fico)
	f[FeatureInterestRate] = n.InterestRate * 100
	if neverLate(n, d) {
		f[FeatureNeverLate] = 1
	}
	f[FeaturePrincipalPlusInterest] = par.InexactFloat64()
	f[FeatureRemainingPayments] = float64(remaining)

	ask := par
	if n.AskPrice != nil {
		ask = *n.AskPrice
	}
	return f.WithPrice(ask), nil
}

// WithPrice returns a copy of f repriced at p, with the markup re-derived
func (f Features) WithPrice(p decimal.Decimal) Features {
	price := p.InexactFloat64()
	f[FeatureAskPrice] = price
	if value := f[FeaturePrincipalPlusInterest]; value > 0 {
		f[FeatureMarkupDiscount] = price/value*100 - 100
	}
	return f
}

func ficoEndLow(n *note.Note, d *note.Detail) (int, bool) {
	if n.FICOEndLow != nil {
		return *n.FICOEndLow, true
	}
	if d != nil && len(d.CreditHistory) > 0 {
		return d.CreditHistory[len(d.CreditHistory)-1].Low, true
	}
	return 0, false
}

func remainingPayments(n *note.Note, d *note.Detail) (int, bool) {
	if n.RemainingPayments != nil {
		return *n.RemainingPayments, true
	}
	if n.LoanMaturity == nil || d == nil {
		return 0, false
	}
	made := 0
	for _, p := range d.PaymentHistory {
		if strings.HasPrefix(p.Status, "Completed") {
			made++
		}
	}
	return *n.LoanMaturity - made, true
}

func neverLate(n *note.Note, d *note.Detail) bool {
	if n.NeverLate != nil {
		return *n.NeverLate
	}
	return d != nil && len(d.LatePayments()) == 0
}
