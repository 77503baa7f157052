package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/calendar"
	"github.com/wonny/notetrader/internal/ledger"
	"github.com/wonny/notetrader/internal/note"
)

// Buy rejection reasons recorded in the ledger
const (
	ReasonAlreadyOwned       = "already owned"
	ReasonNotCurrent         = "status not current"
	ReasonNoAskingPrice      = "no asking price"
	ReasonMarkupCeiling      = "markup exceeds ceiling"
	ReasonPriceMax           = "price exceeds max"
	ReasonRateRange          = "rate out of range"
	ReasonDaysSincePayment   = "days since payment exceeds max"
	ReasonTooFewPayments     = "too few payments received"
	ReasonMissingDetails     = "missing details"
	ReasonNextPaymentUnknown = "next payment unknown"
	ReasonPaymentSoon        = "payment expected soon"
	ReasonCreditFloor        = "credit drop below floor"
	ReasonWouldSell          = "would sell"
)

// DefaultPaymentWindowDays is how far ahead a due payment blocks a purchase
const DefaultPaymentWindowDays = 5

// BuyOptions are the admission thresholds of a buy strategy.
// Zero values disable the limits marked optional.
type BuyOptions struct {
	MaxMarkup               float64         // ask / par ceiling
	MaxPrice                decimal.Decimal // optional
	FromRate                float64         // inclusive, fraction
	ToRate                  float64         // exclusive, fraction; optional
	MaxDaysSinceLastPayment int             // optional
	MinPaymentsReceived     int             // optional
	MinCreditDelta          int             // credit_delta_min floor
	PaymentWindowDays       int             // defaults to DefaultPaymentWindowDays
}

// WantBuyNoDetails is the summary-only admission filter. The first failing
// check is recorded in l.
func (e *Evaluator) WantBuyNoDetails(n *note.Note, opts BuyOptions, l *ledger.Ledger) bool {
	reject := func(reason string) bool {
		l.Add(reason)
		return false
	}

	if n.Owned {
		return reject(ReasonAlreadyOwned)
	}
	if n.Status != note.StatusCurrent {
		return reject(ReasonNotCurrent)
	}
	if n.AskPrice == nil {
		return reject(ReasonNoAskingPrice)
	}
	if n.Markup() > opts.MaxMarkup {
		return reject(ReasonMarkupCeiling)
	}
	if opts.MaxPrice.IsPositive() && n.AskPrice.GreaterThan(opts.MaxPrice) {
		return reject(ReasonPriceMax)
	}
	if n.InterestRate < opts.FromRate || (opts.ToRate > 0 && n.InterestRate >= opts.ToRate) {
		return reject(ReasonRateRange)
	}
	if opts.MaxDaysSinceLastPayment > 0 && n.DaysSinceLastPayment != nil &&
		*n.DaysSinceLastPayment > opts.MaxDaysSinceLastPayment {
		return reject(ReasonDaysSincePayment)
	}
	if opts.MinPaymentsReceived > 0 {
		made, ok := n.PaymentsMade()
		if !ok || made < opts.MinPaymentsReceived {
			return reject(ReasonTooFewPayments)
		}
	}
	return true
}

// WantBuy is the full admission filter over a detail-loaded note
func (e *Evaluator) WantBuy(n *note.Note, opts BuyOptions, l *ledger.Ledger) (bool, error) {
	if !e.WantBuyNoDetails(n, opts, l) {
		return false, nil
	}
	if !n.HasDetail() {
		l.Add(ReasonMissingDetails)
		return false, nil
	}
	if n.NextPayment == nil {
		l.Add(ReasonNextPaymentUnknown)
		return false, nil
	}

	window := opts.PaymentWindowDays
	if window <= 0 {
		window = DefaultPaymentWindowDays
	}
	p, err := e.timing.PaymentProbability(*n.NextPayment, calendar.AddDays(e.Today(), window))
	if err != nil {
		return false, fmt.Errorf("note %d: %w", n.NoteID, err)
	}
	if p > 0 {
		l.Add(ReasonPaymentSoon)
		return false, nil
	}

	if n.CreditDeltaMin() < opts.MinCreditDelta {
		l.Add(ReasonCreditFloor)
		return false, nil
	}

	sell, err := e.WantSell(n)
	if err != nil {
		return false, err
	}
	if sell {
		l.Add(ReasonWouldSell)
		return false, nil
	}
	return true, nil
}
