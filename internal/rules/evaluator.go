// Package rules holds the note decision predicates shared by every strategy.
package rules

import (
	"time"

	"github.com/wonny/notetrader/internal/calendar"
	"github.com/wonny/notetrader/internal/timing"
)

// SettlementCutoffHour is the local hour after which today's processing is over
const SettlementCutoffHour = 18

// Evaluator applies the predicates against a payment timing model and a clock
type Evaluator struct {
	timing *timing.Model
	now    func() time.Time
}

// NewEvaluator creates an evaluator. A nil clock means time.Now.
func NewEvaluator(model *timing.Model, now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{timing: model, now: now}
}

// Timing returns the payment timing model
func (e *Evaluator) Timing() *timing.Model {
	return e.timing
}

// Now returns the evaluator's current time
func (e *Evaluator) Now() time.Time {
	return e.now()
}

// Today returns the local calendar date
func (e *Evaluator) Today() time.Time {
	return calendar.Day(e.now())
}

// SettlementDay is today, or tomorrow from SettlementCutoffHour on,
// since payments posted late in the day only show up the next morning.
func (e *Evaluator) SettlementDay() time.Time {
	now := e.now()
	if now.Hour() >= SettlementCutoffHour {
		return calendar.AddDays(now, 1)
	}
	return calendar.Day(now)
}
