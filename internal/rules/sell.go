package rules

import (
	"fmt"

	"github.com/wonny/notetrader/internal/calendar"
	"github.com/wonny/notetrader/internal/note"
)

// Sell reason tags
const (
	ReasonFailedPayment = "failed payment"
	ReasonCollections   = "collections activity"
	ReasonLatePayment   = "late payment"
	ReasonGracePeriod   = "payment in grace period"
	ReasonCreditDrop120 = "credit drop >120"
	ReasonCreditDrop80  = "credit drop >80"
	ReasonOverdue99     = "expected payment overdue >99%"
	ReasonOverdue90     = "expected payment overdue >90%"
)

// Credit drop thresholds, in score points
const (
	CreditDropSevere   = -120
	CreditDropModerate = -80
)

// Sale is never attempted within this many days after a missed due date
const recentDueDays = 7

// CanSell reports whether n may be listed for sale now: not terminal, next payment
// known, no bankruptcy, and not within the payment boundary [today-7, today].
func (e *Evaluator) CanSell(n *note.Note) bool {
	if n.Status.Terminal() {
		return false
	}
	if n.NextPayment == nil {
		return false
	}
	if n.InBankruptcy() {
		return false
	}
	days := calendar.DaysBetween(e.Today(), *n.NextPayment)
	return days > 0 || days < -recentDueDays
}

// CollectionReason classifies a non-empty collection log, or returns ""
func CollectionReason(d *note.Detail) string {
	if d == nil || len(d.CollectionLog) == 0 {
		return ""
	}
	if d.HasFailedPayment() {
		return ReasonFailedPayment
	}
	return ReasonCollections
}

// LateReason classifies the payment history, or returns ""
func LateReason(d *note.Detail) string {
	if d == nil {
		return ""
	}
	late := d.LatePayments()
	if len(late) == 0 {
		return ""
	}
	for _, p := range late {
		if p.Status != note.PaymentCompletedGrace {
			return ReasonLatePayment
		}
	}
	return ReasonGracePeriod
}

// CreditReason classifies the credit movement, or returns ""
func CreditReason(d *note.Detail) string {
	if d == nil || len(d.CreditHistory) == 0 {
		return ""
	}
	delta := d.CreditDeltaMin()
	switch {
	case delta < CreditDropSevere:
		return ReasonCreditDrop120
	case delta < CreditDropModerate:
		return ReasonCreditDrop80
	}
	return ""
}

// SellReasons lists why n should be sold, in fixed priority order.
// History that has not been loaded triggers nothing.
func (e *Evaluator) SellReasons(n *note.Note) ([]string, error) {
	if n.Status == note.StatusFullyPaid {
		return nil, nil
	}

	var reasons []string
	d := n.Detail()

	if r := CollectionReason(d); r != "" {
		reasons = append(reasons, r)
	}
	if r := LateReason(d); r != "" {
		reasons = append(reasons, r)
	}
	if r := CreditReason(d); r != "" {
		reasons = append(reasons, r)
	}

	if n.NextPayment != nil {
		p, err := e.timing.PaymentProbability(*n.NextPayment, e.SettlementDay())
		if err != nil {
			return reasons, fmt.Errorf("note %d: %w", n.NoteID, err)
		}
		switch {
		case p > 0.99:
			reasons = append(reasons, ReasonOverdue99)
		case p > 0.90:
			reasons = append(reasons, ReasonOverdue90)
		}
	}

	return reasons, nil
}

// WantSell reports whether SellReasons is non-empty
func (e *Evaluator) WantSell(n *note.Note) (bool, error) {
	reasons, err := e.SellReasons(n)
	if err != nil {
		return false, err
	}
	return len(reasons) > 0, nil
}

// WantUpdate reports whether n's next payment has probably posted by today+days,
// making its detail worth refreshing. Notes in the "Bad" portfolio are ignored.
func (e *Evaluator) WantUpdate(n *note.Note, days int) (bool, error) {
	if n.NextPayment == nil || n.Portfolio == "Bad" {
		return false, nil
	}
	p, err := e.timing.PaymentProbability(*n.NextPayment, calendar.AddDays(e.Today(), days))
	if err != nil {
		return false, fmt.Errorf("note %d: %w", n.NoteID, err)
	}
	return p > 0.5, nil
}
