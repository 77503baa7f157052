package strategy

import (
	"github.com/wonny/notetrader/internal/ledger"
	"github.com/wonny/notetrader/internal/note"
	"github.com/wonny/notetrader/internal/rules"
)

// ReasonCannotSell is recorded when a note stops being sellable after its detail loads
const ReasonCannotSell = "cannot sell"

// SellImperfect sells every sellable note with any imperfection in its history:
// collections activity, late or grace-period payments, or a large credit drop.
type SellImperfect struct {
	eval *rules.Evaluator
}

// NewSellImperfect creates the default sell strategy
func NewSellImperfect(eval *rules.Evaluator) *SellImperfect {
	return &SellImperfect{eval: eval}
}

func (s *SellImperfect) Name() string { return "sell_imperfect" }

func (s *SellImperfect) InitialFilter(n *note.Note, l *ledger.Ledger) bool {
	return s.eval.CanSell(n)
}

func (s *SellImperfect) DetailsFilter(n *note.Note, l *ledger.Ledger) (bool, error) {
	if !s.eval.CanSell(n) {
		l.Add(ReasonCannotSell)
		return false, nil
	}

	d := n.Detail()
	for _, classify := range []func(*note.Detail) string{
		rules.CollectionReason,
		rules.LateReason,
		rules.CreditReason,
	} {
		if reason := classify(d); reason != "" {
			l.Add(reason)
			return true, nil
		}
	}
	return false, nil
}

// SellFlagged sells the notes the sell predicates flag, including notes whose
// payment is probably overdue.
type SellFlagged struct {
	eval *rules.Evaluator
}

// NewSellFlagged creates a sell strategy over WantSell
func NewSellFlagged(eval *rules.Evaluator) *SellFlagged {
	return &SellFlagged{eval: eval}
}

func (s *SellFlagged) Name() string { return "sell_flagged" }

func (s *SellFlagged) InitialFilter(n *note.Note, l *ledger.Ledger) bool {
	return s.eval.CanSell(n)
}

func (s *SellFlagged) DetailsFilter(n *note.Note, l *ledger.Ledger) (bool, error) {
	if !s.eval.CanSell(n) {
		l.Add(ReasonCannotSell)
		return false, nil
	}
	reasons, err := s.eval.SellReasons(n)
	if err != nil {
		return false, err
	}
	for _, r := range reasons {
		l.Add(r)
	}
	return len(reasons) > 0, nil
}
