package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/ledger"
	"github.com/wonny/notetrader/internal/note"
	"github.com/wonny/notetrader/internal/strategy"
)

// Buy skip reasons recorded by the pipeline itself
const (
	ReasonLoanHeld   = "loan already held"
	ReasonOverBudget = "price exceeds remaining cash"
)

// BuyResult is the outcome of a buy run
type BuyResult struct {
	RunID       string
	Strategy    string
	Budget      decimal.Decimal // available cash minus reserve
	Remaining   decimal.Decimal
	Examined    int
	Notes       []*note.Note
	HeldLoanIDs map[int64]struct{}
	Reasons     []ledger.Entry
}

// RunBuyStrategy selects inventory notes to buy within the cash budget.
// Notes are visited in SortKey order; a note is skipped when its loan is
// already held or its price exceeds the remaining budget.
func (p *Pipeline) RunBuyStrategy(ctx context.Context, s strategy.BuyStrategy) (*BuyResult, error) {
	r := p.startRun(KindBuy, s.Name())

	cash, err := p.session.AvailableCash(ctx)
	if err != nil {
		return nil, fmt.Errorf("load available cash: %w", err)
	}
	reserve := s.ReserveCash()
	budget := cash.Sub(reserve)
	if !budget.IsPositive() {
		r.log.WithFields(map[string]interface{}{
			"cash":    cash.StringFixed(2),
			"reserve": reserve.StringFixed(2),
		}).Info("Buy run skipped, no cash above reserve")
		return nil, fmt.Errorf("cash %s, reserve %s: %w", cash.StringFixed(2), reserve.StringFixed(2), ErrBudgetExhausted)
	}

	inventory, err := p.session.LoadTradingInventory(ctx, s.SearchOptions())
	if err != nil {
		return nil, fmt.Errorf("load trading inventory: %w", err)
	}
	held, err := p.session.OwnedLoanIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load owned loans: %w", err)
	}
	if held == nil {
		held = make(map[int64]struct{})
	}

	keys := make(map[*note.Note]float64, len(inventory))
	for _, n := range inventory {
		keys[n] = s.SortKey(n)
	}
	sort.SliceStable(inventory, func(i, j int) bool {
		return keys[inventory[i]] < keys[inventory[j]]
	})

	r.log.WithFields(map[string]interface{}{
		"budget":    budget.StringFixed(2),
		"inventory": len(inventory),
	}).Info("Buy run started")

	result := &BuyResult{
		RunID:       r.id,
		Strategy:    r.strategy,
		Budget:      budget,
		HeldLoanIDs: held,
	}
	var decisions []Decision

	for _, n := range inventory {
		if _, ok := held[n.LoanID]; ok {
			r.ledger.Add(ReasonLoanHeld)
			continue
		}
		if n.AskPrice != nil && n.AskPrice.GreaterThan(budget) {
			r.ledger.Add(ReasonOverBudget)
			continue
		}

		result.Examined++
		accepted, err := evaluate(func() (bool, error) {
			return p.evaluateBuy(ctx, s, n, r.ledger)
		})
		if err != nil {
			if err := r.recordFailure(ctx, n, err); err != nil {
				return nil, err
			}
			continue
		}
		if !accepted {
			continue
		}

		price := *n.AskPrice
		budget = budget.Sub(price)
		held[n.LoanID] = struct{}{}
		r.ledger.Add(ledger.Accepted)
		result.Notes = append(result.Notes, n)
		decisions = append(decisions, Decision{NoteID: n.NoteID, LoanID: n.LoanID, Price: price})
	}

	result.Remaining = budget
	rec := p.finish(ctx, r, result.Examined, decisions)
	result.Reasons = rec.Reasons

	r.log.WithFields(map[string]interface{}{
		"examined":  result.Examined,
		"accepted":  len(result.Notes),
		"remaining": budget.StringFixed(2),
		"errors":    r.ledger.Count(ledger.Error),
	}).Info("Buy run finished")

	return result, nil
}

func (p *Pipeline) evaluateBuy(ctx context.Context, s strategy.BuyStrategy, n *note.Note, l *ledger.Ledger) (bool, error) {
	if !s.InitialFilter(n, l) {
		return false, nil
	}
	if n.AskPrice == nil {
		return false, fmt.Errorf("note %d has no asking price", n.NoteID)
	}

	fetchedAt, cached, err := p.session.DetailFetchedAt(ctx, n)
	if err != nil {
		return false, fmt.Errorf("detail age: %w", err)
	}
	stale := !cached || p.eval.Now().Sub(fetchedAt) >= p.detailMaxAge
	if err := p.attachDetail(ctx, n, stale, fetchedAt); err != nil {
		return false, err
	}
	return s.DetailsFilter(n, l)
}

// ExecuteBuy submits the accepted notes of res
func (p *Pipeline) ExecuteBuy(ctx context.Context, res *BuyResult) error {
	if res == nil || len(res.Notes) == 0 {
		return nil
	}
	if err := p.session.ExecuteBuy(ctx, res.Notes); err != nil {
		return fmt.Errorf("execute buy: %w", err)
	}
	p.logger.WithRun(res.RunID, KindBuy).WithField("orders", len(res.Notes)).Info("Buy orders submitted")
	return nil
}
