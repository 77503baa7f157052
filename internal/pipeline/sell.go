package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/notetrader/internal/ledger"
	"github.com/wonny/notetrader/internal/note"
	"github.com/wonny/notetrader/internal/strategy"
)

// SellResult is the outcome of a sell run
type SellResult struct {
	RunID      string
	Strategy   string
	Candidates int // sellable notes not already listed
	Examined   int // leading fraction of the candidates
	Orders     []SellOrder
	Reasons    []ledger.Entry
}

// Notes returns the accepted notes in acceptance order
func (r *SellResult) Notes() []*note.Note {
	notes := make([]*note.Note, len(r.Orders))
	for i, o := range r.Orders {
		notes[i] = o.Note
	}
	return notes
}

type staleNote struct {
	note      *note.Note
	fetchedAt time.Time
}

// RunSellStrategy selects owned notes to list for sale. Candidates are the
// sellable notes not already listed, least recently refreshed first; only the
// leading fraction of them is examined. Each accepted note is priced at the
// given markup or by the pricer's search.
func (p *Pipeline) RunSellStrategy(ctx context.Context, s strategy.Strategy, markup, fraction float64) (*SellResult, error) {
	if math.IsNaN(fraction) || fraction < 0 || fraction > 1 {
		return nil, fmt.Errorf("%v: %w", fraction, ErrInvalidFraction)
	}

	r := p.startRun(KindSell, s.Name())
	r.log.WithFields(map[string]interface{}{
		"markup":   markup,
		"fraction": fraction,
	}).Info("Sell run started")

	notes, err := p.session.LoadActiveNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active notes: %w", err)
	}
	selling, err := p.session.AlreadySellingIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load listed notes: %w", err)
	}

	candidates := make([]staleNote, 0, len(notes))
	for _, n := range notes {
		if _, ok := selling[n.NoteID]; ok {
			continue
		}
		if !p.eval.CanSell(n) {
			continue
		}
		at, _, err := p.session.DetailFetchedAt(ctx, n)
		if err != nil {
			if isInterrupt(ctx, err) {
				return nil, err
			}
			// Unknown refresh time sorts first.
			at = time.Time{}
		}
		candidates = append(candidates, staleNote{note: n, fetchedAt: at})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].fetchedAt.Before(candidates[j].fetchedAt)
	})

	window := candidates[:int(math.Ceil(float64(len(candidates))*fraction))]

	result := &SellResult{
		RunID:      r.id,
		Strategy:   r.strategy,
		Candidates: len(candidates),
		Examined:   len(window),
	}
	var decisions []Decision

	for _, c := range window {
		n := c.note
		accepted, err := evaluate(func() (bool, error) {
			return p.evaluateSell(ctx, s, n, r.ledger)
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

		price, err := p.pricer.SalePrice(n, markup)
		if err != nil {
			if err := r.recordFailure(ctx, n, fmt.Errorf("price: %w", err)); err != nil {
				return nil, err
			}
			continue
		}

		reasons, err := p.eval.SellReasons(n)
		if err != nil {
			r.log.WithError(err).WithField("note_id", n.NoteID).Debug("Sell reasons incomplete")
		}

		r.ledger.Add(ledger.Accepted)
		result.Orders = append(result.Orders, SellOrder{Note: n, Price: price, Reasons: reasons})
		decisions = append(decisions, Decision{NoteID: n.NoteID, LoanID: n.LoanID, Price: price, Reasons: reasons})
	}

	rec := p.finish(ctx, r, result.Examined, decisions)
	result.Reasons = rec.Reasons

	r.log.WithFields(map[string]interface{}{
		"candidates": result.Candidates,
		"examined":   result.Examined,
		"accepted":   len(result.Orders),
		"errors":     r.ledger.Count(ledger.Error),
	}).Info("Sell run finished")

	return result, nil
}

func (p *Pipeline) evaluateSell(ctx context.Context, s strategy.Strategy, n *note.Note, l *ledger.Ledger) (bool, error) {
	if !s.InitialFilter(n, l) {
		return false, nil
	}
	if err := p.attachDetail(ctx, n, true, time.Time{}); err != nil {
		return false, err
	}
	if !s.InitialFilter(n, l) {
		return false, nil
	}
	return s.DetailsFilter(n, l)
}

// ExecuteSell lists the accepted notes of res
func (p *Pipeline) ExecuteSell(ctx context.Context, res *SellResult) error {
	if res == nil || len(res.Orders) == 0 {
		return nil
	}
	if err := p.session.ExecuteSell(ctx, res.Orders); err != nil {
		return fmt.Errorf("execute sell: %w", err)
	}
	p.logger.WithRun(res.RunID, KindSell).WithField("orders", len(res.Orders)).Info("Sell orders submitted")
	return nil
}
