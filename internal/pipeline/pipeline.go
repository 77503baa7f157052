// Package pipeline runs strategies over the note service: cheap summary
// filtering first, detail loading and the final filter only for survivors.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/notetrader/internal/ledger"
	"github.com/wonny/notetrader/internal/note"
	"github.com/wonny/notetrader/internal/pricing"
	"github.com/wonny/notetrader/internal/rules"
	"github.com/wonny/notetrader/pkg/logger"
)

// DefaultDetailMaxAge is how long a cached detail document stays usable for buying
const DefaultDetailMaxAge = 14 * 24 * time.Hour

var (
	// ErrBudgetExhausted aborts a buy run whose cash does not exceed the reserve
	ErrBudgetExhausted = errors.New("buy budget exhausted")

	// ErrInvalidFraction is returned for a sell fraction outside [0, 1]
	ErrInvalidFraction = errors.New("fraction must be within [0, 1]")
)

// Pipeline drives sell and buy runs against one session.
// ⭐ SSOT: accepted sets reach the service only through ExecuteSell/ExecuteBuy
type Pipeline struct {
	session      Session
	eval         *rules.Evaluator
	pricer       *pricing.Pricer
	recorder     Recorder
	pacer        *Pacer
	logger       *logger.Logger
	detailMaxAge time.Duration
	configHash   string
	newRunID     func() string
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithPricer sets the sale pricer. Without one, sells use the fixed markup.
func WithPricer(p *pricing.Pricer) Option {
	return func(pl *Pipeline) { pl.pricer = p }
}

// WithRecorder persists every finished run
func WithRecorder(r Recorder) Option {
	return func(pl *Pipeline) { pl.recorder = r }
}

// WithPacer sets the detail fetch pacing
func WithPacer(p *Pacer) Option {
	return func(pl *Pipeline) { pl.pacer = p }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(pl *Pipeline) { pl.logger = l }
}

// WithDetailMaxAge sets how old a cached detail may be before a buy run refetches it
func WithDetailMaxAge(d time.Duration) Option {
	return func(pl *Pipeline) {
		if d > 0 {
			pl.detailMaxAge = d
		}
	}
}

// WithConfigHash tags run records with the strategy configuration hash
func WithConfigHash(hash string) Option {
	return func(pl *Pipeline) { pl.configHash = hash }
}

// New creates a pipeline
func New(session Session, eval *rules.Evaluator, opts ...Option) *Pipeline {
	p := &Pipeline{
		session:      session,
		eval:         eval,
		pricer:       pricing.NewPricer(nil, pricing.Params{}),
		pacer:        NewPacer(0),
		logger:       logger.Nop(),
		detailMaxAge: DefaultDetailMaxAge,
		newRunID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run is the per-invocation state. The ledger is never shared between runs.
type run struct {
	id       string
	kind     string
	strategy string
	started  time.Time
	ledger   *ledger.Ledger
	log      *logger.Logger
}

func (p *Pipeline) startRun(kind, strategyName string) *run {
	id := p.newRunID()
	return &run{
		id:       id,
		kind:     kind,
		strategy: strategyName,
		started:  p.eval.Now(),
		ledger:   ledger.New(),
		log:      p.logger.WithRun(id, kind).WithField("strategy", strategyName),
	}
}

// evaluate runs one record's decision. Panics become errors so a single bad
// record cannot end the run.
func evaluate(fn func() (bool, error)) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// isInterrupt distinguishes a cancelled run from a record-level failure
func isInterrupt(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// recordFailure counts a record-level failure, or returns the error when the
// run itself was interrupted
func (r *run) recordFailure(ctx context.Context, n *note.Note, err error) error {
	if isInterrupt(ctx, err) {
		return err
	}
	r.ledger.Add(ledger.Error)
	r.log.WithError(err).WithField("note_id", n.NoteID).Warn("Note evaluation failed")
	return nil
}

// attachDetail loads the cached detail into n, fetching it first when refresh is set
func (p *Pipeline) attachDetail(ctx context.Context, n *note.Note, refresh bool, fetchedAt time.Time) error {
	if refresh {
		if err := p.pacer.Wait(ctx); err != nil {
			return err
		}
		if err := p.session.FetchDetail(ctx, n); err != nil {
			return fmt.Errorf("fetch detail: %w", err)
		}
		fetchedAt = p.eval.Now()
	}

	d, err := p.session.LoadDetail(ctx, n)
	if err != nil {
		return fmt.Errorf("load detail: %w", err)
	}
	n.AttachDetail(d, fetchedAt)
	return nil
}

func (p *Pipeline) record(ctx context.Context, rec *RunRecord) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.SaveRun(ctx, rec); err != nil {
		p.logger.WithRun(rec.RunID, rec.Kind).WithError(err).Warn("Failed to record run")
	}
}

func (p *Pipeline) finish(ctx context.Context, r *run, examined int, decisions []Decision) *RunRecord {
	rec := &RunRecord{
		RunID:      r.id,
		Kind:       r.kind,
		Strategy:   r.strategy,
		ConfigHash: p.configHash,
		StartedAt:  r.started,
		FinishedAt: p.eval.Now(),
		Examined:   examined,
		Decisions:  decisions,
		Reasons:    r.ledger.Snapshot(),
	}
	p.record(ctx, rec)
	return rec
}
