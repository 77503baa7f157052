package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/calendar"
	"github.com/wonny/notetrader/internal/ledger"
	"github.com/wonny/notetrader/internal/note"
	"github.com/wonny/notetrader/internal/rules"
	"github.com/wonny/notetrader/internal/strategy"
	"github.com/wonny/notetrader/internal/timing"
)

// Wednesday 2024-03-06 10:00
var testNow = time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC)

func testEvaluator() *rules.Evaluator {
	return rules.NewEvaluator(timing.Default(), func() time.Time { return testNow })
}

func daysFromNow(n int) *time.Time {
	d := calendar.AddDays(testNow, n)
	return &d
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type fakeSession struct {
	active    []*note.Note
	inventory []*note.Note
	cash      decimal.Decimal
	selling   map[int64]struct{}
	owned     map[int64]struct{}

	details   map[int64]*note.Detail
	fetchedAt map[int64]time.Time
	fetchErr  map[int64]error
	onFetch   func(n *note.Note) error

	fetched     []int64
	soldOrders  []SellOrder
	boughtNotes []*note.Note
	lastSearch  strategy.SearchOptions
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		selling:   make(map[int64]struct{}),
		owned:     make(map[int64]struct{}),
		details:   make(map[int64]*note.Detail),
		fetchedAt: make(map[int64]time.Time),
		fetchErr:  make(map[int64]error),
	}
}

func (f *fakeSession) LoadActiveNotes(ctx context.Context) ([]*note.Note, error) {
	return f.active, nil
}

func (f *fakeSession) LoadTradingInventory(ctx context.Context, opts strategy.SearchOptions) ([]*note.Note, error) {
	f.lastSearch = opts
	return f.inventory, nil
}

func (f *fakeSession) FetchDetail(ctx context.Context, n *note.Note) error {
	f.fetched = append(f.fetched, n.NoteID)
	if f.onFetch != nil {
		if err := f.onFetch(n); err != nil {
			return err
		}
	}
	if err := f.fetchErr[n.NoteID]; err != nil {
		return err
	}
	f.fetchedAt[n.NoteID] = testNow
	return nil
}

func (f *fakeSession) LoadDetail(ctx context.Context, n *note.Note) (*note.Detail, error) {
	if d, ok := f.details[n.NoteID]; ok {
		return d, nil
	}
	return &note.Detail{}, nil
}

func (f *fakeSession) DetailFetchedAt(ctx context.Context, n *note.Note) (time.Time, bool, error) {
	at, ok := f.fetchedAt[n.NoteID]
	return at, ok, nil
}

func (f *fakeSession) AvailableCash(ctx context.Context) (decimal.Decimal, error) {
	return f.cash, nil
}

func (f *fakeSession) AlreadySellingIDs(ctx context.Context) (map[int64]struct{}, error) {
	return f.selling, nil
}

func (f *fakeSession) OwnedLoanIDs(ctx context.Context) (map[int64]struct{}, error) {
	return f.owned, nil
}

func (f *fakeSession) ExecuteSell(ctx context.Context, orders []SellOrder) error {
	f.soldOrders = append(f.soldOrders, orders...)
	return nil
}

func (f *fakeSession) ExecuteBuy(ctx context.Context, notes []*note.Note) error {
	f.boughtNotes = append(f.boughtNotes, notes...)
	return nil
}

// acceptAll accepts every note it sees, or panics on the note id in panicOn
type acceptAll struct {
	strategy.BuyDefaults
	reserve decimal.Decimal
	panicOn int64
}

func (a *acceptAll) Name() string { return "accept_all" }

func (a *acceptAll) InitialFilter(n *note.Note, l *ledger.Ledger) bool { return true }

func (a *acceptAll) DetailsFilter(n *note.Note, l *ledger.Ledger) (bool, error) {
	if a.panicOn != 0 && n.NoteID == a.panicOn {
		panic("boom")
	}
	return true, nil
}

func (a *acceptAll) ReserveCash() decimal.Decimal { return a.reserve }

type memRecorder struct {
	runs []*RunRecord
	err  error
}

func (m *memRecorder) SaveRun(ctx context.Context, rec *RunRecord) error {
	m.runs = append(m.runs, rec)
	return m.err
}

var errService = errors.New("service unavailable")
