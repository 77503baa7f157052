package lendingclub

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/notetrader/internal/note"
	"github.com/wonny/notetrader/internal/pipeline"
	"github.com/wonny/notetrader/internal/strategy"
	"github.com/wonny/notetrader/pkg/config"
	"github.com/wonny/notetrader/pkg/httputil"
	"github.com/wonny/notetrader/pkg/logger"
	"github.com/wonny/notetrader/pkg/redis"
)

const detailHTML = `
<html><body>
<table id="trend-data">
	<tr><th>Score</th><th>Date</th></tr>
	<tr><td>760-764</td><td>01/05/2023</td></tr>
	<tr><td>700-704</td><td>01/05/2024</td></tr>
</table>
<table id="lcLoanPerfTable2">
	<tr><td>01/20/2024 (10:15 AM)</td><td>Failed payment received</td></tr>
</table>
<div id="lcLoanPerf1">
<table>
	<tr><th>Due</th><th>Completed</th><th>Principal</th><th>Interest</th><th>Status</th></tr>
	<tr><td>02/15/2024</td><td>--</td><td>$0.80</td><td>$0.30</td><td>Scheduled</td></tr>
	<tr><td>01/15/2024</td><td>01/17/2024</td><td>$0.79</td><td>$0.31</td><td>Completed - on time</td></tr>
</table>
</div>
</body></html>`

const tradingAccountHTML = `
<html><body>
<div>Available Cash <span id="available-cash"> $1,234.56 </span></div>
<table id="loans-1">
	<tr><th>Note ID</th><th>Asking Price</th></tr>
	<tr><td>111</td><td>$25.00</td></tr>
</table>
<table id="sold-orders">
	<tr><th>Note ID</th><th>Sale Price</th></tr>
	<tr><td>222</td><td>$24.00</td></tr>
</table>
</body></html>`

const notesCSV = `NoteId,LoanId,OrderId,Status,PrincipalRemaining,Accrual,InterestRate,PortfolioName,NextPaymentDate,PaymentsReceivedToDate,LoanMaturity.Maturity,Trend
8580333,1130859,2283384,Current,25.0,$0.12,0.1825,New,03/15/2024,1.75,60,FLAT
bad,1,2,Current,25.0,$0.00,0.1,New,null,0,60,FLAT
`

const inventoryCSV = `NoteId,LoanId,OrderId,Status,AskPrice,OutstandingPrincipal,AccruedInterest,Interest Rate,NextPaymentDate,DaysSinceLastPayment,Remaining Payments,Loan Maturity,NeverLate,CreditScoreTrend,FICO End Range
1,10,100,Current,24.50,24.90,0.10,15.00,03/20/2024,10,30,36,true,UP,700-704
2,20,200,In Grace Period,20.00,24.90,0.10,15.00,03/20/2024,10,30,36,true,FLAT,700-704
`

func TestParseDetail(t *testing.T) {
	d, err := ParseDetail(strings.NewReader(detailHTML))
	require.NoError(t, err)

	require.Len(t, d.CreditHistory, 2)
	assert.Equal(t, 760, d.CreditHistory[0].Low)
	assert.Equal(t, 704, d.CreditHistory[1].High)
	assert.Equal(t, -56, d.CreditDeltaMin())

	require.Len(t, d.CollectionLog, 1)
	assert.Equal(t, time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC), d.CollectionLog[0].Date)
	assert.True(t, d.HasFailedPayment())

	require.Len(t, d.PaymentHistory, 2)
	assert.Nil(t, d.PaymentHistory[0].Completed)
	assert.Equal(t, note.PaymentScheduled, d.PaymentHistory[0].Status)
	require.NotNil(t, d.PaymentHistory[1].Completed)
	assert.Equal(t, []string{"0.79", "0.31"}, d.PaymentHistory[1].Amounts)
	assert.True(t, d.PaymentHistory[1].IsComplete())
}

func TestParseDetailEmptyPage(t *testing.T) {
	d, err := ParseDetail(strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, d.CreditHistory)
	assert.Empty(t, d.CollectionLog)
	assert.Empty(t, d.PaymentHistory)
}

func TestParseDetailBadScore(t *testing.T) {
	html := `<table id="trend-data"><tr><td>great</td><td>01/05/2024</td></tr></table>`
	_, err := ParseDetail(strings.NewReader(html))
	assert.Error(t, err)
}

func TestParseTradingAccount(t *testing.T) {
	acct, err := ParseTradingAccount(strings.NewReader(tradingAccountHTML))
	require.NoError(t, err)

	assert.Equal(t, map[int64]struct{}{111: {}, 222: {}}, acct.SellingNoteIDs)
	assert.True(t, acct.AvailableCash.Equal(decimal.RequireFromString("1234.56")))

	_, err = ParseTradingAccount(strings.NewReader(`<span id="available-cash">$1.00</span>`))
	assert.Error(t, err)
}

func TestMatchesSearch(t *testing.T) {
	yes, no := true, false
	ask := decimal.RequireFromString("24.50")
	base := func() *note.Note {
		return &note.Note{
			Status:             note.StatusCurrent,
			PrincipalRemaining: decimal.RequireFromString("25.00"),
			AskPrice:           &ask,
			InterestRate:       0.15,
			NeverLate:          &yes,
		}
	}

	tests := []struct {
		name   string
		mutate func(n *note.Note)
		opts   strategy.SearchOptions
		want   bool
	}{
		{"no limits", func(*note.Note) {}, strategy.SearchOptions{}, true},
		{"rate below min", func(*note.Note) {}, strategy.SearchOptions{MinRate: 0.16}, false},
		{"rate above max", func(*note.Note) {}, strategy.SearchOptions{MaxRate: 0.12}, false},
		{"markup above max", func(*note.Note) {}, strategy.SearchOptions{MaxMarkup: 0.95}, false},
		{"has been late", func(n *note.Note) { n.NeverLate = &no }, strategy.SearchOptions{NeverLate: true}, false},
		{"status listed", func(*note.Note) {}, strategy.SearchOptions{Statuses: []string{"Current"}}, true},
		{"status not listed", func(n *note.Note) { n.Status = note.StatusInGracePeriod }, strategy.SearchOptions{Statuses: []string{"Current"}}, false},
		{"ask above max", func(*note.Note) {}, strategy.SearchOptions{MaxAskPrice: decimal.RequireFromString("20")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := base()
			tt.mutate(n)
			assert.Equal(t, tt.want, MatchesSearch(n, tt.opts))
		})
	}
}

// fakeService serves the pages a session uses and records submitted forms
type fakeService struct {
	mu        sync.Mutex
	logins    int
	forms     map[string]map[string][]string
	detailHit int
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("login_email") != "me@example.com" || r.PostForm.Get("login_password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.logins++
		f.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
	})

	authed := func(body string, contentType string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("session"); err != nil || c.Value != "abc" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", contentType)
			_, _ = w.Write([]byte(body))
		}
	}
	mux.Handle(notesCSVPath, authed(notesCSV, "text/csv"))
	mux.Handle(inventoryCSVPath, authed(inventoryCSV, "text/csv"))
	mux.Handle(tradingAccountPath, authed(tradingAccountHTML, "text/html"))
	mux.HandleFunc(loanPerfPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "8580333", r.URL.Query().Get("note_id"))
		f.mu.Lock()
		f.detailHit++
		f.mu.Unlock()
		authed(detailHTML, "text/html")(w, r)
	})

	record := func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.forms[r.URL.Path] = r.PostForm
		f.mu.Unlock()
	}
	mux.HandleFunc(sellPath, record)
	mux.HandleFunc(buyPath, record)
	return mux
}

func newTestClient(t *testing.T, baseURL, email string) *Client {
	t.Helper()
	cfg := &config.Config{
		LendingClub: config.LendingClubConfig{
			BaseURL:  baseURL,
			Email:    email,
			Password: "secret",
			Timeout:  5 * time.Second,
		},
	}
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewClient(cfg, httputil.New(cfg, logger.Nop()).DisableRetry(), store, logger.Nop())
}

func TestClientSession(t *testing.T) {
	svc := &fakeService{forms: make(map[string]map[string][]string)}
	srv := httptest.NewServer(svc.handler(t))
	defer srv.Close()

	ctx := context.Background()
	c := newTestClient(t, srv.URL, "me@example.com")

	notes, err := c.LoadActiveNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1, "malformed row is skipped")
	n := notes[0]
	assert.Equal(t, int64(8580333), n.NoteID)

	loans, err := c.OwnedLoanIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]struct{}{1130859: {}}, loans)

	selling, err := c.AlreadySellingIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, selling, 2)

	cash, err := c.AvailableCash(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1234.56", cash.StringFixed(2))

	inventory, err := c.LoadTradingInventory(ctx, strategy.SearchOptions{Statuses: []string{"Current"}, NeverLate: true})
	require.NoError(t, err)
	require.Len(t, inventory, 1)
	assert.InDelta(t, 0.15, inventory[0].InterestRate, 1e-9)

	_, cached, err := c.DetailFetchedAt(ctx, n)
	require.NoError(t, err)
	assert.False(t, cached)

	require.NoError(t, c.FetchDetail(ctx, n))
	at, cached, err := c.DetailFetchedAt(ctx, n)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.WithinDuration(t, time.Now(), at, time.Minute)

	d, err := c.LoadDetail(ctx, n)
	require.NoError(t, err)
	assert.Len(t, d.CreditHistory, 2)

	err = c.ExecuteSell(ctx, []pipeline.SellOrder{{Note: n, Price: decimal.RequireFromString("25.5")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"25.50"}, svc.forms[sellPath]["notes[0].askingPrice"])

	err = c.ExecuteBuy(ctx, inventory)
	require.NoError(t, err)
	assert.Equal(t, []string{"24.50"}, svc.forms[buyPath]["notes[0].bidPrice"])

	assert.Equal(t, 1, svc.logins, "one login per session")
	assert.Equal(t, 1, svc.detailHit)
}

func TestClientLoginFailures(t *testing.T) {
	svc := &fakeService{forms: make(map[string]map[string][]string)}
	srv := httptest.NewServer(svc.handler(t))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, "").LoadActiveNotes(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = newTestClient(t, srv.URL, "intruder@example.com").LoadActiveNotes(context.Background())
	var statusErr *httputil.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get(ctx, "note:detail:1:2:3")
	assert.ErrorIs(t, err, ErrNotCached)

	fetched := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, "note:detail:1:2:3", []byte("<html/>"), fetched))

	body, at, err := store.Get(ctx, "note:detail:1:2:3")
	require.NoError(t, err)
	assert.Equal(t, "<html/>", string(body))
	assert.True(t, at.Equal(fetched))
}

func TestRedisStoreFallsBackWhenDisabled(t *testing.T) {
	ctx := context.Background()
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)

	local, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	store := NewRedisStore(redis.NewCache(client, "test"), local, logger.Nop())

	fetched := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, tradingAccountKey, []byte("page"), fetched))

	body, at, err := store.Get(ctx, tradingAccountKey)
	require.NoError(t, err)
	assert.Equal(t, "page", string(body))
	assert.True(t, at.Equal(fetched))

	_, _, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotCached)
}

// brokenCache fails every call the way an unreachable Redis does
type brokenCache struct{ gets, sets int }

func (b *brokenCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	b.gets++
	return false, fmt.Errorf("%w: get %s: connection refused", redis.ErrCacheUnavailable, key)
}

func (b *brokenCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b.sets++
	return fmt.Errorf("%w: set %s: connection refused", redis.ErrCacheUnavailable, key)
}

func TestRedisStoreFallsBackWhenUnavailable(t *testing.T) {
	ctx := context.Background()
	local, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var logs bytes.Buffer
	cache := &brokenCache{}
	store := NewRedisStore(cache, local, logger.NewWithWriter(&logs, "warn"))

	fetched := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, tradingAccountKey, []byte("page"), fetched))

	body, at, err := store.Get(ctx, tradingAccountKey)
	require.NoError(t, err)
	assert.Equal(t, "page", string(body))
	assert.True(t, at.Equal(fetched))

	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, cache.gets)
	assert.Contains(t, logs.String(), "Document cache write failed")
	assert.Contains(t, logs.String(), "Document cache read failed")
}

func TestTTLFor(t *testing.T) {
	assert.Equal(t, redis.TTLDetail, ttlFor(redis.NoteDetailKey(1, 2, 3)))
	assert.Equal(t, redis.TTLShort, ttlFor(tradingAccountKey))
	assert.Equal(t, redis.TTLMedium, ttlFor(redis.NotesKey("me@example.com")))
}
