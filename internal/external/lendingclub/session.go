package lendingclub

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/note"
	"github.com/wonny/notetrader/internal/pipeline"
	"github.com/wonny/notetrader/internal/strategy"
	"github.com/wonny/notetrader/pkg/httputil"
	"github.com/wonny/notetrader/pkg/redis"
)

var _ pipeline.Session = (*Client)(nil)

// LoadActiveNotes downloads the owned notes. The result is kept for the
// lifetime of the client.
func (c *Client) LoadActiveNotes(ctx context.Context) ([]*note.Note, error) {
	if c.notes != nil {
		return c.notes, nil
	}

	body, err := c.fetchAndStore(ctx, redis.NotesKey(c.email), notesCSVPath, nil)
	if err != nil {
		return nil, err
	}
	notes, err := c.decodeCSV(body, note.DecodeNotesRow, "notes")
	if err != nil {
		return nil, err
	}
	c.notes = notes
	return notes, nil
}

// OwnedLoanIDs returns the loans behind every owned note
func (c *Client) OwnedLoanIDs(ctx context.Context) (map[int64]struct{}, error) {
	notes, err := c.LoadActiveNotes(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]struct{}, len(notes))
	for _, n := range notes {
		ids[n.LoanID] = struct{}{}
	}
	return ids, nil
}

func (c *Client) tradingAccount(ctx context.Context) (*TradingAccount, error) {
	if c.account != nil {
		return c.account, nil
	}
	body, err := c.fetchAndStore(ctx, tradingAccountKey, tradingAccountPath, nil)
	if err != nil {
		return nil, err
	}
	acct, err := ParseTradingAccount(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.account = acct
	return acct, nil
}

// AlreadySellingIDs returns the notes listed or sold on the trading platform
func (c *Client) AlreadySellingIDs(ctx context.Context) (map[int64]struct{}, error) {
	acct, err := c.tradingAccount(ctx)
	if err != nil {
		return nil, err
	}
	return acct.SellingNoteIDs, nil
}

// AvailableCash returns the trading account's cash balance
func (c *Client) AvailableCash(ctx context.Context) (decimal.Decimal, error) {
	acct, err := c.tradingAccount(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.AvailableCash, nil
}

// LoadTradingInventory downloads the notes offered by other investors.
// The search options are sent to the service and applied again locally.
func (c *Client) LoadTradingInventory(ctx context.Context, opts strategy.SearchOptions) ([]*note.Note, error) {
	body, err := c.fetch(ctx, inventoryCSVPath, searchParams(opts))
	if err != nil {
		return nil, err
	}
	notes, err := c.decodeCSV(body, note.DecodeInventoryRow, "inventory")
	if err != nil {
		return nil, err
	}

	matched := notes[:0]
	for _, n := range notes {
		if MatchesSearch(n, opts) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

func searchParams(opts strategy.SearchOptions) url.Values {
	v := url.Values{}
	if opts.MinRate > 0 {
		v.Set("min_rate", strconv.FormatFloat(opts.MinRate*100, 'f', 2, 64))
	}
	if opts.MaxRate > 0 {
		v.Set("max_rate", strconv.FormatFloat(opts.MaxRate*100, 'f', 2, 64))
	}
	if opts.MaxMarkup > 0 {
		v.Set("max_markup", strconv.FormatFloat((opts.MaxMarkup-1)*100, 'f', 2, 64))
	}
	if opts.NeverLate {
		v.Set("never_late", "true")
	}
	if len(opts.Statuses) > 0 {
		v.Set("status", strings.Join(opts.Statuses, ","))
	}
	if opts.MaxAskPrice.IsPositive() {
		v.Set("max_ask", opts.MaxAskPrice.StringFixed(2))
	}
	return v
}

// MatchesSearch reports whether n satisfies every limit set in opts
func MatchesSearch(n *note.Note, opts strategy.SearchOptions) bool {
	if n.InterestRate < opts.MinRate {
		return false
	}
	if opts.MaxRate > 0 && n.InterestRate > opts.MaxRate {
		return false
	}
	if opts.MaxMarkup > 0 && n.Markup() > opts.MaxMarkup {
		return false
	}
	if opts.NeverLate && (n.NeverLate == nil || !*n.NeverLate) {
		return false
	}
	if len(opts.Statuses) > 0 {
		found := false
		for _, s := range opts.Statuses {
			if string(n.Status) == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if opts.MaxAskPrice.IsPositive() && n.AskPrice != nil && n.AskPrice.GreaterThan(opts.MaxAskPrice) {
		return false
	}
	return true
}

// FetchDetail downloads the loan performance page of n into the store
func (c *Client) FetchDetail(ctx context.Context, n *note.Note) error {
	c.logger.WithField("note_id", n.NoteID).Debug("Fetching note detail")
	_, err := c.fetchAndStore(ctx, detailKey(n), loanPerfPath, detailParams(n))
	return err
}

// LoadDetail parses the stored loan performance page of n
func (c *Client) LoadDetail(ctx context.Context, n *note.Note) (*note.Detail, error) {
	body, _, err := c.store.Get(ctx, detailKey(n))
	if err != nil {
		return nil, fmt.Errorf("note %d: %w", n.NoteID, err)
	}
	d, err := ParseDetail(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("note %d: %w", n.NoteID, err)
	}
	return d, nil
}

// DetailFetchedAt reports when the detail page of n was stored
func (c *Client) DetailFetchedAt(ctx context.Context, n *note.Note) (time.Time, bool, error) {
	_, at, err := c.store.Get(ctx, detailKey(n))
	if errors.Is(err, ErrNotCached) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

// ExecuteSell lists the orders on the trading platform
func (c *Client) ExecuteSell(ctx context.Context, orders []pipeline.SellOrder) error {
	if len(orders) == 0 {
		return nil
	}
	form := url.Values{}
	for i, o := range orders {
		prefix := fmt.Sprintf("notes[%d].", i)
		form.Set(prefix+"noteId", fmt.Sprint(o.Note.NoteID))
		form.Set(prefix+"loanId", fmt.Sprint(o.Note.LoanID))
		form.Set(prefix+"orderId", fmt.Sprint(o.Note.OrderID))
		form.Set(prefix+"askingPrice", o.Price.StringFixed(2))
	}
	if err := c.submit(ctx, sellPath, form); err != nil {
		return err
	}
	c.account = nil
	return nil
}

// ExecuteBuy places orders for the notes at their asking prices
func (c *Client) ExecuteBuy(ctx context.Context, notes []*note.Note) error {
	if len(notes) == 0 {
		return nil
	}
	form := url.Values{}
	for i, n := range notes {
		if n.AskPrice == nil {
			return fmt.Errorf("note %d has no asking price", n.NoteID)
		}
		prefix := fmt.Sprintf("notes[%d].", i)
		form.Set(prefix+"noteId", fmt.Sprint(n.NoteID))
		form.Set(prefix+"loanId", fmt.Sprint(n.LoanID))
		form.Set(prefix+"orderId", fmt.Sprint(n.OrderID))
		form.Set(prefix+"bidPrice", n.AskPrice.StringFixed(2))
	}
	if err := c.submit(ctx, buyPath, form); err != nil {
		return err
	}
	c.account = nil
	c.notes = nil
	return nil
}

func (c *Client) submit(ctx context.Context, path string, form url.Values) error {
	if err := c.Login(ctx); err != nil {
		return err
	}
	resp, err := c.httpClient.PostForm(ctx, c.url(path, nil), form)
	if err != nil {
		return fmt.Errorf("submit %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("submit %s: %w", path, &httputil.StatusError{StatusCode: resp.StatusCode, URL: resp.Request.URL.String()})
	}
	c.logger.WithField("path", path).Info("Orders submitted")
	return nil
}
