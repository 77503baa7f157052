// Package lendingclub is the note service session: login, downloads, loan
// detail pages and order submission.
package lendingclub

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/notetrader/internal/note"
	"github.com/wonny/notetrader/pkg/config"
	"github.com/wonny/notetrader/pkg/httputil"
	"github.com/wonny/notetrader/pkg/logger"
	"github.com/wonny/notetrader/pkg/redis"
)

// Service paths, relative to the configured base URL
const (
	loginPath          = "/account/login.action"
	logoutPath         = "/account/logout.action"
	notesCSVPath       = "/account/notesRawData.action"
	loanPerfPath       = "/account/loanPerf.action"
	tradingAccountPath = "/foliofn/tradingAccount.action"
	inventoryCSVPath   = "/foliofn/browseNotesRawData.action"
	sellPath           = "/foliofn/sellNotesSubmit.action"
	buyPath            = "/foliofn/placeOrder.action"
)

const tradingAccountKey = "account:trading"

// ErrNoCredentials is returned when a login is needed but none is configured
var ErrNoCredentials = errors.New("lendingclub credentials not configured")

// Client handles communication with the note service
// ⭐ SSOT: note service calls happen only in this client
type Client struct {
	httpClient *httputil.Client
	store      DocumentStore
	logger     *logger.Logger
	baseURL    string
	email      string
	password   string
	now        func() time.Time

	loggedIn bool
	notes    []*note.Note
	account  *TradingAccount
}

// NewClient creates a client. Fetched documents are kept in store.
func NewClient(cfg *config.Config, httpClient *httputil.Client, store DocumentStore, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		store:      store,
		logger:     log,
		baseURL:    strings.TrimRight(cfg.LendingClub.BaseURL, "/"),
		email:      cfg.LendingClub.Email,
		password:   cfg.LendingClub.Password,
		now:        time.Now,
	}
}

func (c *Client) url(path string, params url.Values) string {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// Login opens a session. It is a no-op when already logged in.
func (c *Client) Login(ctx context.Context) error {
	if c.loggedIn {
		return nil
	}
	if c.email == "" || c.password == "" {
		return ErrNoCredentials
	}

	c.logger.WithField("email", c.email).Info("Logging in")
	resp, err := c.httpClient.PostForm(ctx, c.url(loginPath, nil), url.Values{
		"login_email":    {c.email},
		"login_password": {c.password},
	})
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("login failed: %w", &httputil.StatusError{StatusCode: resp.StatusCode, URL: resp.Request.URL.String()})
	}

	c.loggedIn = true
	return nil
}

// Logout closes the session
func (c *Client) Logout(ctx context.Context) error {
	if !c.loggedIn {
		return nil
	}
	c.logger.Info("Logging out")
	if _, err := c.httpClient.GetBody(ctx, c.url(logoutPath, nil)); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	c.loggedIn = false
	return nil
}

// fetch downloads a page inside the session
func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.Login(ctx); err != nil {
		return nil, err
	}
	body, err := c.httpClient.GetBody(ctx, c.url(path, params))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	return body, nil
}

// fetchAndStore downloads a page and keeps a copy under key
func (c *Client) fetchAndStore(ctx context.Context, key, path string, params url.Values) ([]byte, error) {
	body, err := c.fetch(ctx, path, params)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(ctx, key, body, c.now()); err != nil {
		return nil, fmt.Errorf("store %s: %w", key, err)
	}
	return body, nil
}

func (c *Client) decodeCSV(body []byte, decode note.RowDecoder, what string) ([]*note.Note, error) {
	skipped := 0
	notes, err := note.DecodeCSV(bytes.NewReader(body), decode, func(err error) {
		skipped++
		c.logger.WithError(err).WithField("download", what).Warn("Skipping malformed row")
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	c.logger.WithFields(map[string]interface{}{
		"download": what,
		"count":    len(notes),
		"skipped":  skipped,
	}).Debug("Decoded download")
	return notes, nil
}

// detailKey names the cached loan performance page of n
func detailKey(n *note.Note) string {
	return redis.NoteDetailKey(n.LoanID, n.OrderID, n.NoteID)
}

func detailParams(n *note.Note) url.Values {
	return url.Values{
		"loan_id":  {fmt.Sprint(n.LoanID)},
		"order_id": {fmt.Sprint(n.OrderID)},
		"note_id":  {fmt.Sprint(n.NoteID)},
	}
}
