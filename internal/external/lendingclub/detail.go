package lendingclub

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/notetrader/internal/note"
)

var parenthetical = regexp.MustCompile(`\(.*\)`)

// ParseDetail extracts the credit history, collection log and payment history
// from a loan performance page. Missing sections yield empty histories.
func ParseDetail(r io.Reader) (*note.Detail, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse loan detail: %w", err)
	}

	d := &note.Detail{}
	if d.CreditHistory, err = parseCreditHistory(doc); err != nil {
		return nil, err
	}
	if d.CollectionLog, err = parseCollectionLog(doc); err != nil {
		return nil, err
	}
	if d.PaymentHistory, err = parsePaymentHistory(doc); err != nil {
		return nil, err
	}
	return d, nil
}

// parseCreditHistory reads rows of (score range, date)
func parseCreditHistory(doc *goquery.Document) ([]note.CreditPoint, error) {
	var points []note.CreditPoint
	var err error
	doc.Find("table#trend-data tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := extractRow(tr, "td")
		if len(cells) != 2 {
			return true
		}
		var p note.CreditPoint
		if p.Low, p.High, err = note.ParseScoreRange(cells[0]); err != nil {
			err = fmt.Errorf("credit history: %w", err)
			return false
		}
		if p.Date, err = note.ParseDate(cells[1]); err != nil {
			err = fmt.Errorf("credit history: %w", err)
			return false
		}
		points = append(points, p)
		return true
	})
	return points, err
}

// parseCollectionLog reads rows of (date, message). Dates may carry a
// parenthesized time.
func parseCollectionLog(doc *goquery.Document) ([]note.CollectionLogEntry, error) {
	var entries []note.CollectionLogEntry
	var err error
	doc.Find("table#lcLoanPerfTable2 tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := extractRow(tr, "td")
		if len(cells) != 2 {
			return true
		}
		var e note.CollectionLogEntry
		if e.Date, err = note.ParseDate(parenthetical.ReplaceAllString(cells[0], "")); err != nil {
			err = fmt.Errorf("collection log: %w", err)
			return false
		}
		e.Message = cells[1]
		entries = append(entries, e)
		return true
	})
	return entries, err
}

// parsePaymentHistory reads rows of (due, completed, amounts..., status).
// A completed date of "--" means the payment has not posted.
func parsePaymentHistory(doc *goquery.Document) ([]note.PaymentHistoryEntry, error) {
	var entries []note.PaymentHistoryEntry
	var err error
	doc.Find("div#lcLoanPerf1 tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := extractRow(tr, "td")
		if len(cells) <= 3 {
			return true
		}
		var p note.PaymentHistoryEntry
		if p.Due, err = note.ParseDate(cells[0]); err != nil {
			err = fmt.Errorf("payment history: %w", err)
			return false
		}
		if completed := cells[1]; completed != "--" && completed != "" {
			t, perr := note.ParseDate(completed)
			if perr != nil {
				err = fmt.Errorf("payment history: %w", perr)
				return false
			}
			p.Completed = &t
		}
		p.Status = cells[len(cells)-1]
		for _, a := range cells[2 : len(cells)-1] {
			p.Amounts = append(p.Amounts, strings.TrimPrefix(a, "$"))
		}
		entries = append(entries, p)
		return true
	})
	return entries, err
}
