package lendingclub

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/wonny/notetrader/internal/note"
)

// TradingAccount is what the trading account page reports
type TradingAccount struct {
	SellingNoteIDs map[int64]struct{} // listed or already sold
	AvailableCash  decimal.Decimal
}

// ParseTradingAccount reads the listed and sold orders tables and the cash balance
func ParseTradingAccount(r io.Reader) (*TradingAccount, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trading account: %w", err)
	}

	acct := &TradingAccount{SellingNoteIDs: make(map[int64]struct{})}
	for _, id := range []string{"loans-1", "sold-orders"} {
		table := doc.Find("table#" + id)
		if table.Length() == 0 {
			return nil, fmt.Errorf("trading account: table %q not found", id)
		}
		for _, row := range extractTable(table) {
			raw, ok := row["Note ID"]
			if !ok {
				continue
			}
			noteID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("trading account: note id %q: %w", raw, err)
			}
			acct.SellingNoteIDs[noteID] = struct{}{}
		}
	}

	cash := doc.Find("#available-cash")
	if cash.Length() == 0 {
		return nil, fmt.Errorf("trading account: available cash not found")
	}
	if acct.AvailableCash, err = note.ParseMoney(cellText(cash.First())); err != nil {
		return nil, fmt.Errorf("trading account: available cash: %w", err)
	}
	return acct, nil
}

// cellText is the whitespace-normalized text of s
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// extractRow returns the text of each cell tag in tr
func extractRow(tr *goquery.Selection, tag string) []string {
	var cells []string
	tr.Find(tag).Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, cellText(cell))
	})
	return cells
}

// extractTable maps each row with one cell per header to header → text
func extractTable(table *goquery.Selection) []map[string]string {
	headers := extractRow(table, "th")
	var rows []map[string]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := extractRow(tr, "td")
		if len(cells) == 0 || len(cells) != len(headers) {
			return
		}
		row := make(map[string]string, len(cells))
		for i, h := range headers {
			row[h] = cells[i]
		}
		rows = append(rows, row)
	})
	return rows
}
