package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/notetrader/internal/calendar"
	"github.com/wonny/notetrader/internal/ledger"
	"github.com/wonny/notetrader/internal/note"
)

func intPtr(v int) *int {
	return &v
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// candidate is a listed note that passes every default buy check
func candidate() *note.Note {
	n := &note.Note{
		NoteID:               2,
		LoanID:               20,
		OrderID:              200,
		Status:               note.StatusCurrent,
		PrincipalRemaining:   decimal.RequireFromString("25.00"),
		AskPrice:             decPtr("24.50"),
		InterestRate:         0.15,
		NextPayment:          daysFromNow(20),
		DaysSinceLastPayment: intPtr(10),
		RemainingPayments:    intPtr(30),
		LoanMaturity:         intPtr(36),
	}
	return n
}

func defaultBuyOptions() BuyOptions {
	return BuyOptions{
		MaxMarkup:               1.001,
		MaxPrice:                decimal.RequireFromString("50"),
		FromRate:                0.10,
		ToRate:                  0.30,
		MaxDaysSinceLastPayment: 25,
		MinPaymentsReceived:     3,
		MinCreditDelta:          -40,
	}
}

func TestWantBuyNoDetailsAccepts(t *testing.T) {
	e := evaluatorAt(testNow)
	l := ledger.New()

	assert.True(t, e.WantBuyNoDetails(candidate(), defaultBuyOptions(), l))
	assert.Equal(t, 0, l.Total())
}

func TestWantBuyNoDetailsRejections(t *testing.T) {
	e := evaluatorAt(testNow)

	tests := []struct {
		name   string
		edit   func(n *note.Note)
		reason string
	}{
		{"owned", func(n *note.Note) { n.Owned = true }, ReasonAlreadyOwned},
		{"late", func(n *note.Note) { n.Status = note.StatusInGracePeriod }, ReasonNotCurrent},
		{"no ask", func(n *note.Note) { n.AskPrice = nil }, ReasonNoAskingPrice},
		{"markup 1.02", func(n *note.Note) { n.AskPrice = decPtr("25.50") }, ReasonMarkupCeiling},
		{"zero par", func(n *note.Note) { n.PrincipalRemaining = decimal.Zero }, ReasonMarkupCeiling},
		{"over max price", func(n *note.Note) {
			n.PrincipalRemaining = decimal.RequireFromString("80")
			n.AskPrice = decPtr("60")
		}, ReasonPriceMax},
		{"rate too low", func(n *note.Note) { n.InterestRate = 0.05 }, ReasonRateRange},
		{"rate at upper bound", func(n *note.Note) { n.InterestRate = 0.30 }, ReasonRateRange},
		{"stale payment", func(n *note.Note) { n.DaysSinceLastPayment = intPtr(40) }, ReasonDaysSincePayment},
		{"few payments", func(n *note.Note) { n.RemainingPayments = intPtr(35) }, ReasonTooFewPayments},
		{"unknown payments", func(n *note.Note) { n.LoanMaturity = nil }, ReasonTooFewPayments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := candidate()
			tt.edit(n)
			l := ledger.New()

			assert.False(t, e.WantBuyNoDetails(n, defaultBuyOptions(), l))
			assert.Equal(t, 1, l.Count(tt.reason))
			assert.Equal(t, 1, l.Total())
		})
	}
}

func TestWantBuyNoDetailsOptionalLimits(t *testing.T) {
	e := evaluatorAt(testNow)
	n := candidate()
	n.InterestRate = 0.31
	n.DaysSinceLastPayment = nil
	n.LoanMaturity = nil

	opts := BuyOptions{MaxMarkup: 1.0}
	assert.True(t, e.WantBuyNoDetails(n, opts, ledger.New()))
}

func TestWantBuy(t *testing.T) {
	e := evaluatorAt(testNow)

	tests := []struct {
		name   string
		edit   func(n *note.Note)
		want   bool
		reason string
	}{
		{"accepted", func(n *note.Note) {}, true, ""},
		{"missing details", func(n *note.Note) { *n = *candidateWithoutDetail() }, false, ReasonMissingDetails},
		{"next payment unknown", func(n *note.Note) { n.NextPayment = nil }, false, ReasonNextPaymentUnknown},
		// due Monday two days ago: posted with 0.99 by today+5
		{"payment expected soon", func(n *note.Note) { n.NextPayment = daysFromNow(-2) }, false, ReasonPaymentSoon},
		{"credit below floor", func(n *note.Note) {
			n.AttachDetail(&note.Detail{CreditHistory: []note.CreditPoint{
				{Date: calendar.Date(2023, 1, 1), Low: 700, High: 704},
				{Date: calendar.Date(2024, 1, 1), Low: 650, High: 654},
			}}, testNow)
		}, false, ReasonCreditFloor},
		{"would sell", func(n *note.Note) {
			n.AttachDetail(&note.Detail{
				CreditHistory: flatCredit(),
				PaymentHistory: []note.PaymentHistoryEntry{
					{Status: note.PaymentCompletedGrace},
				},
			}, testNow)
		}, false, ReasonWouldSell},
		{"summary rejection", func(n *note.Note) { n.Owned = true }, false, ReasonAlreadyOwned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := candidateWithDetail()
			tt.edit(n)
			l := ledger.New()

			ok, err := e.WantBuy(n, defaultBuyOptions(), l)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			if tt.reason != "" {
				assert.Equal(t, 1, l.Count(tt.reason))
			}
		})
	}
}

func TestWantBuyNeverWhenWantSell(t *testing.T) {
	e := evaluatorAt(testNow)
	opts := defaultBuyOptions()
	opts.MinCreditDelta = -500

	details := []*note.Detail{
		{CreditHistory: flatCredit()},
		{CollectionLog: []note.CollectionLogEntry{{Message: "Failed payment received"}}},
		{CollectionLog: []note.CollectionLogEntry{{Message: "Called borrower"}}},
		{PaymentHistory: []note.PaymentHistoryEntry{{Status: "Late (31-120 days)"}}},
		{PaymentHistory: []note.PaymentHistoryEntry{{Status: note.PaymentCompletedGrace}}},
		{CreditHistory: []note.CreditPoint{
			{Date: calendar.Date(2023, 1, 1), Low: 780, High: 850},
			{Date: calendar.Date(2024, 1, 1), Low: 640, High: 644},
		}},
		{CreditHistory: []note.CreditPoint{
			{Date: calendar.Date(2023, 1, 1), Low: 700, High: 704},
			{Date: calendar.Date(2024, 1, 1), Low: 610, High: 614},
		}},
	}

	for _, d := range details {
		for _, offset := range []int{-40, -9, 8, 20, 45} {
			n := candidate()
			n.NextPayment = daysFromNow(offset)
			n.AttachDetail(d, testNow)

			sell, err := e.WantSell(n)
			require.NoError(t, err)
			buy, err := e.WantBuy(n, opts, ledger.New())
			require.NoError(t, err)

			if sell {
				assert.False(t, buy, "note with detail %+v due %+d", d, offset)
			}
		}
	}
}

func candidateWithDetail() *note.Note {
	n := candidate()
	n.AttachDetail(&note.Detail{CreditHistory: flatCredit()}, testNow)
	return n
}

func candidateWithoutDetail() *note.Note {
	return candidate()
}
