package note

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParValueAndMarkup(t *testing.T) {
	n := &Note{
		PrincipalRemaining: dec("24.50"),
		AccruedInterest:    dec("0.50"),
		AskPrice:           decPtr("25.50"),
	}

	assert.True(t, n.ParValue().Equal(dec("25.00")))
	assert.InDelta(t, 1.02, n.Markup(), 1e-12)
}

func TestMarkupInfinite(t *testing.T) {
	tests := []struct {
		name string
		note *Note
	}{
		{"no ask", &Note{PrincipalRemaining: dec("25")}},
		{"zero par", &Note{AskPrice: decPtr("1.00")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, math.IsInf(tt.note.Markup(), 1))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, (&Note{PrincipalRemaining: dec("10")}).Validate())

	err := (&Note{PrincipalRemaining: dec("-1")}).Validate()
	assert.True(t, errors.Is(err, ErrInvalidNote))

	err = (&Note{PrincipalRemaining: dec("10"), AskPrice: decPtr("0")}).Validate()
	assert.True(t, errors.Is(err, ErrInvalidNote))
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusFullyPaid.Terminal())
	assert.True(t, StatusDefault.Terminal())
	assert.True(t, StatusChargedOff.Terminal())
	assert.False(t, StatusCurrent.Terminal())
	assert.False(t, StatusLate31To120.Terminal())
}

func TestLifecycle(t *testing.T) {
	n := &Note{NoteID: 8580333}
	assert.Equal(t, StageSummary, n.Stage())
	assert.False(t, n.HasDetail())

	n.AttachDetail(nil, time.Now())
	assert.Equal(t, StageSummary, n.Stage())

	fetched := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	n.AttachDetail(&Detail{
		CreditHistory: []CreditPoint{
			{Date: day(2024, time.January, 1), Low: 640, High: 644},
			{Date: day(2023, time.June, 1), Low: 700, High: 704},
		},
	}, fetched)

	assert.Equal(t, StageDetailLoaded, n.Stage())
	assert.Equal(t, "detail_loaded", n.Stage().String())
	assert.Equal(t, fetched, n.DetailFetchedAt())
	assert.Equal(t, int64(8580333), n.NoteID)
	// sorted on attach: earliest first
	assert.Equal(t, 700, n.Detail().CreditHistory[0].Low)
}

func TestCreditDeltaMin(t *testing.T) {
	tests := []struct {
		name    string
		history []CreditPoint
		want    int
	}{
		{"empty", nil, 0},
		{"single point", []CreditPoint{{Low: 700, High: 704}}, 0},
		{"flat", []CreditPoint{{Date: day(2023, 1, 1), Low: 700, High: 704}, {Date: day(2024, 1, 1), Low: 700, High: 704}}, 0},
		{"drop", []CreditPoint{{Date: day(2023, 1, 1), Low: 700, High: 704}, {Date: day(2024, 1, 1), Low: 560, High: 564}}, -136},
		{"rise", []CreditPoint{{Date: day(2023, 1, 1), Low: 700, High: 704}, {Date: day(2024, 1, 1), Low: 720, High: 724}}, 16},
		{"top bucket drop", []CreditPoint{{Date: day(2023, 1, 1), Low: 780, High: 850}, {Date: day(2024, 1, 1), Low: 700, High: 704}}, -76},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Note{}
			n.AttachDetail(&Detail{CreditHistory: tt.history}, time.Now())
			assert.Equal(t, tt.want, n.CreditDeltaMin())
		})
	}
}

func TestCreditDeltaMinWithoutDetail(t *testing.T) {
	assert.Equal(t, 0, (&Note{}).CreditDeltaMin())
}

func TestCollectionLog(t *testing.T) {
	d := &Detail{CollectionLog: []CollectionLogEntry{
		{Message: "Borrower filed for BANKRUPTCY"},
	}}
	assert.True(t, d.InBankruptcy())
	assert.False(t, d.HasFailedPayment())

	d = &Detail{CollectionLog: []CollectionLogEntry{
		{Message: "Failed payment received"},
	}}
	assert.False(t, d.InBankruptcy())
	assert.True(t, d.HasFailedPayment())
}

func TestLatePayments(t *testing.T) {
	d := &Detail{PaymentHistory: []PaymentHistoryEntry{
		{Status: PaymentCompletedOnTime},
		{Status: PaymentScheduled},
		{Status: PaymentProcessing},
		{Status: PaymentCompletedGrace},
		{Status: "Completed - 16-30 days late"},
	}}

	late := d.LatePayments()
	require.Len(t, late, 2)
	assert.Equal(t, PaymentCompletedGrace, late[0].Status)
	assert.True(t, d.PaymentHistory[0].IsComplete())
	assert.False(t, d.PaymentHistory[3].IsComplete())
}

func TestPaymentsMade(t *testing.T) {
	maturity, remaining := 36, 30
	n := &Note{LoanMaturity: &maturity, RemainingPayments: &remaining}

	made, ok := n.PaymentsMade()
	require.True(t, ok)
	assert.Equal(t, 6, made)

	_, ok = (&Note{LoanMaturity: &maturity}).PaymentsMade()
	assert.False(t, ok)
}
