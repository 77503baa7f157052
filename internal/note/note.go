// Package note holds the note record and its loan history.
package note

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the service's note status text
type Status string

const (
	StatusIssued        Status = "Issued"
	StatusInReview      Status = "In Review"
	StatusCurrent       Status = "Current"
	StatusInGracePeriod Status = "In Grace Period"
	StatusLate16To30    Status = "Late (16-30 days)"
	StatusLate31To120   Status = "Late (31-120 days)"
	StatusDefault       Status = "Default"
	StatusChargedOff    Status = "Charged Off"
	StatusFullyPaid     Status = "Fully Paid"
)

// Terminal reports whether the note can no longer change hands
func (s Status) Terminal() bool {
	return s == StatusFullyPaid || s == StatusDefault || s == StatusChargedOff
}

// CreditTrend is the service's summary of the borrower's score movement
type CreditTrend string

const (
	TrendUp   CreditTrend = "UP"
	TrendFlat CreditTrend = "FLAT"
	TrendDown CreditTrend = "DOWN"
)

// Stage is the lifecycle position of a record within one run
type Stage int

const (
	StageSummary Stage = iota
	StageDetailLoaded
)

func (s Stage) String() string {
	switch s {
	case StageSummary:
		return "summary"
	case StageDetailLoaded:
		return "detail_loaded"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// InfiniteMarkup is the markup of a note without a usable par value or ask
var InfiniteMarkup = math.Inf(1)

// ErrInvalidNote is wrapped by Validate failures
var ErrInvalidNote = errors.New("invalid note")

// Note is one fractional claim on a loan, owned or offered for sale.
// Identity (NoteID) never changes; history is attached once detail is loaded.
type Note struct {
	NoteID  int64
	LoanID  int64
	OrderID int64

	Status             Status
	PrincipalRemaining decimal.Decimal
	AccruedInterest    decimal.Decimal
	InterestRate       float64 // fraction, 0.1825 = 18.25%
	Portfolio          string
	NextPayment        *time.Time

	// Trading inventory only
	AskPrice *decimal.Decimal

	Owned bool

	DaysSinceLastPayment   *int
	RemainingPayments      *int
	LoanMaturity           *int
	PaymentsReceivedAmount *decimal.Decimal
	CreditTrend            CreditTrend
	NeverLate              *bool
	FICOEndLow             *int

	detail          *Detail
	detailFetchedAt time.Time
}

// ParValue is principal remaining plus accrued interest
func (n *Note) ParValue() decimal.Decimal {
	return n.PrincipalRemaining.Add(n.AccruedInterest)
}

// Markup is ask / par, or InfiniteMarkup when either is unusable
func (n *Note) Markup() float64 {
	if n.AskPrice == nil {
		return InfiniteMarkup
	}
	par := n.ParValue()
	if !par.IsPositive() {
		return InfiniteMarkup
	}
	return n.AskPrice.Div(par).InexactFloat64()
}

// PaymentsMade is loan maturity minus remaining payments, when both are known
func (n *Note) PaymentsMade() (int, bool) {
	if n.LoanMaturity == nil || n.RemainingPayments == nil {
		return 0, false
	}
	return *n.LoanMaturity - *n.RemainingPayments, true
}

// Validate checks par value >= 0 and, when present, ask > 0
func (n *Note) Validate() error {
	if n.ParValue().IsNegative() {
		return fmt.Errorf("%w: note %d has negative par value %s", ErrInvalidNote, n.NoteID, n.ParValue())
	}
	if n.AskPrice != nil && !n.AskPrice.IsPositive() {
		return fmt.Errorf("%w: note %d has non-positive asking price %s", ErrInvalidNote, n.NoteID, n.AskPrice)
	}
	return nil
}

// Stage reports whether history has been attached
func (n *Note) Stage() Stage {
	if n.detail != nil {
		return StageDetailLoaded
	}
	return StageSummary
}

// HasDetail reports whether history has been attached
func (n *Note) HasDetail() bool {
	return n.detail != nil
}

// Detail returns the attached history, or nil
func (n *Note) Detail() *Detail {
	return n.detail
}

// DetailFetchedAt returns when the attached detail document was fetched
func (n *Note) DetailFetchedAt() time.Time {
	return n.detailFetchedAt
}

// AttachDetail moves the record to StageDetailLoaded.
// Credit history is sorted by date ascending on attach.
func (n *Note) AttachDetail(d *Detail, fetchedAt time.Time) {
	if d == nil {
		return
	}
	d.sortCreditHistory()
	n.detail = d
	n.detailFetchedAt = fetchedAt
}

// InBankruptcy reports a bankruptcy entry in the collection log
func (n *Note) InBankruptcy() bool {
	return n.detail != nil && n.detail.InBankruptcy()
}

// CreditDeltaMin is the conservative score movement between the first and last
// credit points; 0 without history.
func (n *Note) CreditDeltaMin() int {
	if n.detail == nil {
		return 0
	}
	return n.detail.CreditDeltaMin()
}

func (n *Note) String() string {
	return fmt.Sprintf("note %d (loan %d, %s)", n.NoteID, n.LoanID, n.Status)
}
