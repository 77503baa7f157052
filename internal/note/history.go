package note

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Payment history statuses
const (
	PaymentCompletedOnTime = "Completed - on time"
	PaymentCompletedGrace  = "Completed - in grace period"
	PaymentScheduled       = "Scheduled"
	PaymentProcessing      = "Processing..."
)

var bankruptcyPattern = regexp.MustCompile(`(?i)bankrupt`)

// CreditPoint is a sampled credit score range
type CreditPoint struct {
	Date time.Time
	Low  int
	High int
}

// CollectionLogEntry is one collections event
type CollectionLogEntry struct {
	Date    time.Time
	Message string
}

// PaymentHistoryEntry is one scheduled or completed payment
type PaymentHistoryEntry struct {
	Due       time.Time
	Completed *time.Time
	Status    string
	Amounts   []string
}

// IsComplete reports an on-time completion
func (p PaymentHistoryEntry) IsComplete() bool {
	return p.Status == PaymentCompletedOnTime
}

// IsLate reports a status other than on-time, scheduled or processing
func (p PaymentHistoryEntry) IsLate() bool {
	switch p.Status {
	case PaymentCompletedOnTime, PaymentScheduled, PaymentProcessing:
		return false
	}
	return true
}

// Detail is the loan history loaded from the detail document
type Detail struct {
	CreditHistory  []CreditPoint
	CollectionLog  []CollectionLogEntry
	PaymentHistory []PaymentHistoryEntry
}

func (d *Detail) sortCreditHistory() {
	sort.SliceStable(d.CreditHistory, func(i, j int) bool {
		return d.CreditHistory[i].Date.Before(d.CreditHistory[j].Date)
	})
}

// InBankruptcy reports whether any collection message mentions bankruptcy
func (d *Detail) InBankruptcy() bool {
	for _, e := range d.CollectionLog {
		if bankruptcyPattern.MatchString(e.Message) {
			return true
		}
	}
	return false
}

// HasFailedPayment reports whether any collection message mentions a failed payment
func (d *Detail) HasFailedPayment() bool {
	for _, e := range d.CollectionLog {
		if strings.Contains(strings.ToLower(e.Message), "failed") {
			return true
		}
	}
	return false
}

// LatePayments returns the entries that are not on time, scheduled or processing
func (d *Detail) LatePayments() []PaymentHistoryEntry {
	var late []PaymentHistoryEntry
	for _, p := range d.PaymentHistory {
		if p.IsLate() {
			late = append(late, p)
		}
	}
	return late
}

// CreditDeltaMin is a worst-case delta between coarse score ranges.
// A drop reports last.high - first.low, a rise last.low - first.high, otherwise 0.
func (d *Detail) CreditDeltaMin() int {
	if len(d.CreditHistory) == 0 {
		return 0
	}
	first := d.CreditHistory[0]
	last := d.CreditHistory[len(d.CreditHistory)-1]

	switch {
	case last.High < first.High:
		return last.High - first.Low
	case last.High > first.High:
		return last.Low - first.High
	}
	return 0
}
