package note

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMalformedRecord matches every MalformedRecordError
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError reports a raw row that cannot become a Note
type MalformedRecordError struct {
	Line  int // 0 when unknown
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("malformed record: field %q", e.Field)
	if e.Line > 0 {
		msg = fmt.Sprintf("malformed record at line %d: field %q", e.Line, e.Field)
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" value %q", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedRecord}
	}
	return []error{ErrMalformedRecord, e.Err}
}

var errMissing = errors.New("missing field")

// RowDecoder converts one raw row into a Note
type RowDecoder func(row map[string]string) (*Note, error)

// DecodeNotesRow decodes one row of the owned-notes download
func DecodeNotesRow(row map[string]string) (*Note, error) {
	f := fields{row: row}
	n := &Note{
		NoteID:             f.int64("NoteId"),
		LoanID:             f.int64("LoanId"),
		OrderID:            f.int64("OrderId"),
		Status:             Status(f.str("Status")),
		PrincipalRemaining: f.money("PrincipalRemaining"),
		AccruedInterest:    f.money("Accrual"),
		InterestRate:       f.float("InterestRate"),
		Portfolio:          f.raw("PortfolioName"),
		NextPayment:        f.optDate("NextPaymentDate"),
		LoanMaturity:       f.optInt("LoanMaturity.Maturity"),
		CreditTrend:        CreditTrend(f.raw("Trend")),
		Owned:              true,
	}
	received := f.money("PaymentsReceivedToDate")
	n.PaymentsReceivedAmount = &received

	if f.err != nil {
		return nil, f.err
	}
	if err := n.Validate(); err != nil {
		return nil, &MalformedRecordError{Field: "NoteId", Value: row["NoteId"], Err: err}
	}
	return n, nil
}

// DecodeInventoryRow decodes one row of the trading inventory download.
// The service reports the interest rate in percent.
func DecodeInventoryRow(row map[string]string) (*Note, error) {
	f := fields{row: row}
	ask := f.money("AskPrice")
	n := &Note{
		NoteID:               f.int64("NoteId"),
		LoanID:               f.int64("LoanId"),
		OrderID:              f.int64("OrderId"),
		Status:               Status(f.str("Status")),
		AskPrice:             &ask,
		PrincipalRemaining:   f.money("OutstandingPrincipal"),
		AccruedInterest:      f.money("AccruedInterest"),
		InterestRate:         f.float("Interest Rate") / 100,
		NextPayment:          f.optDate("NextPaymentDate"),
		DaysSinceLastPayment: f.optInt("DaysSinceLastPayment"),
		RemainingPayments:    f.reqInt("Remaining Payments"),
		LoanMaturity:         f.reqInt("Loan Maturity"),
		NeverLate:            f.boolean("NeverLate"),
		CreditTrend:          f.trend("CreditScoreTrend"),
		FICOEndLow:           f.fico("FICO End Range"),
	}

	if f.err != nil {
		return nil, f.err
	}
	if err := n.Validate(); err != nil {
		return nil, &MalformedRecordError{Field: "AskPrice", Value: row["AskPrice"], Err: err}
	}
	return n, nil
}

// DecodeCSV decodes every row of r with decode. Malformed rows are reported to
// onBad (which may be nil) and skipped; only an unreadable header or stream fails.
func DecodeCSV(r io.Reader, decode RowDecoder, onBad func(err error)) ([]*Note, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var notes []*Note
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report(onBad, &MalformedRecordError{Line: line, Field: "*", Err: err})
				continue
			}
			return notes, fmt.Errorf("read csv: %w", err)
		}

		if len(record) != len(header) {
			report(onBad, &MalformedRecordError{
				Line:  line,
				Field: "*",
				Err:   fmt.Errorf("expected %d columns, got %d", len(header), len(record)),
			})
			continue
		}

		row := make(map[string]string, len(header))
		for i, h := range header {
			row[h] = record[i]
		}

		n, err := decode(row)
		if err != nil {
			var malformed *MalformedRecordError
			if errors.As(err, &malformed) && malformed.Line == 0 {
				malformed.Line = line
			}
			report(onBad, err)
			continue
		}
		notes = append(notes, n)
	}

	return notes, nil
}

func report(onBad func(error), err error) {
	if onBad != nil {
		onBad(err)
	}
}

// fields decodes row values, keeping the first failure
type fields struct {
	row map[string]string
	err error
}

func (f *fields) fail(field, value string, err error) {
	if f.err == nil {
		f.err = &MalformedRecordError{Field: field, Value: value, Err: err}
	}
}

func (f *fields) raw(key string) string {
	v, ok := f.row[key]
	if !ok {
		f.fail(key, "", errMissing)
	}
	return strings.TrimSpace(v)
}

func (f *fields) str(key string) string {
	v := f.raw(key)
	if v == "" {
		f.fail(key, v, errMissing)
	}
	return v
}

func (f *fields) int64(key string) int64 {
	v := f.str(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		f.fail(key, v, err)
	}
	return n
}

func (f *fields) float(key string) float64 {
	v := strings.TrimSuffix(f.str(key), "%")
	if v == "" {
		return 0
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		f.fail(key, v, err)
	}
	return x
}

// money accepts "$1,234.56", "25.0" and "($1.00)"
func (f *fields) money(key string) decimal.Decimal {
	v := f.str(key)
	if v == "" {
		return decimal.Zero
	}
	d, err := ParseMoney(v)
	if err != nil {
		f.fail(key, v, err)
	}
	return d
}

func (f *fields) isNull(v string) bool {
	return v == "" || strings.EqualFold(v, "null") || v == "--"
}

func (f *fields) optInt(key string) *int {
	v := f.raw(key)
	if f.isNull(v) {
		return nil
	}
	n, err := parseCount(v)
	if err != nil {
		f.fail(key, v, err)
		return nil
	}
	return &n
}

func (f *fields) reqInt(key string) *int {
	v := f.str(key)
	if v == "" {
		return nil
	}
	n, err := parseCount(v)
	if err != nil {
		f.fail(key, v, err)
		return nil
	}
	return &n
}

func (f *fields) optDate(key string) *time.Time {
	v := f.raw(key)
	if f.isNull(v) {
		return nil
	}
	d, err := ParseDate(v)
	if err != nil {
		f.fail(key, v, err)
		return nil
	}
	return &d
}

func (f *fields) boolean(key string) *bool {
	v := f.str(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		f.fail(key, v, err)
		return nil
	}
	return &b
}

func (f *fields) trend(key string) CreditTrend {
	v := CreditTrend(strings.ToUpper(f.str(key)))
	switch v {
	case TrendUp, TrendFlat, TrendDown:
		return v
	case "":
		return ""
	}
	f.fail(key, string(v), errors.New("unknown credit trend"))
	return ""
}

func (f *fields) fico(key string) *int {
	v := f.str(key)
	if v == "" {
		return nil
	}
	// the inventory floor bucket starts at 300, unlike detail pages
	if v == "499-" {
		low := 300
		return &low
	}
	low, _, err := ParseScoreRange(v)
	if err != nil {
		f.fail(key, v, err)
		return nil
	}
	return &low
}

// parseCount accepts integral values written as "12" or "12.0"
func parseCount(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if x != float64(int(x)) {
		return 0, fmt.Errorf("not a whole number")
	}
	return int(x), nil
}
