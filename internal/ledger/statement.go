package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ngo-backend/internal/domain"
)

// Period is an inclusive span of whole calendar months.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewPeriod validates the month bounds and rejects reversed ranges.
func NewPeriod(fromYear int, fromMonth time.Month, toYear int, toMonth time.Month, loc *time.Location) (Period, error) {
	if loc == nil {
		loc = time.UTC
	}
	if fromMonth < time.January || fromMonth > time.December {
		return Period{}, domain.NewValidationError("from", fmt.Sprintf("month %d out of range", fromMonth))
	}
	if toMonth < time.January || toMonth > time.December {
		return Period{}, domain.NewValidationError("to", fmt.Sprintf("month %d out of range", toMonth))
	}
	p := Period{
		From: monthStart(fromYear, fromMonth, loc),
		To:   monthEnd(toYear, toMonth, loc),
	}
	if p.From.After(p.To) {
		return Period{}, domain.NewValidationError("from", "range start is after range end")
	}
	return p, nil
}

// ParseMonthPeriod builds a Period from two "YYYY-MM" strings.
func ParseMonthPeriod(from, to string, loc *time.Location) (Period, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation("2006-01", from, loc)
	if err != nil {
		return Period{}, domain.NewValidationError("from", "expected YYYY-MM")
	}
	end, err := time.ParseInLocation("2006-01", to, loc)
	if err != nil {
		return Period{}, domain.NewValidationError("to", "expected YYYY-MM")
	}
	return NewPeriod(start.Year(), start.Month(), end.Year(), end.Month(), loc)
}

// PreviousMonth is the full calendar month before now.
func PreviousMonth(now time.Time) Period {
	loc := now.Location()
	first := monthStart(now.Year(), now.Month(), loc).AddDate(0, -1, 0)
	return Period{From: first, To: monthEnd(first.Year(), first.Month(), loc)}
}

type Statement struct {
	Period         Period               `json:"period"`
	Transactions   []domain.Transaction `json:"transactions"`
	Totals         Totals               `json:"totals"`
	OpeningBalance decimal.Decimal      `json:"opening_balance"`
	ClosingBalance decimal.Decimal      `json:"closing_balance"`
}

// BuildStatement summarises the period and carries forward the net of
// everything dated before it as the opening balance.
func BuildStatement(snapshot []domain.Transaction, period Period) Statement {
	var before []domain.Transaction
	for _, tx := range snapshot {
		if tx.Date.Before(period.From) {
			before = append(before, tx)
		}
	}
	opening := ComputeTotals(before).CurrentFunds
	inPeriod := filterBetween(snapshot, period.From, period.To)
	totals := ComputeTotals(inPeriod)
	return Statement{
		Period:         period,
		Transactions:   inPeriod,
		Totals:         totals,
		OpeningBalance: opening,
		ClosingBalance: opening.Add(totals.CurrentFunds),
	}
}
