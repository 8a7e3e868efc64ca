// Package ledger derives financial statistics from a snapshot of the
// transaction log. Every function is pure: the input slice is never
// modified and the same snapshot always yields the same result.
package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ngo-backend/internal/domain"
)

// MaxMonthlyBuckets bounds the donation trend series.
const MaxMonthlyBuckets = 6

const bucketLabelLayout = "Jan 06"

type Totals struct {
	Donations    decimal.Decimal `json:"donations"`
	Withdrawals  decimal.Decimal `json:"withdrawals"`
	CurrentFunds decimal.Decimal `json:"current_funds"`
}

type HistoryEntry struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type MonthBucket struct {
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

// ComputeTotals sums amounts by type over the whole snapshot.
func ComputeTotals(snapshot []domain.Transaction) Totals {
	donations := decimal.Zero
	withdrawals := decimal.Zero
	for _, tx := range snapshot {
		switch tx.Type {
		case domain.TransactionTypeDonation:
			donations = donations.Add(tx.Amount)
		case domain.TransactionTypeWithdrawal:
			withdrawals = withdrawals.Add(tx.Amount)
		}
	}
	return Totals{
		Donations:    donations,
		Withdrawals:  withdrawals,
		CurrentFunds: donations.Sub(withdrawals),
	}
}

// HistoryFor returns the donations attributed to memberName, matched
// case-insensitively, in snapshot order. An empty result does not mean the
// member is unknown; callers check the directory for that.
func HistoryFor(snapshot []domain.Transaction, memberName string) []HistoryEntry {
	name := strings.TrimSpace(memberName)
	history := []HistoryEntry{}
	if name == "" {
		return history
	}
	for _, tx := range snapshot {
		if tx.Type != domain.TransactionTypeDonation {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(tx.MemberName), name) {
			continue
		}
		history = append(history, HistoryEntry{
			Date:        tx.Date,
			Description: tx.Description,
			Amount:      tx.Amount,
		})
	}
	return history
}

// MonthlyBuckets groups donation amounts per calendar month in loc and
// returns the most recent MaxMonthlyBuckets months in ascending order.
func MonthlyBuckets(snapshot []domain.Transaction, loc *time.Location) []MonthBucket {
	if loc == nil {
		loc = time.UTC
	}
	sums := make(map[string]decimal.Decimal)
	for _, tx := range snapshot {
		if tx.Type != domain.TransactionTypeDonation {
			continue
		}
		label := tx.Date.In(loc).Format(bucketLabelLayout)
		sums[label] = sums[label].Add(tx.Amount)
	}

	buckets := make([]MonthBucket, 0, len(sums))
	for label, total := range sums {
		buckets = append(buckets, MonthBucket{Label: label, Total: total})
	}
	// The label carries the year, so parsing it back orders buckets across years.
	sort.Slice(buckets, func(i, j int) bool {
		return bucketTime(buckets[i].Label, loc).Before(bucketTime(buckets[j].Label, loc))
	})

	if len(buckets) > MaxMonthlyBuckets {
		buckets = buckets[len(buckets)-MaxMonthlyBuckets:]
	}
	return buckets
}

func bucketTime(label string, loc *time.Location) time.Time {
	t, err := time.ParseInLocation(bucketLabelLayout, label, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// RangeFilter keeps transactions dated from the first instant of fromMonth
// of fromYear through the last instant of toMonth of toYear, both inclusive.
// A range whose start falls after its end yields an empty snapshot.
func RangeFilter(snapshot []domain.Transaction, fromYear int, fromMonth time.Month, toYear int, toMonth time.Month, loc *time.Location) []domain.Transaction {
	if loc == nil {
		loc = time.UTC
	}
	from := monthStart(fromYear, fromMonth, loc)
	to := monthEnd(toYear, toMonth, loc)
	return filterBetween(snapshot, from, to)
}

func filterBetween(snapshot []domain.Transaction, from, to time.Time) []domain.Transaction {
	filtered := []domain.Transaction{}
	if from.After(to) {
		return filtered
	}
	for _, tx := range snapshot {
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		filtered = append(filtered, tx)
	}
	return filtered
}

func monthStart(year int, month time.Month, loc *time.Location) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, loc)
}

func monthEnd(year int, month time.Month, loc *time.Location) time.Time {
	return monthStart(year, month, loc).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// CountMembers tallies the directory by status.
func CountMembers(members []domain.Member) domain.MemberCounts {
	counts := domain.MemberCounts{Total: len(members)}
	for _, m := range members {
		if m.Status == domain.MemberStatusActive {
			counts.Active++
		} else {
			counts.Inactive++
		}
	}
	return counts
}
