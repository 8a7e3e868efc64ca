package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
	"ngo-backend/internal/logger"
)

// futureSkew tolerates clock drift between writers and the auditor.
const futureSkew = 5 * time.Minute

// AuditReport lists ledger records that break the ledger's rules or that
// cannot be attributed unambiguously.
type AuditReport struct {
	Totals             ledger.Totals
	NonPositiveAmounts []string
	UnknownTypes       []string
	FutureDates        []string
	DuplicateRefs      []string
	UnknownMembers     []string
	SharedNames        []string
}

func (r AuditReport) Issues() int {
	return len(r.NonPositiveAmounts) + len(r.UnknownTypes) + len(r.FutureDates) +
		len(r.DuplicateRefs) + len(r.UnknownMembers) + len(r.SharedNames)
}

// AuditLedger checks the stored ledger and logs anything suspicious.
func (jr *JobRunner) AuditLedger() {
	jr.runWithRecovery("AuditLedger", func() error {
		report, err := jr.auditLedger(context.Background())
		if err != nil {
			return err
		}
		if report.Issues() > 0 {
			logger.Warn("Ledger audit found issues",
				"issues", report.Issues(),
				"non_positive", report.NonPositiveAmounts,
				"unknown_types", report.UnknownTypes,
				"future_dates", report.FutureDates,
				"duplicate_refs", report.DuplicateRefs,
				"unknown_members", report.UnknownMembers,
				"shared_names", report.SharedNames)
		}
		logger.Info("Ledger audit finished",
			"current_funds", report.Totals.CurrentFunds.StringFixed(2),
			"issues", report.Issues())
		return nil
	})
}

func (jr *JobRunner) auditLedger(ctx context.Context) (AuditReport, error) {
	txs, err := jr.store.Transactions().List(ctx)
	if err != nil {
		return AuditReport{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	members, err := jr.store.Members().List(ctx)
	if err != nil {
		return AuditReport{}, fmt.Errorf("failed to list members: %w", err)
	}

	report := AuditReport{Totals: ledger.ComputeTotals(txs)}

	nameCount := make(map[string]int, len(members))
	for _, m := range members {
		nameCount[strings.ToLower(strings.TrimSpace(m.Name))]++
	}
	for name, n := range nameCount {
		if n > 1 {
			report.SharedNames = append(report.SharedNames, name)
		}
	}

	limit := jr.now().Add(futureSkew)
	refs := make(map[string]bool)
	unknown := make(map[string]bool)
	for _, tx := range txs {
		if !tx.Amount.IsPositive() {
			report.NonPositiveAmounts = append(report.NonPositiveAmounts, tx.ID)
		}
		if _, err := domain.ParseTransactionType(string(tx.Type)); err != nil {
			report.UnknownTypes = append(report.UnknownTypes, tx.ID)
		}
		if tx.Date.After(limit) {
			report.FutureDates = append(report.FutureDates, tx.ID)
		}
		if ref := strings.TrimSpace(tx.TransactionID); ref != "" {
			if refs[ref] {
				report.DuplicateRefs = append(report.DuplicateRefs, ref)
			}
			refs[ref] = true
		}
		if tx.IsAttributed() {
			key := strings.ToLower(strings.TrimSpace(tx.MemberName))
			if nameCount[key] == 0 && !unknown[key] {
				unknown[key] = true
				report.UnknownMembers = append(report.UnknownMembers, tx.MemberName)
			}
		}
	}
	return report, nil
}
