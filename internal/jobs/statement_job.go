package jobs

import (
	"context"
	"fmt"

	"ngo-backend/internal/ledger"
	"ngo-backend/internal/logger"
)

// SendMonthlyStatement emails last month's statement to the administrators.
func (jr *JobRunner) SendMonthlyStatement() {
	jr.runWithRecovery("SendMonthlyStatement", func() error {
		return jr.sendMonthlyStatement(context.Background())
	})
}

func (jr *JobRunner) sendMonthlyStatement(ctx context.Context) error {
	recipients := jr.config.Org.AdminEmails
	if len(recipients) == 0 {
		logger.Warn("No administrator emails configured, skipping statement")
		return nil
	}

	txs, err := jr.store.Transactions().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	period := ledger.PreviousMonth(jr.now().In(jr.config.Location()))
	st := ledger.BuildStatement(txs, period)

	if err := jr.services.Email.SendStatement(ctx, recipients, jr.config.Org.Name, st); err != nil {
		return fmt.Errorf("failed to send statement: %w", err)
	}

	logger.Info("Monthly statement sent",
		"period_start", period.From.Format("2006-01-02"),
		"transactions", len(st.Transactions),
		"closing_balance", st.ClosingBalance.StringFixed(2),
		"recipients", len(recipients))
	return nil
}
