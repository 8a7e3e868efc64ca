package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
	"ngo-backend/internal/state"
)

type ledgerService struct {
	txRepo repository.TransactionRepository
	state  StateReader
	now    func() time.Time
}

func NewLedgerService(txRepo repository.TransactionRepository, st StateReader, now func() time.Time) LedgerService {
	if now == nil {
		now = time.Now
	}
	return &ledgerService{txRepo: txRepo, state: st, now: now}
}

func (s *ledgerService) Append(ctx context.Context, in AppendTransactionInput) (*domain.Transaction, error) {
	logger.EnterMethod("ledgerService.Append", "type", in.Type, "amount", in.Amount.String())

	if _, err := domain.ParseTransactionType(string(in.Type)); err != nil {
		logger.ExitMethodWithError("ledgerService.Append", err)
		return nil, err
	}
	if !in.Amount.IsPositive() {
		err := domain.NewValidationError("amount", "must be greater than zero")
		logger.ExitMethodWithError("ledgerService.Append", err)
		return nil, err
	}
	if !in.Amount.Equal(in.Amount.Truncate(domain.AmountScale)) {
		err := domain.NewValidationError("amount", "must have at most 2 decimal places")
		logger.ExitMethodWithError("ledgerService.Append", err)
		return nil, err
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = in.Type.Label()
	}

	tx := &domain.Transaction{
		Amount:        in.Amount,
		Type:          in.Type,
		Date:          s.now(),
		Description:   description,
		MemberName:    strings.TrimSpace(in.MemberName),
		TransactionID: strings.TrimSpace(in.TransactionID),
	}
	if err := s.txRepo.Add(ctx, tx); err != nil {
		logger.ExitMethodWithError("ledgerService.Append", err)
		return nil, fmt.Errorf("%w: failed to append transaction: %v", domain.ErrStore, err)
	}

	logger.ExitMethod("ledgerService.Append", "id", tx.ID)
	return tx, nil
}

func (s *ledgerService) ClearAll(ctx context.Context) error {
	logger.EnterMethod("ledgerService.ClearAll")
	if err := s.txRepo.DeleteAll(ctx); err != nil {
		logger.ExitMethodWithError("ledgerService.ClearAll", err)
		return fmt.Errorf("%w: failed to clear transactions: %v", domain.ErrStore, err)
	}
	logger.ExitMethod("ledgerService.ClearAll")
	return nil
}

func (s *ledgerService) List() []domain.Transaction {
	return s.state.Transactions()
}

func (s *ledgerService) Totals() ledger.Totals {
	return ledger.ComputeTotals(s.state.Transactions())
}

func (s *ledgerService) History(memberName string) []ledger.HistoryEntry {
	return ledger.HistoryFor(s.state.Transactions(), memberName)
}

func (s *ledgerService) MonthlyBuckets() []ledger.MonthBucket {
	return ledger.MonthlyBuckets(s.state.Transactions(), s.state.Location())
}

func (s *ledgerService) Statement(period ledger.Period) ledger.Statement {
	return ledger.BuildStatement(s.state.Transactions(), period)
}

func (s *ledgerService) Stats() state.Stats {
	return s.state.Stats()
}
