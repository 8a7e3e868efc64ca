package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
	"ngo-backend/internal/repository/memory"
	"ngo-backend/internal/state"
)

func TestLedgerService_Append(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	t.Run("Success with default description", func(t *testing.T) {
		repo := new(MockTransactionRepo)
		svc := NewLedgerService(repo, &fakeState{}, fixedClock(now))

		repo.On("Add", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
			return tx.Description == "Donation" && tx.Date.Equal(now) && tx.MemberName == "Anika"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Transaction).ID = "tx-1"
		}).Return(nil)

		tx, err := svc.Append(ctx, AppendTransactionInput{
			Type:       domain.TransactionTypeDonation,
			Amount:     decimal.NewFromInt(50000),
			MemberName: " Anika ",
		})
		require.NoError(t, err)
		assert.Equal(t, "tx-1", tx.ID)
		repo.AssertExpectations(t)
	})

	t.Run("Withdrawal keeps its description", func(t *testing.T) {
		repo := new(MockTransactionRepo)
		svc := NewLedgerService(repo, &fakeState{}, fixedClock(now))
		repo.On("Add", ctx, mock.AnythingOfType("*domain.Transaction")).Return(nil)

		tx, err := svc.Append(ctx, AppendTransactionInput{
			Type:        domain.TransactionTypeWithdrawal,
			Amount:      decimal.NewFromInt(10000),
			Description: "Relief supplies",
		})
		require.NoError(t, err)
		assert.Equal(t, "Relief supplies", tx.Description)
	})

	for _, amount := range []string{"0", "-5", "0.00", "0.004", "10.005"} {
		t.Run("Rejects amount "+amount, func(t *testing.T) {
			repo := new(MockTransactionRepo)
			svc := NewLedgerService(repo, &fakeState{}, fixedClock(now))

			_, err := svc.Append(ctx, AppendTransactionInput{
				Type:   domain.TransactionTypeDonation,
				Amount: decimal.RequireFromString(amount),
			})
			assert.ErrorIs(t, err, domain.ErrValidation)
			repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
		})
	}

	t.Run("Accepts trailing zeros", func(t *testing.T) {
		repo := new(MockTransactionRepo)
		svc := NewLedgerService(repo, &fakeState{}, fixedClock(now))
		repo.On("Add", ctx, mock.AnythingOfType("*domain.Transaction")).Return(nil)

		tx, err := svc.Append(ctx, AppendTransactionInput{
			Type:   domain.TransactionTypeDonation,
			Amount: decimal.RequireFromString("10.500"),
		})
		require.NoError(t, err)
		assert.Equal(t, "10.5", tx.Amount.String())
	})

	t.Run("Rejects unknown type", func(t *testing.T) {
		repo := new(MockTransactionRepo)
		svc := NewLedgerService(repo, &fakeState{}, fixedClock(now))
		_, err := svc.Append(ctx, AppendTransactionInput{Type: "refund", Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Store failure", func(t *testing.T) {
		repo := new(MockTransactionRepo)
		svc := NewLedgerService(repo, &fakeState{}, fixedClock(now))
		repo.On("Add", ctx, mock.Anything).Return(errors.New("permission denied"))

		_, err := svc.Append(ctx, AppendTransactionInput{Type: domain.TransactionTypeDonation, Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, domain.ErrStore)
	})
}

func TestLedgerService_ClearAll(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTransactionRepo)
	svc := NewLedgerService(repo, &fakeState{}, nil)

	repo.On("DeleteAll", ctx).Return(nil).Once()
	assert.NoError(t, svc.ClearAll(ctx))

	repo.On("DeleteAll", ctx).Return(errors.New("unavailable")).Once()
	assert.ErrorIs(t, svc.ClearAll(ctx), domain.ErrStore)
}

// Writes go to the store and only show up once the subscription delivers
// them to the state.
func TestLedgerService_ThroughSubscription(t *testing.T) {
	store := memory.NewStore()
	st := state.New(store, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = st.Run(ctx) }()
	require.Eventually(t, st.Ready, time.Second, 5*time.Millisecond)

	clock := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := NewLedgerService(store.Transactions(), st, func() time.Time {
		clock = clock.Add(24 * time.Hour)
		return clock
	})

	inputs := []AppendTransactionInput{
		{Type: domain.TransactionTypeDonation, Amount: decimal.NewFromInt(50000), MemberName: "Anika"},
		{Type: domain.TransactionTypeDonation, Amount: decimal.NewFromInt(25000), MemberName: "Rahim"},
		{Type: domain.TransactionTypeWithdrawal, Amount: decimal.NewFromInt(10000)},
	}
	for _, in := range inputs {
		_, err := svc.Append(ctx, in)
		require.NoError(t, err)
	}

	_, err := svc.Append(ctx, AppendTransactionInput{Type: domain.TransactionTypeDonation, Amount: decimal.Zero})
	require.ErrorIs(t, err, domain.ErrValidation)

	require.Eventually(t, func() bool { return len(svc.List()) == 3 }, time.Second, 5*time.Millisecond)
	totals := svc.Totals()
	assert.Equal(t, "75000", totals.Donations.String())
	assert.Equal(t, "10000", totals.Withdrawals.String())
	assert.Equal(t, "65000", totals.CurrentFunds.String())

	history := svc.History("anika")
	require.Len(t, history, 1)
	assert.Equal(t, "50000", history[0].Amount.String())

	buckets := svc.MonthlyBuckets()
	require.Len(t, buckets, 1)
	assert.Equal(t, "Jun 24", buckets[0].Label)

	period, err := ledger.ParseMonthPeriod("2024-06", "2024-06", time.UTC)
	require.NoError(t, err)
	assert.Len(t, svc.Statement(period).Transactions, 3)

	require.NoError(t, svc.ClearAll(ctx))
	require.Eventually(t, func() bool { return len(svc.List()) == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, svc.Stats().Totals.CurrentFunds.IsZero())
	assert.True(t, svc.Totals().Donations.IsZero())
}
