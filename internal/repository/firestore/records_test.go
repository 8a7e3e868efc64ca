package firestore

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ngo-backend/internal/domain"
)

func TestTransactionDocRoundTrip(t *testing.T) {
	date := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tx := &domain.Transaction{
		Amount:        decimal.RequireFromString("2500.50"),
		Type:          domain.TransactionTypeDonation,
		Date:          date,
		Description:   "Eid fund",
		MemberName:    "Rahim",
		TransactionID: "BKASH-1",
	}

	doc := toTransactionDoc(tx)
	assert.Equal(t, "2500.50", doc.Amount)
	assert.Equal(t, "donation", doc.Type)

	got, err := fromTransactionDoc("abc", doc)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
	assert.True(t, tx.Amount.Equal(got.Amount))
	assert.Equal(t, "Rahim", got.MemberName)
}

func TestTransactionDoc_KeepsSmallAmountsExact(t *testing.T) {
	for _, amount := range []string{"0.01", "10.99", "1234567.89"} {
		tx := &domain.Transaction{Amount: decimal.RequireFromString(amount), Type: domain.TransactionTypeWithdrawal}
		got, err := fromTransactionDoc("abc", toTransactionDoc(tx))
		require.NoError(t, err)
		assert.True(t, tx.Amount.Equal(got.Amount), "amount %s came back as %s", amount, got.Amount)
		assert.True(t, got.Amount.IsPositive())
	}
}

func TestFromTransactionDoc_NumericAmounts(t *testing.T) {
	got, err := fromTransactionDoc("a", transactionDoc{Amount: 2500.5, Type: "donation"})
	require.NoError(t, err)
	assert.Equal(t, "2500.5", got.Amount.String())

	got, err = fromTransactionDoc("b", transactionDoc{Amount: int64(700), Type: "donation"})
	require.NoError(t, err)
	assert.Equal(t, "700", got.Amount.String())
}

func TestFromTransactionDoc_Invalid(t *testing.T) {
	_, err := fromTransactionDoc("abc", transactionDoc{Amount: "1", Type: "refund"})
	assert.True(t, errors.Is(err, errDecode))

	_, err = fromTransactionDoc("abc", transactionDoc{Amount: "ten", Type: "donation"})
	assert.True(t, errors.Is(err, errDecode))

	_, err = fromTransactionDoc("abc", transactionDoc{Type: "donation"})
	assert.True(t, errors.Is(err, errDecode))
}

func TestFromMemberDoc_Defaults(t *testing.T) {
	m := fromMemberDoc("m1", memberDoc{Name: "Anika", Status: "pending", Permissions: []string{"manage_notices"}})
	assert.Equal(t, domain.MemberStatusInactive, m.Status)
	assert.Equal(t, domain.MemberRoleMember, m.Role)
	assert.Equal(t, []domain.Permission{domain.PermissionManageNotices}, m.Permissions)

	back := toMemberDoc(&m)
	assert.Equal(t, "inactive", back.Status)
	assert.Equal(t, []string{"manage_notices"}, back.Permissions)
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil))
	assert.True(t, errors.Is(mapError(status.Error(codes.NotFound, "no doc")), domain.ErrNotFound))

	other := fmt.Errorf("boom")
	assert.Equal(t, other, mapError(other))
}

func TestDecodeAll_SkipsBadDocuments(t *testing.T) {
	docs := []transactionDoc{
		{Amount: "100.00", Type: "donation"},
		{Amount: "5", Type: "refund"},
		{Amount: "oops", Type: "donation"},
		{Amount: 40.25, Type: "withdrawal"},
	}
	txs := decodeAll("transactions", len(docs), func(i int) (domain.Transaction, error) {
		return fromTransactionDoc(fmt.Sprintf("d%d", i), docs[i])
	})

	require.Len(t, txs, 2)
	assert.Equal(t, "d0", txs[0].ID)
	assert.Equal(t, "d3", txs[1].ID)
	assert.Equal(t, "40.25", txs[1].Amount.String())
}
