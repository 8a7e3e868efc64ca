package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDonation   TransactionType = "donation"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// ParseTransactionType accepts only the closed set of ledger event kinds.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TransactionTypeDonation:
		return TransactionTypeDonation, nil
	case TransactionTypeWithdrawal:
		return TransactionTypeWithdrawal, nil
	}
	return "", NewValidationError("type", fmt.Sprintf("unknown transaction type %q", s))
}

// Label is the description used when none is supplied.
func (t TransactionType) Label() string {
	switch t {
	case TransactionTypeDonation:
		return "Donation"
	case TransactionTypeWithdrawal:
		return "Withdrawal"
	}
	return string(t)
}

// AmountScale is the number of decimal places a stored amount keeps.
const AmountScale = 2

type Transaction struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"` // always positive, sign comes from Type
	Type          TransactionType `json:"type"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	MemberName    string          `json:"member_name,omitempty"`
	TransactionID string          `json:"transaction_id,omitempty"` // external payment reference
}

// IsAttributed reports whether the transaction names a member.
func (t Transaction) IsAttributed() bool {
	return strings.TrimSpace(t.MemberName) != ""
}
