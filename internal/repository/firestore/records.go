package firestore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ngo-backend/internal/domain"
)

// Field names follow the camelCase documents already held in the project.

// Amount is written as a fixed-point string. Older documents hold a number,
// so reads accept both.
type transactionDoc struct {
	Amount        any       `firestore:"amount"`
	Type          string    `firestore:"type"`
	Date          time.Time `firestore:"date"`
	Description   string    `firestore:"description"`
	MemberName    string    `firestore:"memberName,omitempty"`
	TransactionID string    `firestore:"transactionId,omitempty"`
}

func toTransactionDoc(tx *domain.Transaction) transactionDoc {
	return transactionDoc{
		Amount:        tx.Amount.StringFixed(domain.AmountScale),
		Type:          string(tx.Type),
		Date:          tx.Date,
		Description:   tx.Description,
		MemberName:    tx.MemberName,
		TransactionID: tx.TransactionID,
	}
}

func fromTransactionDoc(id string, d transactionDoc) (domain.Transaction, error) {
	typ, err := domain.ParseTransactionType(d.Type)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w %s: %v", errDecode, id, err)
	}
	amount, err := decodeAmount(d.Amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w %s: %v", errDecode, id, err)
	}
	return domain.Transaction{
		ID:            id,
		Amount:        amount,
		Type:          typ,
		Date:          d.Date,
		Description:   d.Description,
		MemberName:    d.MemberName,
		TransactionID: d.TransactionID,
	}, nil
}

func decodeAmount(v any) (decimal.Decimal, error) {
	switch a := v.(type) {
	case string:
		return decimal.NewFromString(a)
	case float64:
		return decimal.NewFromFloat(a), nil
	case int64:
		return decimal.NewFromInt(a), nil
	case nil:
		return decimal.Decimal{}, fmt.Errorf("missing amount")
	}
	return decimal.Decimal{}, fmt.Errorf("unsupported amount type %T", v)
}

type memberDoc struct {
	Name        string    `firestore:"name"`
	Email       string    `firestore:"email"`
	Phone       string    `firestore:"phone"`
	Address     string    `firestore:"address"`
	FatherName  string    `firestore:"fatherName,omitempty"`
	MotherName  string    `firestore:"motherName,omitempty"`
	DateOfBirth string    `firestore:"dob,omitempty"`
	BloodGroup  string    `firestore:"bloodGroup,omitempty"`
	Occupation  string    `firestore:"occupation,omitempty"`
	NationalID  string    `firestore:"nid,omitempty"`
	PhotoURL    string    `firestore:"photoUrl,omitempty"`
	Status      string    `firestore:"status"`
	JoinDate    time.Time `firestore:"joinDate"`
	Role        string    `firestore:"role,omitempty"`
	Permissions []string  `firestore:"permissions,omitempty"`
}

func toMemberDoc(m *domain.Member) memberDoc {
	perms := make([]string, 0, len(m.Permissions))
	for _, p := range m.Permissions {
		perms = append(perms, string(p))
	}
	return memberDoc{
		Name:        m.Name,
		Email:       m.Email,
		Phone:       m.Phone,
		Address:     m.Address,
		FatherName:  m.FatherName,
		MotherName:  m.MotherName,
		DateOfBirth: m.DateOfBirth,
		BloodGroup:  m.BloodGroup,
		Occupation:  m.Occupation,
		NationalID:  m.NationalID,
		PhotoURL:    m.PhotoURL,
		Status:      string(m.Status),
		JoinDate:    m.JoinDate,
		Role:        string(m.Role),
		Permissions: perms,
	}
}

func fromMemberDoc(id string, d memberDoc) domain.Member {
	m := domain.Member{
		ID:          id,
		Name:        d.Name,
		Email:       d.Email,
		Phone:       d.Phone,
		Address:     d.Address,
		FatherName:  d.FatherName,
		MotherName:  d.MotherName,
		DateOfBirth: d.DateOfBirth,
		BloodGroup:  d.BloodGroup,
		Occupation:  d.Occupation,
		NationalID:  d.NationalID,
		PhotoURL:    d.PhotoURL,
		Status:      domain.MemberStatus(d.Status),
		JoinDate:    d.JoinDate,
		Role:        domain.MemberRole(d.Role),
	}
	if m.Status != domain.MemberStatusActive {
		m.Status = domain.MemberStatusInactive
	}
	if m.Role == "" {
		m.Role = domain.MemberRoleMember
	}
	for _, p := range d.Permissions {
		m.Permissions = append(m.Permissions, domain.Permission(p))
	}
	return m
}

type noticeDoc struct {
	Message string    `firestore:"message"`
	Date    time.Time `firestore:"date"`
}
