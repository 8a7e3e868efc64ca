package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ngo-backend/internal/chat"
	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
	"ngo-backend/internal/state"
)

// StateReader is the read side of the application state. Services read
// from it and write to the store.
type StateReader interface {
	Transactions() []domain.Transaction
	Members() []domain.Member
	Notices() []domain.Notice
	Stats() state.Stats
	Location() *time.Location
}

type AppendTransactionInput struct {
	Type          domain.TransactionType
	Amount        decimal.Decimal
	Description   string
	MemberName    string
	TransactionID string
}

type LedgerService interface {
	Append(ctx context.Context, in AppendTransactionInput) (*domain.Transaction, error)
	ClearAll(ctx context.Context) error
	List() []domain.Transaction
	Totals() ledger.Totals
	History(memberName string) []ledger.HistoryEntry
	MonthlyBuckets() []ledger.MonthBucket
	Statement(period ledger.Period) ledger.Statement
	Stats() state.Stats
}

// MemberInput carries the profile fields accepted on registration.
type MemberInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	FatherName  string `json:"father_name"`
	MotherName  string `json:"mother_name"`
	DateOfBirth string `json:"date_of_birth"`
	BloodGroup  string `json:"blood_group"`
	Occupation  string `json:"occupation"`
	NationalID  string `json:"national_id"`
	PhotoURL    string `json:"photo_url"`
}

type MemberService interface {
	Register(ctx context.Context, in MemberInput) (*domain.Member, error)
	Create(ctx context.Context, in MemberInput) (*domain.Member, error)
	ToggleStatus(ctx context.Context, id string) (domain.MemberStatus, error)
	SetRole(ctx context.Context, id string, role domain.MemberRole, permissions []domain.Permission) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Member, error)
	// Lookup reads the member from the application state.
	Lookup(id string) (domain.Member, bool)
	List() []domain.Member
	FindByName(name string) []domain.Member
	Counts() domain.MemberCounts
}

type NoticeService interface {
	Create(ctx context.Context, message string) (*domain.Notice, error)
	Delete(ctx context.Context, id string) error
	List() []domain.Notice
}

type EmailService interface {
	SendContact(ctx context.Context, msg domain.ContactEmail) error
	SendStatement(ctx context.Context, to []string, orgName string, st ledger.Statement) error
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	StartModeratorSession(ctx context.Context, memberID string) (string, error)
}

type ChatService interface {
	// Reply answers message; access limits the member and ledger tools.
	Reply(ctx context.Context, access chat.Access, history []domain.ChatMessage, message string) (*chat.Reply, error)
}
