package service

import (
	"context"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/mock"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
	"ngo-backend/internal/state"
)

// MockTransactionRepo
type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Add(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockTransactionRepo) List(ctx context.Context) ([]domain.Transaction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockTransactionRepo) Watch(ctx context.Context, fn func([]domain.Transaction)) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

// MockMemberRepo
type MockMemberRepo struct {
	mock.Mock
}

func (m *MockMemberRepo) Create(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}
func (m *MockMemberRepo) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}
func (m *MockMemberRepo) List(ctx context.Context) ([]domain.Member, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Member), args.Error(1)
}
func (m *MockMemberRepo) UpdateStatus(ctx context.Context, id string, status domain.MemberStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
func (m *MockMemberRepo) UpdateRole(ctx context.Context, id string, role domain.MemberRole, permissions []domain.Permission) error {
	args := m.Called(ctx, id, role, permissions)
	return args.Error(0)
}
func (m *MockMemberRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockMemberRepo) Watch(ctx context.Context, fn func([]domain.Member)) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

// MockNoticeRepo
type MockNoticeRepo struct {
	mock.Mock
}

func (m *MockNoticeRepo) Create(ctx context.Context, n *domain.Notice) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNoticeRepo) List(ctx context.Context) ([]domain.Notice, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Notice), args.Error(1)
}
func (m *MockNoticeRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockNoticeRepo) Watch(ctx context.Context, fn func([]domain.Notice)) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

// MockMailSender
type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) Send(email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rest.Response), args.Error(1)
}

// fakeState is a fixed snapshot standing in for the live application state.
type fakeState struct {
	transactions []domain.Transaction
	members      []domain.Member
	notices      []domain.Notice
}

func (f *fakeState) Transactions() []domain.Transaction { return f.transactions }
func (f *fakeState) Members() []domain.Member           { return f.members }
func (f *fakeState) Notices() []domain.Notice           { return f.notices }
func (f *fakeState) Location() *time.Location           { return time.UTC }
func (f *fakeState) Stats() state.Stats {
	return state.Stats{
		Totals:       ledger.ComputeTotals(f.transactions),
		Buckets:      ledger.MonthlyBuckets(f.transactions, time.UTC),
		MemberCounts: ledger.CountMembers(f.members),
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
