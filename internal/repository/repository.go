package repository

import (
	"context"

	"ngo-backend/internal/domain"
)

// Collection names shared by every store implementation.
const (
	CollectionMembers      = "members"
	CollectionNotices      = "notices"
	CollectionTransactions = "transactions"
)

// Watch functions block, invoking fn with the full collection ordered by
// date descending on every change (and once on start), until ctx is done or
// the underlying stream fails.

type TransactionRepository interface {
	Add(ctx context.Context, tx *domain.Transaction) error
	List(ctx context.Context) ([]domain.Transaction, error)
	// DeleteAll removes every transaction as a single atomic unit.
	DeleteAll(ctx context.Context) error
	Watch(ctx context.Context, fn func([]domain.Transaction)) error
}

type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	List(ctx context.Context) ([]domain.Member, error)
	UpdateStatus(ctx context.Context, id string, status domain.MemberStatus) error
	UpdateRole(ctx context.Context, id string, role domain.MemberRole, permissions []domain.Permission) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context, fn func([]domain.Member)) error
}

type NoticeRepository interface {
	Create(ctx context.Context, notice *domain.Notice) error
	List(ctx context.Context) ([]domain.Notice, error)
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context, fn func([]domain.Notice)) error
}

// Store bundles the three collections of one backend.
type Store interface {
	Transactions() TransactionRepository
	Members() MemberRepository
	Notices() NoticeRepository
	Close() error
}
