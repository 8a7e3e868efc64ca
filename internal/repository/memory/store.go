// Package memory is an in-process store used for local development and tests.
package memory

import (
	"context"
	"time"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/repository"
)

type Store struct {
	transactions *transactionRepository
	members      *memberRepository
	notices      *noticeRepository
}

func NewStore() *Store {
	return &Store{
		transactions: &transactionRepository{c: newCollection(func(t domain.Transaction) time.Time { return t.Date })},
		members:      &memberRepository{c: newCollection(func(m domain.Member) time.Time { return m.JoinDate })},
		notices:      &noticeRepository{c: newCollection(func(n domain.Notice) time.Time { return n.Date })},
	}
}

func (s *Store) Transactions() repository.TransactionRepository { return s.transactions }
func (s *Store) Members() repository.MemberRepository           { return s.members }
func (s *Store) Notices() repository.NoticeRepository           { return s.notices }
func (s *Store) Close() error                                   { return nil }

type transactionRepository struct {
	c *collection[domain.Transaction]
}

func (r *transactionRepository) Add(_ context.Context, tx *domain.Transaction) error {
	tx.ID = newID()
	r.c.put(tx.ID, *tx)
	return nil
}

func (r *transactionRepository) List(_ context.Context) ([]domain.Transaction, error) {
	return r.c.snapshot(), nil
}

func (r *transactionRepository) DeleteAll(_ context.Context) error {
	r.c.clear()
	return nil
}

func (r *transactionRepository) Watch(ctx context.Context, fn func([]domain.Transaction)) error {
	return r.c.watch(ctx, fn)
}

type memberRepository struct {
	c *collection[domain.Member]
}

func (r *memberRepository) Create(_ context.Context, m *domain.Member) error {
	m.ID = newID()
	m.Permissions = append([]domain.Permission(nil), m.Permissions...)
	r.c.put(m.ID, *m)
	return nil
}

func (r *memberRepository) GetByID(_ context.Context, id string) (*domain.Member, error) {
	m, err := r.c.get(id)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepository) List(_ context.Context) ([]domain.Member, error) {
	return r.c.snapshot(), nil
}

func (r *memberRepository) UpdateStatus(_ context.Context, id string, status domain.MemberStatus) error {
	return r.c.update(id, func(m *domain.Member) { m.Status = status })
}

func (r *memberRepository) UpdateRole(_ context.Context, id string, role domain.MemberRole, permissions []domain.Permission) error {
	return r.c.update(id, func(m *domain.Member) {
		m.Role = role
		m.Permissions = append([]domain.Permission(nil), permissions...)
	})
}

func (r *memberRepository) Delete(_ context.Context, id string) error {
	return r.c.remove(id)
}

func (r *memberRepository) Watch(ctx context.Context, fn func([]domain.Member)) error {
	return r.c.watch(ctx, fn)
}

type noticeRepository struct {
	c *collection[domain.Notice]
}

func (r *noticeRepository) Create(_ context.Context, n *domain.Notice) error {
	n.ID = newID()
	r.c.put(n.ID, *n)
	return nil
}

func (r *noticeRepository) List(_ context.Context) ([]domain.Notice, error) {
	return r.c.snapshot(), nil
}

func (r *noticeRepository) Delete(_ context.Context, id string) error {
	return r.c.remove(id)
}

func (r *noticeRepository) Watch(ctx context.Context, fn func([]domain.Notice)) error {
	return r.c.watch(ctx, fn)
}
