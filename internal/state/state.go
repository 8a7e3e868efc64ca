// Package state holds the process-wide view of the store. It is fed only by
// the store subscriptions; writes go to the store and come back here.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
)

// Stats are the derived figures recomputed on every ledger or member push.
type Stats struct {
	Totals       ledger.Totals        `json:"totals"`
	Buckets      []ledger.MonthBucket `json:"monthly_donations"`
	MemberCounts domain.MemberCounts  `json:"members"`
}

// Resubscribe delays after a failed subscription, doubling up to the max.
const (
	DefaultRetryMin = time.Second
	DefaultRetryMax = time.Minute
)

type AppState struct {
	store    repository.Store
	loc      *time.Location
	retryMin time.Duration
	retryMax time.Duration

	mu           sync.RWMutex
	transactions []domain.Transaction
	members      []domain.Member
	notices      []domain.Notice
	stats        Stats
	loaded       map[string]bool
}

func New(store repository.Store, loc *time.Location) *AppState {
	if loc == nil {
		loc = time.UTC
	}
	s := &AppState{
		store:    store,
		loc:      loc,
		retryMin: DefaultRetryMin,
		retryMax: DefaultRetryMax,
		loaded:   make(map[string]bool, 3),
	}
	s.stats = s.computeStats()
	return s
}

// Run subscribes to the three collections and blocks until ctx is done.
// A failed subscription is retried with backoff; the collection reports not
// ready until it delivers again, while the last snapshot stays readable.
func (s *AppState) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.subscribe(ctx, repository.CollectionTransactions, func(ctx context.Context) error {
			return s.store.Transactions().Watch(ctx, s.SetTransactions)
		})
		return nil
	})
	g.Go(func() error {
		s.subscribe(ctx, repository.CollectionMembers, func(ctx context.Context) error {
			return s.store.Members().Watch(ctx, s.SetMembers)
		})
		return nil
	})
	g.Go(func() error {
		s.subscribe(ctx, repository.CollectionNotices, func(ctx context.Context) error {
			return s.store.Notices().Watch(ctx, s.SetNotices)
		})
		return nil
	})
	return g.Wait()
}

func (s *AppState) subscribe(ctx context.Context, collection string, watch func(context.Context) error) {
	delay := s.retryMin
	for {
		err := watch(ctx)
		if ctx.Err() != nil {
			logger.Info("Subscription stopped", "collection", collection)
			return
		}
		if err == nil {
			err = errors.New("subscription ended")
		}

		// A stream that delivered before failing starts the backoff over.
		if s.markDown(collection) {
			delay = s.retryMin
		}
		logger.Error("Subscription failed, retrying", "collection", collection, "error", err, "retry_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Subscription stopped", "collection", collection)
			return
		case <-timer.C:
		}
		delay = min(delay*2, s.retryMax)
	}
}

// markDown clears the readiness flag and reports whether it was set.
func (s *AppState) markDown(collection string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.loaded[collection]
	s.loaded[collection] = false
	return was
}

// SetTransactions replaces the ledger snapshot wholesale.
func (s *AppState) SetTransactions(txs []domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]domain.Transaction(nil), txs...)
	s.loaded[repository.CollectionTransactions] = true
	s.stats = s.computeStats()
	logger.Debug("Ledger snapshot applied", "count", len(txs))
}

func (s *AppState) SetMembers(members []domain.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append([]domain.Member(nil), members...)
	s.loaded[repository.CollectionMembers] = true
	s.stats = s.computeStats()
	logger.Debug("Member snapshot applied", "count", len(members))
}

func (s *AppState) SetNotices(notices []domain.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append([]domain.Notice(nil), notices...)
	s.loaded[repository.CollectionNotices] = true
	logger.Debug("Notice snapshot applied", "count", len(notices))
}

// computeStats must be called with mu held.
func (s *AppState) computeStats() Stats {
	return Stats{
		Totals:       ledger.ComputeTotals(s.transactions),
		Buckets:      ledger.MonthlyBuckets(s.transactions, s.loc),
		MemberCounts: ledger.CountMembers(s.members),
	}
}

// Ready reports whether every collection has delivered its first snapshot.
func (s *AppState) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded[repository.CollectionTransactions] &&
		s.loaded[repository.CollectionMembers] &&
		s.loaded[repository.CollectionNotices]
}

func (s *AppState) Location() *time.Location {
	return s.loc
}

func (s *AppState) Transactions() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Transaction{}, s.transactions...)
}

func (s *AppState) Members() []domain.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Member, len(s.members))
	for i, m := range s.members {
		m.Permissions = append([]domain.Permission(nil), m.Permissions...)
		out[i] = m
	}
	return out
}

func (s *AppState) Notices() []domain.Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Notice{}, s.notices...)
}

func (s *AppState) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats
	st.Buckets = append([]ledger.MonthBucket{}, s.stats.Buckets...)
	return st
}
