package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"ngo-backend/internal/domain"
)

// collection is a mutex-guarded document set that fans out change signals
// to watchers. Watchers always receive the whole collection.
type collection[T any] struct {
	mu       sync.Mutex
	items    map[string]T
	dateOf   func(T) time.Time
	watchers map[chan struct{}]struct{}
}

func newCollection[T any](dateOf func(T) time.Time) *collection[T] {
	return &collection[T]{
		items:    make(map[string]T),
		dateOf:   dateOf,
		watchers: make(map[chan struct{}]struct{}),
	}
}

func newID() string {
	return ulid.Make().String()
}

func (c *collection[T]) put(id string, item T) {
	c.mu.Lock()
	c.items[id] = item
	c.mu.Unlock()
	c.notify()
}

func (c *collection[T]) get(id string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	if !ok {
		var zero T
		return zero, domain.ErrNotFound
	}
	return item, nil
}

// update applies fn to the stored item under the lock.
func (c *collection[T]) update(id string, fn func(*T)) error {
	c.mu.Lock()
	item, ok := c.items[id]
	if !ok {
		c.mu.Unlock()
		return domain.ErrNotFound
	}
	fn(&item)
	c.items[id] = item
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *collection[T]) remove(id string) error {
	c.mu.Lock()
	if _, ok := c.items[id]; !ok {
		c.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(c.items, id)
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *collection[T]) clear() {
	c.mu.Lock()
	c.items = make(map[string]T)
	c.mu.Unlock()
	c.notify()
}

// snapshot returns the items ordered by date, newest first.
func (c *collection[T]) snapshot() []T {
	c.mu.Lock()
	out := make([]T, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	c.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		return c.dateOf(out[i]).After(c.dateOf(out[j]))
	})
	return out
}

func (c *collection[T]) notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (c *collection[T]) watch(ctx context.Context, fn func([]T)) error {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.watchers[ch] = struct{}{}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.watchers, ch)
		c.mu.Unlock()
	}()

	fn(c.snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
			fn(c.snapshot())
		}
	}
}
