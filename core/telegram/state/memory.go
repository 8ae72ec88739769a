package state

import (
	"context"
	"sync"
	"time"
)

// Store keeps one value per user. Update runs fn with exclusive access to the
// user's value, so read-modify-write sequences of one user never interleave.
type Store[T any] interface {
	Get(userID int64) T
	Set(userID int64, value T)
	Clear(userID int64)
	Update(userID int64, fn func(*T))
}

type entry[T any] struct {
	mu      sync.Mutex
	value   T
	touched time.Time
}

// MemoryStore is an in-process Store. Entries whose value is idle (per the
// idle predicate) are dropped after each update so finished conversations do
// not accumulate.
type MemoryStore[T any] struct {
	mu      sync.Mutex
	entries map[int64]*entry[T]

	fresh func() T
	idle  func(T) bool
	now   func() time.Time
}

// Option customises a MemoryStore.
type Option[T any] func(*MemoryStore[T])

// WithIdle sets the predicate deciding which values need not be kept.
func WithIdle[T any](idle func(T) bool) Option[T] {
	return func(s *MemoryStore[T]) { s.idle = idle }
}

// WithClock overrides time.Now, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(s *MemoryStore[T]) { s.now = now }
}

// NewMemoryStore builds a store; fresh returns the value reported for unknown users.
func NewMemoryStore[T any](fresh func() T, opts ...Option[T]) *MemoryStore[T] {
	if fresh == nil {
		fresh = func() T {
			var zero T
			return zero
		}
	}
	s := &MemoryStore[T]{
		entries: make(map[int64]*entry[T]),
		fresh:   fresh,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the user's value, or a fresh one if absent.
func (s *MemoryStore[T]) Get(userID int64) T {
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return s.fresh()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Set replaces the user's value.
func (s *MemoryStore[T]) Set(userID int64, value T) {
	s.Update(userID, func(v *T) { *v = value })
}

// Clear removes the user's value.
func (s *MemoryStore[T]) Clear(userID int64) {
	s.mu.Lock()
	delete(s.entries, userID)
	s.mu.Unlock()
}

// Update applies fn to the user's value under the user's lock.
func (s *MemoryStore[T]) Update(userID int64, fn func(*T)) {
	for {
		e := s.acquire(userID)
		e.mu.Lock()
		if !s.current(userID, e) {
			// Cleared or swept between acquire and lock.
			e.mu.Unlock()
			continue
		}
		fn(&e.value)
		e.touched = s.now()
		if s.idle != nil && s.idle(e.value) {
			s.mu.Lock()
			if s.entries[userID] == e {
				delete(s.entries, userID)
			}
			s.mu.Unlock()
		}
		e.mu.Unlock()
		return
	}
}

// Len reports the number of users with a stored value.
func (s *MemoryStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops values not updated within maxIdle and returns how many were removed.
// Entries locked by an in-flight update are skipped.
func (s *MemoryStore[T]) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.touched.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done. onSweep, if set,
// receives the number of removed values after each pass.
func (s *MemoryStore[T]) RunJanitor(ctx context.Context, interval, maxIdle time.Duration, onSweep func(int)) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := s.Sweep(maxIdle)
			if onSweep != nil {
				onSweep(n)
			}
		}
	}
}

func (s *MemoryStore[T]) acquire(userID int64) *entry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry[T]{value: s.fresh(), touched: s.now()}
		s.entries[userID] = e
	}
	return e
}

func (s *MemoryStore[T]) current(userID int64, e *entry[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[userID] == e
}
