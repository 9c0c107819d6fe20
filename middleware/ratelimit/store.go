package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/tech-arch1tect/accounts/clock"
)

// Store counts hits in fixed windows.
type Store interface {
	// Increment records a hit on key, opening a window of period if none is
	// active, and returns the count within the window and when it resets.
	Increment(ctx context.Context, key string, period time.Duration) (int, time.Time, error)
	Reset(ctx context.Context, key string) error
	Close() error
}

type MemoryStore struct {
	mu    sync.Mutex
	data  map[string]*entry
	clock clock.Clock
	done  chan struct{}
	once  sync.Once
}

type entry struct {
	count     int
	resetTime time.Time
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.New()
	}
	store := &MemoryStore{
		data:  make(map[string]*entry),
		clock: clk,
		done:  make(chan struct{}),
	}

	go store.cleanup(time.Minute)

	return store
}

func (s *MemoryStore) Increment(_ context.Context, key string, period time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if e, ok := s.data[key]; ok && now.Before(e.resetTime) {
		e.count++
		return e.count, e.resetTime, nil
	}

	e := &entry{count: 1, resetTime: now.Add(period)}
	s.data[key] = e
	return e.count, e.resetTime, nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *MemoryStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for key, e := range s.data {
		if !now.Before(e.resetTime) {
			delete(s.data, key)
		}
	}
}

func (s *MemoryStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}
