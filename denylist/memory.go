package denylist

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Entries are plain map records swept by
// an optional GC goroutine; a good sweep interval is the longest token
// lifetime the deployment issues.
type Memory struct {
	entries map[string]int64 // key = token id | value = expiration unix seconds
	mu      sync.RWMutex
}

// NewMemory returns an in-memory denylist with a background sweeper.
// A gcEvery of zero disables the sweeper; call GC manually instead.
func NewMemory(gcEvery time.Duration) *Memory {
	return NewMemoryContext(context.Background(), gcEvery)
}

// NewMemoryContext is NewMemory with a context bounding the sweeper.
func NewMemoryContext(ctx context.Context, gcEvery time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]int64),
	}

	if gcEvery > 0 {
		go m.runGC(ctx, gcEvery)
	}

	return m
}

// Deny marks the token id rejected until the given instant.
func (m *Memory) Deny(_ context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return nil
	}
	m.mu.Lock()
	m.entries[tokenID] = until.Unix()
	m.mu.Unlock()
	return nil
}

// Denied reports whether the token id is on the list.
func (m *Memory) Denied(_ context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	m.mu.RLock()
	_, ok := m.entries[tokenID]
	m.mu.RUnlock()
	return ok, nil
}

// Allow removes the token id from the list.
func (m *Memory) Allow(_ context.Context, tokenID string) error {
	m.mu.Lock()
	delete(m.entries, tokenID)
	m.mu.Unlock()
	return nil
}

// Count returns the total amount of denied token ids.
func (m *Memory) Count() int {
	m.mu.RLock()
	n := len(m.entries)
	m.mu.RUnlock()
	return n
}

// GC removes entries whose tokens have expired on their own and reports
// how many were dropped. An expired token fails verification anyway, so
// keeping its id buys nothing.
func (m *Memory) GC() int {
	now := time.Now().Round(time.Second).Unix()
	var markedForDeletion []string

	m.mu.RLock()
	for tokenID, expiry := range m.entries {
		if now > expiry {
			markedForDeletion = append(markedForDeletion, tokenID)
		}
	}
	m.mu.RUnlock()

	n := len(markedForDeletion)
	if n > 0 {
		m.mu.Lock()
		for _, tokenID := range markedForDeletion {
			delete(m.entries, tokenID)
		}
		m.mu.Unlock()
	}

	return n
}

func (m *Memory) runGC(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)

	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
			m.GC()
		}
	}
}
