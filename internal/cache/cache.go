// Package cache stores generated quiz text keyed by repository URL so
// "regenerate from last repo" and repeat generations skip the clone and
// the LLM round trip.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL bounds how long a generated quiz stays reusable; project
// sources change often enough that an hour-old quiz is still relevant.
const DefaultTTL = time.Hour

// Cache is a TTL-bounded quiz text cache.
type Cache interface {
	Get(ctx context.Context, repoURL string) (string, bool, error)
	Set(ctx context.Context, repoURL, quiz string) error
	Invalidate(ctx context.Context, repoURL string) error
}

type memoryEntry struct {
	quiz      string
	expiresAt time.Time
}

// Memory is an in-process cache, the default backend.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

// NewMemory creates an in-memory cache with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, repoURL string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[repoURL]
	if !ok {
		return "", false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(m.entries, repoURL)
		return "", false, nil
	}
	return e.quiz, true, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, repoURL, quiz string) error {
	m.mu.Lock()
	m.entries[repoURL] = memoryEntry{quiz: quiz, expiresAt: time.Now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

// Invalidate implements Cache.
func (m *Memory) Invalidate(_ context.Context, repoURL string) error {
	m.mu.Lock()
	delete(m.entries, repoURL)
	m.mu.Unlock()
	return nil
}
