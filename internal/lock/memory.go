package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"booking-service/pkg/response"

	"github.com/google/uuid"
)

type held struct {
	token   string
	expires time.Time
}

// MemoryLock is a single-process Locker used when no redis address is configured.
type MemoryLock struct {
	mu    sync.Mutex
	locks map[string]held
	now   func() time.Time
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{
		locks: make(map[string]held),
		now:   time.Now,
	}
}

func (m *MemoryLock) Lock(_ context.Context, key string, ttl time.Duration) (string, error) {
	const op = "lock.MemoryLock.Lock"

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if h, ok := m.locks[key]; ok && now.Before(h.expires) {
		return "", fmt.Errorf("%s: %s: %w", op, key, response.ErrLocked)
	}

	token := uuid.NewString()
	m.locks[key] = held{token: token, expires: now.Add(ttl)}

	return token, nil
}

// Unlock releases the key only while it is still held with token.
func (m *MemoryLock) Unlock(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.locks[key]; ok && h.token == token {
		delete(m.locks, key)
	}
	return nil
}

func (m *MemoryLock) Close() error {
	return nil
}
