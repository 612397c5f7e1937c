// Package share issues and resolves capability tokens: unguessable strings
// that grant unauthenticated bearer access to a single record.
package share

import (
	"context"
	"sync"
	"time"
)

// Token is an access capability bound to one record.
type Token struct {
	Value     string
	RecordID  string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero means the token never expires
}

// Expired reports whether the token is past its expiry at the given time.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// TokenStore holds live tokens keyed by value. Implementations must be safe
// for concurrent use; a Put must be fully visible to any Get that observes
// the token at all.
type TokenStore interface {
	Put(ctx context.Context, t Token) error
	Get(ctx context.Context, value string) (Token, bool, error)
	Delete(ctx context.Context, value string) error
	PruneExpired(ctx context.Context, now time.Time) (int, error)
	Close() error
}

// MemoryStore is an in-memory TokenStore. Tokens live only as long as the
// process: a restart invalidates all outstanding share links.
type MemoryStore struct {
	tokens map[string]Token
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]Token)}
}

// Put stores a token.
func (m *MemoryStore) Put(ctx context.Context, t Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Value] = t
	return nil
}

// Get returns the token for value, if present.
func (m *MemoryStore) Get(ctx context.Context, value string) (Token, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[value]
	return t, ok, nil
}

// Delete removes a token. Deleting an unknown value is a no-op.
func (m *MemoryStore) Delete(ctx context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, value)
	return nil
}

// PruneExpired removes every expired token and returns how many were
// removed.
func (m *MemoryStore) PruneExpired(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for value, t := range m.tokens {
		if t.Expired(now) {
			delete(m.tokens, value)
			n++
		}
	}
	return n, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}
