package access

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryDirectory is an in-memory Directory. Credentials are stored as
// given; it exists for hosts without a real user database and for tests.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]dirEntry
}

type dirEntry struct {
	user       User
	credential string
}

// NewMemoryDirectory creates an empty in-memory user directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]dirEntry)}
}

// CreateUser adds a user with a fresh ID.
func (m *MemoryDirectory) CreateUser(ctx context.Context, username, credential string, isAdmin bool) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := User{ID: uuid.NewString(), Username: username, IsAdmin: isAdmin}
	m.users[u.ID] = dirEntry{user: u, credential: credential}
	return u, nil
}

// DeleteUser removes the user with id, reporting whether it existed.
func (m *MemoryDirectory) DeleteUser(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

// FindByUsername returns the user with the given username, or nil.
func (m *MemoryDirectory) FindByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.users {
		if e.user.Username == username {
			u := e.user
			return &u, nil
		}
	}
	return nil, nil
}
